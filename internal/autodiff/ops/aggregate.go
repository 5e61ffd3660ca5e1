package ops

import (
	"fmt"

	"github.com/born-ml/encoding/internal/tensor"
)

// AggregateOp represents weighted residual aggregation:
// E[b,k,:] = Σ_i A[b,i,k]·(X[b,i,:] − C[k,:]).
//
// Backward pass:
//   - dE/dA[b,i,k] = Σ_d gradE[b,k,d]·(X[b,i,d] − C[k,d])
//   - dE/dX[b,i,d] = Σ_k gradE[b,k,d]·A[b,i,k]
//   - dE/dC[k,d]   = −Σ_{b,i} gradE[b,k,d]·A[b,i,k]
//
// Both passes run on the backend the op was created with.
type AggregateOp struct {
	backend tensor.Backend
	inputs  []*tensor.RawTensor // [A, X, C]
	output  *tensor.RawTensor   // E
	held    retained
}

// Aggregate validates A (B,N,K), X (B,N,D) and C (K,D), computes E (B,K,D)
// on backend and returns it with the op needed for the backward pass.
// No backend work happens when validation fails.
func Aggregate(backend tensor.Backend, a, x, c *tensor.RawTensor) (*tensor.RawTensor, *AggregateOp, error) {
	if err := validateAggregate(a, x, c); err != nil {
		return nil, nil, err
	}

	e, err := backend.AggregateForward(a, x, c)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate: %w", err)
	}

	op := &AggregateOp{
		backend: backend,
		inputs:  []*tensor.RawTensor{a, x, c},
		output:  e,
		held:    retain(a, x, c),
	}
	return e, op, nil
}

// Backward computes [gradA, gradX, gradC] and releases the retained inputs.
func (op *AggregateOp) Backward(outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if op.held.consumed {
		return nil, ErrConsumed
	}
	if err := validateGrad("aggregate backward", "gradE", outputGrad, op.output); err != nil {
		return nil, err
	}
	defer op.held.release()

	a, x, c := op.inputs[0], op.inputs[1], op.inputs[2]
	gradA, gradX, gradC, err := op.backend.AggregateBackward(outputGrad, a, x, c)
	if err != nil {
		return nil, fmt.Errorf("aggregate backward: %w", err)
	}
	return []*tensor.RawTensor{gradA, gradX, gradC}, nil
}

// Inputs returns the input tensors [A, X, C].
func (op *AggregateOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor E.
func (op *AggregateOp) Output() *tensor.RawTensor {
	return op.output
}

// Backend returns the backend that ran the forward pass.
func (op *AggregateOp) Backend() tensor.Backend {
	return op.backend
}
