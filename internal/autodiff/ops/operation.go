// Package ops defines the differentiable encoding operations.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed when the op is constructed, by a backend or by
//     the dense kernels in this package
//   - Backward pass: computes gradients for inputs given output gradient
//
// Supported operations:
//   - AggregateOp: weighted residual aggregation, E = Σ_i A[i,k]·(X[i] − C[k])
//   - ScaledL2Op: scaled squared distance, SL = S[k]·‖X[i] − C[k]‖²
//
// An op retains the tensors its backward pass needs and releases them when
// Backward runs. Backward may run only once per op.
package ops

import (
	"errors"

	"github.com/born-ml/encoding/internal/tensor"
)

// ErrConsumed is returned by Backward on an op whose retained tensors were
// already released by an earlier Backward call.
var ErrConsumed = errors.New("ops: backward already called")

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	//
	// Example for AggregateOp:
	//   inputs: [A, X, C]
	//   outputGrad: dL/dE
	//   returns: [dL/dA, dL/dX, dL/dC]
	Backward(outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error)

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// retained holds the references an op keeps between forward and backward.
type retained struct {
	tensors  []*tensor.RawTensor
	consumed bool
}

func retain(ts ...*tensor.RawTensor) retained {
	held := make([]*tensor.RawTensor, len(ts))
	for i, t := range ts {
		held[i] = t.Retain()
	}
	return retained{tensors: held}
}

// release drops every retained reference exactly once.
func (r *retained) release() {
	if r.consumed {
		return
	}
	for _, t := range r.tensors {
		t.Release()
	}
	r.consumed = true
}
