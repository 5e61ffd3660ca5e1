package autodiff

import (
	"fmt"

	"github.com/born-ml/encoding/internal/autodiff/ops"
	"github.com/born-ml/encoding/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := d.Tape()
//	tape.StartRecording()
//	sl, _, _ := d.ScaledL2(x, c, s)
//	e, _, _ := d.Aggregate(sl, x, c)
//	gradients, err := tape.Backward(gradE)
//
// A GradientTape is not safe for concurrent use.
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 8),
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients for all inputs by walking the tape in reverse.
//
// Algorithm:
//  1. Seed the output of the last recorded operation with outputGrad
//  2. Walk operations in reverse order
//  3. For each operation whose output has a gradient, run its backward pass
//  4. Accumulate gradients when the same tensor is used multiple times
//
// Returns a map from RawTensor to its accumulated gradient. Every recorded
// operation is consumed, so the tape is cleared on success.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads, nil
	}

	// Stop recording during backward pass to prevent recording gradient operations
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	lastOp := t.operations[len(t.operations)-1]
	grads[lastOp.Output()] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		opGrad, hasGrad := grads[op.Output()]
		if !hasGrad {
			continue
		}

		// Inputs are read before Backward releases the op's references.
		inputs := op.Inputs()
		inputGrads, err := op.Backward(opGrad)
		if err != nil {
			return nil, fmt.Errorf("tape: operation %d: %w", i, err)
		}
		if err := accumulateGrads(inputs, inputGrads, grads); err != nil {
			return nil, fmt.Errorf("tape: operation %d: %w", i, err)
		}
	}

	t.Clear()
	return grads, nil
}

// accumulateGrads adds each input gradient into grads.
func accumulateGrads(inputs, inputGrads []*tensor.RawTensor, grads map[*tensor.RawTensor]*tensor.RawTensor) error {
	for j, input := range inputs {
		if j >= len(inputGrads) {
			break
		}
		inputGrad := inputGrads[j]
		if inputGrad == nil {
			continue
		}
		existing, ok := grads[input]
		if !ok {
			grads[input] = inputGrad
			continue
		}
		sum, err := tensor.Add(existing, inputGrad)
		if err != nil {
			return err
		}
		grads[input] = sum
	}
	return nil
}
