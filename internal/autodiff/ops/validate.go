package ops

import (
	"fmt"

	"github.com/born-ml/encoding/internal/tensor"
)

// operand names one argument of an op for error reporting.
type operand struct {
	name string
	t    *tensor.RawTensor
}

// checkRank verifies that every operand is non-nil and has the given rank.
func checkRank(op string, rank int, args ...operand) error {
	for _, arg := range args {
		if arg.t == nil {
			return fmt.Errorf("%s: %w: %s is nil", op, tensor.ErrShapeMismatch, arg.name)
		}
		if got := len(arg.t.Shape()); got != rank {
			return &tensor.ShapeError{Op: op, Arg: arg.name, Dim: -1, Got: got, Want: rank}
		}
	}
	return nil
}

// checkDim verifies arg's dimension dim against want.
func checkDim(op string, arg operand, dim, want int) error {
	if got := arg.t.Shape()[dim]; got != want {
		return &tensor.ShapeError{Op: op, Arg: arg.name, Dim: dim, Got: got, Want: want}
	}
	return nil
}

// checkShape verifies that arg has exactly the given shape.
func checkShape(op string, arg operand, want tensor.Shape) error {
	if err := checkRank(op, len(want), arg); err != nil {
		return err
	}
	for d, w := range want {
		if err := checkDim(op, arg, d, w); err != nil {
			return err
		}
	}
	return nil
}

// checkPlacement verifies that all operands share a float dtype and a device.
func checkPlacement(op string, args ...operand) error {
	first := args[0].t
	if !first.DType().IsFloat() {
		return fmt.Errorf("%s: %w: %s is %s", op, tensor.ErrUnsupportedDType, args[0].name, first.DType())
	}
	for _, arg := range args[1:] {
		if arg.t.DType() != first.DType() {
			return fmt.Errorf("%s: %w: %s is %s, %s is %s",
				op, tensor.ErrUnsupportedDType, arg.name, arg.t.DType(), args[0].name, first.DType())
		}
		if arg.t.Device() != first.Device() {
			return fmt.Errorf("%s: %w: %s is on %s, %s is on %s",
				op, tensor.ErrDeviceMismatch, arg.name, arg.t.Device(), args[0].name, first.Device())
		}
	}
	return nil
}

// validateAggregate checks A (B,N,K), X (B,N,D) and C (K,D).
func validateAggregate(a, x, c *tensor.RawTensor) error {
	const op = "aggregate"
	A, X, C := operand{"A", a}, operand{"X", x}, operand{"C", c}

	if err := checkRank(op, 3, A, X); err != nil {
		return err
	}
	if err := checkRank(op, 2, C); err != nil {
		return err
	}

	B, N, K := a.Shape()[0], a.Shape()[1], a.Shape()[2]
	D := x.Shape()[2]
	for _, err := range []error{
		checkDim(op, X, 0, B),
		checkDim(op, X, 1, N),
		checkDim(op, C, 0, K),
		checkDim(op, C, 1, D),
	} {
		if err != nil {
			return err
		}
	}
	return checkPlacement(op, A, X, C)
}

// validateScaledL2 checks X (B,N,D), C (K,D) and S (K,).
func validateScaledL2(x, c, s *tensor.RawTensor) error {
	const op = "scaled_l2"
	X, C, S := operand{"X", x}, operand{"C", c}, operand{"S", s}

	if err := checkRank(op, 3, X); err != nil {
		return err
	}
	if err := checkRank(op, 2, C); err != nil {
		return err
	}
	if err := checkRank(op, 1, S); err != nil {
		return err
	}

	if err := checkDim(op, C, 1, x.Shape()[2]); err != nil {
		return err
	}
	if err := checkDim(op, S, 0, c.Shape()[0]); err != nil {
		return err
	}
	return checkPlacement(op, X, C, S)
}

// validateGrad checks an output gradient against the forward output.
func validateGrad(op, name string, grad, output *tensor.RawTensor) error {
	g := operand{name, grad}
	if err := checkShape(op, g, output.Shape()); err != nil {
		return err
	}
	return checkPlacement(op, operand{"output", output}, g)
}
