package tensor

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// AllClose reports whether a and b have the same shape and dtype and every
// pair of elements satisfies |a-b| <= atol + rtol*|b|.
// Two NaNs compare equal, as do two infinities of the same sign.
func AllClose(a, b *RawTensor, rtol, atol float64) bool {
	if !a.Shape().Equal(b.Shape()) || a.DType() != b.DType() {
		return false
	}

	switch a.DType() {
	case Float32:
		av, bv := a.AsFloat32(), b.AsFloat32()
		rt, at := float32(rtol), float32(atol)
		for i := range av {
			x, y := av[i], bv[i]
			if math32.IsNaN(x) || math32.IsNaN(y) {
				if math32.IsNaN(x) != math32.IsNaN(y) {
					return false
				}
				continue
			}
			if x == y {
				continue
			}
			if math32.IsInf(x, 0) || math32.IsInf(y, 0) {
				return false
			}
			if math32.Abs(x-y) > at+rt*math32.Abs(y) {
				return false
			}
		}
		return true
	case Float64:
		av, bv := a.AsFloat64(), b.AsFloat64()
		for i := range av {
			x, y := av[i], bv[i]
			if math.IsNaN(x) || math.IsNaN(y) {
				if math.IsNaN(x) != math.IsNaN(y) {
					return false
				}
				continue
			}
			if x == y {
				continue
			}
			if math.IsInf(x, 0) || math.IsInf(y, 0) {
				return false
			}
			if math.Abs(x-y) > atol+rtol*math.Abs(y) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("AllClose: unsupported dtype %s", a.DType()))
	}
}

// Add returns the element-wise sum of two float tensors of identical shape.
func Add(a, b *RawTensor) (*RawTensor, error) {
	if !a.Shape().Equal(b.Shape()) {
		return nil, fmt.Errorf("add: %w: %v vs %v", ErrShapeMismatch, a.Shape(), b.Shape())
	}
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("add: %w: %s vs %s", ErrUnsupportedDType, a.DType(), b.DType())
	}

	out, err := NewRaw(a.Shape(), a.DType(), a.Device())
	if err != nil {
		return nil, err
	}
	switch a.DType() {
	case Float32:
		addFloats(out.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case Float64:
		addFloats(out.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	default:
		return nil, fmt.Errorf("add: %w: %s", ErrUnsupportedDType, a.DType())
	}
	return out, nil
}

func addFloats[T Float](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}
