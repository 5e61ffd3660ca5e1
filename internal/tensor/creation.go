package tensor

import (
	"fmt"
	"math/rand"
)

// FromSlice creates a tensor that holds a copy of data.
//
// Example:
//
//	c, err := tensor.FromSlice([]float64{0, 1, 2, 3}, Shape{2, 2}, tensor.CPU)
func FromSlice[T Float](data []T, shape Shape, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}

	raw, err := NewRaw(shape, dataTypeOf[T](), device)
	if err != nil {
		return nil, err
	}
	copy(Floats[T](raw), data)
	return raw, nil
}

// Zeros creates a zero-filled float tensor.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if !dtype.IsFloat() {
		return nil, fmt.Errorf("zeros: %w: %s", ErrUnsupportedDType, dtype)
	}
	return NewRaw(shape, dtype, device)
}

// Uniform creates a float tensor with values drawn uniformly from [lo, hi).
// The caller owns rng, so results are reproducible for a fixed seed.
func Uniform(shape Shape, dtype DataType, device Device, rng *rand.Rand, lo, hi float64) (*RawTensor, error) {
	raw, err := Zeros(shape, dtype, device)
	if err != nil {
		return nil, err
	}

	switch dtype {
	case Float32:
		data := raw.AsFloat32()
		for i := range data {
			data[i] = float32(lo + (hi-lo)*rng.Float64())
		}
	case Float64:
		data := raw.AsFloat64()
		for i := range data {
			data[i] = lo + (hi-lo)*rng.Float64()
		}
	}
	return raw, nil
}
