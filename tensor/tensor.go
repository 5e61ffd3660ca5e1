// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/encoding/internal/tensor"
)

// Float is the constraint for element types accepted by FromSlice.
type Float = tensor.Float

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// ShapeError describes a shape precondition violation on one argument.
type ShapeError = tensor.ShapeError

// Errors returned by the encoding operations and backends.
var (
	ErrShapeMismatch     = tensor.ErrShapeMismatch
	ErrUnsupportedDType  = tensor.ErrUnsupportedDType
	ErrDeviceUnavailable = tensor.ErrDeviceUnavailable
	ErrDeviceMismatch    = tensor.ErrDeviceMismatch
)

// NewRaw creates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice creates a tensor holding a copy of data.
//
// Example:
//
//	c, _ := tensor.FromSlice([]float64{0, 0, 1, 1}, tensor.Shape{2, 2}, tensor.CPU)
func FromSlice[T Float](data []T, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, device)
}

// Zeros creates a zero-filled float tensor.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype, device)
}

// Uniform creates a float tensor with values drawn uniformly from [lo, hi).
func Uniform(shape Shape, dtype DataType, device Device, rng *rand.Rand, lo, hi float64) (*RawTensor, error) {
	return tensor.Uniform(shape, dtype, device, rng, lo, hi)
}

// AllClose reports whether |a-b| <= atol + rtol·|b| element-wise.
func AllClose(a, b *RawTensor, rtol, atol float64) bool {
	return tensor.AllClose(a, b, rtol, atol)
}
