package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device represents where a tensor's data is resident.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// IsAccelerator reports whether the device is anything other than the CPU.
func (d Device) IsAccelerator() bool {
	return d != CPU
}

// tensorBuffer is a reference-counted buffer shared by retained references.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex
}

func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release drops one reference and frees the data when none remain.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
	}
}

// RawTensor is a dense, contiguous, row-major tensor.
//
// The data of a tensor tagged with an accelerator device is mirrored in host
// memory; accelerator backends upload it per call and return results tagged
// with the same device.
type RawTensor struct {
	buffer *tensorBuffer
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw creates a zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		buffer: newTensorBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the device the tensor resides on.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	return Floats[float32](r)
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	return Floats[float64](r)
}

// Floats interprets the tensor data as []T without copying.
// Panics if T does not match the tensor's dtype.
func Floats[T Float](r *RawTensor) []T {
	if want := dataTypeOf[T](); r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
	data := r.buffer.data
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), r.NumElements())
}

// Float64s returns a copy of a float tensor's data widened to float64.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	switch r.dtype {
	case Float32:
		for i, v := range r.AsFloat32() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, r.AsFloat64())
	default:
		panic(fmt.Sprintf("Float64s: unsupported dtype %s", r.dtype))
	}
	return out
}

// Retain adds a reference to the tensor's buffer and returns the tensor.
// Every Retain must be paired with exactly one Release.
func (r *RawTensor) Retain() *RawTensor {
	r.buffer.addRef()
	return r
}

// Release drops a reference; the buffer is freed when none remain.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// RefCount returns the number of live references to the tensor's buffer.
func (r *RawTensor) RefCount() int {
	return int(r.buffer.refCount.Load())
}

// Copy returns a deep copy of the tensor on the same device.
func (r *RawTensor) Copy() *RawTensor {
	return r.ToDevice(r.device)
}

// ToDevice returns a deep copy of the tensor tagged with the given device.
func (r *RawTensor) ToDevice(device Device) *RawTensor {
	out, err := NewRaw(r.shape, r.dtype, device)
	if err != nil {
		panic(fmt.Sprintf("ToDevice: %v", err)) // shape was validated at creation
	}
	copy(out.buffer.data, r.buffer.data)
	return out
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor(%v, %s, %s)", r.shape, r.dtype, r.device)
}
