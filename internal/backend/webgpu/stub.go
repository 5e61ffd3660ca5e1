//go:build !windows

// Package webgpu implements the accelerator backend as WGSL compute shaders.
// On this platform the native library is not wired, so the backend reports
// itself unavailable and callers fall back to the CPU.
package webgpu

import (
	"fmt"

	"github.com/born-ml/encoding/internal/tensor"
)

// Backend is the accelerator backend. It cannot be constructed on this platform.
type Backend struct{}

// New always fails with tensor.ErrDeviceUnavailable on this platform.
func New() (*Backend, error) {
	return nil, fmt.Errorf("webgpu: %w: not supported on this platform", tensor.ErrDeviceUnavailable)
}

// IsAvailable reports false on this platform.
func IsAvailable() bool {
	return false
}

// Release is a no-op.
func (b *Backend) Release() {}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// AggregateForward is unreachable since New never succeeds.
func (b *Backend) AggregateForward(_, _, _ *tensor.RawTensor) (*tensor.RawTensor, error) {
	return nil, fmt.Errorf("webgpu: aggregate forward: %w", tensor.ErrDeviceUnavailable)
}

// AggregateBackward is unreachable since New never succeeds.
func (b *Backend) AggregateBackward(_, _, _, _ *tensor.RawTensor) (gradA, gradX, gradC *tensor.RawTensor, err error) {
	return nil, nil, nil, fmt.Errorf("webgpu: aggregate backward: %w", tensor.ErrDeviceUnavailable)
}
