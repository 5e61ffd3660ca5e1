//go:build windows

// Package webgpu implements the accelerator backend as WGSL compute shaders.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/encoding/internal/tensor"
)

// Backend implements the encoding kernels on a GPU through WebGPU.
// Only float32 tensors are supported.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex
}

// New creates a new WebGPU backend.
// Returns an error wrapping tensor.ErrDeviceUnavailable if WebGPU is not
// available or initialization fails.
func New() (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: %w: native library not available: %v", tensor.ErrDeviceUnavailable, r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("webgpu: %w: failed to create instance: %v", tensor.ErrDeviceUnavailable, instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(nil)
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: %w: failed to request adapter: %v", tensor.ErrDeviceUnavailable, adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: %w: failed to request device: %v", tensor.ErrDeviceUnavailable, deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: %w: failed to get queue", tensor.ErrDeviceUnavailable)
	}

	return &Backend{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// Release releases all WebGPU resources.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil

	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// AggregateForward computes E (B,K,D) with one shader invocation per output element.
func (b *Backend) AggregateForward(a, x, c *tensor.RawTensor) (*tensor.RawTensor, error) {
	B, K := a.Shape()[0], a.Shape()[2]
	D := x.Shape()[2]

	e, err := b.runKernel("aggregate_forward", aggregateForwardShader,
		[]*tensor.RawTensor{a, x, c}, tensor.Shape{B, K, D}, dimsOf(a, x))
	if err != nil {
		return nil, fmt.Errorf("webgpu: aggregate forward: %w", err)
	}
	return e, nil
}

// AggregateBackward computes gradA, gradX and gradC with three kernels that
// each own one output tensor, so no atomics are needed.
func (b *Backend) AggregateBackward(gradE, a, x, c *tensor.RawTensor) (gradA, gradX, gradC *tensor.RawTensor, err error) {
	dims := dimsOf(a, x)

	gradA, err = b.runKernel("aggregate_backward_a", aggregateBackwardAShader,
		[]*tensor.RawTensor{gradE, x, c}, a.Shape(), dims)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("webgpu: aggregate backward: %w", err)
	}
	gradX, err = b.runKernel("aggregate_backward_x", aggregateBackwardXShader,
		[]*tensor.RawTensor{gradE, a}, x.Shape(), dims)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("webgpu: aggregate backward: %w", err)
	}
	gradC, err = b.runKernel("aggregate_backward_c", aggregateBackwardCShader,
		[]*tensor.RawTensor{gradE, a}, c.Shape(), dims)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("webgpu: aggregate backward: %w", err)
	}
	return gradA, gradX, gradC, nil
}

// dimsOf extracts (B, N, K, D) for the shader params.
func dimsOf(a, x *tensor.RawTensor) [4]uint32 {
	//nolint:gosec // G115: Safe conversions, shape dimensions are positive
	return [4]uint32{
		uint32(a.Shape()[0]),
		uint32(a.Shape()[1]),
		uint32(a.Shape()[2]),
		uint32(x.Shape()[2]),
	}
}
