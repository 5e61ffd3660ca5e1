// Package autodiff selects a backend for each operation and chains operations
// for reverse-mode differentiation.
//
// Architecture:
//   - Dispatcher: routes each call to the CPU backend or to the accelerator,
//     depending on where the first input resides
//   - GradientTape: records operations during the forward pass
//   - Operation interface (package ops): each op implements its backward pass
//
// Usage:
//
//	d := autodiff.NewDispatcher()
//	defer d.Release()
//
//	e, op, err := d.Aggregate(a, x, c)
//	grads, err := op.Backward(gradE) // [gradA, gradX, gradC]
package autodiff

import (
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/encoding/internal/autodiff/ops"
	"github.com/born-ml/encoding/internal/backend/cpu"
	"github.com/born-ml/encoding/internal/backend/webgpu"
	"github.com/born-ml/encoding/internal/parallel"
	"github.com/born-ml/encoding/internal/tensor"
)

// Dispatcher owns the backends used by the encoding operations.
//
// The CPU backend is created eagerly. The accelerator backend is created on
// the first call whose inputs reside on an accelerator device; if that fails
// every later accelerator call returns the same error.
type Dispatcher struct {
	parallel parallel.Config
	cpu      *cpu.CPUBackend
	tape     *GradientTape

	accelFactory func() (tensor.Backend, error)
	accelOnce    sync.Once
	accel        tensor.Backend
	accelErr     error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAccelerator uses backend for accelerator-resident inputs instead of
// creating the WebGPU backend.
func WithAccelerator(backend tensor.Backend) Option {
	return func(d *Dispatcher) {
		d.accelFactory = func() (tensor.Backend, error) {
			return backend, nil
		}
	}
}

// WithAcceleratorFactory sets the function that creates the accelerator
// backend on first use.
func WithAcceleratorFactory(factory func() (tensor.Backend, error)) Option {
	return func(d *Dispatcher) {
		d.accelFactory = factory
	}
}

// WithParallel sets the parallel configuration of the CPU kernels and of the
// dense ScaledL2 kernels.
func WithParallel(cfg parallel.Config) Option {
	return func(d *Dispatcher) {
		d.parallel = cfg
	}
}

// NewDispatcher creates a Dispatcher. By default the accelerator is the
// WebGPU backend and kernels use parallel.DefaultConfig.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		parallel:     parallel.DefaultConfig(),
		tape:         NewGradientTape(),
		accelFactory: newWebGPU,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cpu = cpu.NewWithConfig(d.parallel)
	return d
}

var (
	defaultDispatcher     *Dispatcher
	defaultDispatcherOnce sync.Once
)

// Default returns the process-wide Dispatcher used by the public API.
func Default() *Dispatcher {
	defaultDispatcherOnce.Do(func() {
		defaultDispatcher = NewDispatcher()
	})
	return defaultDispatcher
}

func newWebGPU() (tensor.Backend, error) {
	backend, err := webgpu.New()
	if err != nil {
		return nil, err
	}
	return backend, nil
}

// Backend returns the backend that executes operations for inputs on device.
func (d *Dispatcher) Backend(device tensor.Device) (tensor.Backend, error) {
	if !device.IsAccelerator() {
		return d.cpu, nil
	}

	d.accelOnce.Do(func() {
		d.accel, d.accelErr = d.accelFactory()
		if d.accelErr != nil && !errors.Is(d.accelErr, tensor.ErrDeviceUnavailable) {
			d.accelErr = fmt.Errorf("%w: %w", tensor.ErrDeviceUnavailable, d.accelErr)
		}
	})
	if d.accelErr != nil {
		return nil, fmt.Errorf("dispatch: %s: %w", device, d.accelErr)
	}
	if d.accel.Device() != device {
		return nil, fmt.Errorf("dispatch: %w: no backend for %s (accelerator is %s)",
			tensor.ErrDeviceUnavailable, device, d.accel.Device())
	}
	return d.accel, nil
}

// Aggregate runs the aggregate operation on the backend selected by A's
// device and records it on the tape.
func (d *Dispatcher) Aggregate(a, x, c *tensor.RawTensor) (*tensor.RawTensor, *ops.AggregateOp, error) {
	backend := tensor.Backend(d.cpu)
	if a != nil {
		var err error
		if backend, err = d.Backend(a.Device()); err != nil {
			return nil, nil, err
		}
	}

	e, op, err := ops.Aggregate(backend, a, x, c)
	if err != nil {
		return nil, nil, err
	}
	d.tape.Record(op)
	return e, op, nil
}

// ScaledL2 runs the scaled_l2 operation and records it on the tape.
// The same dense kernels serve every device.
func (d *Dispatcher) ScaledL2(x, c, s *tensor.RawTensor) (*tensor.RawTensor, *ops.ScaledL2Op, error) {
	sl, op, err := ops.ScaledL2(d.parallel, x, c, s)
	if err != nil {
		return nil, nil, err
	}
	d.tape.Record(op)
	return sl, op, nil
}

// Tape returns the gradient tape that records operations run through d.
func (d *Dispatcher) Tape() *GradientTape {
	return d.tape
}

// Release frees accelerator resources if the accelerator was created.
func (d *Dispatcher) Release() {
	if r, ok := d.accel.(interface{ Release() }); ok {
		r.Release()
	}
}
