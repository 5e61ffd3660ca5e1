// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff chains encoding operations for reverse-mode
// differentiation.
//
// Example:
//
//	d := autodiff.NewDispatcher()
//	defer d.Release()
//
//	d.Tape().StartRecording()
//	sl, _, _ := d.ScaledL2(x, c, s)
//	e, _, _ := d.Aggregate(sl, x, c)
//
//	grads, err := d.Tape().Backward(gradE)
//	gradX := grads[x] // accumulated over both uses of x
package autodiff

import (
	"github.com/born-ml/encoding/internal/autodiff"
	"github.com/born-ml/encoding/internal/autodiff/ops"
	"github.com/born-ml/encoding/internal/parallel"
	"github.com/born-ml/encoding/tensor"
)

// Dispatcher selects a backend for each operation and records operations on
// its tape.
type Dispatcher = autodiff.Dispatcher

// Option configures a Dispatcher.
type Option = autodiff.Option

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// ParallelConfig controls goroutine fan-out in the CPU and dense kernels.
type ParallelConfig = parallel.Config

// Operation is a differentiable operation recorded on a tape.
type Operation = ops.Operation

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	return autodiff.NewDispatcher(opts...)
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// WithAccelerator uses backend for accelerator-resident inputs.
func WithAccelerator(backend tensor.Backend) Option {
	return autodiff.WithAccelerator(backend)
}

// WithAcceleratorFactory sets the function that creates the accelerator
// backend on first use.
func WithAcceleratorFactory(factory func() (tensor.Backend, error)) Option {
	return autodiff.WithAcceleratorFactory(factory)
}

// WithParallel sets the parallel configuration of the CPU kernels.
func WithParallel(cfg ParallelConfig) Option {
	return autodiff.WithParallel(cfg)
}
