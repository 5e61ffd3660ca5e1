// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for the encoding kernels.
//
// WebGPU is a cross-platform graphics and compute API. The native library
// is wired on Windows; on other platforms New reports
// tensor.ErrDeviceUnavailable.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	e, err := gpu.AggregateForward(a, x, c) // float32 only
package webgpu

import (
	internalwebgpu "github.com/born-ml/encoding/internal/backend/webgpu"
	"github.com/born-ml/encoding/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// Call Release() when done to free GPU resources.
// Returns an error wrapping tensor.ErrDeviceUnavailable if WebGPU
// initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	device := tensor.CPU
//	if webgpu.IsAvailable() {
//	    device = tensor.WebGPU
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
