// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/encoding/internal/tensor"

// Backend defines the kernels a compute backend must implement.
//
// Implementations:
//   - backend/cpu: Pure Go on gonum BLAS
//   - backend/webgpu: GPU compute via WebGPU (float32 only)
type Backend = tensor.Backend

// MockBackend runs the kernels as naive loops and counts its calls.
type MockBackend = tensor.MockBackend

// NewMockBackend creates a backend with naive reference kernels that reports
// the given device. Useful for testing backend selection.
func NewMockBackend(device Device) *MockBackend {
	return tensor.NewMockBackend(device)
}
