// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor types used by the encoding operations.
//
// # Overview
//
// A RawTensor is a dense, contiguous, row-major buffer with:
//   - a Shape (e.g. Shape{B, N, D})
//   - a DataType (Float32 or Float64 for the encoding operations)
//   - a Device tag (CPU or WebGPU) that selects the backend
//
// # Basic Usage
//
//	import "github.com/born-ml/encoding/tensor"
//
//	func main() {
//	    x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2}, tensor.CPU)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    gpuX := x.ToDevice(tensor.WebGPU) // same values, routed to the accelerator
//	}
//
// # Errors
//
// Shape violations are reported as *ShapeError, which matches
// ErrShapeMismatch under errors.Is. Backends report ErrUnsupportedDType and
// ErrDeviceUnavailable.
package tensor
