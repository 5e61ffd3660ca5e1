// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for the encoding kernels.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - gonum BLAS (blas32/blas64) for the per-batch matrix products
//   - Float32 and Float64 support
//   - Batch-parallel execution
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/encoding/backend/cpu"
//	    "github.com/born-ml/encoding/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    e, err := backend.AggregateForward(a, x, c)
//	}
//
// Most callers should use the encoding package, which validates shapes and
// selects the backend from the inputs' device.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each call allocates its own
// outputs and does not share mutable state.
package cpu
