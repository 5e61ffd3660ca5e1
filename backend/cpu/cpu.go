// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/encoding/internal/backend/cpu"
	"github.com/born-ml/encoding/internal/parallel"
	"github.com/born-ml/encoding/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend runs the encoding kernels in pure Go on gonum BLAS,
// with batches processed in parallel.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how the CPU kernels fan out over goroutines.
type ParallelConfig = parallel.Config

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	e, err := backend.AggregateForward(a, x, c)
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultParallelConfig returns one worker per CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}
