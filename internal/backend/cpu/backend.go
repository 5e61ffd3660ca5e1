// Package cpu implements the general-purpose backend on gonum BLAS.
package cpu

import (
	"github.com/born-ml/encoding/internal/parallel"
	"github.com/born-ml/encoding/internal/tensor"
)

// CPUBackend implements the encoding kernels on the host processor.
// Batches are processed in parallel; each batch is a handful of BLAS calls.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend with the default parallel configuration.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Parallel returns the parallel configuration used by the kernels.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.parallel
}
