package tensor

import (
	"fmt"
	"sync/atomic"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements the kernels with naive float64 loops for correctness
// verification and can impersonate any device.
type MockBackend struct {
	device Device
	calls  atomic.Int64
}

// NewMockBackend creates a new MockBackend that reports the given device.
func NewMockBackend(device Device) *MockBackend {
	return &MockBackend{device: device}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return m.device
}

// Calls returns the number of kernel invocations so far.
func (m *MockBackend) Calls() int {
	return int(m.calls.Load())
}

// AggregateForward computes E with the defining triple loop.
func (m *MockBackend) AggregateForward(a, x, c *RawTensor) (*RawTensor, error) {
	m.calls.Add(1)
	if !a.DType().IsFloat() {
		return nil, fmt.Errorf("mock: aggregate forward: %w: %s", ErrUnsupportedDType, a.DType())
	}

	B, N, K := a.Shape()[0], a.Shape()[1], a.Shape()[2]
	D := x.Shape()[2]
	av, xv, cv := a.Float64s(), x.Float64s(), c.Float64s()

	e := make([]float64, B*K*D)
	for b := 0; b < B; b++ {
		for k := 0; k < K; k++ {
			for d := 0; d < D; d++ {
				var sum float64
				for i := 0; i < N; i++ {
					sum += av[(b*N+i)*K+k] * (xv[(b*N+i)*D+d] - cv[k*D+d])
				}
				e[(b*K+k)*D+d] = sum
			}
		}
	}
	return m.result(e, Shape{B, K, D}, a.DType())
}

// AggregateBackward computes the three gradients directly from their
// partial-derivative definitions.
func (m *MockBackend) AggregateBackward(gradE, a, x, c *RawTensor) (gradA, gradX, gradC *RawTensor, err error) {
	m.calls.Add(1)
	if !a.DType().IsFloat() {
		return nil, nil, nil, fmt.Errorf("mock: aggregate backward: %w: %s", ErrUnsupportedDType, a.DType())
	}

	B, N, K := a.Shape()[0], a.Shape()[1], a.Shape()[2]
	D := x.Shape()[2]
	gv, av, xv, cv := gradE.Float64s(), a.Float64s(), x.Float64s(), c.Float64s()

	ga := make([]float64, B*N*K)
	gx := make([]float64, B*N*D)
	gc := make([]float64, K*D)
	for b := 0; b < B; b++ {
		for i := 0; i < N; i++ {
			for k := 0; k < K; k++ {
				aik := av[(b*N+i)*K+k]
				var sum float64
				for d := 0; d < D; d++ {
					g := gv[(b*K+k)*D+d]
					sum += g * (xv[(b*N+i)*D+d] - cv[k*D+d])
					gx[(b*N+i)*D+d] += g * aik
					gc[k*D+d] -= g * aik
				}
				ga[(b*N+i)*K+k] = sum
			}
		}
	}

	if gradA, err = m.result(ga, a.Shape(), a.DType()); err != nil {
		return nil, nil, nil, err
	}
	if gradX, err = m.result(gx, x.Shape(), a.DType()); err != nil {
		return nil, nil, nil, err
	}
	if gradC, err = m.result(gc, c.Shape(), a.DType()); err != nil {
		return nil, nil, nil, err
	}
	return gradA, gradX, gradC, nil
}

// result narrows float64 values into a tensor of the requested dtype.
func (m *MockBackend) result(values []float64, shape Shape, dtype DataType) (*RawTensor, error) {
	out, err := NewRaw(shape, dtype, m.device)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case Float32:
		data := out.AsFloat32()
		for i, v := range values {
			data[i] = float32(v)
		}
	case Float64:
		copy(out.AsFloat64(), values)
	}
	return out, nil
}
