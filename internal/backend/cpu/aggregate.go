package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/encoding/internal/parallel"
	"github.com/born-ml/encoding/internal/tensor"
)

// AggregateForward computes E[b,k,:] = Σ_i A[b,i,k]·(X[b,i,:] − C[k,:]).
//
// Per batch this is E_b = A_bᵀ·X_b followed by subtracting colsum(A_b)[k]·C[k,:]
// from every row k.
func (cpu *CPUBackend) AggregateForward(a, x, c *tensor.RawTensor) (*tensor.RawTensor, error) {
	B, N, K := a.Shape()[0], a.Shape()[1], a.Shape()[2]
	D := x.Shape()[2]

	result, err := tensor.NewRaw(tensor.Shape{B, K, D}, a.DType(), a.Device())
	if err != nil {
		return nil, fmt.Errorf("cpu: aggregate forward: %w", err)
	}

	switch a.DType() {
	case tensor.Float32:
		aggregateForwardFloat32(result.AsFloat32(), a.AsFloat32(), x.AsFloat32(), c.AsFloat32(), B, N, K, D, cpu.parallel)
	case tensor.Float64:
		aggregateForwardFloat64(result.AsFloat64(), a.AsFloat64(), x.AsFloat64(), c.AsFloat64(), B, N, K, D, cpu.parallel)
	default:
		return nil, fmt.Errorf("cpu: aggregate forward: %w: %s", tensor.ErrUnsupportedDType, a.DType())
	}

	return result, nil
}

// AggregateBackward computes gradA, gradX and gradC from gradE.
//
// Per batch:
//
//	gradX_b = A_b·gradE_b
//	gradA_b = X_b·gradE_bᵀ − 1⊗r_b,  r_b[k] = gradE_b[k,:]·C[k,:]
//	gradC  −= colsum(A_b)[k]·gradE_b[k,:]
//
// gradC partials are kept per batch and summed after the parallel section.
func (cpu *CPUBackend) AggregateBackward(gradE, a, x, c *tensor.RawTensor) (gradA, gradX, gradC *tensor.RawTensor, err error) {
	B, N, K := a.Shape()[0], a.Shape()[1], a.Shape()[2]
	D := x.Shape()[2]

	if !a.DType().IsFloat() {
		return nil, nil, nil, fmt.Errorf("cpu: aggregate backward: %w: %s", tensor.ErrUnsupportedDType, a.DType())
	}

	if gradA, err = tensor.NewRaw(a.Shape(), a.DType(), a.Device()); err != nil {
		return nil, nil, nil, fmt.Errorf("cpu: aggregate backward: %w", err)
	}
	if gradX, err = tensor.NewRaw(x.Shape(), a.DType(), a.Device()); err != nil {
		return nil, nil, nil, fmt.Errorf("cpu: aggregate backward: %w", err)
	}
	if gradC, err = tensor.NewRaw(c.Shape(), a.DType(), a.Device()); err != nil {
		return nil, nil, nil, fmt.Errorf("cpu: aggregate backward: %w", err)
	}

	switch a.DType() {
	case tensor.Float32:
		aggregateBackwardFloat32(gradA.AsFloat32(), gradX.AsFloat32(), gradC.AsFloat32(),
			gradE.AsFloat32(), a.AsFloat32(), x.AsFloat32(), c.AsFloat32(), B, N, K, D, cpu.parallel)
	case tensor.Float64:
		aggregateBackwardFloat64(gradA.AsFloat64(), gradX.AsFloat64(), gradC.AsFloat64(),
			gradE.AsFloat64(), a.AsFloat64(), x.AsFloat64(), c.AsFloat64(), B, N, K, D, cpu.parallel)
	}

	return gradA, gradX, gradC, nil
}

// aggregateForwardFloat64 implements AggregateForward for float64.
func aggregateForwardFloat64(e, a, x, c []float64, B, N, K, D int, cfg parallel.Config) {
	cm := general64(c, K, D)
	ones := ones64(N)

	parallel.For(B, func(b int) {
		ab := general64(a[b*N*K:(b+1)*N*K], N, K)
		xb := general64(x[b*N*D:(b+1)*N*D], N, D)
		eb := general64(e[b*K*D:(b+1)*K*D], K, D)

		blas64.Gemm(blas.Trans, blas.NoTrans, 1, ab, xb, 0, eb)

		weights := vector64(make([]float64, K))
		blas64.Gemv(blas.Trans, 1, ab, ones, 0, weights)
		for k := 0; k < K; k++ {
			blas64.Axpy(-weights.Data[k], row64(cm, k), row64(eb, k))
		}
	}, cfg)
}

// aggregateBackwardFloat64 implements AggregateBackward for float64.
func aggregateBackwardFloat64(ga, gx, gc, ge, a, x, c []float64, B, N, K, D int, cfg parallel.Config) {
	cm := general64(c, K, D)
	ones := ones64(N)
	partials := make([]float64, B*K*D)

	parallel.For(B, func(b int) {
		ab := general64(a[b*N*K:(b+1)*N*K], N, K)
		xb := general64(x[b*N*D:(b+1)*N*D], N, D)
		gb := general64(ge[b*K*D:(b+1)*K*D], K, D)
		gab := general64(ga[b*N*K:(b+1)*N*K], N, K)
		gxb := general64(gx[b*N*D:(b+1)*N*D], N, D)
		pb := general64(partials[b*K*D:(b+1)*K*D], K, D)

		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, ab, gb, 0, gxb)

		blas64.Gemm(blas.NoTrans, blas.Trans, 1, xb, gb, 0, gab)
		r := vector64(make([]float64, K))
		for k := 0; k < K; k++ {
			r.Data[k] = blas64.Dot(row64(gb, k), row64(cm, k))
		}
		blas64.Ger(-1, ones, r, gab)

		weights := vector64(make([]float64, K))
		blas64.Gemv(blas.Trans, 1, ab, ones, 0, weights)
		for k := 0; k < K; k++ {
			blas64.Axpy(-weights.Data[k], row64(gb, k), row64(pb, k))
		}
	}, cfg)

	sum := vector64(gc)
	for b := 0; b < B; b++ {
		blas64.Axpy(1, vector64(partials[b*K*D:(b+1)*K*D]), sum)
	}
}

// aggregateForwardFloat32 implements AggregateForward for float32.
func aggregateForwardFloat32(e, a, x, c []float32, B, N, K, D int, cfg parallel.Config) {
	cm := general32(c, K, D)
	ones := ones32(N)

	parallel.For(B, func(b int) {
		ab := general32(a[b*N*K:(b+1)*N*K], N, K)
		xb := general32(x[b*N*D:(b+1)*N*D], N, D)
		eb := general32(e[b*K*D:(b+1)*K*D], K, D)

		blas32.Gemm(blas.Trans, blas.NoTrans, 1, ab, xb, 0, eb)

		weights := vector32(make([]float32, K))
		blas32.Gemv(blas.Trans, 1, ab, ones, 0, weights)
		for k := 0; k < K; k++ {
			blas32.Axpy(-weights.Data[k], row32(cm, k), row32(eb, k))
		}
	}, cfg)
}

// aggregateBackwardFloat32 implements AggregateBackward for float32.
func aggregateBackwardFloat32(ga, gx, gc, ge, a, x, c []float32, B, N, K, D int, cfg parallel.Config) {
	cm := general32(c, K, D)
	ones := ones32(N)
	partials := make([]float32, B*K*D)

	parallel.For(B, func(b int) {
		ab := general32(a[b*N*K:(b+1)*N*K], N, K)
		xb := general32(x[b*N*D:(b+1)*N*D], N, D)
		gb := general32(ge[b*K*D:(b+1)*K*D], K, D)
		gab := general32(ga[b*N*K:(b+1)*N*K], N, K)
		gxb := general32(gx[b*N*D:(b+1)*N*D], N, D)
		pb := general32(partials[b*K*D:(b+1)*K*D], K, D)

		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, ab, gb, 0, gxb)

		blas32.Gemm(blas.NoTrans, blas.Trans, 1, xb, gb, 0, gab)
		r := vector32(make([]float32, K))
		for k := 0; k < K; k++ {
			r.Data[k] = blas32.Dot(row32(gb, k), row32(cm, k))
		}
		blas32.Ger(-1, ones, r, gab)

		weights := vector32(make([]float32, K))
		blas32.Gemv(blas.Trans, 1, ab, ones, 0, weights)
		for k := 0; k < K; k++ {
			blas32.Axpy(-weights.Data[k], row32(gb, k), row32(pb, k))
		}
	}, cfg)

	sum := vector32(gc)
	for b := 0; b < B; b++ {
		blas32.Axpy(1, vector32(partials[b*K*D:(b+1)*K*D]), sum)
	}
}
