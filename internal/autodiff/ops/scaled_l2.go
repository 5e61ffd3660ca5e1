package ops

import (
	"fmt"

	"github.com/born-ml/encoding/internal/parallel"
	"github.com/born-ml/encoding/internal/tensor"
)

// ScaledL2Op represents the scaled squared distance between every sample and
// every codeword: SL[b,i,k] = S[k]·Σ_d (X[b,i,d] − C[k,d])².
//
// Backward pass:
//   - dSL/dX[b,i,d] = Σ_k 2·gradSL[b,i,k]·S[k]·(X[b,i,d] − C[k,d])
//   - dSL/dC[k,d]   = −Σ_{b,i} 2·gradSL[b,i,k]·S[k]·(X[b,i,d] − C[k,d])
//   - dSL/dS[k]     = Σ_{b,i} (SL[b,i,k]/S[k])·gradSL[b,i,k]
//
// The S gradient divides by S without a guard; S[k] = 0 yields a non-finite
// GS[k].
//
// ScaledL2 has one dense implementation for every device. Results keep the
// device tag of the inputs.
type ScaledL2Op struct {
	cfg    parallel.Config
	inputs []*tensor.RawTensor // [X, C, S]
	output *tensor.RawTensor   // SL
	held   retained
}

// ScaledL2 validates X (B,N,D), C (K,D) and S (K,), computes SL (B,N,K) and
// returns it with the op needed for the backward pass.
func ScaledL2(cfg parallel.Config, x, c, s *tensor.RawTensor) (*tensor.RawTensor, *ScaledL2Op, error) {
	if err := validateScaledL2(x, c, s); err != nil {
		return nil, nil, err
	}

	B, N, D := x.Shape()[0], x.Shape()[1], x.Shape()[2]
	K := c.Shape()[0]

	sl, err := tensor.NewRaw(tensor.Shape{B, N, K}, x.DType(), x.Device())
	if err != nil {
		return nil, nil, fmt.Errorf("scaled_l2: %w", err)
	}

	switch x.DType() {
	case tensor.Float32:
		scaledL2Forward(sl.AsFloat32(), x.AsFloat32(), c.AsFloat32(), s.AsFloat32(), B*N, K, D, cfg)
	case tensor.Float64:
		scaledL2Forward(sl.AsFloat64(), x.AsFloat64(), c.AsFloat64(), s.AsFloat64(), B*N, K, D, cfg)
	}

	op := &ScaledL2Op{
		cfg:    cfg,
		inputs: []*tensor.RawTensor{x, c, s},
		output: sl,
		held:   retain(x, c, s, sl),
	}
	return sl, op, nil
}

// Backward computes [GX, GC, GS] and releases the retained tensors.
func (op *ScaledL2Op) Backward(outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if op.held.consumed {
		return nil, ErrConsumed
	}
	if err := validateGrad("scaled_l2 backward", "gradSL", outputGrad, op.output); err != nil {
		return nil, err
	}
	defer op.held.release()

	x, c, s := op.inputs[0], op.inputs[1], op.inputs[2]
	B, N, D := x.Shape()[0], x.Shape()[1], x.Shape()[2]
	K := c.Shape()[0]

	gx, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		return nil, fmt.Errorf("scaled_l2 backward: %w", err)
	}
	gc, err := tensor.NewRaw(c.Shape(), x.DType(), x.Device())
	if err != nil {
		return nil, fmt.Errorf("scaled_l2 backward: %w", err)
	}
	gs, err := tensor.NewRaw(s.Shape(), x.DType(), x.Device())
	if err != nil {
		return nil, fmt.Errorf("scaled_l2 backward: %w", err)
	}

	switch x.DType() {
	case tensor.Float32:
		scaledL2Backward(
			gx.AsFloat32(), gc.AsFloat32(), gs.AsFloat32(),
			outputGrad.AsFloat32(), x.AsFloat32(), c.AsFloat32(), s.AsFloat32(), op.output.AsFloat32(),
			B*N, K, D, op.cfg)
	case tensor.Float64:
		scaledL2Backward(
			gx.AsFloat64(), gc.AsFloat64(), gs.AsFloat64(),
			outputGrad.AsFloat64(), x.AsFloat64(), c.AsFloat64(), s.AsFloat64(), op.output.AsFloat64(),
			B*N, K, D, op.cfg)
	}

	return []*tensor.RawTensor{gx, gc, gs}, nil
}

// Inputs returns the input tensors [X, C, S].
func (op *ScaledL2Op) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor SL.
func (op *ScaledL2Op) Output() *tensor.RawTensor {
	return op.output
}

// scaledL2Forward fills sl (rows,K) where rows = B·N.
func scaledL2Forward[T tensor.Float](sl, x, c, s []T, rows, K, D int, cfg parallel.Config) {
	parallel.ForBatch(rows, K, func(r, k int) {
		xr := x[r*D : (r+1)*D]
		ck := c[k*D : (k+1)*D]
		var sum T
		for d := range xr {
			diff := xr[d] - ck[d]
			sum += diff * diff
		}
		sl[r*K+k] = s[k] * sum
	}, cfg)
}

// scaledL2Backward writes gx (rows,D), gc (K,D) and gs (K,).
//
// gx is parallel over rows; gc and gs are parallel over codewords so every
// worker owns its output slice and no reduction is needed.
func scaledL2Backward[T tensor.Float](gx, gc, gs, g, x, c, s, sl []T, rows, K, D int, cfg parallel.Config) {
	parallel.For(rows, func(r int) {
		xr := x[r*D : (r+1)*D]
		out := gx[r*D : (r+1)*D]
		for k := 0; k < K; k++ {
			w := 2 * g[r*K+k] * s[k]
			ck := c[k*D : (k+1)*D]
			for d := range out {
				out[d] += w * (xr[d] - ck[d])
			}
		}
	}, cfg)

	parallel.For(K, func(k int) {
		ck := c[k*D : (k+1)*D]
		out := gc[k*D : (k+1)*D]
		var gsk T
		for r := 0; r < rows; r++ {
			gr := g[r*K+k]
			w := 2 * gr * s[k]
			xr := x[r*D : (r+1)*D]
			for d := range out {
				out[d] -= w * (xr[d] - ck[d])
			}
			gsk += sl[r*K+k] / s[k] * gr
		}
		gs[k] = gsk
	}, cfg)
}
