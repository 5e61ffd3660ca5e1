package ops_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/encoding/internal/autodiff/ops"
	"github.com/born-ml/encoding/internal/backend/cpu"
	"github.com/born-ml/encoding/internal/gradcheck"
	"github.com/born-ml/encoding/internal/parallel"
	"github.com/born-ml/encoding/internal/tensor"
)

func uniform(t *testing.T, rng *rand.Rand, dtype tensor.DataType, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.Uniform(tensor.Shape(shape), dtype, tensor.CPU, rng, -1, 1)
	require.NoError(t, err)
	return r
}

// TestAggregate_HandCase checks 0.5·(1−0) + 0.5·(3−0) = 2.
func TestAggregate_HandCase(t *testing.T) {
	a, _ := tensor.FromSlice([]float64{0.5, 0.5}, tensor.Shape{1, 2, 1}, tensor.CPU)
	x, _ := tensor.FromSlice([]float64{1.0, 3.0}, tensor.Shape{1, 2, 1}, tensor.CPU)
	c, _ := tensor.FromSlice([]float64{0.0}, tensor.Shape{1, 1}, tensor.CPU)

	e, op, err := ops.Aggregate(cpu.New(), a, x, c)
	require.NoError(t, err)
	require.NotNil(t, op)

	assert.Equal(t, tensor.Shape{1, 1, 1}, e.Shape())
	assert.InDelta(t, 2.0, e.AsFloat64()[0], 1e-12)
	assert.Same(t, e, op.Output())
	assert.Equal(t, []*tensor.RawTensor{a, x, c}, op.Inputs())
}

// TestScaledL2_HandCase checks 2·(2−0)² = 8.
func TestScaledL2_HandCase(t *testing.T) {
	x, _ := tensor.FromSlice([]float64{2.0}, tensor.Shape{1, 1, 1}, tensor.CPU)
	c, _ := tensor.FromSlice([]float64{0.0}, tensor.Shape{1, 1}, tensor.CPU)
	s, _ := tensor.FromSlice([]float64{2.0}, tensor.Shape{1}, tensor.CPU)

	sl, _, err := ops.ScaledL2(parallel.DefaultConfig(), x, c, s)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 1, 1}, sl.Shape())
	assert.InDelta(t, 8.0, sl.AsFloat64()[0], 1e-12)
}

func TestOutputShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, dims := range [][4]int{{1, 1, 1, 1}, {2, 3, 4, 5}, {4, 1, 7, 2}} {
		B, N, K, D := dims[0], dims[1], dims[2], dims[3]
		a := uniform(t, rng, tensor.Float64, B, N, K)
		x := uniform(t, rng, tensor.Float64, B, N, D)
		c := uniform(t, rng, tensor.Float64, K, D)
		s := uniform(t, rng, tensor.Float64, K)

		e, _, err := ops.Aggregate(cpu.New(), a, x, c)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{B, K, D}, e.Shape())

		sl, _, err := ops.ScaledL2(parallel.DefaultConfig(), x, c, s)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{B, N, K}, sl.Shape())
	}
}

func TestAggregate_ShapeErrorsBeforeBackend(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tests := []struct {
		name    string
		a, x, c []int
		arg     string
		dim     int
	}{
		{"A rank", []int{2, 3}, []int{1, 2, 3}, []int{3, 3}, "A", -1},
		{"C rank", []int{1, 2, 3}, []int{1, 2, 4}, []int{3}, "C", -1},
		{"batch", []int{2, 3, 4}, []int{1, 3, 5}, []int{4, 5}, "X", 0},
		{"samples", []int{2, 3, 4}, []int{2, 2, 5}, []int{4, 5}, "X", 1},
		{"codewords", []int{2, 3, 4}, []int{2, 3, 5}, []int{3, 5}, "C", 0},
		{"features", []int{2, 3, 4}, []int{2, 3, 5}, []int{4, 6}, "C", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := tensor.NewMockBackend(tensor.CPU)
			a := uniform(t, rng, tensor.Float64, tt.a...)
			x := uniform(t, rng, tensor.Float64, tt.x...)
			c := uniform(t, rng, tensor.Float64, tt.c...)

			_, op, err := ops.Aggregate(backend, a, x, c)
			require.ErrorIs(t, err, tensor.ErrShapeMismatch)
			assert.Nil(t, op)

			var shapeErr *tensor.ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, "aggregate", shapeErr.Op)
			assert.Equal(t, tt.arg, shapeErr.Arg)
			assert.Equal(t, tt.dim, shapeErr.Dim)

			assert.Equal(t, 0, backend.Calls())
		})
	}
}

func TestScaledL2_ShapeErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cfg := parallel.Sequential()

	x := uniform(t, rng, tensor.Float64, 2, 3, 4)
	c := uniform(t, rng, tensor.Float64, 5, 4)
	s := uniform(t, rng, tensor.Float64, 5)

	_, _, err := ops.ScaledL2(cfg, x, uniform(t, rng, tensor.Float64, 5, 3), s)
	var shapeErr *tensor.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "C", shapeErr.Arg)
	assert.Equal(t, 1, shapeErr.Dim)

	_, _, err = ops.ScaledL2(cfg, x, c, uniform(t, rng, tensor.Float64, 4))
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "S", shapeErr.Arg)

	_, _, err = ops.ScaledL2(cfg, uniform(t, rng, tensor.Float64, 3, 4), c, s)
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "X", shapeErr.Arg)
	assert.Equal(t, -1, shapeErr.Dim)

	_, _, err = ops.ScaledL2(cfg, nil, c, s)
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestPlacementErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := uniform(t, rng, tensor.Float64, 1, 2, 2)
	x := uniform(t, rng, tensor.Float64, 1, 2, 3)
	c := uniform(t, rng, tensor.Float64, 2, 3)

	_, _, err := ops.Aggregate(cpu.New(), a, x, uniform(t, rng, tensor.Float32, 2, 3))
	require.ErrorIs(t, err, tensor.ErrUnsupportedDType)

	_, _, err = ops.Aggregate(cpu.New(), a, x.ToDevice(tensor.WebGPU), c)
	require.ErrorIs(t, err, tensor.ErrDeviceMismatch)

	ai, _ := tensor.NewRaw(tensor.Shape{1, 2, 2}, tensor.Int32, tensor.CPU)
	xi, _ := tensor.NewRaw(tensor.Shape{1, 2, 3}, tensor.Int32, tensor.CPU)
	ci, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Int32, tensor.CPU)
	_, _, err = ops.Aggregate(cpu.New(), ai, xi, ci)
	require.ErrorIs(t, err, tensor.ErrUnsupportedDType)
}

func TestBackward_ConsumesContext(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := uniform(t, rng, tensor.Float64, 1, 3, 2)
	x := uniform(t, rng, tensor.Float64, 1, 3, 4)
	c := uniform(t, rng, tensor.Float64, 2, 4)
	s := uniform(t, rng, tensor.Float64, 2)

	e, aggOp, err := ops.Aggregate(cpu.New(), a, x, c)
	require.NoError(t, err)
	assert.Equal(t, 2, a.RefCount())

	grads, err := aggOp.Backward(e)
	require.NoError(t, err)
	require.Len(t, grads, 3)
	assert.Equal(t, 1, a.RefCount())

	_, err = aggOp.Backward(e)
	require.ErrorIs(t, err, ops.ErrConsumed)

	sl, l2Op, err := ops.ScaledL2(parallel.DefaultConfig(), x, c, s)
	require.NoError(t, err)
	assert.Equal(t, 2, sl.RefCount())

	_, err = l2Op.Backward(sl)
	require.NoError(t, err)
	assert.Equal(t, 1, sl.RefCount())
	assert.Equal(t, 1, x.RefCount())

	_, err = l2Op.Backward(sl)
	require.ErrorIs(t, err, ops.ErrConsumed)
}

func TestBackward_GradShapeErrorKeepsContext(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	a := uniform(t, rng, tensor.Float64, 1, 3, 2)
	x := uniform(t, rng, tensor.Float64, 1, 3, 4)
	c := uniform(t, rng, tensor.Float64, 2, 4)

	e, op, err := ops.Aggregate(cpu.New(), a, x, c)
	require.NoError(t, err)

	_, err = op.Backward(uniform(t, rng, tensor.Float64, 1, 2, 3))
	var shapeErr *tensor.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "gradE", shapeErr.Arg)

	_, err = op.Backward(e)
	require.NoError(t, err)
}

func TestAggregate_GradCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	inputs := []*tensor.RawTensor{
		uniform(t, rng, tensor.Float64, 2, 3, 4),
		uniform(t, rng, tensor.Float64, 2, 3, 5),
		uniform(t, rng, tensor.Float64, 4, 5),
	}
	backend := cpu.New()

	f := func(in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		e, _, err := ops.Aggregate(backend, in[0], in[1], in[2])
		return e, err
	}
	grad := func(in []*tensor.RawTensor, g *tensor.RawTensor) ([]*tensor.RawTensor, error) {
		_, op, err := ops.Aggregate(backend, in[0], in[1], in[2])
		if err != nil {
			return nil, err
		}
		return op.Backward(g)
	}

	report, err := gradcheck.Check(f, grad, inputs, []string{"A", "X", "C"}, gradcheck.DefaultConfig())
	require.NoError(t, err)
	assert.True(t, report.OK(), report.String())
}

func TestScaledL2_GradCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	inputs := []*tensor.RawTensor{
		uniform(t, rng, tensor.Float64, 2, 3, 4),
		uniform(t, rng, tensor.Float64, 5, 4),
		uniform(t, rng, tensor.Float64, 5),
	}
	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	f := func(in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		sl, _, err := ops.ScaledL2(cfg, in[0], in[1], in[2])
		return sl, err
	}
	grad := func(in []*tensor.RawTensor, g *tensor.RawTensor) ([]*tensor.RawTensor, error) {
		_, op, err := ops.ScaledL2(cfg, in[0], in[1], in[2])
		if err != nil {
			return nil, err
		}
		return op.Backward(g)
	}

	report, err := gradcheck.Check(f, grad, inputs, []string{"X", "C", "S"}, gradcheck.DefaultConfig())
	require.NoError(t, err)
	assert.True(t, report.OK(), report.String())
}

func TestScaledL2_ZeroScaleGivesNonFiniteGradient(t *testing.T) {
	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{1, 2, 2}, tensor.CPU)
	c, _ := tensor.FromSlice([]float64{0, 0, 1, 1}, tensor.Shape{2, 2}, tensor.CPU)
	s, _ := tensor.FromSlice([]float64{0, 1.5}, tensor.Shape{2}, tensor.CPU)

	sl, op, err := ops.ScaledL2(parallel.Sequential(), x, c, s)
	require.NoError(t, err)

	g, _ := tensor.FromSlice([]float64{1, 1, 1, 1}, sl.Shape(), tensor.CPU)
	grads, err := op.Backward(g)
	require.NoError(t, err)

	gs := grads[2].AsFloat64()
	assert.False(t, isFinite(gs[0]), "GS[0] = %v", gs[0])
	assert.True(t, isFinite(gs[1]))
}

func TestScaledL2_Float32MatchesFloat64(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	x := uniform(t, rng, tensor.Float64, 3, 4, 6)
	c := uniform(t, rng, tensor.Float64, 5, 6)
	s := uniform(t, rng, tensor.Float64, 5)
	g := uniform(t, rng, tensor.Float64, 3, 4, 5)

	narrow := func(r *tensor.RawTensor) *tensor.RawTensor {
		v := r.AsFloat64()
		out := make([]float32, len(v))
		for i := range v {
			out[i] = float32(v[i])
		}
		n, err := tensor.FromSlice(out, r.Shape(), r.Device())
		require.NoError(t, err)
		return n
	}

	cfg := parallel.DefaultConfig()
	sl64, op64, err := ops.ScaledL2(cfg, x, c, s)
	require.NoError(t, err)
	sl32, op32, err := ops.ScaledL2(cfg, narrow(x), narrow(c), narrow(s))
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, sl32.DType())
	assert.True(t, tensor.AllClose(sl32, narrow(sl64), 1e-5, 1e-5))

	g64, err := op64.Backward(g)
	require.NoError(t, err)
	g32, err := op32.Backward(narrow(g))
	require.NoError(t, err)
	for i := range g64 {
		assert.True(t, tensor.AllClose(g32[i], narrow(g64[i]), 1e-4, 1e-4), "gradient %d", i)
	}
}

func TestScaledL2_KeepsDeviceTag(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	x := uniform(t, rng, tensor.Float32, 1, 2, 3).ToDevice(tensor.WebGPU)
	c := uniform(t, rng, tensor.Float32, 2, 3).ToDevice(tensor.WebGPU)
	s := uniform(t, rng, tensor.Float32, 2).ToDevice(tensor.WebGPU)

	sl, _, err := ops.ScaledL2(parallel.DefaultConfig(), x, c, s)
	require.NoError(t, err)
	assert.Equal(t, tensor.WebGPU, sl.Device())
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
