package gradcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/encoding/internal/tensor"
)

// square computes y = x² element-wise.
func square(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	x := inputs[0]
	y, err := tensor.NewRaw(x.Shape(), tensor.Float64, x.Device())
	if err != nil {
		return nil, err
	}
	out := y.AsFloat64()
	for i, v := range x.AsFloat64() {
		out[i] = v * v
	}
	return y, nil
}

// squareGrad returns scale·x·g; scale 2 is the true derivative.
func squareGrad(scale float64) GradFunc {
	return func(inputs []*tensor.RawTensor, g *tensor.RawTensor) ([]*tensor.RawTensor, error) {
		x := inputs[0]
		gx, err := tensor.NewRaw(x.Shape(), tensor.Float64, x.Device())
		if err != nil {
			return nil, err
		}
		out := gx.AsFloat64()
		gv := g.AsFloat64()
		for i, v := range x.AsFloat64() {
			out[i] = scale * v * gv[i]
		}
		return []*tensor.RawTensor{gx}, nil
	}
}

func TestCheck_CorrectGradientPasses(t *testing.T) {
	x, err := tensor.FromSlice([]float64{-1.5, 0.25, 2, 3}, tensor.Shape{2, 2}, tensor.CPU)
	require.NoError(t, err)

	report, err := Check(square, squareGrad(2), []*tensor.RawTensor{x}, []string{"X"}, DefaultConfig())
	require.NoError(t, err)

	assert.True(t, report.OK(), report.String())
	require.NoError(t, report.Err())
	require.Len(t, report.Results, 1)
	assert.Equal(t, "X", report.Results[0].Name)
	assert.Equal(t, 4, report.Results[0].Elements)
}

func TestCheck_WrongGradientFails(t *testing.T) {
	x, _ := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, tensor.CPU)

	report, err := Check(square, squareGrad(3), []*tensor.RawTensor{x}, nil, DefaultConfig())
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, "input0", report.Results[0].Name)
	assert.Equal(t, 3, report.Results[0].Failures)
	require.ErrorIs(t, report.Err(), ErrMismatch)
	assert.Contains(t, report.String(), "FAIL")
}

func TestCheck_RestoresInputs(t *testing.T) {
	values := []float64{0.1, -0.2, 0.3}
	x, _ := tensor.FromSlice(values, tensor.Shape{3}, tensor.CPU)

	_, err := Check(square, squareGrad(2), []*tensor.RawTensor{x}, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, values, x.AsFloat64())
}

func TestCheck_RejectsFloat32(t *testing.T) {
	x, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, tensor.CPU)

	_, err := Check(square, squareGrad(2), []*tensor.RawTensor{x}, nil, DefaultConfig())
	require.ErrorIs(t, err, tensor.ErrUnsupportedDType)
}

func TestCheck_GradientCountMismatch(t *testing.T) {
	x, _ := tensor.FromSlice([]float64{1}, tensor.Shape{1}, tensor.CPU)
	none := func([]*tensor.RawTensor, *tensor.RawTensor) ([]*tensor.RawTensor, error) {
		return nil, nil
	}

	_, err := Check(square, none, []*tensor.RawTensor{x}, nil, DefaultConfig())
	require.Error(t, err)
}
