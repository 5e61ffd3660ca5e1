// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package encoding_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/encoding/encoding"
	"github.com/born-ml/encoding/tensor"
)

func TestAggregate(t *testing.T) {
	a, _ := tensor.FromSlice([]float64{0.5, 0.5}, tensor.Shape{1, 2, 1}, tensor.CPU)
	x, _ := tensor.FromSlice([]float64{1.0, 3.0}, tensor.Shape{1, 2, 1}, tensor.CPU)
	c, _ := tensor.FromSlice([]float64{0.0}, tensor.Shape{1, 1}, tensor.CPU)

	e, err := encoding.Aggregate(a, x, c)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0}, e.AsFloat64())
}

func TestScaledL2(t *testing.T) {
	x, _ := tensor.FromSlice([]float32{2.0}, tensor.Shape{1, 1, 1}, tensor.CPU)
	c, _ := tensor.FromSlice([]float32{0.0}, tensor.Shape{1, 1}, tensor.CPU)
	s, _ := tensor.FromSlice([]float32{2.0}, tensor.Shape{1}, tensor.CPU)

	sl, err := encoding.ScaledL2(x, c, s)
	require.NoError(t, err)
	assert.Equal(t, []float32{8.0}, sl.AsFloat32())
}

func TestWithContext_BackwardOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x, _ := tensor.Uniform(tensor.Shape{2, 3, 4}, tensor.Float64, tensor.CPU, rng, -1, 1)
	c, _ := tensor.Uniform(tensor.Shape{5, 4}, tensor.Float64, tensor.CPU, rng, -1, 1)
	s, _ := tensor.Uniform(tensor.Shape{5}, tensor.Float64, tensor.CPU, rng, 0.5, 1.5)

	sl, l2Op, err := encoding.ScaledL2WithContext(x, c, s)
	require.NoError(t, err)
	e, aggOp, err := encoding.AggregateWithContext(sl, x, c)
	require.NoError(t, err)

	aggGrads, err := aggOp.Backward(e)
	require.NoError(t, err)
	require.Len(t, aggGrads, 3)
	assert.Equal(t, sl.Shape(), aggGrads[0].Shape())

	l2Grads, err := l2Op.Backward(aggGrads[0])
	require.NoError(t, err)
	assert.Equal(t, s.Shape(), l2Grads[2].Shape())

	_, err = aggOp.Backward(e)
	require.ErrorIs(t, err, encoding.ErrConsumed)
	_, err = l2Op.Backward(aggGrads[0])
	require.ErrorIs(t, err, encoding.ErrConsumed)
}

func TestShapeMismatch(t *testing.T) {
	x, _ := tensor.Zeros(tensor.Shape{1, 2, 3}, tensor.Float64, tensor.CPU)
	c, _ := tensor.Zeros(tensor.Shape{4, 2}, tensor.Float64, tensor.CPU)
	s, _ := tensor.Zeros(tensor.Shape{4}, tensor.Float64, tensor.CPU)

	_, err := encoding.ScaledL2(x, c, s)
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)

	var shapeErr *tensor.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "C", shapeErr.Arg)
}
