// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package encoding provides the two differentiable operations of a learned
// dictionary-encoding layer.
//
//   - Aggregate: E[b,k,:] = Σ_i A[b,i,k]·(X[b,i,:] − C[k,:])
//   - ScaledL2:  SL[b,i,k] = S[k]·‖X[b,i,:] − C[k,:]‖²
//
// with A (B,N,K) assignment weights, X (B,N,D) features, C (K,D) codewords
// and S (K,) per-codeword scales.
//
// The backend is chosen from the device of the first input: tensors tagged
// tensor.WebGPU run on the GPU, everything else on the CPU.
//
// Example:
//
//	e, op, err := encoding.AggregateWithContext(a, x, c)
//	if err != nil {
//	    return err
//	}
//	grads, err := op.Backward(gradE) // [gradA, gradX, gradC]
package encoding

import (
	"github.com/born-ml/encoding/internal/autodiff"
	"github.com/born-ml/encoding/internal/autodiff/ops"
	"github.com/born-ml/encoding/tensor"
)

// ErrConsumed is returned by Backward when called twice on the same op.
var ErrConsumed = ops.ErrConsumed

// AggregateOp holds what the aggregate backward pass needs.
// Backward returns [gradA, gradX, gradC].
type AggregateOp = ops.AggregateOp

// ScaledL2Op holds what the scaled_l2 backward pass needs.
// Backward returns [gradX, gradC, gradS].
type ScaledL2Op = ops.ScaledL2Op

// Aggregate computes E (B,K,D) from A (B,N,K), X (B,N,D) and C (K,D).
func Aggregate(a, x, c *tensor.RawTensor) (*tensor.RawTensor, error) {
	e, _, err := AggregateWithContext(a, x, c)
	return e, err
}

// AggregateWithContext computes E and returns the op for the backward pass.
func AggregateWithContext(a, x, c *tensor.RawTensor) (*tensor.RawTensor, *AggregateOp, error) {
	return autodiff.Default().Aggregate(a, x, c)
}

// ScaledL2 computes SL (B,N,K) from X (B,N,D), C (K,D) and S (K,).
//
// The gradient with respect to S divides by S, so a zero scale produces a
// non-finite gradient for that codeword.
func ScaledL2(x, c, s *tensor.RawTensor) (*tensor.RawTensor, error) {
	sl, _, err := ScaledL2WithContext(x, c, s)
	return sl, err
}

// ScaledL2WithContext computes SL and returns the op for the backward pass.
func ScaledL2WithContext(x, c, s *tensor.RawTensor) (*tensor.RawTensor, *ScaledL2Op, error) {
	return autodiff.Default().ScaledL2(x, c, s)
}
