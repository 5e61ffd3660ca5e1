// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/encoding/internal/tensor"
)

// RawTensor is the tensor representation used by the encoding operations.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Typed data access via AsFloat32(), AsFloat64()
//   - Deep copies via Copy() and ToDevice()
//   - Reference counting via Retain() and Release()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32()
//	gpu := raw.ToDevice(tensor.WebGPU)
type RawTensor = tensor.RawTensor
