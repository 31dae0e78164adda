// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/graphnet/internal/tensor"
)

// Axis indices into a Shape.
const (
	AxisBatch    = tensor.AxisBatch
	AxisWidth    = tensor.AxisWidth
	AxisHeight   = tensor.AxisHeight
	AxisChannels = tensor.AxisChannels

	// AllAxes selects the whole tensor in axis-aware operations.
	AllAxes = tensor.AllAxes
)

// Shape is (batch, width, height, channels).
type Shape = tensor.Shape

// Tensor is a dense 4-D float64 array.
type Tensor = tensor.Tensor

// New allocates a zero tensor, failing on a non-positive dimension.
func New(shape Shape) (*Tensor, error) {
	return tensor.New(shape)
}

// Zeros allocates a zero tensor. It panics on an invalid shape.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones allocates a tensor filled with 1.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full allocates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// FromSlice wraps data without copying. len(data) must match the shape.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{1, 2, 2, 1})
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// ConcatChannels concatenates tensors with equal batch, width and height
// along the channel axis.
func ConcatChannels(ts ...*Tensor) (*Tensor, error) {
	return tensor.ConcatChannels(ts...)
}
