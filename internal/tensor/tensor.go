// Package tensor implements the dense 4-D tensor used by every graphnet layer.
//
// Tensors are laid out row-major over (batch, width, height, channels) and
// store float64 values so that buffers can be handed directly to gonum's
// floats and mat packages.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Tensor is a dense row-major array of float64 with a fixed 4-D shape.
type Tensor struct {
	shape Shape
	data  []float64
}

// New creates a zero-filled tensor.
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Tensor{shape: shape, data: make([]float64, shape.NumElements())}, nil
}

// Zeros creates a tensor filled with zeros.
//
// Panics if the shape is invalid; shapes reaching Zeros are validated by the
// layer that owns them.
func Zeros(shape Shape) *Tensor {
	t, err := New(shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) *Tensor {
	t := Zeros(shape)
	t.Fill(value)
	return t
}

// FromSlice wraps data (without copying) as a tensor of the given shape.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	return &Tensor{shape: shape, data: data}, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape { return t.shape }

// Data returns the underlying buffer. Mutations are visible to the tensor.
func (t *Tensor) Data() []float64 { return t.data }

// Len returns the number of elements.
func (t *Tensor) Len() int { return len(t.data) }

// At returns element (b, x, y, c).
func (t *Tensor) At(b, x, y, c int) float64 {
	return t.data[t.shape.Offset(b, x, y, c)]
}

// Set stores v at element (b, x, y, c).
func (t *Tensor) Set(b, x, y, c int, v float64) {
	t.data[t.shape.Offset(b, x, y, c)] = v
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape, data: data}
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Zero resets every element to 0 without reallocating.
func (t *Tensor) Zero() {
	clear(t.data)
}

// Add accumulates other into t elementwise. Shapes must match exactly.
func (t *Tensor) Add(other *Tensor) error {
	if t.shape != other.shape {
		return fmt.Errorf("add: shape mismatch %v vs %v", t.shape, other.shape)
	}
	floats.Add(t.data, other.data)
	return nil
}

// AddScaled accumulates alpha*other into t elementwise.
func (t *Tensor) AddScaled(alpha float64, other *Tensor) error {
	if t.shape != other.shape {
		return fmt.Errorf("add: shape mismatch %v vs %v", t.shape, other.shape)
	}
	floats.AddScaled(t.data, alpha, other.data)
	return nil
}

// Scale multiplies every element by s.
func (t *Tensor) Scale(s float64) {
	floats.Scale(s, t.data)
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.data)
}

// Equal reports whether both tensors have the same shape and identical values.
func (t *Tensor) Equal(other *Tensor) bool {
	return t.shape == other.shape && floats.Equal(t.data, other.data)
}

// EnsureZeros returns t reset to zero when it already has the requested shape,
// otherwise a freshly allocated zero tensor. Layers use it for output and
// delta buffers so that repeated passes do not reallocate.
func EnsureZeros(t *Tensor, shape Shape) *Tensor {
	if t != nil && t.shape == shape {
		t.Zero()
		return t
	}
	return Zeros(shape)
}
