package tensor

import "fmt"

// Axis identifiers for the four tensor dimensions.
const (
	AxisBatch    = 0
	AxisWidth    = 1
	AxisHeight   = 2
	AxisChannels = 3

	// AllAxes selects every dimension at once (reductions over the whole tensor).
	AllAxes = -1
)

// Shape represents the (batch, width, height, channels) extent of a tensor.
//
// Every tensor handled by the engine is four dimensional; lower rank data is
// expressed with unit dimensions, e.g. a fully connected output is
// (batch, 1, 1, outputs).
type Shape [4]int

// Batch returns the batch dimension.
func (s Shape) Batch() int { return s[0] }

// Width returns the width dimension.
func (s Shape) Width() int { return s[1] }

// Height returns the height dimension.
func (s Shape) Height() int { return s[2] }

// Channels returns the channel dimension.
func (s Shape) Channels() int { return s[3] }

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	return s[0] * s[1] * s[2] * s[3]
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// WithChannels returns a copy of the shape with the channel dimension replaced.
func (s Shape) WithChannels(c int) Shape {
	s[3] = c
	return s
}

// SameSpatial reports whether both shapes agree on batch, width and height.
func (s Shape) SameSpatial(other Shape) bool {
	return s[0] == other[0] && s[1] == other[1] && s[2] == other[2]
}

// Reduce returns the keepdims shape of a reduction along axis.
// AllAxes collapses every dimension to 1.
func (s Shape) Reduce(axis int) Shape {
	if axis == AllAxes {
		return Shape{1, 1, 1, 1}
	}
	s[axis] = 1
	return s
}

// Strides returns row-major strides: stride[i] = product of all dimensions after i.
func (s Shape) Strides() [4]int {
	return [4]int{s[1] * s[2] * s[3], s[2] * s[3], s[3], 1}
}

// Offset returns the flat index of element (b, x, y, c).
func (s Shape) Offset(b, x, y, c int) int {
	return ((b*s[1]+x)*s[2]+y)*s[3] + c
}

// Coords is the inverse of Offset.
func (s Shape) Coords(i int) (b, x, y, c int) {
	c = i % s[3]
	i /= s[3]
	y = i % s[2]
	i /= s[2]
	x = i % s[1]
	b = i / s[1]
	return b, x, y, c
}

// BroadcastOffset maps flat index i of s onto a keepdims-reduced shape r.
// Dimensions of r equal to 1 are broadcast.
func (s Shape) BroadcastOffset(i int, r Shape) int {
	b, x, y, c := s.Coords(i)
	if r[0] == 1 {
		b = 0
	}
	if r[1] == 1 {
		x = 0
	}
	if r[2] == 1 {
		y = 0
	}
	if r[3] == 1 {
		c = 0
	}
	return r.Offset(b, x, y, c)
}

// String renders the shape the way the summary table prints it.
func (s Shape) String() string {
	return fmt.Sprintf("%4d x%4d x%4d x%4d", s[0], s[1], s[2], s[3])
}

// ValidAxis reports whether axis names a dimension or AllAxes.
func ValidAxis(axis int) bool {
	return axis == AllAxes || (axis >= AxisBatch && axis <= AxisChannels)
}
