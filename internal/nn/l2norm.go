package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/graphnet/internal/tensor"
)

// normEpsilon keeps zero vectors from dividing by zero.
const normEpsilon = 1e-8

// L2NormConfig configures an L2 normalization layer.
//
// Axis selects the dimension the vectors run along (tensor.AxisChannels for
// per-pixel normalization). A nil Axis, or AllAxes, normalizes the whole
// tensor as one vector.
type L2NormConfig struct {
	Axis *int `json:"axis,omitempty"`
}

// Kind implements Config.
func (c *L2NormConfig) Kind() Kind { return KindL2Norm }

// Bind implements Config.
func (c *L2NormConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	axis, err := normAxis(KindL2Norm, c.Axis)
	if err != nil {
		return nil, err
	}
	in, err := bindSingle(KindL2Norm, inputs)
	if err != nil {
		return nil, err
	}
	return &L2Norm{base: base{kind: KindL2Norm, inShape: in, outShape: in}, axis: axis}, nil
}

// L2Norm rescales vectors along an axis to unit Euclidean length.
//
// Forward:
//
//	inv    = 1 / sqrt(sum(x^2, axis) + 1e-8)
//	output = x * inv
//	scales = (1 - output) * inv
//
// Backward accumulates the cached scales into Delta and adds Delta into the
// upstream buffer. The layer has no trainable parameters.
type L2Norm struct {
	base
	axis   int
	scales *tensor.Tensor
}

// NewL2Norm binds an L2 normalization layer to an input shape.
func NewL2Norm(input tensor.Shape, axis int) (*L2Norm, error) {
	l, err := (&L2NormConfig{Axis: AlongAxis(axis)}).Bind(input)
	if err != nil {
		return nil, err
	}
	return l.(*L2Norm), nil
}

// Axis returns the normalization axis.
func (l *L2Norm) Axis() int { return l.axis }

// Scales returns the factors cached by the last Forward, or nil.
func (l *L2Norm) Scales() *tensor.Tensor { return l.scales }

// Config implements Layer.
func (l *L2Norm) Config() Config { return &L2NormConfig{Axis: configAxis(l.axis)} }

// Forward implements Layer.
func (l *L2Norm) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}

	norm := in.SumAxis(l.axis, func(v float64) float64 { return v * v })
	nd := norm.Data()
	for i, v := range nd {
		nd[i] = 1 / math.Sqrt(v+normEpsilon)
	}

	l.reset()
	l.scales = tensor.EnsureZeros(l.scales, l.outShape)

	x, out, sc := in.Data(), l.output.Data(), l.scales.Data()
	rs := norm.Shape()
	for i, v := range x {
		inv := nd[l.inShape.BroadcastOffset(i, rs)]
		out[i] = v * inv
		sc[i] = (1 - out[i]) * inv
	}
	return nil
}

// Backward implements Layer.
func (l *L2Norm) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}
	if err := l.delta.Add(l.scales); err != nil {
		return err
	}
	return up.Add(l.delta)
}

func (l *L2Norm) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), axisLabel(l.axis), l.inShape, l.outShape)
}

func axisLabel(axis int) string {
	if axis == AllAxes {
		return "axis=all"
	}
	return fmt.Sprintf("axis=%d", axis)
}
