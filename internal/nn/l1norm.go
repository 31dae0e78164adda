package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/graphnet/internal/tensor"
)

// L1NormConfig configures an L1 normalization layer. Axis follows
// L2NormConfig: nil normalizes the whole tensor.
type L1NormConfig struct {
	Axis *int `json:"axis,omitempty"`
}

// Kind implements Config.
func (c *L1NormConfig) Kind() Kind { return KindL1Norm }

// Bind implements Config.
func (c *L1NormConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	axis, err := normAxis(KindL1Norm, c.Axis)
	if err != nil {
		return nil, err
	}
	in, err := bindSingle(KindL1Norm, inputs)
	if err != nil {
		return nil, err
	}
	return &L1Norm{base: base{kind: KindL1Norm, inShape: in, outShape: in}, axis: axis}, nil
}

// L1Norm divides vectors along an axis by their absolute sum.
// It caches -sign(output) at forward and accumulates it at backward, the same
// discipline as L2Norm.
type L1Norm struct {
	base
	axis   int
	scales *tensor.Tensor
}

// Config implements Layer.
func (l *L1Norm) Config() Config { return &L1NormConfig{Axis: configAxis(l.axis)} }

// Forward implements Layer.
func (l *L1Norm) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}

	norm := in.SumAxis(l.axis, math.Abs)
	nd := norm.Data()
	for i, v := range nd {
		nd[i] = 1 / (v + normEpsilon)
	}

	l.reset()
	l.scales = tensor.EnsureZeros(l.scales, l.outShape)

	x, out, sc := in.Data(), l.output.Data(), l.scales.Data()
	rs := norm.Shape()
	for i, v := range x {
		out[i] = v * nd[l.inShape.BroadcastOffset(i, rs)]
		switch {
		case out[i] > 0:
			sc[i] = -1
		case out[i] < 0:
			sc[i] = 1
		}
	}
	return nil
}

// Backward implements Layer.
func (l *L1Norm) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}
	if err := l.delta.Add(l.scales); err != nil {
		return err
	}
	return up.Add(l.delta)
}

func (l *L1Norm) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), axisLabel(l.axis), l.inShape, l.outShape)
}
