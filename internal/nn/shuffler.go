package nn

import (
	"fmt"

	"github.com/born-ml/graphnet/internal/tensor"
)

// ShufflerConfig configures a depth-to-space rearrangement (pixel shuffle).
// Each group of Scale*Scale consecutive channels becomes one output channel
// tiled into Scale x Scale spatial blocks.
type ShufflerConfig struct {
	Scale int `json:"scale"`
}

// Kind implements Config.
func (c *ShufflerConfig) Kind() Kind { return KindShuffler }

// Bind implements Config.
func (c *ShufflerConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	name := KindShuffler.String()
	if c.Scale < 2 {
		return nil, &ValueError{Layer: name, Param: "scale", Value: c.Scale, Want: ">= 2"}
	}
	in, err := bindSingle(KindShuffler, inputs)
	if err != nil {
		return nil, err
	}
	step := c.Scale * c.Scale
	if in.Channels()%step != 0 {
		return nil, &ValueError{Layer: name, Param: "scale", Value: c.Scale,
			Want: fmt.Sprintf("scale^2 dividing %d channels", in.Channels())}
	}
	out := tensor.Shape{in[0], in[1] * c.Scale, in[2] * c.Scale, in.Channels() / step}
	return &Shuffler{base: base{kind: KindShuffler, inShape: in, outShape: out}, scale: c.Scale}, nil
}

// Shuffler permutes channels into space:
//
//	out[b, x*s+i, y*s+j, g] = in[b, x, y, g*s*s + i*s + j]
//
// Backward applies the inverse permutation. No parameters.
type Shuffler struct {
	base
	scale int
}

// Config implements Layer.
func (l *Shuffler) Config() Config { return &ShufflerConfig{Scale: l.scale} }

// each visits every (input, output) offset pair of the permutation.
func (l *Shuffler) each(fn func(in, out int)) {
	s, in, out := l.scale, l.inShape, l.outShape
	for b := 0; b < in[0]; b++ {
		for x := 0; x < in[1]; x++ {
			for y := 0; y < in[2]; y++ {
				for c := 0; c < in[3]; c++ {
					g, k := c/(s*s), c%(s*s)
					fn(in.Offset(b, x, y, c), out.Offset(b, x*s+k/s, y*s+k%s, g))
				}
			}
		}
	}
}

// Forward implements Layer.
func (l *Shuffler) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()
	x, out := in.Data(), l.output.Data()
	l.each(func(i, o int) { out[o] = x[i] })
	return nil
}

// Backward implements Layer.
func (l *Shuffler) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}
	dst, delta := up.Data(), l.delta.Data()
	l.each(func(i, o int) { dst[i] += delta[o] })
	return nil
}

func (l *Shuffler) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), fmt.Sprintf("%dx", l.scale), l.inShape, l.outShape)
}
