package nn

import (
	"fmt"

	"github.com/born-ml/graphnet/internal/tensor"
)

// UpsampleConfig configures nearest-neighbour resampling.
//
// A positive Stride enlarges width and height by Stride; a negative Stride
// shrinks them by -Stride, summing each block. Every value is multiplied by
// Scale; zero means 1.
type UpsampleConfig struct {
	Stride int     `json:"stride"`
	Scale  float64 `json:"scale"`
}

// Kind implements Config.
func (c *UpsampleConfig) Kind() Kind { return KindUpsample }

// Bind implements Config.
func (c *UpsampleConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	if c.Stride == 0 {
		return nil, &ValueError{Layer: KindUpsample.String(), Param: "stride", Value: c.Stride, Want: "non-zero"}
	}
	in, err := bindSingle(KindUpsample, inputs)
	if err != nil {
		return nil, err
	}
	out := in
	if c.Stride > 0 {
		out[1], out[2] = in[1]*c.Stride, in[2]*c.Stride
	} else {
		s := -c.Stride
		if in[1]%s != 0 || in[2]%s != 0 {
			return nil, &ValueError{Layer: KindUpsample.String(), Param: "stride", Value: c.Stride,
				Want: fmt.Sprintf("a divisor of %dx%d", in[1], in[2])}
		}
		out[1], out[2] = in[1]/s, in[2]/s
	}
	scale := c.Scale
	if scale == 0 {
		scale = 1
	}
	return &Upsample{base: base{kind: KindUpsample, inShape: in, outShape: out}, stride: c.Stride, scale: scale}, nil
}

// Upsample resamples width and height by an integer factor.
type Upsample struct {
	base
	stride int
	scale  float64
}

// Config implements Layer.
func (l *Upsample) Config() Config { return &UpsampleConfig{Stride: l.stride, Scale: l.scale} }

// eachPair visits every (big, small) element pair where big is the enlarged
// side of the resampling.
func (l *Upsample) eachPair(fn func(big, small int)) {
	big, small, s := l.outShape, l.inShape, l.stride
	if s < 0 {
		big, small, s = l.inShape, l.outShape, -s
	}
	for b := 0; b < big[0]; b++ {
		for x := 0; x < big[1]; x++ {
			for y := 0; y < big[2]; y++ {
				for c := 0; c < big[3]; c++ {
					fn(big.Offset(b, x, y, c), small.Offset(b, x/s, y/s, c))
				}
			}
		}
	}
}

// Forward implements Layer.
func (l *Upsample) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()
	x, out := in.Data(), l.output.Data()
	if l.stride > 0 {
		l.eachPair(func(big, small int) { out[big] = l.scale * x[small] })
	} else {
		l.eachPair(func(big, small int) { out[small] += l.scale * x[big] })
	}
	return nil
}

// Backward implements Layer.
func (l *Upsample) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}
	dst, delta := up.Data(), l.delta.Data()
	if l.stride > 0 {
		l.eachPair(func(big, small int) { dst[small] += l.scale * delta[big] })
	} else {
		l.eachPair(func(big, small int) { dst[big] += l.scale * delta[small] })
	}
	return nil
}

func (l *Upsample) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), fmt.Sprintf("%dX", l.stride), l.inShape, l.outShape)
}
