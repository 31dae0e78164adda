package nn

import (
	"fmt"

	"github.com/born-ml/graphnet/internal/parallel"
	"github.com/born-ml/graphnet/internal/tensor"
)

// ConvolutionalConfig configures a 2-D convolution over (width, height).
type ConvolutionalConfig struct {
	Filters    int        `json:"filters"`
	Size       int        `json:"size"`
	Stride     int        `json:"stride"`
	Pad        int        `json:"pad"` // zero padding on each border
	Activation Activation `json:"activation"`
}

// Kind implements Config.
func (c *ConvolutionalConfig) Kind() Kind { return KindConvolutional }

// Bind implements Config.
//
//	out_w = (w + 2*pad - size) / stride + 1
//	out_h = (h + 2*pad - size) / stride + 1
func (c *ConvolutionalConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	name := KindConvolutional.String()
	switch {
	case c.Filters <= 0:
		return nil, &ValueError{Layer: name, Param: "filters", Value: c.Filters, Want: "> 0"}
	case c.Size <= 0:
		return nil, &ValueError{Layer: name, Param: "size", Value: c.Size, Want: "> 0"}
	case c.Stride <= 0:
		return nil, &ValueError{Layer: name, Param: "stride", Value: c.Stride, Want: "> 0"}
	case c.Pad < 0:
		return nil, &ValueError{Layer: name, Param: "pad", Value: c.Pad, Want: ">= 0"}
	}
	in, err := bindSingle(KindConvolutional, inputs)
	if err != nil {
		return nil, err
	}
	outW := (in[1]+2*c.Pad-c.Size)/c.Stride + 1
	outH := (in[2]+2*c.Pad-c.Size)/c.Stride + 1
	if outW <= 0 || outH <= 0 {
		return nil, &ValueError{Layer: name, Param: "size", Value: c.Size,
			Want: fmt.Sprintf("no larger than the padded input %dx%d", in[1]+2*c.Pad, in[2]+2*c.Pad)}
	}

	l := &Convolutional{
		base:    base{kind: KindConvolutional, inShape: in, outShape: tensor.Shape{in[0], outW, outH, c.Filters}},
		cfg:     *c,
		bias:    NewParameter("bias", c.Filters),
		weights: NewParameter("weights", c.Size, c.Size, in[3], c.Filters),
		par:     parallel.DefaultConfig(),
	}
	uniformInit(l.weights.values, heScale(c.Size*c.Size*in[3]))
	return l, nil
}

// Convolutional is a direct 2-D convolution followed by an activation.
//
// Weights have shape [size, size, in_channels, filters] and biases [filters].
// Output planes are computed in parallel over (batch, filter).
type Convolutional struct {
	base
	cfg     ConvolutionalConfig
	bias    *Parameter
	weights *Parameter
	input   *tensor.Tensor
	par     parallel.Config
}

// SetParallel overrides how the kernel loops are split.
func (l *Convolutional) SetParallel(cfg parallel.Config) { l.par = cfg }

// Config implements Layer.
func (l *Convolutional) Config() Config {
	c := l.cfg
	return &c
}

// Parameters implements Parametric.
func (l *Convolutional) Parameters() []*Parameter { return []*Parameter{l.bias, l.weights} }

// Bias returns the bias parameter.
func (l *Convolutional) Bias() *Parameter { return l.bias }

// Weights returns the weight parameter.
func (l *Convolutional) Weights() *Parameter { return l.weights }

// LoadWeights implements Parametric.
func (l *Convolutional) LoadWeights(buf []float32, offset int) (int, error) {
	return loadParams(l.name(), l.Parameters(), buf, offset)
}

// SaveWeights implements Parametric.
func (l *Convolutional) SaveWeights() []float32 { return saveParams(l.Parameters()) }

// widx returns the flat index of weight (kx, ky, ch, f).
func (l *Convolutional) widx(kx, ky, ch, f int) int {
	return ((kx*l.cfg.Size+ky)*l.inShape[3]+ch)*l.cfg.Filters + f
}

// window visits the in-bounds taps of output pixel (i, j).
func (l *Convolutional) window(i, j int, fn func(kx, ky, x, y int)) {
	s, p := l.cfg.Stride, l.cfg.Pad
	for kx := 0; kx < l.cfg.Size; kx++ {
		x := i*s + kx - p
		if x < 0 || x >= l.inShape[1] {
			continue
		}
		for ky := 0; ky < l.cfg.Size; ky++ {
			y := j*s + ky - p
			if y < 0 || y >= l.inShape[2] {
				continue
			}
			fn(kx, ky, x, y)
		}
	}
}

// Forward implements Layer.
func (l *Convolutional) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()
	l.input = in

	channels := l.inShape[3]
	x, out, w := in.Data(), l.output.Data(), l.weights.values
	parallel.ForPlanes(l.outShape[0], l.cfg.Filters, l.par, func(b, f int) {
		for i := 0; i < l.outShape[1]; i++ {
			for j := 0; j < l.outShape[2]; j++ {
				sum := l.bias.values[f]
				l.window(i, j, func(kx, ky, xi, yj int) {
					off := l.inShape.Offset(b, xi, yj, 0)
					for ch := 0; ch < channels; ch++ {
						sum += x[off+ch] * w[l.widx(kx, ky, ch, f)]
					}
				})
				out[l.outShape.Offset(b, i, j, f)] = l.cfg.Activation.Apply(sum)
			}
		}
	})
	return nil
}

// Backward implements Layer.
func (l *Convolutional) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}

	dpre := make([]float64, l.delta.Len())
	gradientInto(l.cfg.Activation, dpre, l.delta.Data(), l.output.Data())

	channels := l.inShape[3]
	x, w, wg, dst := l.input.Data(), l.weights.values, l.weights.grad, up.Data()
	batch, outW, outH := l.outShape[0], l.outShape[1], l.outShape[2]

	// Parameter gradients: each filter owns its accumulators.
	parallel.For(l.cfg.Filters, l.par, func(f int) {
		for b := 0; b < batch; b++ {
			for i := 0; i < outW; i++ {
				for j := 0; j < outH; j++ {
					d := dpre[l.outShape.Offset(b, i, j, f)]
					l.bias.grad[f] += d
					l.window(i, j, func(kx, ky, xi, yj int) {
						off := l.inShape.Offset(b, xi, yj, 0)
						for ch := 0; ch < channels; ch++ {
							wg[l.widx(kx, ky, ch, f)] += x[off+ch] * d
						}
					})
				}
			}
		}
	})

	// Input gradient: each batch item owns its slice of upstream.
	parallel.For(batch, l.par, func(b int) {
		for i := 0; i < outW; i++ {
			for j := 0; j < outH; j++ {
				for f := 0; f < l.cfg.Filters; f++ {
					d := dpre[l.outShape.Offset(b, i, j, f)]
					if d == 0 {
						continue
					}
					l.window(i, j, func(kx, ky, xi, yj int) {
						off := l.inShape.Offset(b, xi, yj, 0)
						for ch := 0; ch < channels; ch++ {
							dst[off+ch] += w[l.widx(kx, ky, ch, f)] * d
						}
					})
				}
			}
		}
	})
	return nil
}

func (l *Convolutional) String() string {
	detail := fmt.Sprintf("%d %dx%d/%d %s", l.cfg.Filters, l.cfg.Size, l.cfg.Size, l.cfg.Stride, l.cfg.Activation)
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), detail, l.inShape, l.outShape)
}
