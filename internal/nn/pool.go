package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/graphnet/internal/parallel"
	"github.com/born-ml/graphnet/internal/tensor"
)

// MaxpoolConfig configures max pooling.
//
// Padding is the total padding over both borders; a negative value selects
// the default Size-1.
//
//	out = (in + padding - size) / stride + 1
type MaxpoolConfig struct {
	Size    int `json:"size"`
	Stride  int `json:"stride"`
	Padding int `json:"padding"`
}

// Kind implements Config.
func (c *MaxpoolConfig) Kind() Kind { return KindMaxpool }

// Bind implements Config.
func (c *MaxpoolConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	name := KindMaxpool.String()
	if c.Size <= 0 {
		return nil, &ValueError{Layer: name, Param: "size", Value: c.Size, Want: "> 0"}
	}
	if c.Stride <= 0 {
		return nil, &ValueError{Layer: name, Param: "stride", Value: c.Stride, Want: "> 0"}
	}
	in, err := bindSingle(KindMaxpool, inputs)
	if err != nil {
		return nil, err
	}
	cfg := *c
	if cfg.Padding < 0 {
		cfg.Padding = cfg.Size - 1
	}
	out := in
	out[1] = (in[1]+cfg.Padding-cfg.Size)/cfg.Stride + 1
	out[2] = (in[2]+cfg.Padding-cfg.Size)/cfg.Stride + 1
	if out[1] <= 0 || out[2] <= 0 {
		return nil, &ValueError{Layer: name, Param: "size", Value: c.Size, Want: fmt.Sprintf("no larger than %dx%d", in[1], in[2])}
	}
	return &Maxpool{
		pool: pool{base: base{kind: KindMaxpool, inShape: in, outShape: out}, size: cfg.Size, stride: cfg.Stride,
			offset: -cfg.Padding / 2, par: parallel.DefaultConfig()},
		cfg: cfg,
	}, nil
}

// AvgpoolConfig configures average pooling. Size 0 averages each channel over
// the whole plane.
type AvgpoolConfig struct {
	Size   int `json:"size"`
	Stride int `json:"stride"`
}

// Kind implements Config.
func (c *AvgpoolConfig) Kind() Kind { return KindAvgpool }

// Bind implements Config.
func (c *AvgpoolConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	name := KindAvgpool.String()
	if c.Size < 0 || c.Stride < 0 {
		return nil, &ValueError{Layer: name, Param: "size", Value: c.Size, Want: ">= 0"}
	}
	in, err := bindSingle(KindAvgpool, inputs)
	if err != nil {
		return nil, err
	}
	out := in
	p := pool{base: base{kind: KindAvgpool, inShape: in}, size: c.Size, stride: c.Stride, par: parallel.DefaultConfig()}
	if c.Size == 0 {
		out[1], out[2] = 1, 1
		p.size, p.sizeH, p.stride = in[1], in[2], 1
	} else {
		if p.stride == 0 {
			p.stride = c.Size
		}
		out[1] = (in[1]-c.Size)/p.stride + 1
		out[2] = (in[2]-c.Size)/p.stride + 1
		if out[1] <= 0 || out[2] <= 0 {
			return nil, &ValueError{Layer: name, Param: "size", Value: c.Size, Want: fmt.Sprintf("no larger than %dx%d", in[1], in[2])}
		}
	}
	p.outShape = out
	return &Avgpool{pool: p, cfg: *c}, nil
}

// pool holds the window geometry shared by both pooling layers.
type pool struct {
	base
	size   int
	sizeH  int // height of the window when it differs from size
	stride int
	offset int
	par    parallel.Config
}

func (p *pool) windowH() int {
	if p.sizeH > 0 {
		return p.sizeH
	}
	return p.size
}

// window visits the in-bounds input offsets of output pixel (b, i, j, c).
func (p *pool) window(b, i, j, c int, fn func(idx int)) {
	for kx := 0; kx < p.size; kx++ {
		x := i*p.stride + kx + p.offset
		if x < 0 || x >= p.inShape[1] {
			continue
		}
		for ky := 0; ky < p.windowH(); ky++ {
			y := j*p.stride + ky + p.offset
			if y < 0 || y >= p.inShape[2] {
				continue
			}
			fn(p.inShape.Offset(b, x, y, c))
		}
	}
}

// SetParallel overrides how the kernel loops are split.
func (p *pool) SetParallel(cfg parallel.Config) { p.par = cfg }

// Maxpool keeps the largest value of each window and routes gradient back to it.
type Maxpool struct {
	pool
	cfg     MaxpoolConfig
	indexes []int // argmax per output element, -1 for empty windows
}

// Config implements Layer.
func (l *Maxpool) Config() Config {
	c := l.cfg
	return &c
}

// Forward implements Layer.
func (l *Maxpool) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()
	if len(l.indexes) != l.output.Len() {
		l.indexes = make([]int, l.output.Len())
	}

	x, out := in.Data(), l.output.Data()
	oshape := l.outShape
	parallel.ForPlanes(oshape[0], oshape[3], l.par, func(b, c int) {
		for i := 0; i < oshape[1]; i++ {
			for j := 0; j < oshape[2]; j++ {
				o := oshape.Offset(b, i, j, c)
				best, arg := math.Inf(-1), -1
				l.window(b, i, j, c, func(idx int) {
					if x[idx] > best {
						best, arg = x[idx], idx
					}
				})
				l.indexes[o] = arg
				if arg >= 0 {
					out[o] = best
				}
			}
		}
	})
	return nil
}

// Backward implements Layer.
func (l *Maxpool) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}
	dst, delta := up.Data(), l.delta.Data()
	for o, idx := range l.indexes {
		if idx >= 0 {
			dst[idx] += delta[o]
		}
	}
	return nil
}

func (l *Maxpool) String() string {
	detail := fmt.Sprintf("%dx%d/%d", l.size, l.size, l.stride)
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), detail, l.inShape, l.outShape)
}

// Avgpool averages each window.
type Avgpool struct {
	pool
	cfg AvgpoolConfig
}

// Config implements Layer.
func (l *Avgpool) Config() Config {
	c := l.cfg
	return &c
}

// Forward implements Layer.
func (l *Avgpool) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()

	x, out := in.Data(), l.output.Data()
	oshape := l.outShape
	area := float64(l.size * l.windowH())
	parallel.ForPlanes(oshape[0], oshape[3], l.par, func(b, c int) {
		for i := 0; i < oshape[1]; i++ {
			for j := 0; j < oshape[2]; j++ {
				sum := 0.0
				l.window(b, i, j, c, func(idx int) { sum += x[idx] })
				out[oshape.Offset(b, i, j, c)] = sum / area
			}
		}
	})
	return nil
}

// Backward implements Layer.
func (l *Avgpool) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}
	dst, delta := up.Data(), l.delta.Data()
	oshape := l.outShape
	area := float64(l.size * l.windowH())
	for o, d := range delta {
		b, i, j, c := oshape.Coords(o)
		l.window(b, i, j, c, func(idx int) { dst[idx] += d / area })
	}
	return nil
}

func (l *Avgpool) String() string {
	detail := fmt.Sprintf("%dx%d/%d", l.size, l.windowH(), l.stride)
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), detail, l.inShape, l.outShape)
}
