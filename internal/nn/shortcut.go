package nn

import (
	"fmt"

	"github.com/born-ml/graphnet/internal/tensor"
)

// ShortcutConfig configures the elementwise sum of two earlier layers:
//
//	output = Alpha*first + Beta*second
//
// Alpha and Beta both zero (the zero value) mean the plain sum, 1 and 1.
type ShortcutConfig struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// Kind implements Config.
func (c *ShortcutConfig) Kind() Kind { return KindShortcut }

// Bind implements Config. Both predecessors must share batch, width and
// height. The output takes the first predecessor's channels; when the second
// has a different count only the common channels are summed.
func (c *ShortcutConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	if len(inputs) != 2 {
		return nil, &LayerError{Layer: KindShortcut.String(), Reason: fmt.Sprintf("expects exactly 2 predecessors, got %d", len(inputs))}
	}
	a, b := inputs[0], inputs[1]
	if !a.SameSpatial(b) {
		return nil, &ShapeMismatchError{Layer: KindShortcut.String(), Op: "bind", Want: a.WithChannels(b.Channels()), Got: b}
	}
	alpha, beta := c.Alpha, c.Beta
	if alpha == 0 && beta == 0 {
		alpha, beta = 1, 1
	}
	return &Shortcut{
		base:   base{kind: KindShortcut, inShape: a, outShape: a},
		second: b,
		alpha:  alpha,
		beta:   beta,
	}, nil
}

// Shortcut adds the outputs of two predecessors elementwise. Backward adds
// the (scaled) Delta into both upstream buffers.
type Shortcut struct {
	base
	second tensor.Shape
	alpha  float64
	beta   float64
}

// InputShapes returns both predecessor shapes.
func (l *Shortcut) InputShapes() []tensor.Shape { return []tensor.Shape{l.inShape, l.second} }

// Config implements Layer.
func (l *Shortcut) Config() Config { return &ShortcutConfig{Alpha: l.alpha, Beta: l.beta} }

func (l *Shortcut) pair(op string, ts []*tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	if len(ts) != 2 {
		return nil, nil, &LayerError{Layer: l.name(), Reason: fmt.Sprintf("%s: expects 2 tensors, got %d", op, len(ts))}
	}
	if err := l.check(op, l.inShape, ts[0]); err != nil {
		return nil, nil, err
	}
	if err := l.check(op, l.second, ts[1]); err != nil {
		return nil, nil, err
	}
	return ts[0], ts[1], nil
}

// overlap visits index pairs (first, second) of the common channels.
func (l *Shortcut) overlap(fn func(i, j int)) {
	ca, cb := l.inShape.Channels(), l.second.Channels()
	common := min(ca, cb)
	pixels := l.inShape.NumElements() / ca
	for p := 0; p < pixels; p++ {
		for c := 0; c < common; c++ {
			fn(p*ca+c, p*cb+c)
		}
	}
}

// Forward implements Layer.
func (l *Shortcut) Forward(inputs ...*tensor.Tensor) error {
	a, b, err := l.pair("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()
	out := l.output.Data()
	for i, v := range a.Data() {
		out[i] = l.alpha * v
	}
	bd := b.Data()
	l.overlap(func(i, j int) { out[i] += l.beta * bd[j] })
	return nil
}

// Backward implements Layer.
func (l *Shortcut) Backward(upstream ...*tensor.Tensor) error {
	if err := l.fitted(); err != nil {
		return err
	}
	ua, ub, err := l.pair("backward", upstream)
	if err != nil {
		return err
	}
	if err := ua.AddScaled(l.alpha, l.delta); err != nil {
		return err
	}
	delta, dst := l.delta.Data(), ub.Data()
	l.overlap(func(i, j int) { dst[j] += l.beta * delta[i] })
	return nil
}

func (l *Shortcut) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), fmt.Sprintf("c=%d+%d", l.inShape.Channels(), l.second.Channels()), l.inShape, l.outShape)
}
