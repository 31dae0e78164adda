package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/graphnet/internal/tensor"
)

// RouteConfig configures a channel concatenation of one or more earlier layers.
// The predecessor list itself is a graph concern and lives in the network.
type RouteConfig struct{}

// Kind implements Config.
func (c *RouteConfig) Kind() Kind { return KindRoute }

// Bind implements Config. Every predecessor must agree on batch, width and
// height; the output channel count is the sum of the inputs'.
func (c *RouteConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	if len(inputs) == 0 {
		return nil, &LayerError{Layer: KindRoute.String(), Reason: "expects at least 1 predecessor"}
	}
	channels := 0
	for _, s := range inputs {
		if !s.SameSpatial(inputs[0]) {
			return nil, &ShapeMismatchError{Layer: KindRoute.String(), Op: "bind",
				Want: inputs[0].WithChannels(s.Channels()), Got: s}
		}
		channels += s.Channels()
	}
	out := inputs[0].WithChannels(channels)
	return &Route{
		base:   base{kind: KindRoute, inShape: out, outShape: out},
		inputs: append([]tensor.Shape(nil), inputs...),
	}, nil
}

// Route concatenates its predecessors' outputs along the channel axis and
// splits Delta back into per-predecessor slices on Backward.
type Route struct {
	base
	inputs []tensor.Shape
}

// InputShapes returns the predecessor shapes in binding order.
func (l *Route) InputShapes() []tensor.Shape { return l.inputs }

// Config implements Layer.
func (l *Route) Config() Config { return &RouteConfig{} }

func (l *Route) checkAll(op string, ts []*tensor.Tensor) error {
	if len(ts) != len(l.inputs) {
		return &LayerError{Layer: l.name(), Reason: fmt.Sprintf("%s: expects %d tensors, got %d", op, len(l.inputs), len(ts))}
	}
	for i, t := range ts {
		if err := l.check(op, l.inputs[i], t); err != nil {
			return err
		}
	}
	return nil
}

// Forward implements Layer.
func (l *Route) Forward(inputs ...*tensor.Tensor) error {
	if err := l.checkAll("forward", inputs); err != nil {
		return err
	}
	l.reset()
	offset := 0
	for _, in := range inputs {
		tensor.CopyChannels(l.output, in, offset)
		offset += in.Shape().Channels()
	}
	return nil
}

// Backward implements Layer.
func (l *Route) Backward(upstream ...*tensor.Tensor) error {
	if err := l.fitted(); err != nil {
		return err
	}
	if err := l.checkAll("backward", upstream); err != nil {
		return err
	}
	offset := 0
	for _, up := range upstream {
		tensor.AddFromChannels(up, l.delta, offset)
		offset += up.Shape().Channels()
	}
	return nil
}

func (l *Route) String() string {
	parts := make([]string, len(l.inputs))
	for i, s := range l.inputs {
		parts[i] = fmt.Sprint(s.Channels())
	}
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), "c="+strings.Join(parts, "+"), l.inShape, l.outShape)
}
