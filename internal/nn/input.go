package nn

import (
	"fmt"

	"github.com/born-ml/graphnet/internal/tensor"
)

// InputConfig describes the root placeholder layer that stamps the network's
// global (batch, width, height, channels).
type InputConfig struct {
	Shape tensor.Shape `json:"shape"`
}

// Kind implements Config.
func (c *InputConfig) Kind() Kind { return KindInput }

// Bind implements Config. The input layer has no predecessors.
func (c *InputConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	if len(inputs) != 0 {
		return nil, &LayerError{Layer: KindInput.String(), Reason: "input layer takes no predecessors"}
	}
	if err := c.Shape.Validate(); err != nil {
		return nil, &ValueError{Layer: KindInput.String(), Param: "input_shape", Value: c.Shape, Want: "4 positive dimensions"}
	}
	return &Input{base: base{kind: KindInput, inShape: c.Shape, outShape: c.Shape}}, nil
}

// Input is the graph root. Forward copies the network input, Backward is a
// no-op: its Delta ends up holding the gradient with respect to the input.
type Input struct {
	base
}

// NewInput builds an input layer for shape.
func NewInput(shape tensor.Shape) (*Input, error) {
	l, err := (&InputConfig{Shape: shape}).Bind()
	if err != nil {
		return nil, err
	}
	return l.(*Input), nil
}

// Config implements Layer.
func (l *Input) Config() Config { return &InputConfig{Shape: l.inShape} }

// Forward implements Layer.
func (l *Input) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()
	copy(l.output.Data(), in.Data())
	return nil
}

// Backward implements Layer.
func (l *Input) Backward(upstream ...*tensor.Tensor) error {
	if err := l.fitted(); err != nil {
		return err
	}
	if len(upstream) != 0 {
		return &LayerError{Layer: l.name(), Reason: "input layer has no upstream"}
	}
	return nil
}

func (l *Input) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", "input", "", l.inShape, l.outShape)
}
