package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/graphnet/internal/tensor"
)

// SoftmaxConfig configures a per-pixel softmax over channels.
type SoftmaxConfig struct {
	Temperature float64 `json:"temperature"`
}

// Kind implements Config.
func (c *SoftmaxConfig) Kind() Kind { return KindSoftmax }

// Bind implements Config.
func (c *SoftmaxConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	if c.Temperature <= 0 {
		return nil, &ValueError{Layer: KindSoftmax.String(), Param: "temperature", Value: c.Temperature, Want: "> 0"}
	}
	in, err := bindSingle(KindSoftmax, inputs)
	if err != nil {
		return nil, err
	}
	return &Softmax{base: base{kind: KindSoftmax, inShape: in, outShape: in}, temperature: c.Temperature}, nil
}

// Softmax normalizes each pixel's channel vector into a distribution.
//
// Backward passes Delta through unchanged: the layer is meant to be paired
// with a cross-entropy delta (output - truth), whose combined Jacobian is the
// identity.
type Softmax struct {
	base
	temperature float64
}

// Config implements Layer.
func (l *Softmax) Config() Config { return &SoftmaxConfig{Temperature: l.temperature} }

// Forward implements Layer.
func (l *Softmax) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()

	c := l.inShape.Channels()
	x, out := in.Data(), l.output.Data()
	for p := 0; p < len(x); p += c {
		row, dst := x[p:p+c], out[p:p+c]
		largest := math.Inf(-1)
		for _, v := range row {
			largest = math.Max(largest, v)
		}
		sum := 0.0
		for i, v := range row {
			dst[i] = math.Exp((v - largest) / l.temperature)
			sum += dst[i]
		}
		for i := range dst {
			dst[i] /= sum
		}
	}
	return nil
}

// Backward implements Layer.
func (l *Softmax) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}
	return up.Add(l.delta)
}

func (l *Softmax) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), fmt.Sprintf("t = %.2f", l.temperature), l.inShape, l.outShape)
}
