package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/graphnet/internal/tensor"
)

// DropoutConfig configures a dropout layer.
type DropoutConfig struct {
	Probability float64 `json:"probability"`
}

// Kind implements Config.
func (c *DropoutConfig) Kind() Kind { return KindDropout }

// Bind implements Config.
func (c *DropoutConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	p := c.Probability
	if p < 0 || p > 1 {
		return nil, &ValueError{Layer: KindDropout.String(), Param: "probability", Value: p, Want: "in [0, 1]"}
	}
	in, err := bindSingle(KindDropout, inputs)
	if err != nil {
		return nil, err
	}
	scale := 1.0
	if p != 1 {
		scale = 1 / (1 - p)
	}
	return &Dropout{
		base:  base{kind: KindDropout, inShape: in, outShape: in},
		prob:  p,
		scale: scale,
	}, nil
}

// Dropout zeroes a random selection of inputs and rescales the survivors by
// 1/(1-p).
type Dropout struct {
	base
	prob  float64
	scale float64
	rng   *rand.Rand
	mask  []bool
}

// SetRand makes the dropout mask reproducible. A nil source restores the
// package-level generator.
func (l *Dropout) SetRand(rng *rand.Rand) { l.rng = rng }

// Probability returns the drop probability.
func (l *Dropout) Probability() float64 { return l.prob }

// Config implements Layer.
func (l *Dropout) Config() Config { return &DropoutConfig{Probability: l.prob} }

//nolint:gosec // masks are not security sensitive
func (l *Dropout) uniform() float64 {
	if l.rng != nil {
		return l.rng.Float64()
	}
	return rand.Float64()
}

// Forward implements Layer.
func (l *Dropout) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()
	if len(l.mask) != in.Len() {
		l.mask = make([]bool, in.Len())
	}
	out := l.output.Data()
	for i, v := range in.Data() {
		l.mask[i] = l.uniform() >= l.prob
		if l.mask[i] {
			out[i] = v * l.scale
		}
	}
	return nil
}

// Backward implements Layer: only the surviving positions receive gradient.
func (l *Dropout) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}
	dst, delta := up.Data(), l.delta.Data()
	for i, keep := range l.mask {
		if keep {
			dst[i] += delta[i] * l.scale
		}
	}
	return nil
}

func (l *Dropout) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), fmt.Sprintf("p = %.2f", l.prob), l.inShape, l.outShape)
}
