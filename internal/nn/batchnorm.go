package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/graphnet/internal/tensor"
)

// BatchNormConfig configures a parameter-free batch normalization layer.
type BatchNormConfig struct{}

// Kind implements Config.
func (c *BatchNormConfig) Kind() Kind { return KindBatchNorm }

// Bind implements Config.
func (c *BatchNormConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	in, err := bindSingle(KindBatchNorm, inputs)
	if err != nil {
		return nil, err
	}
	return &BatchNorm{base: base{kind: KindBatchNorm, inShape: in, outShape: in}}, nil
}

// BatchNorm standardizes every channel over the batch and spatial axes:
//
//	output = (x - mean_c) / sqrt(var_c + 1e-8)
//
// It is the layer appended after a section declaring batch_normalize.
type BatchNorm struct {
	base
	invStd []float64 // per channel, cached for Backward
}

// Config implements Layer.
func (l *BatchNorm) Config() Config { return &BatchNormConfig{} }

// Forward implements Layer.
func (l *BatchNorm) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()

	c := l.inShape.Channels()
	n := float64(in.Len() / c)
	mean := make([]float64, c)
	variance := make([]float64, c)
	x := in.Data()
	for i, v := range x {
		mean[i%c] += v
	}
	for ch := range mean {
		mean[ch] /= n
	}
	for i, v := range x {
		d := v - mean[i%c]
		variance[i%c] += d * d
	}

	if len(l.invStd) != c {
		l.invStd = make([]float64, c)
	}
	for ch := range variance {
		l.invStd[ch] = 1 / math.Sqrt(variance[ch]/n+normEpsilon)
	}

	out := l.output.Data()
	for i, v := range x {
		out[i] = (v - mean[i%c]) * l.invStd[i%c]
	}
	return nil
}

// Backward implements Layer:
//
//	dx = invStd/N * (N*dy - sum(dy) - xhat*sum(dy*xhat))
func (l *BatchNorm) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}

	c := l.inShape.Channels()
	n := float64(l.delta.Len() / c)
	sumDy := make([]float64, c)
	sumDyX := make([]float64, c)
	dy, xhat := l.delta.Data(), l.output.Data()
	for i := range dy {
		sumDy[i%c] += dy[i]
		sumDyX[i%c] += dy[i] * xhat[i]
	}

	dst := up.Data()
	for i := range dst {
		ch := i % c
		dst[i] += l.invStd[ch] / n * (n*dy[i] - sumDy[ch] - xhat[i]*sumDyX[ch])
	}
	return nil
}

func (l *BatchNorm) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), "", l.inShape, l.outShape)
}
