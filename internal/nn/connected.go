package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/graphnet/internal/tensor"
)

// ConnectedConfig configures a fully connected layer.
type ConnectedConfig struct {
	Outputs    int        `json:"output"`
	Activation Activation `json:"activation"`
}

// Kind implements Config.
func (c *ConnectedConfig) Kind() Kind { return KindConnected }

// Bind implements Config. Weights are initialized from U(-s, s) with
// s = sqrt(2/inputs); biases start at zero.
func (c *ConnectedConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	if c.Outputs <= 0 {
		return nil, &ValueError{Layer: KindConnected.String(), Param: "output", Value: c.Outputs, Want: "> 0"}
	}
	in, err := bindSingle(KindConnected, inputs)
	if err != nil {
		return nil, err
	}
	fanIn := in[1] * in[2] * in[3]
	l := &Connected{
		base:    base{kind: KindConnected, inShape: in, outShape: tensor.Shape{in[0], 1, 1, c.Outputs}},
		fn:      c.Activation,
		inputs:  fanIn,
		outputs: c.Outputs,
		bias:    NewParameter("bias", c.Outputs),
		weights: NewParameter("weights", fanIn, c.Outputs),
	}
	uniformInit(l.weights.values, heScale(fanIn))
	return l, nil
}

// Connected implements a fully connected (dense) layer:
//
//	output = f(x @ W + b)
//
// x is the input flattened to [batch, width*height*channels], W has shape
// [inputs, outputs] and b has shape [outputs].
type Connected struct {
	base
	fn      Activation
	inputs  int
	outputs int
	bias    *Parameter
	weights *Parameter
	input   *tensor.Tensor // cached for Backward
}

// Config implements Layer.
func (l *Connected) Config() Config {
	return &ConnectedConfig{Outputs: l.outputs, Activation: l.fn}
}

// Parameters implements Parametric.
func (l *Connected) Parameters() []*Parameter { return []*Parameter{l.bias, l.weights} }

// Bias returns the bias parameter.
func (l *Connected) Bias() *Parameter { return l.bias }

// Weights returns the weight parameter.
func (l *Connected) Weights() *Parameter { return l.weights }

// LoadWeights implements Parametric.
func (l *Connected) LoadWeights(buf []float32, offset int) (int, error) {
	return loadParams(l.name(), l.Parameters(), buf, offset)
}

// SaveWeights implements Parametric.
func (l *Connected) SaveWeights() []float32 { return saveParams(l.Parameters()) }

// Forward implements Layer.
func (l *Connected) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()
	l.input = in

	batch := l.inShape.Batch()
	x := mat.NewDense(batch, l.inputs, in.Data())
	w := mat.NewDense(l.inputs, l.outputs, l.weights.values)
	out := mat.NewDense(batch, l.outputs, l.output.Data())
	out.Mul(x, w)

	data := l.output.Data()
	for b := 0; b < batch; b++ {
		row := data[b*l.outputs : (b+1)*l.outputs]
		for j := range row {
			row[j] += l.bias.values[j]
		}
	}
	activate(l.fn, data)
	return nil
}

// Backward implements Layer. Gradients accumulate into the bias and weight
// accumulators and into upstream.
func (l *Connected) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}

	batch := l.inShape.Batch()
	dpre := make([]float64, l.delta.Len())
	gradientInto(l.fn, dpre, l.delta.Data(), l.output.Data())

	for b := 0; b < batch; b++ {
		for j := 0; j < l.outputs; j++ {
			l.bias.grad[j] += dpre[b*l.outputs+j]
		}
	}

	d := mat.NewDense(batch, l.outputs, dpre)
	x := mat.NewDense(batch, l.inputs, l.input.Data())
	w := mat.NewDense(l.inputs, l.outputs, l.weights.values)

	var dw mat.Dense
	dw.Mul(x.T(), d)
	g := mat.NewDense(l.inputs, l.outputs, l.weights.grad)
	g.Add(g, &dw)

	var dx mat.Dense
	dx.Mul(d, w.T())
	u := mat.NewDense(batch, l.inputs, up.Data())
	u.Add(u, &dx)
	return nil
}

func (l *Connected) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), fmt.Sprintf("%d %s", l.outputs, l.fn), l.inShape, l.outShape)
}
