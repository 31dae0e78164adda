package nn

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/graphnet/internal/parallel"
	"github.com/born-ml/graphnet/internal/tensor"
)

// randomTensor fills a tensor from U(-1, 1) with a fixed seed.
func randomTensor(shape tensor.Shape, seed uint64) *tensor.Tensor {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	t := tensor.Zeros(shape)
	for i := range t.Data() {
		t.Data()[i] = rng.Float64()*2 - 1
	}
	return t
}

// checkInputGradient compares Backward against central differences of the
// scalar loss sum(g * forward(x)) for a random upstream gradient g.
func checkInputGradient(t *testing.T, l Layer, x0 *tensor.Tensor, tol float64) {
	t.Helper()
	g := randomTensor(l.OutShape(), 99).Data()

	loss := func(x []float64) float64 {
		in, err := tensor.FromSlice(append([]float64(nil), x...), x0.Shape())
		require.NoError(t, err)
		require.NoError(t, l.Forward(in))
		return floats.Dot(g, l.Output().Data())
	}
	numeric := fd.Gradient(nil, loss, x0.Data(), &fd.Settings{Formula: fd.Central, Step: 1e-6})

	require.NoError(t, l.Forward(x0))
	copy(l.Delta().Data(), g)
	up := tensor.Zeros(x0.Shape())
	require.NoError(t, l.Backward(up))

	for i, want := range numeric {
		assert.InDelta(t, want, up.Data()[i], tol, "d/dx[%d]", i)
	}
}

// checkParamGradient does the same for one parameter of a parametric layer.
func checkParamGradient(t *testing.T, l Parametric, p *Parameter, x0 *tensor.Tensor, tol float64) {
	t.Helper()
	g := randomTensor(l.OutShape(), 42).Data()
	orig := append([]float64(nil), p.Values()...)

	loss := func(w []float64) float64 {
		require.NoError(t, p.Set(w))
		require.NoError(t, l.Forward(x0))
		return floats.Dot(g, l.Output().Data())
	}
	numeric := fd.Gradient(nil, loss, orig, &fd.Settings{Formula: fd.Central, Step: 1e-6})

	require.NoError(t, p.Set(orig))
	p.ZeroGrad()
	require.NoError(t, l.Forward(x0))
	copy(l.Delta().Data(), g)
	require.NoError(t, l.Backward(tensor.Zeros(x0.Shape())))

	for i, want := range numeric {
		assert.InDelta(t, want, p.Grad()[i], tol, "d/d%s[%d]", p.Name(), i)
	}
}

func bind(t *testing.T, cfg Config, inputs ...tensor.Shape) Layer {
	t.Helper()
	l, err := cfg.Bind(inputs...)
	require.NoError(t, err)
	return l
}

func TestGradient_Activations(t *testing.T) {
	shape := tensor.Shape{2, 2, 3, 2}
	for _, fn := range []Activation{Linear, ReLU, Leaky, Logistic, Tanh, ELU, Relie} {
		t.Run(fn.String(), func(t *testing.T) {
			l := bind(t, &ActivationConfig{Function: fn}, shape)
			checkInputGradient(t, l, randomTensor(shape, 1), 1e-5)
		})
	}
}

func TestGradient_BatchNorm(t *testing.T) {
	shape := tensor.Shape{2, 3, 2, 3}
	l := bind(t, &BatchNormConfig{}, shape)
	checkInputGradient(t, l, randomTensor(shape, 2), 1e-4)
}

func TestGradient_Connected(t *testing.T) {
	shape := tensor.Shape{3, 2, 2, 2}
	l := bind(t, &ConnectedConfig{Outputs: 4, Activation: Tanh}, shape).(*Connected)
	x := randomTensor(shape, 3)

	checkInputGradient(t, l, x, 1e-5)
	checkParamGradient(t, l, l.Weights(), x, 1e-5)
	checkParamGradient(t, l, l.Bias(), x, 1e-5)
}

func TestGradient_Convolutional(t *testing.T) {
	shape := tensor.Shape{2, 5, 4, 2}
	for _, cfg := range []ConvolutionalConfig{
		{Filters: 3, Size: 3, Stride: 1, Pad: 1, Activation: Logistic},
		{Filters: 2, Size: 2, Stride: 2, Pad: 0, Activation: Linear},
	} {
		l := bind(t, &cfg, shape).(*Convolutional)
		l.SetParallel(parallel.Config{Workers: 4, MinItems: 1})
		x := randomTensor(shape, 4)

		checkInputGradient(t, l, x, 1e-5)
		checkParamGradient(t, l, l.Weights(), x, 1e-5)
		checkParamGradient(t, l, l.Bias(), x, 1e-5)
	}
}

func TestGradient_Pooling(t *testing.T) {
	shape := tensor.Shape{1, 4, 4, 2}
	checkInputGradient(t, bind(t, &MaxpoolConfig{Size: 2, Stride: 2, Padding: -1}, shape), randomTensor(shape, 5), 1e-5)
	checkInputGradient(t, bind(t, &AvgpoolConfig{Size: 2, Stride: 2}, shape), randomTensor(shape, 6), 1e-5)
	checkInputGradient(t, bind(t, &AvgpoolConfig{}, shape), randomTensor(shape, 7), 1e-5)
}

func TestGradient_Shuffler(t *testing.T) {
	shape := tensor.Shape{2, 2, 3, 8}
	checkInputGradient(t, bind(t, &ShufflerConfig{Scale: 2}, shape), randomTensor(shape, 10), 1e-5)
}

func TestGradient_Upsample(t *testing.T) {
	shape := tensor.Shape{1, 4, 2, 2}
	checkInputGradient(t, bind(t, &UpsampleConfig{Stride: 2, Scale: 1.5}, shape), randomTensor(shape, 8), 1e-5)
	checkInputGradient(t, bind(t, &UpsampleConfig{Stride: -2, Scale: 1}, shape), randomTensor(shape, 9), 1e-5)
}
