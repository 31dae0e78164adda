package network

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graphnet/internal/nn"
	"github.com/born-ml/graphnet/internal/tensor"
)

func newNet(t *testing.T, batch int, shape ...int) *Network {
	t.Helper()
	n, err := New(batch, shape)
	require.NoError(t, err)
	return n
}

func TestNew(t *testing.T) {
	n := newNet(t, 2, 4, 5, 3)
	assert.Equal(t, 1, n.NumLayers())
	assert.Equal(t, 2, n.Batch())
	assert.Equal(t, [3]int{4, 5, 3}, n.InputShape())
	assert.Equal(t, [3]int{4, 5, 3}, n.OutShape())
	assert.Equal(t, nn.KindInput, n.Layer(0).Kind())

	_, err := New(1, []int{4, 4})
	assert.ErrorIs(t, err, nn.ErrValue)
	_, err = New(0, []int{4, 4, 3})
	assert.ErrorIs(t, err, nn.ErrValue)
	_, err = New(1, []int{4, 0, 3})
	assert.ErrorIs(t, err, nn.ErrValue)
}

func TestAdd_InputRules(t *testing.T) {
	n := newNet(t, 1)
	err := n.Add(&nn.ActivationConfig{})
	assert.ErrorIs(t, err, nn.ErrLayer)

	require.NoError(t, n.Add(&nn.InputConfig{Shape: tensor.Shape{1, 2, 2, 1}}))
	err = n.Add(&nn.InputConfig{Shape: tensor.Shape{1, 2, 2, 1}})
	assert.ErrorIs(t, err, nn.ErrLayer)
	assert.Equal(t, 1, n.NumLayers())

	m := newNet(t, 2)
	err = m.Add(&nn.InputConfig{Shape: tensor.Shape{1, 2, 2, 1}})
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
	assert.ErrorIs(t, n.Add(nil), nn.ErrLayer)
}

func TestAdd_Topology(t *testing.T) {
	n := newNet(t, 1, 4, 4, 2)
	require.NoError(t, n.Add(&nn.ConvolutionalConfig{Filters: 3, Size: 1, Stride: 1}))
	require.NoError(t, n.Add(&nn.ConvolutionalConfig{Filters: 5, Size: 1, Stride: 1}))

	tests := []struct {
		name string
		cfg  nn.Config
		from []int
		want error
	}{
		{"forward reference", &nn.ActivationConfig{}, []int{3}, nn.ErrLayer},
		{"far negative", &nn.ActivationConfig{}, []int{-4}, nn.ErrLayer},
		{"chain with two", &nn.ActivationConfig{}, []int{1, 2}, nn.ErrLayer},
		{"shortcut with three", &nn.ShortcutConfig{Alpha: 1, Beta: 1}, []int{0, 1, 2}, nn.ErrLayer},
		{"route over earlier layers", &nn.RouteConfig{}, []int{0, 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := n.NumLayers()
			err := n.Add(tt.cfg, tt.from...)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, n.NumLayers(), "failed Add must not append")
		})
	}
}

func TestAdd_RouteChannelSum(t *testing.T) {
	n := newNet(t, 1, 4, 4, 2)
	require.NoError(t, n.Add(&nn.ConvolutionalConfig{Filters: 3, Size: 1, Stride: 1}))
	require.NoError(t, n.Add(&nn.ConvolutionalConfig{Filters: 5, Size: 1, Stride: 1}))
	require.NoError(t, n.Add(&nn.RouteConfig{}, 0, 1, -1))

	assert.Equal(t, [3]int{4, 4, 10}, n.OutShape())
	assert.Equal(t, []int{0, 1, 2}, n.Predecessors(3))

	// Spatial mismatch leaves the graph unchanged.
	require.NoError(t, n.Add(&nn.MaxpoolConfig{Size: 2, Stride: 2, Padding: 0}))
	err := n.Add(&nn.RouteConfig{}, -1, 0)
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
	assert.Equal(t, 5, n.NumLayers())
}

func TestShortcutScenario(t *testing.T) {
	n := newNet(t, 1, 3, 3, 2)
	require.NoError(t, n.Add(&nn.ActivationConfig{Function: nn.Linear})) // L1
	require.NoError(t, n.Add(&nn.ActivationConfig{Function: nn.Linear})) // L2
	require.NoError(t, n.Add(&nn.ShortcutConfig{Alpha: 1, Beta: 1}, 1, 2))

	x := tensor.Zeros(tensor.Shape{1, 3, 3, 2})
	for i := range x.Data() {
		x.Data()[i] = float64(i) - 4
	}
	out, err := n.Forward(x)
	require.NoError(t, err)

	l1, l2 := n.Layer(1), n.Layer(2)
	for i, v := range out.Data() {
		assert.InDelta(t, l1.Output().Data()[i]+l2.Output().Data()[i], v, 1e-12)
	}

	require.NoError(t, n.Layer(3).Backward(l1.Delta(), l2.Delta()))
	for i := range l1.Delta().Data() {
		assert.Zero(t, l1.Delta().Data()[i], "delta stays zero while the shortcut's own delta is zero")
	}

	// Full pass: the shortcut hands the ones to L1 and L2; L2 adds its copy
	// into L1 again.
	_, err = n.Forward(x)
	require.NoError(t, err)
	require.NoError(t, n.Backward(tensor.Ones(out.Shape())))
	for i := range l1.Delta().Data() {
		assert.InDelta(t, 1.0, l2.Delta().Data()[i], 1e-12)
		assert.InDelta(t, 2.0, l1.Delta().Data()[i], 1e-12)
		assert.InDelta(t, 2.0, n.Layer(0).Delta().Data()[i], 1e-12)
	}
}

func TestAddZeroValueConfigs(t *testing.T) {
	shape := tensor.Shape{2, 1, 1, 2}
	x := tensor.Full(shape, 3)

	// Shortcut: plain sum of two predecessors.
	n := newNet(t, 2, 1, 1, 2)
	require.NoError(t, n.Add(&nn.ActivationConfig{}))
	require.NoError(t, n.Add(&nn.ActivationConfig{}))
	require.NoError(t, n.Add(&nn.ShortcutConfig{}, 1, 2))
	out, err := n.Forward(x)
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.InDelta(t, 6.0, v, 1e-12)
	}

	// L2Norm: the whole tensor is one vector, 3/sqrt(4*9).
	n = newNet(t, 2, 1, 1, 2)
	require.NoError(t, n.Add(&nn.L2NormConfig{}))
	out, err = n.Forward(x)
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.InDelta(t, 0.5, v, 1e-9)
	}

	// L1Norm: same axis default, 3/(4*3).
	n = newNet(t, 2, 1, 1, 2)
	require.NoError(t, n.Add(&nn.L1NormConfig{}))
	out, err = n.Forward(x)
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.InDelta(t, 0.25, v, 1e-9)
	}

	// Upsample: unscaled nearest neighbour copies.
	n = newNet(t, 1, 1, 1, 1)
	require.NoError(t, n.Add(&nn.UpsampleConfig{Stride: 2}))
	out, err = n.Forward(tensor.Full(tensor.Shape{1, 1, 1, 1}, 5))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 2, 1}, out.Shape())
	assert.Equal(t, []float64{5, 5, 5, 5}, out.Data())
}

func TestShortcutRelativeFrom(t *testing.T) {
	n := newNet(t, 1, 2, 2, 1)
	require.NoError(t, n.Add(&nn.ActivationConfig{}))
	require.NoError(t, n.Add(&nn.ActivationConfig{}))
	require.NoError(t, n.Add(&nn.ShortcutConfig{Alpha: 1, Beta: 1}, -3))
	assert.Equal(t, []int{2, 0}, n.Predecessors(3))
}

func TestL2NormScenario(t *testing.T) {
	n := newNet(t, 1, 4, 4, 2)
	require.NoError(t, n.Add(&nn.L2NormConfig{Axis: nn.AlongAxis(tensor.AxisChannels)}))

	out, err := n.Forward(tensor.Ones(tensor.Shape{1, 4, 4, 2}))
	require.NoError(t, err)
	inv := 1 / math.Sqrt(2+1e-8)
	for _, v := range out.Data() {
		assert.InDelta(t, inv, v, 1e-9)
	}

	require.NoError(t, n.Backward(tensor.Ones(out.Shape())))
	norm, ok := n.Layer(1).(*nn.L2Norm)
	require.True(t, ok)
	scale := (1 - inv) * inv
	for i, v := range norm.Scales().Data() {
		assert.InDelta(t, 0.2071, v, 1e-4)
		assert.InDelta(t, 1+scale, norm.Delta().Data()[i], 1e-9)
		assert.InDelta(t, 1+scale, n.Layer(0).Delta().Data()[i], 1e-9)
	}
}

func TestForwardBackwardErrors(t *testing.T) {
	n := newNet(t, 1, 2, 2, 1)
	require.NoError(t, n.Add(&nn.ActivationConfig{Function: nn.ReLU}))

	err := n.Backward(tensor.Ones(tensor.Shape{1, 2, 2, 1}))
	assert.ErrorIs(t, err, nn.ErrNotFitted)

	_, err = n.Forward(tensor.Ones(tensor.Shape{1, 2, 2, 2}))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = n.Forward(tensor.Ones(tensor.Shape{1, 2, 2, 1}))
	require.NoError(t, err)
	err = n.Backward(tensor.Ones(tensor.Shape{1, 1, 2, 1}))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
	err = n.Backward(nil)
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	empty := newNet(t, 1)
	_, err = empty.Forward(tensor.Ones(tensor.Shape{1, 1, 1, 1}))
	assert.ErrorIs(t, err, nn.ErrLayer)
	assert.Nil(t, empty.Output())
	assert.Equal(t, [3]int{}, empty.OutShape())
}

func TestDeltaResetEachForward(t *testing.T) {
	n := newNet(t, 1, 2, 2, 1)
	require.NoError(t, n.Add(&nn.ActivationConfig{}))
	x := tensor.Ones(tensor.Shape{1, 2, 2, 1})
	for range 2 {
		_, err := n.Forward(x)
		require.NoError(t, err)
		require.NoError(t, n.Backward(tensor.Ones(x.Shape())))
		assert.InDelta(t, 1.0, n.Layer(0).Delta().At(0, 1, 1, 0), 1e-12)
	}
}

func TestAll(t *testing.T) {
	n := newNet(t, 1, 2, 2, 1)
	require.NoError(t, n.Add(&nn.ActivationConfig{}))
	require.NoError(t, n.Add(&nn.LogisticConfig{}))
	require.NoError(t, n.Add(&nn.SoftmaxConfig{Temperature: 1}))

	var kinds []nn.Kind
	var idx []int
	for i, l := range n.All() {
		idx = append(idx, i)
		kinds = append(kinds, l.Kind())
	}
	assert.Equal(t, []int{1, 2, 3}, idx)
	assert.Equal(t, []nn.Kind{nn.KindActivation, nn.KindLogistic, nn.KindSoftmax}, kinds)

	for i := range n.All() {
		if i == 2 {
			break
		}
	}
	assert.Nil(t, n.Layer(9))
	assert.Nil(t, n.Predecessors(-1))
}

func TestSummary(t *testing.T) {
	n := newNet(t, 1, 4, 4, 2)
	require.NoError(t, n.Add(&nn.ConvolutionalConfig{Filters: 3, Size: 3, Stride: 1, Pad: 1, Activation: nn.Leaky}))
	require.NoError(t, n.Add(&nn.RouteConfig{}, 0, 1))

	var buf bytes.Buffer
	require.NoError(t, n.Summary(&buf))
	out := buf.String()
	assert.Contains(t, out, "convolutional")
	assert.Contains(t, out, "from [0 1]")
	assert.Contains(t, out, "layers: 3  parameters: 57")
	assert.Equal(t, 5, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestWrappedErrors(t *testing.T) {
	n := newNet(t, 1, 2, 2, 1)
	err := n.Add(&nn.ConnectedConfig{Outputs: 0})
	var ve *nn.ValueError
	assert.True(t, errors.As(err, &ve))
}
