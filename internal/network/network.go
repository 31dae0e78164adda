// Package network wires nn layers into an acyclic graph and drives the
// forward and backward passes over it.
//
// Insertion order doubles as topological order: a layer may only reference
// layers added before it. Three connection patterns are supported:
//
//	chain     one predecessor (the previous layer unless stated otherwise)
//	route     an ordered list of predecessors, concatenated along channels
//	shortcut  exactly two predecessors, summed elementwise
//
// Index 0 is always the input layer, which stamps the global
// (batch, width, height, channels).
package network

import (
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"

	"github.com/born-ml/graphnet/internal/nn"
	"github.com/born-ml/graphnet/internal/parallel"
	"github.com/born-ml/graphnet/internal/tensor"
)

// Option configures a Network.
type Option func(*Network)

// WithLogger sets the logger used while building networks from
// configuration files. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Network) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithParallel sets how convolution and pooling kernels split their work.
func WithParallel(cfg parallel.Config) Option {
	return func(n *Network) {
		n.par = cfg
		n.hasPar = true
	}
}

// WithRand makes dropout masks reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(n *Network) { n.rng = rng }
}

// Network is an ordered graph of bound layers.
//
// A Network supports exactly one pass at a time; it is not safe for
// concurrent use.
type Network struct {
	batch  int
	layers []nn.Layer
	from   [][]int // absolute predecessor indices per layer

	logger *slog.Logger
	par    parallel.Config
	hasPar bool
	rng    *rand.Rand
}

// New creates a network for the given batch size. With shape = (w, h, c) the
// input layer is added immediately; with no shape the first Add must be an
// input layer (or Load provides one from the configuration header).
func New(batch int, shape []int, opts ...Option) (*Network, error) {
	if batch <= 0 {
		return nil, &nn.ValueError{Layer: "network", Param: "batch", Value: batch, Want: "> 0"}
	}
	n := &Network{batch: batch, logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}

	switch len(shape) {
	case 0:
		return n, nil
	case 3:
		in := tensor.Shape{batch, shape[0], shape[1], shape[2]}
		if err := n.Add(&nn.InputConfig{Shape: in}); err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, &nn.ValueError{Layer: "network", Param: "input_shape", Value: shape, Want: "(width, height, channels)"}
	}
}

// options returns the options that reproduce n's settings on a new network.
func (n *Network) options() []Option {
	opts := []Option{WithLogger(n.logger), WithRand(n.rng)}
	if n.hasPar {
		opts = append(opts, WithParallel(n.par))
	}
	return opts
}

// replace swaps n's graph for other's, keeping n's options.
func (n *Network) replace(other *Network) {
	n.batch = other.batch
	n.layers = other.layers
	n.from = other.from
}

// Add binds cfg to its predecessors and appends the resulting layer.
//
// Indices in from are absolute when >= 0 and relative to the current end when
// negative (-1 is the last layer). Without indices the predecessor is the
// last layer. A shortcut given a single index pairs it with the last layer.
// On error the network is left unchanged.
func (n *Network) Add(cfg nn.Config, from ...int) error {
	if cfg == nil {
		return &nn.LayerError{Layer: "network", Reason: "nil layer configuration"}
	}
	kind := cfg.Kind()

	if kind == nn.KindInput {
		if len(n.layers) != 0 {
			return &nn.LayerError{Layer: kind.String(), Reason: "input is only allowed as the first layer"}
		}
		if len(from) != 0 {
			return &nn.LayerError{Layer: kind.String(), Reason: "input layer takes no predecessors"}
		}
		layer, err := cfg.Bind()
		if err != nil {
			return err
		}
		if layer.InputShape().Batch() != n.batch {
			return &nn.ShapeMismatchError{Layer: kind.String(), Op: "add",
				Want: tensor.Shape{n.batch, layer.InputShape()[1], layer.InputShape()[2], layer.InputShape()[3]},
				Got:  layer.InputShape()}
		}
		n.append(layer, nil)
		return nil
	}
	if len(n.layers) == 0 {
		return &nn.LayerError{Layer: kind.String(), Reason: "network has no input layer"}
	}

	if len(from) == 0 {
		from = []int{-1}
	}
	if kind == nn.KindShortcut && len(from) == 1 {
		from = []int{-1, from[0]}
	}

	preds, err := n.resolve(kind, from)
	if err != nil {
		return err
	}
	shapes := make([]tensor.Shape, len(preds))
	for i, p := range preds {
		shapes[i] = n.layers[p].OutShape()
	}

	layer, err := cfg.Bind(shapes...)
	if err != nil {
		return fmt.Errorf("layer %d: %w", len(n.layers), err)
	}
	n.append(layer, preds)
	return nil
}

// resolve turns user indices into absolute predecessor indices.
func (n *Network) resolve(kind nn.Kind, from []int) ([]int, error) {
	switch kind {
	case nn.KindRoute:
	case nn.KindShortcut:
		if len(from) != 2 {
			return nil, &nn.LayerError{Layer: kind.String(), Reason: fmt.Sprintf("expects exactly 2 predecessors, got %d", len(from))}
		}
	default:
		if len(from) != 1 {
			return nil, &nn.LayerError{Layer: kind.String(), Reason: fmt.Sprintf("expects exactly 1 predecessor, got %d", len(from))}
		}
	}

	size := len(n.layers)
	preds := make([]int, len(from))
	for i, f := range from {
		abs := f
		if f < 0 {
			abs = size + f
		}
		if abs < 0 || abs >= size {
			return nil, &nn.LayerError{Layer: kind.String(),
				Reason: fmt.Sprintf("predecessor %d out of range for a network of %d layers", f, size)}
		}
		preds[i] = abs
	}
	return preds, nil
}

func (n *Network) append(layer nn.Layer, preds []int) {
	if n.hasPar {
		if p, ok := layer.(interface{ SetParallel(parallel.Config) }); ok {
			p.SetParallel(n.par)
		}
	}
	if n.rng != nil {
		if d, ok := layer.(*nn.Dropout); ok {
			d.SetRand(n.rng)
		}
	}
	n.layers = append(n.layers, layer)
	n.from = append(n.from, preds)
}

// Forward feeds input through every layer in graph order and returns the
// output of the last layer.
func (n *Network) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(n.layers) == 0 {
		return nil, &nn.LayerError{Layer: "network", Reason: "no layers"}
	}
	if err := n.layers[0].Forward(input); err != nil {
		return nil, fmt.Errorf("layer 0: %w", err)
	}

	for i := 1; i < len(n.layers); i++ {
		preds := n.from[i]
		ins := make([]*tensor.Tensor, len(preds))
		for j, p := range preds {
			ins[j] = n.layers[p].Output()
		}
		if err := n.layers[i].Forward(ins...); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return n.Output(), nil
}

// Backward adds topDelta into the last layer's delta and walks the graph in
// reverse, each layer adding its contribution into its predecessors' deltas.
// After Backward, the input layer's Delta holds the gradient with respect to
// the network input.
func (n *Network) Backward(topDelta *tensor.Tensor) error {
	if len(n.layers) == 0 {
		return &nn.LayerError{Layer: "network", Reason: "no layers"}
	}
	last := n.layers[len(n.layers)-1]
	if last.Delta() == nil {
		return &nn.NotFittedError{Layer: last.Kind().String()}
	}
	if topDelta == nil || topDelta.Shape() != last.OutShape() {
		var got tensor.Shape
		if topDelta != nil {
			got = topDelta.Shape()
		}
		return &nn.ShapeMismatchError{Layer: "network", Op: "backward", Want: last.OutShape(), Got: got}
	}
	if err := last.Delta().Add(topDelta); err != nil {
		return err
	}

	for i := len(n.layers) - 1; i > 0; i-- {
		preds := n.from[i]
		ups := make([]*tensor.Tensor, len(preds))
		for j, p := range preds {
			ups[j] = n.layers[p].Delta()
		}
		if err := n.layers[i].Backward(ups...); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// Output returns the last layer's output, or nil before Forward.
func (n *Network) Output() *tensor.Tensor {
	if len(n.layers) == 0 {
		return nil
	}
	return n.layers[len(n.layers)-1].Output()
}

// Layer returns the layer at index i (0 is the input layer), or nil.
func (n *Network) Layer(i int) nn.Layer {
	if i < 0 || i >= len(n.layers) {
		return nil
	}
	return n.layers[i]
}

// Predecessors returns the absolute predecessor indices of layer i.
func (n *Network) Predecessors(i int) []int {
	if i < 0 || i >= len(n.from) {
		return nil
	}
	return append([]int(nil), n.from[i]...)
}

// All iterates the layers after the input layer, with their indices.
func (n *Network) All() iter.Seq2[int, nn.Layer] {
	return func(yield func(int, nn.Layer) bool) {
		for i := 1; i < len(n.layers); i++ {
			if !yield(i, n.layers[i]) {
				return
			}
		}
	}
}

// NumLayers returns the number of layers, the input layer included.
func (n *Network) NumLayers() int { return len(n.layers) }

// Batch returns the batch size.
func (n *Network) Batch() int { return n.batch }

// InputShape returns (width, height, channels) of the input layer.
func (n *Network) InputShape() [3]int {
	if len(n.layers) == 0 {
		return [3]int{}
	}
	s := n.layers[0].InputShape()
	return [3]int{s.Width(), s.Height(), s.Channels()}
}

// OutShape returns (width, height, channels) of the last layer's output.
func (n *Network) OutShape() [3]int {
	if len(n.layers) == 0 {
		return [3]int{}
	}
	s := n.layers[len(n.layers)-1].OutShape()
	return [3]int{s.Width(), s.Height(), s.Channels()}
}

// parametric returns the layers carrying trainable parameters, in graph order.
func (n *Network) parametric() []nn.Parametric {
	var out []nn.Parametric
	for _, l := range n.layers {
		if p, ok := l.(nn.Parametric); ok {
			out = append(out, p)
		}
	}
	return out
}
