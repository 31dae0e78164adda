// Package nn implements the layers of the graphnet execution engine.
//
// Every layer satisfies the Layer contract:
//   - Forward validates the input shape, computes Output, caches whatever
//     Backward needs and resets Delta to zeros.
//   - Backward consumes the accumulated Delta and adds this layer's
//     contribution into the upstream (predecessor) delta buffers in place.
//     It never overwrites: a layer feeding several consumers receives one
//     contribution per consumer.
//
// Layers are built in two phases. A Config carries the constructor
// parameters of one Kind; Config.Bind fixes the input shape(s) from the
// predecessors and returns the bound Layer.
//
// Layers holding trainable parameters additionally implement Parametric,
// which the weight codec detects with a type assertion.
package nn

import (
	"github.com/born-ml/graphnet/internal/tensor"
)

// AllAxes selects the whole tensor for axis-aware layers.
const AllAxes = tensor.AllAxes

// AlongAxis returns an axis setting for L1NormConfig and L2NormConfig.
func AlongAxis(axis int) *int { return &axis }

// normAxis resolves an optional axis setting; nil selects AllAxes.
func normAxis(kind Kind, axis *int) (int, error) {
	if axis == nil {
		return AllAxes, nil
	}
	if !tensor.ValidAxis(*axis) {
		return 0, &ValueError{Layer: kind.String(), Param: "axis", Value: *axis, Want: "0..3 or AllAxes"}
	}
	return *axis, nil
}

func configAxis(axis int) *int {
	if axis == AllAxes {
		return nil
	}
	return AlongAxis(axis)
}

// Layer is the contract every graph node implements.
type Layer interface {
	// Kind returns the layer type.
	Kind() Kind

	// Config returns the parameters the layer was built from.
	Config() Config

	// InputShape returns the declared shape of the (primary) input.
	InputShape() tensor.Shape

	// OutShape returns the output shape, known from binding time.
	OutShape() tensor.Shape

	// Forward computes Output from the predecessor outputs. Chain layers take
	// exactly one input; route and shortcut take one per predecessor.
	Forward(inputs ...*tensor.Tensor) error

	// Backward adds this layer's gradient contribution into the upstream
	// delta buffers, one per predecessor, in binding order.
	Backward(upstream ...*tensor.Tensor) error

	// Output returns the tensor produced by the last Forward, or nil.
	Output() *tensor.Tensor

	// Delta returns the accumulated gradient buffer shaped like Output, or nil
	// before the first Forward.
	Delta() *tensor.Tensor

	// String returns the one-line size trace used by summaries.
	String() string
}

// Config holds the constructor parameters of one layer kind.
type Config interface {
	// Kind returns the layer type this configuration builds.
	Kind() Kind

	// Bind validates the predecessor output shapes and returns the bound layer.
	Bind(inputs ...tensor.Shape) (Layer, error)
}

// Parametric is implemented by layers with trainable parameters.
//
// Parameters are ordered bias first, then weights, then any secondary
// weights; the weight stream and snapshots preserve this order.
type Parametric interface {
	Layer

	// Parameters returns the trainable parameters in stream order.
	Parameters() []*Parameter

	// LoadWeights copies the layer's parameters from buf starting at offset
	// and returns the offset just past them.
	LoadWeights(buf []float32, offset int) (int, error)

	// SaveWeights returns the layer's parameters flattened in stream order.
	SaveWeights() []float32
}

// base carries the bookkeeping shared by every layer.
type base struct {
	kind     Kind
	inShape  tensor.Shape
	outShape tensor.Shape
	output   *tensor.Tensor
	delta    *tensor.Tensor
}

func (b *base) Kind() Kind               { return b.kind }
func (b *base) InputShape() tensor.Shape { return b.inShape }
func (b *base) OutShape() tensor.Shape   { return b.outShape }
func (b *base) Output() *tensor.Tensor   { return b.output }
func (b *base) Delta() *tensor.Tensor    { return b.delta }
func (b *base) name() string             { return b.kind.String() }

// check validates t against want for operation op.
func (b *base) check(op string, want tensor.Shape, t *tensor.Tensor) error {
	if t == nil {
		return &ValueError{Layer: b.name(), Param: op, Value: nil, Want: "a tensor"}
	}
	if t.Shape() != want {
		return &ShapeMismatchError{Layer: b.name(), Op: op, Want: want, Got: t.Shape()}
	}
	return nil
}

// single unpacks the only input of a chain layer and validates it.
func (b *base) single(op string, ts []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(ts) != 1 {
		return nil, &LayerError{Layer: b.name(), Reason: op + ": expects exactly 1 tensor"}
	}
	if err := b.check(op, b.inShape, ts[0]); err != nil {
		return nil, err
	}
	return ts[0], nil
}

// reset prepares output and delta for a new forward pass, reusing buffers.
func (b *base) reset() {
	b.output = tensor.EnsureZeros(b.output, b.outShape)
	b.delta = tensor.EnsureZeros(b.delta, b.outShape)
}

// fitted returns NotFittedError when no forward pass completed yet.
func (b *base) fitted() error {
	if b.delta == nil || b.output == nil {
		return &NotFittedError{Layer: b.name()}
	}
	return nil
}

// backwardSingle performs the common preamble of a chain layer's Backward.
func (b *base) backwardSingle(upstream []*tensor.Tensor) (*tensor.Tensor, error) {
	if err := b.fitted(); err != nil {
		return nil, err
	}
	return b.single("backward", upstream)
}

// bindSingle validates that a chain layer has exactly one valid predecessor.
func bindSingle(kind Kind, inputs []tensor.Shape) (tensor.Shape, error) {
	if len(inputs) != 1 {
		return tensor.Shape{}, &LayerError{Layer: kind.String(), Reason: "expects exactly 1 predecessor"}
	}
	if err := inputs[0].Validate(); err != nil {
		return tensor.Shape{}, &ValueError{Layer: kind.String(), Param: "input_shape", Value: inputs[0], Want: "positive dimensions"}
	}
	return inputs[0], nil
}
