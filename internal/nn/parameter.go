package nn

import (
	"fmt"
)

// Parameter represents a trainable parameter of a layer.
//
// Values hold the parameter itself; Grad is the matching accumulator
// (bias_update, weights_update) that Backward adds into. An external optimizer
// consumes and clears Grad.
type Parameter struct {
	name   string    // Parameter name (e.g., "bias", "weights")
	shape  []int     // Logical shape, recorded in snapshots
	values []float64 // Parameter values
	grad   []float64 // Gradient accumulator
}

// NewParameter creates a zero-valued parameter with the given logical shape.
func NewParameter(name string, shape ...int) *Parameter {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Parameter{
		name:   name,
		shape:  append([]int(nil), shape...),
		values: make([]float64, n),
		grad:   make([]float64, n),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Shape returns the logical shape.
func (p *Parameter) Shape() []int { return p.shape }

// Len returns the number of elements.
func (p *Parameter) Len() int { return len(p.values) }

// Values returns the parameter buffer. Mutations are visible to the layer.
func (p *Parameter) Values() []float64 { return p.values }

// Grad returns the gradient accumulator.
func (p *Parameter) Grad() []float64 { return p.grad }

// ZeroGrad clears the gradient accumulator.
func (p *Parameter) ZeroGrad() { clear(p.grad) }

// Set copies values into the parameter. The length must match.
func (p *Parameter) Set(values []float64) error {
	if len(values) != len(p.values) {
		return fmt.Errorf("parameter %s: expected %d values, got %d", p.name, len(p.values), len(values))
	}
	copy(p.values, values)
	return nil
}

// loadParams reads params from buf in order starting at offset.
func loadParams(layer string, params []*Parameter, buf []float32, offset int) (int, error) {
	need := 0
	for _, p := range params {
		need += p.Len()
	}
	if offset < 0 || offset+need > len(buf) {
		return offset, fmt.Errorf("%s: weight buffer too short: need %d values at offset %d, have %d",
			layer, need, offset, len(buf))
	}
	for _, p := range params {
		for i := range p.values {
			p.values[i] = float64(buf[offset+i])
		}
		offset += p.Len()
	}
	return offset, nil
}

// saveParams flattens params in order.
func saveParams(params []*Parameter) []float32 {
	n := 0
	for _, p := range params {
		n += p.Len()
	}
	out := make([]float32, 0, n)
	for _, p := range params {
		for _, v := range p.values {
			out = append(out, float32(v))
		}
	}
	return out
}
