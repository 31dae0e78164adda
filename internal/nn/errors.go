package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/graphnet/internal/tensor"
)

// Sentinel errors matched with errors.Is.
var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrLayer         = errors.New("layer error")
	ErrNotFitted     = errors.New("layer not fitted")
	ErrValue         = errors.New("invalid value")
)

// ShapeMismatchError reports a tensor whose shape disagrees with the shape a
// layer declared for it.
type ShapeMismatchError struct {
	Layer string       // Layer kind (e.g., "l2norm")
	Op    string       // Operation that detected the mismatch ("forward", "backward", "bind")
	Want  tensor.Shape // Declared shape
	Got   tensor.Shape // Actual shape
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s %s: shape mismatch: expected (%s), got (%s)", e.Layer, e.Op, e.Want, e.Got)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

// LayerError reports an unknown layer kind or a malformed predecessor reference.
type LayerError struct {
	Layer  string // Layer kind or type key involved
	Reason string
}

// Error implements the error interface.
func (e *LayerError) Error() string {
	if e.Layer == "" {
		return "layer error: " + e.Reason
	}
	return fmt.Sprintf("layer %q: %s", e.Layer, e.Reason)
}

// Unwrap returns ErrLayer.
func (e *LayerError) Unwrap() error { return ErrLayer }

// NotFittedError reports a backward call on a layer that never ran forward.
type NotFittedError struct {
	Layer string
}

// Error implements the error interface.
func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s backward: layer not fitted, call forward first", e.Layer)
}

// Unwrap returns ErrNotFitted.
func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// ValueError reports a malformed constructor argument.
type ValueError struct {
	Layer string
	Param string
	Value any
	Want  string
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: parameter %q must be %s, got %v", e.Layer, e.Param, e.Want, e.Value)
}

// Unwrap returns ErrValue.
func (e *ValueError) Unwrap() error { return ErrValue }
