package serialization

import (
	"errors"
	"fmt"
)

// Sentinel errors. Structural problems are wrapped in a *ValidationError so
// errors.Is still matches the sentinel.
var (
	ErrInvalidMagic       = errors.New("not a graphnet model file")
	ErrUnsupportedVersion = errors.New("model format version not supported")
	ErrHeaderTooLarge     = errors.New("model header too large")
	ErrChecksumMismatch   = errors.New("parameter data checksum mismatch")

	ErrInvalidLayer      = errors.New("bad layer record")
	ErrInvalidTensor     = errors.New("bad tensor record")
	ErrInvalidTensorName = errors.New("bad tensor name")
	ErrTooManyTensors    = errors.New("tensor count over limit")
	ErrNegativeOffset    = errors.New("negative tensor offset or size")
	ErrOutOfBounds       = errors.New("tensor past end of data section")
	ErrOffsetOverlap     = errors.New("tensor regions overlap")
)

// ValidationError locates a structural problem in a model header.
type ValidationError struct {
	Err     error
	Layer   int    // -1 unless the problem is in a layer record
	Tensor  string // offending tensor, if any
	Other   string // second tensor of an overlap
	Details string
}

func (e *ValidationError) Error() string {
	where := ""
	switch {
	case e.Other != "":
		where = fmt.Sprintf(" (%s, %s)", e.Tensor, e.Other)
	case e.Tensor != "":
		where = fmt.Sprintf(" (%s)", e.Tensor)
	case e.Layer >= 0:
		where = fmt.Sprintf(" (layer %d)", e.Layer)
	}
	return fmt.Sprintf("%v%s: %s", e.Err, where, e.Details)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func tensorErr(err error, name, format string, args ...any) *ValidationError {
	return &ValidationError{Err: err, Layer: -1, Tensor: name, Details: fmt.Sprintf(format, args...)}
}
