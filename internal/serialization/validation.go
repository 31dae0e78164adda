package serialization

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Limits applied to untrusted model files.
const (
	MaxHeaderSize    = 64 << 20
	MaxTensorCount   = 1 << 16
	MaxTensorNameLen = 256
)

// ValidationLevel selects how much of a header is checked on read.
type ValidationLevel int

const (
	// ValidationStrict checks layer records, tensor records and data layout.
	ValidationStrict ValidationLevel = iota
	// ValidationNormal skips the data layout check.
	ValidationNormal
	// ValidationNone trusts the file.
	ValidationNone
)

// ValidateTensorOffsets reports tensors that overlap or run past dataSize.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return tensorErr(ErrTooManyTensors, "", "%d tensors, limit %d", len(tensors), MaxTensorCount)
	}
	byOffset := slices.Clone(tensors)
	slices.SortFunc(byOffset, func(a, b TensorMeta) int { return cmp.Compare(a.Offset, b.Offset) })

	var prev *TensorMeta
	for i := range byOffset {
		t := &byOffset[i]
		end := t.Offset + t.Size
		switch {
		case t.Offset < 0 || t.Size < 0:
			return tensorErr(ErrNegativeOffset, t.Name, "offset %d size %d", t.Offset, t.Size)
		case end > dataSize:
			return tensorErr(ErrOutOfBounds, t.Name, "ends at %d, data section is %d bytes", end, dataSize)
		case prev != nil && prev.Offset+prev.Size > t.Offset:
			e := tensorErr(ErrOffsetOverlap, prev.Name, "[%d,%d) and [%d,%d)",
				prev.Offset, prev.Offset+prev.Size, t.Offset, end)
			e.Other = t.Name
			return e
		}
		prev = t
	}
	return nil
}

// ValidateTensorName accepts the names the writer produces: non-empty,
// bounded, printable and free of path syntax.
func ValidateTensorName(name string) error {
	var why string
	switch {
	case name == "":
		why = "empty"
	case len(name) > MaxTensorNameLen:
		why = fmt.Sprintf("%d bytes, limit %d", len(name), MaxTensorNameLen)
	case strings.Contains(name, ".."), strings.ContainsAny(name, `/\`):
		why = "looks like a path"
	case strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 || r == 0x7f }):
		why = "control character"
	default:
		return nil
	}
	return tensorErr(ErrInvalidTensorName, name, "%s", why)
}

// ValidateTensor checks dtype, shape and that Size covers exactly the shape.
func ValidateTensor(t TensorMeta) error {
	if t.DType != DTypeFloat64 {
		return tensorErr(ErrInvalidTensor, t.Name, "dtype %q", t.DType)
	}
	if slices.ContainsFunc(t.Shape, func(d int) bool { return d <= 0 }) {
		return tensorErr(ErrInvalidTensor, t.Name, "shape %v", t.Shape)
	}
	if want := int64(NumElements(t.Shape)) * 8; t.Size != want {
		return tensorErr(ErrInvalidTensor, t.Name, "%d bytes for shape %v, want %d", t.Size, t.Shape, want)
	}
	return nil
}

// ValidateLayers checks that records are numbered in graph order and only
// reference earlier layers.
func ValidateLayers(layers []LayerRecord) error {
	for i, rec := range layers {
		var why string
		switch {
		case rec.Index != i:
			why = fmt.Sprintf("index %d out of order", rec.Index)
		case rec.Kind == "":
			why = "missing kind"
		case i == 0 && len(rec.From) != 0:
			why = "input layer has predecessors"
		default:
			for _, f := range rec.From {
				if f < 0 || f >= i {
					why = fmt.Sprintf("predecessor %d is not an earlier layer", f)
					break
				}
			}
		}
		if why != "" {
			return &ValidationError{Err: ErrInvalidLayer, Layer: i, Details: why}
		}
	}
	return nil
}

// ValidateHeader checks h against a data section of dataSize bytes.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if err := ValidateLayers(h.Layers); err != nil {
		return err
	}

	tensors := h.Tensors()
	if len(tensors) > MaxTensorCount {
		return tensorErr(ErrTooManyTensors, "", "%d tensors, limit %d", len(tensors), MaxTensorCount)
	}
	seen := make(map[string]struct{}, len(tensors))
	for _, t := range tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if _, dup := seen[t.Name]; dup {
			return tensorErr(ErrInvalidTensorName, t.Name, "duplicate")
		}
		seen[t.Name] = struct{}{}
		if err := ValidateTensor(t); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		return ValidateTensorOffsets(tensors, dataSize)
	}
	return nil
}
