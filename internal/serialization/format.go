package serialization

import (
	"crypto/sha256"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Format constants.
const (
	MagicBytes      = "GNET"
	FormatVersion   = 1
	HeaderAlignment = 64   // Tensor data starts on a 64-byte boundary
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// DTypeFloat64 is the only tensor data type snapshots carry.
const DTypeFloat64 = "float64"

// FlagHasMetadata is set when the header carries custom metadata.
const FlagHasMetadata uint32 = 1 << 0

// Header is the JSON header of a snapshot.
type Header struct {
	FormatVersion int               `json:"format_version"`
	SnapshotID    uuid.UUID         `json:"snapshot_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Batch         int               `json:"batch"`
	InputShape    [4]int            `json:"input_shape"`
	Layers        []LayerRecord     `json:"layers"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// LayerRecord describes one graph node. Index 0 is the input layer.
type LayerRecord struct {
	Index       int             `json:"index"`
	Kind        string          `json:"kind"`
	From        []int           `json:"from,omitempty"` // absolute predecessor indices
	InputShape  [4]int          `json:"input_shape"`
	OutputShape [4]int          `json:"output_shape"`
	Config      json.RawMessage `json:"config"` // kind-specific parameters
	Tensors     []TensorMeta    `json:"tensors,omitempty"`
}

// TensorMeta locates a parameter tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "layer.3.weights"
	DType  string `json:"dtype"`  // always float64
	Shape  []int  `json:"shape"`  // logical shape
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// Snapshot is a decoded snapshot: the header and the tensor values by name.
type Snapshot struct {
	Header Header
	Data   map[string][]float64
}

// Tensors returns every tensor of every layer in file order.
func (h *Header) Tensors() []TensorMeta {
	var out []TensorMeta
	for _, rec := range h.Layers {
		out = append(out, rec.Tensors...)
	}
	return out
}

// NumElements returns the product of the dimensions of shape.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func checksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// alignment returns the padding that follows a header of headerSize bytes.
func alignment(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}
