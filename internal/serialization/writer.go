package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
)

// Write encodes a snapshot to w.
//
// Tensor offsets and sizes in h are (re)assigned from data, in layer order;
// every tensor named in h must be present in data with as many elements as
// its shape. A zero SnapshotID or CreatedAt is filled in.
func Write(w io.Writer, h Header, data map[string][]float64) error {
	h.FormatVersion = FormatVersion
	if h.SnapshotID == uuid.Nil {
		h.SnapshotID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}

	// Lay out tensors and collect their bytes.
	layers := make([]LayerRecord, len(h.Layers))
	var body []byte
	for i, rec := range h.Layers {
		rec.Tensors = append([]TensorMeta(nil), rec.Tensors...)
		for j := range rec.Tensors {
			meta := &rec.Tensors[j]
			values, ok := data[meta.Name]
			if !ok {
				return fmt.Errorf("tensor %s: no data", meta.Name)
			}
			if n := NumElements(meta.Shape); n != len(values) {
				return fmt.Errorf("tensor %s: shape %v holds %d values, got %d", meta.Name, meta.Shape, n, len(values))
			}
			meta.DType = DTypeFloat64
			meta.Offset = int64(len(body))
			meta.Size = int64(8 * len(values))
			for _, v := range values {
				body = binary.LittleEndian.AppendUint64(body, math.Float64bits(v))
			}
		}
		layers[i] = rec
	}
	h.Layers = layers

	if err := ValidateHeader(&h, int64(len(body)), ValidationStrict); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	headerJSON, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	var flags uint32
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(body)))
	sum := checksum(body)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], sum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}
	if pad := alignment(int64(len(headerJSON))); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// WriteFile encodes a snapshot to path.
func WriteFile(path string, h Header, data map[string][]float64) error {
	//nolint:gosec // G304: path comes from the caller
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(f, h, data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
