package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// ReaderOptions configures Read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Zero value is ValidationStrict
}

// Read decodes a snapshot from r.
func Read(r io.Reader, opts ReaderOptions) (*Snapshot, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, fixed[0:4], MagicBytes)
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, v, FormatVersion)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header JSON: %w", err)
	}
	var h Header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize bounded by MaxHeaderSize
	if pad := alignment(int64(headerSize)); pad > 0 {
		if _, err := io.CopyN(io.Discard, r, pad); err != nil {
			return nil, fmt.Errorf("failed to read padding: %w", err)
		}
	}

	// Read the data section without trusting dataSize for the allocation.
	body, err := io.ReadAll(io.LimitReader(r, int64(dataSize))) //nolint:gosec // G115: checked below
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if uint64(len(body)) != dataSize {
		return nil, fmt.Errorf("%w: data section has %d bytes, header says %d", ErrOutOfBounds, len(body), dataSize)
	}
	if !opts.SkipChecksumValidation && checksum(body) != stored {
		return nil, ErrChecksumMismatch
	}
	if err := ValidateHeader(&h, int64(len(body)), opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	snap := &Snapshot{Header: h, Data: make(map[string][]float64)}
	for _, meta := range h.Tensors() {
		if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > int64(len(body)) {
			return nil, tensorErr(ErrOutOfBounds, meta.Name, "outside data section")
		}
		raw := body[meta.Offset : meta.Offset+meta.Size]
		values := make([]float64, len(raw)/8)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
		}
		snap.Data[meta.Name] = values
	}
	return snap, nil
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string, opts ReaderOptions) (*Snapshot, error) {
	//nolint:gosec // G304: path comes from the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	snap, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
