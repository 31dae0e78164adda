// Package weights reads and writes the flat binary weight stream.
//
// Layout, little-endian:
//
//	int32 major, int32 minor, int32 revision
//	float32 ... (every parametric layer in graph order; per layer bias,
//	            then weights, then secondary weights)
//
// No per-layer length is stored. Each layer's element count follows from its
// shape, so the stream only makes sense for a graph with the same topology as
// the one that wrote it. Decoding fails fast when the stream is shorter or
// longer than the graph requires instead of silently desynchronizing.
package weights

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/graphnet/internal/nn"
)

// Errors reported when the stream does not fit the graph.
var (
	ErrShortStream  = errors.New("weight stream too short for network")
	ErrTrailingData = errors.New("weight stream has data past the last layer")
)

// Version is the 3-integer stream header.
type Version struct {
	Major    int32
	Minor    int32
	Revision int32
}

// Current is the version written by Encode.
var Current = Version{Major: 1, Minor: 0, Revision: 0}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Encode writes the version header followed by body.
func Encode(w io.Writer, v Version, body []float32) error {
	if err := binary.Write(w, binary.LittleEndian, [3]int32{v.Major, v.Minor, v.Revision}); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	buf := make([]byte, 4*len(body))
	for i, f := range body {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return nil
}

// Decode reads a whole stream. The version is returned as found; it is not
// checked against Current.
func Decode(r io.Reader) (Version, []float32, error) {
	var hdr [3]int32
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Version{}, nil, fmt.Errorf("%w: failed to read version: %v", ErrShortStream, err)
	}
	v := Version{Major: hdr[0], Minor: hdr[1], Revision: hdr[2]}

	raw, err := io.ReadAll(r)
	if err != nil {
		return v, nil, fmt.Errorf("failed to read weights: %w", err)
	}
	if len(raw)%4 != 0 {
		return v, nil, fmt.Errorf("%w: %d trailing bytes do not form a float32", ErrShortStream, len(raw)%4)
	}
	body := make([]float32, len(raw)/4)
	for i := range body {
		body[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return v, body, nil
}

// Count returns the number of stream elements the layers consume.
func Count(layers []nn.Parametric) int {
	n := 0
	for _, l := range layers {
		for _, p := range l.Parameters() {
			n += p.Len()
		}
	}
	return n
}

// Collect concatenates the parameters of layers in order.
func Collect(layers []nn.Parametric) []float32 {
	body := make([]float32, 0, Count(layers))
	for _, l := range layers {
		body = append(body, l.SaveWeights()...)
	}
	return body
}

// Distribute hands body to layers in order, threading a running offset. The
// size is checked against the layers before any parameter is touched.
func Distribute(layers []nn.Parametric, body []float32) error {
	need := Count(layers)
	switch {
	case len(body) < need:
		return fmt.Errorf("%w: need %d values, have %d", ErrShortStream, need, len(body))
	case len(body) > need:
		return fmt.Errorf("%w: need %d values, have %d", ErrTrailingData, need, len(body))
	}

	off := 0
	for i, l := range layers {
		next, err := l.LoadWeights(body, off)
		if err != nil {
			return fmt.Errorf("parametric layer %d (%s): %w", i, l.Kind(), err)
		}
		off = next
	}
	return nil
}

// Write encodes the parameters of layers with the Current version.
func Write(w io.Writer, layers []nn.Parametric) error {
	return Encode(w, Current, Collect(layers))
}

// Read decodes a stream into layers.
func Read(r io.Reader, layers []nn.Parametric) (Version, error) {
	v, body, err := Decode(r)
	if err != nil {
		return v, err
	}
	return v, Distribute(layers, body)
}

// Save writes the parameters of layers to path.
func Save(path string, layers []nn.Parametric) error {
	//nolint:gosec // G304: path comes from the caller
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}
	if err := Write(f, layers); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Load reads the parameters of layers from path.
func Load(path string, layers []nn.Parametric) (Version, error) {
	//nolint:gosec // G304: path comes from the caller
	f, err := os.Open(path)
	if err != nil {
		return Version{}, fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()
	return Read(f, layers)
}
