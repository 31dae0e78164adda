package cfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyYAML = `
net:
  batch: 2
  width: 8
  height: 8
  channels: 3
layers:
  - type: convolutional
    filters: 4
    size: 3
    activation: leaky
  - type: route
    layers: [-1, 0]
  - type: softmax
    temperature: 0.5
  - type: dropout
    probability: "0.25"
`

func TestParseYAML(t *testing.T) {
	f, err := ParseYAML(strings.NewReader(tinyYAML))
	require.NoError(t, err)
	require.Len(t, f.Sections, 5)
	assert.Equal(t, "net1", f.Sections[0].Name)
	assert.Equal(t, "convolutional2", f.Sections[1].Name)

	h := f.Header()
	require.NotNil(t, h)
	w, err := h.Int("width", 416)
	require.NoError(t, err)
	assert.Equal(t, 8, w)

	layers := f.Layers()
	require.Len(t, layers, 4)
	assert.False(t, layers[0].Has("type"))

	from, err := layers[1].Ints("layers", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{-1, 0}, from)

	temp, err := layers[2].Float("temperature", 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, temp, 1e-12)

	// Quoted scalars stay strings.
	_, err = layers[3].Float("probability", 0)
	assert.ErrorIs(t, err, ErrDataVariable)
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not a mapping", "- a\n- b\n"},
		{"unknown key", "model: {}\n"},
		{"layers not sequence", "layers: {a: 1}\n"},
		{"layer without type", "layers:\n  - filters: 3\n"},
		{"nested list", "layers:\n  - type: route\n    layers: [[1]]\n"},
		{"bad literal", "layers:\n  - type: route\n    layers: a b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML(strings.NewReader(tt.text))
			assert.Error(t, err)
		})
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	f, err := ParseYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Sections)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tinyYAML), 0o600))
	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Layers(), 4)
}
