package cfg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyCfg = `# tiny network
[net]
batch=2
width=8
height=8
channels=3

[convolutional]
batch_normalize=1
filters=4
size=3
stride=1
pad=1
activation=leaky

; pooling
[maxpool]
size=2
stride=2

[route]
layers = -1, 1

[l2norm]
axis=-1
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(tinyCfg))
	require.NoError(t, err)
	require.Len(t, f.Sections, 5)

	names := make([]string, len(f.Sections))
	for i, s := range f.Sections {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"net1", "convolutional2", "maxpool3", "route4", "l2norm5"}, names)

	h := f.Header()
	require.NotNil(t, h)
	batch, err := h.Int("batch", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, batch)

	layers := f.Layers()
	require.Len(t, layers, 4)
	assert.Equal(t, "convolutional", layers[0].Type())
	act, err := layers[0].String("activation", "linear")
	require.NoError(t, err)
	assert.Equal(t, "leaky", act)
	bn, err := layers[0].Bool("batch_normalize", false)
	require.NoError(t, err)
	assert.True(t, bn)

	from, err := layers[2].Ints("layers", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{-1, 1}, from)

	axis, err := layers[3].Int("axis", 0)
	require.NoError(t, err)
	assert.Equal(t, -1, axis)
	assert.Equal(t, 24, layers[3].Line)
}

func TestParseDefaults(t *testing.T) {
	f, err := Parse(strings.NewReader("[dropout]\n"))
	require.NoError(t, err)
	assert.Nil(t, f.Header())
	s := f.Layers()[0]
	p, err := s.Float("probability", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 0)
	assert.False(t, s.Has("probability"))
}

func TestParseLastValueWins(t *testing.T) {
	f, err := Parse(strings.NewReader("[maxpool]\nsize=2\nsize=3\n"))
	require.NoError(t, err)
	size, err := f.Sections[0].Int("size", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"param outside section", "batch=1\n[net]\n"},
		{"malformed header", "[net\nbatch=1\n"},
		{"empty header", "[]\n"},
		{"missing equals", "[net]\nbatch\n"},
		{"bad literal", "[net]\nbatch=exec(1)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.text))
			assert.Error(t, err)
		})
	}
}

func TestParseBadLiteralIsDataVariableError(t *testing.T) {
	_, err := Parse(strings.NewReader("[net]\nwidth=4 4\n"))
	var dv *DataVariableError
	require.True(t, errors.As(err, &dv))
	assert.Equal(t, "net1", dv.Section)
	assert.Equal(t, "width", dv.Key)
	assert.Equal(t, 2, dv.Line)
}

func TestSectionKindMismatch(t *testing.T) {
	f, err := Parse(strings.NewReader("[convolutional]\nsize=big\n"))
	require.NoError(t, err)
	_, err = f.Sections[0].Int("size", 1)
	assert.ErrorIs(t, err, ErrDataVariable)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.cfg")
	require.NoError(t, os.WriteFile(path, []byte(tinyCfg), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Sections, 5)

	_, err = Load(filepath.Join(dir, "missing.cfg"))
	assert.Error(t, err)
}
