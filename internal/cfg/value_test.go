package cfg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind ValueKind
	}{
		{"int", "16", KindInt},
		{"negative int", "-1", KindInt},
		{"float", "0.005", KindFloat},
		{"exponent", "1e-3", KindFloat},
		{"leading dot", ".5", KindFloat},
		{"identifier", "leaky", KindString},
		{"double quoted", `"hello world"`, KindString},
		{"single quoted", `'abc'`, KindString},
		{"list", "-1, 8", KindFloats},
		{"float list", "0.5,1.5,2", KindFloats},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValue(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}
}

func TestParseValueRejects(t *testing.T) {
	for _, text := range []string{"", "  ", "1,abc", "__import__('os')", "3 + 4", `"open`} {
		_, err := ParseValue(text)
		assert.Error(t, err, "text %q", text)
	}
}

func TestValueAccessors(t *testing.T) {
	v, err := ParseValue("3")
	require.NoError(t, err)
	i, ok := v.Int()
	assert.True(t, ok)
	assert.Equal(t, 3, i)
	f, ok := v.Float()
	assert.True(t, ok)
	assert.InDelta(t, 3.0, f, 0)
	_, ok = v.Str()
	assert.False(t, ok)

	v, err = ParseValue("2.5")
	require.NoError(t, err)
	_, ok = v.Int()
	assert.False(t, ok)

	v, err = ParseValue("-1,8")
	require.NoError(t, err)
	ints, ok := v.Ints()
	assert.True(t, ok)
	assert.Equal(t, []int{-1, 8}, ints)

	v, err = ParseValue("-4")
	require.NoError(t, err)
	ints, ok = v.Ints()
	assert.True(t, ok)
	assert.Equal(t, []int{-4}, ints)

	v, err = ParseValue(`"relu"`)
	require.NoError(t, err)
	s, ok := v.Str()
	assert.True(t, ok)
	assert.Equal(t, "relu", s)
}

func TestValueBool(t *testing.T) {
	for text, want := range map[string]bool{"1": true, "0": false, "true": true, "off": false} {
		v, err := ParseValue(text)
		require.NoError(t, err)
		b, ok := v.Bool()
		require.True(t, ok, text)
		assert.Equal(t, want, b, text)
	}
	v, err := ParseValue("0.5")
	require.NoError(t, err)
	_, ok := v.Bool()
	assert.False(t, ok)
}

func TestDataVariableError(t *testing.T) {
	err := error(&DataVariableError{Section: "convolutional2", Key: "size", Value: "big", Line: 7, Reason: "expected integer, got string"})
	assert.True(t, errors.Is(err, ErrDataVariable))
	assert.Contains(t, err.Error(), "convolutional2 (line 7)")
	assert.Contains(t, err.Error(), "size")
}
