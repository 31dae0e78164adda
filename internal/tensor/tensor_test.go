package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_OffsetCoordsRoundTrip(t *testing.T) {
	s := Shape{2, 3, 4, 5}
	for i := 0; i < s.NumElements(); i++ {
		b, x, y, c := s.Coords(i)
		assert.Equal(t, i, s.Offset(b, x, y, c))
	}
}

func TestShape_Validate(t *testing.T) {
	assert.NoError(t, Shape{1, 1, 1, 1}.Validate())
	assert.Error(t, Shape{1, 0, 1, 1}.Validate())
	assert.Error(t, Shape{1, 1, -2, 1}.Validate())
}

func TestShape_Reduce(t *testing.T) {
	s := Shape{2, 3, 4, 5}
	assert.Equal(t, Shape{2, 3, 4, 1}, s.Reduce(AxisChannels))
	assert.Equal(t, Shape{1, 3, 4, 5}, s.Reduce(AxisBatch))
	assert.Equal(t, Shape{1, 1, 1, 1}, s.Reduce(AllAxes))
}

func TestFromSlice_LengthMismatch(t *testing.T) {
	_, err := FromSlice(make([]float64, 3), Shape{1, 2, 2, 1})
	require.Error(t, err)
}

func TestSumAxis(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	x, err := FromSlice(data, Shape{1, 2, 2, 2})
	require.NoError(t, err)

	perPixel := x.SumAxis(AxisChannels, nil)
	assert.Equal(t, Shape{1, 2, 2, 1}, perPixel.Shape())
	assert.Equal(t, []float64{3, 7, 11, 15}, perPixel.Data())

	squares := x.SumAxis(AllAxes, func(v float64) float64 { return v * v })
	assert.Equal(t, []float64{204}, squares.Data())
}

func TestConcatChannels(t *testing.T) {
	a := Full(Shape{1, 2, 1, 1}, 1)
	b := Full(Shape{1, 2, 1, 2}, 2)

	out, err := ConcatChannels(a, b)
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 2, 1, 3}, out.Shape())
	assert.Equal(t, []float64{1, 2, 2, 1, 2, 2}, out.Data())

	_, err = ConcatChannels(a, Zeros(Shape{1, 3, 1, 1}))
	assert.Error(t, err)
}

func TestAddFromChannels(t *testing.T) {
	src, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{1, 2, 1, 3})
	require.NoError(t, err)
	dst := Ones(Shape{1, 2, 1, 2})

	AddFromChannels(dst, src, 1)
	assert.Equal(t, []float64{3, 4, 6, 7}, dst.Data())

	assert.Panics(t, func() { AddFromChannels(dst, src, 2) })
}

func TestAdd(t *testing.T) {
	a := Ones(Shape{1, 2, 2, 1})
	require.NoError(t, a.Add(Full(Shape{1, 2, 2, 1}, 2)))
	assert.Equal(t, 12.0, a.Sum())
	assert.Error(t, a.Add(Ones(Shape{1, 1, 2, 2})))
}

func TestEnsureZeros_ReusesBuffer(t *testing.T) {
	a := Ones(Shape{1, 2, 2, 1})
	b := EnsureZeros(a, Shape{1, 2, 2, 1})
	assert.Same(t, a, b)
	assert.Zero(t, b.Sum())

	c := EnsureZeros(a, Shape{1, 1, 1, 1})
	assert.NotSame(t, a, c)
}
