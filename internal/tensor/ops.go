package tensor

import "fmt"

// SumAxis reduces along axis keeping dimensionality, so the result broadcasts
// back against t. AllAxes sums every element into a (1,1,1,1) tensor.
func (t *Tensor) SumAxis(axis int, f func(v float64) float64) *Tensor {
	rs := t.shape.Reduce(axis)
	out := Zeros(rs)
	for i, v := range t.data {
		if f != nil {
			v = f(v)
		}
		out.data[t.shape.BroadcastOffset(i, rs)] += v
	}
	return out
}

// ConcatChannels concatenates tensors along the channel axis.
// All inputs must agree on batch, width and height.
func ConcatChannels(ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("concat: no tensors")
	}
	first := ts[0].shape
	channels := 0
	for _, t := range ts {
		if !t.shape.SameSpatial(first) {
			return nil, fmt.Errorf("concat: shape %v incompatible with %v", t.shape, first)
		}
		channels += t.shape.Channels()
	}
	out := Zeros(first.WithChannels(channels))
	offset := 0
	for _, t := range ts {
		CopyChannels(out, t, offset)
		offset += t.shape.Channels()
	}
	return out, nil
}

// CopyChannels writes src into dst starting at channel dstOffset.
func CopyChannels(dst, src *Tensor, dstOffset int) {
	forChannels(dst, src, dstOffset, func(d *float64, s float64) { *d = s })
}

// AddChannels accumulates src into dst starting at channel dstOffset.
func AddChannels(dst, src *Tensor, dstOffset int) {
	forChannels(dst, src, dstOffset, func(d *float64, s float64) { *d += s })
}

// AddFromChannels accumulates channels [srcOffset, srcOffset+dst.C) of src into dst.
func AddFromChannels(dst, src *Tensor, srcOffset int) {
	dc, sc := dst.shape.Channels(), src.shape.Channels()
	if !dst.shape.SameSpatial(src.shape) || srcOffset+dc > sc {
		panic(fmt.Sprintf("channel window [%d,%d) of %v out of range for %v", srcOffset, srcOffset+dc, src.shape, dst.shape))
	}
	pixels := dst.Len() / dc
	for p := 0; p < pixels; p++ {
		d := dst.data[p*dc : (p+1)*dc]
		s := src.data[p*sc+srcOffset : p*sc+srcOffset+dc]
		for i := range d {
			d[i] += s[i]
		}
	}
}

// forChannels walks every pixel of the narrower tensor b and applies fn to the
// matching element of the wider tensor a at channel offset.
func forChannels(a, b *Tensor, offset int, fn func(a *float64, b float64)) {
	ac, bc := a.shape.Channels(), b.shape.Channels()
	if !a.shape.SameSpatial(b.shape) || offset+bc > ac {
		panic(fmt.Sprintf("channel window [%d,%d) of %v out of range for %v", offset, offset+bc, a.shape, b.shape))
	}
	pixels := b.Len() / bc
	for p := 0; p < pixels; p++ {
		row := a.data[p*ac+offset : p*ac+offset+bc]
		for i, v := range b.data[p*bc : (p+1)*bc] {
			fn(&row[i], v)
		}
	}
}
