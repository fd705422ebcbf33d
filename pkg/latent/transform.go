package latent

import "fmt"

// Flip returns a copy of t reversed along the given axis
// (0=batch, 1=channels, 2=height, 3=width).
func Flip(t *Tensor, axis int) (*Tensor, error) {
	if axis < 0 || axis > 3 {
		return nil, fmt.Errorf("invalid flip axis %d", axis)
	}
	out := t.Clone()
	size := t.Dim(axis)
	for n := 0; n < t.n; n++ {
		for c := 0; c < t.c; c++ {
			for h := 0; h < t.h; h++ {
				for w := 0; w < t.w; w++ {
					idx := [4]int{n, c, h, w}
					idx[axis] = size - 1 - idx[axis]
					out.Set(n, c, h, w, t.At(idx[0], idx[1], idx[2], idx[3]))
				}
			}
		}
	}
	return out, nil
}

// Rot90 rotates the spatial plane by 90 degrees count times. Positive
// counts rotate from the width axis toward the height axis; negative
// counts rotate the other way. The result swaps height and width for
// odd counts.
func Rot90(t *Tensor, count int) *Tensor {
	k := ((count % 4) + 4) % 4
	if k == 0 {
		return t.Clone()
	}
	out := t
	for i := 0; i < k; i++ {
		out = rot90Once(out)
	}
	return out
}

// rot90Once performs a single rotation from width toward height:
// out[n, c, h, w] = in[n, c, H-1-w, h].
func rot90Once(t *Tensor) *Tensor {
	out := &Tensor{
		data: make([]float32, len(t.data)),
		n:    t.n,
		c:    t.c,
		h:    t.w,
		w:    t.h,
	}
	for n := 0; n < out.n; n++ {
		for c := 0; c < out.c; c++ {
			for h := 0; h < out.h; h++ {
				for w := 0; w < out.w; w++ {
					out.Set(n, c, h, w, t.At(n, c, t.h-1-w, h))
				}
			}
		}
	}
	return out
}

// Roll returns a copy of t with elements shifted by amount along each of
// the given axes, wrapping around. A positive amount shifts toward higher
// indexes, matching the usual circular-shift convention.
func Roll(t *Tensor, amount int, axes ...int) (*Tensor, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("roll requires at least one axis")
	}
	for _, axis := range axes {
		if axis < 0 || axis > 3 {
			return nil, fmt.Errorf("invalid roll axis %d", axis)
		}
	}
	out := t
	for _, axis := range axes {
		out = rollAxis(out, axis, amount)
	}
	return out, nil
}

// rollAxis shifts one axis by amount with wraparound.
func rollAxis(t *Tensor, axis, amount int) *Tensor {
	size := t.Dim(axis)
	shift := ((amount % size) + size) % size
	if shift == 0 {
		return t.Clone()
	}
	out := t.Clone()
	for n := 0; n < t.n; n++ {
		for c := 0; c < t.c; c++ {
			for h := 0; h < t.h; h++ {
				for w := 0; w < t.w; w++ {
					idx := [4]int{n, c, h, w}
					idx[axis] = (idx[axis] + shift) % size
					out.Set(idx[0], idx[1], idx[2], idx[3], t.At(n, c, h, w))
				}
			}
		}
	}
	return out
}

// HiddenMean computes the channel mean of t, then min-max normalizes it
// per batch item to the range [0, 1]. The result has shape (N, 1, H, W)
// and is used to modulate slice operations by where the activation mass
// sits spatially. A constant channel mean normalizes to all zeros.
func HiddenMean(t *Tensor) *Tensor {
	out := &Tensor{
		data: make([]float32, t.n*t.h*t.w),
		n:    t.n,
		c:    1,
		h:    t.h,
		w:    t.w,
	}
	plane := t.h * t.w
	for n := 0; n < t.n; n++ {
		base := n * plane
		// Mean across channels per spatial position.
		for h := 0; h < t.h; h++ {
			for w := 0; w < t.w; w++ {
				var sum float32
				for c := 0; c < t.c; c++ {
					sum += t.At(n, c, h, w)
				}
				out.data[base+h*t.w+w] = sum / float32(t.c)
			}
		}
		// Min-max normalize within the batch item.
		min, max := out.data[base], out.data[base]
		for i := 1; i < plane; i++ {
			v := out.data[base+i]
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		span := max - min
		if span == 0 {
			for i := 0; i < plane; i++ {
				out.data[base+i] = 0
			}
			continue
		}
		for i := 0; i < plane; i++ {
			out.data[base+i] = (out.data[base+i] - min) / span
		}
	}
	return out
}
