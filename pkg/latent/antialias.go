package latent

import "math"

// Antialias applies separable gaussian smoothing with kernel radius size
// to the spatial dimensions. Sizes below one return an unmodified copy.
// The kernel sigma grows with the size (size/3, clamped to at least 0.5)
// so larger sizes smooth more aggressively.
func Antialias(t *Tensor, size int) *Tensor {
	if size < 1 {
		return t.Clone()
	}
	kernel := gaussianKernel(size)
	out := convolveAxis(t, 3, kernel)
	return convolveAxis(out, 2, kernel)
}

// gaussianKernel builds a normalized 1-D gaussian of radius size
// (length 2*size+1).
func gaussianKernel(size int) []float64 {
	sigma := float64(size) / 3
	if sigma < 0.5 {
		sigma = 0.5
	}
	kernel := make([]float64, 2*size+1)
	var sum float64
	for i := range kernel {
		x := float64(i - size)
		kernel[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolveAxis convolves one spatial axis with the kernel, clamping at
// the edges.
func convolveAxis(t *Tensor, axis int, kernel []float64) *Tensor {
	inSize, orthoSize := axisGeometry(t, axis)
	radius := len(kernel) / 2
	out := newAxisResized(t, axis, inSize)
	for n := 0; n < t.n; n++ {
		for c := 0; c < t.c; c++ {
			for o := 0; o < orthoSize; o++ {
				for pos := 0; pos < inSize; pos++ {
					var acc float64
					for k, kw := range kernel {
						src := clampIdx(pos+k-radius, inSize)
						acc += kw * float64(axisAt(t, axis, n, c, src, o))
					}
					axisSet(out, axis, n, c, pos, o, float32(acc))
				}
			}
		}
	}
	return out
}
