package latent

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"sync"
)

// FilterPresets maps preset names to radial band-gain lists. A filter is
// a list of gains; each frequency bin's normalized radius (0 = DC,
// 1 = corner) indexes into the list with linear interpolation between
// neighboring bands.
var FilterPresets = map[string][]float32{
	"none":          {1},
	"passthrough":   {1},
	"lowpass":       {1, 1, 0.75, 0.25, 0, 0, 0, 0},
	"highpass":      {0, 0, 0.25, 0.75, 1, 1, 1, 1},
	"bandpass":      {0, 0.5, 1, 1, 0.5, 0, 0, 0},
	"gaussianblur":  {1, 0.8825, 0.6065, 0.3247, 0.1353, 0.0439, 0.0111, 0.0022},
	"edge":          {0, 0.25, 0.5, 1, 1.5, 2, 2, 2},
	"sharpen":       {1, 1, 1.15, 1.35, 1.6, 1.85, 2, 2},
	"multilowpass":  {1, 0, 0, 1, 0, 0, 1, 0},
	"multihighpass": {0, 1, 0, 0, 1, 0, 0, 1},
	"all":           {1, 1, 1, 1, 1, 1, 1, 1},
}

// FilterPreset looks up a preset band-gain list by name.
func FilterPreset(name string) ([]float32, error) {
	gains, ok := FilterPresets[name]
	if !ok {
		return nil, fmt.Errorf("unknown filter preset %q (known: %s)", name, FilterPresetNames())
	}
	return gains, nil
}

// FilterPresetNames returns the sorted preset names, comma separated.
func FilterPresetNames() string {
	names := make([]string, 0, len(FilterPresets))
	for name := range FilterPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// FFilter applies a frequency-domain filter to each channel plane.
//
// The spectrum is computed with a 2-D DFT. Two scalings compose per bin:
// a centered low-frequency box of Chebyshev half-extent threshold bins is
// multiplied by scale (the classic backbone-feature trick), and every bin
// is multiplied by the gain interpolated from gains at its normalized
// radius. strength interpolates the whole effect: 0 leaves the tensor
// unchanged, 1 applies it fully.
func FFilter(t *Tensor, threshold int, scale float64, gains []float32, strength float64) (*Tensor, error) {
	if len(gains) == 0 {
		return nil, fmt.Errorf("empty filter gain list")
	}
	if threshold < 0 {
		return nil, fmt.Errorf("negative filter threshold %d", threshold)
	}
	out := t.Clone()
	if strength == 0 {
		return out, nil
	}
	h, w := t.h, t.w
	rowFw := dftTwiddles(w, false)
	rowBw := dftTwiddles(w, true)
	colFw := dftTwiddles(h, false)
	colBw := dftTwiddles(h, true)
	plane := make([]complex128, h*w)
	scratch := make([]complex128, h*w)
	for n := 0; n < t.n; n++ {
		for c := 0; c < t.c; c++ {
			base := (n*t.c + c) * h * w
			for i := 0; i < h*w; i++ {
				plane[i] = complex(float64(t.data[base+i]), 0)
			}
			dft2(plane, scratch, h, w, rowFw, colFw)
			applyBinGains(plane, h, w, threshold, scale, gains, strength)
			dft2(plane, scratch, h, w, rowBw, colBw)
			// Inverse needs 1/(H*W) normalization.
			norm := 1 / float64(h*w)
			for i := 0; i < h*w; i++ {
				out.data[base+i] = float32(real(plane[i]) * norm)
			}
		}
	}
	return out, nil
}

// applyBinGains multiplies each spectrum bin by its composed gain.
func applyBinGains(plane []complex128, h, w, threshold int, scale float64, gains []float32, strength float64) {
	maxFy := float64(h / 2)
	maxFx := float64(w / 2)
	if maxFy == 0 {
		maxFy = 1
	}
	if maxFx == 0 {
		maxFx = 1
	}
	for y := 0; y < h; y++ {
		fy := y
		if fy > h/2 {
			fy -= h
		}
		for x := 0; x < w; x++ {
			fx := x
			if fx > w/2 {
				fx -= w
			}
			gain := radialGain(float64(fy)/maxFy, float64(fx)/maxFx, gains)
			if abs(fy) < threshold && abs(fx) < threshold {
				gain *= scale
			}
			// Interpolate between identity and the filtered gain.
			eff := 1 + (gain-1)*strength
			plane[y*w+x] *= complex(eff, 0)
		}
	}
}

// radialGain interpolates the band-gain list at the bin's normalized
// radius. ny and nx are the per-axis normalized frequencies in [-1, 1].
func radialGain(ny, nx float64, gains []float32) float64 {
	if len(gains) == 1 {
		return float64(gains[0])
	}
	r := math.Sqrt(ny*ny+nx*nx) / math.Sqrt2
	if r > 1 {
		r = 1
	}
	pos := r * float64(len(gains)-1)
	i := int(pos)
	if i >= len(gains)-1 {
		return float64(gains[len(gains)-1])
	}
	frac := pos - float64(i)
	return float64(gains[i]) + (float64(gains[i+1])-float64(gains[i]))*frac
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// twiddleCache holds per-size DFT coefficient tables. Tables are tiny for
// latent-sized planes and shared across evaluations.
var twiddleCache = struct {
	sync.Mutex
	tables map[int][]complex128
}{tables: make(map[int][]complex128)}

// dftTwiddles returns the N x N coefficient table e^(±2πi·jk/N).
// Forward transforms use the negative exponent.
func dftTwiddles(n int, inverse bool) []complex128 {
	key := n
	if inverse {
		key = -n
	}
	twiddleCache.Lock()
	defer twiddleCache.Unlock()
	if tab, ok := twiddleCache.tables[key]; ok {
		return tab
	}
	sign := -1.0
	if inverse {
		sign = 1.0
	}
	tab := make([]complex128, n*n)
	for j := 0; j < n; j++ {
		for k := 0; k < n; k++ {
			tab[j*n+k] = cmplx.Exp(complex(0, sign*2*math.Pi*float64(j*k)/float64(n)))
		}
	}
	twiddleCache.tables[key] = tab
	return tab
}

// dft2 transforms plane in place using precomputed row and column
// twiddle tables. scratch must have the same length as plane.
func dft2(plane, scratch []complex128, h, w int, rowTab, colTab []complex128) {
	// Rows.
	for y := 0; y < h; y++ {
		row := plane[y*w : (y+1)*w]
		for k := 0; k < w; k++ {
			var acc complex128
			for j := 0; j < w; j++ {
				acc += row[j] * rowTab[k*w+j]
			}
			scratch[y*w+k] = acc
		}
	}
	// Columns.
	for x := 0; x < w; x++ {
		for k := 0; k < h; k++ {
			var acc complex128
			for j := 0; j < h; j++ {
				acc += scratch[j*w+x] * colTab[k*h+j]
			}
			plane[k*w+x] = acc
		}
	}
}
