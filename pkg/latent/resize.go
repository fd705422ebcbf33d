package latent

import (
	"fmt"
	"math"
	"sort"
)

// Mode names a resampling method for Resize. Basic modes resample each
// channel plane independently; the slerp family treats the channel vector
// at each spatial position as a unit of interpolation.
type Mode string

// Resampling modes. ModeSame is only meaningful as a height mode and
// resolves to the width mode.
const (
	ModeNearestExact Mode = "nearest-exact"
	ModeBilinear     Mode = "bilinear"
	ModeBicubic      Mode = "bicubic"
	ModeArea         Mode = "area"
	ModeSlerp        Mode = "slerp"
	ModeSlerpAlt     Mode = "slerp_alt"
	ModeHSlerp       Mode = "hslerp"
	ModeColorize     Mode = "colorize"
	ModeSame         Mode = "same"
)

// basicModes are the modes plain resize operations accept.
var basicModes = map[Mode]bool{
	ModeNearestExact: true,
	ModeBilinear:     true,
	ModeBicubic:      true,
	ModeArea:         true,
}

// extendedModes are the additional modes the extended resize operations accept.
var extendedModes = map[Mode]bool{
	ModeSlerp:    true,
	ModeSlerpAlt: true,
	ModeHSlerp:   true,
	ModeColorize: true,
}

// ParseMode validates a mode name. When extended is false only the basic
// modes are accepted.
func ParseMode(name string, extended bool) (Mode, error) {
	m := Mode(name)
	if basicModes[m] {
		return m, nil
	}
	if extended && extendedModes[m] {
		return m, nil
	}
	return "", fmt.Errorf("unknown resize mode %q (known: %s)", name, knownModes(extended))
}

// knownModes returns a comma-separated sorted list of accepted mode names.
func knownModes(extended bool) string {
	names := make([]string, 0, len(basicModes)+len(extendedModes))
	for m := range basicModes {
		names = append(names, string(m))
	}
	if extended {
		for m := range extendedModes {
			names = append(names, string(m))
		}
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

// Resize resamples t to outW x outH. The width and height axes may use
// different modes; ModeSame for modeH resolves to modeW. An antialiasSize
// greater than zero applies gaussian smoothing of that size to the result.
func Resize(t *Tensor, outW, outH int, modeW, modeH Mode, antialiasSize int) (*Tensor, error) {
	if outW <= 0 || outH <= 0 {
		return nil, fmt.Errorf("invalid resize target %dx%d", outW, outH)
	}
	if modeH == ModeSame {
		modeH = modeW
	}
	out := t
	var err error
	if out.h != outH {
		out, err = resampleAxis(out, 2, outH, modeH)
		if err != nil {
			return nil, err
		}
	}
	if out.w != outW {
		out, err = resampleAxis(out, 3, outW, modeW)
		if err != nil {
			return nil, err
		}
	}
	if out == t {
		out = t.Clone()
	}
	if antialiasSize > 0 {
		out = Antialias(out, antialiasSize)
	}
	return out, nil
}

// resampleAxis resamples one spatial axis (2=height, 3=width) to size out.
func resampleAxis(t *Tensor, axis, out int, mode Mode) (*Tensor, error) {
	switch mode {
	case ModeNearestExact:
		return scalarResample(t, axis, out, nearestTaps), nil
	case ModeBilinear:
		return scalarResample(t, axis, out, linearTaps), nil
	case ModeBicubic:
		return scalarResample(t, axis, out, cubicTaps), nil
	case ModeArea:
		return areaResample(t, axis, out), nil
	case ModeSlerp:
		return vectorResample(t, axis, out, false, 0), nil
	case ModeSlerpAlt:
		return vectorResample(t, axis, out, true, 0), nil
	case ModeHSlerp:
		return vectorResample(t, axis, out, false, 0.5), nil
	case ModeColorize:
		return colorizeResample(t, axis, out), nil
	default:
		return nil, fmt.Errorf("unknown resize mode %q", mode)
	}
}

// tap is one source sample contribution: index (pre-clamp) and weight.
type tap struct {
	idx    int
	weight float64
}

// tapsFunc computes the source taps for one output position. srcPos is the
// continuous source coordinate under half-pixel alignment.
type tapsFunc func(srcPos float64) []tap

// srcPosition maps an output index to a continuous source coordinate
// using half-pixel centers (align_corners=false convention).
func srcPosition(dst, inSize, outSize int) float64 {
	scale := float64(inSize) / float64(outSize)
	return (float64(dst)+0.5)*scale - 0.5
}

func nearestTaps(srcPos float64) []tap {
	return []tap{{idx: int(math.Floor(srcPos + 0.5)), weight: 1}}
}

func linearTaps(srcPos float64) []tap {
	i0 := int(math.Floor(srcPos))
	frac := srcPos - float64(i0)
	return []tap{
		{idx: i0, weight: 1 - frac},
		{idx: i0 + 1, weight: frac},
	}
}

// cubicTaps computes Catmull-Rom style weights with A=-0.75, the common
// convolution coefficient for bicubic image resampling.
func cubicTaps(srcPos float64) []tap {
	const a = -0.75
	i0 := int(math.Floor(srcPos))
	frac := srcPos - float64(i0)
	w := func(x float64) float64 {
		x = math.Abs(x)
		switch {
		case x <= 1:
			return ((a+2)*x-(a+3))*x*x + 1
		case x < 2:
			return (((x-5)*x+8)*x - 4) * a
		default:
			return 0
		}
	}
	return []tap{
		{idx: i0 - 1, weight: w(frac + 1)},
		{idx: i0, weight: w(frac)},
		{idx: i0 + 1, weight: w(1 - frac)},
		{idx: i0 + 2, weight: w(2 - frac)},
	}
}

// clampIdx clamps a tap index into [0, size).
func clampIdx(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

// axisGeometry returns iteration bounds for resampling: the resized axis
// size and the length of the orthogonal spatial axis.
func axisGeometry(t *Tensor, axis int) (inSize, orthoSize int) {
	if axis == 2 {
		return t.h, t.w
	}
	return t.w, t.h
}

// axisAt reads the element at position pos along the resampled axis and
// ortho along the other spatial axis.
func axisAt(t *Tensor, axis, n, c, pos, ortho int) float32 {
	if axis == 2 {
		return t.At(n, c, pos, ortho)
	}
	return t.At(n, c, ortho, pos)
}

// axisSet writes the element at position pos along the resampled axis.
func axisSet(t *Tensor, axis, n, c, pos, ortho int, v float32) {
	if axis == 2 {
		t.Set(n, c, pos, ortho, v)
	} else {
		t.Set(n, c, ortho, pos, v)
	}
}

// newAxisResized allocates the output tensor for a resample along axis.
func newAxisResized(t *Tensor, axis, out int) *Tensor {
	nh, nw := t.h, t.w
	if axis == 2 {
		nh = out
	} else {
		nw = out
	}
	return &Tensor{data: make([]float32, t.n*t.c*nh*nw), n: t.n, c: t.c, h: nh, w: nw}
}

// scalarResample resamples each channel plane independently with the
// given tap kernel. Out-of-range taps clamp to the edge.
func scalarResample(t *Tensor, axis, out int, taps tapsFunc) *Tensor {
	inSize, orthoSize := axisGeometry(t, axis)
	res := newAxisResized(t, axis, out)
	for dst := 0; dst < out; dst++ {
		tp := taps(srcPosition(dst, inSize, out))
		for n := 0; n < t.n; n++ {
			for c := 0; c < t.c; c++ {
				for o := 0; o < orthoSize; o++ {
					var acc float64
					for _, tap := range tp {
						acc += tap.weight * float64(axisAt(t, axis, n, c, clampIdx(tap.idx, inSize), o))
					}
					axisSet(res, axis, n, c, dst, o, float32(acc))
				}
			}
		}
	}
	return res
}

// areaResample averages adaptive source windows, the behavior of
// area-mode downscaling. For upscaling the windows degenerate to one or
// two samples, which matches adaptive average pooling.
func areaResample(t *Tensor, axis, out int) *Tensor {
	inSize, orthoSize := axisGeometry(t, axis)
	res := newAxisResized(t, axis, out)
	for dst := 0; dst < out; dst++ {
		start := dst * inSize / out
		end := ((dst+1)*inSize + out - 1) / out
		if end <= start {
			end = start + 1
		}
		for n := 0; n < t.n; n++ {
			for c := 0; c < t.c; c++ {
				for o := 0; o < orthoSize; o++ {
					var acc float64
					for i := start; i < end; i++ {
						acc += float64(axisAt(t, axis, n, c, i, o))
					}
					axisSet(res, axis, n, c, dst, o, float32(acc/float64(end-start)))
				}
			}
		}
	}
	return res
}

// vectorResample interpolates the channel vector at each spatial position
// spherically between the two neighboring source positions. altPath
// negates the second vector when the vectors point away from each other
// (shortest-path variant); lerpMix blends the spherical result with a
// plain linear interpolation (used by hslerp).
func vectorResample(t *Tensor, axis, out int, altPath bool, lerpMix float64) *Tensor {
	inSize, orthoSize := axisGeometry(t, axis)
	res := newAxisResized(t, axis, out)
	v0 := make([]float64, t.c)
	v1 := make([]float64, t.c)
	for dst := 0; dst < out; dst++ {
		srcPos := srcPosition(dst, inSize, out)
		i0 := int(math.Floor(srcPos))
		frac := srcPos - float64(i0)
		if i0 < 0 {
			i0, frac = 0, 0
		} else if i0 >= inSize-1 {
			i0, frac = inSize-1, 0
		}
		i1 := clampIdx(i0+1, inSize)
		for n := 0; n < t.n; n++ {
			for o := 0; o < orthoSize; o++ {
				for c := 0; c < t.c; c++ {
					v0[c] = float64(axisAt(t, axis, n, c, i0, o))
					v1[c] = float64(axisAt(t, axis, n, c, i1, o))
				}
				sv := slerpVec(v0, v1, frac, altPath)
				for c := 0; c < t.c; c++ {
					v := sv[c]
					if lerpMix > 0 {
						lin := v0[c] + (v1[c]-v0[c])*frac
						v = v*(1-lerpMix) + lin*lerpMix
					}
					axisSet(res, axis, n, c, dst, o, float32(v))
				}
			}
		}
	}
	return res
}

// slerpVec spherically interpolates between two channel vectors. Nearly
// colinear or degenerate vectors fall back to linear interpolation.
func slerpVec(v0, v1 []float64, t float64, altPath bool) []float64 {
	out := make([]float64, len(v0))
	var n0, n1, dot float64
	for i := range v0 {
		n0 += v0[i] * v0[i]
		n1 += v1[i] * v1[i]
		dot += v0[i] * v1[i]
	}
	n0, n1 = math.Sqrt(n0), math.Sqrt(n1)
	if n0 == 0 || n1 == 0 {
		for i := range v0 {
			out[i] = v0[i] + (v1[i]-v0[i])*t
		}
		return out
	}
	cos := dot / (n0 * n1)
	sign := 1.0
	if altPath && cos < 0 {
		cos = -cos
		sign = -1
	}
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	omega := math.Acos(cos)
	sinOmega := math.Sin(omega)
	if sinOmega < 1e-6 {
		for i := range v0 {
			out[i] = v0[i] + (sign*v1[i]-v0[i])*t
		}
		return out
	}
	w0 := math.Sin((1-t)*omega) / sinOmega
	w1 := math.Sin(t*omega) / sinOmega
	for i := range v0 {
		out[i] = w0*v0[i] + sign*w1*v1[i]
	}
	return out
}

// colorizeResample resamples with bilinear taps, then shifts each
// (batch, channel) plane's statistics to match a nearest-exact reference
// of the same size. Keeps the smoothness of bilinear while preserving the
// channel distribution of the source.
func colorizeResample(t *Tensor, axis, out int) *Tensor {
	res := scalarResample(t, axis, out, linearTaps)
	ref := scalarResample(t, axis, out, nearestTaps)
	matchChannelStats(res, ref)
	return res
}

// matchChannelStats rescales each (batch, channel) plane of dst in place
// so its mean and standard deviation match ref's.
func matchChannelStats(dst, ref *Tensor) {
	dMeans, dStds := channelStats(dst)
	rMeans, rStds := channelStats(ref)
	plane := dst.h * dst.w
	for nc := range dMeans {
		gain := 1.0
		if dStds[nc] > 1e-12 {
			gain = rStds[nc] / dStds[nc]
		}
		base := nc * plane
		for i := 0; i < plane; i++ {
			v := float64(dst.data[base+i])
			dst.data[base+i] = float32((v-dMeans[nc])*gain + rMeans[nc])
		}
	}
}
