package latent

import (
	"fmt"
	"math"
	"sort"
)

// BlendFunc combines two same-shaped tensors with a blend factor t.
// Factor 0 leans toward a, factor 1 toward b; interpretation of factors
// outside [0, 1] is mode-specific. Implementations never mutate their
// inputs.
type BlendFunc func(a, b *Tensor, t float64) *Tensor

// blendModes is the registry of named blend functions.
var blendModes = map[string]BlendFunc{
	"lerp":        blendLerp,
	"cosinterp":   blendCosinterp,
	"cuberp":      blendCuberp,
	"inject":      blendInject,
	"lineardodge": blendLinearDodge,
	"colorize":    blendColorize,
	"slerp":       blendSlerp,
	"hslerp":      blendHSlerp,
}

// BlendMode looks up a blend function by name.
func BlendMode(name string) (BlendFunc, error) {
	fn, ok := blendModes[name]
	if !ok {
		return nil, fmt.Errorf("unknown blend mode %q (known: %s)", name, BlendModeNames())
	}
	return fn, nil
}

// BlendModeNames returns the sorted registry keys, comma separated.
func BlendModeNames() string {
	names := make([]string, 0, len(blendModes))
	for name := range blendModes {
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

// blendLerp is plain linear interpolation. Factors 0 and 1 return exact
// copies of a and b so that full-strength blends are bit-identical to the
// chosen branch.
func blendLerp(a, b *Tensor, t float64) *Tensor {
	if t == 0 {
		return a.Clone()
	}
	if t == 1 {
		return b.Clone()
	}
	out := a.Clone()
	for i, av := range a.data {
		out.data[i] = float32(float64(av) + (float64(b.data[i])-float64(av))*t)
	}
	return out
}

// blendCosinterp eases the blend factor along a half cosine.
func blendCosinterp(a, b *Tensor, t float64) *Tensor {
	return blendLerp(a, b, (1-math.Cos(t*math.Pi))/2)
}

// blendCuberp eases the blend factor with the smoothstep cubic.
func blendCuberp(a, b *Tensor, t float64) *Tensor {
	return blendLerp(a, b, t*t*(3-2*t))
}

// blendInject adds b scaled by the factor on top of a.
func blendInject(a, b *Tensor, t float64) *Tensor {
	out := a.Clone()
	for i := range out.data {
		out.data[i] += float32(float64(b.data[i]) * t)
	}
	return out
}

// blendLinearDodge adds b scaled by the factor, then renormalizes each
// batch item back into a's value range so the additive blend does not
// blow up activation magnitudes.
func blendLinearDodge(a, b *Tensor, t float64) *Tensor {
	out := blendInject(a, b, t)
	per := a.c * a.h * a.w
	for n := 0; n < a.n; n++ {
		base := n * per
		aMin, aMax := minMaxRange(a.data[base : base+per])
		oMin, oMax := minMaxRange(out.data[base : base+per])
		span := oMax - oMin
		if span == 0 {
			continue
		}
		scale := (aMax - aMin) / span
		for i := base; i < base+per; i++ {
			out.data[i] = (out.data[i]-oMin)*scale + aMin
		}
	}
	return out
}

// minMaxRange returns the extremes of a slice.
func minMaxRange(data []float32) (min, max float32) {
	min, max = data[0], data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// blendColorize matches b's per-channel statistics to a's before
// interpolating, transferring b's structure while keeping a's channel
// distribution.
func blendColorize(a, b *Tensor, t float64) *Tensor {
	adjusted := b.Clone()
	matchChannelStats(adjusted, a)
	return blendLerp(a, adjusted, t)
}

// blendSlerp spherically interpolates the flattened tensors as one vector
// pair per batch item.
func blendSlerp(a, b *Tensor, t float64) *Tensor {
	out := a.Clone()
	per := a.c * a.h * a.w
	v0 := make([]float64, per)
	v1 := make([]float64, per)
	for n := 0; n < a.n; n++ {
		base := n * per
		for i := 0; i < per; i++ {
			v0[i] = float64(a.data[base+i])
			v1[i] = float64(b.data[base+i])
		}
		sv := slerpVec(v0, v1, t, false)
		for i := 0; i < per; i++ {
			out.data[base+i] = float32(sv[i])
		}
	}
	return out
}

// blendHSlerp averages the spherical and linear interpolations.
func blendHSlerp(a, b *Tensor, t float64) *Tensor {
	s := blendSlerp(a, b, t)
	l := blendLerp(a, b, t)
	for i := range s.data {
		s.data[i] = (s.data[i] + l.data[i]) / 2
	}
	return s
}
