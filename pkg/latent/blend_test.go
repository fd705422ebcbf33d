package latent

import (
	"math"
	"testing"
)

func TestBlendModeLookup(t *testing.T) {
	for _, name := range []string{"lerp", "cosinterp", "cuberp", "inject", "lineardodge", "colorize", "slerp", "hslerp"} {
		if _, err := BlendMode(name); err != nil {
			t.Errorf("BlendMode(%q) error = %v", name, err)
		}
	}
	if _, err := BlendMode("screen"); err == nil {
		t.Error("BlendMode(screen) expected error")
	}
}

func TestBlendLerpEndpoints(t *testing.T) {
	a, _ := Full(1, 2, 2, 2, 1)
	b, _ := Full(1, 2, 2, 2, 5)

	// Factor 1 must return b exactly, factor 0 must return a exactly.
	if got := blendLerp(a, b, 1); !got.Equal(b) {
		t.Error("lerp(a, b, 1) != b")
	}
	if got := blendLerp(a, b, 0); !got.Equal(a) {
		t.Error("lerp(a, b, 0) != a")
	}
}

func TestBlendLerpMidpoint(t *testing.T) {
	a, _ := Full(1, 1, 2, 2, 0)
	b, _ := Full(1, 1, 2, 2, 4)

	got := blendLerp(a, b, 0.25)
	for i, v := range got.Data() {
		if !almostEqual(v, 1, 1e-6) {
			t.Fatalf("lerp(0.25) data[%d] = %v, want 1", i, v)
		}
	}
}

func TestBlendEasedEndpoints(t *testing.T) {
	a, _ := Full(1, 1, 2, 2, 1)
	b, _ := Full(1, 1, 2, 2, 9)

	tests := []struct {
		name string
		fn   BlendFunc
	}{
		{name: "cosinterp", fn: blendCosinterp},
		{name: "cuberp", fn: blendCuberp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(a, b, 0); !got.Equal(a) {
				t.Errorf("%s(a, b, 0) != a", tt.name)
			}
			if got := tt.fn(a, b, 1); !got.Equal(b) {
				t.Errorf("%s(a, b, 1) != b", tt.name)
			}
		})
	}
}

func TestBlendInject(t *testing.T) {
	a, _ := Full(1, 1, 2, 2, 1)
	b, _ := Full(1, 1, 2, 2, 4)

	got := blendInject(a, b, 0.5)
	for i, v := range got.Data() {
		if !almostEqual(v, 3, 1e-6) {
			t.Fatalf("inject(0.5) data[%d] = %v, want 3", i, v)
		}
	}
}

func TestBlendLinearDodgeStaysInSourceRange(t *testing.T) {
	a, _ := FromSlice([]float32{-1, 0, 1, 2}, 1, 1, 2, 2)
	b, _ := Full(1, 1, 2, 2, 10)

	got := blendLinearDodge(a, b, 1)
	min, max := got.MinMax()
	if !almostEqual(min, -1, 1e-5) || !almostEqual(max, 2, 1e-5) {
		t.Errorf("lineardodge range = [%v, %v], want [-1, 2]", min, max)
	}
}

func TestBlendColorizeConstant(t *testing.T) {
	a, _ := Full(1, 2, 2, 2, 3)
	b, _ := Full(1, 2, 2, 2, 8)

	// Matching b to a's statistics collapses b to a's mean, so the full
	// blend equals a.
	got := blendColorize(a, b, 1)
	for i, v := range got.Data() {
		if !almostEqual(v, 3, 1e-5) {
			t.Fatalf("colorize(1) data[%d] = %v, want 3", i, v)
		}
	}
}

func TestBlendSlerpPreservesMagnitude(t *testing.T) {
	a, _ := FromSlice([]float32{1, 0, 0, 0}, 1, 4, 1, 1)
	b, _ := FromSlice([]float32{0, 1, 0, 0}, 1, 4, 1, 1)

	got := blendSlerp(a, b, 0.5)
	var mag float64
	for _, v := range got.Data() {
		mag += float64(v) * float64(v)
	}
	mag = math.Sqrt(mag)
	if math.Abs(mag-1) > 1e-4 {
		t.Errorf("slerp(0.5) magnitude = %v, want 1", mag)
	}
}

func TestBlendDoesNotMutateInputs(t *testing.T) {
	a, _ := Full(1, 1, 2, 2, 1)
	b, _ := Full(1, 1, 2, 2, 2)
	aCopy := a.Clone()
	bCopy := b.Clone()

	for name, fn := range blendModes {
		fn(a, b, 0.5)
		if !a.Equal(aCopy) || !b.Equal(bCopy) {
			t.Fatalf("blend mode %q mutated its inputs", name)
		}
	}
}
