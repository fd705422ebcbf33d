package latent

import (
	"math/rand/v2"
	"testing"
)

func TestFilterPresetLookup(t *testing.T) {
	for name := range FilterPresets {
		gains, err := FilterPreset(name)
		if err != nil {
			t.Errorf("FilterPreset(%q) error = %v", name, err)
		}
		if len(gains) == 0 {
			t.Errorf("FilterPreset(%q) returned empty gains", name)
		}
	}
	if _, err := FilterPreset("notch"); err == nil {
		t.Error("FilterPreset(notch) expected error")
	}
}

func TestFFilterIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	in := MustNew(1, 2, 8, 8)
	for i := range in.Data() {
		in.Data()[i] = float32(rng.NormFloat64())
	}

	tests := []struct {
		name      string
		threshold int
		scale     float64
		gains     []float32
		strength  float64
	}{
		{name: "passthrough gains", threshold: 0, scale: 2, gains: []float32{1}, strength: 1},
		{name: "zero strength", threshold: 2, scale: 0.5, gains: []float32{0, 0, 0}, strength: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FFilter(in, tt.threshold, tt.scale, tt.gains, tt.strength)
			if err != nil {
				t.Fatalf("FFilter() error = %v", err)
			}
			for i := range in.Data() {
				if !almostEqual(got.Data()[i], in.Data()[i], 1e-4) {
					t.Fatalf("FFilter() data[%d] = %v, want %v", i, got.Data()[i], in.Data()[i])
				}
			}
		})
	}
}

func TestFFilterZeroGainsZeroOutput(t *testing.T) {
	in, _ := Full(1, 1, 4, 4, 2)
	in.Set(0, 0, 1, 2, 5)

	got, err := FFilter(in, 0, 1, []float32{0}, 1)
	if err != nil {
		t.Fatalf("FFilter() error = %v", err)
	}
	for i, v := range got.Data() {
		if !almostEqual(v, 0, 1e-4) {
			t.Fatalf("FFilter(zero gains) data[%d] = %v, want 0", i, v)
		}
	}
}

func TestFFilterDCScaling(t *testing.T) {
	// A constant tensor lives entirely in the DC bin; scaling the
	// low-frequency box by 0.5 halves it.
	in, _ := Full(1, 1, 4, 4, 2)

	got, err := FFilter(in, 1, 0.5, []float32{1}, 1)
	if err != nil {
		t.Fatalf("FFilter() error = %v", err)
	}
	for i, v := range got.Data() {
		if !almostEqual(v, 1, 1e-4) {
			t.Fatalf("FFilter(DC box 0.5) data[%d] = %v, want 1", i, v)
		}
	}
}

func TestFFilterValidation(t *testing.T) {
	in := MustNew(1, 1, 4, 4)
	if _, err := FFilter(in, 1, 1, nil, 1); err == nil {
		t.Error("FFilter() expected error for empty gains")
	}
	if _, err := FFilter(in, -1, 1, []float32{1}, 1); err == nil {
		t.Error("FFilter() expected error for negative threshold")
	}
}

func TestAddNoiseReproducible(t *testing.T) {
	a, _ := Full(1, 1, 4, 4, 1)
	b, _ := Full(1, 1, 4, 4, 1)

	AddNoise(a, rand.New(rand.NewPCG(7, 0)), 0.5)
	AddNoise(b, rand.New(rand.NewPCG(7, 0)), 0.5)
	if !a.Equal(b) {
		t.Error("AddNoise() with identical seeds produced different tensors")
	}

	c, _ := Full(1, 1, 4, 4, 1)
	AddNoise(c, rand.New(rand.NewPCG(8, 0)), 0.5)
	if a.Equal(c) {
		t.Error("AddNoise() with different seeds produced identical tensors")
	}
}

func TestAddNoiseZeroScale(t *testing.T) {
	a, _ := Full(1, 1, 2, 2, 1)
	want := a.Clone()
	AddNoise(a, rand.New(rand.NewPCG(1, 0)), 0)
	if !a.Equal(want) {
		t.Error("AddNoise(scale=0) changed the tensor")
	}
}
