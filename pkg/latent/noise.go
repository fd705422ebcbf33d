package latent

import "math/rand/v2"

// AddNoise adds gaussian noise scaled by scale to every element of t in
// place and returns t. The caller owns the random source; evaluation
// call sites derive it from the engine's seed configuration so runs can
// be reproduced.
func AddNoise(t *Tensor, rng *rand.Rand, scale float64) *Tensor {
	for i := range t.data {
		t.data[i] += float32(rng.NormFloat64() * scale)
	}
	return t
}
