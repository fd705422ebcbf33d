package sampling

import "math"

// DefaultRho is the Karras schedule's standard curvature.
const DefaultRho = 7.0

// Karras builds the Karras et al. step schedule: n sigmas spaced
// evenly in rho-root space between sigmaMax and sigmaMin, plus the
// trailing zero, so the result holds n+1 entries for n steps. Rho
// above 1 concentrates steps at low noise where detail forms.
func Karras(n int, sigmaMin, sigmaMax, rho float64) []float64 {
	if n <= 0 {
		return nil
	}

	sigmas := make([]float64, n+1)
	if n == 1 {
		sigmas[0] = sigmaMax
		return sigmas
	}

	minInvRho := math.Pow(sigmaMin, 1/rho)
	maxInvRho := math.Pow(sigmaMax, 1/rho)
	for i := 0; i < n; i++ {
		ramp := float64(i) / float64(n-1)
		sigmas[i] = math.Pow(maxInvRho+ramp*(minInvRho-maxInvRho), rho)
	}
	return sigmas
}

// Linear builds an evenly spaced schedule from sigmaMax down to
// sigmaMin, plus the trailing zero: n+1 entries for n steps.
func Linear(n int, sigmaMin, sigmaMax float64) []float64 {
	if n <= 0 {
		return nil
	}

	sigmas := make([]float64, n+1)
	if n == 1 {
		sigmas[0] = sigmaMax
		return sigmas
	}

	for i := 0; i < n; i++ {
		ramp := float64(i) / float64(n-1)
		sigmas[i] = sigmaMax + ramp*(sigmaMin-sigmaMax)
	}
	return sigmas
}
