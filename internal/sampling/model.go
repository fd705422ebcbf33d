// Package sampling provides reference sigma models and step schedules
// for hosts and tools that do not bring their own. The discrete model
// reproduces the beta-schedule noise table latent diffusion models
// publish, so percentages and sigmas resolve the same way they would
// inside a real sampler.
package sampling

import (
	"fmt"
	"math"
)

// SigmaInfinity is the sigma reported for the 0% boundary, before the
// first sampling step has begun. Rule conditions written as
// from_percent 0 must match the very first hook call, whose sigma sits
// above every schedule entry.
const SigmaInfinity = 999999999.9

// Scaled-linear beta schedule bounds used by the common checkpoints.
const (
	DefaultBetaStart = 0.00085
	DefaultBetaEnd   = 0.012
	DefaultTimesteps = 1000
)

// DiscreteModel is a discrete beta-schedule sigma model: a fixed table
// of per-timestep sigmas with log-space interpolation between entries.
type DiscreteModel struct {
	sigmas    []float64
	logSigmas []float64
}

// NewDiscreteModel builds the model with the default scaled-linear
// schedule (0.00085 to 0.012 over 1000 timesteps).
func NewDiscreteModel() *DiscreteModel {
	m, err := NewDiscreteModelWith(DefaultBetaStart, DefaultBetaEnd, DefaultTimesteps)
	if err != nil {
		// Defaults are compile-time constants; they cannot fail.
		panic(err)
	}
	return m
}

// NewDiscreteModelWith builds a model from explicit schedule
// parameters. Betas follow the scaled-linear form: linearly spaced in
// sqrt-space between betaStart and betaEnd.
func NewDiscreteModelWith(betaStart, betaEnd float64, timesteps int) (*DiscreteModel, error) {
	if timesteps < 2 {
		return nil, fmt.Errorf("timesteps must be at least 2, got %d", timesteps)
	}
	if betaStart <= 0 || betaEnd <= 0 || betaEnd < betaStart {
		return nil, fmt.Errorf("invalid beta range [%g, %g]", betaStart, betaEnd)
	}

	sqrtStart := math.Sqrt(betaStart)
	sqrtEnd := math.Sqrt(betaEnd)

	sigmas := make([]float64, timesteps)
	logSigmas := make([]float64, timesteps)
	alphaCum := 1.0
	for i := 0; i < timesteps; i++ {
		sqrtBeta := sqrtStart + (sqrtEnd-sqrtStart)*float64(i)/float64(timesteps-1)
		beta := sqrtBeta * sqrtBeta
		alphaCum *= 1 - beta
		sigmas[i] = math.Sqrt((1 - alphaCum) / alphaCum)
		logSigmas[i] = math.Log(sigmas[i])
	}

	return &DiscreteModel{sigmas: sigmas, logSigmas: logSigmas}, nil
}

// SigmaMin returns the smallest sigma in the table, the noise level of
// the final timestep.
func (m *DiscreteModel) SigmaMin() float64 {
	return m.sigmas[0]
}

// SigmaMax returns the largest sigma in the table, the noise level of
// the first timestep.
func (m *DiscreteModel) SigmaMax() float64 {
	return m.sigmas[len(m.sigmas)-1]
}

// Sigma evaluates the model at a continuous timestep in
// [0, timesteps-1], interpolating between table entries in log space.
func (m *DiscreteModel) Sigma(t float64) float64 {
	if t <= 0 {
		return m.sigmas[0]
	}
	last := float64(len(m.sigmas) - 1)
	if t >= last {
		return m.sigmas[len(m.sigmas)-1]
	}

	low := int(math.Floor(t))
	w := t - float64(low)
	logSigma := (1-w)*m.logSigmas[low] + w*m.logSigmas[low+1]
	return math.Exp(logSigma)
}

// PercentToSigma maps a sampling percentage to its sigma. Percent 0 is
// the start of sampling and reports SigmaInfinity; percent 1 is the
// end and reports 0. The mapping is monotonically decreasing, which
// the engine's sigma index requires.
func (m *DiscreteModel) PercentToSigma(pct float64) float64 {
	if pct <= 0 {
		return SigmaInfinity
	}
	if pct >= 1 {
		return 0
	}
	remaining := 1 - pct
	return m.Sigma(remaining * float64(len(m.sigmas)-1))
}
