package engine

import (
	"fmt"
	"math"
	"sort"
)

// SigmaIndex inverts a model's percent-to-sigma mapping so hook sigmas
// can be resolved back to sampling percentages. The mapping is sampled
// at resolution+1 points into an ascending table; tab[i] holds the
// sigma for percentage (resolution-i)/resolution, so tab[0] is the
// smallest sigma (end of sampling) and tab[resolution] the largest.
type SigmaIndex struct {
	tab []float64
	res int
}

// NewSigmaIndex samples fn at resolution+1 evenly spaced percentages.
// fn must be monotonically decreasing in the percentage, which every
// known sigma model satisfies.
func NewSigmaIndex(fn func(pct float64) float64, resolution int) *SigmaIndex {
	tab := make([]float64, resolution+1)
	for i := range tab {
		tab[i] = fn(float64(resolution-i) / float64(resolution))
	}
	return &SigmaIndex{tab: tab, res: resolution}
}

// Resolution returns the table resolution.
func (x *SigmaIndex) Resolution() int {
	return x.res
}

// Lookup resolves sigma to a sampling percentage in [0, 1]. The
// second result is false when sigma falls outside the table; callers
// skip the evaluation in that case.
func (x *SigmaIndex) Lookup(sigma float64) (float64, bool) {
	idx := sort.Search(len(x.tab), func(i int) bool { return x.tab[i] > sigma })
	if idx == len(x.tab) {
		return 0, false
	}
	return float64(x.res-idx) / float64(x.res), true
}

// stepMatchTolerance bounds the sigma distance treated as an exact
// step hit when locating steps in a schedule.
const stepMatchTolerance = 1.5e-6

// StepSchedule locates sampler steps from an explicit sigma schedule.
// A schedule holds n+1 sigmas for n steps; entry i is the sigma
// entering step i+1 and entry i+1 the sigma leaving it.
type StepSchedule struct {
	sigmas []float64
}

// NewStepSchedule copies and wraps a sigma schedule.
func NewStepSchedule(sigmas []float64) (*StepSchedule, error) {
	if len(sigmas) < 2 {
		return nil, fmt.Errorf("schedule needs at least two sigmas, got %d", len(sigmas))
	}
	return &StepSchedule{sigmas: append([]float64(nil), sigmas...)}, nil
}

// Steps returns the number of steps the schedule covers.
func (s *StepSchedule) Steps() int {
	return len(s.sigmas) - 1
}

// StepLocation is the result of locating a sigma in a schedule.
type StepLocation struct {
	// Step is the 1-based step whose entry sigma is closest.
	Step int

	// StepExact equals Step when the sigma matched the schedule entry
	// within tolerance, and -1 otherwise. Samplers that evaluate at
	// shifted sigmas (dpmpp_2s_ancestral and friends) produce -1 on
	// their intermediate calls.
	StepExact int

	// Sigma and SigmaNext are the schedule sigmas entering and
	// leaving the located step.
	Sigma     float64
	SigmaNext float64
}

// Locate finds the step whose entry sigma is closest to sigma. Ties
// resolve to the earliest step.
func (s *StepSchedule) Locate(sigma float64) StepLocation {
	best := 0
	bestDiff := math.Abs(s.sigmas[0] - sigma)
	for i := 1; i < len(s.sigmas)-1; i++ {
		if d := math.Abs(s.sigmas[i] - sigma); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	loc := StepLocation{
		Step:      best + 1,
		StepExact: -1,
		Sigma:     s.sigmas[best],
		SigmaNext: s.sigmas[best+1],
	}
	if bestDiff <= stepMatchTolerance {
		loc.StepExact = loc.Step
	}
	return loc
}
