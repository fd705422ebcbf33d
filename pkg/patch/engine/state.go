package engine

import (
	"fmt"
	"math/rand/v2"

	"latent-hq/callisto/pkg/latent"
)

// Tensor slot names addressable by target selection.
const (
	SlotH   = "h"
	SlotHSP = "hsp"
)

// State is the mutable evaluation state one invocation's rules share.
// The engine builds one per Evaluate call; it is not safe for
// concurrent use.
type State struct {
	// Site, Block, Stage, Percent, Step and StepExact are the fields
	// conditions match against.
	Site      string
	Block     int
	Stage     int
	Percent   float64
	Step      int
	StepExact int

	// Sigma and SigmaNext come from the step schedule and are only
	// meaningful when HasSigmas is true.
	Sigma     float64
	SigmaNext float64
	HasSigmas bool

	// H is the tensor flowing through the hook. HSP is the
	// skip-connection tensor, nil outside output sites.
	H   *latent.Tensor
	HSP *latent.Tensor

	// Target names the slot operations read and write. Matched rules
	// reset it to the canonical slot before running their operations,
	// so target selection never leaks across rules.
	Target string

	canonical string
	scratch   map[string]*latent.Tensor
	scratchN  int
	rng       *rand.Rand
}

func newState(site string, block int) *State {
	return &State{
		Site:      site,
		Block:     block,
		Stage:     -1,
		Step:      -1,
		StepExact: -1,
		Target:    SlotH,
		canonical: SlotH,
	}
}

// slot resolves a slot name to its tensor.
func (s *State) slot(name string) (*latent.Tensor, bool) {
	switch name {
	case SlotH:
		return s.H, s.H != nil
	case SlotHSP:
		return s.HSP, s.HSP != nil
	default:
		t, ok := s.scratch[name]
		return t, ok
	}
}

// tensor returns the tensor the current target names, or nil.
func (s *State) tensor() *latent.Tensor {
	t, _ := s.slot(s.Target)
	return t
}

// setTensor writes t through the current target.
func (s *State) setTensor(t *latent.Tensor) {
	switch s.Target {
	case SlotH:
		s.H = t
	case SlotHSP:
		s.HSP = t
	default:
		s.scratch[s.Target] = t
	}
}

// newScratch registers t under a fresh scratch slot name.
func (s *State) newScratch(t *latent.Tensor) string {
	if s.scratch == nil {
		s.scratch = make(map[string]*latent.Tensor)
	}
	name := fmt.Sprintf("temp%d", s.scratchN)
	s.scratchN++
	s.scratch[name] = t
	return name
}

// dropScratch removes a scratch slot.
func (s *State) dropScratch(name string) {
	delete(s.scratch, name)
}

// pinTarget resets the target to the canonical slot.
func (s *State) pinTarget() {
	s.Target = s.canonical
}

// swapCanonical redirects the canonical slot for a nested evaluation
// and returns a func restoring the previous one. Nested rules then pin
// their target to the scratch slot instead of escaping back to the
// invocation tensor.
func (s *State) swapCanonical(name string) func() {
	prev := s.canonical
	s.canonical = name
	s.Target = name
	return func() {
		s.canonical = prev
	}
}
