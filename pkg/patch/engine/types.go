package engine

import (
	"context"
	"time"

	"latent-hq/callisto/pkg/latent"
)

// Invocation site tags. A rule's `type` condition matches against
// these; hosts pass the tag for the model hook they are calling from.
const (
	SiteInput          = "input"
	SiteInputAfterSkip = "input_after_skip"
	SiteMiddle         = "middle"
	SiteOutput         = "output"
	SitePostCFG        = "post_cfg"
	SiteLatent         = "latent"
)

// KnownSites lists every invocation site tag the engine accepts.
func KnownSites() []string {
	return []string{
		SiteInput,
		SiteInputAfterSkip,
		SiteMiddle,
		SiteOutput,
		SitePostCFG,
		SiteLatent,
	}
}

// Invocation describes one hook call from the host sampler.
type Invocation struct {
	// Site is the hook location, one of the Site constants.
	Site string

	// Block is the index of the model block the hook fired in. Sites
	// without a block (post_cfg, latent) ignore it.
	Block int

	// Sigma is the noise level attached to the hook call. The engine
	// resolves it to a sampling percentage; a sigma outside the
	// resolvable range skips the evaluation. Ignored for the latent
	// site.
	Sigma float64

	// SigmaMax is the largest sigma attached to the hook call, used
	// to locate the current step in the schedule. Zero falls back to
	// Sigma.
	SigmaMax float64

	// H is the tensor flowing through the hook. Required. The engine
	// may mutate it in place; callers wanting isolation pass a clone.
	H *latent.Tensor

	// HSP is the skip-connection tensor, present only at output sites.
	HSP *latent.Tensor
}

// Result carries the tensors and bookkeeping from one evaluation.
type Result struct {
	// H is the tensor after all matched operations ran. When no rule
	// matched it is the invocation's tensor unchanged.
	H *latent.Tensor

	// HSP is the skip-connection tensor after evaluation, nil when
	// the invocation carried none.
	HSP *latent.Tensor

	// Skipped is true when the sigma fell outside the resolvable
	// range and no rule was evaluated.
	Skipped bool

	// MatchedRules counts rules whose conditions held, including
	// nested then/else rules and rules inside blending operations.
	MatchedRules int

	// OpsApplied counts operations executed, including nested ones.
	OpsApplied int

	// Stage, Percent, Step, StepExact and SigmaNext mirror the
	// condition-visible state the evaluation ran under, for recorders
	// and hosts. Meaningful only when Skipped is false; Stage, Step and
	// StepExact are -1 when unresolved.
	Stage     int
	Percent   float64
	Step      int
	StepExact int
	SigmaNext float64

	// Duration is the wall time the evaluation took.
	Duration time.Duration
}

// EvalRecorder receives one callback per evaluation. Implementations
// must not block; the engine calls them synchronously on the sampling
// path.
type EvalRecorder interface {
	RecordEvaluation(ctx context.Context, inv *Invocation, res *Result, evalErr error)
}
