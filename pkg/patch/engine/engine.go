// Package engine evaluates rule programs against tensors flowing
// through a diffusion model's blocks during sampling.
//
// An Engine holds one compiled Program at a time. Hosts call Evaluate
// from their model hooks with the site, block index, sigma and the
// tensors; the engine resolves the sampling percentage and step,
// matches the program's rules against that state, and applies the
// matched operations in order. Reload swaps the program atomically,
// so long sampling runs can pick up edited rules between steps.
//
// Evaluations are synchronous and run on the sampling hot path. All
// errors surface to the caller; a sigma outside the resolvable range
// is not an error but a skip, returning the tensors untouched.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"latent-hq/callisto/pkg/latent"
	"latent-hq/callisto/pkg/lrl/ast"
	"latent-hq/callisto/pkg/telemetry/tracing"
)

// Engine evaluates a compiled rule program against invocations. It is
// safe for concurrent use; Reload swaps programs atomically under a
// read-write lock while evaluations proceed on the previous program.
type Engine struct {
	cfg      *Config
	logger   *slog.Logger
	tracer   oteltrace.Tracer
	recorder EvalRecorder

	index *SigmaIndex
	sched *StepSchedule

	exec *executor

	mu      sync.RWMutex
	program *Program

	seed   uint64
	seq    atomic.Uint64
	closed atomic.Bool
}

// New builds an engine from cfg. A nil cfg uses defaults. The engine
// starts without a program; Reload installs one.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		tracer:   cfg.Tracer,
		recorder: cfg.Recorder,
		exec:     &executor{logger: logger, metrics: cfg.Metrics},
		seed:     cfg.NoiseSeed,
	}
	if e.seed == 0 {
		e.seed = rand.Uint64()
	}
	if cfg.SigmaFromPercent != nil {
		e.index = NewSigmaIndex(cfg.SigmaFromPercent, cfg.Resolution)
	}
	if len(cfg.Schedule) > 0 {
		sched, err := NewStepSchedule(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		e.sched = sched
	}
	return e, nil
}

// Reload compiles docs and atomically replaces the active program. On
// error the previous program stays active.
func (e *Engine) Reload(docs ...*ast.Document) error {
	if e.closed.Load() {
		return ErrClosed
	}
	program, err := Compile(docs...)
	if err != nil {
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.RecordReload("error")
		}
		return err
	}
	e.mu.Lock()
	e.program = program
	e.mu.Unlock()
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.RecordReload("ok")
	}
	e.logger.Info("rule program loaded",
		"rules", program.Len(),
		"sites", len(program.sites))
	return nil
}

// Program returns the active program, or nil before the first Reload.
func (e *Engine) Program() *Program {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.program
}

// Sites returns the site tags the active program's type conditions
// mention, or nil when no program is loaded. Hosts register only
// these hooks.
func (e *Engine) Sites() map[string]bool {
	p := e.Program()
	if p == nil {
		return nil
	}
	return p.Sites()
}

// Evaluate runs the active program against one invocation. The
// returned Result carries the final tensors; in-place operations may
// also have written through to the invocation's tensors.
func (e *Engine) Evaluate(ctx context.Context, inv *Invocation) (*Result, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if inv == nil || inv.H == nil {
		return nil, fmt.Errorf("evaluate: invocation requires an input tensor")
	}
	program := e.Program()
	if program == nil {
		return nil, ErrNoProgram
	}

	var span oteltrace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "engine.evaluate",
			oteltrace.WithAttributes(
				attribute.String(tracing.AttrSite, inv.Site),
				attribute.Int(tracing.AttrBlock, inv.Block),
				attribute.Float64(tracing.AttrSigma, inv.Sigma),
			))
	}

	res, err := e.evaluate(ctx, program, inv)

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Bool(tracing.AttrSkipped, res.Skipped),
				attribute.Int(tracing.AttrMatchedRules, res.MatchedRules),
				attribute.Int(tracing.AttrOpsApplied, res.OpsApplied),
			)
		}
		span.End()
	}
	if e.recorder != nil {
		e.recorder.RecordEvaluation(ctx, inv, res, err)
	}
	return res, err
}

// EvaluateLatent runs the program against a standalone latent tensor
// outside any sampling hook. Rules match with percent 0, no block, no
// stage and no steps; only type conditions naming the latent site (or
// no type condition at all) apply.
func (e *Engine) EvaluateLatent(ctx context.Context, t *latent.Tensor) (*latent.Tensor, error) {
	res, err := e.Evaluate(ctx, &Invocation{Site: SiteLatent, Block: -1, H: t})
	if err != nil {
		return nil, err
	}
	return res.H, nil
}

// Close marks the engine closed; later calls fail with ErrClosed. The
// engine does not own its recorder, metrics or tracer; callers shut
// those down themselves.
func (e *Engine) Close() error {
	e.closed.Store(true)
	return nil
}

func (e *Engine) evaluate(ctx context.Context, program *Program, inv *Invocation) (*Result, error) {
	start := time.Now()
	st, ok := e.buildState(inv)
	if !ok {
		res := &Result{
			H: inv.H, HSP: inv.HSP,
			Skipped: true,
			Stage:   -1, Step: -1, StepExact: -1,
			Duration: time.Since(start),
		}
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.RecordSkip(inv.Site)
			e.cfg.Metrics.RecordEvaluation(inv.Site, "skipped", res.Duration)
		}
		e.logger.Debug("sigma out of range, passing through",
			"site", inv.Site, "sigma", inv.Sigma)
		return res, nil
	}

	stats := &evalStats{}
	for _, rule := range program.rules {
		if err := ctx.Err(); err != nil {
			e.observe(inv.Site, "error", time.Since(start))
			return nil, err
		}
		if err := e.exec.evalRule(rule, st, stats); err != nil {
			e.observe(inv.Site, "error", time.Since(start))
			return nil, err
		}
	}

	res := &Result{
		H:            st.H,
		HSP:          st.HSP,
		MatchedRules: stats.matched,
		OpsApplied:   stats.applied,
		Stage:        st.Stage,
		Percent:      st.Percent,
		Step:         st.Step,
		StepExact:    st.StepExact,
		SigmaNext:    st.SigmaNext,
		Duration:     time.Since(start),
	}
	e.observe(inv.Site, "ok", res.Duration)
	return res, nil
}

func (e *Engine) observe(site, outcome string, d time.Duration) {
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.RecordEvaluation(site, outcome, d)
	}
}

// buildState derives the condition-visible state for one invocation.
// The second result is false when the sigma cannot be resolved and
// the invocation should pass through untouched.
func (e *Engine) buildState(inv *Invocation) (*State, bool) {
	st := newState(inv.Site, inv.Block)
	st.H, st.HSP = inv.H, inv.HSP
	st.rng = rand.New(rand.NewPCG(e.seed, e.seq.Add(1)))

	switch inv.Site {
	case SiteLatent:
		// Standalone latent processing carries no sigma.
		st.Block, st.Stage = -1, -1
		return st, true
	case SitePostCFG:
		st.Block, st.Stage = -1, -1
	default:
		st.Stage = e.stageOf(inv.H)
	}

	if e.index == nil {
		return nil, false
	}
	pct, ok := e.index.Lookup(inv.Sigma)
	if !ok {
		return nil, false
	}
	st.Percent = pct

	if e.sched != nil {
		ref := inv.SigmaMax
		if ref == 0 {
			ref = inv.Sigma
		}
		loc := e.sched.Locate(ref)
		st.Step, st.StepExact = loc.Step, loc.StepExact
		st.Sigma, st.SigmaNext = loc.Sigma, loc.SigmaNext
		st.HasSigmas = true
	}
	return st, true
}

// stageOf maps the tensor's channel count to a stage index, or -1
// when the width is not a known stage width.
func (e *Engine) stageOf(t *latent.Tensor) int {
	_, c, _, _ := t.Dims()
	for i, w := range e.cfg.StageWidths {
		if w == c {
			return i + 1
		}
	}
	return -1
}
