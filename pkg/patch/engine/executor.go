package engine

import (
	"fmt"
	"log/slog"
	"math"

	"latent-hq/callisto/pkg/latent"
	"latent-hq/callisto/pkg/lrl/ast"
	"latent-hq/callisto/pkg/telemetry/metrics"
)

// executor applies compiled rules to evaluation state. It is
// stateless; every mutable value lives in the State.
type executor struct {
	logger  *slog.Logger
	metrics *metrics.EngineMetrics
}

// evalStats accumulates match and operation counts across one
// evaluation, nested rules included.
type evalStats struct {
	matched int
	applied int
}

// evalRules runs a rule list in order against shared state.
func (x *executor) evalRules(rules []*compiledRule, st *State, stats *evalStats) error {
	for _, rule := range rules {
		if err := x.evalRule(rule, st, stats); err != nil {
			return err
		}
	}
	return nil
}

// evalRule tests one rule. On match it pins the target to the
// canonical slot, runs the operations, then the then-branch; on
// mismatch it runs the else-branch.
func (x *executor) evalRule(rule *compiledRule, st *State, stats *evalStats) error {
	if rule.cond != nil && !rule.cond.match(st) {
		return x.evalRules(rule.els, st, stats)
	}
	stats.matched++
	st.pinTarget()
	for _, op := range rule.ops {
		if err := x.apply(op, st, stats); err != nil {
			return err
		}
		stats.applied++
		if x.metrics != nil {
			x.metrics.RecordOperation(string(op.kind))
		}
	}
	return x.evalRules(rule.then, st, stats)
}

// apply runs a single operation against the state's target slot.
func (x *executor) apply(op *compiledOp, st *State, stats *evalStats) error {
	if op.kind == ast.OpTargetSkip {
		applyTargetSkip(op, st)
		return nil
	}
	t := st.tensor()
	if t == nil {
		return &MissingStateError{Op: op.kind, Need: fmt.Sprintf("a tensor in slot %q", st.Target)}
	}
	switch op.kind {
	case ast.OpScaleBasic, ast.OpScale:
		return x.applyScale(op, st, t)
	case ast.OpUnscaleBasic, ast.OpUnscale:
		return x.applyUnscale(op, st, t)
	case ast.OpFlip:
		out, err := latent.Flip(t, op.axis)
		if err != nil {
			return &OpError{Op: op.kind, Location: op.loc, Cause: err}
		}
		st.setTensor(out)
		return nil
	case ast.OpRot90:
		st.setTensor(latent.Rot90(t, op.count))
		return nil
	case ast.OpRollChannels:
		out, err := latent.Roll(t, op.count, 1)
		if err != nil {
			return &OpError{Op: op.kind, Location: op.loc, Cause: err}
		}
		st.setTensor(out)
		return nil
	case ast.OpRoll:
		return x.applyRoll(op, st, t)
	case ast.OpMultiply:
		t.Scale(float32(op.factor))
		return nil
	case ast.OpFFilter:
		out, err := latent.FFilter(t, op.threshold, op.factor, op.gains, op.strength)
		if err != nil {
			return &OpError{Op: op.kind, Location: op.loc, Cause: err}
		}
		st.setTensor(out)
		return nil
	case ast.OpSlice:
		return x.applySlice(op, t)
	case ast.OpBlendOp:
		return x.applyBlendOp(op, st, t, stats)
	case ast.OpMaskExampleOp:
		return x.applyMaskOp(op, st, t, stats)
	case ast.OpAntialias:
		st.setTensor(latent.Antialias(t, op.antialiasSize))
		return nil
	case ast.OpNoise:
		if !st.HasSigmas {
			return &MissingStateError{Op: op.kind, Need: "a sigma schedule"}
		}
		latent.AddNoise(t, st.rng, (st.Sigma-st.SigmaNext)*op.strength)
		return nil
	case ast.OpDebug:
		x.logDebug(st, t)
		return nil
	default:
		return fmt.Errorf("internal: no executor for operation %q", op.kind)
	}
}

// applyTargetSkip redirects the target between the canonical slot and
// the skip tensor. Without a skip tensor it only ensures the target
// does not dangle.
func applyTargetSkip(op *compiledOp, st *State) {
	if st.HSP == nil {
		if st.Target == SlotHSP {
			st.pinTarget()
		}
		return
	}
	if op.flag {
		st.Target = SlotHSP
	} else {
		st.pinTarget()
	}
}

func (x *executor) applyScale(op *compiledOp, st *State, t *latent.Tensor) error {
	outW := int(math.Round(float64(t.Dim(3)) * op.scaleW))
	outH := int(math.Round(float64(t.Dim(2)) * op.scaleH))
	out, err := latent.Resize(t, outW, outH, op.modeW, op.modeH, op.antialiasSize)
	if err != nil {
		return &OpError{Op: op.kind, Location: op.loc, Cause: err}
	}
	st.setTensor(out)
	return nil
}

// applyUnscale resizes the target back to the skip tensor's spatial
// size. Matching sizes are a no-op so unconditional downscale/upscale
// rule pairs stay cheap.
func (x *executor) applyUnscale(op *compiledOp, st *State, t *latent.Tensor) error {
	if st.HSP == nil {
		return &MissingStateError{Op: op.kind, Need: "a skip tensor (output sites provide one)"}
	}
	outW, outH := st.HSP.Dim(3), st.HSP.Dim(2)
	if t.Dim(3) == outW && t.Dim(2) == outH {
		return nil
	}
	out, err := latent.Resize(t, outW, outH, op.modeW, op.modeH, op.antialiasSize)
	if err != nil {
		return &OpError{Op: op.kind, Location: op.loc, Cause: err}
	}
	st.setTensor(out)
	return nil
}

func (x *executor) applyRoll(op *compiledOp, st *State, t *latent.Tensor) error {
	amount := op.count
	if op.fraction {
		amount = int(float64(t.Dim(op.axes[0])) * op.amount)
	}
	out, err := latent.Roll(t, amount, op.axes...)
	if err != nil {
		return &OpError{Op: op.kind, Location: op.loc, Cause: err}
	}
	st.setTensor(out)
	return nil
}

// applySlice scales the leading channel slice in place, optionally
// modulated by the normalized channel mean, and blends the result
// back over the slice.
func (x *executor) applySlice(op *compiledOp, t *latent.Tensor) error {
	_, c, _, _ := t.Dims()
	size := int(math.Round(float64(c) * op.factor))
	if size > c {
		size = c
	}
	if size < 1 {
		return nil
	}
	sliced := extractChannels(t, size)
	result := sliced.Clone()
	if op.flag {
		modulateByMean(result, latent.HiddenMean(t), op.strength)
	} else {
		result.Scale(float32(op.strength))
	}
	if op.blend != 1 {
		result = op.blendFunc(sliced, result, op.blend)
	}
	writeChannels(t, result)
	return nil
}

// applyBlendOp clones the target into a scratch slot, evaluates the
// nested rules against it, and blends the transformed clone over the
// entry tensor. The scratch slot is dropped even when a nested rule
// fails.
func (x *executor) applyBlendOp(op *compiledOp, st *State, t *latent.Tensor, stats *evalStats) error {
	transformed, err := x.evalScratch(op, st, t, stats)
	if err != nil {
		return err
	}
	st.setTensor(op.blendFunc(t, transformed, op.blend))
	return nil
}

// applyMaskOp evaluates the nested rules against a scratch clone and
// composites it over the entry tensor through the mask, resized to
// the target's spatial size.
func (x *executor) applyMaskOp(op *compiledOp, st *State, t *latent.Tensor, stats *evalStats) error {
	n, c, h, w := t.Dims()
	mask, err := latent.Resize(op.mask, w, h, op.modeW, op.modeH, op.antialiasSize)
	if err != nil {
		return &OpError{Op: op.kind, Location: op.loc, Cause: err}
	}
	transformed, err := x.evalScratch(op, st, t, stats)
	if err != nil {
		return err
	}
	if !transformed.SameShape(t) {
		return &OpError{Op: op.kind, Location: op.loc,
			Cause: fmt.Errorf("nested operations changed the shape from %s to %s", t, transformed)}
	}
	out := latent.MustNew(n, c, h, w)
	od, td, sd, md := out.Data(), transformed.Data(), t.Data(), mask.Data()
	plane := h * w
	for i := range od {
		m := md[i%plane]
		od[i] = td[i]*m + sd[i]*(1-m)
	}
	st.setTensor(out)
	return nil
}

// evalScratch clones t into a fresh scratch slot, makes it the
// canonical slot, runs the nested rules, and returns the transformed
// clone. The entry target and canonical slot are restored and the
// scratch dropped regardless of errors.
func (x *executor) evalScratch(op *compiledOp, st *State, t *latent.Tensor, stats *evalStats) (*latent.Tensor, error) {
	entry := st.Target
	name := st.newScratch(t.Clone())
	restore := st.swapCanonical(name)
	err := x.evalRules(op.sub, st, stats)
	restore()
	st.Target = entry
	transformed, _ := st.slot(name)
	st.dropScratch(name)
	if err != nil {
		return nil, err
	}
	return transformed, nil
}

func (x *executor) logDebug(st *State, t *latent.Tensor) {
	x.logger.Info("rule state",
		"site", st.Site,
		"block", st.Block,
		"stage", st.Stage,
		"percent", st.Percent,
		"step", st.Step,
		"step_exact", st.StepExact,
		"sigma", st.Sigma,
		"sigma_next", st.SigmaNext,
		"target", st.Target,
		"tensor", t.String(),
	)
}

// extractChannels copies the first size channels of t into a new
// tensor.
func extractChannels(t *latent.Tensor, size int) *latent.Tensor {
	n, c, h, w := t.Dims()
	out := latent.MustNew(n, size, h, w)
	plane := h * w
	src, dst := t.Data(), out.Data()
	for i := 0; i < n; i++ {
		copy(dst[i*size*plane:(i+1)*size*plane], src[i*c*plane:i*c*plane+size*plane])
	}
	return out
}

// writeChannels copies src back over the leading channels of t.
func writeChannels(t, src *latent.Tensor) {
	n, c, h, w := t.Dims()
	_, size, _, _ := src.Dims()
	plane := h * w
	from, to := src.Data(), t.Data()
	for i := 0; i < n; i++ {
		copy(to[i*c*plane:i*c*plane+size*plane], from[i*size*plane:(i+1)*size*plane])
	}
}

// modulateByMean scales every spatial position of t by
// (strength-1)*mean+1, broadcasting the single-channel mean across
// t's channels.
func modulateByMean(t, mean *latent.Tensor, strength float64) {
	n, c, h, w := t.Dims()
	for i := 0; i < n; i++ {
		for ci := 0; ci < c; ci++ {
			for y := 0; y < h; y++ {
				for xx := 0; xx < w; xx++ {
					m := float64(mean.At(i, 0, y, xx))
					v := float64(t.At(i, ci, y, xx))
					t.Set(i, ci, y, xx, float32(v*((strength-1)*m+1)))
				}
			}
		}
	}
}
