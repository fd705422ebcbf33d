package ast

import "fmt"

// OpKind identifies a tensor operation. The set is closed: documents
// naming anything else fail at parse time, and the engine's executor
// matches exhaustively over these kinds.
type OpKind string

const (
	// OpScaleBasic resizes by width/height factors with a basic mode.
	// Args: mode, scaleW, scaleH, antialias (bool).
	OpScaleBasic OpKind = "scale_basic"
	// OpUnscaleBasic resizes back to the companion tensor's size.
	// Args: mode, antialias (bool).
	OpUnscaleBasic OpKind = "unscale_basic"
	// OpScale resizes by factors with independent per-axis modes.
	// Args: modeW, modeH, scaleW, scaleH, antialiasSize (int).
	OpScale OpKind = "scale"
	// OpUnscale resizes back to the companion tensor's size with
	// per-axis modes. Args: modeW, modeH, antialiasSize (int).
	OpUnscale OpKind = "unscale"
	// OpFlip mirrors the tensor. Args: direction ("h" or "v").
	OpFlip OpKind = "flip"
	// OpRot90 rotates the spatial plane. Args: count (int).
	OpRot90 OpKind = "rot90"
	// OpRollChannels rolls the channel axis. Args: count (int).
	OpRollChannels OpKind = "roll_channels"
	// OpRoll rolls arbitrary axes. Args: direction (name, axis index, or
	// list of axis indexes), amount (int, or fraction in (-1, 1)).
	OpRoll OpKind = "roll"
	// OpTargetSkip redirects the operation target between the primary
	// and companion tensors. Args: toCompanion (bool).
	OpTargetSkip OpKind = "target_skip"
	// OpMultiply scales the target in place. Args: factor.
	OpMultiply OpKind = "multiply"
	// OpFFilter applies a frequency filter. Args: scale, filter (preset
	// name or gain list), strength, threshold (int).
	OpFFilter OpKind = "ffilter"
	// OpSlice scales and blends a leading channel slice. Args: scale,
	// strength, blend, blendMode, useHiddenMean (bool).
	OpSlice OpKind = "slice"
	// OpBlendOp evaluates nested operations or rules against a scratch
	// copy, then blends. Args: blend, blendMode, subops.
	OpBlendOp OpKind = "blend_op"
	// OpMaskExampleOp composites a scratch evaluation through a
	// hand-authored mask. Args: scaleMode, antialiasSize (int),
	// maskRows, subops.
	OpMaskExampleOp OpKind = "mask_example_op"
	// OpAntialias smooths the target. Args: size (int).
	OpAntialias OpKind = "antialias"
	// OpNoise injects scaled gaussian noise. Args: strength.
	OpNoise OpKind = "noise"
	// OpDebug logs a state snapshot. No args.
	OpDebug OpKind = "debug"
)

// opKindNames lists every operation kind accepted in documents.
var opKindNames = []string{
	"scale_basic", "unscale_basic", "scale", "unscale", "flip", "rot90",
	"roll_channels", "roll", "target_skip", "multiply", "ffilter", "slice",
	"blend_op", "mask_example_op", "antialias", "noise", "debug",
}

// OpKindNames returns the accepted operation kind names.
func OpKindNames() []string {
	out := make([]string, len(opKindNames))
	copy(out, opKindNames)
	return out
}

// ParseOpKind resolves a document operation name.
func ParseOpKind(name string) (OpKind, error) {
	for _, known := range opKindNames {
		if name == known {
			return OpKind(name), nil
		}
	}
	return "", fmt.Errorf("unknown operation kind %q", name)
}

// Operation is one entry of a rule's `ops` list: a kind and its fixed
// positional arguments.
//
// For blend_op and mask_example_op the trailing operation list is carried
// in SubRules instead of Args so later stages never re-parse raw values.
// Nested definitions may mix bare operations and full rule mappings; a
// bare operation is wrapped in a condition-free single-op rule at parse
// time, which keeps the whole list ordered and uniform.
type Operation struct {
	Kind     OpKind
	Args     []Value
	SubRules []*Rule // nested definitions (blend_op, mask_example_op)
	Location Location
}
