package validator

import (
	"fmt"

	"latent-hq/callisto/pkg/latent"
	"latent-hq/callisto/pkg/lrl/ast"
	lrlErrors "latent-hq/callisto/pkg/lrl/errors"
)

// rollDirections maps the named roll directions to tensor axes.
var rollDirections = map[string]bool{
	"h": true, "horizontal": true,
	"v": true, "vertical": true,
	"c": true, "channels": true,
}

// SemanticValidator validates condition values and operation arguments:
// arity, argument types, and names resolved against the latent-math
// registries (resize modes, blend modes, filter presets). Everything it
// rejects would otherwise surface as a runtime failure mid-sampling.
type SemanticValidator struct {
	errors *lrlErrors.ErrorList
}

// NewSemanticValidator creates a new semantic validator.
func NewSemanticValidator() *SemanticValidator {
	return &SemanticValidator{
		errors: lrlErrors.NewErrorList(),
	}
}

// Validate performs semantic validation on a document.
func (v *SemanticValidator) Validate(doc *ast.Document) error {
	v.errors = lrlErrors.NewErrorList()

	if doc == nil {
		return nil
	}
	for _, rule := range doc.Rules {
		v.validateRule(rule)
	}

	return v.errors.ToError()
}

// validateRule checks a rule's conditions and operations and recurses
// into its branches.
func (v *SemanticValidator) validateRule(rule *ast.Rule) {
	if rule.If != nil {
		for _, cond := range rule.If.Conds {
			v.validateCondition(cond)
		}
	}
	for _, op := range rule.Ops {
		v.validateOperation(op)
	}
	for _, child := range rule.Then {
		v.validateRule(child)
	}
	for _, child := range rule.Else {
		v.validateRule(child)
	}
}

// validateCondition checks the value types of one condition.
func (v *SemanticValidator) validateCondition(cond *ast.Condition) {
	switch cond.Field {
	case ast.FieldType:
		v.wantValueStrings(cond)
	case ast.FieldBlock, ast.FieldStage, ast.FieldStep, ast.FieldStepExact:
		v.wantValueWholeNumbers(cond, false)
	case ast.FieldPercent, ast.FieldFromPercent, ast.FieldToPercent:
		v.wantValueNumbers(cond)
	case ast.FieldFromStep, ast.FieldToStep, ast.FieldStepInterval:
		v.wantValueWholeNumbers(cond, true)
	case ast.FieldCond:
		if cond.Compare != nil {
			v.validateComparison(cond.Compare)
		}
	}
}

// validateComparison checks the value types of a comparison tree.
func (v *SemanticValidator) validateComparison(cmp *ast.Comparison) {
	if cmp.Op.IsBoolean() {
		for _, group := range cmp.Groups {
			for _, cond := range group.Conds {
				v.validateCondition(cond)
			}
		}
		return
	}

	for _, val := range cmp.Values {
		if cmp.Field == ast.FieldType {
			if val.Type != ast.ValueTypeString {
				v.errors.AddError(lrlErrors.ErrorTypeValidation,
					fmt.Sprintf("Comparison on %q takes string values, got %s", cmp.Field, val.Type),
					cmp.Location)
			}
		} else if !val.IsNumber() {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Comparison on %q takes numeric values, got %s", cmp.Field, val.Type),
				cmp.Location)
		}
	}
}

func (v *SemanticValidator) wantValueStrings(cond *ast.Condition) {
	for _, val := range cond.Values {
		if val.Type != ast.ValueTypeString {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Condition %q takes string values, got %s", cond.Field, val.Type),
				cond.Location)
		}
	}
}

func (v *SemanticValidator) wantValueNumbers(cond *ast.Condition) {
	for _, val := range cond.Values {
		if !val.IsNumber() {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Condition %q takes numeric values, got %s", cond.Field, val.Type),
				cond.Location)
		}
	}
}

func (v *SemanticValidator) wantValueWholeNumbers(cond *ast.Condition, positive bool) {
	for _, val := range cond.Values {
		if !val.IsWholeNumber() {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Condition %q takes integer values, got %s", cond.Field, val.String()),
				cond.Location)
			continue
		}
		if positive && val.AsInt() < 1 {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Condition %q takes positive values, got %d", cond.Field, val.AsInt()),
				cond.Location)
		}
	}
}

// validateOperation checks one operation's arity and argument types, and
// recurses into nested rules.
func (v *SemanticValidator) validateOperation(op *ast.Operation) {
	switch op.Kind {
	case ast.OpScaleBasic:
		if v.arity(op, 4) {
			v.wantMode(op, 0, false, false)
			v.wantNumber(op, 1, "scale width")
			v.wantNumber(op, 2, "scale height")
			v.wantBool(op, 3, "antialias")
		}
	case ast.OpUnscaleBasic:
		if v.arity(op, 2) {
			v.wantMode(op, 0, false, false)
			v.wantBool(op, 1, "antialias")
		}
	case ast.OpScale:
		if v.arity(op, 5) {
			v.wantMode(op, 0, true, false)
			v.wantMode(op, 1, true, true)
			v.wantNumber(op, 2, "scale width")
			v.wantNumber(op, 3, "scale height")
			v.wantAntialiasSize(op, 4)
		}
	case ast.OpUnscale:
		if v.arity(op, 3) {
			v.wantMode(op, 0, true, false)
			v.wantMode(op, 1, true, true)
			v.wantAntialiasSize(op, 2)
		}
	case ast.OpFlip:
		if v.arity(op, 1) {
			v.wantFlipDirection(op, 0)
		}
	case ast.OpRot90, ast.OpRollChannels:
		if v.arity(op, 1) {
			v.wantWholeNumber(op, 0, "count")
		}
	case ast.OpRoll:
		if v.arity(op, 2) {
			v.validateRoll(op)
		}
	case ast.OpTargetSkip:
		if v.arity(op, 1) {
			v.wantBool(op, 0, "target flag")
		}
	case ast.OpMultiply:
		if v.arity(op, 1) {
			v.wantNumber(op, 0, "factor")
		}
	case ast.OpFFilter:
		if v.arity(op, 4) {
			v.wantNumber(op, 0, "scale")
			v.wantFilter(op, 1)
			v.wantNumber(op, 2, "strength")
			v.wantThreshold(op, 3)
		}
	case ast.OpSlice:
		if v.arity(op, 5) {
			v.wantNumber(op, 0, "scale")
			v.wantNumber(op, 1, "strength")
			v.wantNumber(op, 2, "blend")
			v.wantBlendMode(op, 3)
			v.wantBool(op, 4, "use hidden mean")
		}
	case ast.OpBlendOp:
		if v.arity(op, 2) {
			v.wantNumber(op, 0, "blend")
			v.wantBlendMode(op, 1)
		}
		v.wantSubRules(op)
	case ast.OpMaskExampleOp:
		if v.arity(op, 3) {
			v.wantMode(op, 0, true, false)
			v.wantAntialiasSize(op, 1)
			v.wantMaskGrid(op, 2)
		}
		v.wantSubRules(op)
	case ast.OpAntialias:
		if v.arity(op, 1) {
			v.wantWholeNumber(op, 0, "size")
		}
	case ast.OpNoise:
		if v.arity(op, 1) {
			v.wantNumber(op, 0, "strength")
		}
	case ast.OpDebug:
		v.arity(op, 0)
	}

	for _, sub := range op.SubRules {
		v.validateRule(sub)
	}
}

// arity checks the positional argument count. Nested definition lists of
// blend-style operations live in SubRules and do not count.
func (v *SemanticValidator) arity(op *ast.Operation, want int) bool {
	if len(op.Args) != want {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q takes %d argument(s), got %d", op.Kind, want, len(op.Args)),
			op.Location)
		return false
	}
	return true
}

// argLoc prefers the argument's own location, falling back to the
// operation for hand-built ASTs.
func argLoc(op *ast.Operation, idx int) ast.Location {
	if op.Args[idx].Location.IsValid() {
		return op.Args[idx].Location
	}
	return op.Location
}

func (v *SemanticValidator) wantNumber(op *ast.Operation, idx int, what string) {
	if !op.Args[idx].IsNumber() {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: %s must be a number, got %s", op.Kind, what, op.Args[idx].Type),
			argLoc(op, idx))
	}
}

func (v *SemanticValidator) wantWholeNumber(op *ast.Operation, idx int, what string) {
	if !op.Args[idx].IsWholeNumber() {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: %s must be an integer, got %s", op.Kind, what, op.Args[idx].String()),
			argLoc(op, idx))
	}
}

func (v *SemanticValidator) wantBool(op *ast.Operation, idx int, what string) {
	if op.Args[idx].Type != ast.ValueTypeBool {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: %s must be true or false, got %s", op.Kind, what, op.Args[idx].Type),
			argLoc(op, idx))
	}
}

// wantMode checks a resize mode argument. allowSame admits "same" for
// height-mode positions.
func (v *SemanticValidator) wantMode(op *ast.Operation, idx int, extended, allowSame bool) {
	arg := op.Args[idx]
	if arg.Type != ast.ValueTypeString {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: resize mode must be a string, got %s", op.Kind, arg.Type),
			argLoc(op, idx))
		return
	}
	if allowSame && arg.Str == string(latent.ModeSame) {
		return
	}
	if _, err := latent.ParseMode(arg.Str, extended); err != nil {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: %v", op.Kind, err),
			argLoc(op, idx))
	}
}

func (v *SemanticValidator) wantAntialiasSize(op *ast.Operation, idx int) {
	arg := op.Args[idx]
	if !arg.IsWholeNumber() || arg.AsInt() < 0 {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: antialias size must be a non-negative integer, got %s", op.Kind, arg.String()),
			argLoc(op, idx))
	}
}

func (v *SemanticValidator) wantThreshold(op *ast.Operation, idx int) {
	arg := op.Args[idx]
	if !arg.IsWholeNumber() || arg.AsInt() < 0 {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: threshold must be a non-negative integer, got %s", op.Kind, arg.String()),
			argLoc(op, idx))
	}
}

func (v *SemanticValidator) wantFlipDirection(op *ast.Operation, idx int) {
	arg := op.Args[idx]
	if arg.Type != ast.ValueTypeString || (arg.Str != "h" && arg.Str != "v") {
		v.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: direction must be \"h\" or \"v\", got %s", op.Kind, arg.String()),
			argLoc(op, idx),
			"Use \"h\" for horizontal or \"v\" for vertical")
	}
}

func (v *SemanticValidator) wantBlendMode(op *ast.Operation, idx int) {
	arg := op.Args[idx]
	if arg.Type != ast.ValueTypeString {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: blend mode must be a string, got %s", op.Kind, arg.Type),
			argLoc(op, idx))
		return
	}
	if _, err := latent.BlendMode(arg.Str); err != nil {
		v.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: unknown blend mode %q", op.Kind, arg.Str),
			argLoc(op, idx),
			"Known blend modes: "+latent.BlendModeNames())
	}
}

// wantFilter checks an ffilter filter argument: a preset name or an
// explicit list of gains.
func (v *SemanticValidator) wantFilter(op *ast.Operation, idx int) {
	arg := op.Args[idx]
	switch arg.Type {
	case ast.ValueTypeString:
		if _, err := latent.FilterPreset(arg.Str); err != nil {
			v.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Operation %q: unknown filter preset %q", op.Kind, arg.Str),
				argLoc(op, idx),
				"Known presets: "+latent.FilterPresetNames())
		}
	case ast.ValueTypeList:
		if len(arg.List) == 0 {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Operation %q: filter gain list is empty", op.Kind),
				argLoc(op, idx))
			return
		}
		for _, gain := range arg.List {
			if !gain.IsNumber() {
				v.errors.AddError(lrlErrors.ErrorTypeValidation,
					fmt.Sprintf("Operation %q: filter gains must be numbers, got %s", op.Kind, gain.Type),
					argLoc(op, idx))
				return
			}
		}
	default:
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: filter must be a preset name or a gain list, got %s", op.Kind, arg.Type),
			argLoc(op, idx))
	}
}

func (v *SemanticValidator) wantMaskGrid(op *ast.Operation, idx int) {
	if _, err := ast.ExpandMaskRows(op.Args[idx]); err != nil {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: %v", op.Kind, err),
			argLoc(op, idx))
	}
}

func (v *SemanticValidator) wantSubRules(op *ast.Operation) {
	if op.SubRules == nil {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q needs a nested operation list", op.Kind),
			op.Location)
	}
}

// validateRoll checks the roll direction and amount. A fractional amount
// rolls by a share of the axis length and cannot target several axes.
func (v *SemanticValidator) validateRoll(op *ast.Operation) {
	dir := op.Args[0]
	axes := 1
	switch {
	case dir.Type == ast.ValueTypeString:
		if !rollDirections[dir.Str] {
			v.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Operation %q: unknown direction %q", op.Kind, dir.Str),
				argLoc(op, 0),
				"Known directions: h, horizontal, v, vertical, c, channels")
			return
		}
	case dir.IsWholeNumber():
		if dir.AsInt() < 0 || dir.AsInt() > 3 {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Operation %q: axis must be 0..3, got %d", op.Kind, dir.AsInt()),
				argLoc(op, 0))
			return
		}
	case dir.Type == ast.ValueTypeList:
		if len(dir.List) == 0 {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Operation %q: axis list is empty", op.Kind),
				argLoc(op, 0))
			return
		}
		for _, axis := range dir.List {
			if !axis.IsWholeNumber() || axis.AsInt() < 0 || axis.AsInt() > 3 {
				v.errors.AddError(lrlErrors.ErrorTypeValidation,
					fmt.Sprintf("Operation %q: axes must be integers 0..3, got %s", op.Kind, axis.String()),
					argLoc(op, 0))
				return
			}
		}
		axes = len(dir.List)
	default:
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: direction must be a name, an axis, or an axis list, got %s", op.Kind, dir.Type),
			argLoc(op, 0))
		return
	}

	amount := op.Args[1]
	if !amount.IsNumber() {
		v.errors.AddError(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Operation %q: amount must be a number, got %s", op.Kind, amount.Type),
			argLoc(op, 1))
		return
	}
	if amount.Type == ast.ValueTypeFloat {
		if amount.Float <= -1.0 || amount.Float >= 1.0 {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Operation %q: fractional amount must be between -1 and 1, got %g", op.Kind, amount.Float),
				argLoc(op, 1))
			return
		}
		if axes > 1 {
			v.errors.AddError(lrlErrors.ErrorTypeValidation,
				fmt.Sprintf("Operation %q: fractional amount cannot target several axes", op.Kind),
				argLoc(op, 1))
		}
	}
}
