package engine

import (
	"fmt"

	"latent-hq/callisto/pkg/latent"
	"latent-hq/callisto/pkg/lrl/ast"
	"latent-hq/callisto/pkg/lrl/validator"
)

// Program is an immutable compiled rule set. Engines swap whole
// programs on reload; a program never changes after Compile returns.
type Program struct {
	rules []*compiledRule
	sites map[string]bool
}

// Compile validates documents and compiles them into a runnable
// program. Rules keep document order; multiple documents concatenate
// in argument order.
func Compile(docs ...*ast.Document) (*Program, error) {
	v := validator.NewValidator()
	program := &Program{sites: make(map[string]bool)}
	for _, doc := range docs {
		if doc.Empty() {
			continue
		}
		if err := v.Validate(doc); err != nil {
			return nil, &ConfigError{Stage: "validate", Cause: err}
		}
		for _, rule := range doc.Rules {
			cr, err := compileRule(rule)
			if err != nil {
				return nil, &ConfigError{Stage: "compile", Cause: err}
			}
			program.rules = append(program.rules, cr)
		}
		for site := range doc.Sites() {
			program.sites[site] = true
		}
	}
	return program, nil
}

// Len returns the number of top-level rules.
func (p *Program) Len() int {
	return len(p.rules)
}

// Sites returns every site tag the program's type conditions mention,
// including conditions nested in cond expressions and blending
// operations. When every rule carries a type condition this is exactly
// the set of hooks worth registering; an empty map means no rule
// constrains its site and hosts should register every hook.
func (p *Program) Sites() map[string]bool {
	out := make(map[string]bool, len(p.sites))
	for site := range p.sites {
		out[site] = true
	}
	return out
}

type compiledRule struct {
	cond *compiledGroup // nil matches unconditionally
	ops  []*compiledOp
	then []*compiledRule
	els  []*compiledRule
}

func compileRule(rule *ast.Rule) (*compiledRule, error) {
	cr := &compiledRule{}
	if rule.If != nil && len(rule.If.Conds) > 0 {
		g, err := compileGroup(rule.If)
		if err != nil {
			return nil, err
		}
		cr.cond = g
	}
	for _, op := range rule.Ops {
		cop, err := compileOp(op)
		if err != nil {
			return nil, err
		}
		cr.ops = append(cr.ops, cop)
	}
	var err error
	if cr.then, err = compileRules(rule.Then); err != nil {
		return nil, err
	}
	if cr.els, err = compileRules(rule.Else); err != nil {
		return nil, err
	}
	return cr, nil
}

func compileRules(rules []*ast.Rule) ([]*compiledRule, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	out := make([]*compiledRule, 0, len(rules))
	for _, rule := range rules {
		cr, err := compileRule(rule)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, nil
}

type compiledGroup struct {
	conds []*compiledCond
}

func compileGroup(g *ast.ConditionGroup) (*compiledGroup, error) {
	out := &compiledGroup{conds: make([]*compiledCond, 0, len(g.Conds))}
	for _, cond := range g.Conds {
		cc, err := compileCond(cond)
		if err != nil {
			return nil, err
		}
		out.conds = append(out.conds, cc)
	}
	return out, nil
}

// compiledCond holds one condition with its values pre-sorted into
// typed sets. Which set is populated depends on the field.
type compiledCond struct {
	field ast.CondField
	strs  map[string]bool // type membership
	ints  map[int]bool    // block/stage/step/step_exact membership
	nums  []float64       // percent membership, percent bounds
	steps []int           // step bounds, interval divisors
	cmp   *compiledCmp
}

func compileCond(cond *ast.Condition) (*compiledCond, error) {
	cc := &compiledCond{field: cond.Field}
	switch cond.Field {
	case ast.FieldCond:
		cmp, err := compileCmp(cond.Compare)
		if err != nil {
			return nil, err
		}
		cc.cmp = cmp
	case ast.FieldType:
		cc.strs = make(map[string]bool, len(cond.Values))
		for _, v := range cond.Values {
			cc.strs[v.Str] = true
		}
	case ast.FieldBlock, ast.FieldStage, ast.FieldStep, ast.FieldStepExact:
		cc.ints = make(map[int]bool, len(cond.Values))
		for _, v := range cond.Values {
			cc.ints[v.AsInt()] = true
		}
	case ast.FieldPercent, ast.FieldFromPercent, ast.FieldToPercent:
		for _, v := range cond.Values {
			cc.nums = append(cc.nums, v.AsFloat())
		}
	case ast.FieldFromStep, ast.FieldToStep, ast.FieldStepInterval:
		for _, v := range cond.Values {
			cc.steps = append(cc.steps, v.AsInt())
		}
	default:
		return nil, fmt.Errorf("internal: unhandled condition field %q", cond.Field)
	}
	return cc, nil
}

// compiledCmp is a compiled `cond` expression node. Boolean operators
// carry nested groups, relational operators a field plus value list.
type compiledCmp struct {
	op     ast.CompareOp
	field  ast.CondField
	strs   []string
	nums   []float64
	groups []*compiledGroup
}

func compileCmp(cmp *ast.Comparison) (*compiledCmp, error) {
	out := &compiledCmp{op: cmp.Op, field: cmp.Field}
	if cmp.Op.IsBoolean() {
		for _, g := range cmp.Groups {
			cg, err := compileGroup(g)
			if err != nil {
				return nil, err
			}
			out.groups = append(out.groups, cg)
		}
		return out, nil
	}
	for _, v := range cmp.Values {
		if v.Type == ast.ValueTypeString {
			out.strs = append(out.strs, v.Str)
		} else {
			out.nums = append(out.nums, v.AsFloat())
		}
	}
	return out, nil
}

// compiledOp is one operation with its arguments decoded into typed
// fields. Which fields are meaningful depends on the kind; the
// executor's dispatch knows the layout per kind.
type compiledOp struct {
	kind ast.OpKind
	loc  ast.Location

	modeW, modeH   latent.Mode
	scaleW, scaleH float64
	antialiasSize  int

	axis     int
	axes     []int
	count    int
	amount   float64
	fraction bool

	factor    float64
	strength  float64
	threshold int
	gains     []float32

	blend     float64
	blendFunc latent.BlendFunc
	flag      bool

	mask *latent.Tensor
	sub  []*compiledRule
}

func compileOp(op *ast.Operation) (*compiledOp, error) {
	out := &compiledOp{kind: op.Kind, loc: op.Location}
	args := op.Args
	var err error
	switch op.Kind {
	case ast.OpScaleBasic:
		if out.modeW, err = latent.ParseMode(args[0].Str, false); err != nil {
			return nil, opArgError(op, err)
		}
		out.modeH = out.modeW
		out.scaleW, out.scaleH = args[1].AsFloat(), args[2].AsFloat()
		if args[3].Bool {
			out.antialiasSize = 8
		}
	case ast.OpUnscaleBasic:
		if out.modeW, err = latent.ParseMode(args[0].Str, false); err != nil {
			return nil, opArgError(op, err)
		}
		out.modeH = out.modeW
		if args[1].Bool {
			out.antialiasSize = 8
		}
	case ast.OpScale:
		if out.modeW, out.modeH, err = parseModePair(args[0].Str, args[1].Str); err != nil {
			return nil, opArgError(op, err)
		}
		out.scaleW, out.scaleH = args[2].AsFloat(), args[3].AsFloat()
		out.antialiasSize = args[4].AsInt()
	case ast.OpUnscale:
		if out.modeW, out.modeH, err = parseModePair(args[0].Str, args[1].Str); err != nil {
			return nil, opArgError(op, err)
		}
		out.antialiasSize = args[2].AsInt()
	case ast.OpFlip:
		out.axis = 3
		if args[0].Str == "v" {
			out.axis = 2
		}
	case ast.OpRot90, ast.OpRollChannels:
		out.count = args[0].AsInt()
	case ast.OpRoll:
		if err = compileRoll(out, args); err != nil {
			return nil, opArgError(op, err)
		}
	case ast.OpTargetSkip:
		out.flag = args[0].Bool
	case ast.OpMultiply:
		out.factor = args[0].AsFloat()
	case ast.OpFFilter:
		out.factor = args[0].AsFloat()
		if out.gains, err = compileGains(args[1]); err != nil {
			return nil, opArgError(op, err)
		}
		out.strength = args[2].AsFloat()
		out.threshold = args[3].AsInt()
	case ast.OpSlice:
		out.factor = args[0].AsFloat()
		out.strength = args[1].AsFloat()
		out.blend = args[2].AsFloat()
		if out.blendFunc, err = latent.BlendMode(args[3].Str); err != nil {
			return nil, opArgError(op, err)
		}
		out.flag = args[4].Bool
	case ast.OpBlendOp:
		out.blend = args[0].AsFloat()
		if out.blendFunc, err = latent.BlendMode(args[1].Str); err != nil {
			return nil, opArgError(op, err)
		}
		if out.sub, err = compileRules(op.SubRules); err != nil {
			return nil, err
		}
	case ast.OpMaskExampleOp:
		if out.modeW, err = latent.ParseMode(args[0].Str, true); err != nil {
			return nil, opArgError(op, err)
		}
		out.modeH = out.modeW
		out.antialiasSize = args[1].AsInt()
		if out.mask, err = compileMask(args[2]); err != nil {
			return nil, opArgError(op, err)
		}
		if out.sub, err = compileRules(op.SubRules); err != nil {
			return nil, err
		}
	case ast.OpAntialias:
		out.antialiasSize = args[0].AsInt()
	case ast.OpNoise:
		out.strength = args[0].AsFloat()
	case ast.OpDebug:
		// No arguments.
	default:
		return nil, fmt.Errorf("internal: unhandled operation kind %q", op.Kind)
	}
	return out, nil
}

// parseModePair resolves a width/height mode pair. The height mode
// "same" resolves to the width mode.
func parseModePair(width, height string) (latent.Mode, latent.Mode, error) {
	w, err := latent.ParseMode(width, true)
	if err != nil {
		return "", "", err
	}
	if latent.Mode(height) == latent.ModeSame {
		return w, w, nil
	}
	h, err := latent.ParseMode(height, true)
	if err != nil {
		return "", "", err
	}
	return w, h, nil
}

// compileRoll decodes the direction and amount arguments. A float
// amount is a fraction of the rolled axis, resolved per tensor at
// execution time.
func compileRoll(out *compiledOp, args []ast.Value) error {
	dir := args[0]
	switch {
	case dir.Type == ast.ValueTypeString:
		switch dir.Str {
		case "h", "horizontal":
			out.axes = []int{3}
		case "v", "vertical":
			out.axes = []int{2}
		case "c", "channels":
			out.axes = []int{1}
		default:
			return fmt.Errorf("unknown roll direction %q", dir.Str)
		}
	case dir.IsWholeNumber():
		out.axes = []int{dir.AsInt()}
	case dir.Type == ast.ValueTypeList:
		out.axes = make([]int, 0, len(dir.List))
		for _, axis := range dir.List {
			out.axes = append(out.axes, axis.AsInt())
		}
	default:
		return fmt.Errorf("roll direction must be a name, an axis, or an axis list")
	}
	amount := args[1]
	if amount.Type == ast.ValueTypeFloat {
		if len(out.axes) > 1 {
			return fmt.Errorf("fractional roll amounts need a single axis")
		}
		out.fraction = true
		out.amount = amount.Float
		return nil
	}
	out.count = amount.AsInt()
	return nil
}

// compileGains resolves a filter argument: a preset name or an
// explicit gain list.
func compileGains(v ast.Value) ([]float32, error) {
	if v.Type == ast.ValueTypeString {
		return latent.FilterPreset(v.Str)
	}
	gains := make([]float32, len(v.List))
	for i, item := range v.List {
		gains[i] = float32(item.AsFloat())
	}
	return gains, nil
}

// compileMask expands a mask grid definition into a (1, 1, rows, cols)
// tensor. The executor resizes it to the target's spatial size per
// evaluation.
func compileMask(v ast.Value) (*latent.Tensor, error) {
	rows, err := ast.ExpandMaskRows(v)
	if err != nil {
		return nil, err
	}
	h, w := len(rows), len(rows[0])
	data := make([]float32, 0, h*w)
	for _, row := range rows {
		for _, cell := range row {
			data = append(data, float32(cell))
		}
	}
	return latent.FromSlice(data, 1, 1, h, w)
}

func opArgError(op *ast.Operation, err error) error {
	if op.Location.IsValid() {
		return fmt.Errorf("operation %q at %s: %w", op.Kind, op.Location, err)
	}
	return fmt.Errorf("operation %q: %w", op.Kind, err)
}
