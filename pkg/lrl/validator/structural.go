package validator

import (
	"fmt"

	"latent-hq/callisto/pkg/lrl/ast"
	lrlErrors "latent-hq/callisto/pkg/lrl/errors"
)

// StructuralValidator validates the structural integrity of a document:
// node shapes, known names, and nesting depth. Documents built by the
// parser already satisfy most of these checks; programmatically
// constructed ASTs go through them here for the first time.
type StructuralValidator struct {
	maxDepth int
	errors   *lrlErrors.ErrorList
}

// NewStructuralValidator creates a new structural validator.
func NewStructuralValidator() *StructuralValidator {
	return &StructuralValidator{
		maxDepth: 32,
		errors:   lrlErrors.NewErrorList(),
	}
}

// WithMaxDepth sets the maximum rule/comparison nesting depth.
func (v *StructuralValidator) WithMaxDepth(depth int) *StructuralValidator {
	v.maxDepth = depth
	return v
}

// Validate performs structural validation on a document.
// It returns an ErrorList containing all structural errors found.
func (v *StructuralValidator) Validate(doc *ast.Document) error {
	v.errors = lrlErrors.NewErrorList()

	if doc == nil {
		v.errors.AddError(lrlErrors.ErrorTypeStructural, "Document is nil", ast.Location{})
		return v.errors.ToError()
	}

	for _, rule := range doc.Rules {
		v.validateRule(rule, 0)
	}

	return v.errors.ToError()
}

// validateRule checks one rule and recurses into its branches.
func (v *StructuralValidator) validateRule(rule *ast.Rule, depth int) {
	if rule == nil {
		v.errors.AddError(lrlErrors.ErrorTypeStructural, "Rule is nil", ast.Location{})
		return
	}
	if depth > v.maxDepth {
		v.errors.AddError(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Rule nesting exceeds maximum depth %d", v.maxDepth),
			rule.Location)
		return
	}

	if rule.If != nil {
		for _, cond := range rule.If.Conds {
			v.validateCondition(cond, depth)
		}
	}
	for _, op := range rule.Ops {
		v.validateOperation(op, depth)
	}
	for _, child := range rule.Then {
		v.validateRule(child, depth+1)
	}
	for _, child := range rule.Else {
		v.validateRule(child, depth+1)
	}
}

// validateCondition checks a condition's shape.
func (v *StructuralValidator) validateCondition(cond *ast.Condition, depth int) {
	if cond == nil {
		v.errors.AddError(lrlErrors.ErrorTypeStructural, "Condition is nil", ast.Location{})
		return
	}
	if _, err := ast.ParseCondField(string(cond.Field)); err != nil {
		v.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Unknown condition field %q", cond.Field),
			cond.Location,
			lrlErrors.SuggestFieldName(string(cond.Field), ast.CondFieldNames()))
		return
	}

	if cond.Field == ast.FieldCond {
		if cond.Compare == nil {
			v.errors.AddError(lrlErrors.ErrorTypeStructural,
				"Condition 'cond' needs a comparison", cond.Location)
			return
		}
		v.validateComparison(cond.Compare, depth)
		return
	}

	if len(cond.Values) == 0 {
		v.errors.AddError(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Condition %q needs at least one value", cond.Field),
			cond.Location)
	}
}

// validateComparison checks a comparison tree's shape.
func (v *StructuralValidator) validateComparison(cmp *ast.Comparison, depth int) {
	if depth > v.maxDepth {
		v.errors.AddError(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Comparison nesting exceeds maximum depth %d", v.maxDepth),
			cmp.Location)
		return
	}
	if _, err := ast.ParseCompareOp(string(cmp.Op)); err != nil {
		v.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Unknown comparison operator %q", cmp.Op),
			cmp.Location,
			lrlErrors.SuggestFieldName(string(cmp.Op), ast.CompareOpNames()))
		return
	}

	if cmp.Op.IsBoolean() {
		if len(cmp.Groups) == 0 {
			v.errors.AddError(lrlErrors.ErrorTypeStructural,
				fmt.Sprintf("Comparison %q needs at least one condition group", cmp.Op),
				cmp.Location)
		}
		for _, group := range cmp.Groups {
			if group == nil {
				continue
			}
			for _, cond := range group.Conds {
				v.validateCondition(cond, depth+1)
			}
		}
		return
	}

	if !cmp.Field.Comparable() {
		v.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Condition field %q cannot be compared", cmp.Field),
			cmp.Location,
			"Comparable fields: type, block, stage, percent, step, step_exact")
	}
	if len(cmp.Values) == 0 {
		v.errors.AddError(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Comparison %q needs at least one value", cmp.Op),
			cmp.Location)
	}
}

// validateOperation checks an operation's shape and recurses into nested
// rules.
func (v *StructuralValidator) validateOperation(op *ast.Operation, depth int) {
	if op == nil {
		v.errors.AddError(lrlErrors.ErrorTypeStructural, "Operation is nil", ast.Location{})
		return
	}
	if _, err := ast.ParseOpKind(string(op.Kind)); err != nil {
		v.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Unknown operation %q", op.Kind),
			op.Location,
			lrlErrors.SuggestOpKind(string(op.Kind), ast.OpKindNames()))
		return
	}
	for _, sub := range op.SubRules {
		v.validateRule(sub, depth+1)
	}
}
