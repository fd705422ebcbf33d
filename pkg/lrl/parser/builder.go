package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"latent-hq/callisto/pkg/lrl/ast"
	lrlErrors "latent-hq/callisto/pkg/lrl/errors"
)

// ruleKeys are the keys accepted in a rule mapping.
var ruleKeys = []string{"if", "ops", "then", "else"}

// builder constructs AST nodes from YAML nodes.
// It accumulates errors instead of failing on the first problem, and
// preserves source locations from the YAML parser.
type builder struct {
	sourcePath string
	maxDepth   int
	strict     bool
	errors     *lrlErrors.ErrorList
}

// newBuilder creates a new AST builder for the given source.
func newBuilder(sourcePath string, maxDepth int, strict bool) *builder {
	return &builder{
		sourcePath: sourcePath,
		maxDepth:   maxDepth,
		strict:     strict,
		errors:     lrlErrors.NewErrorList(),
	}
}

// loc extracts the source location from a YAML node.
func (b *builder) loc(node *yaml.Node) ast.Location {
	if node == nil {
		return ast.Location{File: b.sourcePath}
	}
	return ast.Location{File: b.sourcePath, Line: node.Line, Column: node.Column}
}

// buildDocument transforms the YAML root node into an ast.Document.
// A nil or null root builds to an empty document. A single rule mapping
// is promoted to a one-rule document.
func (b *builder) buildDocument(root *yaml.Node) (*ast.Document, error) {
	doc := &ast.Document{
		Location: ast.Location{File: b.sourcePath, Line: 1, Column: 1},
	}

	root = resolveAlias(root)
	if !isNullNode(root) {
		switch root.Kind {
		case yaml.SequenceNode:
			doc.Rules = make([]*ast.Rule, 0, len(root.Content))
			for _, item := range root.Content {
				if rule := b.buildRule(item, 0); rule != nil {
					doc.Rules = append(doc.Rules, rule)
				}
			}
		case yaml.MappingNode:
			if rule := b.buildRule(root, 0); rule != nil {
				doc.Rules = []*ast.Rule{rule}
			}
		default:
			b.errors.AddError(lrlErrors.ErrorTypeStructural,
				"Rule document must be a sequence of rule mappings",
				b.loc(root))
		}
	}

	if b.errors.HasErrors() {
		return nil, b.errors
	}
	return doc, nil
}

// buildRule transforms a rule mapping into an ast.Rule.
// Returns nil if the node is malformed; the error is accumulated.
func (b *builder) buildRule(node *yaml.Node, depth int) *ast.Rule {
	node = resolveAlias(node)
	if depth > b.maxDepth {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Rule nesting exceeds maximum depth %d", b.maxDepth),
			b.loc(node))
		return nil
	}
	if node == nil || node.Kind != yaml.MappingNode {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Rule must be a mapping with keys 'if', 'ops', 'then', 'else'",
			b.loc(node))
		return nil
	}

	rule := &ast.Rule{Location: b.loc(node)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		switch keyNode.Value {
		case "if":
			rule.If = b.buildConditions(valNode, depth)
		case "ops":
			rule.Ops = b.buildOperations(valNode, depth)
		case "then":
			rule.Then = b.buildRuleList(valNode, depth+1)
		case "else":
			rule.Else = b.buildRuleList(valNode, depth+1)
		default:
			if b.strict {
				b.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeStructural,
					fmt.Sprintf("Unknown rule key %q", keyNode.Value),
					b.loc(keyNode),
					lrlErrors.SuggestFieldName(keyNode.Value, ruleKeys))
			}
		}
	}
	return rule
}

// buildRuleList transforms a branch value into a rule list. A single
// mapping is promoted to a one-element list.
func (b *builder) buildRuleList(node *yaml.Node, depth int) []*ast.Rule {
	node = resolveAlias(node)
	if isNullNode(node) {
		return nil
	}

	switch node.Kind {
	case yaml.MappingNode:
		if rule := b.buildRule(node, depth); rule != nil {
			return []*ast.Rule{rule}
		}
		return nil
	case yaml.SequenceNode:
		rules := make([]*ast.Rule, 0, len(node.Content))
		for _, item := range node.Content {
			if rule := b.buildRule(item, depth); rule != nil {
				rules = append(rules, rule)
			}
		}
		return rules
	default:
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Branch must be a rule mapping or a sequence of rule mappings",
			b.loc(node))
		return nil
	}
}

// buildConditions transforms an `if` value into an ast.ConditionGroup.
// Accepted forms:
//   - sequence of [field, ...values] entries
//   - a single entry (first element is a string): if: ["block", 3]
//   - a mapping: if: {block: [3, 4], to_percent: 0.35}
//
// A null value builds to nil (the rule always matches).
func (b *builder) buildConditions(node *yaml.Node, depth int) *ast.ConditionGroup {
	node = resolveAlias(node)
	if isNullNode(node) {
		return nil
	}

	group := &ast.ConditionGroup{Location: b.loc(node)}
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if cond := b.buildConditionPair(keyNode, valNode, depth); cond != nil {
				group.Conds = append(group.Conds, cond)
			}
		}
	case yaml.SequenceNode:
		if len(node.Content) > 0 && isStringScalar(resolveAlias(node.Content[0])) {
			// Single condition entry shorthand
			if cond := b.buildConditionEntry(node, depth); cond != nil {
				group.Conds = append(group.Conds, cond)
			}
			return group
		}
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item == nil || item.Kind != yaml.SequenceNode {
				b.errors.AddError(lrlErrors.ErrorTypeStructural,
					"Condition entry must be a [field, ...values] sequence",
					b.loc(item))
				continue
			}
			if cond := b.buildConditionEntry(item, depth); cond != nil {
				group.Conds = append(group.Conds, cond)
			}
		}
	default:
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Conditions must be a sequence or a mapping",
			b.loc(node))
		return nil
	}
	return group
}

// buildConditionEntry builds a condition from a [field, ...values]
// sequence. The trailing values may also be given as one nested list.
func (b *builder) buildConditionEntry(node *yaml.Node, depth int) *ast.Condition {
	if len(node.Content) == 0 {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Condition entry is empty", b.loc(node))
		return nil
	}
	fieldNode := resolveAlias(node.Content[0])
	if !isStringScalar(fieldNode) {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Condition field must be a string", b.loc(fieldNode))
		return nil
	}
	return b.buildCondition(fieldNode.Value, fieldNode, node.Content[1:], b.loc(node), depth)
}

// buildConditionPair builds a condition from a mapping entry.
func (b *builder) buildConditionPair(keyNode, valNode *yaml.Node, depth int) *ast.Condition {
	valNode = resolveAlias(valNode)
	values := []*yaml.Node{valNode}
	if valNode != nil && valNode.Kind == yaml.SequenceNode {
		values = valNode.Content
	}
	return b.buildCondition(keyNode.Value, keyNode, values, b.loc(keyNode), depth)
}

// buildCondition assembles a condition from a field name and value nodes.
// FieldCond consumes the values as an embedded comparison.
func (b *builder) buildCondition(fieldName string, fieldNode *yaml.Node, values []*yaml.Node, loc ast.Location, depth int) *ast.Condition {
	field, err := ast.ParseCondField(fieldName)
	if err != nil {
		b.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeSemantic,
			fmt.Sprintf("Unknown condition field %q", fieldName),
			b.loc(fieldNode),
			lrlErrors.SuggestFieldName(fieldName, ast.CondFieldNames()))
		return nil
	}

	cond := &ast.Condition{Field: field, Location: loc}
	if field == ast.FieldCond {
		cond.Compare = b.buildComparison(values, loc, depth)
		if cond.Compare == nil {
			return nil
		}
		return cond
	}

	for _, vn := range values {
		v, ok := b.buildValue(vn)
		if !ok {
			continue
		}
		// Flatten one nested list so ["block", [3, 4]] and
		// ["block", 3, 4] read the same
		if v.Type == ast.ValueTypeList {
			cond.Values = append(cond.Values, v.List...)
			continue
		}
		cond.Values = append(cond.Values, v)
	}
	if len(cond.Values) == 0 {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Condition %q needs at least one value", fieldName), loc)
		return nil
	}
	return cond
}

// buildComparison builds a `cond` expression from its parts. The parts
// are [operator, ...operands], optionally wrapped in one nested list.
// Boolean operators take condition-group operands; relational operators
// take a field name and compare values.
func (b *builder) buildComparison(parts []*yaml.Node, loc ast.Location, depth int) *ast.Comparison {
	if depth > b.maxDepth {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Comparison nesting exceeds maximum depth %d", b.maxDepth), loc)
		return nil
	}
	if len(parts) == 1 {
		if inner := resolveAlias(parts[0]); inner != nil && inner.Kind == yaml.SequenceNode {
			parts = inner.Content
		}
	}
	if len(parts) == 0 {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Comparison needs an operator", loc)
		return nil
	}

	opNode := resolveAlias(parts[0])
	if !isStringScalar(opNode) {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Comparison operator must be a string", b.loc(opNode))
		return nil
	}
	op, err := ast.ParseCompareOp(opNode.Value)
	if err != nil {
		b.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeSemantic,
			fmt.Sprintf("Unknown comparison operator %q", opNode.Value),
			b.loc(opNode),
			lrlErrors.SuggestFieldName(opNode.Value, ast.CompareOpNames()))
		return nil
	}

	cmp := &ast.Comparison{Op: op, Location: loc}
	if op.IsBoolean() {
		for _, g := range parts[1:] {
			if group := b.buildConditions(g, depth+1); group != nil {
				cmp.Groups = append(cmp.Groups, group)
			}
		}
		if len(cmp.Groups) == 0 {
			b.errors.AddError(lrlErrors.ErrorTypeStructural,
				fmt.Sprintf("Comparison %q needs at least one condition group", op), loc)
			return nil
		}
		return cmp
	}

	if len(parts) < 2 {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Comparison %q needs a field name", op), loc)
		return nil
	}
	fieldNode := resolveAlias(parts[1])
	if !isStringScalar(fieldNode) {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Comparison field must be a string", b.loc(fieldNode))
		return nil
	}
	field, err := ast.ParseCondField(fieldNode.Value)
	if err != nil {
		b.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeSemantic,
			fmt.Sprintf("Unknown condition field %q", fieldNode.Value),
			b.loc(fieldNode),
			lrlErrors.SuggestFieldName(fieldNode.Value, ast.CondFieldNames()))
		return nil
	}
	if !field.Comparable() {
		b.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeValidation,
			fmt.Sprintf("Condition field %q cannot be compared", field),
			b.loc(fieldNode),
			"Comparable fields: type, block, stage, percent, step, step_exact")
		return nil
	}
	cmp.Field = field

	for _, vn := range parts[2:] {
		v, ok := b.buildValue(vn)
		if !ok {
			continue
		}
		if v.Type == ast.ValueTypeList {
			cmp.Values = append(cmp.Values, v.List...)
			continue
		}
		cmp.Values = append(cmp.Values, v)
	}
	if len(cmp.Values) == 0 {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			fmt.Sprintf("Comparison %q needs at least one value", op), loc)
		return nil
	}
	return cmp
}

// buildOperations transforms an `ops` value into an operation list.
func (b *builder) buildOperations(node *yaml.Node, depth int) []*ast.Operation {
	node = resolveAlias(node)
	if isNullNode(node) {
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Operations must be a sequence", b.loc(node))
		return nil
	}

	if len(node.Content) > 0 && isStringScalar(resolveAlias(node.Content[0])) {
		// Single operation shorthand
		if op := b.buildOperation(node, depth); op != nil {
			return []*ast.Operation{op}
		}
		return nil
	}

	ops := make([]*ast.Operation, 0, len(node.Content))
	for _, item := range node.Content {
		if op := b.buildOperation(item, depth); op != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

// buildOperation builds an operation from a [name, ...args] sequence.
// For blend_op and mask_example_op, the trailing definition list becomes
// SubRules rather than an argument value.
func (b *builder) buildOperation(node *yaml.Node, depth int) *ast.Operation {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.SequenceNode || len(node.Content) == 0 {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Operation must be a [name, ...args] sequence", b.loc(node))
		return nil
	}
	kindNode := resolveAlias(node.Content[0])
	if !isStringScalar(kindNode) {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Operation name must be a string", b.loc(kindNode))
		return nil
	}
	kind, err := ast.ParseOpKind(kindNode.Value)
	if err != nil {
		b.errors.AddErrorWithSuggestion(lrlErrors.ErrorTypeSemantic,
			fmt.Sprintf("Unknown operation %q", kindNode.Value),
			b.loc(kindNode),
			lrlErrors.SuggestOpKind(kindNode.Value, ast.OpKindNames()))
		return nil
	}

	op := &ast.Operation{Kind: kind, Location: b.loc(node)}
	args := node.Content[1:]
	switch kind {
	case ast.OpBlendOp:
		if len(args) > 2 {
			op.SubRules = b.buildSubRules(args[2], depth)
			args = args[:2]
		}
	case ast.OpMaskExampleOp:
		if len(args) > 3 {
			op.SubRules = b.buildSubRules(args[3], depth)
			args = args[:3]
		}
	}
	for _, a := range args {
		if v, ok := b.buildValue(a); ok {
			op.Args = append(op.Args, v)
		}
	}
	return op
}

// buildSubRules builds the nested definition list of a blend-style
// operation. Entries may mix bare operations and rule mappings; a bare
// operation is wrapped in a condition-free single-op rule to keep the
// list ordered and uniform. A list whose first element is a string is a
// single bare operation.
func (b *builder) buildSubRules(node *yaml.Node, depth int) []*ast.Rule {
	node = resolveAlias(node)
	if isNullNode(node) {
		// Declared but empty: the blend collapses to a copy
		return []*ast.Rule{}
	}
	if node.Kind != yaml.SequenceNode {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Nested operations must be a sequence", b.loc(node))
		return nil
	}

	if len(node.Content) > 0 && isStringScalar(resolveAlias(node.Content[0])) {
		// Single operation shorthand
		if op := b.buildOperation(node, depth+1); op != nil {
			return []*ast.Rule{{Ops: []*ast.Operation{op}, Location: op.Location}}
		}
		return nil
	}

	rules := make([]*ast.Rule, 0, len(node.Content))
	for _, item := range node.Content {
		resolved := resolveAlias(item)
		if resolved != nil && resolved.Kind == yaml.MappingNode {
			if rule := b.buildRule(resolved, depth+1); rule != nil {
				rules = append(rules, rule)
			}
			continue
		}
		if op := b.buildOperation(item, depth+1); op != nil {
			rules = append(rules, &ast.Rule{Ops: []*ast.Operation{op}, Location: op.Location})
		}
	}
	return rules
}

// buildValue transforms a YAML node into an ast.Value.
func (b *builder) buildValue(node *yaml.Node) (ast.Value, bool) {
	node = resolveAlias(node)
	if node == nil {
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Missing value", ast.Location{File: b.sourcePath})
		return ast.Value{}, false
	}

	loc := b.loc(node)
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!str":
			v := ast.StringValue(node.Value)
			v.Location = loc
			return v, true
		case "!!int":
			var i int64
			if err := node.Decode(&i); err != nil {
				b.errors.AddError(lrlErrors.ErrorTypeSyntax,
					fmt.Sprintf("Invalid integer %q: %v", node.Value, err), loc)
				return ast.Value{}, false
			}
			v := ast.IntValue(i)
			v.Location = loc
			return v, true
		case "!!float":
			var f float64
			if err := node.Decode(&f); err != nil {
				b.errors.AddError(lrlErrors.ErrorTypeSyntax,
					fmt.Sprintf("Invalid float %q: %v", node.Value, err), loc)
				return ast.Value{}, false
			}
			v := ast.FloatValue(f)
			v.Location = loc
			return v, true
		case "!!bool":
			var t bool
			if err := node.Decode(&t); err != nil {
				b.errors.AddError(lrlErrors.ErrorTypeSyntax,
					fmt.Sprintf("Invalid boolean %q: %v", node.Value, err), loc)
				return ast.Value{}, false
			}
			v := ast.BoolValue(t)
			v.Location = loc
			return v, true
		case "!!null":
			b.errors.AddError(lrlErrors.ErrorTypeStructural,
				"Null is not a valid value", loc)
			return ast.Value{}, false
		default:
			// Unusual tags (timestamps and the like) are kept as strings
			v := ast.StringValue(node.Value)
			v.Location = loc
			return v, true
		}
	case yaml.SequenceNode:
		items := make([]ast.Value, 0, len(node.Content))
		for _, item := range node.Content {
			v, ok := b.buildValue(item)
			if !ok {
				return ast.Value{}, false
			}
			items = append(items, v)
		}
		v := ast.ListValue(items...)
		v.Location = loc
		return v, true
	default:
		b.errors.AddError(lrlErrors.ErrorTypeStructural,
			"Mappings are not valid argument values", loc)
		return ast.Value{}, false
	}
}
