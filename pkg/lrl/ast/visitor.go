package ast

// Visitor provides an interface for traversing the AST.
// Implement this interface to perform operations on AST nodes
// (validation, transformation, analysis, etc.).
type Visitor interface {
	VisitDocument(*Document) error
	VisitRule(*Rule) error
	VisitCondition(*Condition) error
	VisitComparison(*Comparison) error
	VisitOperation(*Operation) error
	VisitValue(*Value) error
}

// Walk traverses the AST starting from the document node and calls the visitor
// for each node. It returns the first error encountered, or nil if traversal
// completes. Branch rules and operation sub-trees are walked depth-first.
func Walk(doc *Document, visitor Visitor) error {
	if err := visitor.VisitDocument(doc); err != nil {
		return err
	}
	for _, rule := range doc.Rules {
		if err := walkRule(rule, visitor); err != nil {
			return err
		}
	}
	return nil
}

// walkRule visits a rule, its conditions, its operations, and both branches.
func walkRule(rule *Rule, visitor Visitor) error {
	if err := visitor.VisitRule(rule); err != nil {
		return err
	}

	if rule.If != nil {
		for _, cond := range rule.If.Conds {
			if err := walkCondition(cond, visitor); err != nil {
				return err
			}
		}
	}

	for _, op := range rule.Ops {
		if err := walkOperation(op, visitor); err != nil {
			return err
		}
	}

	for _, child := range rule.Then {
		if err := walkRule(child, visitor); err != nil {
			return err
		}
	}
	for _, child := range rule.Else {
		if err := walkRule(child, visitor); err != nil {
			return err
		}
	}

	return nil
}

// walkCondition visits a condition, its values, and any nested comparison tree.
func walkCondition(cond *Condition, visitor Visitor) error {
	if err := visitor.VisitCondition(cond); err != nil {
		return err
	}
	for i := range cond.Values {
		if err := visitor.VisitValue(&cond.Values[i]); err != nil {
			return err
		}
	}
	if cond.Compare != nil {
		if err := walkComparison(cond.Compare, visitor); err != nil {
			return err
		}
	}
	return nil
}

// walkComparison recursively walks a comparison tree. Leaf comparisons carry
// values; boolean comparisons carry condition groups.
func walkComparison(cmp *Comparison, visitor Visitor) error {
	if err := visitor.VisitComparison(cmp); err != nil {
		return err
	}
	for i := range cmp.Values {
		if err := visitor.VisitValue(&cmp.Values[i]); err != nil {
			return err
		}
	}
	for _, group := range cmp.Groups {
		for _, cond := range group.Conds {
			if err := walkCondition(cond, visitor); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkOperation visits an operation, its arguments, and any nested rules
// it carries.
func walkOperation(op *Operation, visitor Visitor) error {
	if err := visitor.VisitOperation(op); err != nil {
		return err
	}
	for i := range op.Args {
		if err := visitor.VisitValue(&op.Args[i]); err != nil {
			return err
		}
	}
	for _, sub := range op.SubRules {
		if err := walkRule(sub, visitor); err != nil {
			return err
		}
	}
	return nil
}
