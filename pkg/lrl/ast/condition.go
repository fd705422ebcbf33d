package ast

import "fmt"

// CondField identifies what a condition tests. Membership fields test the
// corresponding state value against a value set; the range fields compare
// against thresholds; FieldCond embeds a general Comparison.
type CondField string

const (
	FieldType         CondField = "type"
	FieldBlock        CondField = "block"
	FieldStage        CondField = "stage"
	FieldPercent      CondField = "percent"
	FieldFromPercent  CondField = "from_percent"
	FieldToPercent    CondField = "to_percent"
	FieldStep         CondField = "step"
	FieldStepExact    CondField = "step_exact"
	FieldFromStep     CondField = "from_step"
	FieldToStep       CondField = "to_step"
	FieldStepInterval CondField = "step_interval"
	FieldCond         CondField = "cond"
)

// condFieldNames lists every condition field accepted in documents.
var condFieldNames = []string{
	"type", "block", "stage", "percent", "from_percent", "to_percent",
	"step", "step_exact", "from_step", "to_step", "step_interval", "cond",
}

// CondFieldNames returns the accepted condition field names.
func CondFieldNames() []string {
	out := make([]string, len(condFieldNames))
	copy(out, condFieldNames)
	return out
}

// ParseCondField resolves a document field name.
func ParseCondField(name string) (CondField, error) {
	for _, known := range condFieldNames {
		if name == known {
			return CondField(name), nil
		}
	}
	return "", fmt.Errorf("unknown condition field %q", name)
}

// CompareOp is a comparison operator inside a `cond` expression.
// Relational operators apply between a field and values; the boolean
// operators compose nested condition groups.
type CompareOp string

const (
	OpEq  CompareOp = "eq"
	OpNe  CompareOp = "ne"
	OpGt  CompareOp = "gt"
	OpLt  CompareOp = "lt"
	OpGe  CompareOp = "ge"
	OpLe  CompareOp = "le"
	OpNot CompareOp = "not"
	OpOr  CompareOp = "or"
	OpAnd CompareOp = "and"
)

// compareOpNames lists every comparison operator accepted in documents.
var compareOpNames = []string{"eq", "ne", "gt", "lt", "ge", "le", "not", "or", "and"}

// CompareOpNames returns the accepted comparison operator names.
func CompareOpNames() []string {
	out := make([]string, len(compareOpNames))
	copy(out, compareOpNames)
	return out
}

// ParseCompareOp resolves a document operator name.
func ParseCompareOp(name string) (CompareOp, error) {
	for _, known := range compareOpNames {
		if name == known {
			return CompareOp(name), nil
		}
	}
	return "", fmt.Errorf("unknown comparison operator %q", name)
}

// IsBoolean reports whether the operator composes nested groups rather
// than comparing a field.
func (op CompareOp) IsBoolean() bool {
	return op == OpNot || op == OpOr || op == OpAnd
}

// comparableFields are the state fields a relational comparison may
// reference.
var comparableFields = map[CondField]bool{
	FieldType:      true,
	FieldBlock:     true,
	FieldStage:     true,
	FieldPercent:   true,
	FieldStep:      true,
	FieldStepExact: true,
}

// Comparable reports whether the field may appear in a relational
// comparison.
func (f CondField) Comparable() bool {
	return comparableFields[f]
}

// Condition is one entry of a rule's `if` list.
//
// For membership and range fields, Values holds the comparison values.
// For FieldCond, Compare holds the embedded comparison and Values is nil.
type Condition struct {
	Field    CondField
	Values   []Value
	Compare  *Comparison
	Location Location
}

// Comparison is a `cond` expression node.
//
// Leaf form (relational Op): Field names a comparable state field and
// Values holds one or more comparison values; the operator must hold
// against every value (AND across values). Composite form (boolean Op):
// Groups holds nested condition groups combined by the operator; for
// OpNot the comparison is true only when every group is false.
type Comparison struct {
	Op       CompareOp
	Field    CondField
	Values   []Value
	Groups   []*ConditionGroup
	Location Location
}

// IsLeaf reports whether this is a relational comparison.
func (c *Comparison) IsLeaf() bool {
	return !c.Op.IsBoolean()
}

// ConditionGroup is an ordered conjunction of conditions. An empty group
// always matches.
type ConditionGroup struct {
	Conds    []*Condition
	Location Location
}
