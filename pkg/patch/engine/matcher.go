package engine

import (
	"math"

	"latent-hq/callisto/pkg/lrl/ast"
)

// match reports whether every condition in the group holds against
// the state. An empty group always matches.
func (g *compiledGroup) match(st *State) bool {
	for _, cond := range g.conds {
		if !cond.match(st) {
			return false
		}
	}
	return true
}

func (c *compiledCond) match(st *State) bool {
	switch c.field {
	case ast.FieldType:
		return c.strs[st.Site]
	case ast.FieldBlock:
		return c.ints[st.Block]
	case ast.FieldStage:
		return c.ints[st.Stage]
	case ast.FieldStep:
		return c.ints[st.Step]
	case ast.FieldStepExact:
		return c.ints[st.StepExact]
	case ast.FieldPercent:
		for _, v := range c.nums {
			if st.Percent == v {
				return true
			}
		}
		return false
	case ast.FieldFromPercent:
		for _, v := range c.nums {
			if st.Percent < v {
				return false
			}
		}
		return true
	case ast.FieldToPercent:
		for _, v := range c.nums {
			if st.Percent > v {
				return false
			}
		}
		return true
	case ast.FieldFromStep:
		if st.Step <= 0 {
			return false
		}
		for _, v := range c.steps {
			if st.Step < v {
				return false
			}
		}
		return true
	case ast.FieldToStep:
		if st.Step <= 0 {
			return false
		}
		for _, v := range c.steps {
			if st.Step > v {
				return false
			}
		}
		return true
	case ast.FieldStepInterval:
		if st.Step <= 0 {
			return false
		}
		for _, v := range c.steps {
			if st.Step%v != 0 {
				return false
			}
		}
		return true
	case ast.FieldCond:
		return c.cmp.match(st)
	default:
		return false
	}
}

// match evaluates a cond expression node. Boolean operators combine
// nested groups: and holds when every group holds, or when any does,
// not when none do.
func (c *compiledCmp) match(st *State) bool {
	switch c.op {
	case ast.OpAnd:
		for _, g := range c.groups {
			if !g.match(st) {
				return false
			}
		}
		return true
	case ast.OpOr:
		for _, g := range c.groups {
			if g.match(st) {
				return true
			}
		}
		return false
	case ast.OpNot:
		for _, g := range c.groups {
			if g.match(st) {
				return false
			}
		}
		return true
	default:
		return c.matchLeaf(st)
	}
}

// matchLeaf compares one state field against every supplied value;
// the operator must hold for all of them.
func (c *compiledCmp) matchLeaf(st *State) bool {
	if c.field == ast.FieldType {
		for _, v := range c.strs {
			if !compareStrings(c.op, st.Site, v) {
				return false
			}
		}
		return true
	}
	actual := leafValue(c.field, st)
	for _, v := range c.nums {
		if !compareFloats(c.op, actual, v) {
			return false
		}
	}
	return true
}

func leafValue(field ast.CondField, st *State) float64 {
	switch field {
	case ast.FieldBlock:
		return float64(st.Block)
	case ast.FieldStage:
		return float64(st.Stage)
	case ast.FieldPercent:
		return st.Percent
	case ast.FieldStep:
		return float64(st.Step)
	case ast.FieldStepExact:
		return float64(st.StepExact)
	default:
		return math.NaN()
	}
}

func compareFloats(op ast.CompareOp, a, b float64) bool {
	switch op {
	case ast.OpEq:
		return a == b
	case ast.OpNe:
		return a != b
	case ast.OpGt:
		return a > b
	case ast.OpLt:
		return a < b
	case ast.OpGe:
		return a >= b
	case ast.OpLe:
		return a <= b
	default:
		return false
	}
}

func compareStrings(op ast.CompareOp, a, b string) bool {
	switch op {
	case ast.OpEq:
		return a == b
	case ast.OpNe:
		return a != b
	case ast.OpGt:
		return a > b
	case ast.OpLt:
		return a < b
	case ast.OpGe:
		return a >= b
	case ast.OpLe:
		return a <= b
	default:
		return false
	}
}
