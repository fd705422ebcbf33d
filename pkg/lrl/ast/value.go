package ast

import (
	"fmt"
	"strings"
)

// ValueType tags the concrete type carried by a Value.
type ValueType string

const (
	ValueTypeString ValueType = "string"
	ValueTypeInt    ValueType = "int"
	ValueTypeFloat  ValueType = "float"
	ValueTypeBool   ValueType = "bool"
	ValueTypeList   ValueType = "list"
)

// Value is a scalar or list literal appearing in a condition or operation
// argument position. Exactly one payload field is meaningful, selected by
// Type.
type Value struct {
	Type     ValueType
	Str      string
	Int      int64
	Float    float64
	Bool     bool
	List     []Value
	Location Location
}

// StringValue constructs a string literal.
func StringValue(s string) Value { return Value{Type: ValueTypeString, Str: s} }

// IntValue constructs an integer literal.
func IntValue(i int64) Value { return Value{Type: ValueTypeInt, Int: i} }

// FloatValue constructs a float literal.
func FloatValue(f float64) Value { return Value{Type: ValueTypeFloat, Float: f} }

// BoolValue constructs a boolean literal.
func BoolValue(b bool) Value { return Value{Type: ValueTypeBool, Bool: b} }

// ListValue constructs a list literal.
func ListValue(items ...Value) Value { return Value{Type: ValueTypeList, List: items} }

// IsNumber reports whether the value is an int or float.
func (v Value) IsNumber() bool {
	return v.Type == ValueTypeInt || v.Type == ValueTypeFloat
}

// AsFloat returns the numeric value as float64. Only meaningful when
// IsNumber reports true.
func (v Value) AsFloat() float64 {
	if v.Type == ValueTypeInt {
		return float64(v.Int)
	}
	return v.Float
}

// AsInt returns the numeric value truncated to int.
func (v Value) AsInt() int {
	if v.Type == ValueTypeFloat {
		return int(v.Float)
	}
	return int(v.Int)
}

// IsWholeNumber reports whether the value is an integer, or a float with
// no fractional part.
func (v Value) IsWholeNumber() bool {
	if v.Type == ValueTypeInt {
		return true
	}
	if v.Type == ValueTypeFloat {
		return v.Float == float64(int64(v.Float))
	}
	return false
}

// String renders the value the way it would appear in a document.
func (v Value) String() string {
	switch v.Type {
	case ValueTypeString:
		return v.Str
	case ValueTypeInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueTypeFloat:
		return fmt.Sprintf("%g", v.Float)
	case ValueTypeBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueTypeList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}
