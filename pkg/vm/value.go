package vm

import (
	"math"
	"strconv"
	"strings"
)

// Value is a runtime value. The set of implementations is closed:
// Number, String, Boolean, *Array and None.
type Value interface {
	value()
}

// Number is the only numeric type; integers are float64 values with no
// fractional part.
type Number float64

// String is an immutable text value.
type String string

// Boolean is produced by comparisons and the true/false literals.
type Boolean bool

type noneValue struct{}

// None is the result of statements that yield nothing, such as a function
// declaration or pop on an empty array.
var None Value = noneValue{}

func (Number) value() {}
func (String) value() {}
func (Boolean) value() {}
func (noneValue) value() {}
func (*Array) value() {}

// TypeName returns the user-facing name of v's type, used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Number:
		return "number"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	case *Array:
		return "array"
	case noneValue:
		return "none"
	default:
		return "unknown"
	}
}

// Display renders v the way print writes it.
func Display(v Value) string {
	var sb strings.Builder
	writeDisplay(&sb, v, false, nil)
	return sb.String()
}

func writeDisplay(sb *strings.Builder, v Value, quoted bool, seen map[*Array]bool) {
	switch val := v.(type) {
	case Number:
		sb.WriteString(formatNumber(float64(val)))
	case String:
		if quoted {
			sb.WriteByte('"')
			sb.WriteString(string(val))
			sb.WriteByte('"')
		} else {
			sb.WriteString(string(val))
		}
	case Boolean:
		sb.WriteString(strconv.FormatBool(bool(val)))
	case *Array:
		if seen[val] {
			sb.WriteString("[...]")
			return
		}
		if seen == nil {
			seen = make(map[*Array]bool)
		}
		seen[val] = true
		sb.WriteByte('[')
		for i, elem := range val.elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeDisplay(sb, elem, true, seen)
		}
		sb.WriteByte(']')
		delete(seen, val)
	default:
		sb.WriteString("none")
	}
}

// formatNumber produces the shortest literal that reads back as f:
// 810, 0.5, 1e+21.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy reports whether v counts as true in a condition.
// false, 0, NaN, "" and None are falsy; arrays are always truthy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case Boolean:
		return bool(val)
	case Number:
		f := float64(val)
		return f != 0 && !math.IsNaN(f)
	case String:
		return val != ""
	case *Array:
		return true
	default:
		return false
	}
}

// Equal is strict equality: values of different types are never equal and
// arrays compare by identity.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y
	case *Array:
		y, ok := b.(*Array)
		return ok && x == y
	case noneValue:
		_, ok := b.(noneValue)
		return ok
	default:
		return false
	}
}
