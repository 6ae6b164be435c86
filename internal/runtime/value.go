// Package runtime implements the evaluator and runtime value system for Aleng.
package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"aleng/internal/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// Type names as they appear in parameter annotations and error messages.
const (
	TypeNumber   = "Number"
	TypeString   = "String"
	TypeBoolean  = "Boolean"
	TypeList     = "List"
	TypeMap      = "Map"
	TypeFunction = "Function"
	TypeAny      = "Any"
)

// ---- Primitive values ----

// Number is the only numeric type.
type Number float64

func (v Number) TypeName() string { return TypeNumber }
func (v Number) String() string   { return FormatNumber(float64(v)) }

// String is an immutable string value.
type String string

func (v String) TypeName() string { return TypeString }
func (v String) String() string   { return string(v) }

// Bool is True or False.
type Bool bool

func (v Bool) TypeName() string { return TypeBoolean }
func (v Bool) String() string {
	if v {
		return "True"
	}
	return "False"
}

// Neutral is the value produced where nothing else is: an If without a
// taken branch, or a call that finishes without Return.
var Neutral Value = Number(0)

// FormatNumber renders integral values without a fractional part and
// everything else in the shortest form that round-trips.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ---- Collections ----

// List is a mutable, shared sequence. Copying a *List aliases it.
type List struct {
	Elements []Value
}

// NewList returns a list holding elems.
func NewList(elems ...Value) *List {
	return &List{Elements: elems}
}

func (v *List) TypeName() string { return TypeList }
func (v *List) String() string   { return inspect(v, map[interface{}]bool{}) }

// Map is a mutable, shared string-keyed map that remembers insertion order.
type Map struct {
	Keys   []string
	Values map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{Values: make(map[string]Value)}
}

func (v *Map) TypeName() string { return TypeMap }
func (v *Map) String() string   { return inspect(v, map[interface{}]bool{}) }

// Get returns the value stored under key.
func (v *Map) Get(key string) (Value, bool) {
	val, ok := v.Values[key]
	return val, ok
}

// Set inserts or overwrites key. New keys go to the end of the order.
func (v *Map) Set(key string, val Value) {
	if _, exists := v.Values[key]; !exists {
		v.Keys = append(v.Keys, key)
	}
	v.Values[key] = val
}

// Len returns the number of entries.
func (v *Map) Len() int { return len(v.Keys) }

// ---- Functions ----

// Function is a callable value: a user function closing over a scope
// chain, or a builtin resolved by name through the evaluator's native
// table at call time.
type Function struct {
	Name    string
	Def     *ast.FuncDef // nil for builtins
	Env     []*Scope     // captured scope chain, shared with the definer
	Builtin bool
}

func (v *Function) TypeName() string { return TypeFunction }
func (v *Function) String() string   { return fmt.Sprintf("<Function: %s>", v.displayName()) }

// displayName is the name used in error messages.
func (v *Function) displayName() string {
	if v.Name == "" {
		return "<anonymous>"
	}
	return v.Name
}

// ---- Truthiness ----

// IsTruthy reports the truthiness of a value: non-zero numbers, non-empty
// strings and collections, and True are truthy. Functions are not.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Number:
		return float64(val) != 0
	case String:
		return val != ""
	case *List:
		return len(val.Elements) > 0
	case *Map:
		return val.Len() > 0
	default:
		return false
	}
}

// ---- Equality ----

// Equal compares two values. Different types are never equal; lists and
// maps compare element-wise; functions compare by identity.
func Equal(a, b Value) bool {
	return equal(a, b, map[[2]interface{}]bool{})
}

func equal(a, b Value, seen map[[2]interface{}]bool) bool {
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case *Function:
		y, ok := b.(*Function)
		if !ok {
			return false
		}
		if x.Builtin && y.Builtin {
			return x.Name == y.Name
		}
		return x == y
	case *List:
		y, ok := b.(*List)
		if !ok {
			return false
		}
		if x == y || seen[[2]interface{}{x, y}] {
			return true
		}
		if len(x.Elements) != len(y.Elements) {
			return false
		}
		seen[[2]interface{}{x, y}] = true
		for i := range x.Elements {
			if !equal(x.Elements[i], y.Elements[i], seen) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok {
			return false
		}
		if x == y || seen[[2]interface{}{x, y}] {
			return true
		}
		if x.Len() != y.Len() {
			return false
		}
		seen[[2]interface{}{x, y}] = true
		for _, k := range x.Keys {
			yv, ok := y.Values[k]
			if !ok || !equal(x.Values[k], yv, seen) {
				return false
			}
		}
		return true
	}
	return false
}

// ---- Formatting ----

// inspect renders collections with quoted strings. A collection that
// contains itself prints as [...] or {...} at the point of recursion.
func inspect(v Value, active map[interface{}]bool) string {
	switch val := v.(type) {
	case String:
		return strconv.Quote(string(val))
	case *List:
		if active[val] {
			return "[...]"
		}
		active[val] = true
		defer delete(active, val)
		parts := make([]string, len(val.Elements))
		for i, elem := range val.Elements {
			parts[i] = inspect(elem, active)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		if active[val] {
			return "{...}"
		}
		active[val] = true
		defer delete(active, val)
		parts := make([]string, len(val.Keys))
		for i, k := range val.Keys {
			parts[i] = fmt.Sprintf("%s: %s", strconv.Quote(k), inspect(val.Values[k], active))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return v.String()
}

// ValuesString formats a slice of values with a separator. Top-level
// strings are written without quotes.
func ValuesString(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// maxExactInt is the largest magnitude a float64 holds without gaps.
const maxExactInt = 1 << 53

// AsInt converts an integral Number to int. Values beyond the exactly
// representable range are rejected.
func AsInt(v Value) (int, bool) {
	n, ok := v.(Number)
	if !ok {
		return 0, false
	}
	f := float64(n)
	if f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, false
	}
	return int(f), true
}
