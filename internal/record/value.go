// Package record defines the canonical in-memory shape every input format is
// normalized into.
//
// A Value is a tagged union over the JSON kinds. Objects are Records, which
// keep their keys in insertion order so that pretty-printed output, table
// columns, and inferred schemas all follow the order of the input.
//
// Values are treated as immutable once produced: parsers build them, views
// read them, and a new input replaces them wholesale.
package record

import (
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is one dynamically typed datum: null, bool, number, string, object
// (Record) or array. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	obj  *Record
	arr  []Value
}

// Dataset is the canonical ordered sequence of rows.
type Dataset []Value

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps f.
func Number(f float64) Value { return Value{kind: KindNumber, n: f} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Object wraps r. A nil Record is stored as an empty object.
func Object(r *Record) Value {
	if r == nil {
		r = NewRecord(0)
	}
	return Value{kind: KindObject, obj: r}
}

// Array wraps vs.
func Array(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: KindArray, arr: vs}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsScalar reports whether v is neither an object nor an array.
func (v Value) IsScalar() bool { return v.kind != KindObject && v.kind != KindArray }

// AsBool returns the boolean payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsObject returns the Record payload and whether v is an object.
func (v Value) AsObject() (*Record, bool) { return v.obj, v.kind == KindObject }

// AsArray returns the element slice and whether v is an array.
// Callers must not modify the returned slice.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Truthy mirrors JavaScript truthiness: null, false, 0, NaN and "" are falsy,
// everything else (including empty objects and arrays) is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	default:
		return true
	}
}

// TypeName returns the JavaScript typeof name for v. Null, objects and arrays
// all report "object".
func TypeName(v Value) string {
	switch v.kind {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "object"
	}
}

// Text renders v the way String(x) would: numbers in ES notation, booleans
// as true/false, null as "null". Objects render as "[object Object]" and
// arrays as their comma-joined elements with null elements left empty.
func Text(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumberText(v.n)
	case KindString:
		return v.s
	case KindObject:
		return "[object Object]"
	case KindArray:
		var out []byte
		for i, e := range v.arr {
			if i > 0 {
				out = append(out, ',')
			}
			if e.kind != KindNull {
				out = append(out, Text(e)...)
			}
		}
		return string(out)
	default:
		return ""
	}
}

// Equal reports deep equality. Object key order is significant.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n || (math.IsNaN(a.n) && math.IsNaN(b.n))
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return a.obj.Equal(b.obj)
	}
	return false
}

// formatNumberText is String(n): like the JSON form except NaN/Infinity are
// spelled out instead of becoming null.
func formatNumberText(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return string(appendNumber(nil, f))
}
