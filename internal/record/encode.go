package record

import (
	"math"
	"strconv"
	"unicode/utf8"
)

// Marshal renders v as compact JSON (no insignificant whitespace).
func Marshal(v Value) []byte {
	return appendValue(nil, v, "", 0)
}

// MarshalIndent renders v as JSON with one entry per line, each nesting level
// indented by indent, and ": " between keys and values. Empty objects and
// arrays render as {} and [].
//
// The output matches JSON.stringify(v, null, indent): numbers use ECMAScript
// notation, HTML characters are not escaped, and NaN/Infinity become null.
func MarshalIndent(v Value, indent string) []byte {
	return appendValue(nil, v, indent, 0)
}

// MarshalDataset is MarshalIndent for a whole dataset.
func MarshalDataset(ds Dataset, indent string) []byte {
	return MarshalIndent(Array(ds...), indent)
}

// MarshalJSON implements json.Marshaler so Values embed correctly in API
// responses.
func (v Value) MarshalJSON() ([]byte, error) {
	return Marshal(v), nil
}

// MarshalJSON implements json.Marshaler, keeping key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return Marshal(Object(r)), nil
}

func appendValue(b []byte, v Value, indent string, depth int) []byte {
	switch v.kind {
	case KindNull:
		return append(b, "null"...)
	case KindBool:
		return strconv.AppendBool(b, v.b)
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return append(b, "null"...)
		}
		return appendNumber(b, v.n)
	case KindString:
		return appendQuoted(b, v.s)
	case KindArray:
		if len(v.arr) == 0 {
			return append(b, "[]"...)
		}
		b = append(b, '[')
		for i, e := range v.arr {
			if i > 0 {
				b = append(b, ',')
			}
			b = appendNewline(b, indent, depth+1)
			b = appendValue(b, e, indent, depth+1)
		}
		b = appendNewline(b, indent, depth)
		return append(b, ']')
	case KindObject:
		if v.obj.Len() == 0 {
			return append(b, "{}"...)
		}
		b = append(b, '{')
		first := true
		v.obj.Each(func(k string, e Value) bool {
			if !first {
				b = append(b, ',')
			}
			first = false
			b = appendNewline(b, indent, depth+1)
			b = appendQuoted(b, k)
			b = append(b, ':')
			if indent != "" {
				b = append(b, ' ')
			}
			b = appendValue(b, e, indent, depth+1)
			return true
		})
		b = appendNewline(b, indent, depth)
		return append(b, '}')
	}
	return append(b, "null"...)
}

func appendNewline(b []byte, indent string, depth int) []byte {
	if indent == "" {
		return b
	}
	b = append(b, '\n')
	for i := 0; i < depth; i++ {
		b = append(b, indent...)
	}
	return b
}

// appendNumber formats f like ECMAScript Number::toString: plain decimal for
// 1e-6 <= |f| < 1e21, exponent notation outside that range.
func appendNumber(b []byte, f float64) []byte {
	if f == 0 {
		// Covers negative zero, which ECMAScript prints as "0".
		return append(b, '0')
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs < 1e-6 || abs >= 1e21 {
		format = 'e'
	}
	b = strconv.AppendFloat(b, f, format, -1, 64)
	if format == 'e' {
		// Trim the exponent's leading zero: 1e-07 -> 1e-7.
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return b
}

const hexDigits = "0123456789abcdef"

// appendQuoted writes s as a JSON string literal. Only the quote, backslash
// and control characters are escaped. Invalid UTF-8 is replaced with U+FFFD.
func appendQuoted(b []byte, s string) []byte {
	b = append(b, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			b = append(b, s[start:i]...)
			switch c {
			case '"', '\\':
				b = append(b, '\\', c)
			case '\b':
				b = append(b, '\\', 'b')
			case '\f':
				b = append(b, '\\', 'f')
			case '\n':
				b = append(b, '\\', 'n')
			case '\r':
				b = append(b, '\\', 'r')
			case '\t':
				b = append(b, '\\', 't')
			default:
				b = append(b, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b = append(b, s[start:i]...)
			b = append(b, "�"...)
			i += size
			start = i
			continue
		}
		i += size
	}
	b = append(b, s[start:]...)
	return append(b, '"')
}

// Quote returns s as a JSON string literal.
func Quote(s string) string {
	return string(appendQuoted(nil, s))
}

// MarshalJSON implements json.Marshaler; a nil Dataset renders as [].
func (ds Dataset) MarshalJSON() ([]byte, error) {
	return Marshal(Array(ds...)), nil
}
