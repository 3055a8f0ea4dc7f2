package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxDepth bounds container nesting so hostile inputs cannot exhaust the stack.
const maxDepth = 10000

// ErrUnexpectedEnd is returned when the input ends inside a value.
var ErrUnexpectedEnd = errors.New("unexpected end of JSON input")

// Decode parses exactly one JSON value from text, preserving object key order.
//
// Behavior:
//   - Leading/trailing whitespace is allowed; any other trailing content is an
//     error (a second top-level value is not accepted).
//   - Duplicate object keys keep the first key position and the last value.
//   - Numbers are float64; values beyond float64 range become ±Inf.
//
// The error message describes the syntax problem and is safe to show to users.
func Decode(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Value{}, syntaxErr(err)
	}
	v, err := decodeValue(dec, tok, 0)
	if err != nil {
		return Value{}, err
	}

	// The root must be the only value in the input.
	if extra, err := dec.Token(); err != io.EOF {
		if err != nil {
			return Value{}, syntaxErr(err)
		}
		return Value{}, fmt.Errorf("unexpected %s after JSON value at offset %d", describeToken(extra), dec.InputOffset())
	}
	return v, nil
}

// DecodeBytes is Decode for byte input.
func DecodeBytes(b []byte) (Value, error) {
	return Decode(string(b))
}

// decodeValue converts the token stream starting at tok into a Value.
//
// Objects and arrays are walked token by token (the same technique the
// streaming row parsers use) so that key order survives decoding.
func decodeValue(dec *json.Decoder, tok json.Token, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, fmt.Errorf("exceeded max nesting depth of %d", maxDepth)
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(t)
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec, depth)
		case '[':
			return decodeArray(dec, depth)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	default:
		return Value{}, fmt.Errorf("unsupported token %T", tok)
	}
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	r := NewRecord(8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, syntaxErr(err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string (got %s)", describeToken(keyTok))
		}

		valTok, err := dec.Token()
		if err != nil {
			return Value{}, syntaxErr(err)
		}
		v, err := decodeValue(dec, valTok, depth+1)
		if err != nil {
			return Value{}, err
		}
		r.Set(key, v)
	}

	end, err := dec.Token()
	if err != nil {
		return Value{}, syntaxErr(err)
	}
	if end != json.Delim('}') {
		return Value{}, fmt.Errorf("expected '}' to close object, got %s", describeToken(end))
	}
	return Object(r), nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	items := make([]Value, 0, 8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, syntaxErr(err)
		}
		v, err := decodeValue(dec, tok, depth+1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}

	end, err := dec.Token()
	if err != nil {
		return Value{}, syntaxErr(err)
	}
	if end != json.Delim(']') {
		return Value{}, fmt.Errorf("expected ']' to close array, got %s", describeToken(end))
	}
	return Array(items...), nil
}

func parseNumber(n json.Number) (Value, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		// ParseFloat returns ±Inf alongside ErrRange; keep it, as JSON.parse
		// yields Infinity for such literals.
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return Number(f), nil
		}
		return Value{}, fmt.Errorf("invalid number %q", string(n))
	}
	return Number(f), nil
}

// syntaxErr maps decoder errors onto user-facing messages.
func syntaxErr(err error) error {
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEnd
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return fmt.Errorf("%s at offset %d", se.Error(), se.Offset)
	}
	return err
}

func describeToken(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		return fmt.Sprintf("%q", rune(t))
	case string:
		return "string " + strconv.Quote(t)
	case json.Number:
		return "number " + string(t)
	case bool:
		return "boolean " + strconv.FormatBool(t)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// UnmarshalJSON implements json.Unmarshaler using the order-preserving decoder.
func (v *Value) UnmarshalJSON(b []byte) error {
	out, err := Decode(string(bytes.TrimSpace(b)))
	if err != nil {
		return err
	}
	*v = out
	return nil
}
