// Package csv turns pasted or uploaded delimited text into a record.Dataset.
//
// The dialect is deliberately small: comma separator, '"' as a quote toggle,
// one record per line. It does not follow RFC 4180 (doubled quotes are not an
// escape and quoted fields cannot span lines), which is why encoding/csv is
// not used here.
package csv

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alvianzf/jsonify/internal/record"
)

var (
	lineBreak = regexp.MustCompile(`\r?\n`)
	numeric   = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ParseDelimited parses text whose first line is a header row.
//
// Behavior:
//   - The whole input is trimmed, then split on "\n" or "\r\n".
//   - Each data line is trimmed; blank lines are skipped.
//   - Each row becomes a Record keyed by header name, in header order.
//     Missing trailing fields are "", extra fields are dropped.
//   - Field values are coerced with Coerce.
//
// Edge cases:
//   - Empty (or whitespace-only) input yields an empty dataset.
//   - Header-only input yields an empty dataset.
//   - Repeated header names collapse onto the first position; the right-most
//     field wins.
//
// ParseDelimited never fails: malformed quoting degrades to literal text.
func ParseDelimited(text string) record.Dataset {
	text = strings.TrimSpace(text)
	if text == "" {
		return record.Dataset{}
	}

	lines := lineBreak.Split(text, -1)
	header := SplitLine(lines[0])

	out := make(record.Dataset, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := SplitLine(line)

		row := record.NewRecord(len(header))
		for i, name := range header {
			v := ""
			if i < len(fields) {
				v = fields[i]
			}
			row.Set(name, Coerce(v))
		}
		out = append(out, record.Object(row))
	}
	return out
}

// SplitLine splits one line into trimmed fields.
//
// A '"' toggles quoted mode and is dropped from the output; commas inside
// quotes are literal. An unterminated quote runs to the end of the line.
func SplitLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)
	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	return append(fields, strings.TrimSpace(cur.String()))
}

// Coerce maps a raw field to a typed Value:
//   - "" stays an empty string
//   - "true"/"false" in any case become booleans
//   - optionally signed decimal digits, with an optional fractional part,
//     become numbers ("1e5", "+1" and ".5" stay strings)
//   - anything else is returned as a string
func Coerce(s string) record.Value {
	if s == "" {
		return record.String("")
	}
	switch strings.ToLower(s) {
	case "true":
		return record.Bool(true)
	case "false":
		return record.Bool(false)
	}
	if numeric.MatchString(s) {
		// Overlong digit runs overflow to ±Inf, which ParseFloat returns
		// alongside ErrRange.
		f, _ := strconv.ParseFloat(s, 64)
		return record.Number(f)
	}
	return record.String(s)
}
