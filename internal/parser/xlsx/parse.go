// Package xlsx is a best-effort fallback for spreadsheet input.
//
// There is no binary workbook decoder here. Content that is really JSON or
// comma-separated text (a common result of "save as" mistakes) is recovered;
// anything else yields a single diagnostic row explaining the limitation.
package xlsx

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/alvianzf/jsonify/internal/record"
)

const (
	// Message, Hint and previewUnits shape the diagnostic row. The preview
	// length is measured in UTF-16 code units.
	Message      = "XLSX parsing requires a specialized library"
	Hint         = "Try converting your file to JSON or CSV format first"
	previewUnits = 100
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// ParseTabularBinary recovers a dataset from content read from a spreadsheet
// file. The strategies are tried in order:
//
//  1. Content starting with '{' or '[' (after trimming) that decodes as JSON:
//     an array is returned as the dataset, an object as a one-row dataset.
//  2. Content containing both ',' and '\n' with at least two lines: a naive
//     comma split. Header names and values are trimmed; there is no quote
//     handling or type coercion, and every line after the header becomes a
//     row, blank ones included.
//  3. Otherwise one diagnostic row {message, hint, partialData}, where
//     partialData holds the first 100 characters followed by "...".
//
// ParseTabularBinary never fails.
func ParseTabularBinary(content string) record.Dataset {
	if ds, ok := sniffJSON(content); ok {
		return ds
	}
	if ds, ok := sniffDelimited(content); ok {
		return ds
	}
	return record.Dataset{record.Object(Diagnostic(content))}
}

func sniffJSON(content string) (record.Dataset, bool) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}
	v, err := record.Decode(content)
	if err != nil {
		return nil, false
	}
	if items, ok := v.AsArray(); ok {
		return record.Dataset(items), true
	}
	return record.Dataset{v}, true
}

func sniffDelimited(content string) (record.Dataset, bool) {
	if !strings.Contains(content, ",") || !strings.Contains(content, "\n") {
		return nil, false
	}
	lines := lineBreak.Split(strings.TrimSpace(content), -1)
	if len(lines) < 2 {
		return nil, false
	}

	header := strings.Split(lines[0], ",")
	out := make(record.Dataset, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, ",")
		row := record.NewRecord(len(header))
		for i, h := range header {
			v := ""
			if i < len(values) {
				v = strings.TrimSpace(values[i])
			}
			row.Set(strings.TrimSpace(h), record.String(v))
		}
		out = append(out, record.Object(row))
	}
	return out, true
}

// Diagnostic builds the row returned when content cannot be recovered.
func Diagnostic(content string) *record.Record {
	return record.FromPairs(
		"message", Message,
		"hint", Hint,
		"partialData", preview(content)+"...",
	)
}

func preview(s string) string {
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		// A character whose surrogate pair would straddle the cut is dropped.
		if units+n > previewUnits {
			return s[:i]
		}
		units += n
	}
	return s
}
