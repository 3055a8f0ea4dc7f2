package processor

import (
	"path/filepath"
	"strings"
)

// Format tags the syntax of an input.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// Formats lists the supported formats in display order.
var Formats = []Format{JSON, CSV, XLSX}

// ParseFormat maps a user-supplied tag (any case, surrounding space ignored)
// to a Format. An empty tag means JSON. Unknown tags return a *FormatError.
func ParseFormat(s string) (Format, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	if tag == "" {
		return JSON, nil
	}
	for _, f := range Formats {
		if string(f) == tag {
			return f, nil
		}
	}
	return "", unsupported(s)
}

// FormatFromFilename derives the format from a file extension. Unknown or
// missing extensions default to JSON. A trailing ".gz" is ignored so that
// "data.csv.gz" is CSV.
func FormatFromFilename(name string) Format {
	base := strings.ToLower(filepath.Base(name))
	base = strings.TrimSuffix(base, ".gz")
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	for _, f := range Formats {
		if string(f) == ext {
			return f
		}
	}
	return JSON
}

// String implements fmt.Stringer.
func (f Format) String() string { return string(f) }
