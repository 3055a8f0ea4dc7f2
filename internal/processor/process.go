// Package processor normalizes JSON, CSV and spreadsheet input into a
// record.Dataset and produces the canonical pretty-printed JSON for it.
//
// Process is pure: no I/O, no shared state. Repeating it on the same input
// yields an identical result, which Fingerprint makes observable.
package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/alvianzf/jsonify/internal/parser/csv"
	"github.com/alvianzf/jsonify/internal/parser/xlsx"
	"github.com/alvianzf/jsonify/internal/record"
)

// Indent is the indentation used for the canonical JSON rendering.
const Indent = "  "

// ProcessedData is the outcome of normalizing one input.
type ProcessedData struct {
	Data    record.Dataset `json:"data"`
	JSON    string         `json:"json"`
	Format  Format         `json:"format"`
	IsValid bool           `json:"isValid"`
	Size    string         `json:"size,omitempty"`
	Records int            `json:"records"`
	Error   string         `json:"error,omitempty"`
}

// Process parses input according to format and normalizes it into a dataset.
//
// Normalization rules:
//   - json: an array is used as-is, an object becomes a one-row dataset, and a
//     scalar (or null) becomes [{"value": <scalar>}]. IsValid is true.
//   - csv: see csv.ParseDelimited. IsValid is true when any row was parsed.
//   - xlsx: see xlsx.ParseTabularBinary. IsValid is true when any row was
//     produced (which, given the diagnostic fallback, is always).
//
// Errors:
//   - invalid JSON returns a *FormatError whose message starts with
//     "Invalid JSON: ".
//   - an unknown format returns a *FormatError "Unsupported format: <tag>".
func Process(input string, format Format) (ProcessedData, error) {
	var (
		ds    record.Dataset
		valid bool
	)

	switch format {
	case JSON:
		v, err := record.Decode(input)
		if err != nil {
			return ProcessedData{}, invalidJSON(err)
		}
		ds = Normalize(v)
		valid = true

	case CSV:
		ds = csv.ParseDelimited(input)
		valid = len(ds) > 0

	case XLSX:
		ds = xlsx.ParseTabularBinary(input)
		valid = len(ds) > 0

	default:
		return ProcessedData{}, unsupported(string(format))
	}

	out := record.MarshalDataset(ds, Indent)
	return ProcessedData{
		Data:    ds,
		JSON:    string(out),
		Format:  format,
		IsValid: valid,
		Size:    FormatSize(int64(len(out))),
		Records: len(ds),
	}, nil
}

// Normalize lifts a decoded JSON value into a dataset.
func Normalize(v record.Value) record.Dataset {
	switch v.Kind() {
	case record.KindArray:
		items, _ := v.AsArray()
		return record.Dataset(items)
	case record.KindObject:
		return record.Dataset{v}
	default:
		return record.Dataset{record.Object(record.FromPairs("value", v))}
	}
}

var sizeUnits = [...]string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count in binary units with at most two decimals:
// 0 -> "0 Bytes", 1024 -> "1 KB", 1536 -> "1.5 KB", 1152 -> "1.13 KB".
//
// The unit never exceeds GB; larger counts are expressed in GB.
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}

	i := 0
	div := 1.0
	for i < len(sizeUnits)-1 && float64(n) >= div*1024 {
		div *= 1024
		i++
	}

	// Half-up rounding to two decimals, then drop trailing zeros.
	v := float64(int64(float64(n)/div*100+0.5)) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// Fingerprint returns the SHA-256 of the canonical JSON as lowercase hex.
// Equal inputs processed with the same format have equal fingerprints.
func Fingerprint(pd ProcessedData) string {
	sum := sha256.Sum256([]byte(pd.JSON))
	return hex.EncodeToString(sum[:])
}
