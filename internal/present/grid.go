// Package present holds the display rules shared by the HTML views, the API
// and the CLI: search, pagination, column headers, cell text and the schema
// tree.
package present

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alvianzf/jsonify/internal/record"
	"github.com/alvianzf/jsonify/internal/schema"
)

// PageSize is the number of table rows per page.
const PageSize = 10

// Filter returns the rows where any value contains term, ignoring case.
//
// A blank term returns rows unchanged. Falsy values ("", false, 0, null)
// never match, so searching "0" does not find a cell holding the number 0.
func Filter(rows []*record.Record, term string) []*record.Record {
	if strings.TrimSpace(term) == "" {
		return rows
	}
	needle := strings.ToLower(term)

	out := make([]*record.Record, 0, len(rows))
	for _, row := range rows {
		hit := false
		row.Each(func(_ string, v record.Value) bool {
			if v.Truthy() && strings.Contains(strings.ToLower(record.Text(v)), needle) {
				hit = true
				return false
			}
			return true
		})
		if hit {
			out = append(out, row)
		}
	}
	return out
}

// Page is one window over a row list.
type Page struct {
	Number     int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	TotalRows  int              `json:"totalRows"`
	Rows       []*record.Record `json:"rows"`
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Paginate returns page number (1-based) of rows, size rows per page.
//
// The page number is clamped into [1, TotalPages]; with no rows TotalPages
// is 0 and the single empty page is numbered 1. A size <= 0 uses PageSize.
func Paginate(rows []*record.Record, number, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	total := (len(rows) + size - 1) / size
	if number > total {
		number = total
	}
	if number < 1 {
		number = 1
	}

	start := (number - 1) * size
	end := start + size
	if start > len(rows) {
		start = len(rows)
	}
	if end > len(rows) {
		end = len(rows)
	}
	return Page{
		Number:     number,
		TotalPages: total,
		TotalRows:  len(rows),
		Rows:       rows[start:end],
	}
}

// ColumnHeader turns a dot path into a display header: every segment gets an
// upper-case first letter and segments are joined with " › ".
func ColumnHeader(path string) string {
	segs := strings.Split(path, ".")
	for i, s := range segs {
		r, n := utf8.DecodeRuneInString(s)
		if n == 0 {
			continue
		}
		segs[i] = string(unicode.ToUpper(r)) + s[n:]
	}
	return strings.Join(segs, " › ")
}

// ColumnHeaders applies ColumnHeader to every column.
func ColumnHeaders(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = ColumnHeader(c)
	}
	return out
}

// CellText is the display form of a table cell. Strings holding a JSON object
// or array are expanded into indented JSON; other values use their text form.
func CellText(v record.Value) string {
	if s, ok := v.AsString(); ok {
		if parsed, ok := expandable(s); ok {
			return string(record.MarshalIndent(parsed, "  "))
		}
		return s
	}
	return record.Text(v)
}

// expandable reports whether s decodes to a JSON object or array.
func expandable(s string) (record.Value, bool) {
	t := strings.TrimSpace(s)
	if t == "" || (t[0] != '{' && t[0] != '[') {
		return record.Value{}, false
	}
	v, err := record.Decode(t)
	if err != nil || v.IsScalar() {
		return record.Value{}, false
	}
	return v, true
}

// SchemaTree renders a schema node as an indented outline, two spaces per
// level. The array marker is labelled "Array"; leaves read "name: type".
func SchemaTree(n schema.Node) string {
	var sb strings.Builder
	writeTree(&sb, n, 0)
	return sb.String()
}

func writeTree(sb *strings.Builder, n schema.Node, depth int) {
	for _, f := range n.Fields() {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(FieldLabel(f.Name))
		if f.Node.IsLeaf() {
			sb.WriteString(": ")
			sb.WriteString(f.Node.Type())
			sb.WriteByte('\n')
			continue
		}
		sb.WriteByte('\n')
		writeTree(sb, f.Node, depth+1)
	}
}

// FieldLabel is the display name of a schema field.
func FieldLabel(name string) string {
	if name == schema.ArrayMarker {
		return "Array"
	}
	return name
}
