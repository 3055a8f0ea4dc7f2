// Package table projects a dataset onto a two-dimensional grid: nested objects
// collapse into dot-separated column paths and arrays into display strings.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alvianzf/jsonify/internal/record"
)

// Table is the flattened projection of a dataset.
//
// Columns holds every leaf path seen across all rows, in first-seen order.
// A row that lacks a column simply has no entry for it.
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []*record.Record `json:"rows"`
}

// TableError reports a dataset element that cannot be enumerated as a row.
// Callers treat it as a warning and fall back to an empty table.
type TableError struct {
	Index int
	Kind  record.Kind
}

func (e *TableError) Error() string {
	return fmt.Sprintf("Failed to process table data: element %d is %s", e.Index, e.Kind)
}

// Flatten walks every element of ds and produces one flat row per element.
//
// Behavior:
//   - Object entries are walked in order. A nested non-null object recurses
//     with "prefix.key"; anything else is a leaf at its full path.
//   - Array leaves become one string: elements joined with ", ", where
//     objects, arrays and null render as compact JSON and other scalars as
//     their text form.
//   - Non-object elements are enumerated the way Object.entries would: arrays
//     by index, strings by character index, numbers and booleans as an empty
//     row.
//
// Errors:
//   - A null element returns a *TableError together with an empty Table.
func Flatten(ds record.Dataset) (Table, error) {
	t := Table{Columns: []string{}, Rows: make([]*record.Record, 0, len(ds))}
	seen := make(map[string]struct{})

	for i, el := range ds {
		if el.IsNull() {
			return Table{Columns: []string{}, Rows: []*record.Record{}}, &TableError{Index: i, Kind: el.Kind()}
		}
		row := record.NewRecord(8)
		eachEntry(el, func(k string, v record.Value) {
			flattenInto(row, k, v)
		})
		row.Each(func(k string, _ record.Value) bool {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				t.Columns = append(t.Columns, k)
			}
			return true
		})
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func flattenInto(row *record.Record, path string, v record.Value) {
	switch v.Kind() {
	case record.KindObject:
		obj, _ := v.AsObject()
		obj.Each(func(k string, child record.Value) bool {
			flattenInto(row, path+"."+k, child)
			return true
		})
	case record.KindArray:
		row.Set(path, record.String(JoinArray(v)))
	default:
		row.Set(path, v)
	}
}

// eachEntry enumerates the top-level entries of a dataset element.
func eachEntry(el record.Value, fn func(k string, v record.Value)) {
	switch el.Kind() {
	case record.KindObject:
		obj, _ := el.AsObject()
		obj.Each(func(k string, v record.Value) bool {
			fn(k, v)
			return true
		})
	case record.KindArray:
		items, _ := el.AsArray()
		for i, v := range items {
			fn(strconv.Itoa(i), v)
		}
	case record.KindString:
		s, _ := el.AsString()
		i := 0
		for _, r := range s {
			fn(strconv.Itoa(i), record.String(string(r)))
			i++
		}
	}
}

// JoinArray renders an array leaf as a single display string.
func JoinArray(v record.Value) string {
	items, _ := v.AsArray()
	parts := make([]string, len(items))
	for i, e := range items {
		if e.IsScalar() && !e.IsNull() {
			parts[i] = record.Text(e)
		} else {
			parts[i] = string(record.Marshal(e))
		}
	}
	return strings.Join(parts, ", ")
}
