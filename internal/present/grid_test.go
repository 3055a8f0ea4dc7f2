package present

import (
	"testing"

	"github.com/alvianzf/jsonify/internal/record"
	"github.com/alvianzf/jsonify/internal/schema"
)

func rowsOf(rs ...*record.Record) []*record.Record { return rs }

func TestFilter(t *testing.T) {
	rows := rowsOf(
		record.FromPairs("name", "Ann", "age", 31),
		record.FromPairs("name", "BOB", "age", 0, "ok", false),
		record.FromPairs("name", "", "note", "annex"),
	)

	tests := []struct {
		name string
		term string
		want int
	}{
		{name: "blank_returns_all", term: "  ", want: 3},
		{name: "case_insensitive", term: "bob", want: 1},
		{name: "substring_across_rows", term: "ANN", want: 2},
		{name: "numbers_as_text", term: "31", want: 1},
		{name: "zero_is_falsy", term: "0", want: 0},
		{name: "false_is_falsy", term: "false", want: 0},
		{name: "no_match", term: "zzz", want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Filter(rows, tc.term); len(got) != tc.want {
				t.Fatalf("Filter(%q) len=%d, want %d", tc.term, len(got), tc.want)
			}
		})
	}
}

// TestPaginate verifies page windows and clamping.
//
// Edge cases:
//   - page numbers below 1 and above the last page are clamped
//   - an empty row list reports zero pages and an empty page 1
func TestPaginate(t *testing.T) {
	rows := make([]*record.Record, 23)
	for i := range rows {
		rows[i] = record.FromPairs("i", i)
	}

	tests := []struct {
		name      string
		rows      []*record.Record
		page      int
		wantNum   int
		wantPages int
		wantLen   int
		wantFirst int
	}{
		{name: "first", rows: rows, page: 1, wantNum: 1, wantPages: 3, wantLen: 10, wantFirst: 0},
		{name: "last_partial", rows: rows, page: 3, wantNum: 3, wantPages: 3, wantLen: 3, wantFirst: 20},
		{name: "clamp_high", rows: rows, page: 99, wantNum: 3, wantPages: 3, wantLen: 3, wantFirst: 20},
		{name: "clamp_low", rows: rows, page: -4, wantNum: 1, wantPages: 3, wantLen: 10, wantFirst: 0},
		{name: "empty", rows: nil, page: 2, wantNum: 1, wantPages: 0, wantLen: 0, wantFirst: -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate(tc.rows, tc.page, 0)
			if p.Number != tc.wantNum || p.TotalPages != tc.wantPages || len(p.Rows) != tc.wantLen {
				t.Fatalf("Paginate()=(num=%d pages=%d len=%d), want (%d %d %d)",
					p.Number, p.TotalPages, len(p.Rows), tc.wantNum, tc.wantPages, tc.wantLen)
			}
			if p.TotalRows != len(tc.rows) {
				t.Fatalf("TotalRows=%d, want %d", p.TotalRows, len(tc.rows))
			}
			if tc.wantFirst >= 0 {
				v, _ := p.Rows[0].Get("i")
				if n, _ := v.AsNumber(); int(n) != tc.wantFirst {
					t.Fatalf("first row i=%v, want %d", n, tc.wantFirst)
				}
			}
		})
	}
}

func TestPage_Navigation(t *testing.T) {
	p := Page{Number: 2, TotalPages: 3}
	if !p.HasPrev() || !p.HasNext() {
		t.Fatalf("middle page should have both neighbours")
	}
	if (Page{Number: 1, TotalPages: 1}).HasNext() {
		t.Fatalf("single page has no next")
	}
}

func TestColumnHeader(t *testing.T) {
	tests := map[string]string{
		"name":          "Name",
		"address.city":  "Address › City",
		"a.b.c":         "A › B › C",
		"éclair.x":      "Éclair › X",
		"0.x":           "0 › X",
		"already.Upper": "Already › Upper",
		"a..b":          "A ›  › B",
	}
	for in, want := range tests {
		if got := ColumnHeader(in); got != want {
			t.Fatalf("ColumnHeader(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		name string
		v    record.Value
		want string
	}{
		{name: "null", v: record.Null(), want: "null"},
		{name: "bool", v: record.Bool(true), want: "true"},
		{name: "number", v: record.Number(2.5), want: "2.5"},
		{name: "plain_string", v: record.String("hello"), want: "hello"},
		{name: "numeric_string", v: record.String("30"), want: "30"},
		{name: "json_object_string", v: record.String(`{"a":1}`), want: "{\n  \"a\": 1\n}"},
		{name: "broken_json_string", v: record.String(`{"a":`), want: `{"a":`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CellText(tc.v); got != tc.want {
				t.Fatalf("CellText()=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestSchemaTree(t *testing.T) {
	n := schema.Branch(
		schema.Field{Name: "id", Node: schema.Leaf("number")},
		schema.Field{Name: "tags", Node: schema.Branch(
			schema.Field{Name: schema.ArrayMarker, Node: schema.Branch(
				schema.Field{Name: "label", Node: schema.Leaf("string")},
			)},
		)},
	)
	want := "id: number\ntags\n  Array\n    label: string\n"
	if got := SchemaTree(n); got != want {
		t.Fatalf("SchemaTree()=\n%s\nwant\n%s", got, want)
	}
	if got := SchemaTree(schema.Node{}); got != "" {
		t.Fatalf("SchemaTree(empty)=%q, want empty", got)
	}
}
