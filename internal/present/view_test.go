package present

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/alvianzf/jsonify/internal/record"
	"github.com/alvianzf/jsonify/internal/schema"
	"github.com/alvianzf/jsonify/internal/table"
)

func render(t *testing.T, v View) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderHTML(&buf, v); err != nil {
		t.Fatalf("RenderHTML() err=%v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("goquery parse err=%v", err)
	}
	return doc
}

func TestRenderHTML_Table(t *testing.T) {
	tbl := table.Table{
		Columns: []string{"name", "address.city", "active"},
		Rows: []*record.Record{
			record.FromPairs("name", "<b>Ann</b>", "address.city", "Austin", "active", true),
			record.FromPairs("name", "Bob", "active", nil),
		},
	}
	doc := render(t, View{
		Formats: []string{"json", "csv", "xlsx"},
		Format:  "csv",
		Summary: &Summary{Format: "csv", Records: 2, Size: "1 KB", IsValid: true},
		Table:   NewTableView(tbl, "", 1),
	})

	var headers []string
	doc.Find("#table th").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, s.Text())
	})
	if got := strings.Join(headers, "|"); got != "Name|Address › City|Active" {
		t.Fatalf("headers=%q", got)
	}

	rows := doc.Find("#table tbody tr")
	if rows.Length() != 2 {
		t.Fatalf("rows=%d, want 2", rows.Length())
	}
	// Markup inside values is escaped, not interpreted.
	if got := rows.Eq(0).Find("td").Eq(0).Text(); got != "<b>Ann</b>" {
		t.Fatalf("cell text=%q, want escaped markup", got)
	}
	if rows.Eq(0).Find("b").Length() != 0 {
		t.Fatalf("value markup leaked into the page")
	}
	// Absent and null cells both read "null".
	if got := rows.Eq(1).Find("td.null").Length(); got != 2 {
		t.Fatalf("null cells=%d, want 2", got)
	}
	if got := doc.Find("#records").Text(); got != "2" {
		t.Fatalf("records=%q, want 2", got)
	}
	if _, ok := doc.Find(`input[value="csv"]`).Attr("checked"); !ok {
		t.Fatalf("selected format not checked")
	}
}

func TestRenderHTML_SchemaAndErrors(t *testing.T) {
	n := schema.Infer(record.Dataset{record.Object(record.FromPairs(
		"id", 1,
		"tags", []any{record.FromPairs("k", "v")},
	))})
	doc := render(t, View{
		Error:   "Invalid JSON: boom",
		Warning: "Failed to process table data",
		Schema:  &n,
	})

	if got := doc.Find("#error").Text(); got != "Invalid JSON: boom" {
		t.Fatalf("error=%q", got)
	}
	if doc.Find("#warning").Length() != 1 {
		t.Fatalf("warning not rendered")
	}
	if got := doc.Find("#schema .array").Text(); got != "Array" {
		t.Fatalf("array label=%q, want Array", got)
	}
	var types []string
	doc.Find("#schema .type").Each(func(_ int, s *goquery.Selection) {
		types = append(types, s.Text())
	})
	if got := strings.Join(types, ","); got != "number,string" {
		t.Fatalf("types=%q, want number,string", got)
	}
	if doc.Find("#table").Length() != 0 || doc.Find("#summary").Length() != 0 {
		t.Fatalf("empty sections should be omitted")
	}
}

func TestNewTableView_SearchAndPage(t *testing.T) {
	rows := make([]*record.Record, 0, 25)
	for i := 0; i < 25; i++ {
		name := "row"
		if i%2 == 0 {
			name = "even"
		}
		rows = append(rows, record.FromPairs("name", name, "i", i))
	}
	tv := NewTableView(table.Table{Columns: []string{"name", "i"}, Rows: rows}, "EVEN", 2)

	if tv.Page.TotalRows != 13 || tv.Page.TotalPages != 2 || tv.Page.Number != 2 {
		t.Fatalf("page=%+v", tv.Page)
	}
	if len(tv.Rows) != 3 {
		t.Fatalf("rows=%d, want 3", len(tv.Rows))
	}
	if tv.Rows[0][1].Text != "20" {
		t.Fatalf("first cell=%q, want 20", tv.Rows[0][1].Text)
	}
}

func TestNewCell_JSONString(t *testing.T) {
	c := newCell(record.String(`[1,2]`))
	if c.Class != "json" || c.Text != "[\n  1,\n  2\n]" {
		t.Fatalf("cell=%+v", c)
	}
}
