package present

import (
	"embed"
	"html/template"
	"io"

	"github.com/alvianzf/jsonify/internal/record"
	"github.com/alvianzf/jsonify/internal/schema"
	"github.com/alvianzf/jsonify/internal/table"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(
	template.New("page.html").
		Funcs(template.FuncMap{"fieldLabel": FieldLabel}).
		ParseFS(templateFS, "templates/*.html"),
)

// View is everything the HTML page renders. Zero-valued sections are omitted.
type View struct {
	Input   string
	Format  string
	Formats []string
	URL     string

	Error   string
	Warning string

	Summary *Summary
	JSON    string
	Table   *TableView
	Schema  *schema.Node
}

// Summary is the headline of a processed input.
type Summary struct {
	Format  string
	Records int
	Size    string
	IsValid bool
}

// Cell is one rendered table cell.
type Cell struct {
	Text string
	// Class is "null", "true", "false", "json" or "" and drives styling.
	Class string
}

// TableView is one page of the flattened table.
type TableView struct {
	Columns []string
	Headers []string
	Rows    [][]Cell
	Search  string
	Page    Page
}

// NewTableView filters t by search, cuts the requested page and renders the
// visible cells. Absent cells render like null.
func NewTableView(t table.Table, search string, page int) *TableView {
	p := Paginate(Filter(t.Rows, search), page, PageSize)

	rows := make([][]Cell, len(p.Rows))
	for i, r := range p.Rows {
		cells := make([]Cell, len(t.Columns))
		for j, col := range t.Columns {
			v, _ := r.Get(col)
			cells[j] = newCell(v)
		}
		rows[i] = cells
	}
	return &TableView{
		Columns: t.Columns,
		Headers: ColumnHeaders(t.Columns),
		Rows:    rows,
		Search:  search,
		Page:    p,
	}
}

func newCell(v record.Value) Cell {
	switch v.Kind() {
	case record.KindNull:
		return Cell{Text: "null", Class: "null"}
	case record.KindBool:
		b, _ := v.AsBool()
		if b {
			return Cell{Text: "true", Class: "true"}
		}
		return Cell{Text: "false", Class: "false"}
	case record.KindString:
		s, _ := v.AsString()
		if _, ok := expandable(s); ok {
			return Cell{Text: CellText(v), Class: "json"}
		}
	}
	return Cell{Text: CellText(v)}
}

// RenderHTML writes the full page for v.
func RenderHTML(w io.Writer, v View) error {
	return pageTmpl.Execute(w, v)
}
