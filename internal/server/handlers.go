package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/alvianzf/jsonify/internal/datasource"
	"github.com/alvianzf/jsonify/internal/datasource/file"
	"github.com/alvianzf/jsonify/internal/datasource/httpds"
	"github.com/alvianzf/jsonify/internal/metrics"
	"github.com/alvianzf/jsonify/internal/present"
	"github.com/alvianzf/jsonify/internal/processor"
	"github.com/alvianzf/jsonify/internal/record"
	"github.com/alvianzf/jsonify/internal/schema"
	"github.com/alvianzf/jsonify/internal/table"
)

// processRequest is the body shared by the JSON endpoints and the HTML form.
type processRequest struct {
	Text   string `json:"text" form:"text"`
	Format string `json:"format" form:"format"`
	URL    string `json:"url" form:"url"`
	Search string `json:"search" form:"search"`
	Page   int    `json:"page" form:"page"`
}

// TableResponse is the body of POST /api/v1/table.
type TableResponse struct {
	Columns []string `json:"columns"`
	Headers []string `json:"headers"`
	present.Page
	Warning string `json:"warning,omitempty"`
}

// SchemaResponse is the body of POST /api/v1/schema.
type SchemaResponse struct {
	Schema schema.Node `json:"schema"`
	Tree   string      `json:"tree"`
}

func (s *Server) handleProcess(c *fiber.Ctx) error {
	req, err := parseRequest(c)
	if err != nil {
		return err
	}
	pd, err := s.process(c, datasource.Input{Text: req.Text, Format: req.Format})
	if err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	return sendProcessed(c, pd)
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, datasource.ErrEmptyInput, fiber.StatusBadRequest)
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	defer f.Close()

	pd, err := s.process(c, datasource.Input{Upload: f, Name: fh.Filename, Format: c.FormValue("format")})
	if err != nil {
		return fail(c, err, fiber.StatusBadRequest)
	}
	return sendProcessed(c, pd)
}

func (s *Server) handleURL(c *fiber.Ctx) error {
	req, err := parseRequest(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.URL) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please enter a URL"})
	}
	pd, err := s.process(c, datasource.Input{URL: req.URL, Format: req.Format})
	if err != nil {
		return fail(c, err, fiber.StatusBadGateway)
	}
	return sendProcessed(c, pd)
}

func (s *Server) handleTable(c *fiber.Ctx) error {
	req, err := parseRequest(c)
	if err != nil {
		return err
	}
	in := req.input()
	pd, err := s.process(c, in)
	if err != nil {
		return fail(c, err, acquisitionStatus(in))
	}

	t, warning := flatten(pd.Data)
	p := present.Paginate(present.Filter(t.Rows, req.Search), req.Page, present.PageSize)
	if p.Rows == nil {
		p.Rows = []*record.Record{}
	}
	return c.JSON(TableResponse{
		Columns: t.Columns,
		Headers: present.ColumnHeaders(t.Columns),
		Page:    p,
		Warning: warning,
	})
}

func (s *Server) handleSchema(c *fiber.Ctx) error {
	req, err := parseRequest(c)
	if err != nil {
		return err
	}
	in := req.input()
	pd, err := s.process(c, in)
	if err != nil {
		return fail(c, err, acquisitionStatus(in))
	}
	node := schema.Infer(pd.Data)
	return c.JSON(SchemaResponse{Schema: node, Tree: present.SchemaTree(node)})
}

// process acquires the input and normalizes it.
func (s *Server) process(c *fiber.Ctx, in datasource.Input) (processor.ProcessedData, error) {
	text, format, err := s.loader.Load(c.UserContext(), in)
	if err != nil {
		return processor.ProcessedData{}, err
	}
	start := time.Now()
	pd, err := processor.Process(text, format)
	metrics.RecordProcess(format.String(), pd.Records, err, time.Since(start))
	return pd, err
}

func (r processRequest) input() datasource.Input {
	if r.Text == "" && strings.TrimSpace(r.URL) != "" {
		return datasource.Input{URL: r.URL, Format: r.Format}
	}
	return datasource.Input{Text: r.Text, Format: r.Format}
}

// acquisitionStatus is the status for unclassified load failures: a failed
// fetch is a gateway problem, anything else a bad request.
func acquisitionStatus(in datasource.Input) int {
	if in.URL != "" {
		return fiber.StatusBadGateway
	}
	return fiber.StatusBadRequest
}

func parseRequest(c *fiber.Ctx) (processRequest, error) {
	var req processRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return req, nil
}

// flatten builds the table view data, degrading a TableError to an empty
// table plus a warning.
func flatten(ds record.Dataset) (table.Table, string) {
	t, err := table.Flatten(ds)
	if err != nil {
		return t, err.Error()
	}
	return t, ""
}

// sendProcessed writes pd with an ETag derived from its canonical JSON and
// answers conditional requests with 304.
func sendProcessed(c *fiber.Ctx, pd processor.ProcessedData) error {
	etag := `"` + processor.Fingerprint(pd) + `"`
	c.Set(fiber.HeaderETag, etag)
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return c.JSON(pd)
}

// fail writes err as {"error": msg} with a status derived from its type.
// fallback applies to acquisition errors that are not otherwise classified.
func fail(c *fiber.Ctx, err error, fallback int) error {
	return c.Status(statusFor(err, fallback)).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error, fallback int) int {
	var se *httpds.StatusError
	switch {
	case errors.Is(err, datasource.ErrEmptyInput):
		return fiber.StatusBadRequest
	case processor.IsFormatError(err):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, file.ErrTooLarge), errors.Is(err, httpds.ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.As(err, &se):
		return fiber.StatusBadGateway
	default:
		return fallback
	}
}
