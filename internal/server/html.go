package server

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/alvianzf/jsonify/internal/present"
	"github.com/alvianzf/jsonify/internal/processor"
	"github.com/alvianzf/jsonify/internal/schema"
)

func formatNames() []string {
	out := make([]string, len(processor.Formats))
	for i, f := range processor.Formats {
		out[i] = f.String()
	}
	return out
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, present.View{
		Format:  processor.JSON.String(),
		Formats: formatNames(),
	})
}

// handleView processes the submitted form and renders the summary, the
// table, the structure and the JSON on one page. Failures render the form
// again with the message.
func (s *Server) handleView(c *fiber.Ctx) error {
	req, err := parseRequest(c)
	if err != nil {
		return err
	}
	v := present.View{
		Input:   req.Text,
		Format:  req.Format,
		Formats: formatNames(),
		URL:     req.URL,
	}
	if v.Format == "" {
		v.Format = processor.JSON.String()
	}

	in := req.input()
	pd, err := s.process(c, in)
	if err != nil {
		v.Error = err.Error()
		return render(c, statusFor(err, acquisitionStatus(in)), v)
	}

	t, warning := flatten(pd.Data)
	node := schema.Infer(pd.Data)
	v.Summary = &present.Summary{
		Format:  pd.Format.String(),
		Records: pd.Records,
		Size:    pd.Size,
		IsValid: pd.IsValid,
	}
	v.Warning = warning
	v.JSON = pd.JSON
	v.Table = present.NewTableView(t, req.Search, req.Page)
	v.Schema = &node
	return render(c, fiber.StatusOK, v)
}

func render(c *fiber.Ctx, status int, v present.View) error {
	var buf bytes.Buffer
	if err := present.RenderHTML(&buf, v); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
