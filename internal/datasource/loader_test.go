package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alvianzf/jsonify/internal/datasource/httpds"
	"github.com/alvianzf/jsonify/internal/processor"
)

type stubFetcher struct {
	body string
	err  error
	got  string
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string) (string, error) {
	s.got = rawURL
	return s.body, s.err
}

func TestLoad_Sources(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "people.csv")
	if err := os.WriteFile(csvPath, []byte("a,b\n1,2"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name       string
		in         Input
		wantText   string
		wantFormat processor.Format
	}{
		{name: "text_default_json", in: Input{Text: `{"a":1}`}, wantText: `{"a":1}`, wantFormat: processor.JSON},
		{name: "text_declared_csv", in: Input{Text: "a\n1", Format: "csv"}, wantText: "a\n1", wantFormat: processor.CSV},
		{name: "file_extension", in: Input{Path: csvPath}, wantText: "a,b\n1,2", wantFormat: processor.CSV},
		{name: "file_declared_overrides", in: Input{Path: csvPath, Format: "xlsx"}, wantText: "a,b\n1,2", wantFormat: processor.XLSX},
		{name: "url_is_json", in: Input{URL: "http://example.test/data"}, wantText: `[1]`, wantFormat: processor.JSON},
		{name: "stdin", in: Input{Stdin: strings.NewReader("x,y\n1,2"), Format: "csv"}, wantText: "x,y\n1,2", wantFormat: processor.CSV},
		{name: "upload_name", in: Input{Upload: strings.NewReader("k\nv"), Name: "rows.CSV"}, wantText: "k\nv", wantFormat: processor.CSV},
		{name: "upload_declared", in: Input{Upload: strings.NewReader("[]"), Name: "rows.csv", Format: "json"}, wantText: "[]", wantFormat: processor.JSON},
		{name: "text_beats_url", in: Input{Text: `[2]`, URL: "http://example.test/data"}, wantText: `[2]`, wantFormat: processor.JSON},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := &Loader{Fetcher: &stubFetcher{body: `[1]`}}
			text, format, err := l.Load(context.Background(), tc.in)
			if err != nil {
				t.Fatalf("Load() err=%v", err)
			}
			if text != tc.wantText || format != tc.wantFormat {
				t.Fatalf("Load()=(%q, %s), want (%q, %s)", text, format, tc.wantText, tc.wantFormat)
			}
		})
	}
}

// TestLoad_Errors verifies the failure modes of each source.
//
// Edge cases:
//   - whitespace-only text and an empty stdin are ErrEmptyInput
//   - an unknown declared format is a FormatError before any I/O
func TestLoad_Errors(t *testing.T) {
	fetchErr := errors.New("HTTP error! status: 500")

	t.Run("nothing", func(t *testing.T) {
		_, _, err := (&Loader{}).Load(context.Background(), Input{})
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("err=%v, want ErrEmptyInput", err)
		}
	})
	t.Run("blank_text", func(t *testing.T) {
		_, _, err := (&Loader{}).Load(context.Background(), Input{Text: " \n\t"})
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("err=%v, want ErrEmptyInput", err)
		}
		if err.Error() != "Please enter or upload some data to process." {
			t.Fatalf("message=%q", err.Error())
		}
	})
	t.Run("empty_stdin", func(t *testing.T) {
		_, _, err := (&Loader{}).Load(context.Background(), Input{Stdin: strings.NewReader("")})
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("err=%v, want ErrEmptyInput", err)
		}
	})
	t.Run("bad_format", func(t *testing.T) {
		f := &stubFetcher{body: "[]"}
		_, _, err := (&Loader{Fetcher: f}).Load(context.Background(), Input{URL: "http://x", Format: "yaml"})
		if !processor.IsFormatError(err) {
			t.Fatalf("err=%v, want FormatError", err)
		}
		if f.got != "" {
			t.Fatalf("fetch happened despite bad format")
		}
	})
	t.Run("fetch_error", func(t *testing.T) {
		_, _, err := (&Loader{Fetcher: &stubFetcher{err: fetchErr}}).Load(context.Background(), Input{URL: "http://x"})
		if !errors.Is(err, fetchErr) {
			t.Fatalf("err=%v, want fetch error", err)
		}
	})
	t.Run("no_fetcher", func(t *testing.T) {
		_, _, err := NewLoader(nil, 0).Load(context.Background(), Input{URL: "http://x"})
		if err == nil {
			t.Fatalf("err=nil, want error")
		}
	})
	t.Run("missing_file", func(t *testing.T) {
		_, _, err := (&Loader{}).Load(context.Background(), Input{Path: filepath.Join(t.TempDir(), "nope.json")})
		if err == nil || !strings.HasPrefix(err.Error(), "Error reading file: ") {
			t.Fatalf("err=%v", err)
		}
	})
}

func TestLoad_WithHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	l := NewLoader(httpds.New(httpds.Options{Timeout: 5 * time.Second}), 1<<20)
	text, format, err := l.Load(context.Background(), Input{URL: srv.URL})
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if text != `{"ok":true}` || format != processor.JSON {
		t.Fatalf("Load()=(%q, %s)", text, format)
	}
}
