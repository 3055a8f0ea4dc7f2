// Package datasource resolves user input (pasted text, a file, a URL or
// stdin) into the (text, format) pair the processor consumes.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alvianzf/jsonify/internal/datasource/file"
	"github.com/alvianzf/jsonify/internal/datasource/httpds"
	"github.com/alvianzf/jsonify/internal/processor"
)

// ErrEmptyInput is returned when the resolved input is blank.
var ErrEmptyInput = errors.New("Please enter or upload some data to process.")

// Input describes where data should come from. The first non-empty of Text,
// Upload, Path and URL wins; Stdin is used when all of them are empty.
type Input struct {
	Text string

	// Upload is file content received without a path (a multipart part);
	// Name is its original file name.
	Upload io.Reader
	Name   string

	Path  string
	URL   string
	Stdin io.Reader

	// Format is the declared format. When empty, files default from their
	// extension and everything else defaults to json.
	Format string
}

// Fetcher returns the body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Loader reads input through a file reader and a fetcher.
type Loader struct {
	Files   file.Reader
	Fetcher Fetcher
}

// NewLoader builds a Loader over the given fetch client. maxBytes caps file
// and stdin reads.
func NewLoader(fetcher *httpds.Client, maxBytes int64) *Loader {
	l := &Loader{Files: file.Reader{MaxBytes: maxBytes}}
	if fetcher != nil {
		l.Fetcher = fetcher
	}
	return l
}

// Load returns the input text and its format.
//
// Errors from the declared format are *processor.FormatError; acquisition
// failures are returned as-is; blank input yields ErrEmptyInput.
func (l *Loader) Load(ctx context.Context, in Input) (string, processor.Format, error) {
	var (
		text   string
		format processor.Format
		err    error
	)

	switch {
	case in.Text != "":
		if format, err = processor.ParseFormat(in.Format); err != nil {
			return "", "", err
		}
		text = in.Text

	case in.Upload != nil:
		if format, err = declaredOr(in.Format, processor.FormatFromFilename(in.Name)); err != nil {
			return "", "", err
		}
		if text, err = l.Files.Decode(in.Upload, format); err != nil {
			return "", "", err
		}

	case in.Path != "":
		if format, err = declaredOr(in.Format, processor.FormatFromFilename(in.Path)); err != nil {
			return "", "", err
		}
		if text, err = l.Files.ReadContent(ctx, in.Path, format); err != nil {
			return "", "", err
		}

	case in.URL != "":
		// Fetched content is json unless declared otherwise.
		if format, err = processor.ParseFormat(in.Format); err != nil {
			return "", "", err
		}
		if l.Fetcher == nil {
			return "", "", errors.New("url input is not enabled")
		}
		if text, err = l.Fetcher.Fetch(ctx, in.URL); err != nil {
			return "", "", err
		}

	case in.Stdin != nil:
		if format, err = processor.ParseFormat(in.Format); err != nil {
			return "", "", err
		}
		r := in.Stdin
		if l.Files.MaxBytes > 0 {
			r = io.LimitReader(r, l.Files.MaxBytes)
		}
		b, rerr := io.ReadAll(r)
		if rerr != nil {
			return "", "", fmt.Errorf("read stdin: %w", rerr)
		}
		text = string(b)
	}

	if strings.TrimSpace(text) == "" {
		return "", "", ErrEmptyInput
	}
	return text, format, nil
}

// declaredOr parses the declared format, falling back to def when none was
// declared.
func declaredOr(declared string, def processor.Format) (processor.Format, error) {
	if strings.TrimSpace(declared) == "" {
		return def, nil
	}
	return processor.ParseFormat(declared)
}
