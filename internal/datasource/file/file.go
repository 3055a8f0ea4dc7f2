// Package file reads whole input files for processing.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/alvianzf/jsonify/internal/processor"
)

// ErrTooLarge is returned when a file exceeds the configured byte cap.
var ErrTooLarge = errors.New("file exceeds size limit")

// Reader reads input files. MaxBytes caps the decoded size; zero means no cap.
type Reader struct {
	MaxBytes int64
}

// ReadContent reads path with the default Reader.
func ReadContent(ctx context.Context, path string, format processor.Format) (string, error) {
	return Reader{}.ReadContent(ctx, path, format)
}

// ReadContent returns the whole content of path as text.
//
// Gzip content (detected by its magic bytes, so both "x.csv.gz" and a
// renamed archive work) is decompressed first. Text formats go through a
// BOM-aware decoder: a UTF-16 byte order mark switches decoding to UTF-16 and
// a UTF-8 mark is dropped. XLSX content is read as raw bytes and converted to
// text with invalid sequences replaced by U+FFFD.
//
// All failures are reported as "Error reading file: ...".
func (r Reader) ReadContent(ctx context.Context, path string, format processor.Format) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", readError(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", readError(err)
	}
	defer f.Close()

	return r.Decode(f, format)
}

// Decode reads src to the end and converts it to text the same way
// ReadContent does. It serves uploads that never touch the filesystem.
func (r Reader) Decode(src io.Reader, format processor.Format) (string, error) {
	in, closeFn, err := maybeGunzip(bufio.NewReader(src))
	if err != nil {
		return "", readError(err)
	}
	defer closeFn()

	if format != processor.XLSX {
		in = transform.NewReader(in, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	}

	b, err := readAll(in, r.MaxBytes)
	if err != nil {
		return "", readError(err)
	}
	if format == processor.XLSX {
		return strings.ToValidUTF8(string(b), "\uFFFD"), nil
	}
	return string(b), nil
}

func readError(err error) error {
	return fmt.Errorf("Error reading file: %w", err)
}

// maybeGunzip wraps br in a gzip reader when the stream starts with the gzip
// magic number.
func maybeGunzip(br *bufio.Reader) (io.Reader, func(), error) {
	magic, err := br.Peek(2)
	if err != nil || magic[0] != 0x1f || magic[1] != 0x8b {
		return br, func() {}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, nil, fmt.Errorf("gzip: %w", err)
	}
	return zr, func() { _ = zr.Close() }, nil
}

func readAll(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, max)
	}
	return b, nil
}
