// Package httpds fetches remote input over HTTP.
package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/alvianzf/jsonify/internal/metrics"
)

// ErrTooLarge is returned when a response body exceeds MaxBytes.
var ErrTooLarge = errors.New("response exceeds size limit")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// Options configures a Client.
type Options struct {
	Timeout          time.Duration
	MaxBytes         int64 // zero means no cap
	AllowInsecureTLS bool
	UserAgent        string
}

// Client performs whole-body GET requests.
type Client struct {
	http      *http.Client
	maxBytes  int64
	userAgent string
}

// New builds a Client with its own transport.
func New(opts Options) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 8,
		// Compression is handled in Fetch so the byte cap applies to the
		// decoded body.
		DisableCompression: true,
	}
	if opts.AllowInsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}
	return NewWithClient(&http.Client{Timeout: opts.Timeout, Transport: transport}, opts)
}

// NewWithClient wraps an existing http.Client. If hc is nil,
// http.DefaultClient is used.
func NewWithClient(hc *http.Client, opts Options) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "jsonify/1.0"
	}
	return &Client{http: hc, maxBytes: opts.MaxBytes, userAgent: ua}
}

// Fetch GETs rawURL and returns the whole response body as text.
//
// Non-2xx responses fail with a *StatusError whose message is
// "HTTP error! status: <code>". Gzip-encoded bodies are decoded.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("Please enter a URL")
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		metrics.RecordHTTP("fetch", 0, err, -1, -1, -1)
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordHTTP("fetch", 0, err, time.Since(start), -1, -1)
		return "", fmt.Errorf("http get: %w", err)
	}
	reqDur := time.Since(start)
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		n, _ := io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		serr := &StatusError{StatusCode: resp.StatusCode}
		metrics.RecordHTTP("fetch", resp.StatusCode, serr, reqDur, time.Since(start), n)
		return "", serr
	}

	body, err := c.readBody(resp)
	metrics.RecordHTTP("fetch", resp.StatusCode, err, reqDur, time.Since(start), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	if c.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > c.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, c.maxBytes)
	}
	return b, nil
}
