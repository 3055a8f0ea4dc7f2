package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alvianzf/jsonify/internal/config"
	"github.com/alvianzf/jsonify/internal/datasource"
	"github.com/alvianzf/jsonify/internal/datasource/httpds"
	"github.com/alvianzf/jsonify/internal/logger"
	"github.com/alvianzf/jsonify/internal/metrics"
	"github.com/alvianzf/jsonify/internal/present"
	"github.com/alvianzf/jsonify/internal/processor"
	"github.com/alvianzf/jsonify/internal/schema"
	"github.com/alvianzf/jsonify/internal/table"
)

// deps are external seams for testability.
type deps struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Fetcher overrides the HTTP client built from flags.
	Fetcher datasource.Fetcher
}

type runConfig struct {
	In       string
	URL      string
	Text     string
	Format   string
	View     string
	Search   string
	Page     int
	Timeout  time.Duration
	MaxBytes int64
	Insecure bool
	LogLevel string
}

var views = []string{"json", "table", "schema", "summary"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], deps{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	stop()
	os.Exit(code)
}

// run processes one input and prints the requested view.
//
// Exit codes:
//   - 0: success (a table warning is printed but does not fail the run).
//   - 1: the input could not be read or processed.
//   - 2: usage error.
func run(ctx context.Context, args []string, d deps) int {
	if d.Stdout == nil {
		d.Stdout = io.Discard
	}
	if d.Stderr == nil {
		d.Stderr = io.Discard
	}

	cfg, err := parseFlags(args, d.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(d.Stderr, err.Error())
		return 2
	}

	logger.SetupWriter(d.Stderr, cfg.LogLevel, "console")
	log := logger.Get("cli")

	fetcher := d.Fetcher
	if fetcher == nil {
		fetcher = httpds.New(httpds.Options{
			Timeout:          cfg.Timeout,
			MaxBytes:         cfg.MaxBytes,
			AllowInsecureTLS: cfg.Insecure,
		})
	}
	loader := &datasource.Loader{Fetcher: fetcher}
	loader.Files.MaxBytes = cfg.MaxBytes

	in := datasource.Input{Text: cfg.Text, URL: cfg.URL, Format: cfg.Format}
	switch cfg.In {
	case "":
	case "-":
		in.Stdin = d.Stdin
	default:
		in.Path = cfg.In
	}
	if in.Text == "" && in.URL == "" && in.Path == "" && in.Stdin == nil {
		in.Stdin = d.Stdin
	}

	text, format, err := loader.Load(ctx, in)
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return 1
	}

	start := time.Now()
	pd, err := processor.Process(text, format)
	metrics.RecordProcess(format.String(), pd.Records, err, time.Since(start))
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return 1
	}
	log.Debug().
		Str("format", format.String()).
		Int("records", pd.Records).
		Str("size", pd.Size).
		Msg("processed")

	switch cfg.View {
	case "json":
		fmt.Fprintln(d.Stdout, pd.JSON)
	case "summary":
		writeSummary(d.Stdout, pd)
	case "schema":
		fmt.Fprint(d.Stdout, present.SchemaTree(schema.Infer(pd.Data)))
	case "table":
		t, err := table.Flatten(pd.Data)
		if err != nil {
			fmt.Fprintf(d.Stderr, "warning: %v\n", err)
		}
		writeTable(d.Stdout, t, cfg.Search, cfg.Page)
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (runConfig, error) {
	var cfg runConfig
	var maxBytes string

	fs := flag.NewFlagSet("jsonify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.In, "in", "", "input file path (\"-\" for stdin; .gz is decompressed)")
	fs.StringVar(&cfg.URL, "url", "", "fetch input from this URL")
	fs.StringVar(&cfg.Text, "text", "", "inline input text")
	fs.StringVar(&cfg.Format, "format", "", "input format: json, csv or xlsx (default: from file extension, else json)")
	fs.StringVar(&cfg.View, "view", "json", "output view: "+strings.Join(views, ", "))
	fs.StringVar(&cfg.Search, "search", "", "table view: keep rows with a value containing this text")
	fs.IntVar(&cfg.Page, "page", 1, "table view: page number")
	fs.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "URL fetch timeout")
	fs.StringVar(&maxBytes, "max-bytes", "10MB", "maximum input size")
	fs.BoolVar(&cfg.Insecure, "insecure", false, "skip TLS verification for URL fetches")
	fs.StringVar(&cfg.LogLevel, "log-level", "warn", "log level")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	sources := 0
	for _, s := range []string{cfg.In, cfg.URL, cfg.Text} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return cfg, errors.New("use only one of -in, -url and -text")
	}

	validView := false
	for _, v := range views {
		if cfg.View == v {
			validView = true
		}
	}
	if !validView {
		return cfg, fmt.Errorf("invalid -view %q (use %s)", cfg.View, strings.Join(views, ", "))
	}

	n, err := config.ParseSize(maxBytes)
	if err != nil {
		return cfg, fmt.Errorf("invalid -max-bytes: %w", err)
	}
	cfg.MaxBytes = n
	return cfg, nil
}

func writeSummary(w io.Writer, pd processor.ProcessedData) {
	fmt.Fprintf(w, "format:  %s\n", pd.Format)
	fmt.Fprintf(w, "records: %d\n", pd.Records)
	fmt.Fprintf(w, "size:    %s\n", pd.Size)
	fmt.Fprintf(w, "valid:   %t\n", pd.IsValid)
}

// writeTable prints one page of t as aligned columns followed by a page line.
func writeTable(w io.Writer, t table.Table, search string, page int) {
	if len(t.Columns) == 0 {
		fmt.Fprintln(w, "No data available")
		return
	}
	p := present.Paginate(present.Filter(t.Rows, search), page, present.PageSize)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(present.ColumnHeaders(t.Columns), "\t"))
	for _, r := range p.Rows {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			v, _ := r.Get(col)
			cells[i] = oneLine(present.CellText(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "page %d of %d (%d rows)\n", p.Number, p.TotalPages, p.TotalRows)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
