package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alvianzf/jsonify/internal/config"
	"github.com/alvianzf/jsonify/internal/datasource"
	"github.com/alvianzf/jsonify/internal/datasource/httpds"
	"github.com/alvianzf/jsonify/internal/logger"
	"github.com/alvianzf/jsonify/internal/metrics"
	"github.com/alvianzf/jsonify/internal/metrics/datadog"
	"github.com/alvianzf/jsonify/internal/metrics/prom"
	"github.com/alvianzf/jsonify/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run loads configuration, wires metrics and serves until ctx is canceled.
//
// Exit codes:
//   - 0: clean shutdown.
//   - 1: the server failed.
//   - 2: configuration error.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsonifyd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a TOML config file (default: jsonify.toml in ., /etc/jsonify, ~/.jsonify)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get("jsonifyd")

	metricsHandler, closeMetrics := setupMetrics(cfg.Metrics, log)
	defer closeMetrics()

	client := httpds.New(httpds.Options{
		Timeout:          cfg.Fetch.Timeout,
		MaxBytes:         cfg.Fetch.MaxBytes,
		AllowInsecureTLS: cfg.Fetch.AllowInsecureTLS,
		UserAgent:        cfg.Fetch.UserAgent,
	})
	if cfg.Fetch.AllowInsecureTLS {
		log.Warn().Msg("TLS verification disabled for URL fetches")
	}

	srv := server.New(datasource.NewLoader(client, cfg.Fetch.MaxBytes), server.Options{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  2 * time.Minute,
		BodyLimit:    int(cfg.Server.MaxPayloadSize),
		Metrics:      metricsHandler,
	}, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(cfg.Server.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return 1
	}
	log.Info().Msg("server stopped")
	return 0
}

// setupMetrics installs the configured metrics backend. It returns the
// handler for GET /metrics (nil unless the backend is prometheus) and a
// function that flushes and releases the backend.
//
// A datadog backend that fails to initialize logs a warning and leaves
// metrics disabled.
func setupMetrics(mc config.MetricsConfig, log zerolog.Logger) (http.Handler, func()) {
	noop := func() {}

	switch mc.Backend {
	case "prometheus":
		b := prom.NewBackend(map[string]string{"job": mc.Job})
		metrics.SetBackend(b)
		log.Info().Str("backend", mc.Backend).Str("job", mc.Job).Msg("metrics enabled")
		return b.Handler(), noop

	case "datadog":
		tags := datadog.ParseTagsCSV(mc.Tags)
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName:    mc.Job,
			Tags:       tags,
			FlushEvery: mc.FlushInterval,
		})
		if err != nil {
			log.Warn().Err(err).Msg("datadog backend init failed; metrics disabled")
			return nil, noop
		}
		metrics.SetBackend(b)
		log.Info().Str("backend", mc.Backend).Str("job", mc.Job).Strs("tags", tags).Msg("metrics enabled")
		return nil, func() {
			// Close stops the flush loop and submits what is still buffered.
			if err := b.Close(); err != nil {
				log.Warn().Err(err).Msg("datadog close/flush error")
			}
		}

	default:
		log.Debug().Str("backend", mc.Backend).Msg("metrics disabled")
		metrics.SetBackend(nil)
		return nil, noop
	}
}
