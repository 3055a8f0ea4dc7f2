// Package server exposes the processing pipeline over HTTP: a JSON API under
// /api/v1 and a small HTML page for interactive use.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alvianzf/jsonify/internal/datasource"
	"github.com/alvianzf/jsonify/internal/metrics"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// Options configures a Server.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimit    int // bytes; zero keeps fiber's default

	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
}

// Server is the HTTP front end.
type Server struct {
	app    *fiber.App
	loader *datasource.Loader
	logger zerolog.Logger
	start  time.Time
}

// New builds the fiber app, installs middleware and registers every route.
func New(loader *datasource.Loader, opts Options, logger zerolog.Logger) *Server {
	s := &Server{
		loader: loader,
		logger: logger.With().Str("component", "server").Logger(),
		start:  time.Now(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "jsonify",
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		IdleTimeout:           opts.IdleTimeout,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(s.logger),
	})

	s.app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	s.app.Use(requestID())
	s.app.Use(securityHeaders())
	s.app.Use(requestLogger(s.logger))

	s.routes(opts.Metrics)
	return s
}

func (s *Server) routes(metricsHandler http.Handler) {
	s.app.Get("/health", s.handleHealth)
	if metricsHandler != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(metricsHandler))
	}

	s.app.Get("/", s.handleIndex)
	s.app.Post("/view", s.handleView)

	api := s.app.Group("/api/v1")
	api.Post("/process", s.handleProcess)
	api.Post("/process/upload", s.handleUpload)
	api.Post("/process/url", s.handleURL)
	api.Post("/table", s.handleTable)
	api.Post("/schema", s.handleSchema)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down")
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	uptime := time.Since(s.start)
	return c.JSON(fiber.Map{
		"status":     "ok",
		"time":       time.Now().UTC().Format(time.RFC3339),
		"uptime_sec": uptime.Seconds(),
	})
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

// requestID propagates an incoming X-Request-ID or assigns a new one.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("request_id", id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

func securityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// The HTML page carries inline styles and posts back to itself.
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'")
		return c.Next()
	}
}

// requestLogger records request metrics and logs failed requests.
func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler set the final status before it is read.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		duration := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path
		metrics.RecordRequest(route, c.Method(), status, duration)

		if status >= 400 {
			ev := logger.Warn()
			if status >= 500 {
				ev = logger.Error()
			}
			ev.Str("method", c.Method()).
				Str("path", c.Path()).
				Int("status", status).
				Dur("duration", duration).
				Str("request_id", requestIDOf(c)).
				Msg("request error")
		}
		return err
	}
}

func requestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}
