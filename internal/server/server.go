// Package server exposes the minifier and URL prober over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leefowlercu/imagedrop/internal/classify"
	"github.com/leefowlercu/imagedrop/internal/events"
	"github.com/leefowlercu/imagedrop/internal/metrics"
	"github.com/leefowlercu/imagedrop/internal/minify"
	"github.com/leefowlercu/imagedrop/internal/payload"
)

// DefaultMaxBodyBytes caps the size of a /minify request body.
const DefaultMaxBodyBytes = 32 << 20

// Config holds configuration for the HTTP server.
type Config struct {
	Port         int
	Bind         string
	MaxBodyBytes int64
}

// Minifier downsizes raw image bytes.
type Minifier interface {
	MinifyBytes(ctx context.Context, data []byte, mimeType string, opts minify.Options) ([]byte, string, error)
}

// Prober classifies a URL as an image.
type Prober interface {
	ProbeIsImage(ctx context.Context, rawURL string) (bool, error)
}

// Option configures the Server.
type Option func(*Server)

// WithMinifier sets the minifier behind /minify.
func WithMinifier(m Minifier) Option {
	return func(s *Server) {
		s.minifier = m
	}
}

// WithProber sets the prober behind /probe.
func WithProber(p Prober) Option {
	return func(s *Server) {
		s.prober = p
	}
}

// WithMinifyDefaults sets the options used when a /minify request omits them.
func WithMinifyDefaults(opts minify.Options) Option {
	return func(s *Server) {
		s.defaults = opts
	}
}

// WithMetricsHandler mounts handler at /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = handler
	}
}

// WithLogger sets the logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server is the HTTP server. It is safe for concurrent use.
type Server struct {
	mu             sync.RWMutex
	config         Config
	server         *http.Server
	router         *chi.Mux
	minifier       Minifier
	prober         Prober
	defaults       minify.Options
	metricsHandler http.Handler
	document       Document
	waiter         Waiter
	readiness      ReadinessFunc
	bus            events.Bus
	mcpPath        string
	mcpHandler     http.Handler
	verifier       Verifier
	logger         *slog.Logger
	startedAt      time.Time
}

// New creates a server. A missing minifier or prober gets the package default.
func New(config Config, opts ...Option) *Server {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		config:    config,
		router:    chi.NewRouter(),
		defaults:  minify.DefaultOptions(),
		logger:    slog.Default(),
		startedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("component", "server")
	if s.minifier == nil {
		s.minifier = minify.New(minify.WithLogger(s.logger))
	}
	if s.prober == nil {
		s.prober = classify.NewProber(classify.WithLogger(s.logger))
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.instrument)

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Post("/minify", s.handleMinify)
	s.router.Get("/probe", s.handleProbe)

	if s.readiness != nil {
		s.router.Get("/readyz", s.handleReadyz)
	}

	if s.document != nil {
		s.router.Get("/document", s.handleDocument)
	}

	if s.metricsHandler != nil {
		s.router.Handle("/metrics", s.metricsHandler)
	}

	s.router.Group(func(r chi.Router) {
		if s.verifier != nil {
			r.Use(s.requireToken)
		}
		if s.document != nil {
			r.Post("/paste", s.handlePaste)
		}
		if s.bus != nil {
			r.Get("/events", s.handleEvents)
		}
		if s.mcpHandler != nil {
			r.Handle(s.mcpPath, s.mcpHandler)
		}
	})
}

// SetMinifyDefaults replaces the /minify defaults, e.g. after a config reload.
func (s *Server) SetMinifyDefaults(opts minify.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = opts
}

// Handler returns the HTTP handler for testing purposes.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router
}

// instrument records a request counter keyed by route pattern and status.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.RecordHTTPRequest(route, status)
		s.logger.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// HealthResponse is the response format for /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{
		Status: "alive",
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleMinify downsizes the raw image in the request body. The body's type
// comes from the Content-Type header, or is sniffed when the header is absent
// or generic.
func (s *Server) handleMinify(w http.ResponseWriter, r *http.Request) {
	opts, err := s.minifyOptions(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	mimeType := requestMIMEType(r, body)

	out, producedType, err := s.minifier.MinifyBytes(r.Context(), body, mimeType, opts)
	if err != nil {
		switch {
		case errors.Is(err, minify.ErrEmptyPayload):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, minify.ErrDecodeFailure):
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Warn("minify request failed", "mime_type", mimeType, "error", err)
			writeJSONError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", producedType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func (s *Server) minifyOptions(r *http.Request) (minify.Options, error) {
	s.mu.RLock()
	opts := s.defaults
	s.mu.RUnlock()
	q := r.URL.Query()

	if v := q.Get("max_width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid max_width %q", v)
		}
		opts.MaxWidth = n
	}
	if v := q.Get("max_height"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid max_height %q", v)
		}
		opts.MaxHeight = n
	}
	if v := q.Get("quality"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return opts, fmt.Errorf("invalid quality %q", v)
		}
		opts.Quality = f
	}

	return opts, nil
}

func requestMIMEType(r *http.Request, body []byte) string {
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)
	if ct == "" || ct == "application/octet-stream" {
		return payload.DetectMIME(body)
	}
	return ct
}

// ProbeResponse is the response format for /probe.
type ProbeResponse struct {
	URL   string `json:"url"`
	Image bool   `json:"image"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeJSONError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	isImage, err := s.prober.ProbeIsImage(r.Context(), rawURL)
	response := ProbeResponse{URL: rawURL, Image: isImage}
	if err != nil {
		response.Error = err.Error()
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// Start starts the HTTP server and blocks until it's stopped.
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Listen binds the configured address. Port 0 picks a free port.
func (s *Server) Listen() (net.Listener, error) {
	addr := fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s; %w", addr, err)
	}
	return ln, nil
}

// Serve serves HTTP on ln and blocks until Shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}
	server := s.server
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", ln.Addr().String())

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error; %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()

	if server == nil {
		return nil
	}

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server; %w", err)
	}

	return nil
}
