// Package mcp exposes the ingestion pipeline to Model Context Protocol
// clients: the live document as a resource, and probe, paste and minify as
// tools.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/events"
	"github.com/leefowlercu/imagedrop/internal/minify"
	"github.com/leefowlercu/imagedrop/internal/version"
)

// Document is the live document exposed as a resource and fed by paste tools.
type Document interface {
	Root() editor.Surface
	Snapshot() editor.Snapshot
}

// Waiter blocks until in-flight items have been inserted.
type Waiter interface {
	Wait()
}

// Prober classifies a URL as an image.
type Prober interface {
	ProbeIsImage(ctx context.Context, rawURL string) (bool, error)
}

// Minifier downsizes raw image bytes.
type Minifier interface {
	MinifyBytes(ctx context.Context, data []byte, mimeType string, opts minify.Options) ([]byte, string, error)
}

// Config contains MCP server configuration.
type Config struct {
	// Name is the server name advertised to clients.
	Name string
	// Version is the server version.
	Version string
	// BasePath is the URL path the streamable HTTP transport answers on.
	BasePath string
}

// DefaultConfig returns default MCP server configuration.
func DefaultConfig() Config {
	return Config{
		Name:     "imagedrop",
		Version:  version.Get().Version,
		BasePath: "/mcp",
	}
}

// Option configures the Server.
type Option func(*Server)

// WithProber sets the prober behind probe_image_url.
func WithProber(p Prober) Option {
	return func(s *Server) {
		s.prober = p
	}
}

// WithMinifier sets the minifier behind minify_image.
func WithMinifier(m Minifier, defaults minify.Options) Option {
	return func(s *Server) {
		s.minifier = m
		s.defaults = defaults
	}
}

// WithBus sends resource update notifications for every inserted item.
func WithBus(bus events.Bus) Option {
	return func(s *Server) {
		s.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server wraps the MCP server around a document.
type Server struct {
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	doc        Document
	waiter     Waiter
	prober     Prober
	minifier   Minifier
	defaults   minify.Options
	bus        events.Bus
	logger     *slog.Logger

	mu          sync.Mutex
	unsubscribe func()
}

// NewServer creates an MCP server for doc. Paste tools wait on w before
// answering. Tools whose backend is not configured are not registered.
func NewServer(doc Document, w Waiter, cfg Config, opts ...Option) *Server {
	s := &Server{
		doc:      doc,
		waiter:   w,
		defaults: minify.DefaultOptions(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "mcp")

	s.mcpServer = server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	s.httpServer = server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithHeartbeatInterval(30*time.Second),
		server.WithEndpointPath(cfg.BasePath),
	)

	return s
}

// Start begins forwarding document changes to connected clients.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bus != nil && s.unsubscribe == nil {
		s.unsubscribe = s.bus.Subscribe(events.ItemInserted, s.handleItemInserted)
	}
	s.logger.Debug("mcp server started")
	return nil
}

// Stop stops notifications and closes HTTP sessions.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("mcp server shutdown error", "error", err)
		return err
	}
	return nil
}

// Handler returns the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return s.httpServer
}

// ServeStdio serves one client over in and out until ctx is done or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, in, out)
}

// NotifyResourceChanged tells all clients that uri has changed.
func (s *Server) NotifyResourceChanged(uri string) {
	s.mcpServer.SendNotificationToAllClients("notifications/resources/updated", map[string]any{
		"uri": uri,
	})
}

func (s *Server) handleItemInserted(event events.Event) {
	if _, ok := event.Payload.(*events.ItemEvent); !ok {
		s.logger.Warn("unexpected item event payload", "type", event.Type)
		return
	}
	s.NotifyResourceChanged(ResourceURIDocument)
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
