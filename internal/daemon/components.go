package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/leefowlercu/imagedrop/internal/mcp"
	"github.com/leefowlercu/imagedrop/internal/metrics"
	"github.com/leefowlercu/imagedrop/internal/server"
	"github.com/leefowlercu/imagedrop/internal/version"
	"github.com/leefowlercu/imagedrop/internal/watcher"
)

// ServerComponent runs the HTTP server.
type ServerComponent struct {
	srv    *server.Server
	logger *slog.Logger

	mu     sync.Mutex
	ln     net.Listener
	err    error
	since  time.Time
	doneCh chan struct{}
}

// NewServerComponent wraps srv as a Component.
func NewServerComponent(srv *server.Server) *ServerComponent {
	return &ServerComponent{
		srv:    srv,
		logger: slog.Default().With("component", "server"),
	}
}

func (c *ServerComponent) Name() string { return "server" }

// Start binds the listener synchronously so address errors fail the
// component, then serves in the background.
func (c *ServerComponent) Start(ctx context.Context) error {
	ln, err := c.srv.Listen()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ln = ln
	c.since = time.Now()
	c.doneCh = make(chan struct{})
	done := c.doneCh
	c.mu.Unlock()

	go func() {
		defer close(done)
		if err := c.srv.Serve(ctx, ln); err != nil {
			c.logger.Error("http server stopped", "error", err)
			c.mu.Lock()
			c.err = err
			c.since = time.Now()
			c.mu.Unlock()
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (c *ServerComponent) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ln == nil {
		return ""
	}
	return c.ln.Addr().String()
}

func (c *ServerComponent) Stop(ctx context.Context) error {
	c.mu.Lock()
	ln, done := c.ln, c.doneCh
	c.mu.Unlock()

	if ln == nil {
		return nil
	}

	err := c.srv.Shutdown(ctx)
	if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) && err == nil {
		err = fmt.Errorf("failed to close listener; %w", cerr)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	return err
}

func (c *ServerComponent) Health() ComponentHealth {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := ComponentHealth{Status: ComponentStatusRunning, LastChecked: time.Now(), Since: c.since}
	if c.err != nil {
		h.Status = ComponentStatusFailed
		h.Error = c.err.Error()
	}
	return h
}

// WatcherComponent runs a drop-folder watcher.
type WatcherComponent struct {
	w watcher.Watcher

	mu    sync.Mutex
	since time.Time
	err   error
}

// NewWatcherComponent wraps w as a Component.
func NewWatcherComponent(w watcher.Watcher) *WatcherComponent {
	return &WatcherComponent{w: w}
}

func (c *WatcherComponent) Name() string { return "watcher" }

func (c *WatcherComponent) Start(ctx context.Context) error {
	if err := c.w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher; %w", err)
	}
	c.mu.Lock()
	c.since = time.Now()
	c.mu.Unlock()

	go c.watchErrors(ctx)
	return nil
}

func (c *WatcherComponent) watchErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-c.w.Errors():
			if !ok {
				return
			}
			c.mu.Lock()
			c.err = err
			c.since = time.Now()
			c.mu.Unlock()
		}
	}
}

func (c *WatcherComponent) Stop(ctx context.Context) error {
	return c.w.Stop()
}

// Health reports degraded while the watcher has fallen back from fsnotify.
func (c *WatcherComponent) Health() ComponentHealth {
	stats := c.w.Stats()

	c.mu.Lock()
	since, err := c.since, c.err
	c.mu.Unlock()

	h := ComponentHealth{
		Status:      ComponentStatusRunning,
		LastChecked: time.Now(),
		Since:       since,
		Details: map[string]any{
			"watched_paths":    stats.WatchedPaths,
			"files_dispatched": stats.FilesDispatched,
			"files_skipped":    stats.FilesSkipped,
			"errors":           stats.Errors,
		},
	}

	switch {
	case err != nil:
		h.Status = ComponentStatusFailed
		h.Error = err.Error()
	case !stats.IsRunning:
		h.Status = ComponentStatusStopped
	case stats.DegradedMode:
		h.Status = ComponentStatusDegraded
		h.Error = "watch limit reached; some directories are not watched"
	}
	return h
}

// MetricsComponent drives periodic metric collection.
type MetricsComponent struct {
	collector *metrics.Collector
}

// NewMetricsComponent wraps collector as a Component.
func NewMetricsComponent(collector *metrics.Collector) *MetricsComponent {
	return &MetricsComponent{collector: collector}
}

func (c *MetricsComponent) Name() string { return "metrics" }

func (c *MetricsComponent) Start(ctx context.Context) error {
	return c.collector.Start(ctx, version.Get().Version)
}

func (c *MetricsComponent) Stop(ctx context.Context) error {
	return c.collector.Stop(ctx)
}

func (c *MetricsComponent) Health() ComponentHealth {
	return ComponentHealth{Status: ComponentStatusRunning, LastChecked: time.Now()}
}

// MCPComponent forwards document changes to MCP clients and closes their
// sessions on shutdown. The transport itself is served by the HTTP server.
type MCPComponent struct {
	srv *mcp.Server

	mu    sync.Mutex
	since time.Time
	up    bool
}

// NewMCPComponent wraps srv as a Component.
func NewMCPComponent(srv *mcp.Server) *MCPComponent {
	return &MCPComponent{srv: srv}
}

func (c *MCPComponent) Name() string { return "mcp" }

func (c *MCPComponent) Start(ctx context.Context) error {
	if err := c.srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mcp server; %w", err)
	}
	c.mu.Lock()
	c.up = true
	c.since = time.Now()
	c.mu.Unlock()
	return nil
}

func (c *MCPComponent) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.up = false
	c.mu.Unlock()
	return c.srv.Stop(ctx)
}

func (c *MCPComponent) Health() ComponentHealth {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := ComponentStatusRunning
	if !c.up {
		status = ComponentStatusStopped
	}
	return ComponentHealth{Status: status, LastChecked: time.Now(), Since: c.since}
}
