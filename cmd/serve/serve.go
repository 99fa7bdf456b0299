package serve

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/internal/auth"
	"github.com/leefowlercu/imagedrop/internal/cmdutil"
	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/daemon"
	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/mcp"
	"github.com/leefowlercu/imagedrop/internal/metrics"
	"github.com/leefowlercu/imagedrop/internal/minify"
	"github.com/leefowlercu/imagedrop/internal/server"
	"github.com/leefowlercu/imagedrop/internal/version"
	"github.com/leefowlercu/imagedrop/internal/watcher"
)

// Flag variables
var (
	serveBind      string
	servePort      int
	serveWatchDirs []string
	serveSeed      string
	servePIDFile   string
	serveQuiet     bool
)

// ServeCmd runs the HTTP server around a shared document.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ingestion pipeline over HTTP",
	Long: `Run a long-lived server holding one document.

Endpoints:
  POST /paste      paste the request body (image, text/plain, or text/html)
  GET  /document   current document snapshot
  POST /minify     minify the image in the request body
  GET  /probe      classify ?url= as an image or not
  GET  /healthz    liveness
  GET  /readyz     readiness with per-component health
  GET  /metrics    Prometheus metrics
  GET  /events     websocket stream of ingestion events
  *    /mcp        Model Context Protocol (streamable HTTP)

When server.auth_secret is set, /paste, /events and /mcp require a bearer
token issued by "imagedrop token".

With --watch-dir (or watch.dirs in the configuration), images saved into those
folders are dropped onto the same document. SIGHUP reloads the configuration;
SIGINT or SIGTERM shuts down gracefully.`,
	Example: `  # Serve on the configured address
  imagedrop serve

  # Serve on all interfaces and watch a folder
  imagedrop serve --bind 0.0.0.0 --port 8700 --watch-dir ~/Downloads`,
	PreRunE: validateServe,
	RunE:    runServe,
}

func init() {
	ServeCmd.Flags().StringVar(&serveBind, "bind", "", "Bind address (default from config)")
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", -1, "Listen port (default from config, 0 = any free port)")
	ServeCmd.Flags().StringArrayVar(&serveWatchDirs, "watch-dir", nil, "Drop folder to watch (repeatable)")
	ServeCmd.Flags().StringVar(&serveSeed, "seed", "", "Initial document text")
	ServeCmd.Flags().StringVar(&servePIDFile, "pid-file", "", "PID file path (default from config, \"none\" to disable)")
	ServeCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "Suppress per-item outcome output")
}

func validateServe(cmd *cobra.Command, args []string) error {
	if servePort < -1 || servePort > 65535 {
		return fmt.Errorf("invalid port %d; must be between 0 and 65535", servePort)
	}

	cmd.SilenceUsage = true
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default().With("command", "serve")
	cfg := config.Get()

	bind := cfg.Server.Bind
	if serveBind != "" {
		bind = serveBind
	}
	port := cfg.Server.Port
	if servePort >= 0 {
		port = servePort
	}

	pidFile := config.ExpandPath(cfg.Server.PIDFile)
	switch servePIDFile {
	case "":
	case "none":
		pidFile = ""
	default:
		pidFile = config.ExpandPath(servePIDFile)
	}

	d := daemon.NewDaemon(daemon.DaemonConfig{
		ShutdownTimeout: cfg.Server.ShutdownGrace(),
		PIDFile:         pidFile,
	})

	doc := editor.NewDocument(editor.WithText(serveSeed), editor.WithLogger(logger))
	pipeline := cmdutil.NewPipeline(cfg, doc, nil, logger)

	var report io.Writer = cmd.ErrOrStderr()
	if serveQuiet {
		report = io.Discard
	}
	cmdutil.ReportEvents(pipeline.Bus, report)

	collector := metrics.NewCollector(time.Duration(cfg.Metrics.CollectionInterval) * time.Second)

	dirs := serveWatchDirs
	if len(dirs) == 0 {
		dirs = cfg.Watch.ExpandedDirs()
	}
	if len(dirs) > 0 {
		w, err := newWatcher(cfg, doc, pipeline, dirs, logger)
		if err != nil {
			return err
		}
		collector.Register("watcher", w)
		d.RegisterComponent(daemon.NewWatcherComponent(w))
	}
	d.RegisterComponent(daemon.NewMetricsComponent(collector))

	prober := cmdutil.NewProber(cfg.Probe, logger)
	serverOpts := []server.Option{
		server.WithProber(prober),
		server.WithMinifyDefaults(cfg.Minify.Options()),
		server.WithMetricsHandler(metrics.Handler()),
		server.WithDocument(pipeline.Document, pipeline.Controller),
		server.WithReadiness(d.Readiness),
		server.WithLogger(logger),
	}

	if cfg.Server.AuthSecret != "" {
		tokens, err := auth.New(cfg.Server.AuthSecret)
		if err != nil {
			return fmt.Errorf("failed to configure auth; %w", err)
		}
		serverOpts = append(serverOpts, server.WithAuth(tokens))
	}
	if cfg.Server.EventsEnabled {
		serverOpts = append(serverOpts, server.WithEventStream(pipeline.Bus))
	}

	if cfg.Server.MCPEnabled {
		mcpServer := mcp.NewServer(
			pipeline.Document,
			pipeline.Controller,
			mcp.Config{Name: "imagedrop", Version: version.Get().Version, BasePath: cfg.Server.MCPPath},
			mcp.WithProber(prober),
			mcp.WithMinifier(minify.New(minify.WithLogger(logger)), cfg.Minify.Options()),
			mcp.WithBus(pipeline.Bus),
			mcp.WithLogger(logger),
		)
		d.RegisterComponent(daemon.NewMCPComponent(mcpServer))
		serverOpts = append(serverOpts, server.WithMCPHandler(cfg.Server.MCPPath, mcpServer.Handler()))
	}

	srv := server.New(
		server.Config{
			Bind:         bind,
			Port:         port,
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
		},
		serverOpts...,
	)
	serverComponent := daemon.NewServerComponent(srv)
	d.RegisterComponent(serverComponent)

	d.OnConfigReload(func() error {
		srv.SetMinifyDefaults(config.Get().Minify.Options())
		return nil
	})
	config.OnReload(func(_, _ *config.Config) {
		if err := d.TriggerConfigReload(); err != nil {
			logger.Warn("config reload incomplete", "error", err)
		}
	})
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopReloads := config.WatchReloads(ctx)
	defer stopReloads()

	go announce(ctx, serverComponent, report)

	runErr := d.Start(ctx)

	if err := pipeline.Finish(); err != nil {
		logger.Warn("failed to finish pending items", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("failed to run server; %w", runErr)
	}
	return nil
}

func newWatcher(cfg *config.Config, doc *editor.Document, pipeline *cmdutil.Pipeline, dirs []string, logger *slog.Logger) (watcher.Watcher, error) {
	dirs, err := cmdutil.ResolvePaths(dirs)
	if err != nil {
		return nil, err
	}

	opts := []watcher.WatcherOption{
		watcher.WithDebounceWindow(cfg.Watch.DebounceWindow()),
		watcher.WithBus(pipeline.Bus),
		watcher.WithLogger(logger),
	}
	if cfg.Watch.MaxFileBytes > 0 {
		opts = append(opts, watcher.WithMaxFileBytes(cfg.Watch.MaxFileBytes))
	}

	w, err := watcher.New(doc.Root(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher; %w", err)
	}

	for _, dir := range dirs {
		if err := w.Watch(dir); err != nil {
			// A folder that cannot be watched leaves the server up and degraded.
			logger.Warn("failed to watch folder", "path", dir, "error", err)
		}
	}
	return w, nil
}

// announce prints the listen address once the server is bound.
func announce(ctx context.Context, c *daemon.ServerComponent, w io.Writer) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if addr := c.Addr(); addr != "" {
				fmt.Fprintf(w, "listening on http://%s\n", addr)
				return
			}
		}
	}
}
