package cmdutil

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/redis/go-redis/v9"

	"github.com/leefowlercu/imagedrop/internal/classify"
	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/events"
	"github.com/leefowlercu/imagedrop/internal/ingest"
	"github.com/leefowlercu/imagedrop/internal/minify"
	"github.com/leefowlercu/imagedrop/internal/tui/styles"
	"github.com/leefowlercu/imagedrop/internal/version"
)

// NewProber builds a URL prober from probe settings.
func NewProber(cfg config.ProbeConfig, logger *slog.Logger) *classify.Prober {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	opts := []classify.ProberOption{
		classify.WithTimeout(cfg.Timeout()),
		classify.WithRateLimit(cfg.RateLimit, cfg.Burst),
		classify.WithLoader(classify.NewHTTPLoader(
			classify.WithMaxBytes(cfg.MaxBytes),
			classify.WithUserAgent(userAgent),
		)),
		classify.WithLogger(logger),
	}
	if cache := newProbeCache(cfg, logger); cache != nil {
		opts = append(opts, classify.WithCache(cache))
	}

	return classify.NewProber(opts...)
}

// newProbeCache returns a Redis cache when probe.redis_addr is set and an
// in-process cache otherwise. A zero TTL disables caching.
func newProbeCache(cfg config.ProbeConfig, logger *slog.Logger) classify.Cache {
	ttl := cfg.CacheTTL()
	if ttl <= 0 {
		return nil
	}
	if cfg.RedisAddr == "" {
		return classify.NewResultCache(ttl)
	}

	logger.Debug("using shared probe cache", "redis_addr", cfg.RedisAddr, "db", cfg.RedisDB)
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	return classify.NewRedisCache(client, ttl, classify.WithCacheLogger(logger))
}

// Pipeline is a document with an attached ingestion controller.
type Pipeline struct {
	Document   *editor.Document
	Controller *ingest.Controller
	Bus        *events.EventBus
}

// NewPipeline creates a document and attaches a controller configured from
// cfg. Minification is applied when enabled in cfg or when minifyOverride is
// non-nil.
func NewPipeline(cfg *config.Config, doc *editor.Document, minifyOverride *minify.Options, logger *slog.Logger) *Pipeline {
	if doc == nil {
		doc = editor.NewDocument(editor.WithLogger(logger))
	}

	bus := events.NewBus(events.WithLogger(logger))

	opts := ingest.Options{
		Prober:   NewProber(cfg.Probe, logger),
		Minifier: minify.New(minify.WithLogger(logger)),
		Bus:      bus,
		Logger:   logger,
	}
	switch {
	case minifyOverride != nil:
		opts.Minify = minifyOverride
	case cfg.Minify.Enabled:
		m := cfg.Minify.Options()
		opts.Minify = &m
	}

	return &Pipeline{
		Document:   doc,
		Controller: ingest.New(doc, opts),
		Bus:        bus,
	}
}

// Finish waits for in-flight items and drains the event bus.
func (p *Pipeline) Finish() error {
	p.Controller.Wait()
	return p.Bus.Close()
}

// reportStyles color the leading verb of each report line. A renderer bound
// to a non-terminal writer renders plain text.
type reportStyles struct {
	ok, warn, fail, info lipgloss.Style
}

func newReportStyles(w io.Writer) reportStyles {
	r := lipgloss.NewRenderer(w)
	return reportStyles{
		ok:   r.NewStyle().Foreground(styles.Success).Bold(true),
		warn: r.NewStyle().Foreground(styles.Warning),
		fail: r.NewStyle().Foreground(styles.Error).Bold(true),
		info: r.NewStyle().Faint(true),
	}
}

// ReportEvents prints one line per item outcome to w.
func ReportEvents(bus events.Bus, w io.Writer) func() {
	st := newReportStyles(w)
	return bus.SubscribeAll(func(event events.Event) {
		switch e := event.Payload.(type) {
		case *events.ItemEvent:
			switch event.Type {
			case events.ItemFailed:
				fmt.Fprintf(w, "%s %s %s at %s: %s\n", st.fail.Render("failed"), e.Origin, e.MIMEType, e.Stage, e.Err)
			case events.ItemHandled:
				fmt.Fprintf(w, "%s %s %s (%d bytes)\n", st.ok.Render("handled"), e.Kind, e.MIMEType, e.Size)
			default:
				fmt.Fprintf(w, "%s %s %s at %d (%d bytes)\n", st.ok.Render("inserted"), e.Kind, e.MIMEType, e.Index, e.Size)
			}
		case *events.DeferredEvent:
			fmt.Fprintf(w, "%s paste to native handling (%s)\n", st.warn.Render("deferred"), e.Reason)
		case *events.FileEvent:
			fmt.Fprintf(w, "%s %s (%s, %d bytes)\n", st.info.Render("detected"), e.Path, e.MIMEType, e.Size)
		}
	})
}

// MinifyOverride returns the configured minify options when enabled is true,
// or nil to leave the decision to the configuration.
func MinifyOverride(cfg *config.Config, enabled bool) *minify.Options {
	if !enabled {
		return nil
	}
	opts := cfg.Minify.Options()
	return &opts
}
