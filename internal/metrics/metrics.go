// Package metrics provides Prometheus metrics for image ingestion.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "imagedrop"
)

// Ingestion metrics track drop and paste handling.
var (
	// EventsTotal is the total number of drop/paste events by type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Total number of drop and paste events received",
	}, []string{"event"})

	// EventsDeferredTotal counts paste events left to the editor's native handling.
	EventsDeferredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_deferred_total",
		Help:      "Total number of paste events deferred to native handling",
	})

	// ItemsTotal is the total number of items processed by classification.
	ItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_total",
		Help:      "Total number of event items processed",
	}, []string{"class"})

	// InsertionsTotal is the total number of default insertions by content kind.
	InsertionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "insertions_total",
		Help:      "Total number of default editor insertions",
	}, []string{"kind"})

	// HandlerCallsTotal is the total number of custom handler invocations.
	HandlerCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_calls_total",
		Help:      "Total number of custom handler invocations",
	})

	// ItemErrorsTotal is the total number of items that failed to read or transform.
	ItemErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "item_errors_total",
		Help:      "Total number of item read or transform errors",
	}, []string{"stage"})

	// ItemsInFlight is the number of items currently being processed.
	ItemsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "items_in_flight",
		Help:      "Number of items currently being processed",
	})
)

// Probe metrics track URL classification.
var (
	// ProbesTotal is the total number of probes by outcome.
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probes_total",
		Help:      "Total number of image URL probes",
	}, []string{"outcome"})

	// ProbeDuration is a histogram of network probe duration in seconds.
	ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "probe_duration_seconds",
		Help:      "Duration of network image probes in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
	})

	// ProbeCacheSize is the number of cached probe results.
	ProbeCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "probe_cache_size",
		Help:      "Number of cached probe results",
	})
)

// Cache metrics track cache operations.
var (
	// CacheHitsTotal is the total number of cache hits by cache type.
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits",
	}, []string{"cache"})

	// CacheMissesTotal is the total number of cache misses by cache type.
	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Total number of cache misses",
	}, []string{"cache"})
)

// Minify metrics track the resize/re-encode pipeline.
var (
	// MinifyTotal is the total number of minify operations by output type.
	MinifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "minify_total",
		Help:      "Total number of minify operations",
	}, []string{"type"})

	// MinifyErrorsTotal is the total number of minify failures by reason.
	MinifyErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "minify_errors_total",
		Help:      "Total number of minify failures",
	}, []string{"reason"})

	// MinifyDuration is a histogram of minify duration in seconds.
	MinifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "minify_duration_seconds",
		Help:      "Duration of minify operations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	// MinifyBytesSaved is the total number of bytes removed by minification.
	MinifyBytesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "minify_bytes_saved_total",
		Help:      "Total number of bytes saved by minification",
	})
)

// Outcome bus metrics.
var (
	// EventBusDroppedEvents counts events dropped because a subscriber buffer was full.
	EventBusDroppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_bus_dropped_events_total",
		Help:      "Total number of outcome events dropped due to full subscriber buffers",
	}, []string{"event_type"})
)

// Watcher metrics track the drop folder.
var (
	// WatcherEventsTotal is the total number of filesystem events.
	WatcherEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watcher_events_total",
		Help:      "Total number of filesystem events",
	}, []string{"type"})

	// WatcherPathsTotal is the total number of paths being watched.
	WatcherPathsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "watcher_paths_total",
		Help:      "Total number of paths being watched",
	})
)

// Server metrics track the HTTP surface.
var (
	// ServerInfo provides version and build information.
	ServerInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_info",
		Help:      "Server version and build information",
	}, []string{"version", "go_version"})

	// ServerStartTime is the unix timestamp when the server started.
	ServerStartTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_start_time_seconds",
		Help:      "Unix timestamp when the server started",
	})

	// ComponentStatus tracks the health status of components.
	ComponentStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "component_status",
		Help:      "Health status of components (1=healthy, 0=unhealthy)",
	}, []string{"component"})

	// HTTPRequestsTotal is the total number of HTTP requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"route", "status"})
)
