package metrics

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsProvider is an interface for components that provide metrics.
type MetricsProvider interface {
	// CollectMetrics collects current metrics from the component.
	CollectMetrics(ctx context.Context) error
}

// Collector manages metric collection from various components.
type Collector struct {
	mu        sync.RWMutex
	providers map[string]MetricsProvider
	interval  time.Duration
	stopCh    chan struct{}
	running   bool
}

// NewCollector creates a new metrics collector.
func NewCollector(interval time.Duration) *Collector {
	return &Collector{
		providers: make(map[string]MetricsProvider),
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Register adds a metrics provider to the collector.
func (c *Collector) Register(name string, provider MetricsProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = provider
}

// Unregister removes a metrics provider from the collector.
func (c *Collector) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.providers, name)
}

// Start begins periodic metric collection.
func (c *Collector) Start(ctx context.Context, version string) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	ServerStartTime.Set(float64(time.Now().Unix()))
	ServerInfo.WithLabelValues(version, runtime.Version()).Set(1)

	c.collect(ctx)

	go c.run(ctx)

	return nil
}

// Stop halts periodic metric collection.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	close(c.stopCh)
	c.running = false
	return nil
}

// run is the main collection loop.
func (c *Collector) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

// collect gathers metrics from all registered providers.
func (c *Collector) collect(ctx context.Context) {
	c.mu.RLock()
	providers := make(map[string]MetricsProvider, len(c.providers))
	for k, v := range c.providers {
		providers[k] = v
	}
	c.mu.RUnlock()

	for name, provider := range providers {
		if err := provider.CollectMetrics(ctx); err != nil {
			ComponentStatus.WithLabelValues(name).Set(0)
		} else {
			ComponentStatus.WithLabelValues(name).Set(1)
		}
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a handler for a specific registry.
func HandlerFor(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordEvent records a received drop or paste event.
func RecordEvent(event string) {
	EventsTotal.WithLabelValues(event).Inc()
}

// RecordItem records an item classification.
func RecordItem(class string) {
	ItemsTotal.WithLabelValues(class).Inc()
}

// RecordInsertion records a default editor insertion.
func RecordInsertion(kind string) {
	InsertionsTotal.WithLabelValues(kind).Inc()
}

// RecordItemError records an item failure at the given stage.
func RecordItemError(stage string) {
	ItemErrorsTotal.WithLabelValues(stage).Inc()
}

// RecordProbe records a probe outcome. Network probes pass a non-zero duration.
func RecordProbe(outcome string, duration time.Duration) {
	ProbesTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		ProbeDuration.Observe(duration.Seconds())
	}
}

// RecordCacheAccess records a cache access.
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordMinify records a minify operation. On success, saved is the
// difference between input and output sizes and may be negative.
func RecordMinify(outputType string, duration time.Duration, saved int, err error, reason string) {
	MinifyDuration.Observe(duration.Seconds())
	if err != nil {
		MinifyErrorsTotal.WithLabelValues(reason).Inc()
		return
	}
	MinifyTotal.WithLabelValues(outputType).Inc()
	if saved > 0 {
		MinifyBytesSaved.Add(float64(saved))
	}
}

// RecordWatcherEvent records a filesystem event.
func RecordWatcherEvent(eventType string) {
	WatcherEventsTotal.WithLabelValues(eventType).Inc()
}

// UpdateWatcherMetrics updates the watcher state metrics.
func UpdateWatcherMetrics(paths int) {
	WatcherPathsTotal.Set(float64(paths))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route string, status int) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
