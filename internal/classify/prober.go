package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/leefowlercu/imagedrop/internal/metrics"
)

// DefaultProbeTimeout bounds a network probe.
const DefaultProbeTimeout = 3000 * time.Millisecond

var (
	// ErrInvalidURL is returned when the probed string is not a URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrProbeTimeout is returned when no probe outcome arrives in time.
	ErrProbeTimeout = errors.New("image probe timed out")

	// ErrProbeDecode is returned when the resource does not decode as an image.
	ErrProbeDecode = errors.New("image probe failed to decode resource")
)

// Prober classifies URLs as images, loading them when the path alone
// is not conclusive. It is safe for concurrent use.
type Prober struct {
	loader  Loader
	timeout time.Duration
	limiter *rate.Limiter
	cache   Cache
	logger  *slog.Logger
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithLoader sets the loader used for network probes.
func WithLoader(l Loader) ProberOption {
	return func(p *Prober) {
		p.loader = l
	}
}

// WithTimeout sets the probe timeout.
func WithTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRateLimit limits network probes to perSecond with the given burst.
// A non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) ProberOption {
	return func(p *Prober) {
		if perSecond <= 0 {
			p.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCache enables result caching.
func WithCache(c Cache) ProberOption {
	return func(p *Prober) {
		p.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProberOption {
	return func(p *Prober) {
		p.logger = logger
	}
}

// NewProber creates a Prober with an HTTP loader and a 3 second timeout.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		loader:  NewHTTPLoader(),
		timeout: DefaultProbeTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ProbeIsImage reports whether rawURL resolves to a decodable image.
//
// Invalid URLs return false without loading anything. URLs whose path ends
// in a known image extension return true without loading anything. Other
// URLs are loaded; the result is true on a successful decode and false on a
// decode failure or when no outcome arrives within the timeout, in which case
// the load is cancelled. The returned error explains a false result.
func (p *Prober) ProbeIsImage(ctx context.Context, rawURL string) (bool, error) {
	if !IsValidURL(rawURL) {
		metrics.RecordProbe("invalid", 0)
		return false, ErrInvalidURL
	}

	if HasImageExtension(rawURL) {
		metrics.RecordProbe("extension", 0)
		return true, nil
	}

	key := strings.TrimSpace(rawURL)
	if p.cache != nil {
		if isImage, ok := p.cache.Get(key); ok {
			metrics.RecordProbe("cached", 0)
			if !isImage {
				return false, ErrProbeDecode
			}
			return true, nil
		}
	}

	start := time.Now()
	err := p.load(ctx, key)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordProbe("decoded", elapsed)
		if p.cache != nil {
			p.cache.Put(key, true)
		}
		return true, nil

	case errors.Is(err, ErrProbeTimeout):
		metrics.RecordProbe("timeout", elapsed)
		p.logger.Debug("image probe timed out", "url", key, "timeout", p.timeout)
		return false, err

	default:
		metrics.RecordProbe("decode_error", elapsed)
		p.logger.Debug("image probe failed", "url", key, "error", err)
		if p.cache != nil && ctx.Err() == nil {
			p.cache.Put(key, false)
		}
		return false, fmt.Errorf("%w; %v", ErrProbeDecode, err)
	}
}

// load runs the loader under the probe timeout. The loader runs in its own
// goroutine so a loader that ignores cancellation cannot delay the outcome;
// exactly one result is taken.
func (p *Prober) load(ctx context.Context, rawURL string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w; %v", ErrProbeTimeout, err)
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- p.loader.Load(ctx, rawURL)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w; %v", ErrProbeTimeout, err)
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w; %v", ErrProbeTimeout, ctx.Err())
	}
}
