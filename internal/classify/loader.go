package classify

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/leefowlercu/imagedrop/internal/payload"
)

// DefaultMaxProbeBytes caps how much of a resource the HTTP loader reads.
const DefaultMaxProbeBytes = 20 * 1024 * 1024

// DefaultUserAgent is sent with probe requests.
const DefaultUserAgent = "imagedrop-probe/1.0"

// Loader attempts to load and decode the resource at a URL as an image.
// A nil error means the resource decoded successfully. Implementations must
// stop work when ctx is cancelled.
type Loader interface {
	Load(ctx context.Context, rawURL string) error
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, rawURL string) error

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, rawURL string) error {
	return f(ctx, rawURL)
}

// HTTPLoader fetches http(s) resources and decodes data: URLs in place.
type HTTPLoader struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// HTTPLoaderOption configures an HTTPLoader.
type HTTPLoaderOption func(*HTTPLoader)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) HTTPLoaderOption {
	return func(l *HTTPLoader) {
		l.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPLoaderOption {
	return func(l *HTTPLoader) {
		if ua != "" {
			l.userAgent = ua
		}
	}
}

// WithMaxBytes caps the number of bytes read from a resource.
func WithMaxBytes(n int64) HTTPLoaderOption {
	return func(l *HTTPLoader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// NewHTTPLoader creates an HTTPLoader with the given options.
func NewHTTPLoader(opts ...HTTPLoaderOption) *HTTPLoader {
	l := &HTTPLoader{
		client:    http.DefaultClient,
		userAgent: DefaultUserAgent,
		maxBytes:  DefaultMaxProbeBytes,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load fetches rawURL and decodes the body as an image.
func (l *HTTPLoader) Load(ctx context.Context, rawURL string) error {
	u, ok := parseURL(rawURL)
	if !ok {
		return ErrInvalidURL
	}

	switch strings.ToLower(u.Scheme) {
	case "data":
		_, data, err := payload.ParseDataURL(strings.TrimSpace(rawURL))
		if err != nil {
			return err
		}
		return decode(bytes.NewReader(data))
	case "http", "https":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request; %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed; %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe request returned status %d", resp.StatusCode)
	}

	return decode(io.LimitReader(resp.Body, l.maxBytes))
}

func decode(r io.Reader) error {
	if _, _, err := image.Decode(r); err != nil {
		return fmt.Errorf("failed to decode image; %w", err)
	}
	return nil
}
