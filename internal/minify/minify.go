// Package minify downscales and re-encodes image payloads before insertion.
package minify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leefowlercu/imagedrop/internal/media"
	"github.com/leefowlercu/imagedrop/internal/metrics"
	"github.com/leefowlercu/imagedrop/internal/payload"
)

// Default minify options.
const (
	DefaultMaxWidth  = 800
	DefaultMaxHeight = 800
	DefaultQuality   = 0.8
)

var (
	// ErrEmptyPayload is returned when the payload has no content to decode.
	ErrEmptyPayload = errors.New("failed to minify image; payload content is empty")

	// ErrRasterSurfaceUnavailable is returned when no drawing surface can be created.
	ErrRasterSurfaceUnavailable = errors.New("failed to minify image; raster surface unavailable")

	// ErrDecodeFailure is returned when the source image cannot be decoded.
	ErrDecodeFailure = errors.New("failed to minify image; source image could not be decoded")
)

// Options bounds the output image. Zero values select the defaults.
type Options struct {
	MaxWidth  int     `yaml:"max_width" mapstructure:"max_width"`
	MaxHeight int     `yaml:"max_height" mapstructure:"max_height"`
	Quality   float64 `yaml:"quality" mapstructure:"quality"`
}

// DefaultOptions returns the default bounding box and quality.
func DefaultOptions() Options {
	return Options{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		Quality:   DefaultQuality,
	}
}

// withDefaults replaces zero values with defaults.
func (o Options) withDefaults() Options {
	if o.MaxWidth == 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight == 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	return o
}

// ScaledSize computes the output dimensions for a width x height image.
//
// Only one axis is checked: images at least as wide as they are tall are
// bounded by MaxWidth, taller images by MaxHeight. The other bound is never
// re-checked after scaling. Fractional results truncate toward zero, but
// never below one pixel.
func ScaledSize(width, height int, opts Options) (int, int) {
	opts = opts.withDefaults()

	if width >= height {
		if width > opts.MaxWidth {
			h := int(float64(height) * float64(opts.MaxWidth) / float64(width))
			return opts.MaxWidth, max(h, 1)
		}
		return width, height
	}

	if height > opts.MaxHeight {
		w := int(float64(width) * float64(opts.MaxHeight) / float64(height))
		return max(w, 1), opts.MaxHeight
	}
	return width, height
}

// Minifier runs the decode, scale and encode pipeline.
type Minifier struct {
	codec  media.Codec
	logger *slog.Logger
}

// Option configures a Minifier.
type Option func(*Minifier)

// WithCodec sets the media codec.
func WithCodec(c media.Codec) Option {
	return func(m *Minifier) {
		m.codec = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Minifier) {
		m.logger = logger
	}
}

// New creates a Minifier backed by the pure Go raster codec.
func New(opts ...Option) *Minifier {
	m := &Minifier{
		codec:  media.NewRaster(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Minify decodes p, downscales it to fit opts and re-encodes it as p's MIME
// type (image/png when p has none). The returned payload carries a data-URL
// and the target MIME type; p is not modified.
func (m *Minifier) Minify(ctx context.Context, p payload.Payload, opts Options) (payload.Payload, error) {
	start := time.Now()

	if p.IsEmpty() {
		metrics.RecordMinify("", time.Since(start), 0, ErrEmptyPayload, "empty")
		return payload.Payload{}, ErrEmptyPayload
	}

	opts = opts.withDefaults()
	targetType := p.MIMEType
	if targetType == "" {
		targetType = payload.DefaultMIMEType
	}

	src, err := p.Bytes()
	if err != nil {
		metrics.RecordMinify("", time.Since(start), 0, err, "decode")
		return payload.Payload{}, fmt.Errorf("%w; %w", ErrDecodeFailure, err)
	}

	out, producedType, err := m.transform(ctx, src, targetType, opts)
	if err != nil {
		metrics.RecordMinify("", time.Since(start), 0, err, reason(err))
		return payload.Payload{}, err
	}

	metrics.RecordMinify(producedType, time.Since(start), len(src)-len(out), nil, "")

	m.logger.Debug("image minified",
		"type", targetType,
		"encoded_as", producedType,
		"input_bytes", len(src),
		"output_bytes", len(out),
		"duration", time.Since(start))

	return payload.Payload{
		Content:  payload.DataURL(producedType, out),
		MIMEType: targetType,
	}, nil
}

// MinifyBytes runs the pipeline on raw image bytes and returns the encoded
// output together with the MIME type actually produced.
func (m *Minifier) MinifyBytes(ctx context.Context, data []byte, mimeType string, opts Options) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyPayload
	}
	if mimeType == "" {
		mimeType = payload.DefaultMIMEType
	}
	return m.transform(ctx, data, mimeType, opts.withDefaults())
}

func (m *Minifier) transform(ctx context.Context, src []byte, targetType string, opts Options) ([]byte, string, error) {
	bitmap, err := m.codec.DecodeImageDimensions(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w; %w", ErrDecodeFailure, err)
	}

	width, height := ScaledSize(bitmap.Width, bitmap.Height, opts)

	surface, err := m.codec.RenderScaled(ctx, bitmap, width, height)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w; %w", ErrRasterSurfaceUnavailable, err)
	}
	if surface == nil {
		return nil, "", ErrRasterSurfaceUnavailable
	}

	out, producedType, err := m.codec.EncodeToFormat(ctx, surface, targetType, opts.Quality)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode minified image; %w", err)
	}

	return out, producedType, nil
}

// reason maps a minify error to a metrics label.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrDecodeFailure):
		return "decode"
	case errors.Is(err, ErrRasterSurfaceUnavailable):
		return "surface"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "encode"
	}
}
