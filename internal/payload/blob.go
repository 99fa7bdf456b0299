package payload

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Blob is an immutable binary object tagged with a MIME type.
type Blob struct {
	Data []byte
	Type string
}

// Size returns the number of bytes in the blob.
func (b Blob) Size() int {
	return len(b.Data)
}

// File is a named blob.
type File struct {
	Blob
	Name         string
	LastModified time.Time
}

// BlobStrategy builds a blob from a list of parts.
type BlobStrategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Build concatenates parts into a blob of the given type.
	// Returns ErrIncompatible when the strategy cannot serve the request.
	Build(parts [][]byte, mimeType string) (Blob, error)
}

// FileFactory wraps a blob as a named file.
type FileFactory func(b Blob, name string) (*File, error)

// ConstructorStrategy builds a blob in a single allocation sized up front.
type ConstructorStrategy struct {
	// MaxSize rejects blobs larger than this many bytes with ErrIncompatible.
	// Zero means unlimited.
	MaxSize int
}

// Name returns the strategy identifier.
func (s ConstructorStrategy) Name() string {
	return "constructor"
}

// Build joins parts into one contiguous buffer.
func (s ConstructorStrategy) Build(parts [][]byte, mimeType string) (Blob, error) {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	if s.MaxSize > 0 && total > s.MaxSize {
		return Blob{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrIncompatible, total, s.MaxSize)
	}

	return Blob{Data: bytes.Join(parts, nil), Type: mimeType}, nil
}

// BuilderStrategy appends parts one at a time into a growing buffer.
type BuilderStrategy struct{}

// Name returns the strategy identifier.
func (BuilderStrategy) Name() string {
	return "builder"
}

// Build appends every part and returns the accumulated blob.
func (BuilderStrategy) Build(parts [][]byte, mimeType string) (Blob, error) {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.Write(p)
	}
	return Blob{Data: buf.Bytes(), Type: mimeType}, nil
}

// NewFile is the default FileFactory.
func NewFile(b Blob, name string) (*File, error) {
	return &File{Blob: b, Name: name, LastModified: time.Now()}, nil
}

// Codec converts payloads to blobs and files using pluggable strategies.
type Codec struct {
	primary  BlobStrategy
	fallback BlobStrategy
	files    FileFactory
	logger   *slog.Logger
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithBlobStrategy sets the primary blob strategy.
func WithBlobStrategy(s BlobStrategy) CodecOption {
	return func(c *Codec) {
		c.primary = s
	}
}

// WithFallbackStrategy sets the strategy used after ErrIncompatible.
func WithFallbackStrategy(s BlobStrategy) CodecOption {
	return func(c *Codec) {
		c.fallback = s
	}
}

// WithFileFactory sets the file construction capability. A nil factory
// disables file construction.
func WithFileFactory(f FileFactory) CodecOption {
	return func(c *Codec) {
		c.files = f
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(logger *slog.Logger) CodecOption {
	return func(c *Codec) {
		c.logger = logger
	}
}

// NewCodec creates a Codec with the constructor strategy, the builder
// fallback and the default file factory.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{
		primary:  ConstructorStrategy{},
		fallback: BuilderStrategy{},
		files:    NewFile,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var defaultCodec = NewCodec()

// ToBlob converts the payload to a blob using the default codec.
func (p Payload) ToBlob() (Blob, error) {
	return defaultCodec.ToBlob(p)
}

// ToFile converts the payload to a file using the default codec.
func (p Payload) ToFile(name string) (*File, error) {
	return defaultCodec.ToFile(p, name)
}

// ToBlob strips the data-URL header, decodes the body and wraps it as a blob
// tagged with the payload's MIME type.
func (c *Codec) ToBlob(p Payload) (Blob, error) {
	data, err := decodeBody(p.Content)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to decode payload body; %w", err)
	}
	return c.CreateBlob([][]byte{data}, p.MIMEType)
}

// CreateBlob builds a blob with the primary strategy and retries with the
// fallback only when the primary reports ErrIncompatible.
func (c *Codec) CreateBlob(parts [][]byte, mimeType string) (Blob, error) {
	blob, err := c.primary.Build(parts, mimeType)
	if err == nil {
		return blob, nil
	}
	if !errors.Is(err, ErrIncompatible) || c.fallback == nil {
		return Blob{}, err
	}

	c.logger.Debug("blob strategy incompatible, using fallback",
		"primary", c.primary.Name(),
		"fallback", c.fallback.Name(),
		"error", err)

	return c.fallback.Build(parts, mimeType)
}

// ToFile converts the payload into a named file. When the codec has no file
// factory it logs a diagnostic and returns a nil file with a nil error.
func (c *Codec) ToFile(p Payload, name string) (*File, error) {
	if c.files == nil {
		c.logger.Error("failed to create file from payload", "name", name, "error", ErrUnsupportedRuntime)
		return nil, nil
	}

	blob, err := c.ToBlob(p)
	if err != nil {
		return nil, err
	}

	return c.files(blob, name)
}

// CanCreateFiles reports whether the codec has a file construction capability.
func (c *Codec) CanCreateFiles() bool {
	return c.files != nil
}
