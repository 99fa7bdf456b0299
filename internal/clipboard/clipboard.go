// Package clipboard reads the system clipboard into paste events.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.design/x/clipboard"

	"github.com/leefowlercu/imagedrop/internal/ingest"
	"github.com/leefowlercu/imagedrop/internal/payload"
)

// ImageName is the file name given to clipboard images.
const ImageName = "clipboard.png"

// ErrEmpty is returned when the clipboard holds neither an image nor text.
var ErrEmpty = errors.New("clipboard is empty")

// Reader reads clipboard content. Empty content is not an error.
type Reader interface {
	ReadImage() ([]byte, error)
	ReadText() (string, error)
}

// System reads the OS clipboard. The clipboard is initialized on first use.
type System struct {
	once    sync.Once
	initErr error
	logger  *slog.Logger
}

// NewSystem creates a reader for the OS clipboard.
func NewSystem(logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{logger: logger}
}

func (s *System) init() error {
	s.once.Do(func() {
		if err := clipboard.Init(); err != nil {
			s.initErr = fmt.Errorf("failed to initialize clipboard; %w", err)
			s.logger.Warn("clipboard unavailable", "error", err)
			return
		}
		s.logger.Debug("clipboard initialized")
	})
	return s.initErr
}

// ReadImage returns the clipboard image as PNG bytes, or nil when there is none.
func (s *System) ReadImage() ([]byte, error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	data := clipboard.Read(clipboard.FmtImage)
	s.logger.Debug("read clipboard image", "bytes", len(data))
	return data, nil
}

// ReadText returns the clipboard text.
func (s *System) ReadText() (string, error) {
	if err := s.init(); err != nil {
		return "", err
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// WatchImages streams each new clipboard image until ctx is done.
func (s *System) WatchImages(ctx context.Context) (<-chan []byte, error) {
	if err := s.init(); err != nil {
		return nil, err
	}
	return clipboard.Watch(ctx, clipboard.FmtImage), nil
}

// ReadEvent builds a paste event from the clipboard: an image item when an
// image is present, then a text/plain item when text is present.
func ReadEvent(r Reader) (*ingest.PasteEvent, error) {
	var items []ingest.Item

	img, err := r.ReadImage()
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard image; %w", err)
	}
	if len(img) > 0 {
		items = append(items, ImageItem(img))
	}

	text, err := r.ReadText()
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard text; %w", err)
	}
	if text != "" {
		items = append(items, ingest.NewStringItem(ingest.MIMETypePlainText, text))
	}

	if len(items) == 0 {
		return nil, ErrEmpty
	}

	return ingest.NewPasteEvent(items...), nil
}

// ImageItem wraps clipboard image bytes as a file item.
func ImageItem(data []byte) *ingest.FileItem {
	mimeType := payload.DetectMIME(data)
	if mimeType == "application/octet-stream" {
		mimeType = payload.DefaultMIMEType
	}
	return ingest.NewFileItem(ImageName, mimeType, data)
}
