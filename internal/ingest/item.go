package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leefowlercu/imagedrop/internal/payload"
)

// ItemKind distinguishes binary items from string items.
type ItemKind string

const (
	// KindFile items carry binary content.
	KindFile ItemKind = "file"

	// KindString items carry text.
	KindString ItemKind = "string"
)

var (
	// ErrNotFile is returned when a string item is read as binary.
	ErrNotFile = errors.New("item has no file content")

	// ErrNotString is returned when a file item is read as text.
	ErrNotString = errors.New("item has no string content")
)

// Item is one entry of a drop or paste.
type Item interface {
	Kind() ItemKind

	// Type returns the item's MIME type, possibly empty.
	Type() string

	// ReadDataURL returns the item's content as a data-URL.
	ReadDataURL(ctx context.Context) (string, error)

	// ReadString returns the item's text content.
	ReadString(ctx context.Context) (string, error)
}

// FileItem is a binary item such as a dropped file or a clipboard image.
type FileItem struct {
	Name         string
	MIMEType     string
	Data         []byte
	LastModified time.Time
}

// NewFileItem creates a file item.
func NewFileItem(name, mimeType string, data []byte) *FileItem {
	return &FileItem{
		Name:         name,
		MIMEType:     mimeType,
		Data:         data,
		LastModified: time.Now(),
	}
}

// FileItemFromFile wraps a payload file.
func FileItemFromFile(f *payload.File) *FileItem {
	return &FileItem{
		Name:         f.Name,
		MIMEType:     f.Type,
		Data:         f.Data,
		LastModified: f.LastModified,
	}
}

// OpenFileItem reads path into a file item, detecting its MIME type from
// the content.
func OpenFileItem(path string) (*FileItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file; %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file; %w", err)
	}

	return &FileItem{
		Name:         filepath.Base(path),
		MIMEType:     payload.DetectMIME(data),
		Data:         data,
		LastModified: info.ModTime(),
	}, nil
}

// Kind returns KindFile.
func (f *FileItem) Kind() ItemKind { return KindFile }

// Type returns the file's MIME type.
func (f *FileItem) Type() string { return f.MIMEType }

// ReadDataURL encodes the file as a data-URL. A file without a type is
// encoded as application/octet-stream.
func (f *FileItem) ReadDataURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mimeType := f.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return payload.DataURL(mimeType, f.Data), nil
}

// ReadString always fails for file items.
func (f *FileItem) ReadString(ctx context.Context) (string, error) {
	return "", ErrNotString
}

// StringItem is a text item such as pasted plain text or HTML.
type StringItem struct {
	MIMEType string
	Value    string
}

// NewStringItem creates a string item.
func NewStringItem(mimeType, value string) *StringItem {
	return &StringItem{MIMEType: mimeType, Value: value}
}

// Kind returns KindString.
func (s *StringItem) Kind() ItemKind { return KindString }

// Type returns the item's MIME type.
func (s *StringItem) Type() string { return s.MIMEType }

// ReadDataURL always fails for string items.
func (s *StringItem) ReadDataURL(ctx context.Context) (string, error) {
	return "", ErrNotFile
}

// ReadString returns the text.
func (s *StringItem) ReadString(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Value, nil
}

type readResult struct {
	value string
	err   error
}

// readOnce runs read on its own goroutine and takes exactly one result,
// or the context error if ctx ends first.
func readOnce(ctx context.Context, read func(context.Context) (string, error)) (string, error) {
	done := make(chan readResult, 1)
	go func() {
		v, err := read(ctx)
		done <- readResult{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Read reads a binary item into a payload tagged with the item's type,
// falling back to image/png when the item has none.
func Read(ctx context.Context, item Item) (payload.Payload, error) {
	dataURL, err := readOnce(ctx, item.ReadDataURL)
	if err != nil {
		return payload.Payload{}, fmt.Errorf("failed to read item; %w", err)
	}

	mimeType := item.Type()
	if mimeType == "" {
		mimeType = payload.DefaultMIMEType
	}
	return payload.New(dataURL, mimeType), nil
}
