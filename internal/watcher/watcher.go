// Package watcher turns files written into a drop folder into drop events on
// an editor surface.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/events"
	"github.com/leefowlercu/imagedrop/internal/ingest"
	"github.com/leefowlercu/imagedrop/internal/metrics"
)

// DefaultDebounceWindow is how long a file must be quiet before it is picked up.
const DefaultDebounceWindow = 500 * time.Millisecond

// DefaultMaxFileBytes caps the size of a picked-up file.
const DefaultMaxFileBytes = 32 << 20

// ErrAlreadyRunning is returned by Start on a running watcher.
var ErrAlreadyRunning = errors.New("watcher already running")

// Watcher monitors drop folders and dispatches settled image files.
type Watcher interface {
	// Watch starts watching a directory. Subdirectories are not watched.
	Watch(path string) error

	// Unwatch stops watching a directory.
	Unwatch(path string) error

	// WatchedPaths returns the list of currently watched directories.
	WatchedPaths() []string

	// Start begins processing filesystem events.
	Start(ctx context.Context) error

	// Stop stops the watcher.
	Stop() error

	// Stats returns current watcher statistics.
	Stats() WatcherStats

	// CollectMetrics implements metrics.MetricsProvider.
	CollectMetrics(ctx context.Context) error

	// Errors reports fatal watcher errors.
	Errors() <-chan error
}

// WatcherStats contains statistics about watcher activity.
type WatcherStats struct {
	WatchedPaths     int
	EventsReceived   int64
	FilesDispatched  int64
	FilesSkipped     int64
	WritesCoalesced  int64
	Errors           int64
	IsRunning        bool
	DegradedMode     bool
	LastDispatchedAt time.Time
}

// WatcherOption configures the Watcher.
type WatcherOption func(*watcher)

// WithDebounceWindow sets how long a file must be quiet before dispatch.
func WithDebounceWindow(d time.Duration) WatcherOption {
	return func(w *watcher) {
		w.debounceWindow = d
	}
}

// WithMaxFileBytes sets the largest file the watcher will read.
func WithMaxFileBytes(n int64) WatcherOption {
	return func(w *watcher) {
		w.maxFileBytes = n
	}
}

// WithBus publishes a SourceFileDetected event for every dispatched file.
func WithBus(bus events.Bus) WatcherOption {
	return func(w *watcher) {
		w.bus = bus
	}
}

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *watcher) {
		w.logger = logger
	}
}

type watcher struct {
	fsWatcher *fsnotify.Watcher
	target    editor.Surface
	bus       events.Bus
	coalescer *Coalescer
	logger    *slog.Logger

	debounceWindow time.Duration
	maxFileBytes   int64

	mu           sync.RWMutex
	watchedPaths map[string]bool
	stats        WatcherStats
	running      bool
	stopCh       chan struct{}
	doneCh       chan struct{}
	settledDone  chan struct{}
	stopOnce     sync.Once

	errChan chan error
}

// New creates a Watcher that dispatches drop events on target.
func New(target editor.Surface, opts ...WatcherOption) (Watcher, error) {
	if target == nil {
		return nil, fmt.Errorf("watcher target is nil")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher; %w", err)
	}

	w := &watcher{
		fsWatcher:      fsw,
		target:         target,
		logger:         slog.Default(),
		debounceWindow: DefaultDebounceWindow,
		maxFileBytes:   DefaultMaxFileBytes,
		watchedPaths:   make(map[string]bool),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
		settledDone:    make(chan struct{}),
		errChan:        make(chan error, 1),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.With("component", "watcher")
	w.coalescer = NewCoalescer(w.debounceWindow)

	return w, nil
}

// Watch starts watching a directory.
func (w *watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path; %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat path; %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	if err := w.fsWatcher.Add(absPath); err != nil {
		w.mu.Lock()
		w.stats.Errors++
		if isWatchLimitError(err) {
			w.stats.DegradedMode = true
		}
		w.mu.Unlock()
		return fmt.Errorf("failed to watch directory; %w", err)
	}

	w.mu.Lock()
	w.watchedPaths[absPath] = true
	w.stats.WatchedPaths = len(w.watchedPaths)
	w.mu.Unlock()

	metrics.UpdateWatcherMetrics(len(w.WatchedPaths()))
	w.logger.Info("watching drop folder", "path", absPath)

	return nil
}

// Unwatch stops watching a directory.
func (w *watcher) Unwatch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path; %w", err)
	}

	w.mu.Lock()
	delete(w.watchedPaths, absPath)
	w.stats.WatchedPaths = len(w.watchedPaths)
	w.mu.Unlock()

	if err := w.fsWatcher.Remove(absPath); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return fmt.Errorf("failed to unwatch directory; %w", err)
	}

	metrics.UpdateWatcherMetrics(len(w.WatchedPaths()))
	return nil
}

// WatchedPaths returns the list of currently watched directories.
func (w *watcher) WatchedPaths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, 0, len(w.watchedPaths))
	for p := range w.watchedPaths {
		paths = append(paths, p)
	}
	return paths
}

// Start begins processing filesystem events.
func (w *watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.stats.IsRunning = true
	w.mu.Unlock()

	go w.processEvents(ctx)
	go w.processSettled(ctx)

	return nil
}

// Stop stops the watcher.
func (w *watcher) Stop() error {
	var stopErr error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		wasRunning := w.running
		w.running = false
		w.stats.IsRunning = false
		w.mu.Unlock()

		w.coalescer.Stop()

		if wasRunning {
			close(w.stopCh)
			<-w.doneCh
			<-w.settledDone
		}

		stopErr = w.fsWatcher.Close()
	})
	return stopErr
}

// Stats returns current watcher statistics.
func (w *watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// Errors returns a channel for fatal watcher errors.
func (w *watcher) Errors() <-chan error {
	return w.errChan
}

// CollectMetrics implements metrics.MetricsProvider.
func (w *watcher) CollectMetrics(ctx context.Context) error {
	stats := w.Stats()
	metrics.UpdateWatcherMetrics(stats.WatchedPaths)
	return nil
}

func (w *watcher) processEvents(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			w.logger.Error("fsnotify error", "error", err)
			select {
			case w.errChan <- err:
			default:
			}
		}
	}
}

func (w *watcher) handleFsEvent(event fsnotify.Event) {
	w.mu.Lock()
	w.stats.EventsReceived++
	w.mu.Unlock()

	if shouldIgnoreFile(event.Name) {
		metrics.RecordWatcherEvent("ignored")
		return
	}

	var changeType ChangeType
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		changeType = ChangeRemove
		metrics.RecordWatcherEvent("remove")
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		changeType = ChangeWrite
		metrics.RecordWatcherEvent("write")
	default:
		return
	}

	w.coalescer.Add(Change{
		Path:      event.Name,
		Type:      changeType,
		Timestamp: time.Now(),
	})
}

func (w *watcher) processSettled(ctx context.Context) {
	defer close(w.settledDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case s, ok := <-w.coalescer.Settled():
			if !ok {
				return
			}
			w.dispatch(ctx, s)
		}
	}
}

// dispatch reads a settled file and drops it onto the target surface.
func (w *watcher) dispatch(ctx context.Context, s Settled) {
	if !w.isWatchedDir(filepath.Dir(s.Path)) {
		return
	}

	if s.Writes > 1 {
		w.mu.Lock()
		w.stats.WritesCoalesced += int64(s.Writes - 1)
		w.mu.Unlock()
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("failed to stat file", "path", s.Path, "error", err)
		}
		return
	}
	if info.IsDir() {
		return
	}
	if info.Size() == 0 || info.Size() > w.maxFileBytes {
		w.skip(s.Path, "size", "size", info.Size())
		return
	}

	item, err := ingest.OpenFileItem(s.Path)
	if err != nil {
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		w.logger.Warn("failed to read dropped file", "path", s.Path, "error", err)
		return
	}

	if !ingest.IsImageType(item.Type()) {
		w.skip(s.Path, "not an image", "mime_type", item.Type())
		return
	}

	if w.bus != nil {
		event := events.NewEvent(events.SourceFileDetected, &events.FileEvent{
			Path:     s.Path,
			MIMEType: item.Type(),
			Size:     info.Size(),
		})
		if err := w.bus.Publish(ctx, event); err != nil {
			w.logger.Debug("failed to publish file event", "path", s.Path, "error", err)
		}
	}

	w.target.Dispatch(ingest.NewDropEvent(0, 0, item))
	metrics.RecordWatcherEvent("dispatched")

	w.mu.Lock()
	w.stats.FilesDispatched++
	w.stats.LastDispatchedAt = time.Now()
	w.mu.Unlock()

	w.logger.Debug("dispatched dropped file",
		"path", s.Path,
		"mime_type", item.Type(),
		"size", info.Size(),
		"writes", s.Writes,
	)
}

func (w *watcher) skip(path, reason string, args ...any) {
	metrics.RecordWatcherEvent("skipped")
	w.mu.Lock()
	w.stats.FilesSkipped++
	w.mu.Unlock()
	w.logger.Debug("skipping file", append([]any{"path", path, "reason", reason}, args...)...)
}

func (w *watcher) isWatchedDir(dir string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watchedPaths[dir]
}

// shouldIgnoreFile reports whether path is hidden, a transient editor
// artifact, or a partial download.
func shouldIgnoreFile(path string) bool {
	name := filepath.Base(path)

	if strings.HasPrefix(name, ".") {
		return true
	}

	return isEditorNoise(name) || isPartialDownload(name)
}

func isEditorNoise(name string) bool {
	// Vim swap files
	if strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".swo") || strings.HasSuffix(name, ".swn") {
		return true
	}

	// Vim temporary file during save
	if name == "4913" {
		return true
	}

	// Emacs auto-save files
	if strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#") {
		return true
	}

	return strings.HasSuffix(name, "~")
}

func isPartialDownload(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".part", ".crdownload", ".download", ".tmp":
		return true
	}
	return false
}

// isWatchLimitError checks if an error indicates watch limit exhaustion.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "too many open files") ||
		strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "user limit on total number of inotify watches")
}
