package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultLevel applies when log_level is unset or unrecognized.
const DefaultLevel = slog.LevelInfo

// LevelNames lists the accepted log_level values.
var LevelNames = []string{"debug", "info", "warn", "error"}

// ParseLevel maps a log_level value to a slog.Level, ignoring case. Unknown
// values return DefaultLevel and false.
func ParseLevel(s string) (slog.Level, bool) {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return DefaultLevel, false
	}
	return level, true
}

// Rotation controls how the log file is rotated.
type Rotation struct {
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation is used when no rotation is configured.
var DefaultRotation = Rotation{
	MaxSizeMB:  10,
	MaxBackups: 3,
	MaxAgeDays: 28,
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRotation sets the log file rotation policy.
func WithRotation(r Rotation) ManagerOption {
	return func(m *Manager) {
		m.rotation = r
	}
}

// Manager handles logger lifecycle including bootstrap-to-full mode transitions.
// Components should obtain a logger via Logger() and use it for all logging.
type Manager struct {
	handler  *SwapHandler
	logger   *slog.Logger
	logFile  *lumberjack.Logger
	level    *slog.LevelVar
	rotation Rotation
	mu       sync.Mutex
}

// NewManager creates a logging manager in bootstrap mode.
// Bootstrap mode writes only to stderr using text format.
// Call Upgrade() after config is available to enable file logging.
func NewManager(opts ...ManagerOption) *Manager {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	bootstrap := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	handler := NewSwapHandler(bootstrap)

	m := &Manager{
		handler:  handler,
		logger:   slog.New(handler),
		level:    level,
		rotation: DefaultRotation,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Logger returns the current logger instance.
// The returned logger is stable across Upgrade calls.
func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

// Upgrade transitions from bootstrap mode (stderr-only) to full mode
// (stderr text + rotating JSON file).
// Returns error if log file cannot be opened/created.
func (m *Manager) Upgrade(logFilePath string, level slog.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q; %w", dir, err)
	}

	// lumberjack opens lazily; surface permission and path problems now.
	probe, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q; %w", logFilePath, err)
	}
	_ = probe.Close()

	if m.logFile != nil {
		_ = m.logFile.Close()
	}
	m.logFile = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    m.rotation.MaxSizeMB,
		MaxBackups: m.rotation.MaxBackups,
		MaxAge:     m.rotation.MaxAgeDays,
		Compress:   m.rotation.Compress,
	}

	m.level.Set(level)

	opts := &slog.HandlerOptions{Level: m.level}

	fullHandler := slogmulti.Fanout(
		slog.NewTextHandler(os.Stderr, opts),
		slog.NewJSONHandler(m.logFile, opts),
	)

	m.handler.Swap(fullHandler)

	return nil
}

// SetLevel changes the log level at runtime.
// Applies immediately to all future log calls.
func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

// Rotate closes the current log file and starts a new one.
func (m *Manager) Rotate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logFile == nil {
		return nil
	}
	if err := m.logFile.Rotate(); err != nil {
		return fmt.Errorf("failed to rotate log file; %w", err)
	}
	return nil
}

// Close cleanly shuts down the logger, closing any open file handles.
// Should be called during application shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.logFile != nil {
		err := m.logFile.Close()
		m.logFile = nil
		return err
	}
	return nil
}
