package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leefowlercu/imagedrop/internal/logging"
)

// ValidationError represents a config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("config validation failed:\n")
	for _, err := range e {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// Validate checks the configuration for errors.
// Returns ValidationErrors if validation fails.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		add("log_level", "must be one of: %s; got %q", strings.Join(logging.LevelNames, ", "), cfg.LogLevel)
	}

	// Zero minify bounds fall back to minifier defaults.
	if cfg.Minify.MaxWidth < 0 {
		add("minify.max_width", "must be non-negative, got %d", cfg.Minify.MaxWidth)
	}
	if cfg.Minify.MaxHeight < 0 {
		add("minify.max_height", "must be non-negative, got %d", cfg.Minify.MaxHeight)
	}
	if cfg.Minify.Quality < 0 || cfg.Minify.Quality > 1 {
		add("minify.quality", "must be between 0 and 1, got %g", cfg.Minify.Quality)
	}

	if cfg.Probe.TimeoutMs < 1 {
		add("probe.timeout_ms", "must be at least 1, got %d", cfg.Probe.TimeoutMs)
	}
	if cfg.Probe.RateLimit < 0 {
		add("probe.rate_limit", "must be non-negative, got %g", cfg.Probe.RateLimit)
	}
	if cfg.Probe.RateLimit > 0 && cfg.Probe.Burst < 1 {
		add("probe.burst", "must be at least 1 when rate_limit is set, got %d", cfg.Probe.Burst)
	}
	if cfg.Probe.CacheTTLSeconds < 0 {
		add("probe.cache_ttl_seconds", "must be non-negative, got %d", cfg.Probe.CacheTTLSeconds)
	}
	if cfg.Probe.MaxBytes < 1 {
		add("probe.max_bytes", "must be at least 1, got %d", cfg.Probe.MaxBytes)
	}
	if cfg.Probe.RedisDB < 0 {
		add("probe.redis_db", "must be non-negative, got %d", cfg.Probe.RedisDB)
	}

	if cfg.Server.Bind == "" {
		add("server.bind", "must not be empty")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes < 1 {
		add("server.max_body_bytes", "must be at least 1, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.ShutdownTimeout < 1 {
		add("server.shutdown_timeout", "must be at least 1 second, got %d", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.MCPEnabled && !strings.HasPrefix(cfg.Server.MCPPath, "/") {
		add("server.mcp_path", "must start with /, got %q", cfg.Server.MCPPath)
	}

	if cfg.Watch.DebounceMs < 0 {
		add("watch.debounce_ms", "must be non-negative, got %d", cfg.Watch.DebounceMs)
	}
	if cfg.Watch.MaxFileBytes < 1 {
		add("watch.max_file_bytes", "must be at least 1, got %d", cfg.Watch.MaxFileBytes)
	}
	for i, d := range cfg.Watch.Dirs {
		if strings.TrimSpace(d) == "" {
			add(fmt.Sprintf("watch.dirs[%d]", i), "must not be empty")
		}
	}

	if cfg.Metrics.CollectionInterval < 1 {
		add("metrics.collection_interval", "must be at least 1 second, got %d", cfg.Metrics.CollectionInterval)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}
