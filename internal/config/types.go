package config

import (
	"fmt"
	"time"

	"github.com/leefowlercu/imagedrop/internal/minify"
)

// Config is the root configuration structure for the application.
type Config struct {
	LogLevel string        `yaml:"log_level" mapstructure:"log_level"`
	LogFile  string        `yaml:"log_file" mapstructure:"log_file"`
	Minify   MinifyConfig  `yaml:"minify" mapstructure:"minify"`
	Probe    ProbeConfig   `yaml:"probe" mapstructure:"probe"`
	Server   ServerConfig  `yaml:"server" mapstructure:"server"`
	Watch    WatchConfig   `yaml:"watch" mapstructure:"watch"`
	Metrics  MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// MinifyConfig controls image downsizing before default insertion.
type MinifyConfig struct {
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxWidth  int     `yaml:"max_width" mapstructure:"max_width"`
	MaxHeight int     `yaml:"max_height" mapstructure:"max_height"`
	Quality   float64 `yaml:"quality" mapstructure:"quality"`
}

// Options converts the section to minifier options.
func (c MinifyConfig) Options() minify.Options {
	return minify.Options{
		MaxWidth:  c.MaxWidth,
		MaxHeight: c.MaxHeight,
		Quality:   c.Quality,
	}
}

// ProbeConfig controls image URL probing of pasted text.
type ProbeConfig struct {
	TimeoutMs       int     `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // probes per second, 0 = unlimited
	Burst           int     `yaml:"burst" mapstructure:"burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"` // 0 = no cache
	MaxBytes        int64   `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
	RedisAddr       string  `yaml:"redis_addr" mapstructure:"redis_addr"` // shared result cache, empty = in-process
	RedisDB         int     `yaml:"redis_db" mapstructure:"redis_db"`
}

// Timeout returns the probe timeout.
func (c ProbeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// CacheTTL returns how long probe results are cached.
func (c ProbeConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Bind            string `yaml:"bind" mapstructure:"bind"`
	Port            int    `yaml:"port" mapstructure:"port"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"` // seconds
	PIDFile         string `yaml:"pid_file" mapstructure:"pid_file"`
	MCPEnabled      bool   `yaml:"mcp_enabled" mapstructure:"mcp_enabled"`
	MCPPath         string `yaml:"mcp_path" mapstructure:"mcp_path"`
	EventsEnabled   bool   `yaml:"events_enabled" mapstructure:"events_enabled"`
	AuthSecret      string `yaml:"auth_secret" mapstructure:"auth_secret"` // HMAC key for bearer tokens, empty = open
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// ShutdownGrace returns the shutdown timeout as a duration.
func (c ServerConfig) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// WatchConfig holds drop-folder configuration.
type WatchConfig struct {
	Dirs         []string `yaml:"dirs,flow" mapstructure:"dirs"`
	DebounceMs   int      `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	MaxFileBytes int64    `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
	Notify       bool     `yaml:"notify" mapstructure:"notify"`
}

// DebounceWindow returns how long a dropped file must be quiet.
func (c WatchConfig) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ExpandedDirs returns Dirs with a leading ~ expanded.
func (c WatchConfig) ExpandedDirs() []string {
	dirs := make([]string, 0, len(c.Dirs))
	for _, d := range c.Dirs {
		dirs = append(dirs, expandHome(d))
	}
	return dirs
}

// MetricsConfig holds metrics collection configuration.
type MetricsConfig struct {
	CollectionInterval int `yaml:"collection_interval" mapstructure:"collection_interval"` // seconds
}
