package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leefowlercu/imagedrop/internal/minify"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.Minify.Enabled {
		t.Error("Minify.Enabled = true, want false")
	}
	if cfg.Minify.Options() != minify.DefaultOptions() {
		t.Errorf("Minify.Options() = %+v, want %+v", cfg.Minify.Options(), minify.DefaultOptions())
	}
	if cfg.Probe.Timeout() != 3*time.Second {
		t.Errorf("Probe.Timeout() = %v, want 3s", cfg.Probe.Timeout())
	}
	if cfg.Server.Addr() != "127.0.0.1:7610" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
	if !cfg.Server.MCPEnabled || cfg.Server.MCPPath != "/mcp" {
		t.Errorf("Server MCP = %v %q, want enabled at /mcp", cfg.Server.MCPEnabled, cfg.Server.MCPPath)
	}
	if cfg.Server.AuthSecret != "" || cfg.Probe.RedisAddr != "" {
		t.Error("auth and redis should be off by default")
	}
	if cfg.Watch.Dirs == nil {
		t.Error("Watch.Dirs should be empty, not nil")
	}

	if err := Validate(&cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestDurations(t *testing.T) {
	probe := ProbeConfig{TimeoutMs: 1500, CacheTTLSeconds: 60}
	if probe.Timeout() != 1500*time.Millisecond {
		t.Errorf("Timeout() = %v", probe.Timeout())
	}
	if probe.CacheTTL() != time.Minute {
		t.Errorf("CacheTTL() = %v", probe.CacheTTL())
	}

	watch := WatchConfig{DebounceMs: 250}
	if watch.DebounceWindow() != 250*time.Millisecond {
		t.Errorf("DebounceWindow() = %v", watch.DebounceWindow())
	}
}

func TestWatchConfig_ExpandedDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	watch := WatchConfig{Dirs: []string{"~/Drop", "/srv/drop", "~other/drop"}}
	got := watch.ExpandedDirs()

	want := []string{filepath.Join(home, "Drop"), "/srv/drop", "~other/drop"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExpandedDirs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/x/y.log", filepath.Join(home, "x", "y.log")},
		{"~user/x", "~user/x"},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandPath(tt.in); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
