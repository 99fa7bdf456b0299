package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWrite_CreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := NewDefaultConfig()
	err := Write(&cfg, configPath)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Write() did not create config file")
	}
}

func TestWrite_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "nested", "config.yaml")

	cfg := NewDefaultConfig()
	err := Write(&cfg, configPath)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Verify directory was created
	dir := filepath.Dir(configPath)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		t.Error("Write() did not create directory")
	}
	if !info.IsDir() {
		t.Error("Write() directory is not a directory")
	}
}

func TestWrite_DirectoryPermissions(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "newdir", "config.yaml")

	cfg := NewDefaultConfig()
	err := Write(&cfg, configPath)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	dir := filepath.Dir(configPath)
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("failed to stat directory; %v", err)
	}

	// Check permissions (0700)
	perms := info.Mode().Perm()
	if perms != 0700 {
		t.Errorf("directory permissions = %o, want 0700", perms)
	}
}

func TestWrite_FilePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := NewDefaultConfig()
	err := Write(&cfg, configPath)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("failed to stat file; %v", err)
	}

	// Check permissions (0600)
	perms := info.Mode().Perm()
	if perms != 0600 {
		t.Errorf("file permissions = %o, want 0600", perms)
	}
}

func TestWrite_IncludesHeaderComment(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := NewDefaultConfig()
	err := Write(&cfg, configPath)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file; %v", err)
	}

	// Verify header comment
	if !strings.HasPrefix(string(content), "# imagedrop configuration") {
		t.Error("Write() did not include header comment")
	}
	if !strings.Contains(string(content), "Generated:") {
		t.Error("Write() did not include generation timestamp")
	}
}

func TestWrite_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := NewDefaultConfig()
	err := Write(&cfg, configPath)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Try to load it back
	loaded, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v; written YAML is not valid", err)
	}

	// Verify some values round-tripped correctly
	if loaded.LogLevel != cfg.LogLevel {
		t.Errorf("LogLevel = %q, want %q", loaded.LogLevel, cfg.LogLevel)
	}
	if loaded.Server.Port != cfg.Server.Port {
		t.Errorf("Server.Port = %d, want %d", loaded.Server.Port, cfg.Server.Port)
	}
	if loaded.Minify.Quality != cfg.Minify.Quality {
		t.Errorf("Minify.Quality = %g, want %g", loaded.Minify.Quality, cfg.Minify.Quality)
	}
	if loaded.Probe.RateLimit != cfg.Probe.RateLimit {
		t.Errorf("Probe.RateLimit = %g, want %g", loaded.Probe.RateLimit, cfg.Probe.RateLimit)
	}
}

func TestWrite_ExpandsTilde(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cfg := NewDefaultConfig()
	err := Write(&cfg, "~/config.yaml")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	expectedPath := filepath.Join(tmpDir, "config.yaml")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Errorf("Write() did not expand tilde; file not at %s", expectedPath)
	}
}

func TestConfigExistsAt_FileExists_ReturnsTrue(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	os.WriteFile(configPath, []byte("log_level: info\n"), 0600)

	if !ConfigExistsAt(configPath) {
		t.Error("ConfigExistsAt() = false, want true when file exists")
	}
}

func TestConfigExistsAt_FileNotExists_ReturnsFalse(t *testing.T) {
	if ConfigExistsAt("/nonexistent/path/config.yaml") {
		t.Error("ConfigExistsAt() = true, want false when file doesn't exist")
	}
}

func TestDefaultConfigPath_ReturnsExpectedPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	expected := filepath.Join(tmpDir, ".config", "imagedrop", "config.yaml")
	got := DefaultConfigPath()
	if got != expected {
		t.Errorf("DefaultConfigPath() = %q, want %q", got, expected)
	}
}

func TestConfigDir_ReturnsExpectedPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	expected := filepath.Join(tmpDir, ".config", "imagedrop")
	got := ConfigDir()
	if got != expected {
		t.Errorf("ConfigDir() = %q, want %q", got, expected)
	}
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := NewDefaultConfig()
	for i := 0; i < 2; i++ {
		if err := Write(&cfg, configPath); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only config.yaml, found %d entries", len(entries))
	}
}

func TestMarshal_UsesYAMLKeys(t *testing.T) {
	cfg := NewDefaultConfig()
	data, err := Marshal(&cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	for _, key := range []string{"log_level:", "max_width:", "timeout_ms:", "max_body_bytes:", "debounce_ms:"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Marshal() output missing %q", key)
		}
	}
}
