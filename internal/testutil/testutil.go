// Package testutil provides isolated config environments and image fixtures
// for tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/leefowlercu/imagedrop/internal/config"
)

// TestEnv provides an isolated test environment with its own config directory.
type TestEnv struct {
	t         *testing.T
	ConfigDir string
}

// NewTestEnv creates an isolated test environment. Paths are overridden
// through environment variables and the global config is re-initialized.
// Cleanup is automatic via t.Cleanup.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	configDir := filepath.Join(t.TempDir(), "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create test config dir: %v", err)
	}

	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.ConfigDirEnv, configDir)
	t.Setenv("IMAGEDROP_LOG_FILE", filepath.Join(configDir, "imagedrop.log"))

	config.Reset()
	if err := config.Init(); err != nil {
		t.Fatalf("failed to initialize test config: %v", err)
	}

	t.Cleanup(config.Reset)

	return &TestEnv{t: t, ConfigDir: configDir}
}

// WriteConfig writes config.yaml into the environment and reloads it.
func (e *TestEnv) WriteConfig(content string) string {
	e.t.Helper()

	path := filepath.Join(e.ConfigDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.t.Fatalf("failed to write test config: %v", err)
	}
	if err := config.Init(); err != nil {
		e.t.Fatalf("failed to load test config: %v", err)
	}
	return path
}

// CreateTestDir creates a directory outside the config dir.
// Returns the absolute path to the created directory.
func (e *TestEnv) CreateTestDir(name string) string {
	e.t.Helper()

	dir := filepath.Join(e.t.TempDir(), "testdata", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.t.Fatalf("failed to create test dir %s: %v", name, err)
	}
	return dir
}

// CreateTestFile creates a file with the given content.
// Returns the absolute path to the created file.
func (e *TestEnv) CreateTestFile(dir, name string, content []byte) string {
	e.t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		e.t.Fatalf("failed to create test file %s: %v", name, err)
	}
	return path
}

// PNG returns an encoded w x h PNG filled with a single color.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}
