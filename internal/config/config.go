// Package config loads imagedrop configuration from YAML and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ReloadFunc is called after a successful reload.
type ReloadFunc func(old, new *Config)

var (
	stateMu        sync.RWMutex
	current        *Config
	configFilePath string
	reloadHooks    []ReloadFunc
)

// Init loads configuration and makes it available through Get.
func Init() error {
	cfg, path, err := Load()
	if err != nil {
		return err
	}

	stateMu.Lock()
	current = cfg
	configFilePath = path
	stateMu.Unlock()

	if path != "" {
		slog.Info("config initialized", "file", path)
	} else {
		slog.Debug("no config file found; using defaults")
	}

	return nil
}

// Get returns the loaded configuration, or defaults before Init.
func Get() *Config {
	stateMu.RLock()
	defer stateMu.RUnlock()

	if current == nil {
		return LoadWithDefaults()
	}
	return current
}

// ConfigFilePath returns the path to the loaded config file,
// or empty string if using defaults only.
func ConfigFilePath() string {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return configFilePath
}

// OnReload registers fn to run after each successful Reload.
func OnReload(fn ReloadFunc) {
	stateMu.Lock()
	defer stateMu.Unlock()
	reloadHooks = append(reloadHooks, fn)
}

// Reload re-reads the configuration from disk.
// On failure, the previous configuration is retained.
func Reload() error {
	cfg, path, err := Load()
	if err != nil {
		slog.Error("config reload failed; retaining previous values", "error", err)
		return fmt.Errorf("failed to reload config; %w", err)
	}

	stateMu.Lock()
	old := current
	if old == nil {
		old = LoadWithDefaults()
	}
	current = cfg
	configFilePath = path
	hooks := append([]ReloadFunc(nil), reloadHooks...)
	stateMu.Unlock()

	slog.Info("config reloaded", "file", path)

	for _, fn := range hooks {
		fn(old, cfg)
	}

	return nil
}

// Reset clears the configuration state for testing purposes.
func Reset() {
	stateMu.Lock()
	defer stateMu.Unlock()
	current = nil
	configFilePath = ""
	reloadHooks = nil
}

// ActivePath returns the config file commands should read or write: the
// loaded file, else config.yaml in IMAGEDROP_CONFIG_DIR, else the default path.
func ActivePath() string {
	if path := ConfigFilePath(); path != "" {
		return path
	}
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return DefaultConfigPath()
}
