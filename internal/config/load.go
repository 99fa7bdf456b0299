package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. IMAGEDROP_SERVER_PORT.
const EnvPrefix = "IMAGEDROP"

// ConfigDirEnv names the environment variable that overrides the search path.
const ConfigDirEnv = "IMAGEDROP_CONFIG_DIR"

// DotEnvFile is read from each search directory before the environment.
// Variables that are already set win.
const DotEnvFile = ".env"

// Load reads and returns the typed configuration and the file it came from.
// It searches for config.yaml in priority order:
//  1. Directory specified by IMAGEDROP_CONFIG_DIR
//  2. ~/.config/imagedrop/
//  3. Current working directory (.)
//
// A .env file in any of those directories is loaded first.
//
// If no config file is found, defaults and environment overrides are used and
// the returned path is empty. A file that exists but is invalid is an error.
func Load() (*Config, string, error) {
	dirs := searchDirs()
	if err := loadDotEnv(dirs); err != nil {
		return nil, "", err
	}

	v := newViper()
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("failed to read config; %w", err)
		}
	}

	cfg, err := unmarshalConfig(v)
	if err != nil {
		return nil, "", err
	}

	return cfg, v.ConfigFileUsed(), nil
}

func searchDirs() []string {
	var dirs []string
	if envPath := os.Getenv(ConfigDirEnv); envPath != "" {
		dirs = append(dirs, envPath)
	}
	if home := resolveHomeDir(); home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "imagedrop"))
	}
	return append(dirs, ".")
}

func loadDotEnv(dirs []string) error {
	for _, dir := range dirs {
		path := filepath.Join(dir, DotEnvFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s; %w", path, err)
		}
	}
	return nil
}

// LoadFromPath reads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(expandHome(path))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from %s; %w", path, err)
	}

	return unmarshalConfig(v)
}

// LoadWithDefaults returns configuration using defaults only.
func LoadWithDefaults() *Config {
	cfg := NewDefaultConfig()
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setViperDefaults(v)

	return v
}

// unmarshalConfig converts viper config to typed Config struct.
func unmarshalConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config; %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
