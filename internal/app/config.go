package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"

	"statebox/internal/logging"
	"statebox/internal/store"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STATEBOX"

// Config holds runtime wiring options for building the app.
type Config struct {
	Dir        string `envconfig:"DIR"`      // state directory; empty resolves the platform default
	KeyFile    string `envconfig:"KEY_FILE"` // sealed key file; empty uses DefaultKeyFile
	Key        string `envconfig:"KEY"`      // base64 raw key, bypasses the key file
	Passphrase string `envconfig:"PASSPHRASE"`
	Workers    int    `envconfig:"WORKERS" default:"4"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from STATEBOX_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Workers:  store.DefaultWorkers,
		LogLevel: "warn",
	}
}

// Logging returns the logger configuration for cfg.
func (c *Config) Logging() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Development = c.LogDev
	return lc
}

// KeyFilePath returns the configured key file, or DefaultKeyFile.
func (c *Config) KeyFilePath() (string, error) {
	if c.KeyFile != "" {
		return c.KeyFile, nil
	}
	return DefaultKeyFile()
}

// DefaultKeyFile returns <user config dir>/statebox/key.json.
func DefaultKeyFile() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "statebox", "key.json"), nil
}
