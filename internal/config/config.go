// Package config loads shop settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/marshallshelly/pebble-shop/pkg/runtime"
)

// Config holds every setting the shop command reads. Command-line flags
// override the environment.
type Config struct {
	DatabaseURL string        `env:"SHOP_DATABASE_URL"  envDefault:"shop.db"`
	LogLevel    slog.Level    `env:"SHOP_LOG_LEVEL"     envDefault:"warn"`
	BusyTimeout time.Duration `env:"SHOP_BUSY_TIMEOUT"  envDefault:"5s"`
	Reset       bool          `env:"SHOP_RESET"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Runtime returns the storage settings for runtime.Open.
func (c Config) Runtime(logger *slog.Logger) *runtime.Config {
	rc := runtime.DefaultConfig()
	if c.DatabaseURL != "" {
		rc.URL = c.DatabaseURL
	}
	if c.BusyTimeout > 0 {
		rc.BusyTimeout = c.BusyTimeout
	}
	rc.Logger = logger
	return rc
}
