// Package config provides configuration management for the virtual tiler.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from
// environment variables.
type Config struct {
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Render  RenderConfig  `envPrefix:"RENDER_"`
	Search  SearchConfig  `envPrefix:"SEARCH_"`
	Catalog CatalogConfig `envPrefix:"CATALOG_"`
	Metrics MetricsConfig `envPrefix:"METRICS_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8000"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// RenderConfig contains rendering engine client configuration.
type RenderConfig struct {
	// BaseURL is the rendering engine's base URL (required).
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`

	// Format is the output format descriptor passed to the engine.
	Format string `env:"FORMAT" envDefault:"optimal"`

	// Transformation is the pixel transformation descriptor passed to
	// the engine.
	Transformation string `env:"TRANSFORMATION" envDefault:"image"`
}

// SearchConfig contains catalog search configuration.
type SearchConfig struct {
	// Limit caps the feature count requested per search. This bounds
	// worst-case compositing fan-out, it is not a correctness knob.
	Limit   int           `env:"LIMIT" envDefault:"500"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// AssetKeys is the asset lookup order per feature, highest priority
	// first.
	AssetKeys []string `env:"ASSET_KEYS" envSeparator:"," envDefault:"visual,B2"`
}

// CatalogConfig contains catalog factory configuration.
type CatalogConfig struct {
	// CacheSize bounds the catalog memoization cache (LRU entries).
	CacheSize int `env:"CACHE_SIZE" envDefault:"1024"`
}

// MetricsConfig contains metrics exposure configuration.
type MetricsConfig struct {
	Enabled bool `env:"ENABLED" envDefault:"true"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if c.Render.BaseURL == "" {
		return fmt.Errorf("render engine base URL is required")
	}

	if c.Render.Timeout <= 0 {
		return fmt.Errorf("render timeout must be positive, got %s", c.Render.Timeout)
	}

	if c.Render.Format == "" {
		return fmt.Errorf("render format is required")
	}

	if c.Render.Transformation == "" {
		return fmt.Errorf("render transformation is required")
	}

	if c.Search.Limit < 1 {
		return fmt.Errorf("search limit must be at least 1, got %d", c.Search.Limit)
	}

	if c.Search.Timeout <= 0 {
		return fmt.Errorf("search timeout must be positive, got %s", c.Search.Timeout)
	}

	if len(c.Search.AssetKeys) == 0 {
		return fmt.Errorf("at least one search asset key is required")
	}
	for i, key := range c.Search.AssetKeys {
		if key == "" {
			return fmt.Errorf("search asset key at index %d is empty", i)
		}
	}

	if c.Catalog.CacheSize < 1 {
		return fmt.Errorf("catalog cache size must be at least 1, got %d", c.Catalog.CacheSize)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
