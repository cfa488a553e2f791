// Package config loads the sequentializer's own configuration: CLI defaults
// that would otherwise require re-specifying every flag on every run,
// grounded on the enrichment pack's viper-based config loader.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds every setting the CLI accepts as a flag or config-file value.
type Config struct {
	Threads       int          `mapstructure:"threads"`
	NoPOR         bool         `mapstructure:"no_por"`
	Output        string       `mapstructure:"output"`
	InlinerOutput string       `mapstructure:"inliner_output"`
	StoreDSN      string       `mapstructure:"store_dsn"`
	Log           LogConfig    `mapstructure:"log"`
	Retry         RetryConfig  `mapstructure:"retry"`
	Metrics       MetricsConfig `mapstructure:"metrics"`
}

// LogConfig controls the structured logger's verbosity and destination.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// RetryConfig controls internal/ir's Loader retry wrapper.
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	BaseDelayMs int `mapstructure:"base_delay_ms"`
	MaxDelayMs  int `mapstructure:"max_delay_ms"`
}

// MetricsConfig controls whether a Prometheus registry is created and where
// it would be served from, if the embedding caller exposes an HTTP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads configuration from configPath, or from the standard search
// locations when configPath is empty, falling back to defaults when no file
// is found. Environment variables (NTSSEQ_*) override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ntsseq")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/ntsseq")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file: defaults and flags/env are all we have.
		} else if os.IsNotExist(err) {
			// Explicit path that doesn't exist: same treatment.
		} else {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("ntsseq")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// LoadFromReader loads configuration of the given type ("yaml", "json", ...)
// from raw bytes, for tests that should not depend on the filesystem.
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("threads", 0)
	v.SetDefault("no_por", false)
	v.SetDefault("output", "")
	v.SetDefault("inliner_output", "")
	v.SetDefault("store_dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 100)
	v.SetDefault("retry.max_delay_ms", 2000)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}

// Validate checks invariants Load and LoadFromReader both enforce.
func (c *Config) Validate() error {
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1")
	}
	if c.Retry.MaxDelayMs < c.Retry.BaseDelayMs {
		return fmt.Errorf("retry.max_delay_ms must be >= retry.base_delay_ms")
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must be >= 0")
	}
	return nil
}
