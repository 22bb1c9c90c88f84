package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables of an engine and of the bundled adapters.
type Config struct {
	// PollInterval is the deferred-value poll period.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" json:"poll_interval"`
	// SweepQuiet is the idle period after which the pending-removal registry is purged.
	SweepQuiet time.Duration `mapstructure:"sweep_quiet" yaml:"sweep_quiet" json:"sweep_quiet"`
	LogLevel   string        `mapstructure:"log_level" yaml:"log_level" json:"log_level"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http" json:"http"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis" json:"redis"`
}

// MetricsConfig configures Prometheus collection.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Namespace string `mapstructure:"namespace" yaml:"namespace" json:"namespace"`
}

// HTTPConfig configures the introspection server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`
}

// RedisConfig configures the notification relay. An empty Addr disables it.
type RedisConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Channel string `mapstructure:"channel" yaml:"channel" json:"channel"`
}

// Defaults returns the configuration used when nothing is specified.
func Defaults() Config {
	return Config{
		PollInterval: 500 * time.Millisecond,
		SweepQuiet:   time.Minute,
		LogLevel:     "info",
		Metrics:      MetricsConfig{Enabled: true, Namespace: "arbor"},
		HTTP:         HTTPConfig{Addr: ":8080"},
		Redis:        RedisConfig{Channel: "arbor:notifications"},
	}
}

// Load reads a YAML (or, by extension, JSON) file over the defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	return FromMap(raw)
}

// FromMap decodes loosely typed settings over the defaults. Durations may be
// given as strings ("250ms") or as nanosecond counts.
func FromMap(raw map[string]any) (Config, error) {
	cfg := Defaults()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid config: poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.SweepQuiet <= 0 {
		return fmt.Errorf("invalid config: sweep_quiet must be positive, got %s", c.SweepQuiet)
	}
	return nil
}
