// Package appconfig loads the bootstrap YAML that wires a MineClanker
// process: where the settings file lives, which endpoint and model to call,
// and how the worker pool, rate limiter and bridge are sized. Player-facing
// settings (API key, tokens, prompt) live in the settings file instead.
package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ftkevon/mineclanker/pkg/modeladapter"
	"github.com/ftkevon/mineclanker/pkg/providers/openai"
	"github.com/ftkevon/mineclanker/pkg/settings"
	"github.com/ftkevon/mineclanker/pkg/worker"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "mineclanker.yaml"

// Config is the top-level bootstrap configuration.
type Config struct {
	SettingsPath string          `yaml:"settings_path"`
	OpenAI       OpenAIConfig    `yaml:"openai"`
	Workers      WorkersConfig   `yaml:"workers"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
	Bridge       BridgeConfig    `yaml:"bridge"`
	LogLevel     string          `yaml:"log_level"`
}

// OpenAIConfig selects the completion endpoint.
type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"` // Duration string, e.g. "30s".
}

// WorkersConfig sizes the ask pool.
type WorkersConfig struct {
	Count int `yaml:"count"`
	Queue int `yaml:"queue"`
}

// RateLimitConfig limits asks per player (0 = no limit).
type RateLimitConfig struct {
	AsksPerMinute float64 `yaml:"asks_per_minute"`
	Burst         int     `yaml:"burst"`
}

// BridgeConfig holds the WebSocket bridge listener.
type BridgeConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		SettingsPath: settings.DefaultPath,
		OpenAI: OpenAIConfig{
			BaseURL: openai.DefaultBaseURL,
			Model:   openai.DefaultModel,
			Timeout: modeladapter.DefaultTimeout.String(),
		},
		Workers: WorkersConfig{
			Count: worker.DefaultWorkers,
			Queue: worker.DefaultQueueSize,
		},
		RateLimit: RateLimitConfig{AsksPerMinute: 6, Burst: 2},
		Bridge:    BridgeConfig{Addr: "127.0.0.1:8765"},
		LogLevel:  "info",
	}
}

// Load reads a YAML file over the defaults. Environment variables referenced
// as ${VAR} or $VAR are expanded before parsing. A missing file is not an
// error and yields Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("appconfig: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("appconfig: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SettingsPath) == "" {
		return errors.New("appconfig: config: settings_path is required")
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.Workers.Count < 0 || c.Workers.Queue < 0 {
		return errors.New("appconfig: config: workers must not be negative")
	}
	if c.RateLimit.AsksPerMinute < 0 || c.RateLimit.Burst < 0 {
		return errors.New("appconfig: config: rate_limit must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Timeout parses OpenAI.Timeout. Empty means modeladapter.DefaultTimeout.
func (c Config) Timeout() (time.Duration, error) {
	if c.OpenAI.Timeout == "" {
		return modeladapter.DefaultTimeout, nil
	}

	d, err := time.ParseDuration(c.OpenAI.Timeout)
	if err != nil {
		return 0, fmt.Errorf("appconfig: config: openai.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("appconfig: config: openai.timeout must be positive, got %s", d)
	}

	return d, nil
}

// Level parses LogLevel (debug, info, warn, error). Empty means info.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("appconfig: config: log_level: %w", err)
	}

	return lvl, nil
}
