// Package config loads vaultrunner settings.
//
// Values are layered, lowest to highest precedence: built-in defaults,
// vaultrunner.yaml, VAULTRUNNER_* environment variables, explicitly set flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	DefaultMaxSteps    = 1000
	DefaultDelayMS     = 150
	DefaultHistoryPath = ".vaultrunner/history.db"
	DefaultAddr        = ":8080"

	// EnvPrefix is stripped from environment variable names.
	EnvPrefix = "VAULTRUNNER_"
)

// FileNames are looked up in the working directory when no --config is given.
var FileNames = []string{"vaultrunner.yaml", "vaultrunner.yml"}

// Config holds every setting a command may read.
type Config struct {
	MaxSteps    int    `koanf:"max_steps"`
	HaltOnExit  bool   `koanf:"halt_on_exit"`
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`
	Output      string `koanf:"output"`
	Color       string `koanf:"color"`
	DelayMS     int    `koanf:"delay_ms"`
	History     bool   `koanf:"history"`
	HistoryPath string `koanf:"history_path"`
	Addr        string `koanf:"addr"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		MaxSteps:    DefaultMaxSteps,
		LogLevel:    "warn",
		LogFormat:   "text",
		Output:      "auto",
		Color:       "auto",
		DelayMS:     DefaultDelayMS,
		History:     true,
		HistoryPath: DefaultHistoryPath,
		Addr:        DefaultAddr,
	}
}

func defaults() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"max_steps":    d.MaxSteps,
		"halt_on_exit": d.HaltOnExit,
		"log_level":    d.LogLevel,
		"log_format":   d.LogFormat,
		"output":       d.Output,
		"color":        d.Color,
		"delay_ms":     d.DelayMS,
		"history":      d.History,
		"history_path": d.HistoryPath,
		"addr":         d.Addr,
	}
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range FileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// VAULTRUNNER_MAX_STEPS -> max_steps
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "no_history" {
				return "history", false
			}
			// Flags that are not settings (--trace, --map, ...) stay out.
			if !k.Exists(key) {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
	outputs    = []string{"auto", "text", "json"}
	colors     = []string{"auto", "always", "never"}
)

// Validate rejects out-of-range numbers and unknown enum values.
func (c *Config) Validate() error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if c.DelayMS < 0 {
		return fmt.Errorf("delay_ms must not be negative, got %d", c.DelayMS)
	}
	if err := oneOf("log_level", strings.ToLower(c.LogLevel), logLevels); err != nil {
		return err
	}
	if err := oneOf("log_format", c.LogFormat, logFormats); err != nil {
		return err
	}
	if err := oneOf("output", c.Output, outputs); err != nil {
		return err
	}
	if err := oneOf("color", c.Color, colors); err != nil {
		return err
	}
	if c.History && c.HistoryPath == "" {
		return fmt.Errorf("history_path is required when history is enabled")
	}
	return nil
}

func oneOf(key, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("invalid %s %q (expected one of %s)", key, value, strings.Join(allowed, ", "))
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
