package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "vaultrunner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("max-steps", 0, "")
	fs.Bool("halt-on-exit", false, "")
	fs.String("log-level", "", "")
	fs.Bool("no-history", false, "")
	fs.Bool("trace", false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want, cfg)
	assert.Empty(t, cfg.File)
}

func TestLoad_FileFoundInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "max_steps: 200\nhalt_on_exit: true\ncolor: never\n")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.MaxSteps)
	assert.True(t, cfg.HaltOnExit)
	assert.Equal(t, "never", cfg.Color)
	assert.Equal(t, "vaultrunner.yaml", cfg.File)
	assert.Equal(t, "warn", cfg.LogLevel, "unset keys keep their defaults")
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	path := writeConfig(t, dir, "max_steps: 200\nlog_level: warn\n")

	t.Setenv("VAULTRUNNER_MAX_STEPS", "300")
	t.Setenv("VAULTRUNNER_LOG_LEVEL", "error")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--max-steps", "400", "--trace"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.MaxSteps, "flag beats env")
	assert.Equal(t, "error", cfg.LogLevel, "env beats file")
	assert.Equal(t, path, cfg.File)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "max_steps: 250\n")

	fs := testFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.MaxSteps)
}

func TestLoad_NoHistoryFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--no-history", "--halt-on-exit"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.False(t, cfg.History)
	assert.True(t, cfg.HaltOnExit)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	dir := t.TempDir()
	path := writeConfig(t, dir, "max_steps: 0\n")
	_, err = Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_steps must be positive")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"negative steps", func(c *Config) { c.MaxSteps = -1 }, "max_steps"},
		{"negative delay", func(c *Config) { c.DelayMS = -5 }, "delay_ms"},
		{"upper-case level", func(c *Config) { c.LogLevel = "DEBUG" }, ""},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "invalid log_level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "invalid log_format"},
		{"bad output", func(c *Config) { c.Output = "markdown" }, "invalid output"},
		{"bad color", func(c *Config) { c.Color = "sometimes" }, "invalid color"},
		{"history without path", func(c *Config) { c.HistoryPath = "" }, "history_path"},
		{"no history, no path", func(c *Config) { c.History = false; c.HistoryPath = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	c := Default()
	assert.Equal(t, slog.LevelWarn, c.SlogLevel())
	c.LogLevel = "info"
	assert.Equal(t, slog.LevelInfo, c.SlogLevel())
	c.LogLevel = "debug"
	assert.Equal(t, slog.LevelDebug, c.SlogLevel())
	c.LogLevel = "WARN"
	assert.Equal(t, slog.LevelWarn, c.SlogLevel())
	c.LogLevel = "bogus"
	assert.Equal(t, slog.LevelInfo, c.SlogLevel())
	c.LogLevel = "error"
	assert.Equal(t, slog.LevelError, c.SlogLevel())
}
