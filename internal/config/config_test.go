package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newTestRootCmd creates a cobra.Command with the same persistent flags as the
// real root command so that Load can bind them during tests.
func newTestRootCmd() *cobra.Command {
	cmd := &cobra.Command{}
	pf := cmd.PersistentFlags()
	pf.String("config", "", "")
	pf.String("log-level", "info", "")
	pf.String("log-format", "text", "")
	pf.Bool("no-color", false, "")
	pf.BoolP("quiet", "q", false, "")

	return cmd
}

// newTestRunCmd mirrors the run subcommand's local flags.
func newTestRunCmd() *cobra.Command {
	root := newTestRootCmd()
	run := &cobra.Command{Use: "run"}
	f := run.Flags()
	f.String("root", "", "")
	f.String("ext", DefaultExt, "")
	f.String("exec", DefaultExec, "")
	f.String("clear", ClearAuto, "")
	f.String("on-busy", OnBusyOverlap, "")
	f.Duration("debounce", 0, "")
	f.StringSlice("ignore", DefaultIgnore, "")
	root.AddCommand(run)

	return run
}

// writeTempConfig writes a YAML string to a temporary file and returns the path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

// ---------------------------------------------------------------------------
// Default
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Quiet)
	assert.Empty(t, cfg.Root)
	assert.Equal(t, ".zig", cfg.Ext)
	assert.Equal(t, "zig build run", cfg.Exec)
	assert.Equal(t, ClearAuto, cfg.Clear)
	assert.Equal(t, OnBusyOverlap, cfg.OnBusy)
	assert.Zero(t, cfg.Debounce)
	assert.Equal(t, DefaultIgnore, cfg.Ignore)
}

func TestDefault_IgnoreIsCopied(t *testing.T) {
	cfg := Default()
	cfg.Ignore[0] = "changed"
	assert.Equal(t, ".git", DefaultIgnore[0])
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate_ValidValues(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		cfg := Default()
		cfg.LogLevel = lvl
		assert.NoError(t, cfg.Validate(), "level=%s", lvl)
	}

	for _, f := range []string{"text", "json"} {
		cfg := Default()
		cfg.LogFormat = f
		assert.NoError(t, cfg.Validate(), "format=%s", f)
	}

	for _, mode := range []string{"auto", "always", "never"} {
		cfg := Default()
		cfg.Clear = mode
		assert.NoError(t, cfg.Validate(), "clear=%s", mode)
	}

	for _, policy := range []string{"overlap", "queue", "drop"} {
		cfg := Default()
		cfg.OnBusy = policy
		assert.NoError(t, cfg.Validate(), "on-busy=%s", policy)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, "invalid log level"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "invalid log format"},
		{"clear mode", func(c *Config) { c.Clear = "sometimes" }, "invalid clear mode"},
		{"on-busy", func(c *Config) { c.OnBusy = "panic" }, "invalid on-busy policy"},
		{"empty ext", func(c *Config) { c.Ext = "" }, "invalid ext"},
		{"blank exec", func(c *Config) { c.Exec = "   " }, "invalid exec"},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }, "invalid debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

// ---------------------------------------------------------------------------
// EffectiveLogLevel
// ---------------------------------------------------------------------------

func TestEffectiveLogLevel_Normal(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestEffectiveLogLevel_QuietOverride(t *testing.T) {
	cfg := &Config{LogLevel: "debug", Quiet: true}
	assert.Equal(t, "error", cfg.EffectiveLogLevel())
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, DefaultExt, cfg.Ext)
	assert.Equal(t, DefaultExec, cfg.Exec)
	assert.Equal(t, DefaultIgnore, cfg.Ignore)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("REWATCH_LOG_LEVEL", "debug")
	t.Setenv("REWATCH_EXT", ".go")
	t.Setenv("REWATCH_ON_BUSY", "drop")
	t.Setenv("REWATCH_DEBOUNCE", "250ms")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ".go", cfg.Ext)
	assert.Equal(t, OnBusyDrop, cfg.OnBusy)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
}

func TestLoad_EnvBooleans(t *testing.T) {
	t.Setenv("REWATCH_NO_COLOR", "true")
	t.Setenv("REWATCH_QUIET", "true")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.Quiet)
}

func TestLoad_ConfigFile(t *testing.T) {
	p := writeTempConfig(t, "log-level: warn\nlog-format: json\nexec: make test\nignore: [vendor, node_modules]\n")

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "make test", cfg.Exec)
	assert.Equal(t, []string{"vendor", "node_modules"}, cfg.Ignore)
	assert.Equal(t, p, cfg.ConfigFile)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(nil, "/tmp/nonexistent-rewatch-cfg-12345.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	p := writeTempConfig(t, ": invalid yaml :")

	_, err := Load(nil, p)
	require.Error(t, err)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("REWATCH_LOG_LEVEL", "debug")

	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "error"))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("REWATCH_LOG_LEVEL", "debug")
	p := writeTempConfig(t, "log-level: warn\n")

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_RunFlags(t *testing.T) {
	cmd := newTestRunCmd()
	require.NoError(t, cmd.Flags().Set("ext", ".go"))
	require.NoError(t, cmd.Flags().Set("exec", "go test ./..."))
	require.NoError(t, cmd.Flags().Set("debounce", "100ms"))
	require.NoError(t, cmd.Flags().Set("ignore", "vendor"))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, ".go", cfg.Ext)
	assert.Equal(t, "go test ./...", cfg.Exec)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce)
	assert.Equal(t, []string{"vendor"}, cfg.Ignore)
}

func TestLoad_EnvOverridesUnsetRunFlag(t *testing.T) {
	t.Setenv("REWATCH_EXT", ".rs")

	cfg, err := Load(newTestRunCmd(), "")
	require.NoError(t, err)
	assert.Equal(t, ".rs", cfg.Ext)
}

func TestLoad_InvalidOnBusyFromFile(t *testing.T) {
	p := writeTempConfig(t, "on-busy: sometimes\n")

	_, err := Load(nil, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid on-busy policy")
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func TestContext_RoundTrip(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	ctx := NewContext(context.Background(), cfg)
	got := FromContext(ctx)
	assert.Equal(t, cfg, got)
}

func TestFromContext_FallbackToDefault(t *testing.T) {
	got := FromContext(context.Background())
	assert.Equal(t, Default(), got)
}
