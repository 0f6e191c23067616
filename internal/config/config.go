// Package config provides configuration management for rewatch.
//
// Configuration is loaded from three sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (REWATCH_ prefix)
//  3. Config file (.rewatch.yaml)
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Terminal clear modes.
const (
	ClearAuto   = "auto"
	ClearAlways = "always"
	ClearNever  = "never"
)

// Busy policies, applied when a qualifying change arrives while the build
// command from an earlier change is still running.
const (
	OnBusyOverlap = "overlap"
	OnBusyQueue   = "queue"
	OnBusyDrop    = "drop"
)

// Watch defaults.
const (
	DefaultExt  = ".zig"
	DefaultExec = "zig build run"
)

// DefaultIgnore lists directory names that are never descended into.
var DefaultIgnore = []string{".git", ".zig-cache", "zig-cache", "zig-out"}

// Config represents the global configuration for rewatch.
type Config struct {
	// LogLevel controls the verbosity of log output.
	// Valid values: debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" yaml:"log-level"`

	// LogFormat controls the format of log output.
	// Valid values: text, json.
	LogFormat string `mapstructure:"log-format" yaml:"log-format"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no-color" yaml:"no-color"`

	// Quiet suppresses all log output below error level.
	Quiet bool `mapstructure:"quiet" yaml:"quiet"`

	// Root is the directory to watch. Empty means the directory holding
	// the rewatch executable.
	Root string `mapstructure:"root" yaml:"root"`

	// Ext is the path suffix a changed file must carry to trigger a build.
	Ext string `mapstructure:"ext" yaml:"ext"`

	// Exec is the build command line, split with shell quoting rules.
	Exec string `mapstructure:"exec" yaml:"exec"`

	// Clear selects when the terminal is cleared before a build.
	Clear string `mapstructure:"clear" yaml:"clear"`

	// OnBusy selects what happens to a change that arrives mid-build.
	OnBusy string `mapstructure:"on-busy" yaml:"on-busy"`

	// Debounce collapses bursts of changes; zero disables it.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`

	// Ignore lists directory base names excluded from the recursive watch.
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`

	// ConfigFile is the resolved path to the config file used.
	// Set after Load(), never read from config itself.
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:  LogLevelInfo,
		LogFormat: LogFormatText,
		Ext:       DefaultExt,
		Exec:      DefaultExec,
		Clear:     ClearAuto,
		OnBusy:    OnBusyOverlap,
		Ignore:    append([]string(nil), DefaultIgnore...),
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		// valid
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	switch c.Clear {
	case ClearAuto, ClearAlways, ClearNever:
		// valid
	default:
		return fmt.Errorf("invalid clear mode %q: must be one of auto, always, never", c.Clear)
	}

	switch c.OnBusy {
	case OnBusyOverlap, OnBusyQueue, OnBusyDrop:
		// valid
	default:
		return fmt.Errorf("invalid on-busy policy %q: must be one of overlap, queue, drop", c.OnBusy)
	}

	if c.Ext == "" {
		return errors.New("invalid ext: must not be empty")
	}

	if strings.TrimSpace(c.Exec) == "" {
		return errors.New("invalid exec: must not be empty")
	}

	if c.Debounce < 0 {
		return fmt.Errorf("invalid debounce %s: must not be negative", c.Debounce)
	}

	return nil
}

// EffectiveLogLevel returns the log level to use. When Quiet is true the log
// level is overridden to "error" regardless of the configured LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("no-color", d.NoColor)
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("root", d.Root)
	v.SetDefault("ext", d.Ext)
	v.SetDefault("exec", d.Exec)
	v.SetDefault("clear", d.Clear)
	v.SetDefault("on-busy", d.OnBusy)
	v.SetDefault("debounce", d.Debounce)
	v.SetDefault("ignore", d.Ignore)
}

func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("REWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	v.SetConfigName(".rewatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "rewatch"))
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file found → perfectly fine in auto-discovery.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}

		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags binds the command's own flags and every persistent flag from cmd
// up to the root.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
