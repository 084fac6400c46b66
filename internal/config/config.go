// Package config loads codeflow settings from defaults, an optional YAML
// file, CODEFLOW_* environment variables and bound command flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/DeusData/codeflow/internal/discover"
)

// EnvPrefix prefixes every environment override, e.g. CODEFLOW_POOL_WORKERS.
const EnvPrefix = "CODEFLOW"

// Config is the complete runtime configuration.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Index     IndexConfig     `mapstructure:"index"`
	CallGraph CallGraphConfig `mapstructure:"callgraph"`
	CFG       CFGConfig       `mapstructure:"cfg"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// StoreConfig locates the SQLite database. An empty Path means the per-user
// cache location.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type PoolConfig struct {
	Workers int `mapstructure:"workers"`
}

type IndexConfig struct {
	BatchSize        int      `mapstructure:"batch_size"`
	Include          []string `mapstructure:"include"`
	Exclude          []string `mapstructure:"exclude"`
	RespectGitignore bool     `mapstructure:"respect_gitignore"`
}

type CallGraphConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

type CFGConfig struct {
	LabelWidth int `mapstructure:"label_width"`
}

// WatchConfig tunes the watcher. Rescan is an optional cron schedule
// ("@every 10m", "0 * * * *") for full tree comparisons.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Rescan   string        `mapstructure:"rescan"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.path", "")
	v.SetDefault("pool.workers", runtime.NumCPU())
	v.SetDefault("index.batch_size", 64)
	v.SetDefault("index.include", []string{})
	v.SetDefault("index.exclude", []string{})
	v.SetDefault("index.respect_gitignore", true)
	v.SetDefault("callgraph.max_depth", 3)
	v.SetDefault("cfg.label_width", 40)
	v.SetDefault("watch.debounce", "500ms")
	v.SetDefault("watch.rescan", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// NewViper returns a viper instance with defaults and environment overrides.
// A non-empty file must exist; otherwise codeflow.yaml is looked up in the
// working directory and the user config directory, and is optional.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("codeflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "codeflow"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v and validates the result. Out-of-range depths and widths
// are clamped rather than rejected.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate normalizes c in place and reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Pool.Workers < 1 {
		c.Pool.Workers = runtime.NumCPU()
	}
	if c.Index.BatchSize < 1 {
		return fmt.Errorf("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}
	for _, g := range append(append([]string{}, c.Index.Include...), c.Index.Exclude...) {
		if !doublestar.ValidatePattern(g) {
			return fmt.Errorf("index: invalid glob %q", g)
		}
	}
	c.CallGraph.MaxDepth = min(max(c.CallGraph.MaxDepth, 0), 10)
	c.CFG.LabelWidth = min(max(c.CFG.LabelWidth, 30), 50)
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %s", c.Watch.Debounce)
	}
	if c.Watch.Rescan != "" {
		if _, err := cron.ParseStandard(c.Watch.Rescan); err != nil {
			return fmt.Errorf("watch.rescan: %w", err)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// DiscoverOptions returns the file selection settings for discovery.
func (c *Config) DiscoverOptions() discover.Options {
	return discover.Options{
		Include:          c.Index.Include,
		Exclude:          c.Index.Exclude,
		RespectGitignore: c.Index.RespectGitignore,
	}
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds the process logger. Output goes to stderr so stdout stays
// free for command results and the MCP stdio transport.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
