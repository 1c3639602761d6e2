package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Nested keys use "__",
// e.g. TABLESCOPE_RESULTS__PAGE_SIZE=50.
const EnvPrefix = "TABLESCOPE_"

// Config holds all application configuration.
type Config struct {
	Theme       string            `koanf:"theme" yaml:"theme"`
	KeyMode     string            `koanf:"key_mode" yaml:"key_mode"` // "vim" or "standard"
	Results     ResultsConfig     `koanf:"results" yaml:"results"`
	Storage     StorageConfig     `koanf:"storage" yaml:"storage"`
	Log         LogConfig         `koanf:"log" yaml:"log"`
	History     HistoryConfig     `koanf:"history" yaml:"history"`
	Audit       AuditConfig       `koanf:"audit" yaml:"audit"`
	Server      ServerConfig      `koanf:"server" yaml:"server"`
	Connections []SavedConnection `koanf:"connections" yaml:"connections"`
}

// ResultsConfig holds row grid settings.
type ResultsConfig struct {
	PageSize      int `koanf:"page_size" yaml:"page_size"`
	MaxCellWidth  int `koanf:"max_cell_width" yaml:"max_cell_width"`
	FullCellWidth int `koanf:"full_cell_width" yaml:"full_cell_width"`
}

// StorageConfig bounds storage calls.
type StorageConfig struct {
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// LogConfig selects the log level and file.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
	File  string `koanf:"file" yaml:"file,omitempty"`
}

// HistoryConfig controls the console history store.
type HistoryConfig struct {
	Enabled    bool `koanf:"enabled" yaml:"enabled"`
	MaxEntries int  `koanf:"max_entries" yaml:"max_entries"`
}

// AuditConfig controls the mutation audit log.
type AuditConfig struct {
	Enabled   bool   `koanf:"enabled" yaml:"enabled"`
	Path      string `koanf:"path" yaml:"path,omitempty"`
	MaxSizeMB int    `koanf:"max_size_mb" yaml:"max_size_mb"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// Defaults is the lowest configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"theme":                   "default",
		"key_mode":                "standard",
		"results.page_size":       25,
		"results.max_cell_width":  50,
		"results.full_cell_width": 100,
		"storage.timeout":         "30s",
		"log.level":               "info",
		"log.file":                "",
		"history.enabled":         true,
		"history.max_entries":     1000,
		"audit.enabled":           false,
		"audit.path":              "",
		"audit.max_size_mb":       10,
		"server.addr":             ":8080",
	}
}

// DefaultConfig returns the configuration built from defaults alone.
func DefaultConfig() *Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(Defaults(), "."), nil)
	var cfg Config
	_ = k.Unmarshal("", &cfg)
	return &cfg
}

// ConfigDir returns the tablescope configuration directory, typically
// ~/.config/tablescope.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "tablescope"), nil
}

// DefaultPath is ConfigDir()/config.yaml.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// flagKeys maps CLI flag names onto config keys. Flags not listed here are
// command options, not configuration.
var flagKeys = map[string]string{
	"theme":     "theme",
	"key-mode":  "key_mode",
	"page-size": "results.page_size",
	"timeout":   "storage.timeout",
	"log-level": "log.level",
	"log-file":  "log.file",
	"addr":      "server.addr",
}

// Load builds the configuration from, lowest first: defaults, the YAML file
// at path (skipped when it does not exist), TABLESCOPE_* environment
// variables, and flags that were explicitly set. An empty path loads only
// defaults, env and flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns TABLESCOPE_RESULTS__PAGE_SIZE into results.page_size.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Results.PageSize <= 0:
		return fmt.Errorf("config: results.page_size must be positive, got %d", c.Results.PageSize)
	case c.Results.MaxCellWidth <= 0 || c.Results.FullCellWidth <= 0:
		return errors.New("config: cell widths must be positive")
	case c.Storage.Timeout <= 0:
		return fmt.Errorf("config: storage.timeout must be positive, got %s", c.Storage.Timeout)
	}
	switch c.KeyMode {
	case "standard", "vim":
	default:
		return fmt.Errorf("config: key_mode must be standard or vim, got %q", c.KeyMode)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	}
	return nil
}

// Connection returns the saved connection called name.
func (c *Config) Connection(name string) (SavedConnection, bool) {
	for _, sc := range c.Connections {
		if sc.Name == name {
			return sc, true
		}
	}
	return SavedConnection{}, false
}

// Save writes the Config to the YAML file at path, creating any necessary
// parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
