package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	shifterrors "shift/internal/errors"
	"shift/internal/paths"
)

// CurrentVersion is the only config schema version this build understands.
const CurrentVersion = 1

// Config represents the complete shift configuration
type Config struct {
	Version int `json:"version" mapstructure:"version" toml:"version"`

	// Tasks run when `shift run` is invoked without task names
	Tasks []string `json:"tasks" mapstructure:"tasks" toml:"tasks"`

	// Paths are the default scan roots, relative to the repository root
	Paths      []string `json:"paths" mapstructure:"paths" toml:"paths"`
	Extensions []string `json:"extensions" mapstructure:"extensions" toml:"extensions"`
	Ignore     []string `json:"ignore" mapstructure:"ignore" toml:"ignore"`

	// Workers bounds per-file parallelism inside a single task
	Workers int  `json:"workers" mapstructure:"workers" toml:"workers"`
	DryRun  bool `json:"dryRun" mapstructure:"dryRun" toml:"dryRun"`

	History HistoryConfig `json:"history" mapstructure:"history" toml:"history"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging" toml:"logging"`

	// FacadeAliases adds or overrides alias -> fully qualified class entries
	FacadeAliases map[string]string `json:"facadeAliases,omitempty" mapstructure:"facadeAliases" toml:"facadeAliases,omitempty"`
}

// HistoryConfig controls the run history database
type HistoryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled" toml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level" toml:"level"`
	// File, when set, receives a copy of every log line (relative to the repo root)
	File string `json:"file,omitempty" mapstructure:"file" toml:"file,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:    CurrentVersion,
		Tasks:      []string{},
		Paths:      []string{"."},
		Extensions: []string{".php"},
		Ignore:     []string{"vendor", "node_modules", "storage", "bootstrap/cache"},
		Workers:    1,
		DryRun:     false,
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		FacadeAliases: map[string]string{},
	}
}

// LoadConfig loads configuration from .shift/config.{toml,json,yaml}.
// SHIFT_* environment variables override file values, e.g. SHIFT_WORKERS=4
// or SHIFT_LOGGING_LEVEL=debug.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("tasks", def.Tasks)
	v.SetDefault("paths", def.Paths)
	v.SetDefault("extensions", def.Extensions)
	v.SetDefault("ignore", def.Ignore)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("dryRun", def.DryRun)
	v.SetDefault("history.enabled", def.History.Enabled)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file", def.Logging.File)

	v.SetConfigName("config")
	v.AddConfigPath(paths.ShiftDir(repoRoot))

	v.SetEnvPrefix("SHIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, shifterrors.NewShiftError(shifterrors.ConfigInvalid, "Failed to read config", err,
				shifterrors.GetSuggestedFixes(shifterrors.ConfigInvalid))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, shifterrors.NewShiftError(shifterrors.ConfigInvalid, "Failed to decode config", err, nil)
	}
	if cfg.FacadeAliases == nil {
		cfg.FacadeAliases = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to .shift/config.toml
func (c *Config) Save(repoRoot string) error {
	if _, err := paths.EnsureShiftDir(repoRoot); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(ConfigPath(repoRoot), data, 0644)
}

// ConfigPath returns the path Save writes to.
func ConfigPath(repoRoot string) string {
	return filepath.Join(paths.ShiftDir(repoRoot), "config.toml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if c.Workers < 1 {
		return &ConfigError{Field: "workers", Message: "must be at least 1"}
	}
	if len(c.Extensions) == 0 {
		return &ConfigError{Field: "extensions", Message: "at least one extension is required"}
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return &ConfigError{Field: "extensions", Message: fmt.Sprintf("extension %q must start with a dot", ext)}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
