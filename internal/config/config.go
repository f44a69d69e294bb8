// Package config provides configuration management for the stock search client.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "stocksearch/internal/errors"
	"stocksearch/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`

	// Dir is the directory the config was loaded from.
	Dir string `mapstructure:"-"`
}

// APIConfig holds the backend API settings.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds session persistence settings.
type SessionConfig struct {
	DBPath    string `mapstructure:"db_path"`
	Audit     bool   `mapstructure:"audit"`
	AuditPath string `mapstructure:"audit_path"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled   bool `mapstructure:"color_enabled"`
	MaxSuggestions int  `mapstructure:"max_suggestions"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stocksearch"
	}
	return filepath.Join(home, ".config", "stocksearch")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{Dir: configDir}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.fillPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{Dir: DefaultConfigDir()}
	_ = v.Unmarshal(cfg)
	cfg.fillPaths()
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("session.db_path", "")
	v.SetDefault("session.audit", true)
	v.SetDefault("session.audit_path", "")
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.max_suggestions", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 14)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKSEARCH_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("STOCKSEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}
	if v := os.Getenv("STOCKSEARCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STOCKSEARCH_SESSION_DB"); v != "" {
		cfg.Session.DBPath = v
	}
}

func (c *Config) fillPaths() {
	if c.Session.DBPath == "" {
		c.Session.DBPath = filepath.Join(c.Dir, "session.db")
	}
	if c.Session.AuditPath == "" {
		c.Session.AuditPath = filepath.Join(c.Dir, "audit", "audit.log")
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Dir, "logs", "stocksearch.log")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api.base_url must be an absolute http(s) URL, got %q", apperrors.ErrConfigInvalid, c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", apperrors.ErrConfigInvalid)
	}
	if c.UI.MaxSuggestions < 0 {
		return fmt.Errorf("%w: ui.max_suggestions must be non-negative", apperrors.ErrConfigInvalid)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: invalid logging.level: %s (must be debug, info, warn or error)", apperrors.ErrConfigInvalid, c.Logging.Level)
	}
	return nil
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
