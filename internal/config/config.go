// Package config handles journal configuration using Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/felixgeelhaar/journal/internal/errors"
)

// EnvPrefix is the prefix of environment overrides, e.g. JOURNAL_API_URL
const EnvPrefix = "JOURNAL"

// Config holds the application configuration.
type Config struct {
	API    APIConfig    `mapstructure:"api" yaml:"api" json:"api"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store" json:"store"`
	Log    LogConfig    `mapstructure:"log" yaml:"log" json:"log"`
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// APIConfig locates the journal server.
type APIConfig struct {
	URL      string        `mapstructure:"url" yaml:"url" json:"url"`
	BasePath string        `mapstructure:"base_path" yaml:"base_path" json:"base_path"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// StoreConfig selects where the session is kept.
type StoreConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend" json:"backend"`
	Path    string      `mapstructure:"path" yaml:"path" json:"path"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis" json:"redis"`
}

// RedisConfig configures the redis session backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty" json:"-"`
	DB       int    `mapstructure:"db" yaml:"db" json:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// OutputConfig holds display settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Dir returns the journal configuration directory (~/.journal).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".journal"
	}
	return filepath.Join(home, ".journal")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads configuration from file and environment.
// A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath == "" || !os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to read config file", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to decode config", err)
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)

	return &cfg, nil
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://localhost:8080")
	v.SetDefault("api.base_path", "/api")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", filepath.Join(Dir(), "session.json"))
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "journal:")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("output.format", "text")
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	v := viper.New()
	setDefaults(v)
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Validate checks the configuration for values the client cannot use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.url %q must be an absolute http(s) URL", c.API.URL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.url scheme %q is not http or https", u.Scheme))
	}
	if c.API.Timeout <= 0 {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.timeout must be positive, got %s", c.API.Timeout))
	}

	switch c.Store.Backend {
	case "file":
		if c.Store.Path == "" {
			return errors.NewConfigInvalidError("store.path is required for the file backend")
		}
	case "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.NewConfigInvalidError("store.redis.addr is required for the redis backend")
		}
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("store.backend %q is not one of file, memory, redis", c.Store.Backend))
	}

	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("output.format %q is not one of text, json, yaml", c.Output.Format))
	}
	return nil
}

// Set writes a single key into the config file at path, keeping the other
// values it already holds.
func Set(path, key, value string) error {
	known := false
	for _, k := range Keys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return errors.NewConfigInvalidError(fmt.Sprintf("unknown key %q", key)).
			WithSuggestion("Valid keys: " + strings.Join(Keys(), ", "))
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(errors.ErrCodeConfigLoad, "failed to read config file", err)
		}
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeConfigLoad, "failed to create config directory", err)
	}
	return v.WriteConfigAs(path)
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
