package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIURL is returned by Validate when a production build has no
// backend configured.
var ErrMissingAPIURL = errors.New("config: api url is required in production (set VITE_API_URL)")

// Config holds all labdesk configuration.
type Config struct {
	Env          string         `yaml:"env"`
	API          APIConfig      `yaml:"api"`
	HTTP         HTTPConfig     `yaml:"http"`
	Cache        CacheConfig    `yaml:"cache"`
	Storage      StorageConfig  `yaml:"storage"`
	Calendar     CalendarConfig `yaml:"calendar"`
	Log          LogConfig      `yaml:"log"`
	OpenAIAPIKey string         `yaml:"openai_api_key"`
}

// APIConfig points at the upstream lab REST backend.
type APIConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// CacheConfig configures the resource cache shared by the domain clients.
type CacheConfig struct {
	Backend   string `yaml:"backend"` // memory, redis
	TTL       string `yaml:"ttl"`
	Namespace string `yaml:"namespace"`
	RedisAddr string `yaml:"redis_addr"`
}

// StorageConfig configures the local SQLite state (tokens, wizard sessions, audit).
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
	Secret string `yaml:"secret"`
}

type CalendarConfig struct {
	Timezone   string  `yaml:"timezone"`
	HourHeight float64 `yaml:"hour_height"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Env:      "development",
		API:      APIConfig{Timeout: "30s"},
		HTTP:     HTTPConfig{Addr: ":9000"},
		Cache:    CacheConfig{Backend: "memory", TTL: "30s", Namespace: "labdesk"},
		Storage:  StorageConfig{DBPath: "labdesk.db"},
		Calendar: CalendarConfig{Timezone: "Local", HourHeight: 60},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads path (if non-empty and present), then applies env overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VITE_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("LABDESK_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("LABDESK_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("LABDESK_DB"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("LABDESK_STORAGE_SECRET"); v != "" {
		c.Storage.Secret = v
	}
	if v := os.Getenv("LABDESK_REDIS_ADDR"); v != "" {
		c.Cache.Backend = "redis"
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("VITE_OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
}

// IsProduction reports whether the config targets a production build.
func (c *Config) IsProduction() bool {
	e := strings.ToLower(c.Env)
	return e == "production" || e == "prod"
}

// Validate checks the config. A missing API URL is fatal only in production;
// development falls back to a local backend.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		if c.IsProduction() {
			return ErrMissingAPIURL
		}
		c.API.URL = "http://localhost:5000"
	}
	if _, err := c.APITimeout(); err != nil {
		return fmt.Errorf("config: api.timeout: %w", err)
	}
	if _, err := c.CacheTTL(); err != nil {
		return fmt.Errorf("config: cache.ttl: %w", err)
	}
	switch c.Cache.Backend {
	case "", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("config: cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	if c.IsProduction() && c.Storage.Secret == "" {
		return errors.New("config: storage.secret is required in production")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: calendar.timezone: %w", err)
	}
	return nil
}

func (c *Config) APITimeout() (time.Duration, error) {
	return parseDuration(c.API.Timeout, 30*time.Second)
}

func (c *Config) CacheTTL() (time.Duration, error) {
	return parseDuration(c.Cache.TTL, 30*time.Second)
}

// Location resolves the calendar timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Calendar.Timezone == "" || c.Calendar.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Calendar.Timezone)
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
