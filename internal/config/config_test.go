package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"VITE_API_URL", "LABDESK_API_URL", "LABDESK_ENV", "LABDESK_DB",
		"LABDESK_STORAGE_SECRET", "LABDESK_REDIS_ADDR", "VITE_OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "labdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
api:
  url: https://lab.example.com
  timeout: 5s
cache:
  ttl: 1m
calendar:
  timezone: Europe/Berlin
`), 0o600))
	t.Setenv("LABDESK_DB", "/tmp/other.db")
	t.Setenv("LABDESK_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://lab.example.com", cfg.API.URL)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.DBPath)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	// untouched keys keep their defaults
	assert.Equal(t, ":9000", cfg.HTTP.Addr)

	timeout, err := cfg.APITimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)
	ttl, err := cfg.CacheTTL()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
}

func TestLoad_EnvPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_API_URL", "http://vite")
	t.Setenv("LABDESK_API_URL", "http://labdesk")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://labdesk", cfg.API.URL)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		errText string
	}{
		{name: "development defaults"},
		{
			name:    "production without api url",
			mutate:  func(c *Config) { c.Env = "production"; c.Storage.Secret = "s" },
			wantErr: ErrMissingAPIURL,
		},
		{
			name:    "production without secret",
			mutate:  func(c *Config) { c.Env = "prod"; c.API.URL = "https://x" },
			errText: "storage.secret",
		},
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.API.Timeout = "soon" },
			errText: "api.timeout",
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.Cache.Backend = "redis" },
			errText: "redis_addr",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Cache.Backend = "memcached" },
			errText: "memcached",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Calendar.Timezone = "Mars/Olympus" },
			errText: "calendar.timezone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestValidate_DevelopmentFallsBackToLocalBackend(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:5000", cfg.API.URL)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.API.URL = "https://lab.example.com"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
