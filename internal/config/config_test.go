package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every override so the host environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIURL, EnvTokenStore, EnvTokenPath, EnvLogLevel} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "recipebox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://recipes.example.com/api
  timeout: 5s
  rate_limit: 2.5
browse:
  page_size: 12
storage:
  backend: file
  path: /tmp/token.json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://recipes.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, 2.5, cfg.API.RateLimit)
	assert.Equal(t, 12, cfg.Browse.PageSize)
	assert.Equal(t, 3, cfg.Browse.RecipesLimit, "unset keys keep their defaults")
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "normal", cfg.Log.Level)
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "recipebox.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIURL, "http://api.test/api")
	t.Setenv(EnvTokenStore, "memory")
	t.Setenv(EnvLogLevel, "verbose")

	cfg := Default()
	cfg.applyEnvOverrides()

	assert.Equal(t, "http://api.test/api", cfg.API.BaseURL)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "verbose", cfg.Log.Level)
	assert.Equal(t, Default().Storage.Path, cfg.Storage.Path)
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte(EnvTokenStore+"=file\n"+EnvLogLevel+"=off\n"), 0o644))
	t.Setenv(EnvLogLevel, "verbose")
	// t.Setenv restores afterwards; godotenv sets the unset key for real.
	t.Cleanup(func() { os.Unsetenv(EnvTokenStore) })
	require.NoError(t, os.Unsetenv(EnvTokenStore))

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "verbose", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://x" }, true},
		{"no host", func(c *Config) { c.API.BaseURL = "http://" }, true},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, true},
		{"file without path", func(c *Config) { c.Storage.Backend = "file"; c.Storage.Path = "" }, true},
		{"memory without path", func(c *Config) { c.Storage.Backend = "memory"; c.Storage.Path = "" }, false},
		{"negative rate", func(c *Config) { c.API.RateLimit = -1 }, true},
		{"zero page size", func(c *Config) { c.Browse.PageSize = 0 }, true},
		{"negative recipes limit", func(c *Config) { c.Browse.RecipesLimit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "recipebox.yaml")

	cfg := Default()
	cfg.API.BaseURL = "https://saved.example.com/api"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
