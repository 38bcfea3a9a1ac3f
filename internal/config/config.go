// Package config loads recipebox settings from a YAML file, a .env file
// and the environment, in that order of increasing precedence. Command-line
// flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "recipebox.yaml"

// Environment variables that override the file.
const (
	EnvAPIURL     = "RECIPEBOX_API_URL"
	EnvTokenStore = "RECIPEBOX_TOKEN_STORE"
	EnvTokenPath  = "RECIPEBOX_TOKEN_PATH"
	EnvLogLevel   = "RECIPEBOX_LOG_LEVEL"
)

// Config holds all recipebox configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Browse  BrowseConfig  `yaml:"browse"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig configures the service client.
type APIConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Timeout   string  `yaml:"timeout"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int     `yaml:"burst"`
}

// BrowseConfig sizes list requests.
type BrowseConfig struct {
	PageSize     int `yaml:"page_size"`     // recipes and authors per page
	RecipesLimit int `yaml:"recipes_limit"` // recipe previews per followed author
}

// StorageConfig selects where the auth token lives.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory, file, sqlite
	Path    string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // off, normal, verbose
	File  string `yaml:"file"`  // "stderr" logs to the console
}

// ValidBackends lists the token storage backends.
var ValidBackends = []string{"memory", "file", "sqlite"}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api",
			Timeout: "30s",
			Burst:   1,
		},
		Browse: BrowseConfig{
			PageSize:     6,
			RecipesLimit: 3,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    filepath.Join(".recipebox", "state.db"),
		},
		Log: LogConfig{
			Level: "normal",
			File:  filepath.Join(".recipebox", "recipebox.log"),
		},
	}
}

// Load reads path over the defaults, then applies .env and environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// loadDotEnv pulls .env into the process environment without replacing
// variables that are already set.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading .env: %w", err)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvTokenStore); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(EnvTokenPath); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// HTTPTimeout returns the API timeout, falling back to 30s when the value
// does not parse.
func (c *Config) HTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.API.BaseURL)
	}

	valid := false
	for _, b := range ValidBackends {
		if c.Storage.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid token store %q (valid: %v)", c.Storage.Backend, ValidBackends)
	}
	if c.Storage.Backend != "memory" && c.Storage.Path == "" {
		return fmt.Errorf("token store %q needs a path", c.Storage.Backend)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.Browse.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1")
	}
	if c.Browse.RecipesLimit < 0 {
		return fmt.Errorf("recipes limit must not be negative")
	}
	return nil
}
