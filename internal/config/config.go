// Package config loads the CLI configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level CLI configuration.
type Config struct {
	// BaseURL is the remote calendar API root.
	BaseURL string `yaml:"base_url"`

	// AcceptLanguage is sent on every request.
	AcceptLanguage string `yaml:"accept_language"`

	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// CacheDir holds cached responses for cacheable endpoints. Empty
	// means in-memory caching only.
	CacheDir string `yaml:"cache_dir"`

	// CredentialsDir overrides where the token record is persisted.
	// Empty uses ~/.calcli/
	CredentialsDir string `yaml:"credentials_dir"`
}

// Default returns the in-memory default configuration.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost/api/v1.0",
		AcceptLanguage: "en",
		TimeoutSeconds: 30,
	}
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultPath returns ~/.calcli/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".calcli", "config.yaml"), nil
}

// Load reads the configuration from path. A missing file yields the
// defaults; a present file is merged over them.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.normalize()

	return cfg, nil
}

// normalize fills zero values so a partial file still behaves.
func (c *Config) normalize() {
	def := Default()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = def.AcceptLanguage
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
}
