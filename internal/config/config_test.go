package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"base_url: https://api.example.com/v1.0\ntimeout_seconds: 10\n"), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/v1.0", cfg.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Timeout())
		// Untouched fields keep their defaults.
		assert.Equal(t, "en", cfg.AcceptLanguage)
	})

	t.Run("partial file is normalized", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache_dir: /tmp/cache\n"), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/cache", cfg.CacheDir)
		assert.Equal(t, Default().BaseURL, cfg.BaseURL)
		assert.Equal(t, Default().TimeoutSeconds, cfg.TimeoutSeconds)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("base_url: [broken"), 0600))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Contains(t, path, ".calcli")
	assert.Equal(t, "config.yaml", filepath.Base(path))
}
