package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremap/caremap/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "https://api.caremap.org/v1", cfg.API.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.TTL())
	assert.Equal(t, 12*time.Second, cfg.Timeout())
	assert.Equal(t, 50, cfg.Web.ImageBucketMax)
	assert.Equal(t, 200, cfg.Web.MapBucketMax)
	assert.Equal(t, "/offline", cfg.Web.OfflinePath)
	assert.NotEmpty(t, cfg.Web.AllowedOrigins)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().API.BaseURL, cfg.API.BaseURL)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://staging.caremap.org/v1
cache:
  ttl_hours: 6
web:
  version: "20260831"
  allowed_origins:
    - cdn.example.org
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.caremap.org/v1", cfg.API.BaseURL)
	assert.Equal(t, 6*time.Hour, cfg.TTL())
	assert.Equal(t, "20260831", cfg.Web.Version)
	assert.Equal(t, []string{"cdn.example.org"}, cfg.Web.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, config.DefaultImageBucketMax, cfg.Web.ImageBucketMax)
}

func TestLoad_EnvironmentOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://file.example.org\n"), 0o600))

	t.Setenv("CAREMAP_API_BASE_URL", "https://env.example.org")
	t.Setenv("CAREMAP_CACHE_TTL_HOURS", "48")
	t.Setenv("CAREMAP_WEB_ALLOWED_ORIGINS", "a.example.org,b.example.org")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.org", cfg.API.BaseURL)
	assert.Equal(t, 48*time.Hour, cfg.TTL())
	assert.Equal(t, []string{"a.example.org", "b.example.org"}, cfg.Web.AllowedOrigins)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}
