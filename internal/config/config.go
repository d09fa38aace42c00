// Package config loads caremap configuration from a YAML file with
// environment-variable overrides.
//
// Resolution order: built-in defaults, then the YAML file (if present), then
// CAREMAP_* environment variables. The resulting *Config is constructed once
// in the CLI layer and passed to components explicitly; there is no global
// configuration instance.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default values applied before the config file and environment are read.
const (
	// DefaultTTLHours is the freshness window for cached resource data.
	DefaultTTLHours = 24

	// DefaultTimeoutSeconds is the per-request network timeout.
	DefaultTimeoutSeconds = 12

	// DefaultImageBucketMax bounds the image cache bucket.
	DefaultImageBucketMax = 50

	// DefaultMapBucketMax bounds the map tile/library cache bucket. Maps
	// get a larger bound because tile data is the most valuable content
	// to keep for offline viewing.
	DefaultMapBucketMax = 200
)

// Config is the root configuration for all caremap components.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Web     WebConfig     `yaml:"web"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures access to the static JSON API.
type APIConfig struct {
	// BaseURL is the root of the resource endpoints (programs.json etc.).
	BaseURL string `yaml:"base_url" env:"CAREMAP_API_BASE_URL"`

	// TimeoutSeconds bounds each network request.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"CAREMAP_API_TIMEOUT_SECONDS"`
}

// CacheConfig configures the on-device key/value cache.
type CacheConfig struct {
	// Path is the SQLite database file backing the cache.
	Path string `yaml:"path" env:"CAREMAP_CACHE_PATH"`

	// TTLHours is the freshness window for resource entries. Auxiliary
	// settings keys never expire regardless of this value.
	TTLHours int `yaml:"ttl_hours" env:"CAREMAP_CACHE_TTL_HOURS"`
}

// WebConfig configures the request-interception cache served by
// `caremap serve`.
type WebConfig struct {
	// Listen is the address the interception proxy binds to.
	Listen string `yaml:"listen" env:"CAREMAP_WEB_LISTEN"`

	// Upstream is the origin requests are proxied to.
	Upstream string `yaml:"upstream" env:"CAREMAP_WEB_UPSTREAM"`

	// Version is the build-time bucket version string. Changing it
	// creates a fresh bucket set; activation reclaims the old one.
	Version string `yaml:"version" env:"CAREMAP_WEB_VERSION"`

	// BucketPath is the SQLite database file backing the cache buckets.
	BucketPath string `yaml:"bucket_path" env:"CAREMAP_WEB_BUCKET_PATH"`

	// OfflinePath is the app route served when a navigation fails with
	// no cached copy available.
	OfflinePath string `yaml:"offline_path" env:"CAREMAP_WEB_OFFLINE_PATH"`

	// AllowedOrigins lists the cross-origin hosts (CDN, tile services)
	// the proxy is allowed to cache. All other cross-origin requests
	// pass through untouched.
	AllowedOrigins []string `yaml:"allowed_origins" env:"CAREMAP_WEB_ALLOWED_ORIGINS" envSeparator:","`

	// MapPrecache lists absolute URLs of map libraries/styles to warm
	// into the maps bucket at install time. These are cross-origin, so
	// failures are tolerated and do not block installation.
	MapPrecache []string `yaml:"map_precache" env:"CAREMAP_WEB_MAP_PRECACHE" envSeparator:","`

	// ImageBucketMax and MapBucketMax bound the two evicting buckets.
	ImageBucketMax int `yaml:"image_bucket_max" env:"CAREMAP_WEB_IMAGE_BUCKET_MAX"`
	MapBucketMax   int `yaml:"map_bucket_max" env:"CAREMAP_WEB_MAP_BUCKET_MAX"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"CAREMAP_LOG_LEVEL"`
	Format string `yaml:"format" env:"CAREMAP_LOG_FORMAT"`
	File   string `yaml:"file" env:"CAREMAP_LOG_FILE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := defaultDataDir()
	return &Config{
		API: APIConfig{
			BaseURL:        "https://api.caremap.org/v1",
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Cache: CacheConfig{
			Path:     filepath.Join(dataDir, "cache.db"),
			TTLHours: DefaultTTLHours,
		},
		Web: WebConfig{
			Listen:         "127.0.0.1:8675",
			Upstream:       "https://app.caremap.org",
			Version:        "dev",
			BucketPath:     filepath.Join(dataDir, "buckets.db"),
			OfflinePath:    "/offline",
			AllowedOrigins: []string{"cdn.caremap.org", "tiles.openfreemap.org"},
			ImageBucketMax: DefaultImageBucketMax,
			MapBucketMax:   DefaultMapBucketMax,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or missing), and CAREMAP_* environment variables, in that
// order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing config file is not an error, defaults apply.
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment overrides: %w", err)
	}

	return cfg, nil
}

// TTL returns the resource freshness window as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// Timeout returns the per-request network timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".caremap"
	}
	return filepath.Join(home, ".caremap")
}
