package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type Config struct {
	FeedURL         string `yaml:"feed_url" env:"SPOTLIGHTD_FEED_URL"`
	CacheDir        string `yaml:"cache_dir" env:"SPOTLIGHTD_CACHE_DIR"`
	Quality         int    `yaml:"quality" env:"SPOTLIGHTD_QUALITY"`
	RefreshInterval string `yaml:"refresh_interval" env:"SPOTLIGHTD_REFRESH_INTERVAL"`
	ListenAddr      string `yaml:"listen_addr" env:"SPOTLIGHTD_LISTEN_ADDR"`
}

func (c *Config) RefreshDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// DataDir is where the persisted cache JSON lives.
func (c *Config) DataDir() string {
	return filepath.Join(c.CacheDir, "data")
}

// ImagesDir is where downloaded and transcoded images live.
func (c *Config) ImagesDir() string {
	return filepath.Join(c.CacheDir, "images")
}

// CacheFile is the path of the persisted JSON snapshot.
func (c *Config) CacheFile() string {
	return filepath.Join(c.DataDir(), "spotlight.json")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "spotlightd", "config.yaml")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config file at path (or the default path when empty),
// overlays SPOTLIGHTD_* environment variables, and validates the result.
// A missing config file is not an error: defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults plus environment only.
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.FeedURL == "" {
		return fmt.Errorf("feed_url is required")
	}
	u, err := url.Parse(cfg.FeedURL)
	if err != nil {
		return fmt.Errorf("invalid feed_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed_url scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "cache"
	}
	if cfg.Quality < 0 || cfg.Quality > 100 {
		return fmt.Errorf("quality must be between 0 and 100, got %d", cfg.Quality)
	}
	if cfg.Quality == 0 {
		cfg.Quality = 75
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	return nil
}
