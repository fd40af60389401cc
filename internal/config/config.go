// Package config loads the site configuration from a YAML file. A missing
// file yields defaults, so the binary runs with zero setup in development.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

type ServerConfig struct {
	Addr   string `yaml:"addr"`    // HTTP listen address, e.g. ":8080"
	WebDir string `yaml:"web_dir"` // directory with the static frontend
}

type WebhookConfig struct {
	URL            string `yaml:"url"` // workflow webhook; empty disables relay
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RateLimitConfig mirrors the two limiter tiers of the site: a broad limit
// on everything and a tight one on contact submissions.
type RateLimitConfig struct {
	GlobalRequests       int `yaml:"global_requests"`
	GlobalWindowMinutes  int `yaml:"global_window_minutes"`
	ContactRequests      int `yaml:"contact_requests"`
	ContactWindowMinutes int `yaml:"contact_window_minutes"`
}

type AnalyticsConfig struct {
	DBPath          string `yaml:"db_path"`
	SnapshotSeconds int    `yaml:"snapshot_seconds"` // live dashboard tick
}

// Load reads configuration from a YAML file. If the file doesn't exist, it
// returns the default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.TimeoutSeconds) * time.Second
}

func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Analytics.SnapshotSeconds) * time.Second
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.WebDir == "" {
		cfg.Server.WebDir = "web"
	}
	if cfg.Webhook.TimeoutSeconds <= 0 {
		cfg.Webhook.TimeoutSeconds = 15
	}
	if cfg.RateLimit.GlobalRequests <= 0 {
		cfg.RateLimit.GlobalRequests = 100
	}
	if cfg.RateLimit.GlobalWindowMinutes <= 0 {
		cfg.RateLimit.GlobalWindowMinutes = 15
	}
	if cfg.RateLimit.ContactRequests <= 0 {
		cfg.RateLimit.ContactRequests = 5
	}
	if cfg.RateLimit.ContactWindowMinutes <= 0 {
		cfg.RateLimit.ContactWindowMinutes = 60
	}
	if cfg.Analytics.DBPath == "" {
		cfg.Analytics.DBPath = "data/analytics.db"
	}
	if cfg.Analytics.SnapshotSeconds <= 0 {
		cfg.Analytics.SnapshotSeconds = 5
	}
}
