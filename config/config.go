// Package config loads the service configuration from a YAML file and
// applies defaults, so a missing or partial file still yields a runnable
// setup.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Browser   BrowserConfig   `yaml:"browser"`
	History   HistoryConfig   `yaml:"history"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// ScrapeConfig controls the stats page fetch.
type ScrapeConfig struct {
	URL          string        `yaml:"url"`
	TableMarker  string        `yaml:"table_marker"`
	NavTimeout   time.Duration `yaml:"nav_timeout"`
	FallbackDir  string        `yaml:"fallback_dir"`
	FallbackName string        `yaml:"fallback_name"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	UserAgent        string   `yaml:"user_agent"`
	ResourceBlocking []string `yaml:"resource_blocking"`
}

// HistoryConfig controls fetch-cycle history persistence.
type HistoryConfig struct {
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"`
}

// RateLimitConfig controls per-IP request limiting. Zero disables it.
type RateLimitConfig struct {
	MaxPerMinute int `yaml:"max_per_minute"`
}

// MCPConfig controls the MCP stdio server.
type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file and applies defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":3000"
	}
	if c.Scrape.URL == "" {
		c.Scrape.URL = "https://wiimmfi.de/stats/mkw"
	}
	if c.Scrape.TableMarker == "" {
		c.Scrape.TableMarker = "table11"
	}
	if c.Scrape.NavTimeout <= 0 {
		c.Scrape.NavTimeout = 2 * time.Minute
	}
	if c.Scrape.FallbackDir == "" {
		c.Scrape.FallbackDir = "."
	}
	if c.Scrape.FallbackName == "" {
		c.Scrape.FallbackName = "wiimmfi.html"
	}
	if c.History.Path == "" {
		c.History.Path = "data/history.db"
	}
	if c.History.Limit <= 0 {
		c.History.Limit = 50
	}
	if c.RateLimit.MaxPerMinute < 0 {
		c.RateLimit.MaxPerMinute = 0
	}
}
