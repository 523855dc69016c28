package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	// WHAT: Running without a config file still yields a usable setup.
	cfg := Default()

	if cfg.Listen != ":3000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Scrape.URL != "https://wiimmfi.de/stats/mkw" {
		t.Errorf("Scrape.URL = %q", cfg.Scrape.URL)
	}
	if cfg.Scrape.NavTimeout != 2*time.Minute {
		t.Errorf("Scrape.NavTimeout = %v", cfg.Scrape.NavTimeout)
	}
	if cfg.Scrape.FallbackName != "wiimmfi.html" {
		t.Errorf("Scrape.FallbackName = %q", cfg.Scrape.FallbackName)
	}
	if cfg.History.Limit != 50 {
		t.Errorf("History.Limit = %d", cfg.History.Limit)
	}
	if cfg.MCP.Enabled {
		t.Error("MCP should be disabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	// WHAT: Explicit values win; omitted values fall back to defaults.
	path := writeFile(t, `
listen: ":8080"
scrape:
  url: "https://example.com/stats"
  nav_timeout: 30s
browser:
  remote: "ws://chrome:9222"
  resource_blocking: [images]
rate_limit:
  max_per_minute: 120
mcp:
  enabled: true
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Scrape.URL != "https://example.com/stats" {
		t.Errorf("Scrape.URL = %q", cfg.Scrape.URL)
	}
	if cfg.Scrape.NavTimeout != 30*time.Second {
		t.Errorf("Scrape.NavTimeout = %v", cfg.Scrape.NavTimeout)
	}
	if cfg.Scrape.TableMarker != "table11" {
		t.Errorf("Scrape.TableMarker default missing: %q", cfg.Scrape.TableMarker)
	}
	if cfg.Browser.Remote != "ws://chrome:9222" {
		t.Errorf("Browser.Remote = %q", cfg.Browser.Remote)
	}
	if len(cfg.Browser.ResourceBlocking) != 1 || cfg.Browser.ResourceBlocking[0] != "images" {
		t.Errorf("Browser.ResourceBlocking = %v", cfg.Browser.ResourceBlocking)
	}
	if cfg.RateLimit.MaxPerMinute != 120 {
		t.Errorf("RateLimit.MaxPerMinute = %d", cfg.RateLimit.MaxPerMinute)
	}
	if !cfg.MCP.Enabled {
		t.Error("MCP.Enabled = false, want true")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := writeFile(t, "listen: [not, a, string")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
