package browser

import (
	"context"
	"testing"
)

func TestConfig_Defaults(t *testing.T) {
	// WHAT: Zero config gets a desktop user agent and resource blocking.
	var cfg Config
	cfg.defaults()

	if cfg.UserAgent == "" {
		t.Error("user agent default missing")
	}
	if len(cfg.ResourceBlocking) == 0 {
		t.Error("resource blocking default missing")
	}
	if cfg.Logger == nil {
		t.Error("logger default missing")
	}
}

func TestSession_ClosedRejectsFetch(t *testing.T) {
	// WHAT: A closed session fails fast instead of relaunching Chrome.
	s := NewSession(Config{})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.FetchDocument(context.Background(), "https://example.com"); err == nil {
		t.Error("expected error from closed session")
	}
}

func TestBlockName(t *testing.T) {
	// WHAT: CDP resource types map onto the plural config names.
	tests := []struct {
		resType string
		want    string
	}{
		{"Image", "images"},
		{"Font", "fonts"},
		{"Stylesheet", "stylesheets"},
		{"Media", "media"},
		{"Document", "document"},
	}
	for _, tt := range tests {
		if got := blockName(tt.resType); got != tt.want {
			t.Errorf("blockName(%q) = %q, want %q", tt.resType, got, tt.want)
		}
	}
}
