package wiimmfi

import "time"

// Config configures the snapshot service.
type Config struct {
	// TargetURL is the stats page to render. Default: the MKW live stats page.
	TargetURL string
	// TableMarker must appear in the rendered document; its absence means the
	// page did not render the stats table and the fallback is used instead.
	TableMarker string
	// NavTimeout bounds one navigation/render cycle. Default: 2 minutes.
	NavTimeout time.Duration
	// FallbackName is the document name passed to the fallback loader.
	FallbackName string
}

func (c *Config) defaults() {
	if c.TargetURL == "" {
		c.TargetURL = "https://wiimmfi.de/stats/mkw"
	}
	if c.TableMarker == "" {
		c.TableMarker = "table11"
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 2 * time.Minute
	}
	if c.FallbackName == "" {
		c.FallbackName = "wiimmfi.html"
	}
}
