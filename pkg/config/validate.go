package config

import (
	"fmt"
	"time"

	"chintai-crawler/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	w, err := c.RateLimit.validate()
	warnings = append(warnings, w...)
	if err != nil {
		return warnings, err
	}

	// MaxPagesPerStation
	if c.Crawl.MaxPagesPerStation <= 0 {
		c.Crawl.MaxPagesPerStation = 10
	}

	// Prefecture
	switch c.Crawl.Prefecture {
	case "":
		c.Crawl.Prefecture = "tokyo"
	case "tokyo", "kanagawa", "saitama", "chiba":
		// supported
	default:
		return warnings, fmt.Errorf("%w: unsupported prefecture %q (expected tokyo, kanagawa, saitama or chiba)",
			utils.ErrConfigValidation, c.Crawl.Prefecture)
	}

	// DefaultQuota
	if c.Crawl.DefaultQuota < 0 {
		warnings = append(warnings, "default_quota cannot be negative, setting to 100")
		c.Crawl.DefaultQuota = 100
	}
	if c.Crawl.DefaultQuota == 0 {
		c.Crawl.DefaultQuota = 100
	}

	// OutputDir
	if c.Crawl.OutputDir == "" {
		warnings = append(warnings, "output_dir is empty, defaulting to './data'")
		c.Crawl.OutputDir = "./data"
	}

	c.validateBrowserSettings(&warnings)
	c.validateHTTPClientSettings()

	return warnings, nil
}

// validate checks the rate limit section. Delay bounds are the one place a
// bad config is fatal rather than silently corrected, since a crossed
// [min,max] window changes the politeness behavior the operator asked for.
func (c *RateLimitConfig) validate() (warnings []string, err error) {
	if c.MinDelay < 0 || c.MaxDelay < 0 || c.PageDelay < 0 || c.StationDelay < 0 || c.RetryBaseDelay < 0 {
		return nil, fmt.Errorf("%w: rate limit delays cannot be negative", utils.ErrConfigValidation)
	}

	if c.MinDelay == 0 && c.MaxDelay == 0 {
		c.MinDelay = 3 * time.Second
		c.MaxDelay = 8 * time.Second
	}
	if c.MinDelay > c.MaxDelay {
		return nil, fmt.Errorf("%w: min_delay (%v) > max_delay (%v)", utils.ErrConfigValidation, c.MinDelay, c.MaxDelay)
	}

	if c.PageDelay == 0 {
		c.PageDelay = 5 * time.Second
	}
	if c.StationDelay == 0 {
		c.StationDelay = 10 * time.Second
	}
	if c.StationDelay < c.PageDelay {
		warnings = append(warnings, fmt.Sprintf(
			"station_delay (%v) < page_delay (%v); station transitions are the most bot-like action and should wait longest",
			c.StationDelay, c.PageDelay))
	}

	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 && c.RetryBaseDelay == 0 {
		c.MaxRetries = 3
	}
	if c.MaxRetries > 0 && c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = 5 * time.Second
	}

	if c.ConcurrencyLimit <= 0 {
		c.ConcurrencyLimit = 1
	}

	return warnings, nil
}

// validateBrowserSettings applies defaults to the browser section.
func (c *AppConfig) validateBrowserSettings(warnings *[]string) {
	b := &c.Browser
	if b.NavigationTimeout <= 0 {
		b.NavigationTimeout = 60 * time.Second
	}
	if b.SettleMinDelay <= 0 {
		b.SettleMinDelay = 2 * time.Second
	}
	if b.SettleMaxDelay <= 0 {
		b.SettleMaxDelay = 4 * time.Second
	}
	if b.SettleMinDelay > b.SettleMaxDelay {
		*warnings = append(*warnings, fmt.Sprintf(
			"settle_min_delay (%v) > settle_max_delay (%v), using settle_min_delay for both",
			b.SettleMinDelay, b.SettleMaxDelay))
		b.SettleMaxDelay = b.SettleMinDelay
	}
}

// validateHTTPClientSettings applies defaults to the robots.txt client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
}
