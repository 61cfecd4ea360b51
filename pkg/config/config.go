package config

import "time"

// RateLimitConfig holds the pacing and retry settings used by the polite
// request gate. All delays are wall-clock durations.
type RateLimitConfig struct {
	MinDelay         time.Duration `yaml:"min_delay,omitempty"`          // Lower jitter bound for untyped requests
	MaxDelay         time.Duration `yaml:"max_delay,omitempty"`          // Upper jitter bound for untyped requests
	PageDelay        time.Duration `yaml:"page_delay,omitempty"`         // Fixed delay between result pages
	StationDelay     time.Duration `yaml:"station_delay,omitempty"`      // Fixed delay when switching stations (largest)
	MaxRetries       int           `yaml:"max_retries,omitempty"`        // Retries after the initial attempt
	RetryBaseDelay   time.Duration `yaml:"retry_base_delay,omitempty"`   // Base for exponential backoff
	ConcurrencyLimit int           `yaml:"concurrency_limit,omitempty"`  // In-flight request bound (1 = fully serialized)
}

// CrawlConfig holds settings for the crawl session itself.
type CrawlConfig struct {
	MaxPagesPerStation int    `yaml:"max_pages_per_station,omitempty"` // Safety cap per station
	Prefecture         string `yaml:"prefecture,omitempty"`            // tokyo, kanagawa, saitama, chiba
	DefaultQuota       int    `yaml:"default_quota,omitempty"`         // Room count target when the flag is omitted
	OutputDir          string `yaml:"output_dir,omitempty"`            // Directory for exported JSON/CSV files
	RespectRobots      *bool  `yaml:"respect_robots,omitempty"`        // Consult robots.txt before each station (default true)
}

// BrowserConfig holds settings for the headless browser fetcher.
type BrowserConfig struct {
	Headless          *bool         `yaml:"headless,omitempty"`           // nil = headless (default)
	NavigationTimeout time.Duration `yaml:"navigation_timeout,omitempty"` // Per-navigation deadline
	SettleMinDelay    time.Duration `yaml:"settle_min_delay,omitempty"`   // Post-load settle wait, lower bound
	SettleMaxDelay    time.Duration `yaml:"settle_max_delay,omitempty"`   // Post-load settle wait, upper bound
	UserAgents        []string      `yaml:"user_agents,omitempty"`        // Optional override of the built-in identity pool
}

// HTTPClientConfig holds settings for the plain HTTP client used for
// robots.txt lookups (the listing pages themselves go through the browser).
type HTTPClientConfig struct {
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	DialerTimeout   time.Duration `yaml:"dialer_timeout,omitempty"`
	DialerKeepAlive time.Duration `yaml:"dialer_keep_alive,omitempty"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout,omitempty"`
}

// AppConfig holds the global application configuration.
type AppConfig struct {
	RateLimit          RateLimitConfig  `yaml:"rate_limit,omitempty"`
	Crawl              CrawlConfig      `yaml:"crawl,omitempty"`
	Browser            BrowserConfig    `yaml:"browser,omitempty"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	MetricsAddr        string           `yaml:"metrics_addr,omitempty"` // Prometheus /metrics listen address ("" = disabled)
}

// PoliteRateLimits returns the stricter pacing preset used when the operator
// asks for extra server consideration: longer waits everywhere and a wider
// retry backoff.
func PoliteRateLimits() RateLimitConfig {
	return RateLimitConfig{
		MinDelay:         5 * time.Second,
		MaxDelay:         12 * time.Second,
		PageDelay:        8 * time.Second,
		StationDelay:     15 * time.Second,
		MaxRetries:       3,
		RetryBaseDelay:   10 * time.Second,
		ConcurrencyLimit: 1,
	}
}

// GetEffectiveRespectRobots determines whether robots.txt should be consulted.
func GetEffectiveRespectRobots(cfg *AppConfig) bool {
	if cfg.Crawl.RespectRobots != nil {
		return *cfg.Crawl.RespectRobots
	}
	return true
}

// GetEffectiveHeadless determines whether the browser runs headless.
func GetEffectiveHeadless(cfg *AppConfig) bool {
	if cfg.Browser.Headless != nil {
		return *cfg.Browser.Headless
	}
	return true
}
