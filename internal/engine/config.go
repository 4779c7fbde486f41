package engine

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	APIKey     string // ScrapingBee API key; operations fail closed without it
	BaseURL    string // API base, overridable for tests
	ResultsDir string // default base folder for persisted artifacts

	ScrapeTimeout time.Duration
	SearchTimeout time.Duration
	UsageTimeout  time.Duration

	RequestsPerSecond   float64 // outbound rate limit; <=0 disables
	DownloadConcurrency int     // worker cap for the linked-image downloader

	HTTPClient *http.Client

	// Now supplies timestamps for folder names, metadata records and
	// manifest headers. Injected so artifact naming is deterministic in tests.
	Now func() time.Time
}

var cfg Config

var limiter *rate.Limiter

// Init initializes the engine with the given configuration.
// Zero-valued fields fall back to working defaults so tests can
// Init(Config{...}) with only what they care about.
func Init(c Config) {
	if c.BaseURL == "" {
		c.BaseURL = "https://app.scrapingbee.com"
	}
	if c.ResultsDir == "" {
		c.ResultsDir = "scraping_results"
	}
	if c.ScrapeTimeout <= 0 {
		c.ScrapeTimeout = 180 * time.Second
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 120 * time.Second
	}
	if c.UsageTimeout <= 0 {
		c.UsageTimeout = 30 * time.Second
	}
	if c.DownloadConcurrency <= 0 {
		c.DownloadConcurrency = 4
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	cfg = c

	if c.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.RequestsPerSecond), 1)
	} else {
		limiter = nil
	}
}
