package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL  string
	Headless bool

	UserAgent    string
	WindowWidth  int
	WindowHeight int

	// PageLoadTimeout bounds the initial navigation to BaseURL.
	PageLoadTimeout time.Duration
	// WaitTimeout bounds every "wait until visible/clickable/present" step.
	WaitTimeout time.Duration
	// PaceMin and PaceMax bound the random pause after each form field.
	PaceMin time.Duration
	PaceMax time.Duration
	// ResultsDelayMin and ResultsDelayMax bound the wait after submitting the search.
	ResultsDelayMin time.Duration
	ResultsDelayMax time.Duration

	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration

	DedupeMaxSize int

	OutputDir    string
	OutputFormat string // csv, json, or dual
	TextExport   bool
	SnapshotDir  string

	Verbose     bool
	MetricsAddr string
}

// DefaultConfig returns the defaults used against the live booking site.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://www.aa.com/homePage.do",
		Headless:        true,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36",
		WindowWidth:     1920,
		WindowHeight:    1080,
		PageLoadTimeout: 30 * time.Second,
		WaitTimeout:     5 * time.Second,
		PaceMin:         1 * time.Second,
		PaceMax:         3 * time.Second,
		ResultsDelayMin: 30 * time.Second,
		ResultsDelayMax: 50 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    500 * time.Millisecond,
		RetryBackoffMax: 5 * time.Second,
		DedupeMaxSize:   0,
		OutputDir:       "output",
		OutputFormat:    "csv",
		TextExport:      false,
		SnapshotDir:     "",
		Verbose:         false,
		MetricsAddr:     "",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive")
	}
	if c.PageLoadTimeout <= 0 {
		return fmt.Errorf("page load timeout must be positive")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive")
	}
	if c.PaceMin < 0 || c.PaceMax < 0 {
		return fmt.Errorf("pace cannot be negative")
	}
	if c.PaceMin > c.PaceMax {
		return fmt.Errorf("pace min (%s) cannot exceed pace max (%s)", c.PaceMin, c.PaceMax)
	}
	if c.ResultsDelayMin < 0 || c.ResultsDelayMax < 0 {
		return fmt.Errorf("results delay cannot be negative")
	}
	if c.ResultsDelayMin > c.ResultsDelayMax {
		return fmt.Errorf("results delay min (%s) cannot exceed results delay max (%s)", c.ResultsDelayMin, c.ResultsDelayMax)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe max size cannot be negative")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}

	return nil
}
