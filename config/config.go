package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Output formats accepted by the exporter.
const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatDual   = "dual"
	FormatSQLite = "sqlite"
)

// Config holds scraper configuration. It is not modified once a run starts.
type Config struct {
	PageURLTemplate  string
	PageCount        int
	ExchangeRate     float64
	CurrencySymbol   string
	Delay            time.Duration
	Timeout          time.Duration
	UserAgent        string
	RespectRobotsTxt bool
	Parallelism      int
	MaxRetries       int
	RetryBackoff     time.Duration
	RetryBackoffMax  time.Duration
	StopOnNotFound   bool
	OutputFile       string
	OutputFormat     string // csv, json, dual or sqlite
	DedupeMaxSize    int
	MetricsAddr      string
	LogFile          string
	Verbose          bool
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		PageURLTemplate:  "https://books.toscrape.com/catalogue/page-%d.html",
		PageCount:        10,
		ExchangeRate:     100,
		CurrencySymbol:   "₹",
		Delay:            time.Second,
		Timeout:          10 * time.Second,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobotsTxt: false,
		Parallelism:      1,
		MaxRetries:       0,
		RetryBackoff:     200 * time.Millisecond,
		RetryBackoffMax:  2 * time.Second,
		StopOnNotFound:   false,
		OutputFile:       "books_converted.csv",
		OutputFormat:     FormatCSV,
		DedupeMaxSize:    0,
	}
}

// PageURL renders the URL of the given catalogue page.
func (c *Config) PageURL(page int) string {
	return fmt.Sprintf(c.PageURLTemplate, page)
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.PageURLTemplate == "" {
		return fmt.Errorf("page URL template cannot be empty")
	}
	if strings.Count(c.PageURLTemplate, "%d") != 1 {
		return fmt.Errorf("page URL template must contain exactly one %%d verb")
	}
	parsedURL, err := url.Parse(c.PageURL(1))
	if err != nil {
		return fmt.Errorf("invalid page URL template: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("page URL template must include a host")
	}

	if c.PageCount <= 0 {
		return fmt.Errorf("page count must be positive")
	}
	if !(c.ExchangeRate > 0) {
		return fmt.Errorf("exchange rate must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
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
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case FormatCSV, FormatJSON, FormatDual, FormatSQLite:
	default:
		return fmt.Errorf("output format must be csv, json, dual, or sqlite")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe max size cannot be negative")
	}

	return nil
}

// SecondsToDuration converts a decimal number of seconds.
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
