package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "negative parallelism",
			mutate: func(cfg *Config) {
				cfg.Parallelism = -1
			},
			wantErr: "parallelism",
		},
		{
			name: "zero page count",
			mutate: func(cfg *Config) {
				cfg.PageCount = 0
			},
			wantErr: "page count",
		},
		{
			name: "zero exchange rate",
			mutate: func(cfg *Config) {
				cfg.ExchangeRate = 0
			},
			wantErr: "exchange rate",
		},
		{
			name: "empty template",
			mutate: func(cfg *Config) {
				cfg.PageURLTemplate = ""
			},
			wantErr: "page URL template",
		},
		{
			name: "template without page verb",
			mutate: func(cfg *Config) {
				cfg.PageURLTemplate = "https://books.toscrape.com/catalogue/page.html"
			},
			wantErr: "%d",
		},
		{
			name: "template without host",
			mutate: func(cfg *Config) {
				cfg.PageURLTemplate = "http:///page-%d.html"
			},
			wantErr: "host",
		},
		{
			name: "negative delay",
			mutate: func(cfg *Config) {
				cfg.Delay = -1 * time.Second
			},
			wantErr: "delay",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "backoff above max",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = 3 * time.Second
			},
			wantErr: "retry backoff",
		},
		{
			name: "unknown format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "empty output",
			mutate: func(cfg *Config) {
				cfg.OutputFile = ""
			},
			wantErr: "output file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	require.Equal(t, 10, cfg.PageCount)
	require.Equal(t, time.Second, cfg.Delay)
	require.Equal(t, "books_converted.csv", cfg.OutputFile)
	require.Equal(t, "https://books.toscrape.com/catalogue/page-3.html", cfg.PageURL(3))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SCRAPER_PAGES", "2")
	t.Setenv("SCRAPER_RATE", "105.5")
	t.Setenv("SCRAPER_DELAY", "0.25")
	t.Setenv("SCRAPER_FORMAT", "JSON")
	t.Setenv("SCRAPER_OUTPUT", " out/books.jsonl ")
	t.Setenv("SCRAPER_STOP_ON_404", "true")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg))
	require.Equal(t, 2, cfg.PageCount)
	require.Equal(t, 105.5, cfg.ExchangeRate)
	require.Equal(t, 250*time.Millisecond, cfg.Delay)
	require.Equal(t, FormatJSON, cfg.OutputFormat)
	require.Equal(t, "out/books.jsonl", cfg.OutputFile)
	require.True(t, cfg.StopOnNotFound)
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv("SCRAPER_PAGES", "many")

	err := ApplyEnv(DefaultConfig())
	require.Error(t, err)
	require.Contains(t, err.Error(), "SCRAPER_PAGES")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	content := `
pages: 3
exchange_rate: 90.25
currency: "€"
delay_seconds: 1.5
retry_backoff: 100ms
format: dual
output: data/books.csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, LoadFile(path, cfg))
	require.Equal(t, 3, cfg.PageCount)
	require.Equal(t, 90.25, cfg.ExchangeRate)
	require.Equal(t, "€", cfg.CurrencySymbol)
	require.Equal(t, 1500*time.Millisecond, cfg.Delay)
	require.Equal(t, 100*time.Millisecond, cfg.RetryBackoff)
	require.Equal(t, FormatDual, cfg.OutputFormat)
	require.Equal(t, "data/books.csv", cfg.OutputFile)
	require.Equal(t, 10*time.Second, cfg.Timeout, "unset keys keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	err := LoadFile(filepath.Join(dir, "missing.yaml"), DefaultConfig())
	require.ErrorContains(t, err, "read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("timeout: soon\n"), 0o644))
	err = LoadFile(bad, DefaultConfig())
	require.ErrorContains(t, err, "timeout")
}
