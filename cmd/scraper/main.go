package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/book-converter/config"
	"github.com/aluiziolira/book-converter/logging"
	"github.com/aluiziolira/book-converter/pipeline"
	"github.com/aluiziolira/book-converter/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flagValues struct {
	configFile      string
	pageURL         string
	pages           int
	rate            float64
	currency        string
	delay           float64
	timeout         time.Duration
	userAgent       string
	respectRobots   bool
	parallel        int
	maxRetries      int
	retryBackoff    time.Duration
	retryBackoffMax time.Duration
	stopOnNotFound  bool
	output          string
	format          string
	dedupeSize      int
	metricsAddr     string
	logFile         string
	verbose         bool
}

func newRootCmd() (*cobra.Command, *flagValues) {
	defaults := config.DefaultConfig()
	flags := &flagValues{}

	cmd := &cobra.Command{
		Use:           "scraper",
		Short:         "scraper collects the book catalogue and exports it with converted prices.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, flags)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configFile, "config", "", "YAML configuration file")
	f.StringVar(&flags.pageURL, "page-url", defaults.PageURLTemplate, "Catalogue page URL template with one %d for the page number")
	f.IntVar(&flags.pages, "pages", defaults.PageCount, "Number of catalogue pages to scrape")
	f.Float64Var(&flags.rate, "rate", defaults.ExchangeRate, "Exchange rate applied to every price")
	f.StringVar(&flags.currency, "currency", defaults.CurrencySymbol, "Symbol prefixed to converted prices")
	f.Float64Var(&flags.delay, "delay", defaults.Delay.Seconds(), "Pause between pages (seconds)")
	f.DurationVar(&flags.timeout, "timeout", defaults.Timeout, "Request timeout")
	f.StringVar(&flags.userAgent, "user-agent", defaults.UserAgent, "User-Agent header")
	f.BoolVar(&flags.respectRobots, "respect-robots", defaults.RespectRobotsTxt, "Respect robots.txt directives")
	f.IntVar(&flags.parallel, "parallel", defaults.Parallelism, "Number of pages processed concurrently")
	f.IntVar(&flags.maxRetries, "max-retries", defaults.MaxRetries, "Retry attempts for transient page failures")
	f.DurationVar(&flags.retryBackoff, "retry-backoff", defaults.RetryBackoff, "Initial retry backoff")
	f.DurationVar(&flags.retryBackoffMax, "retry-backoff-max", defaults.RetryBackoffMax, "Maximum retry backoff")
	f.BoolVar(&flags.stopOnNotFound, "stop-on-404", defaults.StopOnNotFound, "End the run at the first missing page")
	f.StringVarP(&flags.output, "output", "o", defaults.OutputFile, "Output file path")
	f.StringVar(&flags.format, "format", defaults.OutputFormat, "Output format: csv, json, dual, or sqlite")
	f.IntVar(&flags.dedupeSize, "dedupe-size", defaults.DedupeMaxSize, "Drop repeated books seen within this many records (0 disables)")
	f.StringVar(&flags.metricsAddr, "metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	f.StringVar(&flags.logFile, "log-file", defaults.LogFile, "Also write JSON logs to this rotating file")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	return cmd, flags
}

// buildConfig layers defaults, the config file, SCRAPER_* variables and
// explicitly set flags, in that order.
func buildConfig(cmd *cobra.Command, flags *flagValues) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.configFile != "" {
		if err := config.LoadFile(flags.configFile, cfg); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("page-url") {
		cfg.PageURLTemplate = flags.pageURL
	}
	if changed("pages") {
		cfg.PageCount = flags.pages
	}
	if changed("rate") {
		cfg.ExchangeRate = flags.rate
	}
	if changed("currency") {
		cfg.CurrencySymbol = flags.currency
	}
	if changed("delay") {
		if flags.delay < 0 {
			return nil, fmt.Errorf("delay cannot be negative")
		}
		cfg.Delay = config.SecondsToDuration(flags.delay)
	}
	if changed("timeout") {
		cfg.Timeout = flags.timeout
	}
	if changed("user-agent") {
		cfg.UserAgent = flags.userAgent
	}
	if changed("respect-robots") {
		cfg.RespectRobotsTxt = flags.respectRobots
	}
	if changed("parallel") {
		cfg.Parallelism = flags.parallel
	}
	if changed("max-retries") {
		cfg.MaxRetries = flags.maxRetries
	}
	if changed("retry-backoff") {
		cfg.RetryBackoff = flags.retryBackoff
	}
	if changed("retry-backoff-max") {
		cfg.RetryBackoffMax = flags.retryBackoffMax
	}
	if changed("stop-on-404") {
		cfg.StopOnNotFound = flags.stopOnNotFound
	}
	if changed("output") {
		cfg.OutputFile = flags.output
	}
	if changed("format") {
		cfg.OutputFormat = strings.ToLower(flags.format)
	}
	if changed("dedupe-size") {
		cfg.DedupeMaxSize = flags.dedupeSize
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = flags.metricsAddr
	}
	if changed("log-file") {
		cfg.LogFile = flags.logFile
	}
	if changed("verbose") {
		cfg.Verbose = flags.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, logCloser := logging.New(cfg.Verbose, cfg.LogFile)
	defer func() {
		_ = logger.Sync()
		_ = logCloser.Close()
	}()

	logger.Info("starting scrape",
		zap.String("page_url", cfg.PageURLTemplate),
		zap.Int("pages", cfg.PageCount),
		zap.Int("workers", cfg.Parallelism),
		zap.Float64("rate", cfg.ExchangeRate),
	)

	s, err := scraper.NewScraper(cfg, scraper.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		logger.Info("metrics server enabled", zap.String("addr", cfg.MetricsAddr))
	}

	result, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("scraping failed: %w", err)
	}
	if result.Cancelled {
		logger.Info("shutdown signal received, exporting collected books", zap.Int("books", len(result.Books)))
	}

	written, err := pipeline.NewExporter(cfg, logger).Export(result.Books, cfg.OutputFile)
	if err != nil {
		logger.Error("export failed", zap.Error(err))
		return err
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", zap.Error(err))
		}
		cancel()
	}

	printSummary(os.Stdout, result, written, cfg)
	return nil
}

func main() {
	cmd, _ := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
