package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/book-converter/config"
	"github.com/aluiziolira/book-converter/models"
	"github.com/aluiziolira/book-converter/parser"
	"go.uber.org/zap"
)

// Failure kinds that do not come from the transport.
const (
	KindParse      = "parse"
	KindExtraction = "extraction"
)

// Scraper drives catalogue pages through fetch, parse and extraction.
// It owns the result collection and failure log of a run.
type Scraper struct {
	cfg       *config.Config
	fetcher   Fetcher
	extractor *parser.Extractor
	pacer     Pacer
	retry     *retryPolicy
	logger    *zap.Logger
	Metrics   *Metrics
}

// Option customises a Scraper.
type Option func(*Scraper)

// WithFetcher replaces the colly fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Scraper) { s.fetcher = f }
}

// WithPacer replaces the fixed-delay pacer.
func WithPacer(p Pacer) Option {
	return func(s *Scraper) { s.pacer = p }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, opts ...Option) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Scraper{
		cfg:       cfg,
		extractor: parser.NewExtractor(cfg.ExchangeRate, cfg.CurrencySymbol),
		pacer:     NewDelayPacer(cfg.Delay),
		logger:    zap.NewNop(),
		Metrics:   NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = NewCollyFetcher(cfg)
	}
	s.retry = newRetryPolicy(cfg, s.Metrics)
	return s, nil
}

// Fetcher returns the fetcher in use.
func (s *Scraper) Fetcher() Fetcher {
	return s.fetcher
}

// Run processes pages 1..PageCount and returns the books in page order, then
// document order, together with every failure encountered. Per-page failures
// never abort the run; cancellation is honoured between pages.
func (s *Scraper) Run(ctx context.Context) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.RunResult{
		StartTime:      time.Now(),
		PagesRequested: s.cfg.PageCount,
		ErrorsByType:   make(map[string]int),
	}

	if s.cfg.Parallelism > 1 {
		s.runConcurrent(ctx, result)
	} else {
		s.runSequential(ctx, result)
	}

	result.EndTime = time.Now()
	if result.Books == nil {
		result.Books = []*models.Book{}
	}
	return result, nil
}

func (s *Scraper) runSequential(ctx context.Context, result *models.RunResult) {
	for page := 1; page <= s.cfg.PageCount; page++ {
		if ctx.Err() != nil {
			s.markCancelled(result, page)
			return
		}

		outcome := s.processPage(ctx, page)
		s.merge(result, outcome)
		if outcome.stop {
			s.markStopped(result, page)
			return
		}

		if page < s.cfg.PageCount {
			// Cancellation during the pause is picked up at the top of the loop.
			_ = s.pacer.Pace(ctx)
		}
	}
}

// runConcurrent fans pages out to a bounded worker pool. Dispatch is paced
// like the sequential loop and outcomes are merged by page index, so the
// result matches a sequential run.
func (s *Scraper) runConcurrent(ctx context.Context, result *models.RunResult) {
	outcomes := make([]*pageOutcome, s.cfg.PageCount+1)
	jobs := make(chan int)
	var stopped atomic.Bool

	workers := s.cfg.Parallelism
	if workers > s.cfg.PageCount {
		workers = s.cfg.PageCount
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				if ctx.Err() != nil {
					continue
				}
				outcome := s.processPage(ctx, page)
				if outcome.stop {
					stopped.Store(true)
				}
				outcomes[page] = &outcome
			}
		}()
	}

dispatch:
	for page := 1; page <= s.cfg.PageCount; page++ {
		if ctx.Err() != nil || stopped.Load() {
			break
		}
		select {
		case jobs <- page:
		case <-ctx.Done():
			break dispatch
		}
		if page < s.cfg.PageCount {
			_ = s.pacer.Pace(ctx)
		}
	}
	close(jobs)
	wg.Wait()

	// Pages are dispatched in order, so a missing outcome before any stop
	// page means the run was cancelled there.
	for page := 1; page <= s.cfg.PageCount; page++ {
		outcome := outcomes[page]
		if outcome == nil {
			s.markCancelled(result, page)
			return
		}
		s.merge(result, *outcome)
		if outcome.stop {
			s.markStopped(result, page)
			return
		}
	}
}

type pageOutcome struct {
	page     int
	books    []*models.Book
	failures []models.Failure
	skipped  bool
	stop     bool
	retries  int
}

func (s *Scraper) processPage(ctx context.Context, page int) pageOutcome {
	outcome := pageOutcome{page: page}
	pageURL := s.fetcher.PageURL(page)

	raw, retries, err := s.fetch(ctx, page)
	outcome.retries = retries
	if err != nil {
		kind := transportKind(err)
		s.logger.Error("page skipped",
			zap.Int("page", page),
			zap.String("url", pageURL),
			zap.String("kind", kind),
			zap.Error(err),
		)
		s.Metrics.IncError(kind)
		s.Metrics.IncPagesSkipped()
		outcome.skipped = true
		outcome.failures = append(outcome.failures, models.Failure{Page: page, URL: pageURL, Kind: kind, Err: err})
		outcome.stop = s.cfg.StopOnNotFound && IsNotFound(err)
		return outcome
	}

	fragments, err := parser.ParsePage(raw, pageURL)
	if err != nil {
		s.logger.Error("page skipped",
			zap.Int("page", page),
			zap.String("url", pageURL),
			zap.String("kind", KindParse),
			zap.Error(err),
		)
		s.Metrics.IncError(KindParse)
		s.Metrics.IncPagesSkipped()
		outcome.skipped = true
		outcome.failures = append(outcome.failures, models.Failure{Page: page, URL: pageURL, Kind: KindParse, Err: err})
		return outcome
	}

	outcome.books = make([]*models.Book, 0, len(fragments))
	for i, fragment := range fragments {
		book, err := s.extractor.Extract(fragment)
		if err != nil {
			s.logger.Warn("fragment skipped",
				zap.Int("page", page),
				zap.Int("fragment", i+1),
				zap.String("url", pageURL),
				zap.Error(err),
			)
			s.Metrics.IncError(KindExtraction)
			s.Metrics.IncFragmentsSkipped()
			outcome.failures = append(outcome.failures, models.Failure{
				Page:     page,
				Fragment: i + 1,
				URL:      pageURL,
				Kind:     KindExtraction,
				Err:      err,
			})
			continue
		}
		outcome.books = append(outcome.books, book)
	}
	s.Metrics.AddBooks(len(outcome.books))

	s.logger.Debug("page processed",
		zap.Int("page", page),
		zap.Int("fragments", len(fragments)),
		zap.Int("books", len(outcome.books)),
	)
	return outcome
}

func (s *Scraper) fetch(ctx context.Context, page int) ([]byte, int, error) {
	var raw []byte
	retries, err := s.retry.Do(ctx, func() error {
		start := time.Now()
		body, err := s.fetcher.Fetch(ctx, page)
		s.Metrics.ObserveDuration(time.Since(start))
		if err != nil {
			s.Metrics.IncRequest("failed")
			return err
		}
		s.Metrics.IncRequest("succeeded")
		raw = body
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		s.logger.Debug("retrying page",
			zap.Int("page", page),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	})
	return raw, retries, err
}

// merge is the only place the result collection and failure log grow.
func (s *Scraper) merge(result *models.RunResult, outcome pageOutcome) {
	result.Books = append(result.Books, outcome.books...)
	result.Failures = append(result.Failures, outcome.failures...)
	result.RetryCount += outcome.retries
	if outcome.skipped {
		result.PagesSkipped++
	} else {
		result.PagesProcessed++
	}
	for _, failure := range outcome.failures {
		if !failure.PageLevel() {
			result.FragmentsSkipped++
		}
		result.ErrorsByType[failure.Kind]++
	}
}

func (s *Scraper) markCancelled(result *models.RunResult, page int) {
	result.Cancelled = true
	s.logger.Warn("run cancelled", zap.Int("next_page", page))
}

func (s *Scraper) markStopped(result *models.RunResult, page int) {
	result.StoppedEarly = true
	s.logger.Info("catalogue ended", zap.Int("last_page", page))
}

func transportKind(err error) string {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Kind()
	}
	return errorTypeLabel(err)
}
