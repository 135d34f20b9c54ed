package scraper

import (
	"context"
	"time"

	"github.com/aluiziolira/book-converter/config"
)

// retryPolicy re-issues transient page failures with capped exponential backoff.
// With MaxRetries == 0 every failure is final.
type retryPolicy struct {
	cfg     *config.Config
	metrics *Metrics
	wait    func(ctx context.Context, d time.Duration) error
}

func newRetryPolicy(cfg *config.Config, metrics *Metrics) *retryPolicy {
	return &retryPolicy{cfg: cfg, metrics: metrics, wait: sleep}
}

// Do calls fn until it succeeds, the error is not transient, retries are
// exhausted, or ctx is done. It returns the number of retries performed and
// the last error.
func (rp *retryPolicy) Do(ctx context.Context, fn func() error, onRetry func(attempt int, delay time.Duration, err error)) (int, error) {
	retries := 0
	for {
		err := fn()
		if err == nil {
			return retries, nil
		}
		if retries >= rp.cfg.MaxRetries || !IsTransient(err) || ctx.Err() != nil {
			return retries, err
		}

		retries++
		delay := rp.backoff(retries)
		if rp.metrics != nil {
			rp.metrics.IncRetries()
		}
		if onRetry != nil {
			onRetry(retries, delay, err)
		}
		if waitErr := rp.wait(ctx, delay); waitErr != nil {
			return retries, err
		}
	}
}

func (rp *retryPolicy) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := rp.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := rp.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}
