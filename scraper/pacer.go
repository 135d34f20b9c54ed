package scraper

import (
	"context"
	"time"
)

// Pacer blocks between page requests.
type Pacer interface {
	Pace(ctx context.Context) error
}

// PacerFunc adapts a function to Pacer.
type PacerFunc func(ctx context.Context) error

func (f PacerFunc) Pace(ctx context.Context) error {
	return f(ctx)
}

// NewDelayPacer waits a fixed delay, returning early when ctx is done.
func NewDelayPacer(delay time.Duration) Pacer {
	return PacerFunc(func(ctx context.Context) error {
		return sleep(ctx, delay)
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
