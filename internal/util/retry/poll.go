package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned by Poll when the condition was not met within the
// attempt or time budget.
var ErrExhausted = errors.New("poll budget exhausted")

// Condition reports whether the awaited state has been reached.
// A non-nil error wrapped with Fatal() ends the poll immediately; any other
// error is treated as a transient failure of that single attempt.
type Condition func(ctx context.Context) (done bool, err error)

// PollConfig holds polling configuration.
type PollConfig struct {
	// Attempts is the maximum number of condition evaluations. Zero or less
	// means unbounded.
	Attempts int

	// Interval is the constant delay between evaluations.
	Interval time.Duration

	// MaxWait bounds the total time spent polling. Zero means unbounded.
	MaxWait time.Duration

	// OnError is called for every transient (non-fatal) condition error.
	OnError func(attempt int, err error)
}

// PollOption is a functional option for poll configuration.
type PollOption func(*PollConfig)

// Poll evaluates cond until it reports done, returns a fatal error, or the
// budget is exhausted. There is no backoff: the interval stays constant.
// The delay is skipped after the final attempt.
func Poll(ctx context.Context, cond Condition, opts ...PollOption) error {
	cfg := &PollConfig{
		Attempts: 5,
		Interval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	start := time.Now()
	var lastErr error

	for attempt := 1; cfg.Attempts <= 0 || attempt <= cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("poll cancelled after %d attempts: %w", attempt-1, err)
		}

		done, err := cond(ctx)
		switch {
		case err != nil && IsFatal(err):
			return err
		case err != nil:
			lastErr = err
			if cfg.OnError != nil {
				cfg.OnError(attempt, err)
			}
		case done:
			return nil
		}

		if cfg.Attempts > 0 && attempt >= cfg.Attempts {
			break
		}
		if cfg.MaxWait > 0 && time.Since(start)+cfg.Interval > cfg.MaxWait {
			break
		}

		if cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("poll cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(cfg.Interval):
			}
		}
	}

	if lastErr != nil {
		return fmt.Errorf("%w (last error: %w)", ErrExhausted, lastErr)
	}
	return ErrExhausted
}

// WithAttempts sets the maximum number of evaluations (<= 0 for unbounded).
func WithAttempts(n int) PollOption {
	return func(c *PollConfig) {
		c.Attempts = n
	}
}

// WithInterval sets the constant delay between evaluations.
func WithInterval(d time.Duration) PollOption {
	return func(c *PollConfig) {
		c.Interval = d
	}
}

// WithMaxWait bounds the total polling time (0 for unbounded).
func WithMaxWait(d time.Duration) PollOption {
	return func(c *PollConfig) {
		c.MaxWait = d
	}
}

// WithOnError registers a callback for transient condition errors.
func WithOnError(fn func(attempt int, err error)) PollOption {
	return func(c *PollConfig) {
		c.OnError = fn
	}
}
