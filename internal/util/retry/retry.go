package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BackoffConfig holds exponential backoff configuration.
type BackoffConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// OnRetry is called with the attempt number and error before each wait.
	OnRetry func(attempt int, err error)
}

// Option is a functional option for backoff configuration.
type Option func(*BackoffConfig)

// Operation is a single attempt of a retried call.
type Operation func(ctx context.Context) error

// WithExponentialBackoff runs op until it succeeds, returns a fatal error or
// MaxRetries is used up. The wait doubles (by Multiplier) after every
// failure and is capped at MaxDelay.
func WithExponentialBackoff(ctx context.Context, op Operation, opts ...Option) error {
	cfg := &BackoffConfig{
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxRetries+1; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}
		lastErr = err

		if attempt > cfg.MaxRetries {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("cancelled after %d attempts: %w", attempt, err)
		}
		delay = nextDelay(delay, cfg)
	}

	return fmt.Errorf("giving up after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

func nextDelay(d time.Duration, cfg *BackoffConfig) time.Duration {
	next := time.Duration(float64(d) * cfg.Multiplier)
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(c *BackoffConfig) {
		c.MaxRetries = n
	}
}

// WithInitialDelay sets the wait before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *BackoffConfig) {
		c.InitialDelay = d
	}
}

// WithMaxDelay caps the wait between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(c *BackoffConfig) {
		c.MaxDelay = d
	}
}

// WithMultiplier sets the backoff growth factor.
func WithMultiplier(m float64) Option {
	return func(c *BackoffConfig) {
		c.Multiplier = m
	}
}

// WithOnRetry registers a callback invoked before every retry wait.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *BackoffConfig) {
		c.OnRetry = fn
	}
}

// FatalError marks an error that must not be retried.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err so that backoff loops and polls stop on it.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err, or anything it wraps, was marked with Fatal.
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
