// Package docstatus waits for backend documents to reach a given docstatus.
//
// The backend applies some transitions asynchronously after a write returns,
// so every write in the manufacturing flow is followed by a bounded wait here.
package docstatus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/cellflow/internal/util/retry"
)

// ErrStatusTimeout is returned when the document did not reach the wanted
// docstatus within the attempt budget.
var ErrStatusTimeout = errors.New("document did not reach expected docstatus")

// Defaults match the cadence the backend needs to settle a submit.
const (
	DefaultAttempts = 5
	DefaultInterval = 2 * time.Second
)

// Source reads the current docstatus of a document.
type Source interface {
	DocStatus(ctx context.Context, doctype, name string) (int, error)
}

// Options bound the wait. Zero values fall back to the defaults, except a
// zero Interval which is honoured when Attempts is set explicitly.
type Options struct {
	Attempts int
	Interval time.Duration
}

// Defaults returns the standard options.
func Defaults() Options {
	return Options{Attempts: DefaultAttempts, Interval: DefaultInterval}
}

func (o Options) normalize() Options {
	if o.Attempts <= 0 {
		return Defaults()
	}
	if o.Interval < 0 {
		o.Interval = 0
	}
	return o
}

// Await polls src until doctype/name has docstatus want. A failed query
// counts as an unmet attempt and is logged. After exactly opts.Attempts unmet
// queries it returns an error wrapping ErrStatusTimeout.
func Await(ctx context.Context, src Source, doctype, name string, want int, opts Options) error {
	opts = opts.normalize()
	logger := logr.FromContextOrDiscard(ctx).WithValues("doctype", doctype, "document", name, "want", want)

	last := -1
	err := retry.Poll(ctx, func(ctx context.Context) (bool, error) {
		got, err := src.DocStatus(ctx, doctype, name)
		if err != nil {
			return false, err
		}
		last = got
		if got == want {
			return true, nil
		}
		logger.V(1).Info("waiting for docstatus", "current", got)
		return false, nil
	},
		retry.WithAttempts(opts.Attempts),
		retry.WithInterval(opts.Interval),
		retry.WithOnError(func(attempt int, err error) {
			logger.Error(err, "docstatus query failed", "attempt", attempt, "attempts", opts.Attempts)
		}),
	)

	switch {
	case err == nil:
		logger.V(1).Info("document reached docstatus")
		return nil
	case errors.Is(err, retry.ErrExhausted):
		return fmt.Errorf("%s %s: %w %d after %d attempts (last seen %d): %w",
			doctype, name, ErrStatusTimeout, want, opts.Attempts, last, err)
	default:
		return fmt.Errorf("%s %s: %w", doctype, name, err)
	}
}
