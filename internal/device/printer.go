package device

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/cellflow/internal/platform/octoprint"
	"github.com/imamik/cellflow/internal/util/retry"
)

// printerAPI is the subset of the OctoPrint client the printer adapter uses.
type printerAPI interface {
	Printer(ctx context.Context) (*octoprint.PrinterState, error)
	CurrentJob(ctx context.Context) (*octoprint.Job, error)
	SelectAndPrint(ctx context.Context, file string) error
}

// Printer drives an OctoPrint-managed 3D printer.
type Printer struct {
	api printerAPI
	now func() time.Time
}

// NewPrinter wraps an OctoPrint client.
func NewPrinter(api printerAPI) *Printer {
	return &Printer{api: api, now: time.Now}
}

// Name implements Synchronizer.
func (p *Printer) Name() string { return string(KindPrinter) }

// Ping reports the printer state text.
func (p *Printer) Ping(ctx context.Context) (string, error) {
	ps, err := p.api.Printer(ctx)
	if err != nil {
		return "", err
	}
	return ps.State.Text, nil
}

// Start selects task.File and starts printing it.
func (p *Printer) Start(ctx context.Context, task Task) (Handle, error) {
	if task.File == "" {
		return Handle{}, fmt.Errorf("%w: no print file for item %s", ErrInvalidTask, task.ItemCode)
	}
	if err := p.api.SelectAndPrint(ctx, task.File); err != nil {
		return Handle{}, err
	}
	logr.FromContextOrDiscard(ctx).Info("print started", "file", task.File, "workOrder", task.WorkOrder)
	return Handle{Device: p.Name(), Task: task, StartedAt: p.now()}, nil
}

// AwaitCompletion polls the current job until it finishes or fails.
func (p *Printer) AwaitCompletion(ctx context.Context, h Handle, opts WaitOptions) (Outcome, error) {
	logger := logr.FromContextOrDiscard(ctx).WithValues("device", p.Name(), "file", h.Task.File)

	outcome := Timeout
	err := retry.Poll(ctx, func(ctx context.Context) (bool, error) {
		job, err := p.api.CurrentJob(ctx)
		if err != nil {
			return false, err
		}
		logger.Info("print progress",
			"state", job.State,
			"jobFile", job.FileName(),
			"completion", job.Completion(),
			"printTime", intOrNil(job.Progress.PrintTime),
			"printTimeLeft", intOrNil(job.Progress.PrintTimeLeft),
		)
		if name := job.FileName(); name != "" && name != path.Base(h.Task.File) {
			// The previous job is still loaded.
			return false, nil
		}
		if o, done := ClassifyJob(job); done {
			outcome = o
			return true, nil
		}
		return false, nil
	},
		retry.WithAttempts(opts.Attempts),
		retry.WithInterval(opts.PollInterval),
		retry.WithMaxWait(opts.MaxWait),
		retry.WithOnError(func(attempt int, err error) {
			logger.Error(err, "could not fetch job status", "attempt", attempt)
		}),
	)

	switch {
	case err == nil:
		return outcome, nil
	case errors.Is(err, retry.ErrExhausted):
		logger.Info("print wait budget exhausted", "elapsed", p.now().Sub(h.StartedAt).Round(time.Second).String())
		return Timeout, nil
	default:
		return Timeout, err
	}
}

// ClassifyJob maps an OctoPrint job snapshot to a terminal outcome. The
// second result is false while the job is still running.
func ClassifyJob(job *octoprint.Job) (Outcome, bool) {
	state := job.State
	switch {
	case state == octoprint.StateError,
		state == octoprint.StateCancelled,
		state == octoprint.StateOfflineAfterErr,
		strings.HasPrefix(state, octoprint.StateCancellingPrefix):
		return Failure, true
	case state == octoprint.StateOperational && job.Completion() >= 100:
		return Success, true
	default:
		return 0, false
	}
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
