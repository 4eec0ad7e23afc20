package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/cellflow/internal/platform/nodered"
	"github.com/imamik/cellflow/internal/util/retry"
)

const flowModeTimeout = 10 * time.Second

// sorterAPI is the subset of the Node-RED client the sorter adapter uses.
type sorterAPI interface {
	Ping(ctx context.Context) error
	SetFlowMode(ctx context.Context, action string) error
	TriggerSorting(ctx context.Context, req nodered.SortRequest) error
	SortingStatus(ctx context.Context, stockEntry string) (*nodered.SortStatus, error)
}

// Sorter drives the Node-RED conveyor and sorting flow. Jobs are keyed by the
// manufacture Stock Entry id.
type Sorter struct {
	api      sorterAPI
	flowMode bool
	now      func() time.Time
}

// NewSorter wraps a Node-RED client. With flowMode set, the QC flow is
// switched on before each trigger and off after the wait.
func NewSorter(api sorterAPI, flowMode bool) *Sorter {
	return &Sorter{api: api, flowMode: flowMode, now: time.Now}
}

// Name implements Synchronizer.
func (s *Sorter) Name() string { return string(KindSorter) }

// Ping checks the flow answers on /ping.
func (s *Sorter) Ping(ctx context.Context) (string, error) {
	if err := s.api.Ping(ctx); err != nil {
		return "", err
	}
	return "ok", nil
}

// Start triggers sorting for task.StockEntry.
func (s *Sorter) Start(ctx context.Context, task Task) (Handle, error) {
	if task.StockEntry == "" {
		return Handle{}, fmt.Errorf("%w: sorting needs a stock entry for work order %s", ErrInvalidTask, task.WorkOrder)
	}
	logger := logr.FromContextOrDiscard(ctx)

	if s.flowMode {
		if err := s.api.SetFlowMode(ctx, nodered.FlowModeStart); err != nil {
			return Handle{}, err
		}
	}

	now := s.now()
	err := s.api.TriggerSorting(ctx, nodered.SortRequest{
		WorkOrder:  task.WorkOrder,
		StockEntry: task.StockEntry,
		ItemCode:   task.ItemCode,
		Qty:        task.Qty.InexactFloat64(),
		Timestamp:  now.Format(nodered.TimestampLayout),
	})
	if err != nil {
		s.endFlowMode(ctx)
		return Handle{}, err
	}
	logger.Info("sorting triggered", "item", task.ItemCode, "workOrder", task.WorkOrder, "stockEntry", task.StockEntry)
	return Handle{Device: s.Name(), Task: task, StartedAt: now}, nil
}

// AwaitCompletion polls the sorting status of the handle's stock entry. A
// retried item reuses its stock entry, so a status stamped before the
// handle's trigger is ignored. A status without a timestamp is taken to
// belong to the latest trigger.
func (s *Sorter) AwaitCompletion(ctx context.Context, h Handle, opts WaitOptions) (Outcome, error) {
	logger := logr.FromContextOrDiscard(ctx).WithValues("device", s.Name(), "stockEntry", h.Task.StockEntry)
	defer s.endFlowMode(ctx)

	outcome := Timeout
	err := retry.Poll(ctx, func(ctx context.Context) (bool, error) {
		st, err := s.api.SortingStatus(ctx, h.Task.StockEntry)
		if err != nil {
			return false, err
		}
		if staleStatus(st, h) {
			logger.V(1).Info("ignoring status of an earlier trigger", "status", st.Status, "timestamp", st.Timestamp)
			return false, nil
		}
		switch st.Status {
		case nodered.StatusDone:
			outcome = Success
			return true, nil
		case nodered.StatusFailed:
			logger.Info("sorting reported failure", "detail", st.Detail)
			outcome = Failure
			return true, nil
		default:
			logger.V(1).Info("sorting in progress", "status", st.Status)
			return false, nil
		}
	},
		retry.WithAttempts(opts.Attempts),
		retry.WithInterval(opts.PollInterval),
		retry.WithMaxWait(opts.MaxWait),
		retry.WithOnError(func(attempt int, err error) {
			logger.Error(err, "sorting status poll failed", "attempt", attempt, "attempts", opts.Attempts)
		}),
	)

	switch {
	case err == nil:
		return outcome, nil
	case errors.Is(err, retry.ErrExhausted):
		logger.Info("sorting timed out")
		return Timeout, nil
	default:
		return Timeout, err
	}
}

// staleStatus reports whether st was stamped by a trigger sent before h.
func staleStatus(st *nodered.SortStatus, h Handle) bool {
	if st.Timestamp == "" || h.StartedAt.IsZero() {
		return false
	}
	// Fractional seconds are optional when parsing.
	ts, err := time.ParseInLocation("2006-01-02T15:04:05", st.Timestamp, h.StartedAt.Location())
	if err != nil {
		return false
	}
	return ts.Before(h.StartedAt.Truncate(time.Microsecond))
}

// endFlowMode is best effort and runs even when ctx is already cancelled.
func (s *Sorter) endFlowMode(ctx context.Context) {
	if !s.flowMode {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flowModeTimeout)
	defer cancel()
	if err := s.api.SetFlowMode(ctx, nodered.FlowModeEnd); err != nil {
		logr.FromContextOrDiscard(ctx).Error(err, "could not end QC flow mode")
	}
}
