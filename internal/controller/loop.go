// Package controller runs the scan loop: list submitted sales orders, process
// the ones not yet ledgered, record the completed ones, sleep, repeat.
package controller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/cellflow/internal/metrics"
	"github.com/imamik/cellflow/internal/orchestration"
	"github.com/imamik/cellflow/internal/platform/erpnext"
)

// DefaultInterval is the pause between two scans.
const DefaultInterval = 10 * time.Second

// OrderSource lists orders and their items.
type OrderSource interface {
	ListSubmittedSalesOrders(ctx context.Context) ([]erpnext.SalesOrder, error)
	GetSalesOrderItems(ctx context.Context, orderID string) ([]erpnext.SalesOrderItem, error)
}

// OrderProcessor runs the manufacturing flow for one order.
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, order erpnext.SalesOrder, items []erpnext.SalesOrderItem) orchestration.OrderResult
}

// Ledger is the dedup set of completed orders.
type Ledger interface {
	IsProcessed(id string) bool
	MarkProcessed(id string) error
	Len() int
}

// CycleReport summarizes one scan.
type CycleReport struct {
	ID        string
	Started   time.Time
	Duration  time.Duration
	Orders    int
	Skipped   int
	Attempted int
	Completed int
	Err       error
}

// Loop is the long-running scan loop. Only one goroutine may call Run or
// RunCycle; Status may be read concurrently.
type Loop struct {
	source    OrderSource
	processor OrderProcessor
	ledger    Ledger
	interval  time.Duration

	enableMetrics bool
	newID         func() string

	mu        sync.RWMutex
	last      *CycleReport
	busySince time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval sets the pause between scans.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithMetrics enables or disables Prometheus recording.
func WithMetrics(enable bool) Option {
	return func(l *Loop) {
		l.enableMetrics = enable
	}
}

// WithIDGenerator overrides the cycle id generator.
func WithIDGenerator(fn func() string) Option {
	return func(l *Loop) {
		l.newID = fn
	}
}

// NewLoop creates a scan loop.
func NewLoop(source OrderSource, processor OrderProcessor, ledger Ledger, opts ...Option) *Loop {
	l := &Loop{
		source:        source,
		processor:     processor,
		ledger:        ledger,
		interval:      DefaultInterval,
		enableMetrics: true,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run scans until ctx is cancelled. Cycle errors are logged and never end
// the loop. Cancellation is a clean shutdown and returns nil.
func (l *Loop) Run(ctx context.Context) error {
	logger := logr.FromContextOrDiscard(ctx)
	logger.Info("watching for submitted sales orders", "interval", l.interval.String(), "ledgered", l.ledger.Len())

	for {
		report := l.RunCycle(ctx)
		if report.Err != nil && ctx.Err() == nil {
			logger.Error(report.Err, "global error", "cycle", report.ID)
		}

		select {
		case <-ctx.Done():
			logger.Info("stopping scan loop")
			return nil
		case <-time.After(l.interval):
		}
	}
}

// RunCycle performs one full scan. A panic inside the cycle is recovered and
// reported as the cycle error.
func (l *Loop) RunCycle(ctx context.Context) (report CycleReport) {
	report = CycleReport{ID: l.newID(), Started: time.Now()}
	l.mu.Lock()
	l.busySince = report.Started
	l.mu.Unlock()
	logger := logr.FromContextOrDiscard(ctx).WithValues("cycle", report.ID)
	ctx = logr.NewContext(ctx, logger)

	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Errorf("panic in scan cycle: %v\n%s", r, debug.Stack())
		}
		report.Duration = time.Since(report.Started)
		l.finish(report)
	}()

	orders, err := l.source.ListSubmittedSalesOrders(ctx)
	if err != nil {
		report.Err = fmt.Errorf("list sales orders: %w", err)
		return report
	}
	report.Orders = len(orders)
	logger.V(1).Info("found submitted sales orders", "count", len(orders))

	var errs []error
	for _, so := range orders {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if l.ledger.IsProcessed(so.Name) {
			report.Skipped++
			continue
		}
		report.Attempted++

		done, err := l.processOrder(ctx, so)
		if err != nil {
			logger.Error(err, "order error", "order", so.Name)
			continue
		}
		if done {
			report.Completed++
		}
	}
	report.Err = errors.Join(errs...)
	return report
}

// processOrder runs one order and ledgers it if every item completed.
func (l *Loop) processOrder(ctx context.Context, so erpnext.SalesOrder) (bool, error) {
	items, err := l.source.GetSalesOrderItems(ctx, so.Name)
	if err != nil {
		return false, fmt.Errorf("get items: %w", err)
	}

	result := l.processor.ProcessOrder(ctx, so, items)
	if !result.Completed() {
		return false, nil
	}
	if err := l.ledger.MarkProcessed(so.Name); err != nil {
		return false, fmt.Errorf("record completed order: %w", err)
	}
	logr.FromContextOrDiscard(ctx).Info("order recorded as processed", "order", so.Name, "alreadyComplete", result.AlreadyComplete)
	return true, nil
}

func (l *Loop) finish(report CycleReport) {
	l.mu.Lock()
	l.last = &report
	l.busySince = time.Time{}
	l.mu.Unlock()

	if l.enableMetrics {
		metrics.RecordCycle(report.Duration)
		metrics.SetLedgerSize(l.ledger.Len())
	}
}

// LastCycle returns the report of the most recent cycle, or nil before the
// first one finished.
func (l *Loop) LastCycle() *CycleReport {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.last == nil {
		return nil
	}
	r := *l.last
	return &r
}

// Interval returns the pause between scans.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Ready reports whether a cycle is running now, or the last cycle finished
// without a global error within three scan intervals. Device waits make
// cycles long, so a running cycle counts as live even after a failed one.
func (l *Loop) Ready(now time.Time) (bool, string) {
	l.mu.RLock()
	last, busySince := l.last, l.busySince
	l.mu.RUnlock()

	switch {
	case !busySince.IsZero():
		return true, "scan in progress"
	case last != nil && last.Err != nil:
		return false, last.Err.Error()
	case last == nil:
		return false, "no scan finished yet"
	}
	if idle := now.Sub(last.Started.Add(last.Duration)); idle > 3*l.interval {
		return false, fmt.Sprintf("last scan finished %s ago", idle.Round(time.Second))
	}
	return true, "ok"
}
