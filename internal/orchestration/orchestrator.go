// Package orchestration turns submitted sales orders into finished goods.
//
// Each order line runs through a fixed chain of steps: resolve the BOM,
// create and submit a Work Order, transfer material, drive the physical
// device, record the Manufacture stock entry, and confirm the backend marked
// the Work Order Completed. Before the chain starts, the backend is checked
// for work left by an earlier run so nothing is created twice.
package orchestration

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"

	"github.com/imamik/cellflow/internal/device"
	"github.com/imamik/cellflow/internal/docstatus"
	"github.com/imamik/cellflow/internal/platform/erpnext"
)

// Backend is the subset of the ERPNext client the flow needs.
type Backend interface {
	DocStatus(ctx context.Context, doctype, name string) (int, error)
	DefaultBOM(ctx context.Context, itemCode string) (*erpnext.BOM, error)
	CreateWorkOrder(ctx context.Context, w erpnext.NewWorkOrder) (*erpnext.WorkOrder, error)
	GetWorkOrder(ctx context.Context, name string) (*erpnext.WorkOrder, error)
	FindWorkOrders(ctx context.Context, itemCode, salesOrder, line string) ([]erpnext.WorkOrder, error)
	SetWorkOrderStatus(ctx context.Context, name, status string) error
	MakeStockEntry(ctx context.Context, workOrder, purpose string, qty decimal.Decimal) (erpnext.StockEntryDraft, error)
	CreateStockEntry(ctx context.Context, draft erpnext.StockEntryDraft) (*erpnext.StockEntry, error)
	SubmitStockEntry(ctx context.Context, name string) error
	FindStockEntries(ctx context.Context, workOrder string) ([]erpnext.StockEntry, error)
}

// RouteResolver maps item codes to devices.
type RouteResolver interface {
	Resolve(itemCode string) (device.Route, error)
}

// Settings are the backend defaults applied to every Work Order.
type Settings struct {
	Company      string
	FGWarehouse  string
	WIPWarehouse string
	DocStatus    docstatus.Options
	// Policy is the default manufacture recording policy.
	Policy Policy
}

// Orchestrator runs the manufacturing flow for one order at a time.
type Orchestrator struct {
	backend   Backend
	routes    RouteResolver
	settings  Settings
	recorders map[Policy]ManufactureRecorder

	enableMetrics bool
	now           func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics enables or disables Prometheus recording.
func WithMetrics(enable bool) Option {
	return func(o *Orchestrator) {
		o.enableMetrics = enable
	}
}

// WithClock overrides the time source used for planned start dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithRecorder replaces the recorder used for a policy.
func WithRecorder(r ManufactureRecorder) Option {
	return func(o *Orchestrator) {
		o.recorders[r.Policy()] = r
	}
}

// New creates an Orchestrator.
func New(backend Backend, routes RouteResolver, settings Settings, opts ...Option) *Orchestrator {
	if settings.Policy == "" {
		settings.Policy = PolicyImmediate
	}
	o := &Orchestrator{
		backend:  backend,
		routes:   routes,
		settings: settings,
		recorders: map[Policy]ManufactureRecorder{
			PolicyImmediate:    &immediateRecorder{backend: backend},
			PolicyDraftConfirm: &draftConfirmRecorder{backend: backend},
		},
		enableMetrics: true,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ItemResult is the outcome of one item chain.
type ItemResult struct {
	ItemCode  string
	Line      string
	WorkOrder string
	// Step is the last step reached, StepDone on success.
	Step    Step
	Resumed bool
	Err     error
}

// Done reports whether the item finished.
func (r ItemResult) Done() bool {
	return r.Err == nil && r.Step == StepDone
}

// OrderResult is the outcome of one pass over an order.
type OrderResult struct {
	Order string
	Items []ItemResult
	// Skipped counts items not attempted because an earlier item aborted
	// the pass.
	Skipped int
	// AlreadyComplete is set when every item had a Completed Work Order
	// before the pass started, so nothing was written.
	AlreadyComplete bool
}

// Completed reports whether every item of the order is done. Only completed
// orders may be ledgered.
func (r OrderResult) Completed() bool {
	if r.Skipped > 0 || len(r.Items) == 0 {
		return false
	}
	for _, it := range r.Items {
		if !it.Done() {
			return false
		}
	}
	return true
}

// Err joins the item errors.
func (r OrderResult) Err() error {
	var errs []error
	for _, it := range r.Items {
		if it.Err != nil {
			errs = append(errs, it.Err)
		}
	}
	return errors.Join(errs...)
}

// ProcessOrder runs every item of order in sequence. A missing BOM fails that
// item and the pass continues; any other failure stops the pass so the cell
// does not produce a partial order. Item errors are logged and returned in
// the result, never as a panic or process exit.
func (o *Orchestrator) ProcessOrder(ctx context.Context, order erpnext.SalesOrder, items []erpnext.SalesOrderItem) OrderResult {
	logger := logr.FromContextOrDiscard(ctx).WithValues("order", order.Name)
	ctx = logr.NewContext(ctx, logger)
	result := OrderResult{Order: order.Name}

	if len(items) == 0 {
		logger.Info("order has no items, leaving it for a later pass")
		o.recordOrder("empty")
		return result
	}

	existing, complete := o.lookupCompleted(ctx, order.Name, items)
	if complete {
		logger.Info("order already completed, nothing to do")
		for _, it := range items {
			result.Items = append(result.Items, ItemResult{
				ItemCode:  it.ItemCode,
				Line:      it.Name,
				WorkOrder: completedWorkOrder(existing[it.Name]).Name,
				Step:      StepDone,
				Resumed:   true,
			})
		}
		result.AlreadyComplete = true
		o.recordOrder("already_complete")
		return result
	}

	logger.Info("processing order", "customer", order.Customer, "items", len(items))
	for i, it := range items {
		known, looked := existing[it.Name]
		res := o.processItem(ctx, order.Name, it, known, looked)
		result.Items = append(result.Items, res)
		o.recordItem(res)

		if res.Err == nil {
			continue
		}
		logger.Error(res.Err, "item failed", "item", it.ItemCode, "line", it.Name, "step", string(res.Step))
		if ctx.Err() != nil || !continuesOrder(res.Err) {
			result.Skipped = len(items) - i - 1
			if result.Skipped > 0 {
				logger.Info("stopping order after item failure", "skipped", result.Skipped)
			}
			break
		}
	}

	switch {
	case result.Completed():
		logger.Info("order fully processed")
		o.recordOrder("completed")
	default:
		logger.Info("order not fully processed, will retry later")
		o.recordOrder("incomplete")
	}
	return result
}

// lookupCompleted fetches the submitted Work Orders of every line. The second
// result is true when each line already has a Completed one. Lookup errors
// leave the line out of the map so the item guard retries it.
func (o *Orchestrator) lookupCompleted(ctx context.Context, order string, items []erpnext.SalesOrderItem) (map[string][]erpnext.WorkOrder, bool) {
	logger := logr.FromContextOrDiscard(ctx)
	existing := make(map[string][]erpnext.WorkOrder, len(items))
	complete := true
	for _, it := range items {
		wos, err := o.backend.FindWorkOrders(ctx, it.ItemCode, order, it.Name)
		if err != nil {
			logger.Error(err, "could not check existing work orders", "item", it.ItemCode, "line", it.Name)
			complete = false
			continue
		}
		existing[it.Name] = wos
		if completedWorkOrder(wos) == nil {
			complete = false
		}
	}
	return existing, complete
}

func completedWorkOrder(wos []erpnext.WorkOrder) *erpnext.WorkOrder {
	for i := range wos {
		if wos[i].Status == erpnext.WorkOrderCompleted {
			return &wos[i]
		}
	}
	return nil
}
