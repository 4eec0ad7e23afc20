package orchestration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/imamik/cellflow/internal/device"
	"github.com/imamik/cellflow/internal/platform/erpnext"
)

// fakeERPNext is an in-memory backend. Submitting a Manufacture entry marks
// its Work Order Completed, like the real backend does.
type fakeERPNext struct {
	mu sync.Mutex

	boms         map[string]string
	workOrders   map[string]*erpnext.WorkOrder
	stockEntries map[string]*erpnext.StockEntry
	entryOrder   []string
	woSeq        int
	seSeq        int

	// skipCompletion leaves Work Orders In Process after manufacture.
	skipCompletion bool
	// Hooks to inject failures.
	CreateWorkOrderFunc func(w erpnext.NewWorkOrder) error
	SubmitStockEntryErr error

	writes int
	events *[]string
}

func newFakeERPNext(events *[]string) *fakeERPNext {
	if events == nil {
		events = &[]string{}
	}
	return &fakeERPNext{
		boms:         map[string]string{},
		workOrders:   map[string]*erpnext.WorkOrder{},
		stockEntries: map[string]*erpnext.StockEntry{},
		events:       events,
	}
}

func (f *fakeERPNext) event(format string, args ...any) {
	*f.events = append(*f.events, fmt.Sprintf(format, args...))
}

func (f *fakeERPNext) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeERPNext) DocStatus(_ context.Context, doctype, name string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch doctype {
	case erpnext.DoctypeWorkOrder:
		if wo, ok := f.workOrders[name]; ok {
			return wo.DocStatus, nil
		}
	case erpnext.DoctypeStockEntry:
		if se, ok := f.stockEntries[name]; ok {
			return se.DocStatus, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %s not found", erpnext.ErrBackendUnavailable, doctype, name)
}

func (f *fakeERPNext) DefaultBOM(_ context.Context, itemCode string) (*erpnext.BOM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.boms[itemCode]
	if !ok {
		return nil, fmt.Errorf("default BOM for %s: %w", itemCode, erpnext.ErrNotFound)
	}
	return &erpnext.BOM{Name: name, Item: itemCode, IsDefault: 1}, nil
}

func (f *fakeERPNext) CreateWorkOrder(_ context.Context, w erpnext.NewWorkOrder) (*erpnext.WorkOrder, error) {
	if f.CreateWorkOrderFunc != nil {
		if err := f.CreateWorkOrderFunc(w); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.woSeq++
	wo := &erpnext.WorkOrder{
		Name:             fmt.Sprintf("WO-%d", f.woSeq),
		ProductionItem:   w.ProductionItem,
		Qty:              w.Qty,
		BOMNo:            w.BOMNo,
		Company:          w.Company,
		FGWarehouse:      w.FGWarehouse,
		WIPWarehouse:     w.WIPWarehouse,
		PlannedStartDate: w.PlannedStartDate,
		SalesOrder:       w.SalesOrder,
		SalesOrderItem:   w.SalesOrderItem,
		Status:           erpnext.WorkOrderNotStarted,
		DocStatus:        erpnext.DocStatusSubmitted,
	}
	f.workOrders[wo.Name] = wo
	f.event("create %s", wo.Name)
	cp := *wo
	return &cp, nil
}

func (f *fakeERPNext) GetWorkOrder(_ context.Context, name string) (*erpnext.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wo, ok := f.workOrders[name]
	if !ok {
		return nil, fmt.Errorf("%w: work order %s", erpnext.ErrBackendUnavailable, name)
	}
	cp := *wo
	return &cp, nil
}

func (f *fakeERPNext) FindWorkOrders(_ context.Context, itemCode, salesOrder, line string) ([]erpnext.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for name, wo := range f.workOrders {
		if wo.ProductionItem == itemCode && wo.SalesOrder == salesOrder &&
			wo.SalesOrderItem == line && wo.DocStatus == erpnext.DocStatusSubmitted {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]erpnext.WorkOrder, 0, len(names))
	for _, n := range names {
		out = append(out, *f.workOrders[n])
	}
	return out, nil
}

func (f *fakeERPNext) SetWorkOrderStatus(_ context.Context, name, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	wo, ok := f.workOrders[name]
	if !ok {
		return fmt.Errorf("%w: work order %s", erpnext.ErrBackendUnavailable, name)
	}
	if wo.Status != erpnext.WorkOrderCompleted {
		wo.Status = status
	}
	f.event("status %s %s", name, status)
	return nil
}

func (f *fakeERPNext) MakeStockEntry(_ context.Context, workOrder, purpose string, qty decimal.Decimal) (erpnext.StockEntryDraft, error) {
	return erpnext.StockEntryDraft{
		"purpose":          purpose,
		"work_order":       workOrder,
		"fg_completed_qty": qty.InexactFloat64(),
	}, nil
}

func (f *fakeERPNext) CreateStockEntry(_ context.Context, draft erpnext.StockEntryDraft) (*erpnext.StockEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.seSeq++
	se := &erpnext.StockEntry{
		Name:      fmt.Sprintf("SE-%d", f.seSeq),
		Purpose:   draft["purpose"].(string),
		WorkOrder: draft["work_order"].(string),
		DocStatus: draft["docstatus"].(int),
	}
	f.stockEntries[se.Name] = se
	f.entryOrder = append(f.entryOrder, se.Name)
	f.event("create %s %s docstatus=%d", se.Name, se.Purpose, se.DocStatus)
	f.applySubmitLocked(se)
	cp := *se
	return &cp, nil
}

func (f *fakeERPNext) SubmitStockEntry(_ context.Context, name string) error {
	if f.SubmitStockEntryErr != nil {
		return f.SubmitStockEntryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	se, ok := f.stockEntries[name]
	if !ok {
		return fmt.Errorf("%w: stock entry %s", erpnext.ErrBackendUnavailable, name)
	}
	se.DocStatus = erpnext.DocStatusSubmitted
	f.event("submit %s", name)
	f.applySubmitLocked(se)
	return nil
}

func (f *fakeERPNext) applySubmitLocked(se *erpnext.StockEntry) {
	if se.DocStatus != erpnext.DocStatusSubmitted || se.Purpose != erpnext.PurposeManufacture || f.skipCompletion {
		return
	}
	if wo, ok := f.workOrders[se.WorkOrder]; ok {
		wo.Status = erpnext.WorkOrderCompleted
	}
}

func (f *fakeERPNext) FindStockEntries(_ context.Context, workOrder string) ([]erpnext.StockEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []erpnext.StockEntry
	for _, name := range f.entryOrder {
		se := f.stockEntries[name]
		if se.WorkOrder == workOrder && se.DocStatus < erpnext.DocStatusCancelled {
			out = append(out, *se)
		}
	}
	return out, nil
}

func (f *fakeERPNext) entry(name string) erpnext.StockEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.stockEntries[name]
}

func (f *fakeERPNext) workOrder(name string) erpnext.WorkOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.workOrders[name]
}

// fakeDevice is a scripted Synchronizer.
type fakeDevice struct {
	name     string
	outcome  device.Outcome
	startErr error
	starts   []device.Task
	events   *[]string
}

func (d *fakeDevice) Name() string { return d.name }

func (d *fakeDevice) Ping(context.Context) (string, error) { return "ok", nil }

func (d *fakeDevice) Start(_ context.Context, task device.Task) (device.Handle, error) {
	if d.startErr != nil {
		return device.Handle{}, d.startErr
	}
	d.starts = append(d.starts, task)
	if d.events != nil {
		*d.events = append(*d.events, fmt.Sprintf("start %s %s", d.name, task.WorkOrder))
	}
	return device.Handle{Device: d.name, Task: task}, nil
}

func (d *fakeDevice) AwaitCompletion(_ context.Context, h device.Handle, _ device.WaitOptions) (device.Outcome, error) {
	if d.events != nil {
		*d.events = append(*d.events, fmt.Sprintf("outcome %s %s %s", d.name, h.Task.WorkOrder, d.outcome))
	}
	return d.outcome, nil
}
