package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"

	"github.com/imamik/cellflow/internal/device"
	"github.com/imamik/cellflow/internal/docstatus"
	"github.com/imamik/cellflow/internal/platform/erpnext"
)

// itemState carries one item through the chain. It lives only for the
// duration of processItem.
type itemState struct {
	order    string
	item     erpnext.SalesOrderItem
	step     Step
	resumed  bool
	route    device.Route
	recorder ManufactureRecorder

	bom              string
	workOrder        string
	workOrderQty     decimal.Decimal
	manufactureEntry string
	handle           device.Handle
}

// qty is the quantity to produce: the line qty, or the Work Order qty when
// the line carries none.
func (s *itemState) qty() decimal.Decimal {
	if s.item.Qty.IsPositive() {
		return s.item.Qty
	}
	return s.workOrderQty
}

func (o *Orchestrator) processItem(ctx context.Context, order string, it erpnext.SalesOrderItem, known []erpnext.WorkOrder, looked bool) ItemResult {
	logger := logr.FromContextOrDiscard(ctx).WithValues("item", it.ItemCode, "line", it.Name)
	ctx = logr.NewContext(ctx, logger)
	logger.Info("processing item", "qty", it.Qty.String())

	st := &itemState{order: order, item: it, step: StepStart}

	for st.step != StepDone {
		step := st.step
		start := time.Now()
		err := o.runStep(ctx, st, known, looked)
		o.recordStep(step, time.Since(start), err != nil)
		if err != nil {
			return ItemResult{
				ItemCode:  it.ItemCode,
				Line:      it.Name,
				WorkOrder: st.workOrder,
				Step:      step,
				Resumed:   st.resumed,
				Err:       &ItemError{Order: order, ItemCode: it.ItemCode, Line: it.Name, Step: step, Err: err},
			}
		}
		if st.step != step {
			logger.V(1).Info("step finished", "step", string(step), "next", string(st.step))
		}
	}

	logger.Info("item done", "workOrder", st.workOrder)
	return ItemResult{ItemCode: it.ItemCode, Line: it.Name, WorkOrder: st.workOrder, Step: StepDone, Resumed: st.resumed}
}

// runStep executes st.step and advances it.
func (o *Orchestrator) runStep(ctx context.Context, st *itemState, known []erpnext.WorkOrder, looked bool) error {
	switch st.step {
	case StepStart:
		return o.start(ctx, st, known, looked)
	case StepResolveBOM:
		return o.resolveBOM(ctx, st)
	case StepCreateWorkOrder:
		return o.createWorkOrder(ctx, st)
	case StepTransferMaterial:
		return o.transferMaterial(ctx, st)
	case StepMarkInProcess:
		o.markInProcess(ctx, st)
		return nil
	case StepPrepareManufacture:
		return o.prepareManufacture(ctx, st)
	case StepTriggerPhysical:
		return o.triggerPhysical(ctx, st)
	case StepAwaitPhysical:
		return o.awaitPhysical(ctx, st)
	case StepRecordManufacture:
		return o.recordManufacture(ctx, st)
	case StepAwaitBackendCompletion:
		return o.awaitBackendCompletion(ctx, st)
	default:
		return fmt.Errorf("unknown step %q", st.step)
	}
}

// start resolves the device route and finds where to begin.
func (o *Orchestrator) start(ctx context.Context, st *itemState, known []erpnext.WorkOrder, looked bool) error {
	if !looked {
		wos, err := o.backend.FindWorkOrders(ctx, st.item.ItemCode, st.order, st.item.Name)
		if err != nil {
			return fmt.Errorf("look up existing work orders: %w", err)
		}
		known = wos
	}

	// A Completed Work Order needs no device, so check it before routing.
	if wo := completedWorkOrder(known); wo != nil {
		logr.FromContextOrDiscard(ctx).Info("item already completed", "workOrder", wo.Name)
		st.workOrder = wo.Name
		st.resumed = true
		st.step = StepDone
		return nil
	}

	route, err := o.routes.Resolve(st.item.ItemCode)
	if err != nil {
		return err
	}
	policy, err := ParsePolicy(route.Policy, o.settings.Policy)
	if err != nil {
		return err
	}
	st.route = route
	st.recorder = o.recorders[policy]

	next, err := o.resumePoint(ctx, st, known)
	if err != nil {
		return err
	}
	st.step = next
	return nil
}

func (o *Orchestrator) resolveBOM(ctx context.Context, st *itemState) error {
	bom, err := o.backend.DefaultBOM(ctx, st.item.ItemCode)
	if errors.Is(err, erpnext.ErrNotFound) {
		return fmt.Errorf("%w %s", ErrMissingBOM, st.item.ItemCode)
	}
	if err != nil {
		return err
	}
	st.bom = bom.Name
	st.step = StepCreateWorkOrder
	return nil
}

func (o *Orchestrator) createWorkOrder(ctx context.Context, st *itemState) error {
	wo, err := o.backend.CreateWorkOrder(ctx, erpnext.NewWorkOrder{
		ProductionItem:   st.item.ItemCode,
		Qty:              st.item.Qty,
		BOMNo:            st.bom,
		Company:          o.settings.Company,
		FGWarehouse:      o.settings.FGWarehouse,
		WIPWarehouse:     o.settings.WIPWarehouse,
		PlannedStartDate: o.now().Format(time.DateTime),
		SalesOrder:       st.order,
		SalesOrderItem:   st.item.Name,
	})
	if err != nil {
		return fmt.Errorf("create work order: %w", err)
	}
	st.workOrder = wo.Name
	st.workOrderQty = wo.Qty
	logr.FromContextOrDiscard(ctx).Info("work order created", "workOrder", wo.Name, "bom", st.bom)

	if err := o.awaitDocStatus(ctx, erpnext.DoctypeWorkOrder, wo.Name); err != nil {
		return err
	}
	st.step = StepTransferMaterial
	return nil
}

func (o *Orchestrator) transferMaterial(ctx context.Context, st *itemState) error {
	draft, err := o.backend.MakeStockEntry(ctx, st.workOrder, erpnext.PurposeMaterialTransfer, st.qty())
	if err != nil {
		return fmt.Errorf("generate material transfer: %w", err)
	}
	se, err := o.backend.CreateStockEntry(ctx, draft.WithDocStatus(erpnext.DocStatusSubmitted))
	if err != nil {
		return fmt.Errorf("create material transfer: %w", err)
	}
	logr.FromContextOrDiscard(ctx).Info("material transferred", "workOrder", st.workOrder, "stockEntry", se.Name)

	if err := o.awaitDocStatus(ctx, erpnext.DoctypeStockEntry, se.Name); err != nil {
		return err
	}
	st.step = StepMarkInProcess
	return nil
}

// markInProcess is cosmetic for the backend; failures are logged only.
func (o *Orchestrator) markInProcess(ctx context.Context, st *itemState) {
	if err := o.backend.SetWorkOrderStatus(ctx, st.workOrder, erpnext.WorkOrderInProcess); err != nil {
		logr.FromContextOrDiscard(ctx).Error(err, "could not mark work order in process", "workOrder", st.workOrder)
	}
	st.step = StepPrepareManufacture
}

func (o *Orchestrator) prepareManufacture(ctx context.Context, st *itemState) error {
	if st.manufactureEntry == "" {
		entry, err := st.recorder.Prepare(ctx, st.workOrder, st.qty())
		if err != nil {
			return err
		}
		if entry != "" {
			logr.FromContextOrDiscard(ctx).Info("draft manufacture entry created", "stockEntry", entry)
		}
		st.manufactureEntry = entry
	}
	st.step = StepTriggerPhysical
	return nil
}

func (o *Orchestrator) triggerPhysical(ctx context.Context, st *itemState) error {
	h, err := st.route.Device.Start(ctx, device.Task{
		WorkOrder:  st.workOrder,
		StockEntry: st.manufactureEntry,
		ItemCode:   st.item.ItemCode,
		Qty:        st.qty(),
		File:       st.route.File,
	})
	if err != nil {
		return fmt.Errorf("start %s job: %w", st.route.Device.Name(), err)
	}
	st.handle = h
	st.step = StepAwaitPhysical
	return nil
}

func (o *Orchestrator) awaitPhysical(ctx context.Context, st *itemState) error {
	name := st.route.Device.Name()
	outcome, err := st.route.Device.AwaitCompletion(ctx, st.handle, st.route.Wait)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", name, err)
	}
	o.recordDeviceJob(name, outcome)

	switch outcome {
	case device.Success:
		logr.FromContextOrDiscard(ctx).Info("physical production finished", "device", name)
		st.step = StepRecordManufacture
		return nil
	case device.Failure:
		return fmt.Errorf("%w on %s for work order %s", ErrDeviceJobFailure, name, st.workOrder)
	default:
		return fmt.Errorf("%w on %s for work order %s", ErrDeviceJobTimeout, name, st.workOrder)
	}
}

func (o *Orchestrator) recordManufacture(ctx context.Context, st *itemState) error {
	entry, err := st.recorder.Commit(ctx, st.workOrder, st.qty(), st.manufactureEntry)
	if err != nil {
		return err
	}
	st.manufactureEntry = entry
	logr.FromContextOrDiscard(ctx).Info("manufacture entry submitted", "stockEntry", entry, "policy", string(st.recorder.Policy()))

	if err := o.awaitDocStatus(ctx, erpnext.DoctypeStockEntry, entry); err != nil {
		return err
	}
	st.step = StepAwaitBackendCompletion
	return nil
}

func (o *Orchestrator) awaitBackendCompletion(ctx context.Context, st *itemState) error {
	if err := o.awaitDocStatus(ctx, erpnext.DoctypeWorkOrder, st.workOrder); err != nil {
		return err
	}
	wo, err := o.backend.GetWorkOrder(ctx, st.workOrder)
	if err != nil {
		return fmt.Errorf("re-fetch work order: %w", err)
	}
	if wo.Status != erpnext.WorkOrderCompleted {
		return fmt.Errorf("%w: work order %s stuck at status %q", ErrBackendAnomaly, wo.Name, wo.Status)
	}
	st.step = StepDone
	return nil
}

func (o *Orchestrator) awaitDocStatus(ctx context.Context, doctype, name string) error {
	return docstatus.Await(ctx, o.backend, doctype, name, erpnext.DocStatusSubmitted, o.settings.DocStatus)
}
