package orchestration

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/cellflow/internal/platform/erpnext"
)

// resumePoint picks the first step to run for an item that has no Completed
// Work Order. Existing documents are reused, never recreated.
func (o *Orchestrator) resumePoint(ctx context.Context, st *itemState, known []erpnext.WorkOrder) (Step, error) {
	if len(known) == 0 {
		return StepResolveBOM, nil
	}
	logger := logr.FromContextOrDiscard(ctx)

	wo := known[0]
	if len(known) > 1 {
		logger.Info("several submitted work orders for one line, resuming the first", "workOrders", len(known), "workOrder", wo.Name)
	}
	if wo.Status == erpnext.WorkOrderStopped {
		return "", fmt.Errorf("%w: work order %s is stopped", ErrBackendAnomaly, wo.Name)
	}

	st.workOrder = wo.Name
	st.workOrderQty = wo.Qty
	st.bom = wo.BOMNo
	st.resumed = true

	entries, err := o.backend.FindStockEntries(ctx, wo.Name)
	if err != nil {
		return "", fmt.Errorf("look up stock entries of %s: %w", wo.Name, err)
	}

	var transferred bool
	var draft, submitted string
	for _, e := range entries {
		switch {
		case e.Purpose == erpnext.PurposeManufacture && e.DocStatus == erpnext.DocStatusSubmitted:
			submitted = e.Name
		case e.Purpose == erpnext.PurposeManufacture && e.DocStatus == erpnext.DocStatusDraft && draft == "":
			draft = e.Name
		case e.Purpose == erpnext.PurposeMaterialTransfer && e.DocStatus == erpnext.DocStatusSubmitted:
			transferred = true
		}
	}

	var next Step
	switch {
	case submitted != "":
		st.manufactureEntry = submitted
		next = StepAwaitBackendCompletion
	case draft != "":
		// Only the draft-then-confirm recorder can finish a draft.
		if st.recorder.Policy() != PolicyDraftConfirm {
			logger.Info("reusing draft manufacture entry with draft_confirm policy", "stockEntry", draft)
			st.recorder = o.recorders[PolicyDraftConfirm]
		}
		st.manufactureEntry = draft
		next = StepTriggerPhysical
	case transferred:
		next = StepMarkInProcess
	default:
		next = StepTransferMaterial
	}

	logger.Info("resuming item", "workOrder", wo.Name, "status", wo.Status, "step", string(next))
	return next, nil
}
