package orchestration

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/imamik/cellflow/internal/platform/erpnext"
)

// ManufactureRecorder records the Manufacture stock entry of a Work Order.
type ManufactureRecorder interface {
	Policy() Policy
	// Prepare runs before the device starts. It returns the id of a draft
	// entry, or "" when the policy does not create one.
	Prepare(ctx context.Context, workOrder string, qty decimal.Decimal) (string, error)
	// Commit runs after the device reported success and returns the id of
	// the entry that must reach docstatus 1.
	Commit(ctx context.Context, workOrder string, qty decimal.Decimal, draft string) (string, error)
}

type immediateRecorder struct {
	backend Backend
}

func (r *immediateRecorder) Policy() Policy { return PolicyImmediate }

func (r *immediateRecorder) Prepare(context.Context, string, decimal.Decimal) (string, error) {
	return "", nil
}

func (r *immediateRecorder) Commit(ctx context.Context, workOrder string, qty decimal.Decimal, _ string) (string, error) {
	return createManufactureEntry(ctx, r.backend, workOrder, qty, erpnext.DocStatusSubmitted)
}

type draftConfirmRecorder struct {
	backend Backend
}

func (r *draftConfirmRecorder) Policy() Policy { return PolicyDraftConfirm }

func (r *draftConfirmRecorder) Prepare(ctx context.Context, workOrder string, qty decimal.Decimal) (string, error) {
	return createManufactureEntry(ctx, r.backend, workOrder, qty, erpnext.DocStatusDraft)
}

func (r *draftConfirmRecorder) Commit(ctx context.Context, _ string, _ decimal.Decimal, draft string) (string, error) {
	if draft == "" {
		return "", fmt.Errorf("%w: no draft manufacture entry to submit", ErrBackendAnomaly)
	}
	if err := r.backend.SubmitStockEntry(ctx, draft); err != nil {
		return "", fmt.Errorf("submit manufacture entry %s: %w", draft, err)
	}
	return draft, nil
}

func createManufactureEntry(ctx context.Context, backend Backend, workOrder string, qty decimal.Decimal, status int) (string, error) {
	draft, err := backend.MakeStockEntry(ctx, workOrder, erpnext.PurposeManufacture, qty)
	if err != nil {
		return "", fmt.Errorf("generate manufacture entry: %w", err)
	}
	se, err := backend.CreateStockEntry(ctx, draft.WithDocStatus(status))
	if err != nil {
		return "", fmt.Errorf("create manufacture entry: %w", err)
	}
	return se.Name, nil
}
