package erpnext

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Doctype names.
const (
	DoctypeSalesOrder = "Sales Order"
	DoctypeBOM        = "BOM"
	DoctypeWorkOrder  = "Work Order"
	DoctypeStockEntry = "Stock Entry"
)

// Work Order status values set by the backend.
const (
	WorkOrderDraft      = "Draft"
	WorkOrderNotStarted = "Not Started"
	WorkOrderInProcess  = "In Process"
	WorkOrderCompleted  = "Completed"
	WorkOrderStopped    = "Stopped"
	WorkOrderCancelled  = "Cancelled"
)

// Stock Entry purposes.
const (
	PurposeMaterialTransfer = "Material Transfer for Manufacture"
	PurposeManufacture      = "Manufacture"
)

// Document lifecycle states.
const (
	DocStatusDraft     = 0
	DocStatusSubmitted = 1
	DocStatusCancelled = 2
)

const makeStockEntryMethod = "erpnext.manufacturing.doctype.work_order.work_order.make_stock_entry"

// BOM is a bill of materials header.
type BOM struct {
	Name      string `json:"name"`
	Item      string `json:"item"`
	IsDefault int    `json:"is_default"`
}

// WorkOrder is a production order for one sales order line.
type WorkOrder struct {
	Name             string          `json:"name,omitempty"`
	ProductionItem   string          `json:"production_item"`
	Qty              decimal.Decimal `json:"qty"`
	BOMNo            string          `json:"bom_no"`
	Company          string          `json:"company,omitempty"`
	FGWarehouse      string          `json:"fg_warehouse,omitempty"`
	WIPWarehouse     string          `json:"wip_warehouse,omitempty"`
	PlannedStartDate string          `json:"planned_start_date,omitempty"`
	SalesOrder       string          `json:"sales_order"`
	SalesOrderItem   string          `json:"sales_order_item"`
	Status           string          `json:"status,omitempty"`
	DocStatus        int             `json:"docstatus"`
}

// NewWorkOrder describes a Work Order to be created and submitted in one call.
type NewWorkOrder struct {
	ProductionItem   string
	Qty              decimal.Decimal
	BOMNo            string
	Company          string
	FGWarehouse      string
	WIPWarehouse     string
	PlannedStartDate string
	SalesOrder       string
	SalesOrderItem   string
}

func (w NewWorkOrder) payload() map[string]any {
	return map[string]any{
		"production_item":    w.ProductionItem,
		"qty":                w.Qty.InexactFloat64(),
		"bom_no":             w.BOMNo,
		"company":            w.Company,
		"fg_warehouse":       w.FGWarehouse,
		"wip_warehouse":      w.WIPWarehouse,
		"planned_start_date": w.PlannedStartDate,
		"sales_order":        w.SalesOrder,
		"sales_order_item":   w.SalesOrderItem,
		"use_operations":     0,
		"docstatus":          DocStatusSubmitted,
	}
}

// StockEntry is the subset of a Stock Entry the flow reads back.
type StockEntry struct {
	Name           string          `json:"name"`
	Purpose        string          `json:"purpose"`
	WorkOrder      string          `json:"work_order"`
	FGCompletedQty decimal.Decimal `json:"fg_completed_qty"`
	DocStatus      int             `json:"docstatus"`
}

// StockEntryDraft is the full payload generated by make_stock_entry. It is
// kept as a generic map because it is posted back verbatim.
type StockEntryDraft map[string]any

// WithDocStatus returns a copy of the draft with docstatus set.
func (d StockEntryDraft) WithDocStatus(status int) StockEntryDraft {
	out := make(StockEntryDraft, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	out["docstatus"] = status
	return out
}

type docStatusOnly struct {
	DocStatus int `json:"docstatus"`
}

// DocStatus returns the docstatus of any document.
func (c *Client) DocStatus(ctx context.Context, doctype, name string) (int, error) {
	var d docStatusOnly
	if err := c.Get(ctx, doctype, name, &d); err != nil {
		return 0, err
	}
	return d.DocStatus, nil
}

// DefaultBOM returns the default BOM for itemCode, or ErrNotFound.
func (c *Client) DefaultBOM(ctx context.Context, itemCode string) (*BOM, error) {
	var boms []BOM
	err := c.List(ctx, DoctypeBOM, ListQuery{
		Filters: []Filter{{"item", "=", itemCode}, {"is_default", "=", 1}},
		Fields:  []string{"name", "item", "is_default"},
	}, &boms)
	if err != nil {
		return nil, err
	}
	if len(boms) == 0 {
		return nil, fmt.Errorf("default BOM for %s: %w", itemCode, ErrNotFound)
	}
	return &boms[0], nil
}

// CreateWorkOrder creates and submits a Work Order.
func (c *Client) CreateWorkOrder(ctx context.Context, w NewWorkOrder) (*WorkOrder, error) {
	var wo WorkOrder
	if err := c.Create(ctx, DoctypeWorkOrder, w.payload(), &wo); err != nil {
		return nil, err
	}
	return &wo, nil
}

// GetWorkOrder fetches a Work Order by name.
func (c *Client) GetWorkOrder(ctx context.Context, name string) (*WorkOrder, error) {
	var wo WorkOrder
	if err := c.Get(ctx, DoctypeWorkOrder, name, &wo); err != nil {
		return nil, err
	}
	return &wo, nil
}

// FindWorkOrders lists submitted Work Orders linked to one sales order line.
func (c *Client) FindWorkOrders(ctx context.Context, itemCode, salesOrder, line string) ([]WorkOrder, error) {
	var wos []WorkOrder
	err := c.List(ctx, DoctypeWorkOrder, ListQuery{
		Filters: []Filter{
			{"production_item", "=", itemCode},
			{"sales_order", "=", salesOrder},
			{"sales_order_item", "=", line},
			{"docstatus", "=", DocStatusSubmitted},
		},
		Fields: []string{"name", "production_item", "qty", "bom_no", "sales_order", "sales_order_item", "status", "docstatus"},
	}, &wos)
	if err != nil {
		return nil, err
	}
	return wos, nil
}

// SetWorkOrderStatus overwrites the status field of a Work Order.
func (c *Client) SetWorkOrderStatus(ctx context.Context, name, status string) error {
	return c.Update(ctx, DoctypeWorkOrder, name, map[string]any{"status": status}, nil)
}

// MakeStockEntry asks the backend to generate a Stock Entry payload for a
// Work Order. The result is not saved.
func (c *Client) MakeStockEntry(ctx context.Context, workOrder, purpose string, qty decimal.Decimal) (StockEntryDraft, error) {
	args := map[string]any{
		"work_order_id": workOrder,
		"purpose":       purpose,
		"qty":           qty.InexactFloat64(),
	}
	var draft StockEntryDraft
	if err := c.Call(ctx, makeStockEntryMethod, args, &draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// CreateStockEntry saves a generated payload.
func (c *Client) CreateStockEntry(ctx context.Context, draft StockEntryDraft) (*StockEntry, error) {
	var se StockEntry
	if err := c.Create(ctx, DoctypeStockEntry, draft, &se); err != nil {
		return nil, err
	}
	return &se, nil
}

// SubmitStockEntry promotes a draft Stock Entry to docstatus 1.
func (c *Client) SubmitStockEntry(ctx context.Context, name string) error {
	return c.Update(ctx, DoctypeStockEntry, name, map[string]any{"docstatus": DocStatusSubmitted}, nil)
}

// FindStockEntries lists non-cancelled Stock Entries of a Work Order.
func (c *Client) FindStockEntries(ctx context.Context, workOrder string) ([]StockEntry, error) {
	var entries []StockEntry
	err := c.List(ctx, DoctypeStockEntry, ListQuery{
		Filters: []Filter{
			{"work_order", "=", workOrder},
			{"docstatus", "<", DocStatusCancelled},
		},
		Fields: []string{"name", "purpose", "work_order", "fg_completed_qty", "docstatus"},
	}, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
