package erpnext

import (
	"context"

	"github.com/shopspring/decimal"
)

// SalesOrder is the header of a submitted Sales Order.
type SalesOrder struct {
	Name            string `json:"name"`
	TransactionDate string `json:"transaction_date"`
	Customer        string `json:"customer"`
}

// SalesOrderItem is one line of a Sales Order.
type SalesOrderItem struct {
	// Name is the line id, unique within the order.
	Name     string          `json:"name"`
	Parent   string          `json:"parent"`
	ItemCode string          `json:"item_code"`
	Qty      decimal.Decimal `json:"qty"`
}

type salesOrderDetail struct {
	Items []SalesOrderItem `json:"items"`
}

// ListSubmittedSalesOrders returns every Sales Order with docstatus 1.
func (c *Client) ListSubmittedSalesOrders(ctx context.Context) ([]SalesOrder, error) {
	var orders []SalesOrder
	err := c.List(ctx, DoctypeSalesOrder, ListQuery{
		Filters: []Filter{{"docstatus", "=", DocStatusSubmitted}},
		Fields:  []string{"name", "transaction_date", "customer"},
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetSalesOrderItems returns the lines of one Sales Order in document order.
func (c *Client) GetSalesOrderItems(ctx context.Context, orderID string) ([]SalesOrderItem, error) {
	var so salesOrderDetail
	if err := c.Get(ctx, DoctypeSalesOrder, orderID, &so); err != nil {
		return nil, err
	}
	for i := range so.Items {
		if so.Items[i].Parent == "" {
			so.Items[i].Parent = orderID
		}
	}
	return so.Items, nil
}
