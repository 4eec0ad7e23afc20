package erpnext

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "key", "secret", WithHTTPClient(srv.Client()))
}

func TestClient_AuthHeader(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token key:secret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[]}`)
	})

	orders, err := c.ListSubmittedSalesOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListSubmittedSalesOrders(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/resource/Sales Order", r.URL.Path)
		q := r.URL.Query()
		assert.JSONEq(t, `[["docstatus","=",1]]`, q.Get("filters"))
		assert.JSONEq(t, `["name","transaction_date","customer"]`, q.Get("fields"))
		assert.Equal(t, "0", q.Get("limit_page_length"))
		_, _ = io.WriteString(w, `{"data":[{"name":"SO-1001","transaction_date":"2025-01-10","customer":"ACME"}]}`)
	})

	orders, err := c.ListSubmittedSalesOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, SalesOrder{Name: "SO-1001", TransactionDate: "2025-01-10", Customer: "ACME"}, orders[0])
}

func TestGetSalesOrderItems(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/resource/Sales Order/SO-1001", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":{"name":"SO-1001","items":[
			{"name":"L1","parent":"SO-1001","item_code":"GEAR-A","qty":2},
			{"name":"L2","item_code":"BOX-B","qty":"1.5"}]}}`)
	})

	items, err := c.GetSalesOrderItems(context.Background(), "SO-1001")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "GEAR-A", items[0].ItemCode)
	assert.True(t, items[0].Qty.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "SO-1001", items[1].Parent)
	assert.True(t, items[1].Qty.Equal(decimal.RequireFromString("1.5")))
}

func TestClient_ErrorsAreBackendUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"exc_type":"ValidationError","exception":"boom"}`)
			},
		},
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"data":`)
			},
		},
		{
			name: "missing data",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, tt.handler)
			_, err := c.ListSubmittedSalesOrders(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBackendUnavailable)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "k", "s")
	_, err := c.GetSalesOrderItems(context.Background(), "SO-1")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestClient_APIErrorDetails(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusExpectationFailed)
		_, _ = io.WriteString(w, `{"exc_type":"MandatoryError","exception":"frappe.exceptions.MandatoryError: bom_no"}`)
	})

	_, err := c.GetWorkOrder(context.Background(), "WO-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusExpectationFailed, apiErr.StatusCode)
	assert.Equal(t, "MandatoryError", apiErr.Type)
	assert.Contains(t, err.Error(), "bom_no")
}

func TestDefaultBOM(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/resource/BOM", r.URL.Path)
			assert.JSONEq(t, `[["item","=","GEAR-A"],["is_default","=",1]]`, r.URL.Query().Get("filters"))
			_, _ = io.WriteString(w, `{"data":[{"name":"BOM-GEAR-A-001","item":"GEAR-A","is_default":1}]}`)
		})
		bom, err := c.DefaultBOM(context.Background(), "GEAR-A")
		require.NoError(t, err)
		assert.Equal(t, "BOM-GEAR-A-001", bom.Name)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"data":[]}`)
		})
		_, err := c.DefaultBOM(context.Background(), "GEAR-A")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrBackendUnavailable)
	})
}

func TestCreateWorkOrder(t *testing.T) {
	t.Parallel()
	var got map[string]map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/resource/Work Order", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"data":{"name":"WO-0001","production_item":"GEAR-A","qty":2,"docstatus":1,"status":"Not Started"}}`)
	})

	wo, err := c.CreateWorkOrder(context.Background(), NewWorkOrder{
		ProductionItem: "GEAR-A",
		Qty:            decimal.NewFromInt(2),
		BOMNo:          "BOM-GEAR-A-001",
		Company:        "Cell Co",
		FGWarehouse:    "Finished Goods",
		WIPWarehouse:   "WIP",
		SalesOrder:     "SO-1001",
		SalesOrderItem: "L1",
	})
	require.NoError(t, err)
	assert.Equal(t, "WO-0001", wo.Name)
	assert.Equal(t, WorkOrderNotStarted, wo.Status)

	data := got["data"]
	require.NotNil(t, data)
	assert.InDelta(t, 2.0, data["qty"], 0)
	assert.InDelta(t, 1.0, data["docstatus"], 0)
	assert.InDelta(t, 0.0, data["use_operations"], 0)
	assert.Equal(t, "SO-1001", data["sales_order"])
	assert.Equal(t, "L1", data["sales_order_item"])
	assert.Equal(t, "BOM-GEAR-A-001", data["bom_no"])
}

func TestMakeStockEntry(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/method/"+makeStockEntryMethod, r.URL.Path)
		var args map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&args))
		assert.Equal(t, "WO-0001", args["work_order_id"])
		assert.Equal(t, PurposeManufacture, args["purpose"])
		_, _ = io.WriteString(w, `{"message":{"purpose":"Manufacture","work_order":"WO-0001","items":[{"item_code":"GEAR-A"}]}}`)
	})

	draft, err := c.MakeStockEntry(context.Background(), "WO-0001", PurposeManufacture, decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.Equal(t, "WO-0001", draft["work_order"])

	submitted := draft.WithDocStatus(DocStatusSubmitted)
	assert.Equal(t, 1, submitted["docstatus"])
	_, mutated := draft["docstatus"]
	assert.False(t, mutated)
}

func TestMakeStockEntry_EmptyMessage(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"message":null}`)
	})

	_, err := c.MakeStockEntry(context.Background(), "WO-0001", PurposeManufacture, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestSubmitStockEntry(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/resource/Stock Entry/MAT-STE-0002", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"docstatus":1}`, string(body))
		_, _ = io.WriteString(w, `{"data":{"name":"MAT-STE-0002","docstatus":1}}`)
	})

	require.NoError(t, c.SubmitStockEntry(context.Background(), "MAT-STE-0002"))
}

func TestSetWorkOrderStatus(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"In Process"}`, string(body))
		_, _ = io.WriteString(w, `{"data":{"name":"WO-0001"}}`)
	})

	require.NoError(t, c.SetWorkOrderStatus(context.Background(), "WO-0001", WorkOrderInProcess))
}

func TestFindWorkOrdersAndStockEntries(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/resource/Work Order":
			assert.JSONEq(t,
				`[["production_item","=","GEAR-A"],["sales_order","=","SO-1"],["sales_order_item","=","L1"],["docstatus","=",1]]`,
				r.URL.Query().Get("filters"))
			_, _ = io.WriteString(w, `{"data":[{"name":"WO-1","status":"Completed","docstatus":1}]}`)
		case "/api/resource/Stock Entry":
			assert.JSONEq(t, `[["work_order","=","WO-1"],["docstatus","<",2]]`, r.URL.Query().Get("filters"))
			_, _ = io.WriteString(w, `{"data":[{"name":"SE-1","purpose":"Manufacture","docstatus":0}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	wos, err := c.FindWorkOrders(context.Background(), "GEAR-A", "SO-1", "L1")
	require.NoError(t, err)
	require.Len(t, wos, 1)
	assert.Equal(t, WorkOrderCompleted, wos[0].Status)

	entries, err := c.FindStockEntries(context.Background(), "WO-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DocStatusDraft, entries[0].DocStatus)
}

func TestDocStatus(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"name":"WO-1","docstatus":1}}`)
	})

	status, err := c.DocStatus(context.Background(), DoctypeWorkOrder, "WO-1")
	require.NoError(t, err)
	assert.Equal(t, DocStatusSubmitted, status)
}

func TestAPIError_Message(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "API error (status 500)", (&APIError{StatusCode: 500}).Error())
	assert.Equal(t, "API error (status 404): missing", (&APIError{StatusCode: 404, Message: "missing"}).Error())
}
