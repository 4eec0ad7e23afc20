// Package nodered talks to the Node-RED flow that drives the conveyor and the
// sorting arm. The flow exposes plain HTTP-in endpoints without auth.
package nodered

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable wraps transport failures and non-2xx responses.
var ErrUnavailable = errors.New("node-red unavailable")

// Sorting status values reported by the flow.
const (
	StatusDone    = "done"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// Flow mode actions.
const (
	FlowModeStart = "start"
	FlowModeEnd   = "end"
)

// Client talks to one Node-RED instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithHTTPClient creates a client using hc (for testing).
func NewClientWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := NewClient(baseURL)
	c.httpClient = hc
	return c
}

// SortRequest starts sorting for one manufacture stock entry.
type SortRequest struct {
	WorkOrder  string  `json:"work_order"`
	StockEntry string  `json:"stock_entry"`
	ItemCode   string  `json:"item_code"`
	Qty        float64 `json:"qty"`
	Timestamp  string  `json:"timestamp"`
}

// TimestampLayout formats the trigger timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// SortStatus is the body returned by the status endpoint.
type SortStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	// Timestamp echoes the trigger the status belongs to, when the flow
	// reports it.
	Timestamp string `json:"timestamp,omitempty"`
}

// Ping checks that the flow is deployed and listening.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/ping", nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// SetFlowMode switches the QC flow on or off.
func (c *Client) SetFlowMode(ctx context.Context, action string) error {
	if err := c.do(ctx, http.MethodPost, "/flow_mode", map[string]string{"action": action}, nil); err != nil {
		return fmt.Errorf("flow mode %s: %w", action, err)
	}
	return nil
}

// TriggerSorting asks the flow to start sorting.
func (c *Client) TriggerSorting(ctx context.Context, req SortRequest) error {
	if err := c.do(ctx, http.MethodPost, "/trigger_sorting", req, nil); err != nil {
		return fmt.Errorf("trigger sorting for %s: %w", req.StockEntry, err)
	}
	return nil
}

// SortingStatus returns the sorting status for a stock entry.
func (c *Client) SortingStatus(ctx context.Context, stockEntry string) (*SortStatus, error) {
	var st SortStatus
	if err := c.do(ctx, http.MethodGet, "/sorting_status/"+url.PathEscape(stockEntry), nil, &st); err != nil {
		return nil, fmt.Errorf("sorting status for %s: %w", stockEntry, err)
	}
	return &st, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: parse response: %w", ErrUnavailable, err)
	}
	return nil
}
