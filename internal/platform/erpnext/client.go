// Package erpnext is a small client for the Frappe resource API exposed by
// ERPNext. It covers the doctypes the manufacturing flow touches (Sales Order,
// BOM, Work Order, Stock Entry) and nothing else.
package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrBackendUnavailable wraps every transport failure, non-2xx response and
// undecodable body. Callers treat it as transient.
var ErrBackendUnavailable = errors.New("erpnext backend unavailable")

// ErrNotFound is returned by lookups that expect at least one matching document.
var ErrNotFound = errors.New("document not found")

const defaultTimeout = 30 * time.Second

// Client talks to a single ERPNext site using token authentication.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for the site at baseURL.
func NewClient(baseURL, apiKey, apiSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the site URL the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Filter is a single Frappe filter triple, e.g. Filter{"docstatus", "=", 1}.
type Filter [3]any

// ListQuery narrows a resource listing.
type ListQuery struct {
	Filters []Filter
	Fields  []string
	// Limit caps the number of rows. Zero returns every row.
	Limit int
}

func (q ListQuery) values() (url.Values, error) {
	v := url.Values{}
	if len(q.Filters) > 0 {
		b, err := json.Marshal(q.Filters)
		if err != nil {
			return nil, fmt.Errorf("encode filters: %w", err)
		}
		v.Set("filters", string(b))
	}
	if len(q.Fields) > 0 {
		b, err := json.Marshal(q.Fields)
		if err != nil {
			return nil, fmt.Errorf("encode fields: %w", err)
		}
		v.Set("fields", string(b))
	}
	v.Set("limit_page_length", strconv.Itoa(q.Limit))
	return v, nil
}

// APIError describes a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Type != "" && e.Message != "":
		return fmt.Sprintf("API error (status %d): %s: %s", e.StatusCode, e.Type, e.Message)
	case e.Message != "":
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("API error (status %d)", e.StatusCode)
	}
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type messageEnvelope struct {
	Message json.RawMessage `json:"message"`
}

type errorBody struct {
	ExcType   string `json:"exc_type"`
	Exception string `json:"exception"`
	Message   string `json:"message"`
}

// List fetches documents of doctype and decodes the "data" array into out.
func (c *Client) List(ctx context.Context, doctype string, q ListQuery, out any) error {
	v, err := q.values()
	if err != nil {
		return err
	}
	path := "/api/resource/" + url.PathEscape(doctype) + "?" + v.Encode()
	if err := c.doData(ctx, http.MethodGet, path, nil, out); err != nil {
		return fmt.Errorf("list %s: %w", doctype, err)
	}
	return nil
}

// Get fetches one document.
func (c *Client) Get(ctx context.Context, doctype, name string, out any) error {
	if err := c.doData(ctx, http.MethodGet, resourcePath(doctype, name), nil, out); err != nil {
		return fmt.Errorf("get %s %s: %w", doctype, name, err)
	}
	return nil
}

// Create inserts a document. The body is sent inside a "data" envelope.
func (c *Client) Create(ctx context.Context, doctype string, doc, out any) error {
	body := map[string]any{"data": doc}
	if err := c.doData(ctx, http.MethodPost, "/api/resource/"+url.PathEscape(doctype), body, out); err != nil {
		return fmt.Errorf("create %s: %w", doctype, err)
	}
	return nil
}

// Update applies a partial update to a document.
func (c *Client) Update(ctx context.Context, doctype, name string, fields, out any) error {
	if err := c.doData(ctx, http.MethodPut, resourcePath(doctype, name), fields, out); err != nil {
		return fmt.Errorf("update %s %s: %w", doctype, name, err)
	}
	return nil
}

// Call invokes a whitelisted server method and decodes its "message" into out.
func (c *Client) Call(ctx context.Context, method string, args, out any) error {
	raw, err := c.do(ctx, http.MethodPost, "/api/method/"+method, args)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	if out == nil {
		return nil
	}
	var env messageEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("call %s: %w: parse response: %w", method, ErrBackendUnavailable, err)
	}
	if len(env.Message) == 0 || string(env.Message) == "null" {
		return fmt.Errorf("call %s: %w: empty message payload", method, ErrBackendUnavailable)
	}
	if err := json.Unmarshal(env.Message, out); err != nil {
		return fmt.Errorf("call %s: %w: parse message: %w", method, ErrBackendUnavailable, err)
	}
	return nil
}

// Ping checks that the site answers and the credentials are accepted.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var user string
	if err := c.Call(ctx, "frappe.auth.get_logged_user", nil, &user); err != nil {
		return "", err
	}
	return user, nil
}

func resourcePath(doctype, name string) string {
	return "/api/resource/" + url.PathEscape(doctype) + "/" + url.PathEscape(name)
}

func (c *Client) doData(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	var env dataEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: parse response: %w", ErrBackendUnavailable, err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: response has no data field", ErrBackendUnavailable)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: parse data: %w", ErrBackendUnavailable, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.apiKey, c.apiSecret))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrBackendUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, parseAPIError(resp.StatusCode, raw))
	}
	return raw, nil
}

func parseAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		apiErr.Type = eb.ExcType
		apiErr.Message = eb.Exception
		if apiErr.Message == "" {
			apiErr.Message = eb.Message
		}
	}
	if apiErr.Message == "" {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		apiErr.Message = msg
	}
	return apiErr
}
