// Package octoprint is a minimal client for the OctoPrint REST API.
package octoprint

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
var ErrUnavailable = errors.New("octoprint unavailable")

// Printer states reported by OctoPrint that the flow cares about.
const (
	StateOperational      = "Operational"
	StatePrinting         = "Printing"
	StateError            = "Error"
	StateCancelled        = "Cancelled"
	StateOfflineAfterErr  = "Offline after error"
	StateCancellingPrefix = "Cancelling"
)

// Client talks to one OctoPrint instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithHTTPClient creates a client using hc (for testing).
func NewClientWithHTTPClient(baseURL, apiKey string, hc *http.Client) *Client {
	c := NewClient(baseURL, apiKey)
	c.httpClient = hc
	return c
}

// PrinterState is the response of GET /api/printer, reduced to its state.
type PrinterState struct {
	State struct {
		Text  string          `json:"text"`
		Flags map[string]bool `json:"flags"`
	} `json:"state"`
}

// Job is the response of GET /api/job.
type Job struct {
	State string `json:"state"`
	Job   struct {
		File struct {
			Name string `json:"name"`
		} `json:"file"`
	} `json:"job"`
	Progress Progress `json:"progress"`
}

// Progress of the current job. Fields are null when no job is loaded.
type Progress struct {
	Completion    *float64 `json:"completion"`
	PrintTime     *int     `json:"printTime"`
	PrintTimeLeft *int     `json:"printTimeLeft"`
}

// FileName returns the name of the loaded file.
func (j *Job) FileName() string {
	return j.Job.File.Name
}

// Completion returns the completion percentage, or -1 when unknown.
func (j *Job) Completion() float64 {
	if j.Progress.Completion == nil {
		return -1
	}
	return *j.Progress.Completion
}

// Printer returns the current printer state.
func (c *Client) Printer(ctx context.Context) (*PrinterState, error) {
	var ps PrinterState
	if err := c.do(ctx, http.MethodGet, "/api/printer", nil, &ps); err != nil {
		return nil, fmt.Errorf("get printer state: %w", err)
	}
	return &ps, nil
}

// CurrentJob returns the state of the current job.
func (c *Client) CurrentJob(ctx context.Context) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "/api/job", nil, &job); err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// SelectAndPrint selects a file from local storage and starts printing it.
func (c *Client) SelectAndPrint(ctx context.Context, file string) error {
	body := map[string]any{"command": "select", "print": true}
	if err := c.do(ctx, http.MethodPost, "/api/files/local/"+url.PathEscape(file), body, nil); err != nil {
		return fmt.Errorf("start print %s: %w", file, err)
	}
	return nil
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
	req.Header.Set("X-Api-Key", c.apiKey)
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
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: parse response: %w", ErrUnavailable, err)
	}
	return nil
}
