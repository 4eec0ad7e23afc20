// Package device synchronizes the manufacturing flow with the physical cell.
//
// Each controller (printer, sorter) is wrapped in a Synchronizer that starts a
// job for one Work Order and blocks until the controller reports a terminal
// outcome or the wait budget runs out.
package device

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Kind names a device family in configuration.
type Kind string

// Supported device kinds.
const (
	KindPrinter Kind = "printer"
	KindSorter  Kind = "sorter"
)

// Outcome is the terminal result of a physical job.
type Outcome int

// Possible outcomes.
const (
	Success Outcome = iota
	Failure
	Timeout
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ErrNoRoute is returned when an item code has no device mapping and no
// default device is configured.
var ErrNoRoute = errors.New("no device mapping for item")

// ErrInvalidTask is returned by Start when the task lacks a field the device
// needs.
var ErrInvalidTask = errors.New("invalid device task")

// Task correlates one Work Order with the physical job realizing it.
type Task struct {
	WorkOrder  string
	StockEntry string
	ItemCode   string
	Qty        decimal.Decimal
	// File is the job file on the device, if the device needs one.
	File string
}

// Handle identifies a started job.
type Handle struct {
	Device    string
	Task      Task
	StartedAt time.Time
}

// WaitOptions bound AwaitCompletion.
type WaitOptions struct {
	PollInterval time.Duration
	// Attempts caps the number of status polls. Zero means unbounded.
	Attempts int
	// MaxWait caps the total wait. Zero means unbounded.
	MaxWait time.Duration
}

// Synchronizer drives one device controller.
type Synchronizer interface {
	// Name identifies the device in logs and metrics.
	Name() string
	// Ping checks the controller is reachable and returns a short status.
	Ping(ctx context.Context) (string, error)
	// Start begins the physical job for task.
	Start(ctx context.Context, task Task) (Handle, error)
	// AwaitCompletion blocks until the job reaches a terminal outcome. Poll
	// failures are logged and counted but never end the wait early. The
	// returned error is non-nil only when ctx is cancelled.
	AwaitCompletion(ctx context.Context, h Handle, opts WaitOptions) (Outcome, error)
}
