package orchestration

import (
	"errors"
	"fmt"

	"github.com/imamik/cellflow/internal/device"
)

var (
	// ErrMissingBOM means the item has no default bill of materials. It fails
	// the item only; sibling items are still attempted.
	ErrMissingBOM = errors.New("no default BOM for item")

	// ErrMissingDeviceMapping means no device route exists for the item code.
	ErrMissingDeviceMapping = device.ErrNoRoute

	// ErrDeviceJobFailure means the device reported a failed job.
	ErrDeviceJobFailure = errors.New("device job failed")

	// ErrDeviceJobTimeout means the device did not finish within its wait budget.
	ErrDeviceJobTimeout = errors.New("device job timed out")

	// ErrBackendAnomaly means the backend did not apply a transition it should
	// have, e.g. a Work Order that is not Completed after its manufacture entry
	// was submitted.
	ErrBackendAnomaly = errors.New("backend anomaly")
)

// ItemError records where an item chain stopped.
type ItemError struct {
	Order    string
	ItemCode string
	Line     string
	Step     Step
	Err      error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("order %s item %s (line %s) failed at %s: %v", e.Order, e.ItemCode, e.Line, e.Step, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// continuesOrder reports whether the remaining items of the order may still
// be attempted after err.
func continuesOrder(err error) bool {
	return errors.Is(err, ErrMissingBOM)
}
