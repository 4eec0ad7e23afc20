package orchestration

import "fmt"

// Step is a state of the per-item chain.
type Step string

// Steps in execution order.
const (
	StepStart                  Step = "Start"
	StepResolveBOM             Step = "ResolveBOM"
	StepCreateWorkOrder        Step = "CreateWorkOrder"
	StepTransferMaterial       Step = "TransferMaterial"
	StepMarkInProcess          Step = "MarkInProcess"
	StepPrepareManufacture     Step = "PrepareManufacture"
	StepTriggerPhysical        Step = "TriggerPhysicalProduction"
	StepAwaitPhysical          Step = "AwaitPhysicalCompletion"
	StepRecordManufacture      Step = "RecordManufacture"
	StepAwaitBackendCompletion Step = "AwaitBackendCompletion"
	StepDone                   Step = "Done"
)

// Policy selects how the Manufacture stock entry is recorded.
type Policy string

// Recording policies.
const (
	// PolicyImmediate creates and submits the entry after the device succeeds.
	PolicyImmediate Policy = "immediate"
	// PolicyDraftConfirm creates a draft before the device starts and
	// submits it only once the device reports success.
	PolicyDraftConfirm Policy = "draft_confirm"
)

// ParsePolicy validates a policy name. The empty string maps to def.
func ParsePolicy(s string, def Policy) (Policy, error) {
	switch Policy(s) {
	case "":
		return def, nil
	case PolicyImmediate, PolicyDraftConfirm:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown manufacture policy %q (want %s or %s)", s, PolicyImmediate, PolicyDraftConfirm)
	}
}
