package wizard

import (
	"context"
	"fmt"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	// ERPNext
	ERPNextURL   string
	Company      string
	FGWarehouse  string
	WIPWarehouse string

	// Devices
	UsePrinter bool
	PrinterURL string
	UseSorter  bool
	SorterURL  string
	QCFlowMode bool

	// Manufacture recording policy
	Policy string

	// Item routing
	Routes        []RouteAnswer
	DefaultDevice string
	DefaultFile   string

	// Advanced options (only set in advanced mode)
	AdvancedOptions *AdvancedOptions
}

// RouteAnswer is one item code to device mapping.
type RouteAnswer struct {
	ItemCode string
	Device   string
	File     string
}

// AdvancedOptions holds the polling and ops settings.
type AdvancedOptions struct {
	LoopInterval   string
	PrinterMaxWait string
	OpsListen      string
	LogLevel       string
	LogFormat      string
}

// RunWizard runs the interactive configuration wizard.
// If advanced is true, additional configuration options are shown.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context, advanced bool) (*WizardResult, error) {
	result := &WizardResult{}

	if err := runERPNextGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("erpnext: %w", err)
	}

	if err := runDevicesGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("devices: %w", err)
	}

	if err := runPolicyGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("manufacture policy: %w", err)
	}

	if err := runRoutesGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}

	if advanced {
		advOpts := &AdvancedOptions{}

		if err := runAdvancedGroup(ctx, advOpts); err != nil {
			return nil, fmt.Errorf("advanced: %w", err)
		}

		result.AdvancedOptions = advOpts
	}

	return result, nil
}
