package wizard

import (
	"github.com/charmbracelet/huh"

	"github.com/imamik/cellflow/internal/config"
)

// DeviceOptions contains the device kinds an item can be routed to.
var DeviceOptions = []huh.Option[string]{
	huh.NewOption("3D printer (OctoPrint)", config.DevicePrinter),
	huh.NewOption("Sorting station (Node-RED)", config.DeviceSorter),
}

// DefaultDeviceOptions adds the choice of having no fallback route.
var DefaultDeviceOptions = append([]huh.Option[string]{
	huh.NewOption("None (unrouted items fail)", ""),
}, DeviceOptions...)

// PolicyOptions contains the manufacture recording policies.
var PolicyOptions = []huh.Option[string]{
	huh.NewOption("Immediate - record Manufacture after the device finishes", config.PolicyImmediate),
	huh.NewOption("Draft/confirm - draft before the job, submit on success", config.PolicyDraftConfirm),
}

// LogFormatOptions contains the supported log encoders.
var LogFormatOptions = []huh.Option[string]{
	huh.NewOption("Console (human readable)", config.LogFormatConsole),
	huh.NewOption("JSON (log shippers)", config.LogFormatJSON),
}

// LogLevelOptions contains the supported log levels.
var LogLevelOptions = []huh.Option[string]{
	huh.NewOption("Info", "info"),
	huh.NewOption("Debug", "debug"),
	huh.NewOption("Warn", "warn"),
	huh.NewOption("Error", "error"),
}

// EnabledDeviceOptions narrows DeviceOptions to the devices the user enabled.
func EnabledDeviceOptions(usePrinter, useSorter bool) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, opt := range DeviceOptions {
		switch opt.Value {
		case config.DevicePrinter:
			if usePrinter {
				opts = append(opts, opt)
			}
		case config.DeviceSorter:
			if useSorter {
				opts = append(opts, opt)
			}
		}
	}
	return opts
}
