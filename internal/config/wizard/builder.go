package wizard

import (
	"strings"
	"time"

	"github.com/imamik/cellflow/internal/config"
)

// BuildConfig creates a Config struct from the wizard result.
// Defaults are not applied so the written file stays minimal.
func BuildConfig(result *WizardResult) *config.Config {
	cfg := &config.Config{
		ERPNext: config.ERPNextConfig{
			URL:          strings.TrimRight(result.ERPNextURL, "/"),
			Company:      result.Company,
			FGWarehouse:  result.FGWarehouse,
			WIPWarehouse: result.WIPWarehouse,
		},
		Manufacture: config.ManufactureConfig{Policy: result.Policy},
	}

	if result.UsePrinter {
		cfg.Printer.URL = strings.TrimRight(result.PrinterURL, "/")
	}
	if result.UseSorter {
		cfg.Sorter.URL = strings.TrimRight(result.SorterURL, "/")
		cfg.Sorter.QCFlowMode = result.QCFlowMode
	}

	if len(result.Routes) > 0 {
		cfg.Routes = make(map[string]config.Route, len(result.Routes))
		for _, r := range result.Routes {
			cfg.Routes[r.ItemCode] = buildRoute(r, result.Policy)
		}
	}

	cfg.DefaultDevice = result.DefaultDevice
	if result.DefaultDevice == config.DevicePrinter {
		cfg.DefaultFile = result.DefaultFile
	}

	if result.AdvancedOptions != nil {
		applyAdvancedOptions(cfg, result.AdvancedOptions)
	}

	return cfg
}

// buildRoute pins sorter routes to draft/confirm when the default differs.
func buildRoute(r RouteAnswer, defaultPolicy string) config.Route {
	route := config.Route{Device: r.Device}
	switch r.Device {
	case config.DevicePrinter:
		route.File = strings.TrimSpace(r.File)
	case config.DeviceSorter:
		if defaultPolicy != config.PolicyDraftConfirm {
			route.Policy = config.PolicyDraftConfirm
		}
	}
	return route
}

// applyAdvancedOptions copies non-default advanced answers into cfg.
func applyAdvancedOptions(cfg *config.Config, opts *AdvancedOptions) {
	if d, err := time.ParseDuration(opts.LoopInterval); err == nil && d != config.DefaultLoopInterval {
		cfg.Loop.Interval = d
	}
	if d, err := time.ParseDuration(opts.PrinterMaxWait); err == nil && d != config.DefaultPrinterMaxWait {
		cfg.Printer.MaxWait = d
	}
	if opts.OpsListen != config.DefaultOpsListen {
		cfg.Ops = &config.OpsConfig{Listen: opts.OpsListen}
	}
	if opts.LogLevel != "" && opts.LogLevel != "info" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" && opts.LogFormat != config.LogFormatConsole {
		cfg.Log.Format = opts.LogFormat
	}
}
