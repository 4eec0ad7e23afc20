package wizard

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/imamik/cellflow/internal/config"
)

// runERPNextGroup prompts for the backend URL, company and warehouses.
func runERPNextGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("ERPNext URL").
				Description("Base URL of the ERPNext site").
				Placeholder("https://erp.example.com").
				Value(&result.ERPNextURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Company").
				Placeholder("Acme Manufacturing").
				Value(&result.Company).
				Validate(validateRequired),
			huh.NewInput().
				Title("Finished Goods Warehouse").
				Placeholder("Finished Goods - AM").
				Value(&result.FGWarehouse).
				Validate(validateRequired),
			huh.NewInput().
				Title("Work In Progress Warehouse").
				Placeholder("Work In Progress - AM").
				Value(&result.WIPWarehouse).
				Validate(validateRequired),
		).Title("ERPNext"),
	).RunWithContext(ctx)
}

// runDevicesGroup asks which devices are attached and where they live.
func runDevicesGroup(ctx context.Context, result *WizardResult) error {
	result.UsePrinter = true

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Use an OctoPrint printer?").
				Value(&result.UsePrinter),
			huh.NewConfirm().
				Title("Use a Node-RED sorting station?").
				Value(&result.UseSorter),
		).Title("Devices"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	var fields []huh.Field
	if result.UsePrinter {
		fields = append(fields, huh.NewInput().
			Title("OctoPrint URL").
			Description("The API key is read from OCTOPRINT_API_KEY").
			Placeholder("http://octopi.local").
			Value(&result.PrinterURL).
			Validate(validateURL))
	}
	if result.UseSorter {
		fields = append(fields,
			huh.NewInput().
				Title("Node-RED URL").
				Placeholder("http://nodered.local:1880").
				Value(&result.SorterURL).
				Validate(validateURL),
			huh.NewConfirm().
				Title("Switch QC flow mode around each sorting job?").
				Value(&result.QCFlowMode))
	}
	if len(fields) == 0 {
		return nil
	}

	return huh.NewForm(huh.NewGroup(fields...).Title("Device Endpoints")).RunWithContext(ctx)
}

// runPolicyGroup prompts for the default manufacture recording policy.
func runPolicyGroup(ctx context.Context, result *WizardResult) error {
	result.Policy = config.PolicyImmediate
	if result.UseSorter {
		// Sorting jobs are keyed by the draft Manufacture entry.
		result.Policy = config.PolicyDraftConfirm
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Manufacture Policy").
				Description("Sorter routes always use draft/confirm").
				Options(PolicyOptions...).
				Value(&result.Policy),
		).Title("Manufacture"),
	).RunWithContext(ctx)
}

// runRoutesGroup collects item routes until the user stops adding them.
func runRoutesGroup(ctx context.Context, result *WizardResult) error {
	devices := EnabledDeviceOptions(result.UsePrinter, result.UseSorter)
	if len(devices) == 0 {
		return nil
	}

	for {
		var route RouteAnswer
		route.Device = devices[0].Value
		more := false

		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Item Code").
					Value(&route.ItemCode).
					Validate(validateItemCode),
				huh.NewSelect[string]().
					Title("Device").
					Options(devices...).
					Value(&route.Device),
				huh.NewInput().
					Title("G-code File (printer only)").
					Placeholder("part.gcode").
					Value(&route.File),
				huh.NewConfirm().
					Title("Add another route?").
					Value(&more),
			).Title("Item Route"),
		).RunWithContext(ctx)
		if err != nil {
			return err
		}
		if err := validateRoute(route); err != nil {
			return err
		}

		result.Routes = append(result.Routes, route)
		if !more {
			break
		}
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default Device").
				Description("Used for item codes without a route").
				Options(append(DefaultDeviceOptions[:1:1], devices...)...).
				Value(&result.DefaultDevice),
		).Title("Fallback"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	if result.DefaultDevice != config.DevicePrinter {
		return nil
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default G-code File").
				Value(&result.DefaultFile).
				Validate(validateRequired),
		).Title("Fallback"),
	).RunWithContext(ctx)
}

// runAdvancedGroup prompts for polling and ops settings.
func runAdvancedGroup(ctx context.Context, opts *AdvancedOptions) error {
	opts.LoopInterval = config.DefaultLoopInterval.String()
	opts.PrinterMaxWait = config.DefaultPrinterMaxWait.String()
	opts.OpsListen = config.DefaultOpsListen
	opts.LogLevel = "info"
	opts.LogFormat = config.LogFormatConsole

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Poll Interval").
				Description("How often ERPNext is checked for new orders").
				Value(&opts.LoopInterval).
				Validate(validateDuration),
			huh.NewInput().
				Title("Printer Max Wait").
				Description("Longest a single print may run (0 waits forever)").
				Value(&opts.PrinterMaxWait).
				Validate(validateDuration),
			huh.NewInput().
				Title("Ops Listen Address").
				Description("Health and metrics endpoint; empty disables it").
				Value(&opts.OpsListen),
		).Title("Polling"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log Level").
				Options(LogLevelOptions...).
				Value(&opts.LogLevel),
			huh.NewSelect[string]().
				Title("Log Format").
				Options(LogFormatOptions...).
				Value(&opts.LogFormat),
		).Title("Logging"),
	).RunWithContext(ctx)
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errValueRequired
	}
	return nil
}

func validateURL(s string) error {
	if s == "" {
		return errValueRequired
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errURLInvalid
	}
	return nil
}

func validateItemCode(s string) error {
	if s == "" {
		return errValueRequired
	}
	if strings.ContainsAny(s, " \t") {
		return errItemCodeInvalid
	}
	return nil
}

func validateDuration(s string) error {
	if _, err := time.ParseDuration(s); err != nil {
		return errDurationInvalid
	}
	return nil
}

func validateRoute(r RouteAnswer) error {
	if r.Device == config.DevicePrinter && strings.TrimSpace(r.File) == "" {
		return errRouteFileMissing
	}
	return nil
}
