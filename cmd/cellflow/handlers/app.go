package handlers

import (
	"fmt"

	"github.com/imamik/cellflow/internal/config"
	"github.com/imamik/cellflow/internal/controller"
	"github.com/imamik/cellflow/internal/device"
	"github.com/imamik/cellflow/internal/docstatus"
	"github.com/imamik/cellflow/internal/ledger"
	"github.com/imamik/cellflow/internal/orchestration"
	"github.com/imamik/cellflow/internal/platform/erpnext"
	"github.com/imamik/cellflow/internal/platform/nodered"
	"github.com/imamik/cellflow/internal/platform/octoprint"
)

// app is the wired service graph for one configuration.
type app struct {
	cfg          *config.Config
	erp          *erpnext.Client
	devices      map[string]device.Synchronizer
	router       *device.Router
	orchestrator *orchestration.Orchestrator
	ledger       *ledger.Ledger
	loop         *controller.Loop
}

// buildApp wires clients, devices, the router, the orchestrator, the ledger
// and the scan loop from cfg.
func buildApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		erp:     erpnext.NewClient(cfg.ERPNext.URL, cfg.Secrets.ERPNextAPIKey, cfg.Secrets.ERPNextAPISecret, erpnext.WithTimeout(cfg.ERPNext.Timeout)),
		devices: buildDevices(cfg),
	}

	router, err := buildRouter(cfg, a.devices)
	if err != nil {
		return nil, err
	}
	a.router = router

	policy, err := orchestration.ParsePolicy(cfg.Manufacture.Policy, orchestration.PolicyImmediate)
	if err != nil {
		return nil, err
	}

	a.orchestrator = orchestration.New(a.erp, router, orchestration.Settings{
		Company:      cfg.ERPNext.Company,
		FGWarehouse:  cfg.ERPNext.FGWarehouse,
		WIPWarehouse: cfg.ERPNext.WIPWarehouse,
		DocStatus: docstatus.Options{
			Attempts: cfg.DocStatus.Attempts,
			Interval: cfg.DocStatus.Interval,
		},
		Policy: policy,
	})

	l, err := ledger.Open(cfg.State.LedgerFile)
	if err != nil {
		return nil, err
	}
	a.ledger = l

	a.loop = controller.NewLoop(a.erp, a.orchestrator, l, controller.WithInterval(cfg.Loop.Interval))

	return a, nil
}

// buildDevices creates a synchronizer for every device kind a route uses.
func buildDevices(cfg *config.Config) map[string]device.Synchronizer {
	devices := map[string]device.Synchronizer{}
	if cfg.UsesDevice(config.DevicePrinter) {
		devices[config.DevicePrinter] = device.NewPrinter(octoprint.NewClient(cfg.Printer.URL, cfg.Secrets.OctoPrintAPIKey))
	}
	if cfg.UsesDevice(config.DeviceSorter) {
		devices[config.DeviceSorter] = device.NewSorter(nodered.NewClient(cfg.Sorter.URL), cfg.Sorter.QCFlowMode)
	}
	return devices
}

// buildRouter maps configured routes onto the synchronizers.
func buildRouter(cfg *config.Config, devices map[string]device.Synchronizer) (*device.Router, error) {
	routes := make(map[string]device.Route, len(cfg.Routes))
	for code, r := range cfg.Routes {
		route, err := toDeviceRoute(cfg, devices, r)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", code, err)
		}
		routes[code] = route
	}

	var fallback *device.Route
	if cfg.DefaultDevice != "" {
		route, err := toDeviceRoute(cfg, devices, config.Route{Device: cfg.DefaultDevice, File: cfg.DefaultFile})
		if err != nil {
			return nil, fmt.Errorf("default route: %w", err)
		}
		fallback = &route
	}

	return device.NewRouter(routes, fallback), nil
}

func toDeviceRoute(cfg *config.Config, devices map[string]device.Synchronizer, r config.Route) (device.Route, error) {
	sync, ok := devices[r.Device]
	if !ok {
		return device.Route{}, fmt.Errorf("device %q is not configured", r.Device)
	}
	return device.Route{
		Device: sync,
		File:   r.File,
		Policy: r.Policy,
		Wait:   waitOptions(cfg, r.Device),
	}, nil
}

// waitOptions bounds device waits: prints run until max_wait (unbounded when
// negative), sorting jobs for a fixed number of polls.
func waitOptions(cfg *config.Config, kind string) device.WaitOptions {
	if kind == config.DeviceSorter {
		return device.WaitOptions{
			PollInterval: cfg.Sorter.PollInterval,
			Attempts:     cfg.Sorter.Retries,
		}
	}
	return device.WaitOptions{
		PollInterval: cfg.Printer.PollInterval,
		MaxWait:      cfg.PrintMaxWait(),
	}
}
