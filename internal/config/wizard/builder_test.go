package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/cellflow/internal/config"
)

func sampleResult() *WizardResult {
	return &WizardResult{
		ERPNextURL:   "https://erp.example.com/",
		Company:      "Acme",
		FGWarehouse:  "Finished Goods - AC",
		WIPWarehouse: "Work In Progress - AC",
		UsePrinter:   true,
		PrinterURL:   "http://octopi.local",
		UseSorter:    true,
		SorterURL:    "http://nodered.local:1880/",
		QCFlowMode:   true,
		Policy:       config.PolicyImmediate,
		Routes: []RouteAnswer{
			{ItemCode: "ITEM-A", Device: config.DevicePrinter, File: " part.gcode "},
			{ItemCode: "ITEM-B", Device: config.DeviceSorter, File: "ignored"},
		},
	}
}

func TestBuildConfig(t *testing.T) {
	cfg := BuildConfig(sampleResult())

	assert.Equal(t, "https://erp.example.com", cfg.ERPNext.URL)
	assert.Equal(t, "Acme", cfg.ERPNext.Company)
	assert.Equal(t, "Finished Goods - AC", cfg.ERPNext.FGWarehouse)
	assert.Equal(t, "Work In Progress - AC", cfg.ERPNext.WIPWarehouse)
	assert.Equal(t, "http://octopi.local", cfg.Printer.URL)
	assert.Equal(t, "http://nodered.local:1880", cfg.Sorter.URL)
	assert.True(t, cfg.Sorter.QCFlowMode)
	assert.Equal(t, config.PolicyImmediate, cfg.Manufacture.Policy)

	require.Len(t, cfg.Routes, 2)
	assert.Equal(t, config.Route{Device: config.DevicePrinter, File: "part.gcode"}, cfg.Routes["ITEM-A"])
	assert.Equal(t, config.Route{Device: config.DeviceSorter, Policy: config.PolicyDraftConfirm}, cfg.Routes["ITEM-B"],
		"sorter routes are pinned to draft_confirm")

	assert.Nil(t, cfg.Ops, "defaults are left unset")
	assert.Zero(t, cfg.Loop.Interval)

	cfg.ApplyDefaults()
	assert.NoError(t, cfg.Validate())
}

func TestBuildConfig_DraftConfirmDefault(t *testing.T) {
	result := sampleResult()
	result.Policy = config.PolicyDraftConfirm

	cfg := BuildConfig(result)
	assert.Empty(t, cfg.Routes["ITEM-B"].Policy, "inherits the default")
}

func TestBuildConfig_DisabledDevices(t *testing.T) {
	result := sampleResult()
	result.UseSorter = false
	result.Routes = result.Routes[:1]

	cfg := BuildConfig(result)
	assert.Empty(t, cfg.Sorter.URL)
	assert.False(t, cfg.Sorter.QCFlowMode)
}

func TestBuildConfig_DefaultRoute(t *testing.T) {
	result := sampleResult()
	result.DefaultDevice = config.DevicePrinter
	result.DefaultFile = "generic.gcode"

	cfg := BuildConfig(result)
	assert.Equal(t, config.DevicePrinter, cfg.DefaultDevice)
	assert.Equal(t, "generic.gcode", cfg.DefaultFile)

	result.DefaultDevice = config.DeviceSorter
	cfg = BuildConfig(result)
	assert.Empty(t, cfg.DefaultFile)
}

func TestBuildConfig_AdvancedOptions(t *testing.T) {
	result := sampleResult()
	result.AdvancedOptions = &AdvancedOptions{
		LoopInterval:   "30s",
		PrinterMaxWait: "0s",
		OpsListen:      "",
		LogLevel:       "debug",
		LogFormat:      config.LogFormatJSON,
	}

	cfg := BuildConfig(result)
	assert.Equal(t, 30*time.Second, cfg.Loop.Interval)
	assert.Zero(t, cfg.Printer.MaxWait, "zero keeps the default on load")
	require.NotNil(t, cfg.Ops)
	assert.Empty(t, cfg.Ops.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
}

func TestBuildConfig_AdvancedDefaultsOmitted(t *testing.T) {
	result := sampleResult()
	result.AdvancedOptions = &AdvancedOptions{
		LoopInterval:   config.DefaultLoopInterval.String(),
		PrinterMaxWait: config.DefaultPrinterMaxWait.String(),
		OpsListen:      config.DefaultOpsListen,
		LogLevel:       "info",
		LogFormat:      config.LogFormatConsole,
	}

	cfg := BuildConfig(result)
	assert.Zero(t, cfg.Loop.Interval)
	assert.Zero(t, cfg.Printer.MaxWait)
	assert.Nil(t, cfg.Ops)
	assert.Empty(t, cfg.Log)
}
