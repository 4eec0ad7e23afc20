package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/cellflow/internal/config"
	"github.com/imamik/cellflow/internal/device"
)

func TestLoadConfig_NotFound(t *testing.T) {
	orig := findConfigFile
	t.Cleanup(func() { findConfigFile = orig })
	findConfigFile = func() (string, error) { return "", errors.New("config file cellflow.yaml not found") }

	_, err := loadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cellflow init")
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeTestConfig(t, "not-a-url", "http://printer", "http://sorter")

	_, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "erpnext.url")
}

func TestBuildApp(t *testing.T) {
	setSecrets(t)
	path := writeTestConfig(t, "http://erp.local", "http://printer.local", "http://sorter.local")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	a, err := buildApp(cfg)
	require.NoError(t, err)

	assert.Len(t, a.devices, 2)
	assert.Equal(t, "http://erp.local", a.erp.BaseURL())
	assert.Equal(t, cfg.Loop.Interval, a.loop.Interval())
	assert.Zero(t, a.ledger.Len())

	printerRoute, err := a.router.Resolve("ITEM-A")
	require.NoError(t, err)
	assert.Equal(t, "printer", printerRoute.Device.Name())
	assert.Equal(t, "part.gcode", printerRoute.File)
	assert.Equal(t, device.WaitOptions{PollInterval: time.Second, MaxWait: 2 * time.Hour}, printerRoute.Wait)

	sorterRoute, err := a.router.Resolve("ITEM-B")
	require.NoError(t, err)
	assert.Equal(t, "sorter", sorterRoute.Device.Name())
	assert.Equal(t, config.PolicyDraftConfirm, sorterRoute.Policy)
	assert.Equal(t, 12, sorterRoute.Wait.Attempts)

	fallback, err := a.router.Resolve("ITEM-Z")
	require.NoError(t, err)
	assert.Equal(t, "generic.gcode", fallback.File)
}

func TestBuildRouter_UnknownDevice(t *testing.T) {
	cfg := &config.Config{Routes: map[string]config.Route{"ITEM-A": {Device: config.DevicePrinter, File: "a.gcode"}}}
	cfg.ApplyDefaults()

	_, err := buildRouter(cfg, map[string]device.Synchronizer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "route ITEM-A")
}

func TestBuildRouter_NoDefault(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	router, err := buildRouter(cfg, nil)
	require.NoError(t, err)

	_, err = router.Resolve("ITEM-A")
	assert.ErrorIs(t, err, device.ErrNoRoute)
}

func TestWaitOptions(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, device.WaitOptions{
		PollInterval: config.DefaultPrinterPollInterval,
		MaxWait:      config.DefaultPrinterMaxWait,
	}, waitOptions(cfg, config.DevicePrinter))

	assert.Equal(t, device.WaitOptions{
		PollInterval: config.DefaultSorterPollInterval,
		Attempts:     config.DefaultSorterRetries,
	}, waitOptions(cfg, config.DeviceSorter))

	cfg.Printer.MaxWait = -time.Second
	assert.Equal(t, device.WaitOptions{
		PollInterval: config.DefaultPrinterPollInterval,
	}, waitOptions(cfg, config.DevicePrinter))
}
