package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration and returns every problem found, joined.
// Secrets are checked separately by [Config.RequireSecrets].
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.validateERPNext()...)
	errs = append(errs, c.validateDevices()...)
	errs = append(errs, c.validateRoutes()...)
	errs = append(errs, c.validatePolling()...)

	if !validPolicy(c.Manufacture.Policy) {
		errs = append(errs, fmt.Errorf("manufacture.policy %q must be %s or %s", c.Manufacture.Policy, PolicyImmediate, PolicyDraftConfirm))
	}
	if c.State.LedgerFile == "" {
		errs = append(errs, errors.New("state.ledger_file is required"))
	}
	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != LogFormatConsole && c.Log.Format != LogFormatJSON {
		errs = append(errs, fmt.Errorf("log.format %q must be %s or %s", c.Log.Format, LogFormatConsole, LogFormatJSON))
	}

	return errors.Join(errs...)
}

func (c *Config) validateERPNext() []error {
	var errs []error
	if err := validateURL("erpnext.url", c.ERPNext.URL); err != nil {
		errs = append(errs, err)
	}
	if c.ERPNext.Company == "" {
		errs = append(errs, errors.New("erpnext.company is required"))
	}
	if c.ERPNext.FGWarehouse == "" {
		errs = append(errs, errors.New("erpnext.fg_warehouse is required"))
	}
	if c.ERPNext.WIPWarehouse == "" {
		errs = append(errs, errors.New("erpnext.wip_warehouse is required"))
	}
	if c.ERPNext.Timeout < 0 {
		errs = append(errs, errors.New("erpnext.timeout must not be negative"))
	}
	return errs
}

func (c *Config) validateDevices() []error {
	var errs []error
	if c.UsesDevice(DevicePrinter) {
		if err := validateURL("printer.url", c.Printer.URL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.UsesDevice(DeviceSorter) {
		if err := validateURL("sorter.url", c.Sorter.URL); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (c *Config) validateRoutes() []error {
	var errs []error

	codes := make([]string, 0, len(c.Routes))
	for code := range c.Routes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if err := c.validateRoute(fmt.Sprintf("routes[%s]", code), c.Routes[code]); err != nil {
			errs = append(errs, err)
		}
	}

	if c.DefaultDevice != "" {
		def := Route{Device: c.DefaultDevice, File: c.DefaultFile}
		if err := c.validateRoute("default_device", def); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func (c *Config) validateRoute(field string, r Route) error {
	if r.Policy != "" && !validPolicy(r.Policy) {
		return fmt.Errorf("%s: policy %q must be %s or %s", field, r.Policy, PolicyImmediate, PolicyDraftConfirm)
	}

	switch r.Device {
	case DevicePrinter:
		if r.File == "" {
			return fmt.Errorf("%s: printer routes need a file", field)
		}
	case DeviceSorter:
		// The sorter is triggered with the Manufacture entry id, so the
		// entry must exist as a draft before the job starts.
		if c.RoutePolicy(r) != PolicyDraftConfirm {
			return fmt.Errorf("%s: sorter routes need policy %s", field, PolicyDraftConfirm)
		}
	default:
		return fmt.Errorf("%s: device %q must be %s or %s", field, r.Device, DevicePrinter, DeviceSorter)
	}

	return nil
}

func (c *Config) validatePolling() []error {
	var errs []error
	if c.Loop.Interval <= 0 {
		errs = append(errs, errors.New("loop.interval must be positive"))
	}
	if c.DocStatus.Attempts <= 0 {
		errs = append(errs, errors.New("docstatus.attempts must be positive"))
	}
	if c.DocStatus.Interval <= 0 {
		errs = append(errs, errors.New("docstatus.interval must be positive"))
	}
	if c.Printer.PollInterval <= 0 {
		errs = append(errs, errors.New("printer.poll_interval must be positive"))
	}
	if c.Sorter.PollInterval <= 0 {
		errs = append(errs, errors.New("sorter.poll_interval must be positive"))
	}
	if c.Sorter.Retries <= 0 {
		errs = append(errs, errors.New("sorter.retries must be positive"))
	}
	return errs
}

// RequireSecrets checks that the credentials needed by the configured
// devices are present.
func (c *Config) RequireSecrets() error {
	var errs []error
	if c.Secrets.ERPNextAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvERPNextAPIKey))
	}
	if c.Secrets.ERPNextAPISecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvERPNextAPISecret))
	}
	if c.UsesDevice(DevicePrinter) && c.Secrets.OctoPrintAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required for printer routes", EnvOctoPrintAPIKey))
	}
	return errors.Join(errs...)
}

func validPolicy(p string) bool {
	return p == PolicyImmediate || p == PolicyDraftConfirm
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s %q must use http or https", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s %q has no host", field, raw)
	}
	return nil
}
