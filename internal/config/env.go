package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables holding API credentials.
const (
	EnvERPNextAPIKey    = "ERPNEXT_API_KEY"
	EnvERPNextAPISecret = "ERPNEXT_API_SECRET"
	EnvOctoPrintAPIKey  = "OCTOPRINT_API_KEY"
)

// ApplyEnv reads the API secrets and overlays polling knobs from the
// environment. Unset or unparseable variables keep the current value.
//
// Environment Variables:
//   - CELLFLOW_LOOP_INTERVAL
//   - CELLFLOW_DOCSTATUS_ATTEMPTS
//   - CELLFLOW_DOCSTATUS_INTERVAL
//   - CELLFLOW_PRINTER_POLL_INTERVAL
//   - CELLFLOW_PRINTER_MAX_WAIT
//   - CELLFLOW_SORTER_POLL_INTERVAL
//   - CELLFLOW_SORTER_RETRIES
func (c *Config) ApplyEnv() {
	c.Secrets = Secrets{
		ERPNextAPIKey:    os.Getenv(EnvERPNextAPIKey),
		ERPNextAPISecret: os.Getenv(EnvERPNextAPISecret),
		OctoPrintAPIKey:  os.Getenv(EnvOctoPrintAPIKey),
	}

	c.Loop.Interval = parseDuration("CELLFLOW_LOOP_INTERVAL", c.Loop.Interval)
	c.DocStatus.Attempts = parseInt("CELLFLOW_DOCSTATUS_ATTEMPTS", c.DocStatus.Attempts)
	c.DocStatus.Interval = parseDuration("CELLFLOW_DOCSTATUS_INTERVAL", c.DocStatus.Interval)
	c.Printer.PollInterval = parseDuration("CELLFLOW_PRINTER_POLL_INTERVAL", c.Printer.PollInterval)
	c.Printer.MaxWait = parseDuration("CELLFLOW_PRINTER_MAX_WAIT", c.Printer.MaxWait)
	c.Sorter.PollInterval = parseDuration("CELLFLOW_SORTER_POLL_INTERVAL", c.Sorter.PollInterval)
	c.Sorter.Retries = parseInt("CELLFLOW_SORTER_RETRIES", c.Sorter.Retries)
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
