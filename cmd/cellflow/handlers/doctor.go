package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/imamik/cellflow/internal/config"
	"github.com/imamik/cellflow/internal/ledger"
	"github.com/imamik/cellflow/internal/platform/erpnext"
	"github.com/imamik/cellflow/internal/ui/report"
)

const probeTimeout = 10 * time.Second

var errDoctorFailed = errors.New("doctor found problems")

// DoctorReport is the result of the doctor command.
type DoctorReport struct {
	Config  string        `json:"config"`
	Healthy bool          `json:"healthy"`
	Checks  []DoctorCheck `json:"checks"`
}

// DoctorCheck is one diagnostic.
type DoctorCheck struct {
	Section string        `json:"section"`
	Name    string        `json:"name"`
	Status  report.Status `json:"status"`
	Detail  string        `json:"detail,omitempty"`
}

// Doctor validates the configuration and probes every configured endpoint.
// It returns an error when any check fails.
func Doctor(ctx context.Context, configPath string, jsonOutput bool) error {
	rep := diagnose(ctx, configPath)

	switch {
	case jsonOutput:
		if err := printDoctorJSON(os.Stdout, rep); err != nil {
			return err
		}
	case isInteractiveTTY():
		fmt.Print(report.Checklist("cellflow doctor", rep.Config, toRows(rep.Checks)))
	default:
		printDoctorPlain(os.Stdout, rep)
	}

	if !rep.Healthy {
		return errDoctorFailed
	}
	return nil
}

// diagnose runs every check it can. A config that does not load stops the
// run after the first check.
func diagnose(ctx context.Context, configPath string) *DoctorReport {
	rep := &DoctorReport{Config: configPath}

	if configPath == "" {
		if path, err := findConfigFile(); err == nil {
			rep.Config = path
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		rep.add("Configuration", "config", report.StatusFailed, err.Error())
		return rep.finish()
	}
	rep.add("Configuration", "config", report.StatusOK, fmt.Sprintf("%d routes, policy %s", len(cfg.Routes), cfg.Manufacture.Policy))

	if err := cfg.RequireSecrets(); err != nil {
		rep.add("Configuration", "credentials", report.StatusFailed, err.Error())
	} else {
		rep.add("Configuration", "credentials", report.StatusOK, "")
	}

	erp := erpnext.NewClient(cfg.ERPNext.URL, cfg.Secrets.ERPNextAPIKey, cfg.Secrets.ERPNextAPISecret, erpnext.WithTimeout(probeTimeout))
	rep.probe("erpnext", cfg.ERPNext.URL, func() (string, error) {
		return probe(ctx, erp.Ping)
	})

	devices := buildDevices(cfg)
	for _, kind := range []string{config.DevicePrinter, config.DeviceSorter} {
		dev, ok := devices[kind]
		if !ok {
			rep.add("Connectivity", kind, report.StatusSkipped, "no routes use it")
			continue
		}
		rep.probe(kind, deviceURL(cfg, kind), func() (string, error) {
			return probe(ctx, dev.Ping)
		})
	}

	if l, err := ledger.Open(cfg.State.LedgerFile); err != nil {
		rep.add("State", "ledger", report.StatusFailed, err.Error())
	} else {
		rep.add("State", "ledger", report.StatusOK, fmt.Sprintf("%s (%d orders)", l.Path(), l.Len()))
	}

	return rep.finish()
}

func probe(ctx context.Context, ping func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return ping(ctx)
}

func deviceURL(cfg *config.Config, kind string) string {
	if kind == config.DeviceSorter {
		return cfg.Sorter.URL
	}
	return cfg.Printer.URL
}

func (r *DoctorReport) add(section, name string, status report.Status, detail string) {
	r.Checks = append(r.Checks, DoctorCheck{Section: section, Name: name, Status: status, Detail: detail})
}

func (r *DoctorReport) probe(name, url string, fn func() (string, error)) {
	status, err := fn()
	if err != nil {
		r.add("Connectivity", name, report.StatusFailed, err.Error())
		return
	}
	detail := url
	if status != "" {
		detail = fmt.Sprintf("%s (%s)", url, status)
	}
	r.add("Connectivity", name, report.StatusOK, detail)
}

func (r *DoctorReport) finish() *DoctorReport {
	r.Healthy = true
	for _, c := range r.Checks {
		if c.Status == report.StatusFailed {
			r.Healthy = false
		}
	}
	return r
}

func toRows(checks []DoctorCheck) []report.Row {
	rows := make([]report.Row, len(checks))
	for i, c := range checks {
		rows[i] = report.Row{Section: c.Section, Name: c.Name, Status: c.Status, Detail: c.Detail}
	}
	return rows
}

func printDoctorJSON(w io.Writer, rep *DoctorReport) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printDoctorPlain(w io.Writer, rep *DoctorReport) {
	fmt.Fprintf(w, "config: %s\n", rep.Config)
	for _, c := range rep.Checks {
		fmt.Fprintf(w, "%-8s %-12s %s\n", c.Status, c.Name, c.Detail)
	}
	fmt.Fprintf(w, "healthy: %s\n", strconv.FormatBool(rep.Healthy))
}

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
