package config

import "time"

// Device kinds accepted in routes.
const (
	DevicePrinter = "printer"
	DeviceSorter  = "sorter"
)

// Manufacture recording policies.
const (
	PolicyImmediate    = "immediate"
	PolicyDraftConfirm = "draft_confirm"
)

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Defaults applied by [Config.ApplyDefaults].
const (
	DefaultLedgerFile          = "processed_so.json"
	DefaultErrorLog            = "error_log.txt"
	DefaultOpsListen           = ":9090"
	DefaultLoopInterval        = 10 * time.Second
	DefaultERPNextTimeout      = 30 * time.Second
	DefaultDocStatusAttempts   = 5
	DefaultDocStatusInterval   = 2 * time.Second
	DefaultPrinterPollInterval = 5 * time.Second
	DefaultPrinterMaxWait      = 4 * time.Hour
	DefaultSorterPollInterval  = 5 * time.Second
	DefaultSorterRetries       = 60
)

// Config is the full deployment configuration.
type Config struct {
	ERPNext     ERPNextConfig     `yaml:"erpnext"`
	Printer     PrinterConfig     `yaml:"printer,omitempty"`
	Sorter      SorterConfig      `yaml:"sorter,omitempty"`
	Manufacture ManufactureConfig `yaml:"manufacture,omitempty"`

	// Routes maps item codes to the device that produces them.
	Routes map[string]Route `yaml:"routes,omitempty"`
	// DefaultDevice is used for item codes without a route. Empty means
	// such items fail with a missing device mapping.
	DefaultDevice string `yaml:"default_device,omitempty"`
	// DefaultFile is the printer job file for the default route.
	DefaultFile string `yaml:"default_file,omitempty"`

	State     StateConfig     `yaml:"state,omitempty"`
	Loop      LoopConfig      `yaml:"loop,omitempty"`
	DocStatus DocStatusConfig `yaml:"docstatus,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`

	// Ops configures the health and metrics listener. Nil means the default
	// address; an empty Listen disables the server.
	Ops *OpsConfig `yaml:"ops,omitempty"`

	Secrets Secrets `yaml:"-"`
}

// ERPNextConfig locates the backend and the warehouses used for Work Orders.
type ERPNextConfig struct {
	URL          string        `yaml:"url"`
	Company      string        `yaml:"company"`
	FGWarehouse  string        `yaml:"fg_warehouse"`
	WIPWarehouse string        `yaml:"wip_warehouse"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

// PrinterConfig configures the OctoPrint printer.
type PrinterConfig struct {
	URL          string        `yaml:"url,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	// MaxWait bounds a single print job. Zero means the default; a negative
	// value waits until the printer reports a terminal state.
	MaxWait time.Duration `yaml:"max_wait,omitempty"`
}

// SorterConfig configures the Node-RED sorting controller.
type SorterConfig struct {
	URL          string        `yaml:"url,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	Retries      int           `yaml:"retries,omitempty"`
	// QCFlowMode switches the controller into QC flow mode around each job.
	QCFlowMode bool `yaml:"qc_flow_mode,omitempty"`
}

// ManufactureConfig selects the default manufacture recording policy.
type ManufactureConfig struct {
	Policy string `yaml:"policy,omitempty"`
}

// Route binds one item code to a device.
type Route struct {
	Device string `yaml:"device"`
	File   string `yaml:"file,omitempty"`
	Policy string `yaml:"policy,omitempty"`
}

// StateConfig names the local state files.
type StateConfig struct {
	LedgerFile string `yaml:"ledger_file,omitempty"`
	ErrorLog   string `yaml:"error_log,omitempty"`
}

// LoopConfig configures the main polling loop.
type LoopConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
}

// DocStatusConfig configures document status polling.
type DocStatusConfig struct {
	Attempts int           `yaml:"attempts,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// OpsConfig configures the ops HTTP server.
type OpsConfig struct {
	Listen string `yaml:"listen"`
}

// Secrets are API credentials taken from the environment.
type Secrets struct {
	ERPNextAPIKey    string
	ERPNextAPISecret string
	OctoPrintAPIKey  string
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.ERPNext.Timeout == 0 {
		c.ERPNext.Timeout = DefaultERPNextTimeout
	}
	if c.Printer.PollInterval == 0 {
		c.Printer.PollInterval = DefaultPrinterPollInterval
	}
	if c.Printer.MaxWait == 0 {
		c.Printer.MaxWait = DefaultPrinterMaxWait
	}
	if c.Sorter.PollInterval == 0 {
		c.Sorter.PollInterval = DefaultSorterPollInterval
	}
	if c.Sorter.Retries == 0 {
		c.Sorter.Retries = DefaultSorterRetries
	}
	if c.Manufacture.Policy == "" {
		c.Manufacture.Policy = PolicyImmediate
	}
	if c.State.LedgerFile == "" {
		c.State.LedgerFile = DefaultLedgerFile
	}
	if c.State.ErrorLog == "" {
		c.State.ErrorLog = DefaultErrorLog
	}
	if c.Loop.Interval == 0 {
		c.Loop.Interval = DefaultLoopInterval
	}
	if c.DocStatus.Attempts == 0 {
		c.DocStatus.Attempts = DefaultDocStatusAttempts
	}
	if c.DocStatus.Interval == 0 {
		c.DocStatus.Interval = DefaultDocStatusInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = LogFormatConsole
	}
	if c.Ops == nil {
		c.Ops = &OpsConfig{Listen: DefaultOpsListen}
	}
}

// OpsListen returns the ops server address, or "" when disabled.
func (c *Config) OpsListen() string {
	if c.Ops == nil {
		return DefaultOpsListen
	}
	return c.Ops.Listen
}

// RoutePolicy returns the policy in effect for r.
func (c *Config) RoutePolicy(r Route) string {
	if r.Policy != "" {
		return r.Policy
	}
	return c.Manufacture.Policy
}

// UsesDevice reports whether any route, including the default, targets kind.
func (c *Config) UsesDevice(kind string) bool {
	if c.DefaultDevice == kind {
		return true
	}
	for _, r := range c.Routes {
		if r.Device == kind {
			return true
		}
	}
	return false
}

// PrintMaxWait returns the print job bound, or zero for an unbounded wait.
func (c *Config) PrintMaxWait() time.Duration {
	if c.Printer.MaxWait < 0 {
		return 0
	}
	return c.Printer.MaxWait
}
