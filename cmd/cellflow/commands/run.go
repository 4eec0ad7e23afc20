package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/cellflow/cmd/cellflow/handlers"
)

// Run returns the command that starts the order watcher.
//
// Optional flags:
//
//	--config, -c: Path to configuration file (default: auto-detect cellflow.yaml)
func Run() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch ERPNext and process submitted sales orders",
		Long: `Watch ERPNext for submitted Sales Orders and process them.

Every scan lists the submitted Sales Orders, skips the ones already in the
ledger, and runs each order line through BOM lookup, Work Order creation,
material transfer, physical production and the Manufacture entry. Orders
whose lines all finish are added to the ledger. Anything else is retried on
the next scan and resumes where it stopped.

Every routed device controller must answer at startup or the command exits
with an error. An unreachable ERPNext is logged and retried on every scan.

The health, readiness, metrics and ledger endpoints are served on ops.listen
(default :9090). SIGINT or SIGTERM stops the watcher.

Examples:
  # Run with cellflow.yaml from the current directory or a parent
  cellflow run

  # Run with an explicit config
  cellflow run -c /etc/cellflow/cellflow.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: cellflow.yaml)")

	return cmd
}
