package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/cellflow/cmd/cellflow/handlers"
)

// Doctor returns the command for diagnosing the deployment.
//
// Optional flags:
//
//	--config, -c: Path to configuration file (default: auto-detect cellflow.yaml)
//	--json: Output in JSON format
func Doctor() *cobra.Command {
	var configPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials and device connectivity",
		Long: `Diagnose the cellflow deployment.

  - Validates the configuration file
  - Checks the API credentials are set
  - Reaches ERPNext, the printer and the sorting station
  - Reads the ledger

Examples:
  cellflow doctor
  cellflow doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), configPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: cellflow.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
