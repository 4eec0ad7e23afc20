package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/cellflow/cmd/cellflow/handlers"
)

// Init returns the command for interactively creating a configuration.
//
// Flags:
//
//	--output, -o: Path to output file (default "cellflow.yaml")
//	--advanced, -a: Show advanced configuration options
//	--full, -f: Output full YAML with all options (default: minimal output)
func Init() *cobra.Command {
	var (
		outputPath string
		advanced   bool
		fullOutput bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a cellflow configuration",
		Long: `Interactively create a cellflow configuration file.

This command asks about:

  - The ERPNext site, company and warehouses
  - The OctoPrint printer and the Node-RED sorting station
  - The manufacture recording policy
  - Which device produces each item code

Use --advanced for polling intervals, the ops listener and logging.

Use --full to output the complete YAML with every default written out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, advanced, fullOutput)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "cellflow.yaml", "Output file path")
	cmd.Flags().BoolVarP(&advanced, "advanced", "a", false, "Show advanced configuration options")
	cmd.Flags().BoolVarP(&fullOutput, "full", "f", false, "Output full YAML with all options")

	return cmd
}
