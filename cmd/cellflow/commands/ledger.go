package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/cellflow/cmd/cellflow/handlers"
)

// Ledger returns the command group for inspecting the processed-order ledger.
func Ledger() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or edit the processed sales order ledger",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: cellflow.yaml)")

	var jsonOutput bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List completed sales orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.LedgerList(cmd.OutOrStdout(), configPath, jsonOutput)
		},
	}
	list.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	remove := &cobra.Command{
		Use:   "remove <sales-order>",
		Short: "Remove a sales order so the next scan processes it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.LedgerRemove(cmd.OutOrStdout(), configPath, args[0])
		},
	}

	cmd.AddCommand(list, remove)
	return cmd
}
