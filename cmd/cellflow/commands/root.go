// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the cellflow CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cellflow",
		Short:         "Drive ERPNext sales orders through the manufacturing cell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Init())
	cmd.AddCommand(Run())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Ledger())
	cmd.AddCommand(Version())

	return cmd
}
