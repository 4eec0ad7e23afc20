// Package main is the entry point for the cellflow CLI.
//
// cellflow watches ERPNext for submitted Sales Orders and drives each order
// line through Work Order creation, material transfer, physical production
// on a 3D printer or sorting station, and Manufacture stock entries.
//
// Commands: init, run, doctor, ledger, version.
//
// For detailed usage information, run:
//
//	cellflow --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/cellflow/cmd/cellflow/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
