// Package cmd provides the phoswich command-line interface.
package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd uses a positional argument contract: one argument opens
// an interactive session, four or five run a batch.
var rootCmd = &cobra.Command{
	Use: "phoswich outputFileBaseName [nEvents macroFile MT{ON|OFF} " +
		"[threadCount]]",
	Short: "Phoswich simulates optical photon transport in a ZnS:Ag + " +
		"plastic scintillator stack.",
	Long: `Phoswich fires primary particles into a phoswich detector model and
follows every optical photon to its fate. Each run writes per-event records
into a SQLite database, or into ClickHouse when the PHOSWICH_CLICKHOUSE_*
environment variables are set.

With one argument the program opens an interactive session reading macro
commands from stdin; beamOn <n> runs n events. With four or five arguments it
runs a batch: event count, macro file, MT flag, and an optional thread count.`,
	Args: cobra.RangeArgs(1, 5),
	Run:  runRoot,
}

// Execute runs the root command, exiting non-zero on usage errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRoot(_ *cobra.Command, args []string) {
	switch len(args) {
	case 1:
		runInteractive(args[0])
	case 4, 5:
		runBatch(args)
	default:
		log.Fatalf("Incorrect number of input parameters.")
	}
}
