package dhtsim

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const usage = `dhtsim runs a discrete-tick simulation of a gossip membership protocol
layered with a consistent-hash replicated key-value store.

EXAMPLES:
  Run a 10-node cluster for 500 ticks:
    dhtsim run --nodes 10 --ticks 500

  Run with a fixed seed for reproducible fault injection:
    dhtsim run --seed 42 --drop-rate 0.05`

var rootCmd = &cobra.Command{
	Use:   "dhtsim",
	Short: "Simulate a gossip-membership, replicated key-value ring",
	Long:  usage,
}

func init() {
	rootCmd.AddCommand(runCmd, versionCmd)
}

// Execute runs the dhtsim CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
