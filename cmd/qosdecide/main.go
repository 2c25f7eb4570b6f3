package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "qosdecide",
	Short: "Run one QoS downgrade selection over an aggregate flow snapshot",
	Long: `qosdecide loads an aggregate's parent/children demand snapshot and a
selector configuration, runs a single downgrade decision, and prints which
children would be assigned to LOPRI.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(decideCmd)
}

// Commands are defined in separate files:
// - decideCmd in decide.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
