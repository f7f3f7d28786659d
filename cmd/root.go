// Package cmd provides the command-line interface for herdsim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "herdsim",
	Short: "Herdsim simulates disease spread through a closed population.",
	Long: `Herdsim simulates disease spread through a closed, fully-mixed ` +
		`population to demonstrate herd-immunity dynamics under vaccination. ` +
		`Each run writes a per-step log to a SQLite database and a CSV file, ` +
		`and can be inspected live through the monitoring server.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A .env file can provide HERDSIM_* defaults. Missing files are fine.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
