package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sdramsim",
	Short: "sdramsim simulates the SDRAM controller cycle by cycle.",
	Long: `sdramsim runs the SDRAM controller against a behavioral device ` +
		`model, driven by the calibration pattern generator. It can record ` +
		`the command stream into a SQLite database and serve a monitoring ` +
		`endpoint while the simulation is running.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
