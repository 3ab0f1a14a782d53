package cmd

import (
	"github.com/spf13/cobra"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate synthetic plant telemetry against a running instance",
	Run:   cmdHandler.Simulation.Simulate,
}

func init() {
	simulateCmd.Flags().String("mode", "http", "Transport to exercise: http or ws")
	simulateCmd.Flags().String("url", "http://localhost:3001", "Base URL of the ingestion instance")
	simulateCmd.Flags().Int("interval-ms", 30000, "Delay between telemetry rounds")
	RootCmd.AddCommand(simulateCmd)
}
