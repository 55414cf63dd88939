package cmd

import (
	"github.com/spf13/cobra"
)

var collectorCmd = &cobra.Command{
	Use:   "collector",
	Short: "Telemetry collector operations",
}

func init() {
	rootCmd.AddCommand(collectorCmd)
}
