package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.prplanit.com/precisionplanit/castoff/src/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print castoff version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
