package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gitlab.prplanit.com/precisionplanit/castoff/src/collector"
)

var collectorRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Configure and run the telemetry collector",
	Long: `Select an export profile from the environment, install the collector
binary if missing, render its configuration, and run it.

The remote export profile is selected when both the endpoint and password
variables are present and non-empty; otherwise telemetry goes to local
files only. The collector's exit code becomes this process's exit code.`,
	RunE: runCollector,
}

func init() {
	collectorCmd.AddCommand(collectorRunCmd)
}

func runCollector(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ccfg := cfg.Collector

	kind, endpoint, password := collector.SelectFromEnv(ccfg)
	fmt.Fprintf(os.Stderr, "collector: profile %s\n", kind)
	if verbose && kind == collector.ProfileRemoteExport {
		// Endpoint is an address, safe to show. The password is not.
		fmt.Fprintf(os.Stderr, "collector: exporting to %s\n", endpoint)
	}

	binPath, err := collector.NewInstaller().EnsureInstalled(ctx, ccfg)
	if err != nil {
		return err
	}

	configPath, err := collector.WriteConfig(kind, ccfg, endpoint, password)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "collector: exec %s --config %s\n", binPath, configPath)
	}

	if err := collector.Launch(ctx, binPath, configPath); err != nil {
		// Propagate the collector's own exit status.
		os.Exit(collector.ExitCode(err))
	}
	return nil
}
