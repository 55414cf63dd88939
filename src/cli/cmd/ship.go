package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gitlab.prplanit.com/precisionplanit/castoff/src/output"
	"gitlab.prplanit.com/precisionplanit/castoff/src/pipeline"
)

var (
	shipDryRun    bool
	shipSkipGuard bool
	shipPlatforms []string
	shipTags      []string
)

var shipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Build and publish the release image",
	Long: `Run the full release pipeline.

Resolves the version from the project manifest, resolves registry
credentials, authenticates, builds one multi-platform image carrying every
configured tag, and publishes. The first failing step aborts the run;
already-pushed tags are reported, not rolled back.`,
	RunE: runShip,
}

func init() {
	shipCmd.Flags().BoolVar(&shipDryRun, "dry-run", false, "show the plan without executing")
	shipCmd.Flags().BoolVar(&shipSkipGuard, "skip-guard", false, "skip the pre-build leak scan")
	shipCmd.Flags().StringSliceVar(&shipPlatforms, "platform", nil, "override platforms (comma-separated)")
	shipCmd.Flags().StringSliceVar(&shipTags, "tag", nil, "add tag templates to every registry")

	rootCmd.AddCommand(shipCmd)
}

func runShip(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	if len(args) > 0 {
		rootDir = args[0]
	}

	ctx := context.Background()
	color := output.UseColor()
	w := os.Stdout
	pipelineStart := time.Now()

	// CLI overrides
	if len(shipPlatforms) > 0 {
		cfg.Image.Platforms = shipPlatforms
	}
	if len(shipTags) > 0 {
		for i := range cfg.Image.Registries {
			cfg.Image.Registries[i].Tags = append(cfg.Image.Registries[i].Tags, shipTags...)
		}
	}

	p := pipeline.New(cfg, rootDir, verbose)
	p.SkipGuard = shipSkipGuard

	// --- Dry run ---
	if shipDryRun {
		plan, err := p.BuildPlan()
		if err != nil {
			return err
		}
		fmt.Printf("version:    %s\n", plan.Version.Raw)
		if plan.Git != nil {
			fmt.Printf("commit:     %s\n", plan.Git.SHA)
		}
		fmt.Printf("dockerfile: %s\n", orDefault(plan.Step.Dockerfile, "(auto)"))
		fmt.Printf("context:    %s\n", orDefault(plan.Step.Context, "."))
		fmt.Printf("platforms:  %s\n", strings.Join(plan.Step.Platforms, ","))
		fmt.Printf("push:       %v\n", plan.Step.Push)
		for _, ref := range plan.Refs {
			fmt.Printf("tag:        %s\n", ref)
		}
		return nil
	}

	output.ContextBlock(w, shipContextKV())

	// Render a section per stage as it completes.
	p.OnStage = func(sr pipeline.StageResult) {
		id := "co_" + sr.Stage
		name := titleCase(sr.Stage)
		output.SectionStart(w, id, name)
		sec := output.NewSection(w, name, sr.Duration, color)
		detail := sr.Detail
		if detail == "" {
			detail = sr.Stage
		}
		sec.Row("%-50s %s", detail, output.StatusIcon(sr.Status, color))
		sec.Close()
		output.SectionEnd(w, id)
	}

	res, runErr := p.Run(ctx)

	// Per-tag results, rendered even when the run failed — a partial
	// publish is reported ref by ref, never hidden.
	if len(res.Tags) > 0 {
		sec := output.NewSection(w, "Tags", 0, color)
		for _, tr := range res.Tags {
			status := "success"
			if tr.Err != nil {
				status = "failed"
			}
			sec.Row("%-50s %s", tr.Ref, output.StatusIcon(status, color))
		}
		sec.Close()
	}

	// --- Summary ---
	sumSec := output.NewSection(w, "Summary", 0, color)
	for _, sr := range res.Stages {
		output.SummaryRow(w, sr.Stage, sr.Status, sr.Detail, color)
	}
	sumSec.Separator()
	status := "success"
	if runErr != nil {
		status = "failed"
	}
	output.SummaryTotal(w, time.Since(pipelineStart), status, color)
	sumSec.Close()

	if runErr == nil && res.Plan != nil {
		fmt.Fprintf(w, "\n    Image References\n")
		for _, ref := range res.Plan.Refs {
			fmt.Fprintf(w, "    → %s\n", ref)
		}
		fmt.Fprintln(w)
	}

	return runErr
}

// shipContextKV returns key-value pairs for the pipeline context block.
func shipContextKV() []output.KV {
	var kv []output.KV

	kv = append(kv, output.KV{Key: "Manifest", Value: cfg.Manifest.Path})
	kv = append(kv, output.KV{Key: "Platforms", Value: strings.Join(cfg.Image.Platforms, ",")})

	if pipe := os.Getenv("CI_PIPELINE_ID"); pipe != "" {
		kv = append(kv, output.KV{Key: "Pipeline", Value: pipe})
	}
	if sha := os.Getenv("CI_COMMIT_SHORT_SHA"); sha != "" {
		kv = append(kv, output.KV{Key: "Commit", Value: sha})
	}

	if n := len(cfg.Image.Registries); n > 0 {
		var urls []string
		seen := map[string]bool{}
		for _, r := range cfg.Image.Registries {
			if !seen[r.URL] {
				urls = append(urls, r.URL)
				seen[r.URL] = true
			}
		}
		kv = append(kv, output.KV{Key: "Registries", Value: fmt.Sprintf("%d (%s)", n, strings.Join(urls, ", "))})
	}

	return kv
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
