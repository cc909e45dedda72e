// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discovery-engine/internal/synthesis"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Run a discovery job for a goal",
	Long: `Run creates a discovery job for the goal and drives it through planning,
search, validation, and extraction. Unless --no-synthesis is given, the
extracted content is then synthesized into a report that is stored with the
job and exported to the output directory.

The job is checkpointed after every step. If the run is interrupted, continue
it with: discovery-engine resume <job-id>`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	addScopeFlags(runCmd)
	runCmd.Flags().String("owner", "", "owner tag for the job (default anonymous)")
	addCompletionFlags(runCmd)

	rootCmd.AddCommand(runCmd)
}

// addScopeFlags registers the governance preference flags.
func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("window", 0, "only accept sources from the last N years")
	cmd.Flags().String("impact", "", "citation floor: cutting_edge, high_impact, established, baseline")
	cmd.Flags().String("depth", "", "source cap: rapid, focused, comprehensive, exhaustive")
	cmd.Flags().Bool("peer-reviewed", false, "reject preprints and sources without a venue")
}

func scopeFromFlags(cmd *cobra.Command) types.ScopePreferences {
	window, _ := cmd.Flags().GetInt("window")
	impact, _ := cmd.Flags().GetString("impact")
	depth, _ := cmd.Flags().GetString("depth")
	peer, _ := cmd.Flags().GetBool("peer-reviewed")
	return types.ScopePreferences{
		PublicationWindowYears: window,
		ImpactLevel:            types.ImpactLevel(impact),
		DiscoveryDepth:         types.DiscoveryDepth(depth),
		RequirePeerReview:      peer,
	}
}

// addCompletionFlags registers the flags shared by run and resume.
func addCompletionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-synthesis", false, "stop before synthesis; finish later with resume")
	cmd.Flags().String("format", "yaml", "report export format: yaml or json")
	cmd.Flags().String("output-dir", "", "report export directory (default from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	goal := strings.TrimSpace(strings.Join(args, " "))
	owner, _ := cmd.Flags().GetString("owner")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	eng, err := newEngine(ctx, engineConfig, os.Stdout)
	if err != nil {
		return err
	}
	defer eng.Close()

	sum, err := eng.orch.RunJob(ctx, types.JobRequest{
		Goal:  goal,
		Owner: owner,
		Scope: scopeFromFlags(cmd),
	})
	if err != nil {
		if sum.JobID != "" {
			fmt.Fprintf(os.Stderr, "job %s stopped at %s; continue with: discovery-engine resume %s\n",
				sum.JobID, sum.Status, sum.JobID)
		}
		return err
	}
	printSummary(os.Stdout, sum)
	return finishJob(ctx, cmd, eng, sum.JobID)
}

// finishJob synthesizes, stores, and exports the report unless the caller
// asked to stop before synthesis.
func finishJob(ctx context.Context, cmd *cobra.Command, eng *engine, jobID string) error {
	if skip, _ := cmd.Flags().GetBool("no-synthesis"); skip {
		fmt.Printf("synthesis skipped; finish with: discovery-engine resume %s\n", jobID)
		return nil
	}
	format, _ := cmd.Flags().GetString("format")
	dir, _ := cmd.Flags().GetString("output-dir")
	if dir == "" {
		dir = engineConfig.OutputDir
	}

	report, err := eng.orch.Complete(ctx, jobID, eng.synth)
	if err != nil {
		return err
	}
	path, err := synthesis.Export(dir, report, format)
	if err != nil {
		return err
	}
	fmt.Println()
	synthesis.FormatText(report, os.Stdout)
	fmt.Printf("\nreport: %s\n", path)
	return nil
}

func printSummary(w io.Writer, s types.JobSummary) {
	fmt.Fprintf(w, "Job:        %s\n", s.JobID)
	fmt.Fprintf(w, "Status:     %s\n", s.Status)
	fmt.Fprintf(w, "Queries:    %d (%d refinement, %d expansion)\n", s.QueriesExecuted, s.RefinementQueries, s.ExpansionQueries)
	fmt.Fprintf(w, "Found:      %d\n", s.SourcesFound)
	fmt.Fprintf(w, "Validated:  %d (threshold %.2f)\n", s.SourcesValidated, s.Threshold)
	fmt.Fprintf(w, "Extracted:  %d\n", s.ExtractionsComplete)
}
