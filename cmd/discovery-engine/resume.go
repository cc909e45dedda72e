// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discovery-engine/internal/synthesis"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <job-id>",
	Short: "Continue an interrupted discovery job",
	Long: `Resume reloads a job from the checkpoint store and continues it from its
last persisted status. Queries already issued and sources already extracted
are not repeated. A job waiting for synthesis is synthesized; a completed job
prints its stored report.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	addCompletionFlags(resumeCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	eng, err := newEngine(ctx, engineConfig, os.Stdout)
	if err != nil {
		return err
	}
	defer eng.Close()

	sum, err := eng.orch.Resume(ctx, jobID)
	if err != nil {
		return err
	}
	if sum.Status == types.StatusCompleted {
		report, err := eng.orch.Results(ctx, jobID)
		if err != nil {
			return err
		}
		fmt.Printf("job %s is already complete\n\n", jobID)
		synthesis.FormatText(report, os.Stdout)
		return nil
	}
	printSummary(os.Stdout, sum)
	return finishJob(ctx, cmd, eng, jobID)
}
