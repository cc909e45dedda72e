// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discovery-engine/internal/search"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show stored jobs or the state of one job",
	Long: `Without arguments, status lists every job still held by the checkpoint
store. With a job id, it prints the job's execution state and the sources
selected for extraction.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the execution state as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	orch, store, err := openInspector(ctx, engineConfig)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		jobs, err := orch.Jobs(ctx)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs found.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "JOB\tSTATUS\tCREATED\tOWNER\tGOAL")
		for _, j := range jobs {
			status := types.Status("UNKNOWN")
			if st, err := orch.State(ctx, j.ID); err == nil {
				status = st.Status
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				j.ID, status, j.CreatedAt.Format("2006-01-02 15:04"), j.Owner, j.Goal)
		}
		return tw.Flush()
	}

	jobID := args[0]
	job, err := orch.Job(ctx, jobID)
	if err != nil {
		return err
	}
	st, err := orch.State(ctx, jobID)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Printf("Goal:       %s\n", job.Goal)
	fmt.Printf("Owner:      %s\n", job.Owner)
	fmt.Printf("Created:    %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Checkpoint: %s\n", st.LastCheckpoint.Format("2006-01-02 15:04:05"))
	printSummary(os.Stdout, types.SummaryOf(st))
	if st.ExecutionPlan != nil {
		fmt.Printf("\nPlan (%s):\n", st.ExecutionPlan.Origin)
		for i, q := range st.ExecutionPlan.Queries {
			fmt.Printf("  %d. %s\n", i+1, q)
		}
	}
	if len(st.SourcesValidated) > 0 {
		fmt.Println()
		search.FormatTable(st.SourcesValidated, os.Stdout)
	}
	return nil
}
