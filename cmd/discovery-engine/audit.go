// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit <job-id>",
	Short: "Print the audit trail of a job",
	Long: `Audit prints every decision recorded for a job, in the order it was made:
planning, each query, refinement and expansion, validation, and every
extraction outcome.`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().Bool("json", false, "print entries as JSON")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	orch, store, err := openInspector(ctx, engineConfig)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := orch.Job(ctx, args[0]); err != nil {
		return err
	}
	entries, err := orch.Audit(ctx, args[0])
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		fmt.Printf("%s  %-14s %s", e.Timestamp.Format("15:04:05"), e.Phase, e.Decision)
		if e.Tool != "" {
			fmt.Printf(" [%s]", e.Tool)
		}
		if e.Reasoning != "" {
			fmt.Printf(": %s", e.Reasoning)
		}
		fmt.Println()
	}
	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}
