// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discovery-engine/internal/textgen"
)

var planCmd = &cobra.Command{
	Use:   "plan [goal]",
	Short: "Show the search plan for a goal without running it",
	Long: `Plan asks the configured text generator for search queries and falls back
to the keyword heuristic when no generator is configured or generation
fails. Nothing is searched or stored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	addScopeFlags(planCmd)
	planCmd.Flags().Bool("json", false, "print the plan as JSON")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	goal := strings.TrimSpace(strings.Join(args, " "))
	gen, err := textgen.New(engineConfig.AI)
	if err != nil {
		return fmt.Errorf("text generator: %w", err)
	}

	plan := newPlanner(engineConfig, gen).Plan(cmd.Context(), goal, scopeFromFlags(cmd))

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	fmt.Printf("Goal:        %s\n", goal)
	fmt.Printf("Origin:      %s\n", plan.Origin)
	fmt.Printf("Max sources: %d\n\nQueries:\n", plan.MaxSources)
	for i, q := range plan.Queries {
		fmt.Printf("  %d. %s\n", i+1, q)
	}
	fmt.Println("\nPhases:")
	for _, p := range plan.Phases {
		fmt.Printf("  %-12s %s\n", p.Name, p.Description)
	}
	return nil
}
