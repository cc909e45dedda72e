// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discovery-engine/internal/governance"
	"github.com/pdiddy/discovery-engine/internal/relevance"
	"github.com/pdiddy/discovery-engine/internal/search"
	"github.com/pdiddy/discovery-engine/internal/textgen"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score <result-file>",
	Short: "Score saved search results against a goal",
	Long: `Score reads a result file written by search --save, checks each candidate
against the governance policy built from the scope flags, and scores it for
relevance to the goal. The component breakdown of every score is printed
together with the threshold a job would use for this batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("goal", "", "goal to score against (default: the file's query)")
	scoreCmd.Flags().Bool("json", false, "print scored candidates as JSON")
	addScopeFlags(scoreCmd)

	rootCmd.AddCommand(scoreCmd)
}

type scoredCandidate struct {
	Candidate  types.Candidate     `json:"candidate"`
	Breakdown  relevance.Breakdown `json:"breakdown"`
	Violations []string            `json:"violations,omitempty"`
	Accepted   bool                `json:"accepted"`
}

func runScore(cmd *cobra.Command, args []string) error {
	rf, err := search.ReadResultFile(args[0])
	if err != nil {
		return err
	}
	goal, _ := cmd.Flags().GetString("goal")
	if strings.TrimSpace(goal) == "" {
		goal = rf.Query
	}

	gen, err := textgen.New(engineConfig.AI)
	if err != nil {
		return fmt.Errorf("text generator: %w", err)
	}
	scorer := newScorer(engineConfig, gen)
	policy := governance.Resolve(scopeFromFlags(cmd), time.Now())

	ctx := cmd.Context()
	scored := make([]scoredCandidate, 0, len(rf.Candidates))
	var passing []float64
	for _, c := range rf.Candidates {
		b := scorer.Explain(ctx, c, goal)
		v := governance.Validate(c, policy)
		scored = append(scored, scoredCandidate{Candidate: c.WithScore(b.Total), Breakdown: b, Violations: v.Violations})
		if v.Valid {
			passing = append(passing, b.Total)
		}
	}
	threshold := scorer.ChooseThreshold(passing)
	for i := range scored {
		scored[i].Accepted = len(scored[i].Violations) == 0 && scored[i].Breakdown.Total >= threshold
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Breakdown.Total > scored[j].Breakdown.Total
	})

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scored)
	}

	fmt.Printf("Goal: %s\nThreshold: %.2f\n\n", goal, threshold)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tKEYWORD\tCITE\tRECENCY\tVENUE\tACCEPT\tTITLE\tNOTES")
	for _, s := range scored {
		accept := "no"
		if s.Accepted {
			accept = "yes"
		}
		fmt.Fprintf(tw, "%.3f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%s\t%s\n",
			s.Breakdown.Total, s.Breakdown.Keyword, s.Breakdown.Citation, s.Breakdown.Recency, s.Breakdown.Venue,
			accept, truncateTitle(s.Candidate.Title, 60), strings.Join(s.Violations, "; "))
	}
	return tw.Flush()
}

func truncateTitle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
