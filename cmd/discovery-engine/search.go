// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discovery-engine/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one query against the configured search backends",
	Long: `Search sends a single query to the configured backends (tools, openalex,
semantic_scholar), deduplicates the results across backends, and prints
them. Use --save to keep the results as a YAML file that score can read
later without re-querying.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum results per backend (default from config)")
	searchCmd.Flags().StringSlice("backend", nil, "override the configured backends")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as CSL JSON")
	searchCmd.Flags().String("save", "", "write the results to a YAML result file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	cfg := engineConfig.Search
	if b, _ := cmd.Flags().GetStringSlice("backend"); len(b) > 0 {
		cfg.Backends = b
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.ResultsPerQuery
	}

	backend, err := search.New(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if engineConfig.Orchestrator.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, engineConfig.Orchestrator.SearchTimeout)
		defer cancel()
	}

	results, err := backend.Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("searching %s: %w", backend.Name(), err)
	}
	results, removed := search.Deduplicate(results)

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteResultFile(path, query, backend.Name(), limit, results, removed); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %d results to %s\n", len(results), path)
	}

	switch {
	case mustBool(cmd, "csl"):
		return search.FormatCSL(results, os.Stdout)
	case mustBool(cmd, "json"):
		return search.FormatJSON(results, os.Stdout)
	default:
		search.FormatTable(results, os.Stdout)
		if removed > 0 {
			fmt.Printf("%d duplicates removed\n", removed)
		}
		return nil
	}
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
