// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/discovery-engine/internal/synthesis"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch <jobs-file>",
	Short: "Run several discovery jobs concurrently",
	Long: `Batch reads a YAML file listing job requests and runs them concurrently,
at most --parallel at a time. Jobs share only the checkpoint store. A failed
job does not stop the others; each can be continued with resume.

File format:

  jobs:
    - goal: graph neural networks for molecule property prediction
      owner: ada
      scope:
        discovery_depth: focused
        publication_window_years: 5`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("parallel", 2, "maximum number of jobs running at once")
	addCompletionFlags(batchCmd)

	rootCmd.AddCommand(batchCmd)
}

// batchFile is the on-disk list of job requests.
type batchFile struct {
	Jobs []types.JobRequest `yaml:"jobs"`
}

func readBatchFile(path string) ([]types.JobRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	var bf batchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}
	var jobs []types.JobRequest
	for i, j := range bf.Jobs {
		j.Goal = strings.TrimSpace(j.Goal)
		if j.Goal == "" {
			return nil, fmt.Errorf("batch file: job %d has no goal", i+1)
		}
		jobs = append(jobs, j)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("batch file %s lists no jobs", path)
	}
	return jobs, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	reqs, err := readBatchFile(args[0])
	if err != nil {
		return err
	}
	parallel, _ := cmd.Flags().GetInt("parallel")
	if parallel < 1 {
		parallel = 1
	}
	skipSynth, _ := cmd.Flags().GetBool("no-synthesis")
	format, _ := cmd.Flags().GetString("format")
	dir, _ := cmd.Flags().GetString("output-dir")
	if dir == "" {
		dir = engineConfig.OutputDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	eng, err := newEngine(ctx, engineConfig, io.Discard)
	if err != nil {
		return err
	}
	defer eng.Close()

	var (
		mu     sync.Mutex
		failed int
	)
	report := func(msg string, a ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Printf(msg, a...)
	}

	var g errgroup.Group
	g.SetLimit(parallel)
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			sum, err := eng.orch.RunJob(ctx, req)
			if err == nil && !skipSynth {
				var r types.Report
				r, err = eng.orch.Complete(ctx, sum.JobID, eng.synth)
				if err == nil {
					_, err = synthesis.Export(dir, r, format)
				}
			}
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				report("failed:  %q job=%s (%v)\n", req.Goal, sum.JobID, err)
				return nil
			}
			report("done:    %q job=%s found=%d validated=%d extracted=%d\n",
				req.Goal, sum.JobID, sum.SourcesFound, sum.SourcesValidated, sum.ExtractionsComplete)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("\nBatch summary: %d succeeded, %d failed (total: %d)\n", len(reqs)-failed, failed, len(reqs))
	if failed > 0 {
		return fmt.Errorf("%d job(s) failed", failed)
	}
	return nil
}
