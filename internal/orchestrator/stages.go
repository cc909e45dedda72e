// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/pdiddy/discovery-engine/internal/governance"
	"github.com/pdiddy/discovery-engine/internal/planner"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

func (o *Orchestrator) planStage(ctx context.Context, r *run) error {
	if r.st.ExecutionPlan != nil {
		return nil
	}
	gctx, cancel := withTimeout(ctx, o.cfg.GenerateTimeout)
	plan := o.c.Planner.Plan(gctx, r.job.Goal, r.job.Scope)
	cancel()

	r.st.ExecutionPlan = &plan
	if err := o.checkpoint(ctx, r.st); err != nil {
		return err
	}
	fmt.Fprintf(o.progress, "planned: %d queries (%s)\n", len(plan.Queries), plan.Origin)
	return o.record(ctx, r, "Search plan created", fmt.Sprintf("Planned %d queries", len(plan.Queries)), map[string]any{
		"queries":     plan.Queries,
		"origin":      string(plan.Origin),
		"max_sources": plan.MaxSources,
	})
}

func (o *Orchestrator) searchStage(ctx context.Context, r *run) error {
	if r.st.ExecutionPlan == nil {
		return fmt.Errorf("job %s has no execution plan", r.job.ID)
	}
	for _, q := range r.st.ExecutionPlan.Queries {
		if r.st.HasQuery(q) {
			continue
		}
		if _, err := o.runQuery(ctx, r, q, plannedQuery); err != nil {
			return err
		}
	}
	return o.refine(ctx, r)
}

// queryKind tells runQuery which list of issued queries to extend.
type queryKind int

const (
	plannedQuery queryKind = iota
	refinementQuery
	expansionQuery
)

// markIssued records q as completed, and as a refinement or expansion
// query when it is one. The caller checkpoints.
func markIssued(st *types.ExecutionState, q string, kind queryKind) {
	st.CompletedQueries = append(st.CompletedQueries, q)
	switch kind {
	case refinementQuery:
		st.RefinementQueries = append(st.RefinementQueries, q)
	case expansionQuery:
		st.ExpansionQueries = append(st.ExpansionQueries, q)
	}
}

// runQuery issues one search and records its outcome. A failed search is
// audited and marked completed; only store errors and cancellation are
// returned. The result holds the candidates that were new to the job.
func (o *Orchestrator) runQuery(ctx context.Context, r *run, q string, kind queryKind) ([]types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fmt.Fprintf(o.progress, "searching: %s\n", q)

	sctx, cancel := withTimeout(ctx, o.cfg.SearchTimeout)
	results, err := o.c.Search.Search(sctx, q, o.cfg.ResultsPerQuery)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.logger.Warn("search failed", "job", r.job.ID, "query", q, "error", err)
		fmt.Fprintf(o.progress, "failed:  %s (%v)\n", q, err)
		markIssued(r.st, q, kind)
		if err := o.checkpoint(ctx, r.st); err != nil {
			return nil, err
		}
		return nil, o.recordTool(ctx, r, "Query failed", err.Error(), o.c.Search.Name(), map[string]any{
			"query": q,
		})
	}

	added := appendFound(r.st, results)
	markIssued(r.st, q, kind)
	if err := o.checkpoint(ctx, r.st); err != nil {
		return nil, err
	}
	fmt.Fprintf(o.progress, "  %d results, %d new (total %d)\n", len(results), len(added), len(r.st.SourcesFound))
	return added, o.recordTool(ctx, r, "Query executed",
		fmt.Sprintf("Found %d results, %d new", len(results), len(added)), o.c.Search.Name(), map[string]any{
			"query":   q,
			"results": len(results),
			"new":     len(added),
			"total":   len(r.st.SourcesFound),
		})
}

// refine issues extra queries when the first pass found fewer than half
// the plan's source cap. Refiner failures are audited and otherwise
// ignored. Queries issued before an interruption count against the cap.
func (o *Orchestrator) refine(ctx context.Context, r *run) error {
	target := r.maxSources()
	found := len(r.st.SourcesFound)
	if found >= target/2 {
		return nil
	}
	budget := o.cfg.MaxRefinementQueries - len(r.st.RefinementQueries)
	if budget <= 0 {
		return nil
	}
	if o.c.Refiner == nil {
		return o.record(ctx, r, "Refinement skipped", "No refiner configured", nil)
	}

	gctx, cancel := withTimeout(ctx, o.cfg.GenerateTimeout)
	queries, err := o.c.Refiner.Refine(gctx, planner.RefineRequest{
		Goal:    r.job.Goal,
		Found:   found,
		Target:  target,
		Queries: append([]string(nil), r.st.CompletedQueries...),
	})
	cancel()
	if err != nil {
		o.logger.Warn("refinement failed", "job", r.job.ID, "error", err)
		return o.record(ctx, r, "Refinement skipped", err.Error(), map[string]any{
			"found":  found,
			"target": target,
		})
	}
	if len(queries) > budget {
		queries = queries[:budget]
	}
	if len(queries) == 0 {
		return o.record(ctx, r, "Refinement skipped", "Refiner returned no new queries", nil)
	}

	if err := o.record(ctx, r, "Refinement triggered",
		fmt.Sprintf("Found %d sources, below %d", found, target/2), map[string]any{
			"queries": queries,
		}); err != nil {
		return err
	}
	for _, q := range queries {
		if r.st.HasQuery(q) {
			continue
		}
		if _, err := o.runQuery(ctx, r, q, refinementQuery); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) validateStage(ctx context.Context, r *run) error {
	goal := r.job.Goal
	passed := governance.ValidateAll(r.st.SourcesFound, r.policy)
	scores := o.score(ctx, passed, goal)
	threshold := o.c.Scorer.ChooseThreshold(scores)
	accepted := acceptAbove(passed, scores, threshold, nil)

	if err := o.record(ctx, r, "Sources validated",
		fmt.Sprintf("%d of %d passed governance, %d above threshold %.2f",
			len(passed), len(r.st.SourcesFound), len(accepted), threshold), map[string]any{
			"found":     len(r.st.SourcesFound),
			"passed":    len(passed),
			"rejected":  len(r.st.SourcesFound) - len(passed),
			"threshold": threshold,
			"accepted":  len(accepted),
		}); err != nil {
		return err
	}

	if len(accepted) < o.cfg.MinAccepted {
		var err error
		accepted, err = o.expand(ctx, r, accepted, threshold)
		if err != nil {
			return err
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Score() > accepted[j].Score()
	})
	maxSources := r.maxSources()
	if len(accepted) > maxSources {
		accepted = accepted[:maxSources]
	}

	r.st.Threshold = threshold
	r.st.SourcesValidated = accepted
	if err := o.checkpoint(ctx, r.st); err != nil {
		return err
	}
	fmt.Fprintf(o.progress, "validated: %d accepted (threshold %.2f)\n", len(accepted), threshold)
	return o.record(ctx, r, "Sources selected", fmt.Sprintf("Selected %d sources for extraction", len(accepted)), map[string]any{
		"selected":    len(accepted),
		"max_sources": maxSources,
	})
}

// score bounds BatchScore by the generation timeout, since synonym
// providers may call the text generator.
func (o *Orchestrator) score(ctx context.Context, cs []types.Candidate, goal string) []float64 {
	gctx, cancel := withTimeout(ctx, o.cfg.GenerateTimeout)
	defer cancel()
	return o.c.Scorer.BatchScore(gctx, cs, goal)
}

// expand searches with substitution queries until MinAccepted sources are
// accepted or the queries run out. New candidates are scored against the
// first-pass threshold. Expansion queries issued before an interruption
// count against the cap; their results are already in SourcesFound.
func (o *Orchestrator) expand(ctx context.Context, r *run, accepted []types.Candidate, threshold float64) ([]types.Candidate, error) {
	if o.c.Expander == nil {
		return accepted, o.record(ctx, r, "Expansion skipped", "No expander configured", nil)
	}
	budget := o.cfg.MaxExpansionQueries - len(r.st.ExpansionQueries)
	if budget <= 0 {
		return accepted, o.record(ctx, r, "Expansion skipped", "Expansion query limit reached", map[string]any{
			"issued": len(r.st.ExpansionQueries),
		})
	}
	queries := o.c.Expander.Expand(r.job.Goal, r.st.CompletedQueries)
	if len(queries) > budget {
		queries = queries[:budget]
	}
	if len(queries) == 0 {
		return accepted, o.record(ctx, r, "Expansion skipped", "No new expansion queries", nil)
	}
	if err := o.record(ctx, r, "Expansion triggered",
		fmt.Sprintf("Only %d sources accepted, below %d", len(accepted), o.cfg.MinAccepted), map[string]any{
			"queries": queries,
		}); err != nil {
		return accepted, err
	}

	seen := make(map[string]bool, len(accepted))
	for _, c := range accepted {
		seen[c.Key()] = true
	}
	for _, q := range queries {
		if len(accepted) >= o.cfg.MinAccepted {
			break
		}
		if r.st.HasQuery(q) {
			continue
		}
		added, err := o.runQuery(ctx, r, q, expansionQuery)
		if err != nil {
			return accepted, err
		}

		valid := governance.ValidateAll(added, r.policy)
		scores := o.score(ctx, valid, r.job.Goal)
		for _, c := range acceptAbove(valid, scores, threshold, nil) {
			if seen[c.Key()] {
				continue
			}
			seen[c.Key()] = true
			accepted = append(accepted, c)
		}
	}
	return accepted, nil
}

func (o *Orchestrator) extractStage(ctx context.Context, r *run) error {
	done := make(map[string]bool, len(r.st.ExtractionsComplete))
	for _, ex := range r.st.ExtractionsComplete {
		done[ex.SourceURL] = true
	}

	failed := 0
	for _, c := range r.st.SourcesValidated {
		if err := ctx.Err(); err != nil {
			return err
		}
		if done[c.URL] {
			continue
		}
		if c.URL == "" {
			failed++
			if err := o.record(ctx, r, "Extraction failed", "Source has no url", map[string]any{
				"title": c.Title,
			}); err != nil {
				return err
			}
			continue
		}

		ectx, cancel := withTimeout(ctx, o.cfg.ExtractTimeout)
		ex, err := o.c.Extract.Extract(ectx, c.URL)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			o.logger.Warn("extraction failed", "job", r.job.ID, "url", c.URL, "error", err)
			fmt.Fprintf(o.progress, "failed:  %s (%v)\n", c.URL, err)
			if err := o.recordTool(ctx, r, "Extraction failed", err.Error(), "extract", map[string]any{
				"url": c.URL,
			}); err != nil {
				return err
			}
			continue
		}

		// The resume skip set is keyed by candidate URL; an extractor's
		// canonical form is not kept.
		ex.SourceURL = c.URL
		if ex.Title == "" {
			ex.Title = c.Title
		}
		if ex.ExtractedAt.IsZero() {
			ex.ExtractedAt = o.now().UTC()
		}
		r.st.ExtractionsComplete = append(r.st.ExtractionsComplete, ex)
		done[c.URL] = true
		if err := o.checkpoint(ctx, r.st); err != nil {
			return err
		}
		fmt.Fprintf(o.progress, "extracted: %s\n", c.URL)
	}

	return o.record(ctx, r, "Extraction finished",
		fmt.Sprintf("Extracted %d of %d sources", len(r.st.ExtractionsComplete), len(r.st.SourcesValidated)), map[string]any{
			"extracted": len(r.st.ExtractionsComplete),
			"failed":    failed,
		})
}

// appendFound adds the candidates not yet in SourcesFound and returns them.
// Candidates without an identity are dropped.
func appendFound(st *types.ExecutionState, cs []types.Candidate) []types.Candidate {
	seen := make(map[string]bool, len(st.SourcesFound))
	for _, c := range st.SourcesFound {
		seen[c.Key()] = true
	}
	var added []types.Candidate
	for _, c := range cs {
		k := c.Key()
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		st.SourcesFound = append(st.SourcesFound, c)
		added = append(added, c)
	}
	return added
}

// acceptAbove appends to dst the candidates scoring at least threshold,
// carrying their score.
func acceptAbove(cs []types.Candidate, scores []float64, threshold float64, dst []types.Candidate) []types.Candidate {
	for i, c := range cs {
		if i < len(scores) && scores[i] >= threshold {
			dst = append(dst, c.WithScore(scores[i]))
		}
	}
	return dst
}
