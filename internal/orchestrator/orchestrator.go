// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator runs discovery jobs as a resumable state machine:
// plan, search, validate and score, extract, and hand off to synthesis.
// Every state mutation is checkpointed before the next external call, so
// a job interrupted at any point can be resumed from its stored state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/discovery-engine/internal/audit"
	"github.com/pdiddy/discovery-engine/internal/checkpoint"
	"github.com/pdiddy/discovery-engine/internal/extract"
	"github.com/pdiddy/discovery-engine/internal/governance"
	"github.com/pdiddy/discovery-engine/internal/logging"
	"github.com/pdiddy/discovery-engine/internal/planner"
	"github.com/pdiddy/discovery-engine/internal/search"
	"github.com/pdiddy/discovery-engine/internal/synthesis"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// DefaultOwner tags jobs submitted without an owner.
const DefaultOwner = "anonymous"

// Defaults applied to zero-valued Config fields.
const (
	DefaultMinAccepted     = 5
	DefaultResultsPerQuery = 20
)

// ErrInvalidTransition is returned when a job would move to an earlier
// status, or when an operation needs a status the job is not in.
var ErrInvalidTransition = errors.New("invalid status transition")

// Planner produces the search plan of a job.
type Planner interface {
	Plan(ctx context.Context, goal string, prefs types.ScopePreferences) types.Plan
}

// Refiner proposes extra queries when the first search pass comes up short.
type Refiner interface {
	Refine(ctx context.Context, req planner.RefineRequest) ([]string, error)
}

// Expander proposes substitution queries when too few sources are accepted.
type Expander interface {
	Expand(goal string, executed []string) []string
}

// Scorer rates candidates against the goal and picks the acceptance cut-off.
type Scorer interface {
	BatchScore(ctx context.Context, cs []types.Candidate, goal string) []float64
	ChooseThreshold(scores []float64) float64
}

// Config holds the limits and per-call timeouts of a run. A zero timeout
// leaves the call bounded only by the caller's context.
type Config struct {
	types.OrchestratorConfig

	// ResultsPerQuery is the limit passed to each search call.
	ResultsPerQuery int
}

// Components are the collaborators a job calls out to. Refiner and
// Expander may be nil, which disables the corresponding step.
type Components struct {
	Planner  Planner
	Refiner  Refiner
	Expander Expander
	Search   search.Backend
	Extract  extract.Service
	Scorer   Scorer
}

// Orchestrator drives jobs through their lifecycle.
type Orchestrator struct {
	cfg      Config
	jobs     *checkpoint.Manager
	trail    *audit.Trail
	c        Components
	now      func() time.Time
	newID    func() string
	progress io.Writer
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the time source used for job timestamps and policy
// resolution.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithProgress sets the writer that receives one-line progress updates.
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) { o.progress = w }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithIDFunc sets the job id generator.
func WithIDFunc(f func() string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

// New returns an Orchestrator persisting to jobs and trail.
func New(cfg Config, jobs *checkpoint.Manager, trail *audit.Trail, c Components, opts ...Option) *Orchestrator {
	if cfg.MinAccepted <= 0 {
		cfg.MinAccepted = DefaultMinAccepted
	}
	if cfg.MaxRefinementQueries <= 0 {
		cfg.MaxRefinementQueries = planner.DefaultMaxRefinements
	}
	if cfg.MaxExpansionQueries <= 0 {
		cfg.MaxExpansionQueries = planner.DefaultMaxExpansions
	}
	if cfg.ResultsPerQuery <= 0 {
		cfg.ResultsPerQuery = DefaultResultsPerQuery
	}
	o := &Orchestrator{
		cfg:      cfg,
		jobs:     jobs,
		trail:    trail,
		c:        c,
		now:      time.Now,
		newID:    uuid.NewString,
		progress: io.Discard,
		logger:   logging.New("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run carries the per-invocation context of a job.
type run struct {
	job    types.Job
	st     *types.ExecutionState
	policy types.Policy
}

func (r *run) summary() types.JobSummary { return types.SummaryOf(r.st) }

// maxSources is the source cap recorded in the plan. Jobs checkpointed
// before planning fall back to the policy.
func (r *run) maxSources() int {
	if p := r.st.ExecutionPlan; p != nil && p.MaxSources > 0 {
		return p.MaxSources
	}
	return r.policy.MaxSources
}

// RunJob creates a job for req and drives it to SYNTHESIZING. The returned
// summary reflects the persisted state even when an error is returned.
func (o *Orchestrator) RunJob(ctx context.Context, req types.JobRequest) (types.JobSummary, error) {
	if req.Goal == "" {
		return types.JobSummary{}, errors.New("goal is required")
	}
	owner := req.Owner
	if owner == "" {
		owner = DefaultOwner
	}
	now := o.now().UTC()
	job := types.Job{
		ID:        o.newID(),
		Goal:      req.Goal,
		Owner:     owner,
		Scope:     req.Scope,
		CreatedAt: now,
	}

	sctx, cancel := o.storeCtx(ctx)
	err := o.jobs.CreateJob(sctx, job)
	cancel()
	if err != nil {
		return types.JobSummary{}, fmt.Errorf("creating job: %w", err)
	}

	st := &types.ExecutionState{
		JobID:     job.ID,
		Status:    types.StatusInitializing,
		CreatedAt: now,
	}
	r := &run{job: job, st: st, policy: governance.Resolve(job.Scope, job.CreatedAt)}

	if err := o.advance(ctx, st, types.StatusPlanning); err != nil {
		return r.summary(), err
	}
	if err := o.record(ctx, r, "Job created", fmt.Sprintf("Discovery job started for goal %q", job.Goal), map[string]any{
		"owner":         job.Owner,
		"min_year":      r.policy.MinYear,
		"min_citations": r.policy.MinCitations,
		"max_sources":   r.policy.MaxSources,
		"peer_reviewed": r.policy.RequirePeerReviewed,
	}); err != nil {
		return r.summary(), err
	}
	o.logger.Info("job created", "job", job.ID, "goal", job.Goal, "owner", job.Owner)
	fmt.Fprintf(o.progress, "job: %s\n", job.ID)

	return o.drive(ctx, r)
}

// Resume reloads a job and continues it from its persisted status.
// Queries already issued and sources already extracted are not repeated.
func (o *Orchestrator) Resume(ctx context.Context, jobID string) (types.JobSummary, error) {
	sctx, cancel := o.storeCtx(ctx)
	job, err := o.jobs.GetJob(sctx, jobID)
	var st *types.ExecutionState
	if err == nil {
		st, err = o.jobs.LoadState(sctx, jobID)
	}
	cancel()
	if err != nil {
		return types.JobSummary{}, fmt.Errorf("loading job %s: %w", jobID, err)
	}

	r := &run{job: job, st: st, policy: governance.Resolve(job.Scope, job.CreatedAt)}
	if !st.Status.Before(types.StatusSynthesizing) {
		return r.summary(), nil
	}
	if err := o.record(ctx, r, "Job resumed", fmt.Sprintf("Resuming from %s", st.Status), map[string]any{
		"completed_queries": len(st.CompletedQueries),
		"extractions":       len(st.ExtractionsComplete),
	}); err != nil {
		return r.summary(), err
	}
	o.logger.Info("job resumed", "job", jobID, "status", st.Status)
	fmt.Fprintf(o.progress, "resuming: %s (%s)\n", jobID, st.Status)
	return o.drive(ctx, r)
}

// drive runs every stage from the job's current status up to SYNTHESIZING.
func (o *Orchestrator) drive(ctx context.Context, r *run) (types.JobSummary, error) {
	stages := []struct {
		status types.Status
		next   types.Status
		fn     func(context.Context, *run) error
	}{
		{types.StatusPlanning, types.StatusSearching, o.planStage},
		{types.StatusSearching, types.StatusValidating, o.searchStage},
		{types.StatusValidating, types.StatusExtracting, o.validateStage},
		{types.StatusExtracting, types.StatusSynthesizing, o.extractStage},
	}
	for _, s := range stages {
		if r.st.Status != s.status {
			continue
		}
		if err := s.fn(ctx, r); err != nil {
			return r.summary(), err
		}
		if err := o.advance(ctx, r.st, s.next); err != nil {
			return r.summary(), err
		}
	}

	sum := r.summary()
	o.logger.Info("job ready for synthesis",
		"job", r.job.ID,
		"found", sum.SourcesFound,
		"validated", sum.SourcesValidated,
		"extracted", sum.ExtractionsComplete)
	fmt.Fprintf(o.progress, "\nJob summary: %d found, %d validated, %d extracted (threshold %.2f)\n",
		sum.SourcesFound, sum.SourcesValidated, sum.ExtractionsComplete, sum.Threshold)
	return sum, nil
}

// Complete synthesizes the job's extractions, stores the report, and
// marks the job COMPLETED. The job must be SYNTHESIZING.
func (o *Orchestrator) Complete(ctx context.Context, jobID string, synth synthesis.Synthesizer) (types.Report, error) {
	sctx, cancel := o.storeCtx(ctx)
	job, err := o.jobs.GetJob(sctx, jobID)
	var st *types.ExecutionState
	if err == nil {
		st, err = o.jobs.LoadState(sctx, jobID)
	}
	cancel()
	if err != nil {
		return types.Report{}, fmt.Errorf("loading job %s: %w", jobID, err)
	}
	if st.Status != types.StatusSynthesizing {
		return types.Report{}, fmt.Errorf("job %s is %s, want %s: %w",
			jobID, st.Status, types.StatusSynthesizing, ErrInvalidTransition)
	}

	gctx, gcancel := withTimeout(ctx, o.cfg.GenerateTimeout)
	report, err := synth.Synthesize(gctx, job.Goal, st.ExtractionsComplete)
	gcancel()
	if err != nil {
		return types.Report{}, fmt.Errorf("synthesizing %s: %w", jobID, err)
	}
	report.JobID = jobID

	sctx, cancel = o.storeCtx(ctx)
	err = o.jobs.SaveResults(sctx, jobID, report)
	cancel()
	if err != nil {
		return report, err
	}
	if err := o.advance(ctx, st, types.StatusCompleted); err != nil {
		return report, err
	}
	r := &run{job: job, st: st}
	if err := o.record(ctx, r, "Job completed", "Synthesis report stored", map[string]any{
		"sources":        report.SourceCount,
		"no_data":        report.NoData,
		"citation_count": report.CitationCount,
	}); err != nil {
		return report, err
	}
	o.logger.Info("job completed", "job", jobID, "sources", report.SourceCount)
	fmt.Fprintf(o.progress, "completed: %s (%d sources)\n", jobID, report.SourceCount)
	return report, nil
}

// Job returns the job record.
func (o *Orchestrator) Job(ctx context.Context, jobID string) (types.Job, error) {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	return o.jobs.GetJob(sctx, jobID)
}

// Jobs lists every job still held by the store.
func (o *Orchestrator) Jobs(ctx context.Context) ([]types.Job, error) {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	return o.jobs.ListJobs(sctx)
}

// State returns the job's last checkpointed execution state.
func (o *Orchestrator) State(ctx context.Context, jobID string) (*types.ExecutionState, error) {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	return o.jobs.LoadState(sctx, jobID)
}

// Audit returns the job's audit entries in append order.
func (o *Orchestrator) Audit(ctx context.Context, jobID string) ([]types.AuditEntry, error) {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	return o.trail.GetAll(sctx, jobID)
}

// Results returns the stored synthesis report of a completed job.
func (o *Orchestrator) Results(ctx context.Context, jobID string) (types.Report, error) {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	return o.jobs.LoadResults(sctx, jobID)
}

// Advance moves st to next. Moving to an earlier status is rejected;
// moving to the current status is a no-op.
func Advance(st *types.ExecutionState, next types.Status) error {
	if !next.Valid() {
		return fmt.Errorf("unknown status %q: %w", next, ErrInvalidTransition)
	}
	if next.Before(st.Status) {
		return fmt.Errorf("%s -> %s: %w", st.Status, next, ErrInvalidTransition)
	}
	st.Status = next
	st.CurrentPhase = phaseOf(next)
	return nil
}

// advance transitions st and checkpoints it.
func (o *Orchestrator) advance(ctx context.Context, st *types.ExecutionState, next types.Status) error {
	if err := Advance(st, next); err != nil {
		return err
	}
	o.logger.Debug("status changed", "job", st.JobID, "status", next)
	return o.checkpoint(ctx, st)
}

func (o *Orchestrator) checkpoint(ctx context.Context, st *types.ExecutionState) error {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	if err := o.jobs.Checkpoint(sctx, st); err != nil {
		o.logger.Error("checkpoint failed", "job", st.JobID, "error", err)
		return err
	}
	return nil
}

// record appends an audit entry for the job's current phase.
func (o *Orchestrator) record(ctx context.Context, r *run, decision, reasoning string, extra map[string]any) error {
	return o.recordTool(ctx, r, decision, reasoning, "", extra)
}

func (o *Orchestrator) recordTool(ctx context.Context, r *run, decision, reasoning, tool string, extra map[string]any) error {
	sctx, cancel := o.storeCtx(ctx)
	defer cancel()
	err := o.trail.Append(sctx, r.job.ID, types.AuditEntry{
		Timestamp: o.now().UTC(),
		Phase:     r.st.CurrentPhase,
		Decision:  decision,
		Reasoning: reasoning,
		Tool:      tool,
		Context:   extra,
	})
	if err != nil {
		o.logger.Error("audit append failed", "job", r.job.ID, "error", err)
	}
	return err
}

func (o *Orchestrator) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, o.cfg.StoreTimeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func phaseOf(s types.Status) string {
	switch s {
	case types.StatusInitializing:
		return "initialization"
	case types.StatusPlanning:
		return "planning"
	case types.StatusSearching:
		return "exploration"
	case types.StatusValidating:
		return "validation"
	case types.StatusExtracting:
		return "extraction"
	case types.StatusSynthesizing:
		return "synthesis"
	case types.StatusCompleted:
		return "complete"
	}
	return ""
}
