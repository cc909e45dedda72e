// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the discovery-engine:
// jobs and their execution state, candidates, extractions, governance
// policy, audit entries, and configuration.
package types

import "time"

// Status is the lifecycle state of a discovery job. Statuses are ordered;
// a job only moves forward through them.
type Status string

const (
	StatusInitializing Status = "INITIALIZING"
	StatusPlanning     Status = "PLANNING"
	StatusSearching    Status = "SEARCHING"
	StatusValidating   Status = "VALIDATING"
	StatusExtracting   Status = "EXTRACTING"
	StatusSynthesizing Status = "SYNTHESIZING"
	StatusCompleted    Status = "COMPLETED"
)

var statusOrder = map[Status]int{
	StatusInitializing: 0,
	StatusPlanning:     1,
	StatusSearching:    2,
	StatusValidating:   3,
	StatusExtracting:   4,
	StatusSynthesizing: 5,
	StatusCompleted:    6,
}

// Rank returns the position of s in the job lifecycle, or -1 for an
// unknown status.
func (s Status) Rank() int {
	if r, ok := statusOrder[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s.Rank() >= 0 }

// Before reports whether s comes earlier in the lifecycle than other.
func (s Status) Before(other Status) bool { return s.Rank() < other.Rank() }

// JobRequest is the input to a discovery run.
type JobRequest struct {
	// Goal is the free-text research goal.
	Goal string `json:"goal" yaml:"goal"`

	// Owner tags the job with the requesting user (default "anonymous").
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`

	// Scope carries the caller's preferences for the governance policy.
	Scope ScopePreferences `json:"scope" yaml:"scope"`
}

// Job is the immutable record created when a run starts.
type Job struct {
	// ID is a globally unique job identifier.
	ID string `json:"id" yaml:"id"`

	// Goal is the research goal text.
	Goal string `json:"goal" yaml:"goal"`

	// Owner is the user tag; "anonymous" when unset.
	Owner string `json:"owner" yaml:"owner"`

	// Scope holds the preferences the job was created with so that the
	// policy can be re-derived on resume.
	Scope ScopePreferences `json:"scope" yaml:"scope"`

	// CreatedAt is the job creation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ExecutionState is the mutable, checkpointed record of a job's progress.
type ExecutionState struct {
	JobID        string `json:"job_id" yaml:"job_id"`
	Status       Status `json:"status" yaml:"status"`
	CurrentPhase string `json:"current_phase" yaml:"current_phase"`

	// SourcesFound accumulates every distinct candidate returned by search.
	// It only grows.
	SourcesFound []Candidate `json:"sources_found" yaml:"sources_found"`

	// SourcesValidated is the accepted subset of SourcesFound, written once
	// at the end of validation.
	SourcesValidated []Candidate `json:"sources_validated" yaml:"sources_validated"`

	// ExtractionsComplete holds one record per successfully extracted
	// source.
	ExtractionsComplete []Extraction `json:"extractions_complete" yaml:"extractions_complete"`

	// ExecutionPlan is written once after planning.
	ExecutionPlan *Plan `json:"execution_plan,omitempty" yaml:"execution_plan,omitempty"`

	// CompletedQueries lists every query already issued, successful or not.
	CompletedQueries []string `json:"completed_queries" yaml:"completed_queries"`

	// RefinementQueries and ExpansionQueries are the subsets of
	// CompletedQueries issued by adaptive refinement and search expansion.
	// Their lengths are checked against the configured caps on resume.
	RefinementQueries []string `json:"refinement_queries,omitempty" yaml:"refinement_queries,omitempty"`
	ExpansionQueries  []string `json:"expansion_queries,omitempty" yaml:"expansion_queries,omitempty"`

	// Threshold is the relevance cut-off chosen during validation.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	LastCheckpoint time.Time `json:"last_checkpoint" yaml:"last_checkpoint"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// HasQuery reports whether q has already been issued for this job.
func (s *ExecutionState) HasQuery(q string) bool {
	for _, done := range s.CompletedQueries {
		if done == q {
			return true
		}
	}
	return false
}

// JobSummary is returned to the caller when a run finishes or pauses.
type JobSummary struct {
	JobID               string  `json:"job_id" yaml:"job_id"`
	Status              Status  `json:"status" yaml:"status"`
	SourcesFound        int     `json:"sources_found" yaml:"sources_found"`
	SourcesValidated    int     `json:"sources_validated" yaml:"sources_validated"`
	ExtractionsComplete int     `json:"extractions_complete" yaml:"extractions_complete"`
	Threshold           float64 `json:"threshold" yaml:"threshold"`
	QueriesExecuted     int     `json:"queries_executed" yaml:"queries_executed"`
	RefinementQueries   int     `json:"refinement_queries" yaml:"refinement_queries"`
	ExpansionQueries    int     `json:"expansion_queries" yaml:"expansion_queries"`
}

// SummaryOf builds a JobSummary from the persisted state.
func SummaryOf(s *ExecutionState) JobSummary {
	return JobSummary{
		JobID:               s.JobID,
		Status:              s.Status,
		SourcesFound:        len(s.SourcesFound),
		SourcesValidated:    len(s.SourcesValidated),
		ExtractionsComplete: len(s.ExtractionsComplete),
		Threshold:           s.Threshold,
		QueriesExecuted:     len(s.CompletedQueries),
		RefinementQueries:   len(s.RefinementQueries),
		ExpansionQueries:    len(s.ExpansionQueries),
	}
}
