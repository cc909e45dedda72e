// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PlanOrigin records how a plan's queries were produced.
type PlanOrigin string

const (
	PlanGenerated PlanOrigin = "generated"
	PlanHeuristic PlanOrigin = "heuristic"
)

// PlanPhase describes one stage of the job for display.
type PlanPhase struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Plan is the search plan for a job.
type Plan struct {
	Queries    []string    `json:"queries" yaml:"queries"`
	MaxSources int         `json:"max_sources" yaml:"max_sources"`
	Origin     PlanOrigin  `json:"origin" yaml:"origin"`
	Phases     []PlanPhase `json:"phases,omitempty" yaml:"phases,omitempty"`
}

// AuditEntry is one append-only record of a decision made during a job.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Phase     string         `json:"phase" yaml:"phase"`
	Decision  string         `json:"decision" yaml:"decision"`
	Reasoning string         `json:"reasoning" yaml:"reasoning"`
	Tool      string         `json:"tool_used,omitempty" yaml:"tool_used,omitempty"`
	Context   map[string]any `json:"context,omitempty" yaml:"context,omitempty"`
}

// Finding is one key finding attributed to a source.
type Finding struct {
	SourceURL string `json:"source_url" yaml:"source_url"`
	Title     string `json:"title" yaml:"title"`
	Text      string `json:"text" yaml:"text"`
}

// Report is the synthesis output stored under a job's results key.
type Report struct {
	JobID         string    `json:"job_id" yaml:"job_id"`
	Goal          string    `json:"goal" yaml:"goal"`
	SourceCount   int       `json:"source_count" yaml:"source_count"`
	NoData        bool      `json:"no_data" yaml:"no_data"`
	Summary       string    `json:"summary" yaml:"summary"`
	Themes        []string  `json:"themes,omitempty" yaml:"themes,omitempty"`
	Findings      []Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
	Methodologies []string  `json:"methodologies,omitempty" yaml:"methodologies,omitempty"`
	CitationCount int       `json:"citation_count" yaml:"citation_count"`
	GeneratedAt   time.Time `json:"generated_at" yaml:"generated_at"`
}
