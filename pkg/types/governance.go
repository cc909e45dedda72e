// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ImpactLevel selects the minimum citation count a source must carry.
type ImpactLevel string

const (
	ImpactCuttingEdge ImpactLevel = "cutting_edge"
	ImpactHigh        ImpactLevel = "high_impact"
	ImpactEstablished ImpactLevel = "established"
	ImpactBaseline    ImpactLevel = "baseline"
)

// DiscoveryDepth selects how many sources a job aims for.
type DiscoveryDepth string

const (
	DepthRapid         DiscoveryDepth = "rapid"
	DepthFocused       DiscoveryDepth = "focused"
	DepthComprehensive DiscoveryDepth = "comprehensive"
	DepthExhaustive    DiscoveryDepth = "exhaustive"
)

// ScopePreferences are the caller-facing knobs that shape a job's policy.
// Zero values mean "use the default".
type ScopePreferences struct {
	// PublicationWindowYears restricts sources to the last N years.
	PublicationWindowYears int `json:"publication_window_years,omitempty" yaml:"publication_window_years,omitempty"`

	// ImpactLevel sets the citation floor.
	ImpactLevel ImpactLevel `json:"impact_level,omitempty" yaml:"impact_level,omitempty"`

	// DiscoveryDepth sets the source cap.
	DiscoveryDepth DiscoveryDepth `json:"discovery_depth,omitempty" yaml:"discovery_depth,omitempty"`

	// RequirePeerReview rejects preprints and sources with no venue.
	RequirePeerReview bool `json:"require_peer_review,omitempty" yaml:"require_peer_review,omitempty"`
}

// Policy is the resolved set of acceptance rules for a job.
type Policy struct {
	MinYear             int  `json:"min_year" yaml:"min_year"`
	MinCitations        int  `json:"min_citations" yaml:"min_citations"`
	MaxSources          int  `json:"max_sources" yaml:"max_sources"`
	RequirePeerReviewed bool `json:"require_peer_reviewed" yaml:"require_peer_reviewed"`
}

// ValidationResult is the outcome of checking one candidate against a Policy.
type ValidationResult struct {
	Valid      bool     `json:"valid" yaml:"valid"`
	Violations []string `json:"violations,omitempty" yaml:"violations,omitempty"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
}
