// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package governance turns caller scope preferences into an acceptance
// policy and checks candidates against it.
package governance

import (
	"time"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Policy defaults applied when a preference is unset.
const (
	DefaultMinYear      = 1990
	DefaultMinCitations = 5
	DefaultMaxSources   = 30

	// DefaultWindowYears is used when a window is requested without a
	// positive length.
	DefaultWindowYears = 3

	// unknownImpactCitations applies to an impact level not in the table.
	unknownImpactCitations = 20
)

var impactCitations = map[types.ImpactLevel]int{
	types.ImpactCuttingEdge: 50,
	types.ImpactHigh:        20,
	types.ImpactEstablished: 10,
	types.ImpactBaseline:    0,
}

var depthSources = map[types.DiscoveryDepth]int{
	types.DepthRapid:         10,
	types.DepthFocused:       15,
	types.DepthComprehensive: 30,
	types.DepthExhaustive:    50,
}

// Resolve converts preferences into a Policy. now anchors the publication
// window; the result depends on nothing else.
func Resolve(prefs types.ScopePreferences, now time.Time) types.Policy {
	p := types.Policy{
		MinYear:             DefaultMinYear,
		MinCitations:        DefaultMinCitations,
		MaxSources:          DefaultMaxSources,
		RequirePeerReviewed: prefs.RequirePeerReview,
	}

	if prefs.PublicationWindowYears != 0 {
		window := prefs.PublicationWindowYears
		if window < 0 {
			window = DefaultWindowYears
		}
		p.MinYear = now.Year() - window
	}

	if prefs.ImpactLevel != "" {
		p.MinCitations = CitationsFor(prefs.ImpactLevel)
	}

	if prefs.DiscoveryDepth != "" {
		p.MaxSources = MaxSourcesFor(prefs.DiscoveryDepth)
	}

	return p
}

// CitationsFor returns the citation floor of an impact level.
func CitationsFor(level types.ImpactLevel) int {
	if n, ok := impactCitations[level]; ok {
		return n
	}
	return unknownImpactCitations
}

// MaxSourcesFor returns the source cap of a discovery depth. Unknown or
// empty depths get the comprehensive cap.
func MaxSourcesFor(depth types.DiscoveryDepth) int {
	if n, ok := depthSources[depth]; ok {
		return n
	}
	return DefaultMaxSources
}
