// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package governance

import (
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// violationPenalty is subtracted from confidence for each failed check.
const violationPenalty = 0.3

// preprintVenues mark a venue as not peer reviewed.
var preprintVenues = []string{"arxiv", "biorxiv", "medrxiv", "ssrn", "preprint"}

// Validate runs every check independently and reports all violations.
// A candidate with no year fails the age check.
func Validate(c types.Candidate, p types.Policy) types.ValidationResult {
	var violations []string

	if c.Year < p.MinYear {
		year := "unknown"
		if c.Year > 0 {
			year = fmt.Sprintf("%d", c.Year)
		}
		violations = append(violations, fmt.Sprintf("publication too old (%s < %d)", year, p.MinYear))
	}

	if c.Citations < p.MinCitations {
		violations = append(violations, fmt.Sprintf("low citations (%d < %d)", c.Citations, p.MinCitations))
	}

	if p.RequirePeerReviewed && !peerReviewed(c.Venue) {
		venue := c.Venue
		if venue == "" {
			venue = "no venue"
		}
		violations = append(violations, fmt.Sprintf("not peer reviewed (%s)", venue))
	}

	return types.ValidationResult{
		Valid:      len(violations) == 0,
		Violations: violations,
		Confidence: math.Max(0, 1-violationPenalty*float64(len(violations))),
	}
}

// ValidateAll returns the candidates that pass, in input order.
func ValidateAll(cs []types.Candidate, p types.Policy) []types.Candidate {
	var passing []types.Candidate
	for _, c := range cs {
		if Validate(c, p).Valid {
			passing = append(passing, c)
		}
	}
	return passing
}

// Rejections maps each failing candidate's key to its violations.
func Rejections(cs []types.Candidate, p types.Policy) map[string][]string {
	out := make(map[string][]string)
	for _, c := range cs {
		if r := Validate(c, p); !r.Valid {
			out[c.Key()] = r.Violations
		}
	}
	return out
}

func peerReviewed(venue string) bool {
	v := strings.ToLower(strings.TrimSpace(venue))
	if v == "" {
		return false
	}
	for _, pre := range preprintVenues {
		if strings.Contains(v, pre) {
			return false
		}
	}
	return true
}
