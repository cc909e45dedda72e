// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"text/template"

	"github.com/pdiddy/discovery-engine/internal/textgen"
)

// DefaultMaxRefinements caps the queries returned by Refine.
const DefaultMaxRefinements = 2

// ErrNoGenerator is returned by Refine when no text generator is
// configured.
var ErrNoGenerator = errors.New("no text generator configured")

var refinePromptTmpl = template.Must(template.New("refine").Parse(
	`Initial searches found only {{.Found}} sources (target: {{.Target}}).
Research Goal: {{.Goal}}
Original Queries: {{.Original}}

Generate {{.Max}} alternative search queries using different terminology or angles.
Return only the queries, one per line.`))

// RefineRequest describes a search shortfall.
type RefineRequest struct {
	Goal   string
	Found  int
	Target int

	// Queries lists the queries already issued; the first three seed the
	// prompt and none of them is returned again.
	Queries []string
}

// Refiner asks the text generator for alternative queries.
type Refiner struct {
	gen textgen.Generator
	max int
}

// NewRefiner returns a Refiner returning at most limit queries
// (DefaultMaxRefinements when limit ≤ 0).
func NewRefiner(gen textgen.Generator, limit int) *Refiner {
	if limit <= 0 {
		limit = DefaultMaxRefinements
	}
	return &Refiner{gen: gen, max: limit}
}

// listMarkerRe strips list numbering and bullets from generated lines.
var listMarkerRe = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)

// Refine returns up to the configured number of new queries, one per line
// of the generator's answer.
func (r *Refiner) Refine(ctx context.Context, req RefineRequest) ([]string, error) {
	if r.gen == nil {
		return nil, ErrNoGenerator
	}
	seed := req.Queries
	if len(seed) > 3 {
		seed = seed[:3]
	}
	prompt, err := textgen.Render(refinePromptTmpl, struct {
		Goal          string
		Found, Target int
		Original      string
		Max           int
	}{req.Goal, req.Found, req.Target, strings.Join(seed, ", "), r.max})
	if err != nil {
		return nil, err
	}

	text, err := r.gen.Complete(ctx, prompt, textgen.Options{Temperature: 0.7, MaxTokens: 150})
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = listMarkerRe.ReplaceAllString(line, "")
		lines = append(lines, strings.Trim(strings.TrimSpace(line), `"'`))
	}
	out := keepQueries(lines, lowerSet(req.Queries))
	if len(out) > r.max {
		out = out[:r.max]
	}
	return out, nil
}

func lowerSet(qs []string) map[string]bool {
	set := make(map[string]bool, len(qs))
	for _, q := range qs {
		set[strings.ToLower(strings.Join(strings.Fields(q), " "))] = true
	}
	return set
}
