// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner turns a discovery goal into search queries. Plan asks
// the text generator for a decomposition and falls back to a deterministic
// heuristic; Refiner proposes extra queries when a search comes up short;
// Expander derives keyword-substitution queries without the generator.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/pdiddy/discovery-engine/internal/governance"
	"github.com/pdiddy/discovery-engine/internal/logging"
	"github.com/pdiddy/discovery-engine/internal/textgen"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

const (
	// MaxQueries caps the queries in a plan.
	MaxQueries = 5

	// minQueryLen is the length a query must exceed to be kept.
	minQueryLen = 5

	// DefaultDomainContext is appended by the heuristic when the goal
	// does not already name it.
	DefaultDomainContext = "machine learning"
)

var planPromptTmpl = template.Must(template.New("plan").Parse(
	`Decompose this research goal into 3-5 specific search queries for academic literature:

Goal: {{.Goal}}

Generate specific search queries that will find relevant academic papers. Return only a JSON array of query strings.

Example format: ["query 1", "query 2", "query 3"]
`))

// Planner builds search plans.
type Planner struct {
	gen           textgen.Generator
	domainContext string
	logger        *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithDomainContext overrides the domain-context token used by the
// heuristic.
func WithDomainContext(s string) Option {
	return func(p *Planner) {
		if s = strings.TrimSpace(s); s != "" {
			p.domainContext = s
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// New returns a Planner. gen may be nil, in which case every plan is
// heuristic.
func New(gen textgen.Generator, opts ...Option) *Planner {
	p := &Planner{
		gen:           gen,
		domainContext: DefaultDomainContext,
		logger:        logging.New("planner"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Plan returns the search plan for goal. It never fails: a generator error
// or an empty answer selects the heuristic queries.
func (p *Planner) Plan(ctx context.Context, goal string, prefs types.ScopePreferences) types.Plan {
	plan := types.Plan{
		MaxSources: governance.MaxSourcesFor(prefs.DiscoveryDepth),
		Origin:     types.PlanGenerated,
	}

	queries, err := p.generate(ctx, goal)
	if err != nil || len(queries) == 0 {
		if err != nil {
			p.logger.Warn("query generation failed, using heuristic plan", "error", err)
		}
		queries = HeuristicQueries(goal, p.domainContext)
		plan.Origin = types.PlanHeuristic
	}
	if len(queries) > MaxQueries {
		queries = queries[:MaxQueries]
	}
	plan.Queries = queries
	plan.Phases = phases(len(queries))
	return plan
}

func (p *Planner) generate(ctx context.Context, goal string) ([]string, error) {
	if p.gen == nil {
		return nil, nil
	}
	prompt, err := textgen.Render(planPromptTmpl, struct{ Goal string }{goal})
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := textgen.GenerateJSON(ctx, p.gen, prompt, 0.7, &raw); err != nil {
		return nil, err
	}
	list, err := decodeQueries(raw)
	if err != nil {
		return nil, err
	}
	return keepQueries(list, nil), nil
}

// decodeQueries accepts a JSON list of strings or {"queries": [...]}.
func decodeQueries(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &textgen.ParseError{Raw: string(raw), Err: err}
	}
	return wrapped.Queries, nil
}

// keepQueries trims queries and drops short, repeated, and excluded ones.
func keepQueries(in []string, exclude map[string]bool) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, q := range in {
		q = strings.Join(strings.Fields(q), " ")
		key := strings.ToLower(q)
		if len(q) <= minQueryLen || seen[key] || exclude[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

func phases(queries int) []types.PlanPhase {
	return []types.PlanPhase{
		{Name: "exploration", Description: fmt.Sprintf("Execute %d search queries to discover relevant sources", queries)},
		{Name: "validation", Description: "Apply governance rules and relevance scoring to filter sources"},
		{Name: "extraction", Description: "Extract structured content from validated sources"},
		{Name: "synthesis", Description: "Combine extracted findings into a report"},
	}
}
