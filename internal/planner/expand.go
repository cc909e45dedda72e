// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import "strings"

// DefaultMaxExpansions caps the queries returned by Expand.
const DefaultMaxExpansions = 2

// substitutions are tried in order; each replaces one goal word.
var substitutions = [][2]string{
	{"techniques", "methods"},
	{"methods", "techniques"},
	{"improvements", "optimization"},
	{"optimization", "improvements"},
	{"advances", "breakthroughs"},
	{"models", "architectures"},
	{"architectures", "models"},
	{"evaluation", "benchmark"},
	{"benchmark", "evaluation"},
	{"approaches", "algorithms"},
	{"algorithms", "approaches"},
	{"applications", "use cases"},
}

// suffixes are appended to the key terms when no substitution applies.
var suffixes = []string{"benchmark evaluation", "recent advances", "state of the art"}

// Expander derives extra queries by keyword substitution. It needs no
// text generator and is deterministic.
type Expander struct {
	max int
}

// NewExpander returns an Expander returning at most limit queries
// (DefaultMaxExpansions when limit ≤ 0).
func NewExpander(limit int) *Expander {
	if limit <= 0 {
		limit = DefaultMaxExpansions
	}
	return &Expander{max: limit}
}

// Expand returns up to the configured number of queries for goal that are
// not among executed.
func (e *Expander) Expand(goal string, executed []string) []string {
	base := strings.Join(strings.Fields(strings.ToLower(goal)), " ")
	words := strings.Fields(base)

	var candidates []string
	for _, sub := range substitutions {
		for i, w := range words {
			if w != sub[0] {
				continue
			}
			replaced := append([]string(nil), words...)
			replaced[i] = sub[1]
			candidates = append(candidates, strings.Join(replaced, " "))
			break
		}
	}

	terms := strings.Join(KeyTerms(goal), " ")
	if terms == "" {
		terms = base
	}
	for _, s := range suffixes {
		candidates = append(candidates, terms+" "+s)
	}

	exclude := lowerSet(executed)
	exclude[base] = true
	out := keepQueries(candidates, exclude)
	if len(out) > e.max {
		out = out[:e.max]
	}
	return out
}
