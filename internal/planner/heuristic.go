// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"sort"
	"strings"

	"github.com/pdiddy/discovery-engine/internal/relevance"
)

// KeyTerms returns the goal's keywords in goal order with stop words
// removed.
func KeyTerms(goal string) []string {
	return relevance.Keywords(goal)
}

// HeuristicQueries derives up to MaxQueries queries from goal without a
// text generator. The same goal always yields the same queries:
//
//  1. all key terms
//  2. key terms + "survey"
//  3. key terms + domainContext, unless the goal already carries it
//  4. the longest key term
//  5. the three longest key terms, in goal order
func HeuristicQueries(goal, domainContext string) []string {
	terms := KeyTerms(goal)
	if len(terms) == 0 {
		if g := strings.Join(strings.Fields(goal), " "); g != "" {
			return []string{g}
		}
		return nil
	}
	if domainContext == "" {
		domainContext = DefaultDomainContext
	}

	all := strings.Join(terms, " ")
	variants := []string{all, all + " survey"}
	if !hasDomainContext(goal, domainContext) {
		variants = append(variants, all+" "+domainContext)
	}

	ranked := byLength(terms)
	variants = append(variants, ranked[0])
	variants = append(variants, strings.Join(inGoalOrder(terms, ranked[:min(3, len(ranked))]), " "))

	out := keepQueries(variants, nil)
	if len(out) > MaxQueries {
		out = out[:MaxQueries]
	}
	return out
}

func hasDomainContext(goal, domainContext string) bool {
	g := strings.ToLower(goal)
	if strings.Contains(g, strings.ToLower(domainContext)) {
		return true
	}
	for _, w := range strings.Fields(g) {
		if w == "neural" || w == "deep" {
			return true
		}
	}
	return false
}

// byLength returns terms sorted by descending length; ties keep goal order.
func byLength(terms []string) []string {
	ranked := append([]string(nil), terms...)
	sort.SliceStable(ranked, func(i, j int) bool { return len(ranked[i]) > len(ranked[j]) })
	return ranked
}

func inGoalOrder(terms, subset []string) []string {
	want := make(map[string]bool, len(subset))
	for _, s := range subset {
		want[s] = true
	}
	var out []string
	for _, t := range terms {
		if want[t] {
			out = append(out, t)
		}
	}
	return out
}
