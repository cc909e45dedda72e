// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis combines the extractions of a finished discovery job
// into a report. Digest is deterministic; Generated asks the text
// generator for the summary paragraph and falls back to Digest.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/discovery-engine/internal/extract"
	"github.com/pdiddy/discovery-engine/internal/logging"
	"github.com/pdiddy/discovery-engine/internal/relevance"
	"github.com/pdiddy/discovery-engine/internal/textgen"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Synthesizer turns extractions into a report. An empty extraction list
// must still yield a well-formed report with NoData set.
type Synthesizer interface {
	Synthesize(ctx context.Context, goal string, extractions []types.Extraction) (types.Report, error)
}

// NoDataSummary is the summary of a report built from zero extractions.
const NoDataSummary = "No sources were successfully extracted. Insufficient data for synthesis."

const maxThemes = 5

// Digest builds a report from the extractions alone.
type Digest struct {
	// Now stamps GeneratedAt; nil means time.Now.
	Now func() time.Time
}

// Synthesize implements Synthesizer.
func (d Digest) Synthesize(_ context.Context, goal string, extractions []types.Extraction) (types.Report, error) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	r := types.Report{
		Goal:        goal,
		SourceCount: len(extractions),
		GeneratedAt: now().UTC(),
	}
	if len(extractions) == 0 {
		r.NoData = true
		r.Summary = NoDataSummary
		return r, nil
	}

	seenMethod := make(map[string]bool)
	for _, ex := range extractions {
		for _, f := range ex.KeyFindings {
			r.Findings = append(r.Findings, types.Finding{SourceURL: ex.SourceURL, Title: ex.Title, Text: f})
		}
		if m := strings.TrimSpace(ex.Methodology); m != "" && !seenMethod[strings.ToLower(m)] {
			seenMethod[strings.ToLower(m)] = true
			r.Methodologies = append(r.Methodologies, m)
		}
	}
	r.CitationCount = extract.CitationCount(extractions)
	r.Themes = themes(goal, extractions)
	r.Summary = digestSummary(r)
	return r, nil
}

func digestSummary(r types.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on analysis of %d sources for %q, %d key findings were extracted", r.SourceCount, r.Goal, len(r.Findings))
	if len(r.Methodologies) > 0 {
		fmt.Fprintf(&b, " across %d distinct methodologies", len(r.Methodologies))
	}
	b.WriteString(".")
	if len(r.Themes) > 0 {
		fmt.Fprintf(&b, " Recurring themes: %s.", strings.Join(r.Themes, ", "))
	}
	if r.CitationCount > 0 {
		fmt.Fprintf(&b, " The sources cite %d distinct references.", r.CitationCount)
	}
	return b.String()
}

// themes returns the keywords that recur most across findings and
// methodologies, excluding words of the goal itself. Ties are broken
// alphabetically.
func themes(goal string, extractions []types.Extraction) []string {
	skip := make(map[string]bool)
	for _, k := range relevance.Keywords(goal) {
		skip[k] = true
	}

	counts := make(map[string]int)
	for _, ex := range extractions {
		// Count each keyword once per source.
		perSource := make(map[string]bool)
		text := ex.Title + " " + ex.Methodology + " " + strings.Join(ex.KeyFindings, " ")
		for _, k := range relevance.Keywords(text) {
			if !skip[k] && !perSource[k] {
				perSource[k] = true
				counts[k]++
			}
		}
	}

	var words []string
	for w, n := range counts {
		if n >= 2 {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > maxThemes {
		words = words[:maxThemes]
	}
	return words
}

var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(
	`Perform a meta-analysis on the following research extractions and write a concise synthesis.

Research Goal: {{.Goal}}

Extracted Data from {{.Count}} sources:
Methodologies: {{.Methodologies}}
Key Findings: {{.Findings}}

The synthesis should identify primary research themes, highlight common methodologies, note conflicting approaches, and point out research gaps.
`))

// Generated writes the summary with a text generator on top of the Digest
// report. A generator failure keeps the Digest summary.
type Generated struct {
	gen    textgen.Generator
	digest Digest
	logger *slog.Logger
}

// NewGenerated returns a Generated synthesizer. gen may be nil.
func NewGenerated(gen textgen.Generator, digest Digest) *Generated {
	return &Generated{gen: gen, digest: digest, logger: logging.New("synthesis")}
}

// Synthesize implements Synthesizer.
func (g *Generated) Synthesize(ctx context.Context, goal string, extractions []types.Extraction) (types.Report, error) {
	r, err := g.digest.Synthesize(ctx, goal, extractions)
	if err != nil || r.NoData || g.gen == nil {
		return r, err
	}

	var methods, findings []string
	methods = append(methods, r.Methodologies...)
	if len(methods) > 5 {
		methods = methods[:5]
	}
	for _, f := range r.Findings {
		if len(findings) == 10 {
			break
		}
		findings = append(findings, f.Text)
	}

	prompt, err := textgen.Render(synthesisPromptTmpl, struct {
		Goal                    string
		Count                   int
		Methodologies, Findings string
	}{goal, r.SourceCount, strings.Join(methods, "; "), strings.Join(findings, "; ")})
	if err != nil {
		return r, err
	}

	text, err := g.gen.Complete(ctx, prompt, textgen.Options{Temperature: 0.7, MaxTokens: 2000})
	if err != nil || strings.TrimSpace(text) == "" {
		g.logger.Warn("synthesis generation failed, keeping digest summary", "error", err)
		return r, nil
	}
	r.Summary = strings.TrimSpace(text)
	return r, nil
}
