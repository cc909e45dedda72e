// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"

	"github.com/pdiddy/discovery-engine/internal/logging"
	"github.com/pdiddy/discovery-engine/internal/textgen"
)

// Groups maps a core term to its variants. A term matches any other member
// of its group.
type Groups map[string][]string

// SynonymProvider supplies synonym groups for a goal.
type SynonymProvider interface {
	Groups(ctx context.Context, goal string) (Groups, error)
}

// StaticSynonyms derives groups from a fixed pattern table. It never fails.
type StaticSynonyms struct{}

var synonymPatterns = []struct {
	core     string
	variants []string
}{
	{"agent", []string{"agents", "autonomous", "multi-agent", "agentic"}},
	{"reasoning", []string{"inference", "logic", "thinking", "cognition"}},
	{"planning", []string{"orchestration", "scheduler", "coordination", "strategy"}},
	{"language", []string{"nlp", "llm", "text", "model", "transformer"}},
	{"learning", []string{"train", "training", "optimization", "adaptation"}},
	{"routing", []string{"route", "protocol", "gateway", "ospf", "bgp"}},
	{"synthesis", []string{"aggregate", "combine", "merge", "fusion"}},
	{"retrieval", []string{"search", "lookup", "query", "fetch"}},
}

// fallbackWords is how many goal words get inflection groups when no
// pattern matches.
const fallbackWords = 3

// Groups returns the pattern groups whose core or a variant occurs in the
// goal. When none do, the first goal words each get a group of their
// plural and -ing forms.
func (StaticSynonyms) Groups(_ context.Context, goal string) (Groups, error) {
	return staticGroups(goal), nil
}

func staticGroups(goal string) Groups {
	g := strings.ToLower(goal)
	groups := make(Groups)
	for _, p := range synonymPatterns {
		if strings.Contains(g, p.core) || containsAny(g, p.variants) {
			groups[p.core] = p.variants
		}
	}
	if len(groups) > 0 {
		return groups
	}

	n := 0
	for _, w := range strings.Fields(g) {
		if n == fallbackWords {
			break
		}
		if len(w) < 3 || stopwords[w] {
			continue
		}
		groups[w] = []string{w, w + "s", w + "ing"}
		n++
	}
	return groups
}

var synonymPromptTmpl = template.Must(template.New("synonyms").Parse(`Extract semantic keyword groups from this research goal.

Research Goal: {{.Goal}}

For each core concept, provide 3-5 semantic variants and related terms
(synonyms, abbreviations, inflections). Keep variants lowercase and concise.
Return at least 3 and at most 8 groups, with 2 to 5 variants each.

Return JSON with structure:
{"groups": [{"core": "concept", "variants": ["variant1", "variant2"]}]}
`))

// GeneratedSynonyms asks the text generator for groups once per goal and
// falls back to StaticSynonyms when generation or parsing fails.
type GeneratedSynonyms struct {
	gen    textgen.Generator
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]Groups
}

// NewGeneratedSynonyms returns a caching provider backed by gen.
func NewGeneratedSynonyms(gen textgen.Generator) *GeneratedSynonyms {
	return &GeneratedSynonyms{
		gen:    gen,
		logger: logging.New("synonyms"),
		cache:  make(map[string]Groups),
	}
}

type generatedGroup struct {
	Core     string   `json:"core"`
	Variants []string `json:"variants"`
}

// Groups returns cached or freshly generated groups. It only returns an
// error when ctx is done.
func (s *GeneratedSynonyms) Groups(ctx context.Context, goal string) (Groups, error) {
	key := strings.ToLower(strings.TrimSpace(goal))

	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	groups, err := s.generate(ctx, goal)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("synonym generation failed, using pattern groups", "error", err)
		return staticGroups(goal), nil
	}

	s.mu.Lock()
	s.cache[key] = groups
	s.mu.Unlock()
	return groups, nil
}

func (s *GeneratedSynonyms) generate(ctx context.Context, goal string) (Groups, error) {
	prompt, err := textgen.Render(synonymPromptTmpl, struct{ Goal string }{goal})
	if err != nil {
		return nil, err
	}

	// Accept either {"groups": [...]} or a bare list.
	var raw json.RawMessage
	if err := textgen.GenerateJSON(ctx, s.gen, prompt, 0.5, &raw); err != nil {
		return nil, err
	}
	var wrapped struct {
		Groups []generatedGroup `json:"groups"`
	}
	var list []generatedGroup
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		list = wrapped.Groups
	} else if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &textgen.ParseError{Raw: string(raw), Err: err}
	}

	groups := make(Groups)
	for _, g := range list {
		core := strings.ToLower(strings.TrimSpace(g.Core))
		if core == "" {
			continue
		}
		var variants []string
		for _, v := range g.Variants {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				variants = append(variants, v)
			}
		}
		groups[core] = variants
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("generated response contained no groups")
	}
	return groups, nil
}

// semanticMatch reports whether kw shares a synonym group with some paper
// keyword other than itself.
func semanticMatch(kw string, paper map[string]bool, groups Groups) bool {
	for core, variants := range groups {
		if !inGroup(kw, core, variants) {
			continue
		}
		if kw != core && paper[core] {
			return true
		}
		for _, v := range variants {
			if v != kw && paper[v] {
				return true
			}
		}
	}
	return false
}

func inGroup(kw, core string, variants []string) bool {
	if kw == core || stemRelated(kw, core) {
		return true
	}
	for _, v := range variants {
		if v == kw {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
