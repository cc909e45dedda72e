// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discovery-engine/internal/logging"
	"github.com/pdiddy/discovery-engine/internal/textgen"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

func fixedClock() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

func testScorer(opts ...Option) *Scorer {
	base := []Option{WithClock(fixedClock), WithLogger(logging.Discard())}
	return New(append(base, opts...)...)
}

// --- Keywords ---

func TestKeywords(t *testing.T) {
	got := Keywords("A survey of Graph Neural Networks for the graph-based study of molecules, v2")
	assert.Equal(t, []string{"graph", "neural", "networks", "based", "molecules"}, got)
}

func TestKeywords_Empty(t *testing.T) {
	assert.Empty(t, Keywords("a an of to"))
}

// --- Score ---

func TestScore_StrongMatch(t *testing.T) {
	s := testScorer()
	c := types.Candidate{
		Title:     "Graph Neural Networks for Molecules",
		Year:      2024,
		Citations: 1500,
		Venue:     "NeurIPS",
	}

	b := s.Explain(context.Background(), c, "graph neural networks")

	assert.InDelta(t, 1.0, b.Keyword, 1e-9)
	assert.InDelta(t, 0.3, b.TitleBonus, 1e-9)
	assert.InDelta(t, 1.0, b.Citation, 1e-9)
	assert.InDelta(t, 1.0, b.Recency, 1e-9)
	assert.InDelta(t, 0.95, b.Venue, 1e-9)
	assert.InDelta(t, 0.9975, b.Total, 1e-9)
}

func TestScore_NoOverlap(t *testing.T) {
	s := testScorer()
	c := types.Candidate{Title: "Cooking pasta at home"}

	got := s.Score(context.Background(), c, "graph neural networks")

	// 0.15*0.20 citations + 0.10*1.0 recency (missing year) + 0.05*0.3 venue.
	assert.InDelta(t, 0.145, got, 1e-9)
}

func TestScore_SemanticMatch(t *testing.T) {
	s := testScorer()
	c := types.Candidate{Title: "Autonomous orchestration frameworks"}

	b := s.Explain(context.Background(), c, "agent planning")

	assert.InDelta(t, 0.75, b.Coverage, 1e-9)
	assert.InDelta(t, 0.0, b.TitleBonus, 1e-9)
	assert.InDelta(t, 0.75, b.Keyword, 1e-9)
}

func TestScore_PrefixMatch(t *testing.T) {
	s := testScorer()
	c := types.Candidate{Title: "Models compressed"}

	b := s.Explain(context.Background(), c, "model compression")

	assert.InDelta(t, 0.25, b.Keyword, 1e-9)
}

func TestScore_SnippetCountsButEarnsNoTitleBonus(t *testing.T) {
	s := testScorer()
	c := types.Candidate{Title: "Unrelated heading", Snippet: "We study graph neural networks."}

	b := s.Explain(context.Background(), c, "graph neural networks")

	assert.InDelta(t, 1.0, b.Coverage, 1e-9)
	assert.InDelta(t, 0.0, b.TitleBonus, 1e-9)
}

func TestScore_Clamped(t *testing.T) {
	s := testScorer(WithWeights(Weights{Keyword: 1, Citation: 1, Recency: 1, Venue: 1}))
	c := types.Candidate{Title: "graph networks", Year: 2025, Citations: 5000, Venue: "ICML"}

	got := s.Score(context.Background(), c, "graph networks")
	assert.Equal(t, 1.0, got)
}

func TestScore_Deterministic(t *testing.T) {
	s := testScorer()
	c := types.Candidate{Title: "Sparse attention for transformers", Year: 2019, Citations: 75, Venue: "EMNLP"}
	goal := "efficient transformer attention"

	first := s.Score(context.Background(), c, goal)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Score(context.Background(), c, goal))
	}
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
}

func TestBatchScore_AlignedWithScore(t *testing.T) {
	s := testScorer()
	goal := "graph neural networks"
	cs := []types.Candidate{
		{Title: "Graph Neural Networks", Year: 2023, Citations: 200},
		{Title: "Cooking pasta"},
		{Title: "Neural nets", Year: 1995, Citations: 12, Venue: "JMLR"},
	}

	got := s.BatchScore(context.Background(), cs, goal)
	require.Len(t, got, 3)
	for i, c := range cs {
		assert.Equal(t, s.Score(context.Background(), c, goal), got[i])
	}
}

func TestBatchScore_Empty(t *testing.T) {
	assert.Empty(t, testScorer().BatchScore(context.Background(), nil, "anything"))
}

func TestBalancedWeights(t *testing.T) {
	s := testScorer(WithWeights(WeightsFor(types.WeightingBalanced)))
	c := types.Candidate{Title: "Cooking pasta"}

	// 0.20*0.20 citations + 0.30*1.0 recency + 0.10*0.3 venue.
	assert.InDelta(t, 0.37, s.Score(context.Background(), c, "graph"), 1e-9)
}

// --- Components ---

func TestRecencyScore(t *testing.T) {
	tests := []struct {
		year int
		want float64
	}{
		{2025, 1.0}, {2024, 1.0}, {2022, 0.95}, {2018, 0.85},
		{2010, 0.70}, {2000, 0.60}, {1999, 0.40}, {0, 1.0}, {2030, 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, recencyScore(tt.year, 2025), "year %d", tt.year)
	}
}

func TestCitationScore(t *testing.T) {
	tests := []struct {
		citations int
		want      float64
	}{
		{5000, 1.0}, {1000, 1.0}, {999, 0.95}, {500, 0.95}, {100, 0.85},
		{50, 0.70}, {20, 0.55}, {10, 0.40}, {9, 0.20}, {0, 0.20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, citationScore(tt.citations), "citations %d", tt.citations)
	}
}

func TestVenueScore(t *testing.T) {
	tests := []struct {
		name  string
		venue string
		goal  string
		want  float64
	}{
		{"unknown", "", "graph learning", 0.3},
		{"unranked", "Regional Workshop", "graph learning", 0.3},
		{"premium", "NeurIPS 2023", "graph learning", 0.95},
		{"nlp venue for transformer goal", "ACL", "transformer models", 1.0},
		{"general ml venue for nlp goal", "ICML", "nlp methods", 0.9},
		{"vision venue for vision goal", "CVPR", "computer vision", 1.0},
		{"vision venue for other goal", "CVPR", "graph learning", 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, venueScore(tt.venue, tt.goal))
		})
	}
}

// --- Threshold ---

func TestAdaptiveThreshold(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"empty", nil, 0.20},
		{"weak", []float64{0.1, 0.44}, 0.20},
		{"at lower boundary", []float64{0.45}, 0.25},
		{"medium", []float64{0.2, 0.59}, 0.25},
		{"at upper boundary", []float64{0.60}, 0.35},
		{"strong", []float64{0.9, 0.1}, 0.35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testScorer().ChooseThreshold(tt.scores))
		})
	}
}

func TestThresholderFor(t *testing.T) {
	assert.Equal(t, AdaptiveThreshold{}, ThresholderFor(types.ScorerConfig{}))
	assert.Equal(t, FixedThreshold(0.5), ThresholderFor(types.ScorerConfig{ThresholdMode: types.ThresholdFixed}))
	assert.Equal(t, 0.6, ThresholderFor(types.ScorerConfig{ThresholdMode: types.ThresholdFixed, FixedThreshold: 0.6}).Threshold([]float64{0.99}))
}

// --- Synonyms ---

func TestStaticSynonyms_Patterns(t *testing.T) {
	got, err := StaticSynonyms{}.Groups(context.Background(), "Agentic reasoning")
	require.NoError(t, err)

	want := Groups{
		"agent":     {"agents", "autonomous", "multi-agent", "agentic"},
		"reasoning": {"inference", "logic", "thinking", "cognition"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Groups() mismatch (-want +got):\n%s", diff)
	}
}

func TestStaticSynonyms_WordFallback(t *testing.T) {
	got, err := StaticSynonyms{}.Groups(context.Background(), "quantum error correction codes")
	require.NoError(t, err)

	want := Groups{
		"quantum":    {"quantum", "quantums", "quantuming"},
		"error":      {"error", "errors", "erroring"},
		"correction": {"correction", "corrections", "correctioning"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Groups() mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratedSynonyms_CachesPerGoal(t *testing.T) {
	calls := 0
	gen := textgen.GeneratorFunc(func(context.Context, string, textgen.Options) (string, error) {
		calls++
		return `{"groups": [{"core": "Graph", "variants": ["GNN", " network "]}]}`, nil
	})
	p := NewGeneratedSynonyms(gen)

	for i := 0; i < 3; i++ {
		got, err := p.Groups(context.Background(), "Graph learning")
		require.NoError(t, err)
		assert.Equal(t, Groups{"graph": {"gnn", "network"}}, got)
	}
	assert.Equal(t, 1, calls)
}

func TestGeneratedSynonyms_BareList(t *testing.T) {
	gen := textgen.GeneratorFunc(func(context.Context, string, textgen.Options) (string, error) {
		return `Here you go: [{"core": "retrieval", "variants": ["search"]}]`, nil
	})

	got, err := NewGeneratedSynonyms(gen).Groups(context.Background(), "dense retrieval")
	require.NoError(t, err)
	assert.Equal(t, Groups{"retrieval": {"search"}}, got)
}

func TestGeneratedSynonyms_FallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  textgen.GeneratorFunc
	}{
		{"service error", func(context.Context, string, textgen.Options) (string, error) {
			return "", errors.New("unavailable")
		}},
		{"unparseable", func(context.Context, string, textgen.Options) (string, error) {
			return "I cannot help with that", nil
		}},
		{"empty groups", func(context.Context, string, textgen.Options) (string, error) {
			return `{"groups": []}`, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewGeneratedSynonyms(tt.gen).Groups(context.Background(), "agent planning")
			require.NoError(t, err)
			assert.Equal(t, staticGroups("agent planning"), got)
		})
	}
}

type failingProvider struct{}

func (failingProvider) Groups(context.Context, string) (Groups, error) {
	return nil, errors.New("boom")
}

func TestScorer_ProviderFailureUsesPatternGroups(t *testing.T) {
	s := testScorer(WithSynonyms(failingProvider{}))
	c := types.Candidate{Title: "Autonomous orchestration frameworks"}

	b := s.Explain(context.Background(), c, "agent planning")
	assert.InDelta(t, 0.75, b.Keyword, 1e-9)
}

func TestSemanticMatch_VariantToVariant(t *testing.T) {
	groups := Groups{"language": {"nlp", "llm", "text"}}
	paper := map[string]bool{"llm": true}

	assert.True(t, semanticMatch("nlp", paper, groups))
	assert.False(t, semanticMatch("nlp", map[string]bool{"nlp": true}, groups))
	assert.False(t, semanticMatch("graph", paper, groups))
}
