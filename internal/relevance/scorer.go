// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance scores candidates against a research goal and picks
// the acceptance threshold for a batch of scores.
//
// A score is a weighted sum of four components, each in [0,1]: keyword
// overlap between goal and candidate text, citation authority, recency,
// and venue match. The result is clamped to [0,1].
package relevance

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/discovery-engine/internal/logging"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Weights are the component multipliers. They sum to 1.
type Weights struct {
	Keyword  float64
	Citation float64
	Recency  float64
	Venue    float64
}

var (
	KeywordWeights  = Weights{Keyword: 0.70, Citation: 0.15, Recency: 0.10, Venue: 0.05}
	BalancedWeights = Weights{Keyword: 0.40, Citation: 0.20, Recency: 0.30, Venue: 0.10}
)

// WeightsFor maps a configured weighting to its Weights. Unknown values
// use KeywordWeights.
func WeightsFor(w types.Weighting) Weights {
	if w == types.WeightingBalanced {
		return BalancedWeights
	}
	return KeywordWeights
}

// Breakdown holds the component values behind one score.
type Breakdown struct {
	Keyword    float64 `json:"keyword" yaml:"keyword"`
	Coverage   float64 `json:"coverage" yaml:"coverage"`
	TitleBonus float64 `json:"title_bonus" yaml:"title_bonus"`
	Citation   float64 `json:"citation" yaml:"citation"`
	Recency    float64 `json:"recency" yaml:"recency"`
	Venue      float64 `json:"venue" yaml:"venue"`
	Total      float64 `json:"total" yaml:"total"`
}

// Scorer computes relevance scores. It is safe for concurrent use.
type Scorer struct {
	weights   Weights
	threshold Thresholder
	synonyms  SynonymProvider
	now       func() time.Time
	logger    *slog.Logger

	mu     sync.Mutex
	groups map[string]Groups
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithWeights overrides the component weights.
func WithWeights(w Weights) Option { return func(s *Scorer) { s.weights = w } }

// WithThreshold overrides the threshold strategy.
func WithThreshold(t Thresholder) Option { return func(s *Scorer) { s.threshold = t } }

// WithSynonyms overrides the synonym provider.
func WithSynonyms(p SynonymProvider) Option { return func(s *Scorer) { s.synonyms = p } }

// WithClock sets the time source used for recency.
func WithClock(now func() time.Time) Option { return func(s *Scorer) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Scorer) { s.logger = l } }

// New returns a Scorer using keyword weights, the adaptive threshold, and
// pattern-based synonym groups unless overridden.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		weights:   KeywordWeights,
		threshold: AdaptiveThreshold{},
		synonyms:  StaticSynonyms{},
		now:       time.Now,
		logger:    logging.New("relevance"),
		groups:    make(map[string]Groups),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewFromConfig builds a Scorer from configuration. A nil provider means
// pattern-based synonym groups.
func NewFromConfig(cfg types.ScorerConfig, synonyms SynonymProvider) *Scorer {
	opts := []Option{
		WithWeights(WeightsFor(cfg.Weighting)),
		WithThreshold(ThresholderFor(cfg)),
	}
	if synonyms != nil {
		opts = append(opts, WithSynonyms(synonyms))
	}
	return New(opts...)
}

// Score returns the relevance of c to goal in [0,1].
func (s *Scorer) Score(ctx context.Context, c types.Candidate, goal string) float64 {
	return s.Explain(ctx, c, goal).Total
}

// Explain returns the component breakdown of c's score.
func (s *Scorer) Explain(ctx context.Context, c types.Candidate, goal string) Breakdown {
	return s.explain(c, goal, Keywords(goal), s.groupsFor(ctx, goal))
}

// BatchScore scores each candidate against goal. The result is aligned
// with cs.
func (s *Scorer) BatchScore(ctx context.Context, cs []types.Candidate, goal string) []float64 {
	goalKW := Keywords(goal)
	groups := s.groupsFor(ctx, goal)
	scores := make([]float64, len(cs))
	for i, c := range cs {
		b := s.explain(c, goal, goalKW, groups)
		scores[i] = b.Total
		s.logger.Debug("scored candidate",
			"title", c.Title,
			"score", b.Total,
			"keyword", b.Keyword,
			"citation", b.Citation,
			"recency", b.Recency,
			"venue", b.Venue)
	}
	return scores
}

// ChooseThreshold picks the acceptance cut-off for a batch of scores.
func (s *Scorer) ChooseThreshold(scores []float64) float64 {
	return s.threshold.Threshold(scores)
}

func (s *Scorer) explain(c types.Candidate, goal string, goalKW []string, groups Groups) Breakdown {
	var b Breakdown
	b.Keyword, b.Coverage, b.TitleBonus = keywordScore(goalKW, c.Title, c.Snippet, groups)
	b.Citation = citationScore(c.Citations)
	b.Recency = recencyScore(c.Year, s.now().Year())
	b.Venue = venueScore(c.Venue, goal)

	total := s.weights.Keyword*b.Keyword +
		s.weights.Citation*b.Citation +
		s.weights.Recency*b.Recency +
		s.weights.Venue*b.Venue
	b.Total = clamp01(total)
	return b
}

func (s *Scorer) groupsFor(ctx context.Context, goal string) Groups {
	key := strings.ToLower(strings.TrimSpace(goal))

	s.mu.Lock()
	g, ok := s.groups[key]
	s.mu.Unlock()
	if ok {
		return g
	}

	g, err := s.synonyms.Groups(ctx, goal)
	if err != nil {
		s.logger.Warn("synonym provider failed, using pattern groups", "error", err)
		return staticGroups(goal)
	}

	s.mu.Lock()
	s.groups[key] = g
	s.mu.Unlock()
	return g
}

// keywordScore returns the keyword component with its coverage and title
// bonus parts. Exact matches earn 2 points, synonym matches 1.5, and stem
// matches 1; coverage is points over twice the goal keyword count.
func keywordScore(goalKW []string, title, snippet string, groups Groups) (score, coverage, bonus float64) {
	titleKW := keywordSet(title)
	paperKW := keywordSet(snippet)
	for k := range titleKW {
		paperKW[k] = true
	}
	if len(goalKW) == 0 || len(paperKW) == 0 {
		return 0, 0, 0
	}

	points := 0.0
	titleHits := 0
	for _, kw := range goalKW {
		switch {
		case paperKW[kw]:
			points += 2
		case semanticMatch(kw, paperKW, groups):
			points += 1.5
		case prefixMatch(kw, paperKW):
			points += 1
		}
		if titleKW[kw] {
			titleHits++
		}
	}

	n := float64(len(goalKW))
	coverage = math.Min(1, points/(2*n))
	bonus = math.Min(0.3, float64(2*titleHits)/n*0.5)
	return math.Min(1, coverage+bonus), coverage, bonus
}

func citationScore(citations int) float64 {
	switch {
	case citations >= 1000:
		return 1.0
	case citations >= 500:
		return 0.95
	case citations >= 100:
		return 0.85
	case citations >= 50:
		return 0.70
	case citations >= 20:
		return 0.55
	case citations >= 10:
		return 0.40
	default:
		return 0.20
	}
}

// recencyScore buckets a publication by age. A missing year counts as
// the current year.
func recencyScore(year, currentYear int) float64 {
	if year <= 0 {
		year = currentYear
	}
	age := currentYear - year
	switch {
	case age <= 1:
		return 1.0
	case age <= 3:
		return 0.95
	case age <= 7:
		return 0.85
	case age <= 15:
		return 0.70
	case age <= 25:
		return 0.60
	default:
		return 0.40
	}
}

var (
	premiumVenues = []string{"neurips", "nips", "icml", "iclr", "iccv", "cvpr", "emnlp", "acl", "naacl", "aaai", "ijcai", "jmlr"}
	nlpVenues     = []string{"acl", "emnlp", "naacl"}
	generalML     = []string{"neurips", "icml"}
	visionVenues  = []string{"cvpr", "iccv"}
)

const unknownVenueScore = 0.3

func venueScore(venue, goal string) float64 {
	v := strings.ToLower(venue)
	if strings.TrimSpace(v) == "" {
		return unknownVenueScore
	}
	g := strings.ToLower(goal)

	score := unknownVenueScore
	if containsAny(v, premiumVenues) {
		score = 0.95
	}
	if strings.Contains(g, "transformer") || strings.Contains(g, "nlp") {
		if containsAny(v, nlpVenues) {
			score = 1.0
		} else if containsAny(v, generalML) {
			score = 0.9
		}
	}
	if strings.Contains(g, "vision") && containsAny(v, visionVenues) {
		score = 1.0
	}
	return score
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
