// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
	"unicode"
)

// Candidate is a search result that may become a validated source.
type Candidate struct {
	// URL locates the item and is its identity across the pipeline.
	URL string `json:"url" yaml:"url"`

	// Title is the item title as returned by the search service.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year; 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Citations is the citation count; 0 when unknown.
	Citations int `json:"citations,omitempty" yaml:"citations,omitempty"`

	// Venue is the publication venue; empty when unknown.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Snippet is the abstract or a search snippet.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// DOI is the bare DOI (no https://doi.org/ prefix) when known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Source names the backend that returned the candidate.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// RelevanceScore is nil until the candidate has been scored.
	RelevanceScore *float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`
}

// Key returns the identity used for deduplication: the URL when present,
// otherwise the normalized title.
func (c Candidate) Key() string {
	if c.URL != "" {
		return "url:" + strings.TrimRight(strings.TrimSpace(c.URL), "/")
	}
	if t := NormalizeTitle(c.Title); t != "" {
		return "title:" + t
	}
	return ""
}

// Score returns the relevance score, or 0 when unscored.
func (c Candidate) Score() float64 {
	if c.RelevanceScore == nil {
		return 0
	}
	return *c.RelevanceScore
}

// WithScore returns a copy of c carrying score.
func (c Candidate) WithScore(score float64) Candidate {
	c.RelevanceScore = &score
	return c
}

// NormalizeTitle lowercases a title and strips punctuation.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Extraction is the structured content pulled from one validated source.
type Extraction struct {
	SourceURL   string    `json:"source_url" yaml:"source_url"`
	Title       string    `json:"title" yaml:"title"`
	Abstract    string    `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	KeyFindings []string  `json:"key_findings,omitempty" yaml:"key_findings,omitempty"`
	Methodology string    `json:"methodology,omitempty" yaml:"methodology,omitempty"`
	Citations   []string  `json:"citations,omitempty" yaml:"citations,omitempty"`
	ExtractedAt time.Time `json:"extracted_at" yaml:"extracted_at"`
}
