// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/discovery-engine/internal/httputil"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,venue,citationCount,url"

// SemanticScholarBackend queries the Semantic Scholar API.
type SemanticScholarBackend struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
	Limiter   *rate.Limiter
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search queries the Semantic Scholar API and returns candidates.
func (b *SemanticScholarBackend) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.Throttled(ctx, client, b.Limiter, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("Semantic Scholar API", resp); err != nil {
		return nil, err
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	results := make([]types.Candidate, 0, len(sr.Data))
	for _, paper := range sr.Data {
		c := types.Candidate{
			URL:       paper.URL,
			Title:     paper.Title,
			Year:      paper.Year,
			Citations: paper.CitationCount,
			Venue:     paper.Venue,
			Snippet:   paper.Abstract,
			DOI:       paper.ExternalIDs.DOI,
			Source:    b.Name(),
		}
		for _, a := range paper.Authors {
			c.Authors = append(c.Authors, a.Name)
		}
		if c.URL == "" {
			switch {
			case paper.ExternalIDs.DOI != "":
				c.URL = "https://doi.org/" + paper.ExternalIDs.DOI
			case paper.ExternalIDs.ArXiv != "":
				c.URL = "https://arxiv.org/abs/" + paper.ExternalIDs.ArXiv
			}
		}
		results = append(results, c)
	}
	return results, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	URL           string              `json:"url"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	Venue         string              `json:"venue"`
	CitationCount int                 `json:"citationCount"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
