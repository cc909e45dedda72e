// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/discovery-engine/internal/httputil"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexBackend queries the OpenAlex API.
type OpenAlexBackend struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email     string
	UserAgent string
	Limiter   *rate.Limiter
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search queries the OpenAlex API and returns candidates with citation
// counts and venues filled from the work record.
func (b *OpenAlexBackend) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > 200 {
		limit = 200
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", limit)},
		"page":     {"1"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.Throttled(ctx, client, b.Limiter, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("OpenAlex API", resp); err != nil {
		return nil, err
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	results := make([]types.Candidate, 0, len(oar.Results))
	for _, work := range oar.Results {
		c := types.Candidate{
			Title:     work.Title,
			Year:      work.PublicationYear,
			Citations: work.CitedByCount,
			Venue:     work.PrimaryLocation.Source.DisplayName,
			Snippet:   reconstructAbstract(work.AbstractInvertedIndex),
			Source:    b.Name(),
		}
		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				c.Authors = append(c.Authors, authorship.Author.DisplayName)
			}
		}

		// OpenAlex is DOI-centric; the DOI URL is the stable locator.
		if work.DOI != "" {
			c.URL = work.DOI
			c.DOI = strings.TrimPrefix(work.DOI, "https://doi.org/")
		} else {
			c.URL = work.ID
		}
		results = append(results, c)
	}
	return results, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	Source struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}
