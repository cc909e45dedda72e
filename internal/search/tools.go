// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/discovery-engine/internal/httputil"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// toolsSearchPath is appended to the tools service base URL.
const toolsSearchPath = "/api/tools/search"

// ToolsBackend calls the search-and-extraction service. The service may
// answer with a bare list or an object carrying a results list; both are
// accepted.
type ToolsBackend struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
	Limiter   *rate.Limiter
}

// Name returns the backend identifier.
func (b *ToolsBackend) Name() string { return "tools" }

type toolsSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type toolsSearchResponse struct {
	Results    []toolsResult `json:"results"`
	Papers     []toolsResult `json:"papers"`
	TotalFound int           `json:"total_found"`
}

type toolsResult struct {
	URL            string      `json:"url"`
	Title          string      `json:"title"`
	Snippet        string      `json:"snippet"`
	Abstract       string      `json:"abstract"`
	Year           flexInt     `json:"year"`
	Citations      flexInt     `json:"citations"`
	Authors        flexAuthors `json:"authors"`
	Venue          string      `json:"venue"`
	DOI            string      `json:"doi"`
	RelevanceScore float64     `json:"relevance_score"`
}

// Search posts the query and normalizes the response.
func (b *ToolsBackend) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	body, err := json.Marshal(toolsSearchRequest{Query: query, MaxResults: limit})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(b.BaseURL, "/") + toolsSearchPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.Throttled(ctx, b.client(), b.Limiter, req, 0)
	if err != nil {
		return nil, fmt.Errorf("search service request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("search service", resp); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	items, err := decodeToolsResults(raw)
	if err != nil {
		return nil, err
	}

	out := make([]types.Candidate, 0, len(items))
	for _, it := range items {
		snippet := it.Snippet
		if snippet == "" {
			snippet = it.Abstract
		}
		out = append(out, types.Candidate{
			URL:       it.URL,
			Title:     it.Title,
			Authors:   []string(it.Authors),
			Year:      int(it.Year),
			Citations: int(it.Citations),
			Venue:     it.Venue,
			Snippet:   snippet,
			DOI:       strings.TrimPrefix(it.DOI, "https://doi.org/"),
			Source:    b.Name(),
		})
	}
	return out, nil
}

func (b *ToolsBackend) client() *http.Client {
	if b.Client != nil {
		return b.Client
	}
	return http.DefaultClient
}

func decodeToolsResults(raw json.RawMessage) ([]toolsResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []toolsResult
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("parsing search result list: %w", err)
		}
		return list, nil
	}
	var obj toolsSearchResponse
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("parsing search result object: %w", err)
	}
	if len(obj.Results) == 0 {
		return obj.Papers, nil
	}
	return obj.Results, nil
}

// flexInt accepts a JSON number, a numeric string, or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// flexAuthors accepts a list of names, a list of {"name": ...} objects,
// or a single comma-separated string.
type flexAuthors []string

func (f *flexAuthors) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*f = names
		return nil
	}
	var objs []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &objs); err == nil {
		for _, o := range objs {
			if o.Name != "" {
				names = append(names, o.Name)
			}
		}
		*f = names
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err == nil {
		for _, n := range strings.Split(joined, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		*f = names
		return nil
	}
	*f = nil
	return nil
}
