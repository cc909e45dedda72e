// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil map", nil, ""},
		{"single word", map[string][]int{"hello": {0}}, "hello"},
		{
			name: "multi-word ordered",
			index: map[string][]int{
				"We":      {0},
				"propose": {1},
				"a":       {2},
				"new":     {3},
				"method":  {4},
			},
			want: "We propose a new method",
		},
		{
			name: "repeated word",
			index: map[string][]int{
				"the": {0, 3},
				"cat": {1},
				"saw": {2},
				"dog": {4},
			},
			want: "the cat saw the dog",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconstructAbstract(tt.index); got != tt.want {
				t.Errorf("reconstructAbstract() = %q, want %q", got, tt.want)
			}
		})
	}
}

const openAlexFixture = `{
  "results": [
    {
      "id": "https://openalex.org/W1",
      "title": "Graph Attention Networks",
      "doi": "https://doi.org/10.48550/arxiv.1710.10903",
      "publication_year": 2018,
      "cited_by_count": 15000,
      "authorships": [{"author": {"display_name": "Petar Velickovic"}}, {"author": {"display_name": ""}}],
      "abstract_inverted_index": {"We": [0], "present": [1], "GATs": [2]},
      "primary_location": {"source": {"display_name": "ICLR"}}
    },
    {
      "id": "https://openalex.org/W2",
      "title": "No DOI Work",
      "publication_year": 2020,
      "cited_by_count": 3
    }
  ]
}`

func openAlexTestServer(statusCode int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		w.Write([]byte(body))
	}))
}

func TestOpenAlexBackendSearch(t *testing.T) {
	ts := openAlexTestServer(http.StatusOK, openAlexFixture)
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	b := &OpenAlexBackend{Client: ts.Client()}
	got, err := b.Search(context.Background(), "graph attention", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	first := got[0]
	if first.URL != "https://doi.org/10.48550/arxiv.1710.10903" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.DOI != "10.48550/arxiv.1710.10903" {
		t.Errorf("DOI = %q", first.DOI)
	}
	if first.Citations != 15000 {
		t.Errorf("Citations = %d, want 15000", first.Citations)
	}
	if first.Venue != "ICLR" {
		t.Errorf("Venue = %q, want ICLR", first.Venue)
	}
	if first.Snippet != "We present GATs" {
		t.Errorf("Snippet = %q", first.Snippet)
	}
	if len(first.Authors) != 1 {
		t.Errorf("Authors = %v, want one non-empty name", first.Authors)
	}

	if got[1].URL != "https://openalex.org/W2" {
		t.Errorf("fallback URL = %q, want OpenAlex ID", got[1].URL)
	}
	if got[1].DOI != "" {
		t.Errorf("DOI = %q, want empty", got[1].DOI)
	}
}

func TestOpenAlexBackendParameters(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if ua := r.Header.Get("User-Agent"); ua != "test/0.1" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Write([]byte(`{"results": []}`))
	}))
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	b := &OpenAlexBackend{Client: ts.Client(), Email: "me@example.com", UserAgent: "test/0.1"}
	if _, err := b.Search(context.Background(), "graph attention", 500); err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, want := range []string{"mailto=me%40example.com", "per_page=200", "search=graph+attention"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestOpenAlexBackendHTTPError(t *testing.T) {
	ts := openAlexTestServer(http.StatusInternalServerError, "")
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	b := &OpenAlexBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), "graph attention", 10); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestOpenAlexBackendEmptyQuery(t *testing.T) {
	b := &OpenAlexBackend{}
	if _, err := b.Search(context.Background(), "", 10); err == nil {
		t.Fatal("expected error for empty query")
	}
}
