// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	name    string
	results []types.Candidate
	err     error
	delay   time.Duration
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(ctx context.Context, _ string, _ int) ([]types.Candidate, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.results, m.err
}

// --- New ---

func TestNewBuildsConfiguredBackends(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.SearchConfig
		wantName string
		wantErr  bool
	}{
		{"default tools", types.SearchConfig{ToolsURL: "http://localhost:8080"}, "tools", false},
		{"tools without url", types.SearchConfig{}, "", true},
		{"single openalex", types.SearchConfig{Backends: []string{"openalex"}}, "openalex", false},
		{"fanout", types.SearchConfig{Backends: []string{"openalex", "semantic_scholar"}}, "openalex+semantic_scholar", false},
		{"unknown", types.SearchConfig{Backends: []string{"google"}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, b.Name())
		})
	}
}

// --- Fanout ---

func TestFanoutMergesAndDeduplicates(t *testing.T) {
	a := &mockBackend{name: "a", results: []types.Candidate{
		{URL: "https://x.org/1", Title: "Paper One", Source: "a"},
		{URL: "https://x.org/2", Title: "Paper Two", Source: "a"},
	}}
	b := &mockBackend{name: "b", results: []types.Candidate{
		{URL: "https://x.org/1/", Title: "Paper One", Citations: 40, Venue: "NeurIPS", Source: "b"},
		{URL: "https://x.org/3", Title: "Paper Three", Source: "b"},
	}}

	got, err := NewFanout(a, b).Search(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Paper One", got[0].Title)
	assert.Equal(t, 40, got[0].Citations)
	assert.Equal(t, "NeurIPS", got[0].Venue)
	assert.Equal(t, "a,b", got[0].Source)
	assert.Equal(t, "Paper Three", got[2].Title)
}

func TestFanoutPartialFailure(t *testing.T) {
	ok := &mockBackend{name: "ok", results: []types.Candidate{{URL: "u1", Title: "T"}}}
	bad := &mockBackend{name: "bad", err: errors.New("boom")}

	got, err := NewFanout(bad, ok).Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFanoutAllFail(t *testing.T) {
	b1 := &mockBackend{name: "b1", err: errors.New("first")}
	b2 := &mockBackend{name: "b2", err: errors.New("second")}

	_, err := NewFanout(b1, b2).Search(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}

func TestFanoutRespectsLimit(t *testing.T) {
	var cs []types.Candidate
	for _, u := range []string{"u1", "u2", "u3", "u4"} {
		cs = append(cs, types.Candidate{URL: u, Title: u})
	}
	got, err := NewFanout(&mockBackend{name: "a", results: cs}).Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFanoutNoBackends(t *testing.T) {
	_, err := NewFanout().Search(context.Background(), "q", 10)
	assert.Error(t, err)
}

func TestFanoutCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := &mockBackend{name: "slow", delay: time.Second}
	_, err := NewFanout(slow).Search(ctx, "q", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- Deduplicate ---

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name        string
		in          []types.Candidate
		wantLen     int
		wantRemoved int
	}{
		{"empty", nil, 0, 0},
		{"distinct", []types.Candidate{{URL: "a", Title: "A"}, {URL: "b", Title: "B"}}, 2, 0},
		{"same doi", []types.Candidate{{URL: "a", DOI: "10.1/X"}, {URL: "b", DOI: "10.1/x"}}, 1, 1},
		{"same url trailing slash", []types.Candidate{{URL: "https://a/"}, {URL: "https://a"}}, 1, 1},
		{"same title punctuation", []types.Candidate{{Title: "Deep Learning!"}, {Title: "deep learning"}}, 1, 1},
		{"chained keys", []types.Candidate{
			{URL: "a", Title: "One"},
			{DOI: "10.1/z", Title: "One"},
			{URL: "c", DOI: "10.1/z"},
		}, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, removed := Deduplicate(tt.in)
			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantRemoved, removed)
		})
	}
}

func TestDeduplicateKeepsFirstAndFillsGaps(t *testing.T) {
	got, _ := Deduplicate([]types.Candidate{
		{URL: "u", Title: "T", Citations: 3},
		{URL: "u", Title: "Other", Year: 2021, Citations: 9, Snippet: "s"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "T", got[0].Title)
	assert.Equal(t, 2021, got[0].Year)
	assert.Equal(t, 9, got[0].Citations)
	assert.Equal(t, "s", got[0].Snippet)
}

// --- formatting ---

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable([]types.Candidate{
		{Title: "Attention Is All You Need", Authors: []string{"Ashish Vaswani", "Noam Shazeer"}, Year: 2017, Citations: 90000, Venue: "NeurIPS"},
		types.Candidate{Title: "Scored"}.WithScore(0.4321),
	}, &buf)
	out := buf.String()

	assert.Contains(t, out, "Attention Is All You Need")
	assert.Contains(t, out, "et al.")
	assert.Contains(t, out, "2017")
	assert.Contains(t, out, "0.432")
	assert.Contains(t, out, "2 results")
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	assert.Equal(t, "No results found.\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON([]types.Candidate{{URL: "u", Title: "T", Year: 2020}}, &buf))

	var got []types.Candidate
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 2020, got[0].Year)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	got := truncate(strings.Repeat("x", 20), 10)
	assert.Len(t, got, 10)
	assert.True(t, strings.HasSuffix(got, "..."))
}
