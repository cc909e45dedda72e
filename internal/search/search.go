// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic search services and returns candidates
// in a unified shape. Backends are strategies behind one interface; Fanout
// queries several at once and merges their results.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/discovery-engine/internal/httputil"
	"github.com/pdiddy/discovery-engine/internal/logging"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Backend searches a single service.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.Candidate, error)
}

const defaultLimit = 20

// New builds the backend set named in cfg. One backend is returned as is;
// several are wrapped in a Fanout.
func New(cfg types.SearchConfig) (Backend, error) {
	names := cfg.Backends
	if len(names) == 0 {
		names = []string{"tools"}
	}
	client := &http.Client{Timeout: cfg.Timeout}

	var backends []Backend
	for _, name := range names {
		limiter := httputil.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "tools":
			if cfg.ToolsURL == "" {
				return nil, errors.New("tools backend requires search.tools_url")
			}
			backends = append(backends, &ToolsBackend{
				BaseURL: cfg.ToolsURL, Client: client, UserAgent: cfg.UserAgent, Limiter: limiter,
			})
		case "openalex":
			backends = append(backends, &OpenAlexBackend{
				Client: client, Email: cfg.OpenAlexEmail, UserAgent: cfg.UserAgent, Limiter: limiter,
			})
		case "semantic_scholar":
			backends = append(backends, &SemanticScholarBackend{
				Client: client, APIKey: cfg.SemanticScholarAPIKey, UserAgent: cfg.UserAgent, Limiter: limiter,
			})
		default:
			return nil, fmt.Errorf("unknown search backend %q", name)
		}
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewFanout(backends...), nil
}

// Fanout sends each query to all backends concurrently and merges the
// deduplicated results in backend order.
type Fanout struct {
	backends []Backend
	logger   *slog.Logger
}

// NewFanout returns a Fanout over backends.
func NewFanout(backends ...Backend) *Fanout {
	return &Fanout{backends: backends, logger: logging.New("search")}
}

// Name lists the wrapped backends.
func (f *Fanout) Name() string {
	names := make([]string, len(f.backends))
	for i, b := range f.backends {
		names[i] = b.Name()
	}
	return strings.Join(names, "+")
}

// Search returns the merged results. It fails only when every backend
// fails; partial failures are logged.
func (f *Fanout) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	if len(f.backends) == 0 {
		return nil, errors.New("no search backends configured")
	}

	results := make([][]types.Candidate, len(f.backends))
	errs := make([]error, len(f.backends))

	var g errgroup.Group
	for i, b := range f.backends {
		i, b := i, b
		g.Go(func() error {
			results[i], errs[i] = b.Search(ctx, query, limit)
			return nil
		})
	}
	g.Wait()

	var all []types.Candidate
	var failed []error
	for i, b := range f.backends {
		if errs[i] != nil {
			f.logger.Warn("backend failed", "backend", b.Name(), "query", query, "error", errs[i])
			failed = append(failed, fmt.Errorf("%s: %w", b.Name(), errs[i]))
			continue
		}
		all = append(all, results[i]...)
	}
	if len(failed) == len(f.backends) {
		return nil, errors.Join(failed...)
	}

	deduped, removed := Deduplicate(all)
	if removed > 0 {
		f.logger.Debug("merged duplicate results", "query", query, "removed", removed)
	}
	if limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped, nil
}

// Deduplicate merges candidates that share a DOI, URL, or normalized
// title, keeping the first occurrence and filling its empty fields from
// later ones. It returns the merged list and the number removed.
func Deduplicate(cs []types.Candidate) ([]types.Candidate, int) {
	seen := make(map[string]int)
	var out []types.Candidate
	removed := 0

	for _, c := range cs {
		keys := dedupKeys(c)
		idx := -1
		for _, k := range keys {
			if i, ok := seen[k]; ok {
				idx = i
				break
			}
		}
		if idx >= 0 {
			mergeInto(&out[idx], c)
			removed++
			for _, k := range dedupKeys(out[idx]) {
				seen[k] = idx
			}
			continue
		}
		idx = len(out)
		out = append(out, c)
		for _, k := range keys {
			seen[k] = idx
		}
	}
	return out, removed
}

func dedupKeys(c types.Candidate) []string {
	var keys []string
	if c.DOI != "" {
		keys = append(keys, "doi:"+strings.ToLower(c.DOI))
	}
	if c.URL != "" {
		keys = append(keys, c.Key())
	}
	if t := types.NormalizeTitle(c.Title); t != "" {
		keys = append(keys, "title:"+t)
	}
	return keys
}

// mergeInto fills empty fields of dst from src and keeps the larger
// citation count.
func mergeInto(dst *types.Candidate, src types.Candidate) {
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if src.Citations > dst.Citations {
		dst.Citations = src.Citations
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.Snippet == "" {
		dst.Snippet = src.Snippet
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if src.Source != "" && !strings.Contains(dst.Source, src.Source) {
		if dst.Source == "" {
			dst.Source = src.Source
		} else {
			dst.Source += "," + src.Source
		}
	}
}

// FormatTable writes candidates as a human-readable table to w.
func FormatTable(cs []types.Candidate, w io.Writer) {
	if len(cs) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-5s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cites", "Score", "Venue")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, c := range cs {
		year := ""
		if c.Year > 0 {
			year = fmt.Sprintf("%d", c.Year)
		}
		score := "-"
		if c.RelevanceScore != nil {
			score = fmt.Sprintf("%.3f", *c.RelevanceScore)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-5d  %-6s  %s\n",
			i+1, truncate(c.Title, 60), formatAuthors(c.Authors), year, c.Citations, score, truncate(c.Venue, 30))
	}
	fmt.Fprintf(w, "\n%d results\n", len(cs))
}

// FormatJSON writes candidates as indented JSON to w.
func FormatJSON(cs []types.Candidate, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cs)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
