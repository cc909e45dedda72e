// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls structured content (abstract, key findings,
// methodology, citations) from a validated source through the
// search-and-extraction service.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/discovery-engine/internal/httputil"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// toolsExtractPath is appended to the tools service base URL.
const toolsExtractPath = "/api/tools/extract"

// Service extracts content from one source URL.
type Service interface {
	Extract(ctx context.Context, sourceURL string) (types.Extraction, error)
}

// FailedError reports that the service answered but could not extract the
// source.
type FailedError struct {
	SourceURL string
	Reason    string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %s", e.SourceURL, e.Reason)
}

// New returns the HTTP extractor for cfg.
func New(cfg types.ExtractConfig) (Service, error) {
	if cfg.ToolsURL == "" {
		return nil, errors.New("extractor requires extract.tools_url")
	}
	return &ToolsExtractor{
		BaseURL:   cfg.ToolsURL,
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
	}, nil
}

// ToolsExtractor calls POST {BaseURL}/api/tools/extract.
type ToolsExtractor struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
	Limiter   *rate.Limiter

	// now stamps ExtractedAt; nil means time.Now.
	now func() time.Time
}

type extractRequest struct {
	SourceURL string `json:"source_url"`
}

type extractResponse struct {
	ExtractedContent struct {
		Title       string            `json:"title"`
		Abstract    string            `json:"abstract"`
		KeyFindings []string          `json:"key_findings"`
		Methodology string            `json:"methodology"`
		Citations   []json.RawMessage `json:"citations"`
	} `json:"extracted_content"`
	Metadata struct {
		ExtractionSuccess bool   `json:"extraction_success"`
		FailureReason     string `json:"failure_reason"`
		SourceURL         string `json:"source_url"`
	} `json:"metadata"`
}

// Extract posts the source URL and converts the response. A response whose
// metadata reports extraction_success=false yields a *FailedError.
func (e *ToolsExtractor) Extract(ctx context.Context, sourceURL string) (types.Extraction, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return types.Extraction{}, errors.New("source_url is required")
	}

	body, err := json.Marshal(extractRequest{SourceURL: sourceURL})
	if err != nil {
		return types.Extraction{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(e.BaseURL, "/") + toolsExtractPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.Extraction{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.Throttled(ctx, client, e.Limiter, req, 0)
	if err != nil {
		return types.Extraction{}, fmt.Errorf("extraction service request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("extraction service", resp); err != nil {
		return types.Extraction{}, err
	}

	var er extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return types.Extraction{}, fmt.Errorf("parsing extraction response: %w", err)
	}

	if !er.Metadata.ExtractionSuccess {
		reason := er.Metadata.FailureReason
		if reason == "" {
			reason = "unknown extraction failure"
		}
		return types.Extraction{}, &FailedError{SourceURL: sourceURL, Reason: reason}
	}

	now := time.Now
	if e.now != nil {
		now = e.now
	}
	ec := er.ExtractedContent
	return Normalize(types.Extraction{
		SourceURL:   sourceURL,
		Title:       ec.Title,
		Abstract:    ec.Abstract,
		KeyFindings: ec.KeyFindings,
		Methodology: ec.Methodology,
		Citations:   citationStrings(ec.Citations),
		ExtractedAt: now().UTC(),
	}), nil
}

// Normalize trims whitespace, drops empty and repeated findings, and
// rewrites each citation into a single canonical reference line.
func Normalize(ex types.Extraction) types.Extraction {
	ex.Title = strings.TrimSpace(ex.Title)
	ex.Abstract = strings.TrimSpace(ex.Abstract)
	ex.Methodology = strings.TrimSpace(ex.Methodology)
	ex.KeyFindings = uniqueNonEmpty(ex.KeyFindings)

	var cites []string
	for _, c := range uniqueNonEmpty(ex.Citations) {
		cites = append(cites, ParseReference(c).String())
	}
	ex.Citations = uniqueNonEmpty(cites)
	return ex
}

func uniqueNonEmpty(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// citationStrings accepts citation entries as plain strings or as objects
// carrying a title (and optionally authors and year).
func citationStrings(raw []json.RawMessage) []string {
	var out []string
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Title   string   `json:"title"`
			Authors []string `json:"authors"`
			Year    any      `json:"year"`
			Text    string   `json:"text"`
		}
		if err := json.Unmarshal(r, &obj); err != nil {
			continue
		}
		if obj.Text != "" {
			out = append(out, obj.Text)
			continue
		}
		if obj.Title == "" {
			continue
		}
		parts := []string{}
		if len(obj.Authors) > 0 {
			parts = append(parts, strings.Join(obj.Authors, " and ")+".")
		}
		parts = append(parts, obj.Title+".")
		if obj.Year != nil {
			parts = append(parts, fmt.Sprintf("%v.", obj.Year))
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out
}
