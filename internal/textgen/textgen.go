// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textgen is the client for the text-generation service used by
// planning, refinement, and synonym generation. Every caller treats a
// failure here as a signal to fall back to a deterministic path.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Options tune a single completion.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Generator produces free text from a prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Complete calls f.
func (f GeneratorFunc) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

const (
	defaultMaxTokens = 1024
	jsonSuffix       = "\n\nRespond in valid JSON format only."
)

// ParseError reports generated text that could not be decoded as JSON,
// even after looking for an embedded object or array.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing generated JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// GenerateJSON asks g for a JSON answer and decodes it into v.
func GenerateJSON(ctx context.Context, g Generator, prompt string, temperature float64, v any) error {
	if g == nil {
		return errors.New("no text generator configured")
	}
	text, err := g.Complete(ctx, prompt+jsonSuffix, Options{Temperature: temperature, MaxTokens: defaultMaxTokens})
	if err != nil {
		return err
	}
	return DecodeJSON(text, v)
}

// DecodeJSON decodes text into v. Text that is not valid JSON is searched
// for the outermost embedded object or array before giving up.
func DecodeJSON(text string, v any) error {
	s := stripFences(strings.TrimSpace(text))
	firstErr := json.Unmarshal([]byte(s), v)
	if firstErr == nil {
		return nil
	}
	for _, frag := range embeddedJSON(s) {
		if err := json.Unmarshal([]byte(frag), v); err == nil {
			return nil
		}
	}
	return &ParseError{Raw: text, Err: firstErr}
}

// stripFences removes a surrounding Markdown code fence.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// embeddedJSON returns candidate fragments spanning the first opening
// bracket to the last matching closing bracket, earliest opening first.
func embeddedJSON(s string) []string {
	type span struct{ start, end int }
	var spans []span
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(s, pair[0])
		end := strings.LastIndexByte(s, pair[1])
		if start >= 0 && end > start {
			spans = append(spans, span{start, end})
		}
	}
	if len(spans) == 2 && spans[1].start < spans[0].start {
		spans[0], spans[1] = spans[1], spans[0]
	}
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = s[sp.start : sp.end+1]
	}
	return out
}

// Render executes a prompt template.
func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// New builds the Generator selected by cfg. It returns nil, nil when the
// provider is none or empty.
func New(cfg types.AIConfig) (Generator, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Provider {
	case "", types.ProviderNone:
		return nil, nil
	case types.ProviderClaude:
		if cfg.APIKey == "" {
			return nil, errors.New("claude provider requires an API key (set ai.api_key or .secrets/anthropic-api-key)")
		}
		return &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: client}, nil
	case types.ProviderOllama:
		return &OllamaBackend{BaseURL: cfg.BaseURL, Model: cfg.Model, Client: client}, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
