// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the engine configuration from viper (config file,
// DISCOVERY_ENGINE_* environment variables, flags) and validates it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/discovery-engine/internal/secrets"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// DISCOVERY_ENGINE_STORE_BACKEND=redis.
const EnvPrefix = "DISCOVERY_ENGINE"

// ConfigurationError reports an invalid setting. It is fatal at startup.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

// defaults lists every key so that environment variables can override
// keys absent from the config file.
var defaults = map[string]any{
	"ai.provider": string(types.ProviderNone),
	"ai.model":    "",
	"ai.api_key":  "",
	"ai.base_url": "",
	"ai.timeout":  60 * time.Second,

	"search.backends":                 []string{"tools"},
	"search.tools_url":                "http://localhost:8080",
	"search.results_per_query":        20,
	"search.timeout":                  30 * time.Second,
	"search.user_agent":               "discovery-engine/0.1",
	"search.semantic_scholar_api_key": "",
	"search.openalex_email":           "",
	"search.requests_per_second":      0.0,
	"search.burst":                    1,

	"extract.tools_url":  "http://localhost:8080",
	"extract.timeout":    60 * time.Second,
	"extract.user_agent": "discovery-engine/0.1",

	"store.backend":        string(types.StoreSQLite),
	"store.path":           "data/discovery-engine.db",
	"store.redis_addr":     "localhost:6379",
	"store.redis_password": "",
	"store.redis_db":       0,
	"store.ttl":            7 * 24 * time.Hour,

	"scorer.weighting":         string(types.WeightingKeyword),
	"scorer.threshold_mode":    string(types.ThresholdAdaptive),
	"scorer.fixed_threshold":   0.5,
	"scorer.generate_synonyms": false,

	"orchestrator.min_accepted":           5,
	"orchestrator.max_refinement_queries": 2,
	"orchestrator.max_expansion_queries":  2,
	"orchestrator.domain_context":         "machine learning",
	"orchestrator.search_timeout":         30 * time.Second,
	"orchestrator.extract_timeout":        60 * time.Second,
	"orchestrator.generate_timeout":       30 * time.Second,
	"orchestrator.store_timeout":          5 * time.Second,

	"log.level":  "info",
	"log.format": "text",

	"output_dir": "output/reports",
}

// SetDefaults registers the defaults and environment binding on v.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Default returns the configuration with every default applied.
func Default() types.EngineConfig {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	var cfg types.EngineConfig
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load unmarshals v, fills credentials from s, and validates the result.
// Validation failures are *ConfigurationError values joined together.
func Load(v *viper.Viper, s map[string]string) (types.EngineConfig, error) {
	SetDefaults(v)

	var cfg types.EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, &ConfigurationError{Key: "(file)", Reason: err.Error()}
	}
	cfg.Search.Backends = splitList(cfg.Search.Backends)
	secrets.Apply(&cfg, s)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// splitList accepts "a,b" from an environment variable as well as a YAML
// list.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks cfg for unusable settings.
func Validate(cfg types.EngineConfig) error {
	var errs []error
	bad := func(key, format string, args ...any) {
		errs = append(errs, &ConfigurationError{Key: key, Reason: fmt.Sprintf(format, args...)})
	}

	switch cfg.AI.Provider {
	case types.ProviderNone, types.ProviderOllama:
	case types.ProviderClaude:
		if cfg.AI.APIKey == "" {
			bad("ai.api_key", "required for provider claude (set it or add .secrets/%s)", secrets.AnthropicAPIKey)
		}
	default:
		bad("ai.provider", "unknown provider %q (claude, ollama, none)", cfg.AI.Provider)
	}

	if len(cfg.Search.Backends) == 0 {
		bad("search.backends", "at least one backend is required")
	}
	for _, b := range cfg.Search.Backends {
		switch b {
		case "tools":
			if cfg.Search.ToolsURL == "" {
				bad("search.tools_url", "required by the tools backend")
			}
		case "openalex", "semantic_scholar":
		default:
			bad("search.backends", "unknown backend %q (tools, openalex, semantic_scholar)", b)
		}
	}
	if cfg.Search.ResultsPerQuery <= 0 {
		bad("search.results_per_query", "must be positive, got %d", cfg.Search.ResultsPerQuery)
	}
	if cfg.Extract.ToolsURL == "" {
		bad("extract.tools_url", "required")
	}

	switch cfg.Store.Backend {
	case types.StoreMemory:
	case types.StoreSQLite:
		if cfg.Store.Path == "" {
			bad("store.path", "required by the sqlite backend")
		}
	case types.StoreRedis:
		if cfg.Store.RedisAddr == "" {
			bad("store.redis_addr", "required by the redis backend")
		}
	default:
		bad("store.backend", "unknown backend %q (memory, sqlite, redis)", cfg.Store.Backend)
	}
	if cfg.Store.TTL <= 0 {
		bad("store.ttl", "must be positive, got %s", cfg.Store.TTL)
	}

	switch cfg.Scorer.Weighting {
	case types.WeightingKeyword, types.WeightingBalanced:
	default:
		bad("scorer.weighting", "unknown weighting %q (keyword, balanced)", cfg.Scorer.Weighting)
	}
	switch cfg.Scorer.ThresholdMode {
	case types.ThresholdAdaptive, types.ThresholdFixed:
	default:
		bad("scorer.threshold_mode", "unknown mode %q (adaptive, fixed)", cfg.Scorer.ThresholdMode)
	}
	if cfg.Scorer.FixedThreshold <= 0 || cfg.Scorer.FixedThreshold > 1 {
		bad("scorer.fixed_threshold", "must be in (0, 1], got %g", cfg.Scorer.FixedThreshold)
	}

	o := cfg.Orchestrator
	if o.MinAccepted < 0 {
		bad("orchestrator.min_accepted", "must not be negative")
	}
	if o.MaxRefinementQueries < 0 || o.MaxExpansionQueries < 0 {
		bad("orchestrator", "query caps must not be negative")
	}
	for key, d := range map[string]time.Duration{
		"orchestrator.search_timeout":   o.SearchTimeout,
		"orchestrator.extract_timeout":  o.ExtractTimeout,
		"orchestrator.generate_timeout": o.GenerateTimeout,
		"orchestrator.store_timeout":    o.StoreTimeout,
	} {
		if d <= 0 {
			bad(key, "must be positive, got %s", d)
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		bad("log.level", "unknown level %q (debug, info, warn, error)", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		bad("log.format", "unknown format %q (text, json)", cfg.Log.Format)
	}

	return errors.Join(errs...)
}
