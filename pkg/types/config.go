// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by adapters that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "discovery-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AIProvider selects the text-generation backend.
type AIProvider string

const (
	ProviderClaude AIProvider = "claude"
	ProviderOllama AIProvider = "ollama"
	ProviderNone   AIProvider = "none"
)

// AIConfig holds settings for the text-generation client.
type AIConfig struct {
	// Provider selects claude, ollama, or none. With none, planning and
	// synonym generation use their heuristic fallbacks.
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (Ollama default http://localhost:11434).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Timeout bounds a single generation call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// SearchConfig holds settings for the search adapters.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backends lists the enabled backends: tools, openalex, semantic_scholar.
	Backends []string `json:"backends" yaml:"backends" mapstructure:"backends"`

	// ToolsURL is the base URL of the search-and-extraction service.
	ToolsURL string `json:"tools_url" yaml:"tools_url" mapstructure:"tools_url"`

	// ResultsPerQuery is the limit passed to each search call (default 20).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query" mapstructure:"results_per_query"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// RequestsPerSecond throttles each backend (0 disables throttling).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Burst is the token bucket size for throttling (default 1).
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// ExtractConfig holds settings for the extraction adapter.
type ExtractConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ToolsURL is the base URL of the search-and-extraction service.
	ToolsURL string `json:"tools_url" yaml:"tools_url" mapstructure:"tools_url"`
}

// StoreBackend selects the checkpoint store implementation.
type StoreBackend string

const (
	StoreMemory StoreBackend = "memory"
	StoreSQLite StoreBackend = "sqlite"
	StoreRedis  StoreBackend = "redis"
)

// StoreConfig holds settings for the checkpoint store.
type StoreConfig struct {
	Backend StoreBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// RedisAddr is host:port of the Redis server.
	RedisAddr string `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`

	// RedisPassword authenticates to Redis; usually loaded from .secrets/.
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`

	// RedisDB selects the Redis logical database.
	RedisDB int `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`

	// TTL is the retention of job keys (default 7 days).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// Weighting selects the relevance component weights.
type Weighting string

const (
	// WeightingKeyword favours keyword overlap: 0.70 keyword, 0.15 citation,
	// 0.10 recency, 0.05 venue.
	WeightingKeyword Weighting = "keyword"

	// WeightingBalanced spreads weight: 0.40 keyword, 0.30 recency,
	// 0.20 citation, 0.10 venue.
	WeightingBalanced Weighting = "balanced"
)

// ThresholdMode selects how the relevance cut-off is chosen.
type ThresholdMode string

const (
	ThresholdAdaptive ThresholdMode = "adaptive"
	ThresholdFixed    ThresholdMode = "fixed"
)

// ScorerConfig holds settings for the relevance scorer.
type ScorerConfig struct {
	Weighting     Weighting     `json:"weighting" yaml:"weighting" mapstructure:"weighting"`
	ThresholdMode ThresholdMode `json:"threshold_mode" yaml:"threshold_mode" mapstructure:"threshold_mode"`

	// FixedThreshold is the cut-off used in fixed mode (default 0.5).
	FixedThreshold float64 `json:"fixed_threshold" yaml:"fixed_threshold" mapstructure:"fixed_threshold"`

	// GenerateSynonyms enables synonym groups from the text generator.
	GenerateSynonyms bool `json:"generate_synonyms" yaml:"generate_synonyms" mapstructure:"generate_synonyms"`
}

// OrchestratorConfig holds the limits and timeouts of a job run.
type OrchestratorConfig struct {
	// MinAccepted is the floor below which search expansion runs (default 5).
	MinAccepted int `json:"min_accepted" yaml:"min_accepted" mapstructure:"min_accepted"`

	// MaxRefinementQueries caps adaptive refinement (default 2).
	MaxRefinementQueries int `json:"max_refinement_queries" yaml:"max_refinement_queries" mapstructure:"max_refinement_queries"`

	// MaxExpansionQueries caps search expansion (default 2).
	MaxExpansionQueries int `json:"max_expansion_queries" yaml:"max_expansion_queries" mapstructure:"max_expansion_queries"`

	// DomainContext is appended by the heuristic planner when the goal
	// lacks it (default "machine learning").
	DomainContext string `json:"domain_context" yaml:"domain_context" mapstructure:"domain_context"`

	SearchTimeout   time.Duration `json:"search_timeout" yaml:"search_timeout" mapstructure:"search_timeout"`
	ExtractTimeout  time.Duration `json:"extract_timeout" yaml:"extract_timeout" mapstructure:"extract_timeout"`
	GenerateTimeout time.Duration `json:"generate_timeout" yaml:"generate_timeout" mapstructure:"generate_timeout"`
	StoreTimeout    time.Duration `json:"store_timeout" yaml:"store_timeout" mapstructure:"store_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// EngineConfig groups every component configuration.
type EngineConfig struct {
	AI           AIConfig           `json:"ai" yaml:"ai" mapstructure:"ai"`
	Search       SearchConfig       `json:"search" yaml:"search" mapstructure:"search"`
	Extract      ExtractConfig      `json:"extract" yaml:"extract" mapstructure:"extract"`
	Store        StoreConfig        `json:"store" yaml:"store" mapstructure:"store"`
	Scorer       ScorerConfig       `json:"scorer" yaml:"scorer" mapstructure:"scorer"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator" mapstructure:"orchestrator"`
	Log          LogConfig          `json:"log" yaml:"log" mapstructure:"log"`

	// OutputDir receives exported reports (default "output/reports").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}
