// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, types.ProviderNone, cfg.AI.Provider)
	assert.Equal(t, []string{"tools"}, cfg.Search.Backends)
	assert.Equal(t, 20, cfg.Search.ResultsPerQuery)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "discovery-engine/0.1", cfg.Search.UserAgent)
	assert.Equal(t, types.StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, 7*24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, types.WeightingKeyword, cfg.Scorer.Weighting)
	assert.Equal(t, types.ThresholdAdaptive, cfg.Scorer.ThresholdMode)
	assert.Equal(t, 0.5, cfg.Scorer.FixedThreshold)
	assert.Equal(t, 5, cfg.Orchestrator.MinAccepted)
	assert.Equal(t, "machine learning", cfg.Orchestrator.DomainContext)
	assert.Equal(t, "output/reports", cfg.OutputDir)

	assert.NoError(t, Validate(cfg))
}

func TestLoadFromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
ai:
  provider: claude
search:
  backends: [openalex, semantic_scholar]
  requests_per_second: 2.5
store:
  backend: redis
  redis_addr: cache:6379
  ttl: 48h
scorer:
  weighting: balanced
  threshold_mode: fixed
  fixed_threshold: 0.4
orchestrator:
  search_timeout: 10s
log:
  level: debug
  format: json
`)))

	cfg, err := Load(v, map[string]string{"anthropic-api-key": "ak", "redis-password": "pw"})
	require.NoError(t, err)

	assert.Equal(t, types.ProviderClaude, cfg.AI.Provider)
	assert.Equal(t, "ak", cfg.AI.APIKey)
	assert.Equal(t, []string{"openalex", "semantic_scholar"}, cfg.Search.Backends)
	assert.Equal(t, 2.5, cfg.Search.RequestsPerSecond)
	assert.Equal(t, types.StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "pw", cfg.Store.RedisPassword)
	assert.Equal(t, 48*time.Hour, cfg.Store.TTL)
	assert.Equal(t, types.WeightingBalanced, cfg.Scorer.Weighting)
	assert.Equal(t, 0.4, cfg.Scorer.FixedThreshold)
	assert.Equal(t, 10*time.Second, cfg.Orchestrator.SearchTimeout)
	assert.Equal(t, 60*time.Second, cfg.Orchestrator.ExtractTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DISCOVERY_ENGINE_STORE_BACKEND", "memory")
	t.Setenv("DISCOVERY_ENGINE_SEARCH_BACKENDS", "tools,openalex")
	t.Setenv("DISCOVERY_ENGINE_ORCHESTRATOR_MIN_ACCEPTED", "8")

	cfg, err := Load(viper.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, types.StoreMemory, cfg.Store.Backend)
	assert.Equal(t, []string{"tools", "openalex"}, cfg.Search.Backends)
	assert.Equal(t, 8, cfg.Orchestrator.MinAccepted)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.EngineConfig)
		wantKey string
	}{
		{"claude without key", func(c *types.EngineConfig) { c.AI.Provider = types.ProviderClaude }, "ai.api_key"},
		{"unknown provider", func(c *types.EngineConfig) { c.AI.Provider = "gpt" }, "ai.provider"},
		{"no backends", func(c *types.EngineConfig) { c.Search.Backends = nil }, "search.backends"},
		{"unknown backend", func(c *types.EngineConfig) { c.Search.Backends = []string{"google"} }, "search.backends"},
		{"tools without url", func(c *types.EngineConfig) { c.Search.ToolsURL = "" }, "search.tools_url"},
		{"zero results", func(c *types.EngineConfig) { c.Search.ResultsPerQuery = 0 }, "search.results_per_query"},
		{"no extract url", func(c *types.EngineConfig) { c.Extract.ToolsURL = "" }, "extract.tools_url"},
		{"unknown store", func(c *types.EngineConfig) { c.Store.Backend = "etcd" }, "store.backend"},
		{"sqlite without path", func(c *types.EngineConfig) { c.Store.Path = "" }, "store.path"},
		{"redis without addr", func(c *types.EngineConfig) {
			c.Store.Backend = types.StoreRedis
			c.Store.RedisAddr = ""
		}, "store.redis_addr"},
		{"zero ttl", func(c *types.EngineConfig) { c.Store.TTL = 0 }, "store.ttl"},
		{"unknown weighting", func(c *types.EngineConfig) { c.Scorer.Weighting = "equal" }, "scorer.weighting"},
		{"unknown threshold mode", func(c *types.EngineConfig) { c.Scorer.ThresholdMode = "percentile" }, "scorer.threshold_mode"},
		{"threshold above one", func(c *types.EngineConfig) { c.Scorer.FixedThreshold = 1.5 }, "scorer.fixed_threshold"},
		{"negative floor", func(c *types.EngineConfig) { c.Orchestrator.MinAccepted = -1 }, "orchestrator.min_accepted"},
		{"zero timeout", func(c *types.EngineConfig) { c.Orchestrator.StoreTimeout = 0 }, "orchestrator.store_timeout"},
		{"bad log level", func(c *types.EngineConfig) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *types.EngineConfig) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.wantKey, ce.Key)
		})
	}
}

func TestLoadReportsAllProblems(t *testing.T) {
	v := viper.New()
	v.Set("store.backend", "etcd")
	v.Set("log.format", "xml")

	_, err := Load(v, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.backend")
	assert.Contains(t, err.Error(), "log.format")
}
