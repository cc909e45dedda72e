// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/discovery-engine/internal/audit"
	"github.com/pdiddy/discovery-engine/internal/checkpoint"
	"github.com/pdiddy/discovery-engine/internal/extract"
	"github.com/pdiddy/discovery-engine/internal/orchestrator"
	"github.com/pdiddy/discovery-engine/internal/planner"
	"github.com/pdiddy/discovery-engine/internal/relevance"
	"github.com/pdiddy/discovery-engine/internal/search"
	"github.com/pdiddy/discovery-engine/internal/synthesis"
	"github.com/pdiddy/discovery-engine/internal/textgen"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// engine bundles the components built from configuration for one CLI
// invocation. Close releases the checkpoint store.
type engine struct {
	store checkpoint.Store
	gen   textgen.Generator
	orch  *orchestrator.Orchestrator
	synth synthesis.Synthesizer
}

func (e *engine) Close() error { return e.store.Close() }

// newScorer builds the relevance scorer. Generated synonyms are used only
// when enabled and a generator is configured.
func newScorer(cfg types.EngineConfig, gen textgen.Generator) *relevance.Scorer {
	var syn relevance.SynonymProvider
	if cfg.Scorer.GenerateSynonyms && gen != nil {
		syn = relevance.NewGeneratedSynonyms(gen)
	}
	return relevance.NewFromConfig(cfg.Scorer, syn)
}

func newPlanner(cfg types.EngineConfig, gen textgen.Generator) *planner.Planner {
	return planner.New(gen, planner.WithDomainContext(cfg.Orchestrator.DomainContext))
}

func newSynthesizer(gen textgen.Generator) synthesis.Synthesizer {
	if gen == nil {
		return synthesis.Digest{}
	}
	return synthesis.NewGenerated(gen, synthesis.Digest{})
}

// newEngine opens the store and wires every collaborator of the
// orchestrator. Progress lines go to progress.
func newEngine(ctx context.Context, cfg types.EngineConfig, progress io.Writer) (*engine, error) {
	gen, err := textgen.New(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("text generator: %w", err)
	}
	backend, err := search.New(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	extractor, err := extract.New(cfg.Extract)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	store, err := checkpoint.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}

	orch := orchestrator.New(
		orchestrator.Config{
			OrchestratorConfig: cfg.Orchestrator,
			ResultsPerQuery:    cfg.Search.ResultsPerQuery,
		},
		checkpoint.NewManager(store, cfg.Store.TTL),
		audit.NewTrail(store, cfg.Store.TTL),
		orchestrator.Components{
			Planner:  newPlanner(cfg, gen),
			Refiner:  planner.NewRefiner(gen, cfg.Orchestrator.MaxRefinementQueries),
			Expander: planner.NewExpander(cfg.Orchestrator.MaxExpansionQueries),
			Search:   backend,
			Extract:  extractor,
			Scorer:   newScorer(cfg, gen),
		},
		orchestrator.WithProgress(progress),
	)

	return &engine{store: store, gen: gen, orch: orch, synth: newSynthesizer(gen)}, nil
}

// openInspector opens the store for read-only commands. The returned
// orchestrator has no collaborators and must not run jobs.
func openInspector(ctx context.Context, cfg types.EngineConfig) (*orchestrator.Orchestrator, checkpoint.Store, error) {
	store, err := checkpoint.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	orch := orchestrator.New(
		orchestrator.Config{OrchestratorConfig: cfg.Orchestrator},
		checkpoint.NewManager(store, cfg.Store.TTL),
		audit.NewTrail(store, cfg.Store.TTL),
		orchestrator.Components{},
	)
	return orch, store, nil
}
