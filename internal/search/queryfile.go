// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// ResultFile is the on-disk representation of a query and its candidates.
// A saved file can be scored or validated later without re-querying the
// search services.
type ResultFile struct {
	Query      string            `yaml:"query"`
	Backend    string            `yaml:"backend"`
	Limit      int               `yaml:"limit"`
	Candidates []types.Candidate `yaml:"candidates"`
	Summary    ResultSummary     `yaml:"summary"`
}

// ResultSummary stores result statistics and a timestamp.
type ResultSummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteResultFile saves a query and its candidates to a YAML file.
func WriteResultFile(path, query, backend string, limit int, cs []types.Candidate, removed int) error {
	rf := ResultFile{
		Query:      query,
		Backend:    backend,
		Limit:      limit,
		Candidates: cs,
		Summary: ResultSummary{
			Total:             len(cs),
			DuplicatesRemoved: removed,
			Timestamp:         time.Now().UTC(),
		},
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}
