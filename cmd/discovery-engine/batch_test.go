// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadBatchFile(t *testing.T) {
	path := writeFile(t, `
jobs:
  - goal: "  graph neural networks  "
    owner: ada
    scope:
      discovery_depth: focused
      publication_window_years: 5
  - goal: protein folding
`)

	jobs, err := readBatchFile(path)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, types.JobRequest{
		Goal:  "graph neural networks",
		Owner: "ada",
		Scope: types.ScopePreferences{
			DiscoveryDepth:         types.DepthFocused,
			PublicationWindowYears: 5,
		},
	}, jobs[0])
	assert.Equal(t, "protein folding", jobs[1].Goal)
}

func TestReadBatchFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", "jobs: []\n"},
		{"missing goal", "jobs:\n  - owner: ada\n"},
		{"bad yaml", "jobs: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readBatchFile(writeFile(t, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := readBatchFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScopeFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addScopeFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{
		"--window", "3", "--impact", "high_impact", "--depth", "rapid", "--peer-reviewed",
	}))

	assert.Equal(t, types.ScopePreferences{
		PublicationWindowYears: 3,
		ImpactLevel:            types.ImpactHigh,
		DiscoveryDepth:         types.DepthRapid,
		RequirePeerReview:      true,
	}, scopeFromFlags(cmd))
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short", 10))
	assert.Equal(t, "abcdefg...", truncateTitle("abcdefghijklmnop", 10))
}
