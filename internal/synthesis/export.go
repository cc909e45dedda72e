// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Export writes r to dir as <job>.yaml or <job>.json and returns the path.
func Export(dir string, r types.Report, format string) (string, error) {
	if r.JobID == "" {
		return "", fmt.Errorf("report has no job id")
	}
	var (
		data []byte
		err  error
		ext  string
	)
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		data, err = yaml.Marshal(r)
		ext = ".yaml"
	case "json":
		data, err = json.MarshalIndent(r, "", "  ")
		ext = ".json"
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, r.JobID+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// FormatText writes a readable rendering of r to w.
func FormatText(r types.Report, w io.Writer) {
	fmt.Fprintf(w, "Goal: %s\n", r.Goal)
	fmt.Fprintf(w, "Sources: %d\n\n", r.SourceCount)
	fmt.Fprintln(w, r.Summary)
	if r.NoData {
		return
	}

	if len(r.Themes) > 0 {
		fmt.Fprintf(w, "\nThemes: %s\n", strings.Join(r.Themes, ", "))
	}
	if len(r.Methodologies) > 0 {
		fmt.Fprintln(w, "\nMethodologies:")
		for _, m := range r.Methodologies {
			fmt.Fprintf(w, "  - %s\n", m)
		}
	}
	if len(r.Findings) > 0 {
		fmt.Fprintln(w, "\nKey findings:")
		for _, f := range r.Findings {
			fmt.Fprintf(w, "  - %s (%s)\n", f.Text, f.Title)
		}
	}
	fmt.Fprintf(w, "\nDistinct citations: %d\n", r.CitationCount)
}
