// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

func TestInlineCitations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "No references here.", nil},
		{"numeric", "As shown [2] and again [1], then [2].", []string{"2", "1"}},
		{"author year", "Prior work [Smith et al., 2020] and [Brown and Lee, 2019].", []string{"Smith et al., 2020", "Brown and Lee, 2019"}},
		{"mixed order", "[Smith, 2018] precedes [3].", []string{"Smith, 2018", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, InlineCitations(tt.text)); diff != "" {
				t.Errorf("InlineCitations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Reference
	}{
		{
			name: "numbered with authors",
			raw:  "[4] Smith and Jones. Deep nets. ICML, 2019.",
			want: Reference{Key: "4", Authors: []string{"Smith", "Jones"}, Title: "Deep nets", Venue: "ICML", Year: "2019"},
		},
		{
			name: "dotted key",
			raw:  "12. Brown et al. Language models are few-shot learners. NeurIPS 2020.",
			want: Reference{Key: "12", Authors: []string{"Brown et al"}, Title: "Language models are few-shot learners", Venue: "NeurIPS", Year: "2020"},
		},
		{
			name: "plain title",
			raw:  "Attention is all you need",
			want: Reference{Title: "Attention is all you need"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseReference(tt.raw), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ParseReference mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReferenceString(t *testing.T) {
	tests := []struct {
		ref  Reference
		want string
	}{
		{Reference{Authors: []string{"Smith"}, Year: "2019", Title: "Deep nets", Venue: "ICML"}, "Smith (2019). Deep nets. ICML."},
		{Reference{Year: "2019", Title: "Deep nets"}, "(2019) Deep nets."},
		{Reference{Title: "Deep nets"}, "Deep nets."},
	}
	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(types.Extraction{
		Title:       "  T  ",
		KeyFindings: []string{" a ", "a", "", "b"},
		Citations:   []string{"Deep nets", "Deep nets.", "  "},
	})
	if got.Title != "T" {
		t.Errorf("Title = %q", got.Title)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got.KeyFindings); diff != "" {
		t.Errorf("KeyFindings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Deep nets."}, got.Citations); diff != "" {
		t.Errorf("Citations mismatch (-want +got):\n%s", diff)
	}
}

func TestCitationCount(t *testing.T) {
	exs := []types.Extraction{
		{Citations: []string{"A.", "B."}},
		{Citations: []string{"a.", "C."}},
		{},
	}
	if got := CitationCount(exs); got != 3 {
		t.Errorf("CitationCount = %d, want 3", got)
	}
}
