// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes candidates as a CSL-YAML list to w.
func FormatCSL(cs []types.Candidate, w io.Writer) error {
	items := make([]CSLItem, len(cs))
	for i, c := range cs {
		items[i] = toCSLItem(c)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(c types.Candidate) CSLItem {
	item := CSLItem{
		ID:             cslID(c),
		Type:           "article",
		Title:          c.Title,
		Abstract:       c.Snippet,
		ContainerTitle: c.Venue,
		DOI:            c.DOI,
		URL:            c.URL,
	}
	if item.ContainerTitle != "" {
		item.Type = "article-journal"
	}
	for _, a := range c.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}
	if c.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{c.Year}}}
	}
	return item
}

func cslID(c types.Candidate) string {
	if c.DOI != "" {
		return c.DOI
	}
	if c.URL != "" {
		return c.URL
	}
	return types.NormalizeTitle(c.Title)
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
