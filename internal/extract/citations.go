// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

var (
	// numericCiteRe matches numeric citations like [1], [2], [12].
	numericCiteRe = regexp.MustCompile(`\[(\d+)\]`)

	// authorYearCiteRe matches author-year citations like
	// [Smith et al., 2020] or [Smith and Jones, 2019].
	authorYearCiteRe = regexp.MustCompile(`\[([A-Z][a-z]+(?:\s+(?:et\s+al\.|and\s+[A-Z][a-z]+))?(?:,\s*\d{4}))\]`)

	// leadingKeyRe strips a leading bibliography marker like "[3] " or "3. ".
	leadingKeyRe = regexp.MustCompile(`^\s*(?:\[(\d+)\]|(\d+)\.)\s+`)
)

// InlineCitations returns the distinct inline citation keys in text, in
// order of first appearance. Numeric and author-year forms are recognized.
func InlineCitations(text string) []string {
	type hit struct {
		pos int
		key string
	}
	var hits []hit
	for _, m := range numericCiteRe.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{m[0], text[m[2]:m[3]]})
	}
	for _, m := range authorYearCiteRe.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{m[0], text[m[2]:m[3]]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool)
	var keys []string
	for _, h := range hits {
		if seen[h.key] {
			continue
		}
		seen[h.key] = true
		keys = append(keys, h.key)
	}
	return keys
}

// Reference is a parsed bibliography entry.
type Reference struct {
	Key     string
	Authors []string
	Title   string
	Venue   string
	Year    string
}

// String renders the reference as "Authors (Year). Title. Venue." with
// absent parts omitted.
func (r Reference) String() string {
	var b strings.Builder
	if len(r.Authors) > 0 {
		b.WriteString(strings.Join(r.Authors, " and "))
		if r.Year != "" {
			b.WriteString(" (" + r.Year + ")")
		}
		b.WriteString(". ")
	} else if r.Year != "" {
		b.WriteString("(" + r.Year + ") ")
	}
	if r.Title != "" {
		b.WriteString(r.Title + ".")
	}
	if r.Venue != "" {
		b.WriteString(" " + r.Venue + ".")
	}
	return strings.TrimSpace(b.String())
}

// authorBlockRe matches an author section like "Smith, A. and Jones, B." or
// "Brown, T. et al." at the start of a bibliography entry. It captures the
// author block so we can separate it from the title that follows.
var authorBlockRe = regexp.MustCompile(
	`^((?:[A-Z][a-z]+(?:,\s+[A-Z]\.?)?(?:,?\s+(?:and|&)\s+)?)+(?:\s*et\s+al\.)?)\s*[.]?\s+(.+)$`,
)

// ParseReference extracts metadata from a raw bibliography entry. It uses
// regex to identify the author block, then splits the remainder into title
// and venue. Entries it cannot split keep the first sentence as title.
func ParseReference(raw string) Reference {
	raw = strings.TrimSpace(raw)
	ref := Reference{}
	if m := leadingKeyRe.FindStringSubmatch(raw); m != nil {
		ref.Key = m[1] + m[2]
		raw = raw[len(m[0]):]
	}
	ref.Year = extractYear(raw)

	remainder := raw
	if m := authorBlockRe.FindStringSubmatch(raw); m != nil && looksLikeAuthors(raw, m[1]) {
		ref.Authors = parseAuthors(strings.TrimRight(m[1], ". "))
		remainder = m[2]
	}
	parts := splitOnPeriods(remainder)
	if len(parts) >= 1 {
		ref.Title = yearParenRe.ReplaceAllString(parts[0], "")
		ref.Title = strings.TrimSpace(ref.Title)
	}
	if len(parts) >= 2 {
		ref.Venue = cleanVenue(parts[1])
	}
	return ref
}

// looksLikeAuthors rejects author-block matches that are really the first
// word of a title: a block must contain a separator or end in a period.
func looksLikeAuthors(raw, block string) bool {
	if strings.ContainsAny(block, ",&") || strings.Contains(block, " and ") || strings.Contains(block, "et al") {
		return true
	}
	return strings.HasPrefix(strings.TrimLeft(raw[len(block):], " "), ".")
}

// yearRe matches a 4-digit year.
var yearRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

// yearParenRe matches a parenthesized year like "(2020)".
var yearParenRe = regexp.MustCompile(`^\(\s*(?:19|20)\d{2}\s*\)\s*`)

func extractYear(text string) string {
	m := yearRe.FindStringSubmatch(text)
	if len(m) >= 2 {
		return m[1]
	}
	return ""
}

// initialRe matches single-letter author initials like "A." or "B." so we
// can protect them from period-based splitting.
var initialRe = regexp.MustCompile(`\b([A-Z])\.`)

// splitOnPeriods splits an entry into segments at period boundaries but
// not on "et al.", "e.g.", "i.e." or single-letter initials.
func splitOnPeriods(text string) []string {
	safe := strings.ReplaceAll(text, "et al.", "et al\x00")
	safe = strings.ReplaceAll(safe, "e.g.", "e\x00g\x00")
	safe = strings.ReplaceAll(safe, "i.e.", "i\x00e\x00")
	safe = initialRe.ReplaceAllString(safe, "${1}\x00")

	parts := strings.Split(safe, ". ")

	var result []string
	for _, p := range parts {
		p = strings.ReplaceAll(p, "\x00", ".")
		p = strings.TrimRight(p, ".")
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// parseAuthors splits an author block on its " and " connector.
func parseAuthors(authorStr string) []string {
	authorStr = strings.TrimSpace(authorStr)
	if authorStr == "" {
		return nil
	}
	var authors []string
	for _, half := range strings.SplitN(authorStr, " and ", 2) {
		if half = strings.TrimSpace(half); half != "" {
			authors = append(authors, half)
		}
	}
	return authors
}

// cleanVenue removes the year and trailing punctuation from a venue
// segment.
func cleanVenue(text string) string {
	text = yearRe.ReplaceAllString(strings.TrimSpace(text), "")
	text = strings.Trim(text, "()., ")
	return strings.TrimSpace(text)
}

// CitationCount returns the number of distinct normalized citations across
// extractions.
func CitationCount(exs []types.Extraction) int {
	seen := make(map[string]bool)
	for _, ex := range exs {
		for _, c := range ex.Citations {
			seen[strings.ToLower(c)] = true
		}
	}
	return len(seen)
}
