// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\b[a-z]{3,}\b`)

var stopwords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true, "from": true,
	"are": true, "was": true, "were": true, "been": true, "have": true, "has": true,
	"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
	"that": true, "this": true, "these": true, "those": true, "which": true, "who": true,
	"what": true, "where": true, "why": true, "how": true, "all": true, "each": true,
	"every": true, "both": true, "few": true, "more": true, "most": true, "some": true,
	"any": true, "its": true, "our": true, "your": true, "their": true, "can": true,
	"may": true, "must": true, "shall": true, "review": true, "analysis": true,
	"study": true, "research": true, "paper": true, "survey": true, "literature": true,
}

// Keywords returns the distinct lowercase alphabetic tokens of at least
// three letters in text, minus stop words, in order of first appearance.
func Keywords(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// IsStopword reports whether w is dropped by Keywords.
func IsStopword(w string) bool { return stopwords[strings.ToLower(w)] }

func keywordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, k := range Keywords(text) {
		set[k] = true
	}
	return set
}

// prefixMatch reports whether some paper keyword shares a prefix with kw
// and differs in length by at most three letters (model, models, modeling).
func prefixMatch(kw string, paper map[string]bool) bool {
	for p := range paper {
		if stemRelated(kw, p) {
			return true
		}
	}
	return false
}

func stemRelated(a, b string) bool {
	if !strings.HasPrefix(a, b) && !strings.HasPrefix(b, a) {
		return false
	}
	d := len(a) - len(b)
	if d < 0 {
		d = -d
	}
	return d <= 3
}
