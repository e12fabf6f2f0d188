package service

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// normalizeTerms sanitizes desired items and drops blanks. Order and
// duplicates are kept: each entry is one stage of the graph.
func normalizeTerms(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if term := sanitizeString(item); term != "" {
			out = append(out, term)
		}
	}
	return out
}

// mergeIDs returns the ids of a followed by those of b not already present.
func mergeIDs(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, list := range [][]int64{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
