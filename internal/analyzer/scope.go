package analyzer

import (
	"strings"
	"unicode"
)

// ScopeMulti is used when a batch spans several components and categories
const ScopeMulti = "multi"

// ResolveScope derives the header scope from an impact profile:
// a single component, else a single category, else "multi", else "".
func ResolveScope(p ImpactProfile) string {
	switch {
	case len(p.Components) == 1:
		return sanitizeScope(p.Components[0])
	case len(p.Scopes) == 1:
		return sanitizeScope(string(p.Scopes[0]))
	case len(p.Components) > 0 || len(p.Scopes) > 0:
		return ScopeMulti
	default:
		return ""
	}
}

// sanitizeScope keeps the scope inside the header grammar
func sanitizeScope(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '(' || r == ')':
			return -1
		case unicode.IsSpace(r) || unicode.IsControl(r):
			return '-'
		default:
			return r
		}
	}, s)
}

// dominantCategory returns the most frequent category of the batch,
// ties resolved by category priority.
func dominantCategory(batch []FileChange) Category {
	counts := make(map[Category]int)
	for _, fc := range batch {
		counts[fc.Category]++
	}
	best, bestN := CategoryOther, 0
	for _, cat := range Categories {
		if counts[cat] > bestN {
			best, bestN = cat, counts[cat]
		}
	}
	return best
}
