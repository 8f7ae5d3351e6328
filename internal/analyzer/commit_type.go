package analyzer

import "strings"

// Fixed labels outside the scored taxonomy
const (
	TypeChore = "chore"
	TypeTest  = "test"
	TypeDocs  = "docs"
)

// TypeResolution is the outcome of commit-type selection
type TypeResolution struct {
	Type       string     `json:"type"`
	Importance Importance `json:"importance"`
	Score      int        `json:"score"`
}

// ResolveType picks the commit type of a classified batch.
//
// Homogeneous test, docs or config batches short-circuit to test, docs and
// chore. Otherwise every taxonomy entry is scored by counting its pattern
// hits in the batch's paths and kinds; the entry with the greatest
// (importance, score) wins and ties go to the earlier entry. A batch that
// hits nothing is a chore.
func (e *Engine) ResolveType(batch []FileChange) TypeResolution {
	if len(batch) == 0 {
		return TypeResolution{Type: TypeChore, Importance: ImportanceMinor}
	}

	switch sharedCategory(batch) {
	case CategoryTest:
		return TypeResolution{Type: TypeTest, Importance: ImportanceMinor}
	case CategoryDocs:
		return TypeResolution{Type: TypeDocs, Importance: ImportanceMinor}
	case CategoryConfig:
		return TypeResolution{Type: TypeChore, Importance: ImportanceMinor}
	}

	text := scoringText(batch)
	best := TypeResolution{Type: TypeChore, Importance: ImportanceMinor}
	found := false
	for _, tr := range e.c.taxonomy {
		score := 0
		for _, pat := range tr.Patterns {
			score += strings.Count(text, pat)
		}
		if score == 0 {
			continue
		}
		if !found || outranks(tr.Importance, score, best.Importance, best.Score) {
			best = TypeResolution{Type: tr.Type, Importance: tr.Importance, Score: score}
			found = true
		}
	}
	return best
}

// outranks compares (importance, score) pairs lexicographically.
// Equal pairs do not outrank, which keeps declaration order as tie-break.
func outranks(imp Importance, score int, bestImp Importance, bestScore int) bool {
	if imp.Rank() != bestImp.Rank() {
		return imp.Rank() > bestImp.Rank()
	}
	return score > bestScore
}

// sharedCategory returns the category every change has, or "" if they differ
func sharedCategory(batch []FileChange) Category {
	cat := batch[0].Category
	for _, fc := range batch[1:] {
		if fc.Category != cat {
			return ""
		}
	}
	return cat
}

func scoringText(batch []FileChange) string {
	parts := make([]string, 0, 2*len(batch))
	for _, fc := range batch {
		parts = append(parts, fc.Path, string(fc.Kind.normalized()))
	}
	return strings.ToLower(strings.Join(parts, " "))
}
