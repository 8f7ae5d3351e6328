package analyzer

import "strings"

// Engine classifies changes and composes commit messages with one rule table.
// An Engine is immutable after New and safe for concurrent use.
type Engine struct {
	c *compiledRules
}

// New builds an Engine from rules. It fails only when the table itself is
// malformed (bad regular expression, unknown category or importance).
func New(rules Rules) (*Engine, error) {
	c, err := rules.compile()
	if err != nil {
		return nil, err
	}
	return &Engine{c: c}, nil
}

// Default returns an Engine built from DefaultRules
func Default() *Engine {
	e, err := New(DefaultRules())
	if err != nil {
		panic("analyzer: default rules do not compile: " + err.Error())
	}
	return e
}

// Classify maps a path onto exactly one Category. It never fails:
// empty or unrecognizable paths are CategoryOther.
func (e *Engine) Classify(path string) Category {
	p := normalizePath(path)
	if p == "" {
		return CategoryOther
	}
	base := baseName(p)

	if cat, ok := e.c.filenames[base]; ok {
		return cat
	}

	// Longest suffix wins; rules are stored in priority order so the first
	// of equally long suffixes is the higher-priority category.
	best, bestLen := CategoryOther, 0
	for _, r := range e.c.suffixes {
		if len(r.suffix) > bestLen && len(r.suffix) <= len(base) && strings.HasSuffix(base, r.suffix) {
			best, bestLen = r.category, len(r.suffix)
		}
	}
	if bestLen > 0 {
		return best
	}

	for _, r := range e.c.pathPatterns {
		if r.re.MatchString(p) {
			return r.category
		}
	}

	return CategoryOther
}

// ClassifyBatch returns a freshly allocated, classified copy of changes.
// Kinds are normalized so downstream code only ever sees the three known kinds.
func (e *Engine) ClassifyBatch(changes []Change) []FileChange {
	out := make([]FileChange, len(changes))
	for i, ch := range changes {
		out[i] = FileChange{
			Path:     ch.Path,
			Kind:     ch.Kind.normalized(),
			Category: e.Classify(ch.Path),
		}
	}
	return out
}
