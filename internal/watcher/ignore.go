package watcher

import (
	"path"
	"strings"
)

// Matcher decides which relative paths are ignored.
//
// A pattern matches a path when it equals one of its segments, matches a
// segment as a glob, or (for dot-prefixed patterns such as ".pyc") ends
// the base name.
type Matcher struct {
	patterns []string
}

// NewMatcher builds a matcher, skipping empty patterns
func NewMatcher(patterns []string) Matcher {
	m := Matcher{}
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

// Match reports whether the slash separated path rel is ignored
func (m Matcher) Match(rel string) bool {
	if rel == "" {
		return false
	}
	segments := strings.Split(rel, "/")
	base := segments[len(segments)-1]

	for _, p := range m.patterns {
		if strings.HasPrefix(p, ".") && strings.HasSuffix(base, p) {
			return true
		}
		for _, seg := range segments {
			if seg == p {
				return true
			}
			if ok, _ := path.Match(p, seg); ok {
				return true
			}
		}
	}
	return false
}
