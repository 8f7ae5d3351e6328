// Package analyzer classifies file-level changes and synthesizes
// Conventional Commit messages from them.
//
// Every exported operation is a pure function of its input and the rule
// table the Engine was built with. Nothing here performs I/O, reads file
// contents or keeps mutable state, so a single Engine can be shared by any
// number of goroutines as long as each call gets its own batch.
package analyzer

import "strings"

// Kind is the kind of change observed for a path
type Kind string

const (
	KindCreated  Kind = "created"
	KindModified Kind = "modified"
	KindDeleted  Kind = "deleted"
)

// ParseKind maps a change-kind string onto a Kind.
// Unknown strings degrade to KindModified; ok reports whether the input
// was recognized so callers can log the degradation.
func ParseKind(s string) (kind Kind, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created", "create", "added", "add", "new":
		return KindCreated, true
	case "modified", "modify", "changed", "updated", "update":
		return KindModified, true
	case "deleted", "delete", "removed", "remove":
		return KindDeleted, true
	default:
		return KindModified, false
	}
}

// normalized returns k if it is one of the known kinds, KindModified otherwise
func (k Kind) normalized() Kind {
	switch k {
	case KindCreated, KindDeleted:
		return k
	default:
		return KindModified
	}
}

// verb returns the lower-case action word used in subjects
func (k Kind) verb() string {
	switch k.normalized() {
	case KindCreated:
		return "add"
	case KindDeleted:
		return "remove"
	default:
		return "update"
	}
}

// Category is the semantic area a file belongs to
type Category string

const (
	CategoryFrontend     Category = "frontend"
	CategoryBackend      Category = "backend"
	CategoryDatabase     Category = "database"
	CategoryTest         Category = "test"
	CategoryConfig       Category = "config"
	CategoryDocs         Category = "docs"
	CategoryCI           Category = "ci"
	CategoryDependencies Category = "dependencies"
	CategoryOther        Category = "other"
)

// Categories lists every category in classification priority order.
// CategoryOther is last and never matched by a rule.
var Categories = []Category{
	CategoryFrontend,
	CategoryBackend,
	CategoryDatabase,
	CategoryTest,
	CategoryConfig,
	CategoryDocs,
	CategoryCI,
	CategoryDependencies,
	CategoryOther,
}

// priority returns the position of c in Categories
func (c Category) priority() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return len(Categories)
}

// Valid reports whether c belongs to the closed category set
func (c Category) Valid() bool {
	return c.priority() < len(Categories)
}

// Change is one observed (path, kind) event as handed over by a watcher,
// a webhook or git status.
type Change struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// FileChange is a Change after classification
type FileChange struct {
	Path     string   `json:"path"`
	Kind     Kind     `json:"kind"`
	Category Category `json:"category"`
}

// normalizePath lower-cases a path and strips the decorations that do not
// change which file it names.
func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.TrimLeft(p, "/")
	return strings.ToLower(p)
}

// baseName returns the final segment of an already normalized path
func baseName(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// firstDir returns the first directory segment of a normalized path,
// or "" when the path has no directory part.
func firstDir(p string) string {
	i := strings.Index(p, "/")
	if i <= 0 {
		return ""
	}
	return p[:i]
}
