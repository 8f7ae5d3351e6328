package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveScope(t *testing.T) {
	tests := []struct {
		name    string
		profile ImpactProfile
		want    string
	}{
		{"single component", ImpactProfile{Components: []string{"web"}, Scopes: []Category{CategoryFrontend, CategoryTest}}, "web"},
		{"single category", ImpactProfile{Components: []string{"api", "web"}, Scopes: []Category{CategoryBackend}}, "backend"},
		{"root files only", ImpactProfile{Scopes: []Category{CategoryDocs}}, "docs"},
		{"spread", ImpactProfile{Components: []string{"api", "web"}, Scopes: []Category{CategoryBackend, CategoryFrontend}}, ScopeMulti},
		{"categories without components", ImpactProfile{Scopes: []Category{CategoryDocs, CategoryConfig}}, ScopeMulti},
		{"empty", ImpactProfile{}, ""},
		{"sanitized", ImpactProfile{Components: []string{"my (app)\ndir"}}, "my-app-dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveScope(tt.profile))
		})
	}
}

func TestDominantCategory(t *testing.T) {
	batch := []FileChange{
		{Path: "a.md", Category: CategoryDocs},
		{Path: "b.go", Category: CategoryBackend},
		{Path: "c.md", Category: CategoryDocs},
	}
	assert.Equal(t, CategoryDocs, dominantCategory(batch))

	// equal counts resolve by priority
	tie := []FileChange{
		{Path: "a.md", Category: CategoryDocs},
		{Path: "b.go", Category: CategoryBackend},
	}
	assert.Equal(t, CategoryBackend, dominantCategory(tie))

	assert.Equal(t, CategoryOther, dominantCategory(nil))
}

func TestScopeIgnoresRootFiles(t *testing.T) {
	// root-level files add a category but no component, so the one
	// directory still names the scope
	e := Default()
	changes := []Change{
		{Path: "README.md", Kind: KindModified},
		{Path: "src/a.go", Kind: KindModified},
	}

	profile := e.Analyze(e.ClassifyBatch(changes))
	assert.Equal(t, []string{"src"}, profile.Components)
	assert.Len(t, profile.Scopes, 2)
	assert.Equal(t, "src", e.Draft(changes).Scope)
}
