package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func analyze(e *Engine, changes ...Change) ImpactProfile {
	return e.Analyze(e.ClassifyBatch(changes))
}

func TestAnalyzeDeletedOnlyBatchIsBreaking(t *testing.T) {
	e := Default()
	batches := [][]Change{
		{{Path: "lib/util.go", Kind: KindDeleted}},
		{{Path: "a.txt", Kind: KindDeleted}, {Path: "b/c.md", Kind: KindDeleted}},
		{{Path: "", Kind: KindDeleted}},
	}

	for _, b := range batches {
		assert.True(t, analyze(e, b...).Breaking, "batch %v", b)
	}
}

func TestAnalyzeFlags(t *testing.T) {
	e := Default()

	tests := []struct {
		name string
		ch   Change
		want ImpactProfile
	}{
		{
			name: "plain change",
			ch:   Change{Path: "lib/util.go", Kind: KindModified},
			want: ImpactProfile{Scopes: []Category{CategoryBackend}, Components: []string{"lib"}},
		},
		{
			name: "contract surface",
			ch:   Change{Path: "proto/user_contract.go", Kind: KindModified},
			want: ImpactProfile{Breaking: true, Scopes: []Category{CategoryBackend}, Components: []string{"proto"}},
		},
		{
			name: "security",
			ch:   Change{Path: "src/auth/login.py", Kind: KindModified},
			want: ImpactProfile{SecurityImpact: true, Scopes: []Category{CategoryBackend}, Components: []string{"src"}},
		},
		{
			name: "database",
			ch:   Change{Path: "db/migrations/002_users.sql", Kind: KindCreated},
			want: ImpactProfile{DatabaseChanged: true, Scopes: []Category{CategoryDatabase}, Components: []string{"db"}},
		},
		{
			name: "performance",
			ch:   Change{Path: "internal/cache/pool.go", Kind: KindModified},
			want: ImpactProfile{PerformanceImpact: true, Scopes: []Category{CategoryBackend}, Components: []string{"internal"}},
		},
		{
			name: "manifest at root",
			ch:   Change{Path: "requirements.txt", Kind: KindModified},
			want: ImpactProfile{DependenciesChanged: true, Scopes: []Category{CategoryDependencies}},
		},
		{
			name: "manifest is matched on the final segment only",
			ch:   Change{Path: "tools/Go.Mod", Kind: KindModified},
			want: ImpactProfile{DependenciesChanged: true, Scopes: []Category{CategoryDependencies}, Components: []string{"tools"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyze(e, tt.ch))
		})
	}
}

func TestAnalyzeDeletedAPIFile(t *testing.T) {
	e := Default()
	batch := e.ClassifyBatch([]Change{{Path: "src/api/users.py", Kind: KindDeleted}})

	assert.Equal(t, CategoryBackend, batch[0].Category)
	p := e.Analyze(batch)
	assert.True(t, p.Breaking)
	assert.True(t, p.APIChanged)
	assert.False(t, p.SecurityImpact)
}

func TestAnalyzeFlagsAreIndependent(t *testing.T) {
	p := analyze(Default(), Change{Path: "api/auth/token_cache.go", Kind: KindModified})

	assert.True(t, p.APIChanged)
	assert.True(t, p.SecurityImpact)
	assert.True(t, p.PerformanceImpact)
	assert.True(t, p.Breaking)
	assert.False(t, p.DependenciesChanged)
	assert.True(t, p.HasImpact())
}

func TestAnalyzeSetsAreOrdered(t *testing.T) {
	p := analyze(Default(),
		Change{Path: "web/app.js", Kind: KindModified},
		Change{Path: "docs/guide.md", Kind: KindModified},
		Change{Path: "src/main.go", Kind: KindModified},
		Change{Path: "web/index.html", Kind: KindModified},
		Change{Path: "LICENSE", Kind: KindModified},
	)

	assert.Equal(t, []Category{CategoryFrontend, CategoryBackend, CategoryDocs}, p.Scopes)
	assert.Equal(t, []string{"docs", "src", "web"}, p.Components)
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	assert.Equal(t, ImpactProfile{}, Default().Analyze(nil))
}
