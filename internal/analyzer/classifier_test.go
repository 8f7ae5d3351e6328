package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	e := Default()

	tests := []struct {
		path string
		want Category
	}{
		{"src/app.py", CategoryBackend},
		{"src/app_test.py", CategoryTest},
		{"tests/unit/parser.test.py", CategoryTest},
		{"pkg/handler_test.go", CategoryTest},
		{"web/App.TSX", CategoryFrontend},
		{"web/components/button.spec.tsx", CategoryTest},
		{"db/migrations/001_init.sql", CategoryDatabase},
		{"migrations/0001_initial", CategoryDatabase},
		{"config/settings.yaml", CategoryConfig},
		{"docs/README.md", CategoryDocs},
		{".github/CODEOWNERS", CategoryCI},
		{".gitlab-ci.yml", CategoryCI},
		{"Jenkinsfile", CategoryCI},
		{"requirements.txt", CategoryDependencies},
		{"frontend/package.json", CategoryDependencies},
		{"node_modules/left-pad/index", CategoryDependencies},
		{"Makefile", CategoryConfig},
		{`src\api\users.py`, CategoryBackend},
		{"./internal/server/routes", CategoryBackend},
		{"bin/tool", CategoryOther},
		{"notes", CategoryOther},
		{"", CategoryOther},
		{"   ", CategoryOther},
		{"/", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Classify(tt.path))
		})
	}
}

func TestClassifyExtensionBeatsDirectory(t *testing.T) {
	e := Default()

	// A workflow file is YAML first; directory rules only apply without an extension match
	assert.Equal(t, CategoryConfig, e.Classify(".github/workflows/ci.yml"))
	assert.Equal(t, CategoryBackend, e.Classify("tests/helpers.py"))
	assert.Equal(t, CategoryTest, e.Classify("tests/fixtures/sample"))
}

func TestClassifyIsTotalAndIdempotent(t *testing.T) {
	e := Default()
	inputs := []string{
		"", ".", "..", "/", "//", "\\", "a", ".py", "x.", "a/b/c/d/e/f.go",
		"UPPER/CASE.MD", "weird name (1).txt", "tab\tseparated.js", "new\nline.go",
		"ünïcödé/файл.rs", "C:\\Users\\dev\\proj\\main.go", "a.test.py.bak",
	}

	for _, in := range inputs {
		first := e.Classify(in)
		assert.True(t, first.Valid(), "category %q for %q is outside the closed set", first, in)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, e.Classify(in), "classification of %q changed between calls", in)
		}
	}
}

func TestClassifyBatchNormalizesKindsAndCopies(t *testing.T) {
	e := Default()
	in := []Change{
		{Path: "src/a.go", Kind: KindCreated},
		{Path: "src/b.go", Kind: "renamed"},
	}

	out := e.ClassifyBatch(in)
	require.Len(t, out, 2)
	assert.Equal(t, KindCreated, out[0].Kind)
	assert.Equal(t, KindModified, out[1].Kind)
	assert.Equal(t, Kind("renamed"), in[1].Kind, "input must not be mutated")
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in     string
		want   Kind
		wantOK bool
	}{
		{"created", KindCreated, true},
		{"CREATED", KindCreated, true},
		{" modified ", KindModified, true},
		{"deleted", KindDeleted, true},
		{"removed", KindDeleted, true},
		{"renamed", KindModified, false},
		{"", KindModified, false},
	}

	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		assert.Equal(t, tt.want, got, "ParseKind(%q)", tt.in)
		assert.Equal(t, tt.wantOK, ok, "ParseKind(%q) ok", tt.in)
	}
}

func TestNewRejectsMalformedRules(t *testing.T) {
	t.Run("bad regexp", func(t *testing.T) {
		rules := DefaultRules()
		rules.PathPatterns = map[Category][]string{CategoryDocs: {"docs/("}}
		_, err := New(rules)
		assert.Error(t, err)
	})

	t.Run("unknown importance", func(t *testing.T) {
		rules := DefaultRules()
		rules.Taxonomy = []TypeRule{{Type: "perf", Importance: "urgent", Patterns: []string{"cache"}}}
		_, err := New(rules)
		assert.Error(t, err)
	})

	t.Run("type outside header grammar", func(t *testing.T) {
		rules := DefaultRules()
		rules.Taxonomy = []TypeRule{{Type: "big fix", Importance: ImportanceCritical, Patterns: []string{"fix"}}}
		_, err := New(rules)
		assert.Error(t, err)
	})

	t.Run("unknown category", func(t *testing.T) {
		rules := DefaultRules()
		rules.Extensions = map[Category][]string{"assets": {".png"}}
		_, err := New(rules)
		assert.Error(t, err)
	})
}

func TestInjectedRules(t *testing.T) {
	rules := DefaultRules()
	rules.Extensions[CategoryDocs] = append(rules.Extensions[CategoryDocs], ".tex")
	rules.Taxonomy = append([]TypeRule{
		{Type: "perf", Importance: ImportanceCritical, Patterns: []string{"cache"}},
	}, rules.Taxonomy...)

	e, err := New(rules)
	require.NoError(t, err)

	assert.Equal(t, CategoryDocs, e.Classify("paper/main.tex"))
	assert.Equal(t, "perf", e.ResolveType(e.ClassifyBatch([]Change{{Path: "lib/cache.go", Kind: KindModified}})).Type)

	// The default engine is unaffected
	assert.Equal(t, CategoryOther, Default().Classify("paper/main.tex"))
}
