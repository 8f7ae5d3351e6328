package analyzer

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var headerPattern = regexp.MustCompile(`^(\w+)(\([^)]+\))?: .+`)

func TestComposeEmptyBatch(t *testing.T) {
	e := Default()
	assert.Equal(t, "chore: routine changes", e.Compose(nil))
	assert.Equal(t, "chore: routine changes", e.Compose([]Change{}))
}

func TestComposeDocsOverride(t *testing.T) {
	e := Default()
	changes := []Change{{Path: "docs/README.md", Kind: KindModified}}

	d := e.Draft(changes)
	assert.Equal(t, "docs", d.Type)
	assert.Equal(t, "docs", d.Scope)
	assert.Equal(t, "docs(docs): update README.md", e.Compose(changes))
}

func TestComposeDeletedAPIFile(t *testing.T) {
	msg := Default().Compose([]Change{{Path: "src/api/users.py", Kind: KindDeleted}})

	want := strings.Join([]string{
		"chore(src): remove users.py",
		"",
		"Impact: API changes - update documentation",
		"",
		"BREAKING CHANGE: This commit includes breaking changes that require attention",
	}, "\n")
	assert.Equal(t, want, msg)

	lines := strings.Split(msg, "\n")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "BREAKING CHANGE:"))
}

func TestComposeDependencies(t *testing.T) {
	msg := Default().Compose([]Change{{Path: "requirements.txt", Kind: KindModified}})

	assert.Contains(t, msg, "Impact: Dependencies modified - update required")
	assert.Contains(t, msg, "Note: Update dependencies")
	assert.True(t, strings.HasPrefix(msg, "style(dependencies): update requirements.txt\n\n"))
	assert.NotContains(t, msg, "BREAKING CHANGE")
}

func TestComposeMultipleFiles(t *testing.T) {
	msg := Default().Compose([]Change{
		{Path: "web/app.js", Kind: KindCreated},
		{Path: "web/style.css", Kind: KindModified},
		{Path: "web/old.html", Kind: KindDeleted},
	})

	want := strings.Join([]string{
		"feat(web): update 3 web files",
		"",
		"- Add web/app.js",
		"- Update web/style.css",
		"- Remove web/old.html",
		"",
		BreakingFooter,
	}, "\n")
	assert.Equal(t, want, msg)
}

func TestComposeMultiScopeUsesDominantCategory(t *testing.T) {
	d := Default().Draft([]Change{
		{Path: "main.go", Kind: KindModified},
		{Path: "README.md", Kind: KindModified},
		{Path: "cmd.go", Kind: KindModified},
	})

	assert.Equal(t, ScopeMulti, d.Scope)
	assert.Equal(t, "update 3 backend files", d.Subject)
}

func TestComposeNotes(t *testing.T) {
	e := Default()

	d := e.Draft([]Change{
		{Path: "pkg/a_test.go", Kind: KindModified},
		{Path: "pkg/a.go", Kind: KindModified},
		{Path: ".gitlab-ci.yml", Kind: KindModified},
	})
	assert.Equal(t, []string{NoteRunTests, NoteVerifyCI}, d.NoteLines)
	assert.Contains(t, d.String(), "Note: Run test suite\nNote: Verify CI pipeline")
}

func TestComposeUnknownKindDegradesToUpdate(t *testing.T) {
	msg := Default().Compose([]Change{{Path: "lib/b.go", Kind: "renamed"}})
	assert.Equal(t, "chore(lib): update b.go", msg)
}

func TestComposeBlockLayout(t *testing.T) {
	e := Default()
	for _, changes := range sampleBatches() {
		msg := e.Compose(changes)
		assert.NotContains(t, msg, "\n\n\n", "stray separator in %q", msg)
		assert.False(t, strings.HasSuffix(msg, "\n"), "trailing newline in %q", msg)
		assert.False(t, strings.HasPrefix(msg, "\n"), "leading newline in %q", msg)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	e := Default()
	for _, changes := range sampleBatches() {
		d := e.Draft(changes)
		header := strings.SplitN(e.Compose(changes), "\n", 2)[0]

		m := headerPattern.FindStringSubmatch(header)
		require.NotNil(t, m, "header %q does not match", header)
		assert.Equal(t, d.Type, m[1])
		assert.Equal(t, d.Scope, strings.Trim(m[2], "()"))
	}
}

func TestComposeDoesNotMutateInput(t *testing.T) {
	e := Default()
	for _, changes := range sampleBatches() {
		before := append([]Change(nil), changes...)
		e.Compose(changes)
		assert.Equal(t, before, changes)
	}
}

func TestComposeIsDeterministicAcrossGoroutines(t *testing.T) {
	e := Default()
	batches := sampleBatches()
	want := make([]string, len(batches))
	for i, b := range batches {
		want[i] = e.Compose(b)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, b := range batches {
				assert.Equal(t, want[i], e.Compose(b))
			}
		}()
	}
	wg.Wait()
}

func TestSanitizedScopeAndSubject(t *testing.T) {
	d := Default().Draft([]Change{{Path: "my dir (old)/new\nfile.go", Kind: KindCreated}})

	assert.Equal(t, "my-dir-old", d.Scope)
	assert.NotContains(t, d.Header(), "\n")
	assert.Regexp(t, headerPattern, d.Header())
}

func sampleBatches() [][]Change {
	batches := [][]Change{
		nil,
		{{Path: "", Kind: KindModified}},
		{{Path: "docs/README.md", Kind: KindModified}},
		{{Path: "src/api/users.py", Kind: KindDeleted}},
		{{Path: "requirements.txt", Kind: KindModified}},
		{{Path: "a.go", Kind: KindCreated}, {Path: "b.md", Kind: KindDeleted}},
		{{Path: ".github/workflows/ci.yml", Kind: KindModified}, {Path: "tests/test_x.py", Kind: KindCreated}},
		{{Path: "weird (name)/x", Kind: "moved"}},
	}
	var many []Change
	for i := 0; i < 25; i++ {
		many = append(many, Change{Path: fmt.Sprintf("pkg%d/file%d.go", i%4, i), Kind: KindModified})
	}
	return append(batches, many)
}
