package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
	"github.com/nahidhasan98/autocommit/internal/batch"
	"github.com/nahidhasan98/autocommit/internal/config"
)

func TestMatcher(t *testing.T) {
	m := NewMatcher(append(append([]string{}, config.DefaultIgnorePatterns...), "*.log", " "))

	tests := map[string]bool{
		".git/config":            true,
		"src/__pycache__/x.py":   true,
		"pkg/mod.pyc":            true,
		"notes.swp":              true,
		"venv/lib/site.py":       true,
		".vscode/settings.json":  true,
		"config/prod.env":        true,
		"logs/app.log":           true,
		"autocommit_history.db":  true,
		"data.db-journal":        true,
		"src/venvy.py":           false,
		".envrc":                 false,
		"src/main.go":            false,
		"docs/gitops.md":         false,
		"":                       false,
	}
	for path, want := range tests {
		assert.Equal(t, want, m.Match(path), "path %q", path)
	}
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := NewDebouncer(40 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}

	select {
	case <-d.C():
		t.Fatal("debouncer fired twice for one burst")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	d.Trigger()
	d.Stop()

	select {
	case <-d.C():
		t.Fatal("stopped debouncer fired")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestNewRejectsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := New(file, Options{Delay: time.Second}, nil)
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"), Options{Delay: time.Second}, nil)
	assert.Error(t, err)
}

func TestRelative(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Options{Delay: time.Second}, nil)
	require.NoError(t, err)
	defer w.fsw.Close()

	rel, ok := w.relative(filepath.Join(root, "src", "a.go"))
	assert.True(t, ok)
	assert.Equal(t, "src/a.go", rel)

	_, ok = w.relative(filepath.Dir(root))
	assert.False(t, ok)
}

func TestRunReportsChangesAndQuiet(t *testing.T) {
	root := t.TempDir()
	tracker := batch.NewTracker()
	quiet := make(chan struct{}, 4)

	w, err := New(root, Options{
		Delay:          50 * time.Millisecond,
		IgnorePatterns: config.DefaultIgnorePatterns,
		OnChange:       tracker.Add,
		OnQuiet:        func(context.Context) { quiet <- struct{}{} },
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scratch.swp"), []byte("x"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.go"), []byte("package b"), 0o600))

	require.Eventually(t, func() bool {
		pending := tracker.Pending()
		has := map[string]analyzer.Kind{}
		for _, c := range pending {
			has[c.Path] = c.Kind
		}
		return has["a.txt"] == analyzer.KindCreated && has["sub/b.go"] == analyzer.KindCreated
	}, 3*time.Second, 20*time.Millisecond)

	select {
	case <-quiet:
	case <-time.After(3 * time.Second):
		t.Fatal("quiet callback never ran")
	}

	for _, c := range tracker.Pending() {
		assert.NotEqual(t, "scratch.swp", c.Path)
		assert.NotEqual(t, "sub", c.Path)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunKeepsReadingDuringSlowQuiet(t *testing.T) {
	root := t.TempDir()
	tracker := batch.NewTracker()
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	var calls atomic.Int32

	w, err := New(root, Options{
		Delay:    30 * time.Millisecond,
		OnChange: tracker.Add,
		OnQuiet: func(context.Context) {
			calls.Add(1)
			entered <- struct{}{}
			<-release
		},
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "first.txt"), []byte("1"), 0o600))
	select {
	case <-entered:
	case <-time.After(3 * time.Second):
		t.Fatal("quiet callback never ran")
	}

	// the first callback is still blocked; events must keep flowing
	require.NoError(t, os.WriteFile(filepath.Join(root, "second.txt"), []byte("2"), 0o600))
	require.Eventually(t, func() bool {
		for _, c := range tracker.Pending() {
			if c.Path == "second.txt" {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)

	// the quiet period that ended meanwhile is queued, not run concurrently
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	select {
	case <-entered:
	case <-time.After(3 * time.Second):
		t.Fatal("queued quiet callback never ran")
	}
	assert.Equal(t, int32(2), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
