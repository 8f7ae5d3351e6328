// Package batch accumulates observed file changes between commits.
package batch

import (
	"errors"
	"sync"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
)

// ErrInFlight is returned by Take while an earlier snapshot is still being committed
var ErrInFlight = errors.New("batch: a snapshot is already in flight")

// Tracker collects changes in first-seen order and folds repeated events
// for the same path into one. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	order    []string
	kinds    map[string]analyzer.Kind
	inFlight bool
}

// NewTracker returns an empty tracker
func NewTracker() *Tracker {
	return &Tracker{kinds: make(map[string]analyzer.Kind)}
}

// Add records one event for path
func (t *Tracker) Add(path string, kind analyzer.Kind) {
	if path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.merge(path, kind)
}

// Take hands out the pending changes and starts a flight.
// An empty tracker returns nil without starting one.
func (t *Tracker) Take() ([]analyzer.Change, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inFlight {
		return nil, ErrInFlight
	}
	if len(t.order) == 0 {
		return nil, nil
	}

	snapshot := t.snapshot()
	t.order = nil
	t.kinds = make(map[string]analyzer.Kind)
	t.inFlight = true
	return snapshot, nil
}

// Commit ends the current flight
func (t *Tracker) Commit() {
	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()
}

// Restore ends the current flight and puts an abandoned snapshot back in
// front of whatever arrived since it was taken.
func (t *Tracker) Restore(changes []analyzer.Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	newer := t.snapshot()
	t.order = nil
	t.kinds = make(map[string]analyzer.Kind)
	for _, c := range changes {
		t.merge(c.Path, c.Kind)
	}
	for _, c := range newer {
		t.merge(c.Path, c.Kind)
	}
	t.inFlight = false
}

// Pending returns a copy of the pending changes
func (t *Tracker) Pending() []analyzer.Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// Len returns the number of pending paths
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// InFlight reports whether a snapshot is being committed
func (t *Tracker) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

func (t *Tracker) snapshot() []analyzer.Change {
	out := make([]analyzer.Change, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, analyzer.Change{Path: p, Kind: t.kinds[p]})
	}
	return out
}

// merge must be called with mu held
func (t *Tracker) merge(path string, kind analyzer.Kind) {
	kind = known(kind)

	prev, seen := t.kinds[path]
	if !seen {
		t.order = append(t.order, path)
		t.kinds[path] = kind
		return
	}

	next, keep := coalesce(prev, kind)
	if keep {
		t.kinds[path] = next
		return
	}

	delete(t.kinds, path)
	for i, p := range t.order {
		if p == path {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// coalesce folds two events for one path; keep is false when they cancel out
func coalesce(prev, next analyzer.Kind) (analyzer.Kind, bool) {
	switch {
	case prev == analyzer.KindCreated && next == analyzer.KindModified:
		return analyzer.KindCreated, true
	case prev == analyzer.KindCreated && next == analyzer.KindDeleted:
		return "", false
	case prev == analyzer.KindDeleted && next == analyzer.KindCreated:
		return analyzer.KindModified, true
	default:
		return next, true
	}
}

func known(k analyzer.Kind) analyzer.Kind {
	switch k {
	case analyzer.KindCreated, analyzer.KindModified, analyzer.KindDeleted:
		return k
	default:
		return analyzer.KindModified
	}
}
