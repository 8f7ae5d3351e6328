package batch

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
)

func TestCoalescing(t *testing.T) {
	tests := []struct {
		name   string
		events []analyzer.Kind
		want   []analyzer.Change
	}{
		{"created then modified", []analyzer.Kind{analyzer.KindCreated, analyzer.KindModified}, []analyzer.Change{{Path: "a.go", Kind: analyzer.KindCreated}}},
		{"created then deleted", []analyzer.Kind{analyzer.KindCreated, analyzer.KindDeleted}, []analyzer.Change{}},
		{"modified then deleted", []analyzer.Kind{analyzer.KindModified, analyzer.KindDeleted}, []analyzer.Change{{Path: "a.go", Kind: analyzer.KindDeleted}}},
		{"deleted then created", []analyzer.Kind{analyzer.KindDeleted, analyzer.KindCreated}, []analyzer.Change{{Path: "a.go", Kind: analyzer.KindModified}}},
		{"modified twice", []analyzer.Kind{analyzer.KindModified, analyzer.KindModified}, []analyzer.Change{{Path: "a.go", Kind: analyzer.KindModified}}},
		{"unknown kind", []analyzer.Kind{"renamed"}, []analyzer.Change{{Path: "a.go", Kind: analyzer.KindModified}}},
		{"create edit delete recreate", []analyzer.Kind{analyzer.KindCreated, analyzer.KindModified, analyzer.KindDeleted, analyzer.KindCreated}, []analyzer.Change{{Path: "a.go", Kind: analyzer.KindCreated}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			for _, k := range tt.events {
				tr.Add("a.go", k)
			}
			assert.Equal(t, tt.want, tr.Pending())
			assert.Equal(t, len(tt.want), tr.Len())
		})
	}
}

func TestFirstSeenOrder(t *testing.T) {
	tr := NewTracker()
	tr.Add("b.go", analyzer.KindModified)
	tr.Add("a.go", analyzer.KindCreated)
	tr.Add("b.go", analyzer.KindDeleted)
	tr.Add("", analyzer.KindCreated)

	assert.Equal(t, []analyzer.Change{
		{Path: "b.go", Kind: analyzer.KindDeleted},
		{Path: "a.go", Kind: analyzer.KindCreated},
	}, tr.Pending())
}

func TestTakeStartsFlight(t *testing.T) {
	tr := NewTracker()

	snap, err := tr.Take()
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.False(t, tr.InFlight(), "empty take does not start a flight")

	tr.Add("a.go", analyzer.KindModified)
	snap, err = tr.Take()
	require.NoError(t, err)
	assert.Equal(t, []analyzer.Change{{Path: "a.go", Kind: analyzer.KindModified}}, snap)
	assert.Zero(t, tr.Len())
	assert.True(t, tr.InFlight())

	tr.Add("b.go", analyzer.KindCreated)
	_, err = tr.Take()
	assert.ErrorIs(t, err, ErrInFlight)

	tr.Commit()
	snap, err = tr.Take()
	require.NoError(t, err)
	assert.Equal(t, []analyzer.Change{{Path: "b.go", Kind: analyzer.KindCreated}}, snap)
}

func TestRestorePutsSnapshotFirst(t *testing.T) {
	tr := NewTracker()
	tr.Add("a.go", analyzer.KindCreated)
	tr.Add("b.go", analyzer.KindModified)

	snap, err := tr.Take()
	require.NoError(t, err)

	// arrived while the commit was running
	tr.Add("c.go", analyzer.KindCreated)
	tr.Add("a.go", analyzer.KindModified)
	tr.Add("b.go", analyzer.KindDeleted)

	tr.Restore(snap)
	assert.False(t, tr.InFlight())
	assert.Equal(t, []analyzer.Change{
		{Path: "a.go", Kind: analyzer.KindCreated},
		{Path: "b.go", Kind: analyzer.KindDeleted},
		{Path: "c.go", Kind: analyzer.KindCreated},
	}, tr.Pending())
}

func TestPendingIsACopy(t *testing.T) {
	tr := NewTracker()
	tr.Add("a.go", analyzer.KindCreated)

	p := tr.Pending()
	p[0].Kind = analyzer.KindDeleted
	assert.Equal(t, analyzer.KindCreated, tr.Pending()[0].Kind)
}

func TestConcurrentAdds(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				tr.Add(fmt.Sprintf("w%d/f%d.go", w, i), analyzer.KindModified)
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 400, tr.Len())
}
