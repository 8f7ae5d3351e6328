package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify(context.Background(), "hello"))
	assert.False(t, n.Available())
}

func TestCommitSummaryFormat(t *testing.T) {
	s := CommitSummary{
		Repo:    "autocommit",
		Message: "feat(web): update 3 web files",
		Hash:    "0123456789abcdef",
		Source:  "llm",
		Files:   3,
		Pushed:  true,
		Time:    time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
	}
	text := s.Format()

	assert.Contains(t, text, "Auto commit committed")
	assert.Contains(t, text, "Repository: autocommit")
	assert.Contains(t, text, "Commit: 01234567\n")
	assert.Contains(t, text, "Files: 3")
	assert.Contains(t, text, "Pushed to remote")
	assert.Contains(t, text, "Message by: llm")
	assert.Contains(t, text, "2026-10-19 09:30:00")
	assert.True(t, len(text) > len(s.Message))
	assert.Equal(t, s.Message, text[len(text)-len(s.Message):])
}

func TestCommitSummarySimulated(t *testing.T) {
	text := CommitSummary{Message: "chore: routine changes"}.Format()
	assert.Contains(t, text, "Auto commit simulated")
	assert.NotContains(t, text, "Commit:")
	assert.NotContains(t, text, "Pushed")
}

func TestBackoffNext(t *testing.T) {
	b := DefaultBackoff
	assert.Equal(t, 7500*time.Millisecond, b.Next(5*time.Second))
	assert.Equal(t, 5*time.Minute, b.Next(4*time.Minute))
}

func TestParseRecipient(t *testing.T) {
	jid, err := ParseRecipient(" 8801712345678@s.whatsapp.net ")
	require.NoError(t, err)
	assert.Equal(t, "8801712345678", jid.User)

	_, err = ParseRecipient("120363025246125486@g.us")
	assert.NoError(t, err)

	for _, bad := range []string{"", "8801712345678", "someone@example.com"} {
		_, err := ParseRecipient(bad)
		assert.Error(t, err, "recipient %q", bad)
	}
}

func TestReconnectSlotIsNotReleasedByStaleLoop(t *testing.T) {
	w := &WhatsApp{}

	ctx1, finish1, ok := w.beginReconnect()
	require.True(t, ok)
	_, _, ok = w.beginReconnect()
	assert.False(t, ok, "second loop while one is running")

	// connection restored, then dropped again before the first loop exits
	w.markConnected()
	assert.Error(t, ctx1.Err())
	w.mu.Lock()
	w.connected = false
	w.mu.Unlock()

	ctx2, finish2, ok := w.beginReconnect()
	require.True(t, ok)

	finish1()
	w.mu.RLock()
	assert.NotNil(t, w.cancelReconnect)
	w.mu.RUnlock()
	assert.NoError(t, ctx2.Err())

	// Stop must still be able to cancel the live loop
	w.mu.Lock()
	w.cancelReconnect()
	w.mu.Unlock()
	assert.Error(t, ctx2.Err())

	finish2()
	w.mu.RLock()
	assert.Nil(t, w.cancelReconnect)
	w.mu.RUnlock()
}
