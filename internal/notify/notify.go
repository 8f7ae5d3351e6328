// Package notify delivers commit summaries to people.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Notifier sends plain text notifications
type Notifier interface {
	// Notify sends text to the configured recipient
	Notify(ctx context.Context, text string) error
	// Available reports whether Notify can currently succeed
	Available() bool
}

// Nop is the notifier used when notifications are disabled
type Nop struct{}

// Notify implements Notifier
func (Nop) Notify(context.Context, string) error { return nil }

// Available implements Notifier
func (Nop) Available() bool { return false }

// CommitSummary is what gets announced after a flush
type CommitSummary struct {
	Repo    string
	Message string
	Hash    string
	Source  string
	Files   int
	Pushed  bool
	Time    time.Time
}

// Format renders s as a chat message
func (s CommitSummary) Format() string {
	var b strings.Builder

	status := "committed"
	if s.Hash == "" {
		status = "simulated"
	}
	fmt.Fprintf(&b, "🤖 *Auto commit %s*\n", status)
	if s.Repo != "" {
		fmt.Fprintf(&b, "📁 Repository: %s\n", s.Repo)
	}
	if s.Hash != "" {
		fmt.Fprintf(&b, "🔖 Commit: %s\n", shortHash(s.Hash))
	}
	fmt.Fprintf(&b, "📝 Files: %d\n", s.Files)
	if s.Pushed {
		b.WriteString("🚀 Pushed to remote\n")
	}
	if s.Source != "" {
		fmt.Fprintf(&b, "🧠 Message by: %s\n", s.Source)
	}
	if !s.Time.IsZero() {
		fmt.Fprintf(&b, "⏰ %s\n", s.Time.Format("2006-01-02 15:04:05"))
	}
	b.WriteString("\n")
	b.WriteString(s.Message)
	return b.String()
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
