package models

import "github.com/nahidhasan98/autocommit/internal/analyzer"

// PushCommit is one pushed commit with its file list, provider independent
type PushCommit struct {
	ID      string
	Message string
	URL     string
	Changes []analyzer.Change
}

// PushEvent is implemented by every supported push webhook payload
type PushEvent interface {
	GetRepositoryName() string
	GetPusherName() string
	GetBranch() string
	GetCompareURL() string
	GetCommits() []PushCommit
}

// fileChanges flattens the added/modified/removed lists of a commit
func fileChanges(added, modified, removed []string) []analyzer.Change {
	out := make([]analyzer.Change, 0, len(added)+len(modified)+len(removed))
	for _, p := range added {
		out = append(out, analyzer.Change{Path: p, Kind: analyzer.KindCreated})
	}
	for _, p := range modified {
		out = append(out, analyzer.Change{Path: p, Kind: analyzer.KindModified})
	}
	for _, p := range removed {
		out = append(out, analyzer.Change{Path: p, Kind: analyzer.KindDeleted})
	}
	return out
}
