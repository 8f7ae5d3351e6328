package analyzer

import (
	"fmt"
	"strings"
	"unicode"
)

// Fixed message fragments
const (
	EmptyBatchSubject = "routine changes"
	BreakingFooter    = "BREAKING CHANGE: This commit includes breaking changes that require attention"

	ImpactDependencies = "Dependencies modified - update required"
	ImpactSecurity     = "Security-related changes - review required"
	ImpactDatabase     = "Database changes - migration may be needed"
	ImpactAPI          = "API changes - update documentation"
	ImpactPerformance  = "Performance impact - testing recommended"

	NoteRunTests           = "Run test suite"
	NoteUpdateDependencies = "Update dependencies"
	NoteVerifyCI           = "Verify CI pipeline"
)

// CommitDraft holds every field of a composed message before rendering
type CommitDraft struct {
	Type        string     `json:"type"`
	Scope       string     `json:"scope,omitempty"`
	Subject     string     `json:"subject"`
	Importance  Importance `json:"importance"`
	ChangeLines []string   `json:"change_lines,omitempty"`
	ImpactLines []string   `json:"impact_lines,omitempty"`
	NoteLines   []string   `json:"note_lines,omitempty"`
	Breaking    bool       `json:"breaking"`
}

// Draft runs the whole pipeline over changes and returns the unrendered draft
func (e *Engine) Draft(changes []Change) CommitDraft {
	batch := e.ClassifyBatch(changes)
	profile := e.Analyze(batch)
	return e.DraftClassified(batch, profile)
}

// DraftClassified builds a draft from an already classified batch and its profile
func (e *Engine) DraftClassified(batch []FileChange, profile ImpactProfile) CommitDraft {
	if len(batch) == 0 {
		return CommitDraft{Type: TypeChore, Subject: EmptyBatchSubject, Importance: ImportanceMinor}
	}

	res := e.ResolveType(batch)
	d := CommitDraft{
		Type:       res.Type,
		Scope:      ResolveScope(profile),
		Importance: res.Importance,
		Breaking:   profile.Breaking,
	}

	if len(batch) == 1 {
		d.Subject = batch[0].Kind.verb() + " " + displayBase(batch[0].Path)
	} else {
		label := d.Scope
		if label == "" || label == ScopeMulti {
			label = string(dominantCategory(batch))
		}
		d.Subject = fmt.Sprintf("update %d %s files", len(batch), label)
		for _, fc := range batch {
			d.ChangeLines = append(d.ChangeLines, "- "+capitalize(fc.Kind.verb())+" "+singleLine(fc.Path))
		}
	}

	d.ImpactLines = impactLines(profile)
	d.NoteLines = noteLines(batch, profile)
	return d
}

// Compose is Draft followed by rendering
func (e *Engine) Compose(changes []Change) string {
	return e.Draft(changes).String()
}

// Header renders the first line of the message
func (d CommitDraft) Header() string {
	if d.Scope == "" {
		return d.Type + ": " + d.Subject
	}
	return d.Type + "(" + d.Scope + "): " + d.Subject
}

// String renders the draft. Blocks are separated by one blank line and
// empty blocks leave no trace.
func (d CommitDraft) String() string {
	blocks := []string{d.Header()}

	if len(d.ChangeLines) > 0 {
		blocks = append(blocks, strings.Join(d.ChangeLines, "\n"))
	}
	if len(d.ImpactLines) > 0 {
		blocks = append(blocks, prefixed("Impact: ", d.ImpactLines))
	}
	if len(d.NoteLines) > 0 {
		blocks = append(blocks, prefixed("Note: ", d.NoteLines))
	}
	if d.Breaking {
		blocks = append(blocks, BreakingFooter)
	}

	return strings.Join(blocks, "\n\n")
}

func impactLines(p ImpactProfile) []string {
	var lines []string
	if p.DependenciesChanged {
		lines = append(lines, ImpactDependencies)
	}
	if p.SecurityImpact {
		lines = append(lines, ImpactSecurity)
	}
	if p.DatabaseChanged {
		lines = append(lines, ImpactDatabase)
	}
	if p.APIChanged {
		lines = append(lines, ImpactAPI)
	}
	if p.PerformanceImpact {
		lines = append(lines, ImpactPerformance)
	}
	return lines
}

func noteLines(batch []FileChange, p ImpactProfile) []string {
	var hasTests, hasCI bool
	for _, fc := range batch {
		switch fc.Category {
		case CategoryTest:
			hasTests = true
		case CategoryCI:
			hasCI = true
		}
	}

	var lines []string
	if hasTests {
		lines = append(lines, NoteRunTests)
	}
	if p.DependenciesChanged {
		lines = append(lines, NoteUpdateDependencies)
	}
	if hasCI {
		lines = append(lines, NoteVerifyCI)
	}
	return lines
}

func prefixed(prefix string, lines []string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = prefix + l
	}
	return strings.Join(out, "\n")
}

// displayBase returns the final segment of path with its original casing
func displayBase(path string) string {
	p := strings.TrimRight(strings.ReplaceAll(strings.TrimSpace(path), `\`, "/"), "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p = singleLine(p); strings.TrimSpace(p) == "" {
		return "file"
	}
	return p
}

// singleLine replaces control characters so a path cannot break the block grammar
func singleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
