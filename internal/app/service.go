// Package app ties the tracker, message generation, git, history and
// notifications together into the commit cycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
	"github.com/nahidhasan98/autocommit/internal/batch"
	apperrors "github.com/nahidhasan98/autocommit/internal/errors"
	"github.com/nahidhasan98/autocommit/internal/generator"
	"github.com/nahidhasan98/autocommit/internal/history"
	"github.com/nahidhasan98/autocommit/internal/logger"
	"github.com/nahidhasan98/autocommit/internal/notify"
)

// Repo is the git surface the service drives
type Repo interface {
	Status(ctx context.Context) ([]analyzer.Change, error)
	Stage(ctx context.Context, paths []string) error
	StagedDiff(ctx context.Context, maxBytes int) (string, error)
	Commit(ctx context.Context, message string) (string, error)
	Push(ctx context.Context) error
}

// Recorder stores commit attempts
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Options tune the commit cycle
type Options struct {
	RepoName    string
	Simulation  bool
	AutoPush    bool
	MaxDiffSize int
}

// Service runs one commit cycle per Flush
type Service struct {
	engine    *analyzer.Engine
	tracker   *batch.Tracker
	repo      Repo
	generator generator.Generator
	history   Recorder
	notifier  notify.Notifier
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

// NewService wires a service. repo may be nil in simulation mode and
// notifier may be nil when notifications are off.
func NewService(engine *analyzer.Engine, tracker *batch.Tracker, repo Repo, gen generator.Generator,
	rec Recorder, notifier notify.Notifier, opts Options, log *logger.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		engine:    engine,
		tracker:   tracker,
		repo:      repo,
		generator: gen,
		history:   rec,
		notifier:  notifier,
		opts:      opts,
		log:       log.Component("service"),
		now:       time.Now,
	}
}

// FlushResult describes what a flush did
type FlushResult struct {
	Status  history.Status   `json:"status,omitempty"`
	Message string           `json:"message,omitempty"`
	Source  generator.Source `json:"source,omitempty"`
	Hash    string           `json:"hash,omitempty"`
	Files   []string         `json:"files"`
	Pushed  bool             `json:"pushed"`
	Warning string           `json:"warning,omitempty"`
}

// Empty reports whether there was nothing to commit
func (r FlushResult) Empty() bool {
	return len(r.Files) == 0
}

// Engine returns the analyzer engine
func (s *Service) Engine() *analyzer.Engine {
	return s.engine
}

// Tracker returns the change tracker
func (s *Service) Tracker() *batch.Tracker {
	return s.tracker
}

// Flush commits everything the tracker holds. A failed cycle puts the
// changes back so the next flush retries them.
func (s *Service) Flush(ctx context.Context) (FlushResult, error) {
	snapshot, err := s.tracker.Take()
	if errors.Is(err, batch.ErrInFlight) {
		return FlushResult{}, apperrors.FlushInProgress()
	}
	if len(snapshot) == 0 {
		return FlushResult{Files: []string{}}, nil
	}

	res, err := s.commit(ctx, snapshot)
	if err != nil {
		s.tracker.Restore(snapshot)
		s.recordFailure(ctx, snapshot, res, err)
		return res, err
	}
	s.tracker.Commit()
	return res, nil
}

func (s *Service) commit(ctx context.Context, snapshot []analyzer.Change) (FlushResult, error) {
	changes := snapshot
	var diff string

	if !s.opts.Simulation {
		status, err := s.repo.Status(ctx)
		if err != nil {
			return FlushResult{}, apperrors.GitFailed(err)
		}
		changes = Intersect(status, snapshot)
		if len(changes) == 0 {
			s.log.Debug("Observed changes left nothing to commit")
			return FlushResult{Files: []string{}}, nil
		}

		if err := s.repo.Stage(ctx, paths(changes)); err != nil {
			return FlushResult{Files: paths(changes)}, apperrors.GitFailed(err)
		}
		if diff, err = s.repo.StagedDiff(ctx, s.opts.MaxDiffSize); err != nil {
			s.log.WarnErr("Failed to read staged diff", err)
		}
	}

	req := generator.Request{Changes: changes, Draft: s.engine.Draft(changes), Diff: diff}
	res := FlushResult{Files: paths(changes)}

	gen, err := s.generator.Generate(ctx, req)
	if err != nil {
		return res, apperrors.Wrap(err, apperrors.ErrCodeGenerationFailed, "Failed to generate commit message")
	}
	res.Message, res.Source = gen.Message, gen.Source

	if s.opts.Simulation {
		res.Status = history.StatusSimulated
		s.log.Infof("Simulated commit of %d files: %s", len(changes), firstLine(res.Message))
	} else {
		hash, err := s.repo.Commit(ctx, res.Message)
		if err != nil {
			return res, apperrors.GitFailed(err)
		}
		res.Hash, res.Status = hash, history.StatusCommitted
		s.log.Infof("Committed %d files as %s: %s", len(changes), shortHash(hash), firstLine(res.Message))

		if s.opts.AutoPush {
			if err := s.repo.Push(ctx); err != nil {
				// the commit stands; the next successful push carries it
				s.log.WarnErr("Push failed", err)
				res.Warning = fmt.Sprintf("push failed: %v", err)
			} else {
				res.Pushed = true
			}
		}
	}

	s.record(ctx, req.Draft, res)
	s.notify(ctx, res)
	return res, nil
}

func (s *Service) record(ctx context.Context, draft analyzer.CommitDraft, res FlushResult) {
	if s.history == nil {
		return
	}
	_, err := s.history.Record(ctx, history.Entry{
		Time:    s.now(),
		Type:    draft.Type,
		Scope:   draft.Scope,
		Message: res.Message,
		Files:   res.Files,
		Source:  string(res.Source),
		Status:  res.Status,
		Hash:    res.Hash,
		Error:   res.Warning,
	})
	if err != nil {
		s.log.Error("Failed to record commit history", err)
	}
}

func (s *Service) recordFailure(ctx context.Context, snapshot []analyzer.Change, res FlushResult, cause error) {
	s.log.Error("Commit cycle failed, changes kept for the next flush", cause)

	files := res.Files
	if len(files) == 0 {
		files = paths(snapshot)
	}
	draft := s.engine.Draft(snapshot)
	message := res.Message
	if message == "" {
		message = draft.String()
	}
	res.Files, res.Message, res.Status, res.Warning = files, message, history.StatusFailed, cause.Error()
	if res.Source == "" {
		res.Source = generator.SourceLocal
	}
	s.record(ctx, draft, res)
}

func (s *Service) notify(ctx context.Context, res FlushResult) {
	if !s.notifier.Available() {
		return
	}
	summary := notify.CommitSummary{
		Repo:    s.opts.RepoName,
		Message: res.Message,
		Hash:    res.Hash,
		Source:  string(res.Source),
		Files:   len(res.Files),
		Pushed:  res.Pushed,
		Time:    s.now(),
	}
	if err := s.notifier.Notify(ctx, summary.Format()); err != nil {
		s.log.WarnErr("Failed to send commit notification", err)
	}
}

// Intersect keeps the status entries that were observed, either directly
// or through an observed parent directory.
func Intersect(status, observed []analyzer.Change) []analyzer.Change {
	seen := make(map[string]bool, len(observed))
	for _, c := range observed {
		seen[strings.TrimSuffix(c.Path, "/")] = true
	}

	out := make([]analyzer.Change, 0, len(status))
	for _, c := range status {
		for p := c.Path; p != "." && p != "/" && p != ""; p = path.Dir(p) {
			if seen[p] {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func paths(changes []analyzer.Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Path
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
