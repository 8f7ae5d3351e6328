// Package generator produces commit messages for a batch of changes,
// either with the local analyzer engine or with a chat completion model.
package generator

import (
	"context"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
	"github.com/nahidhasan98/autocommit/internal/logger"
)

// Source names what produced a message
type Source string

const (
	SourceLocal Source = "local"
	SourceLLM   Source = "llm"
)

// Request is the input of one generation
type Request struct {
	Changes []analyzer.Change
	// Draft is the engine's draft for Changes, used as the local message and as a hint
	Draft analyzer.CommitDraft
	// Diff is the staged diff, possibly truncated; may be empty
	Diff string
}

// NewRequest drafts changes with engine and bundles them with diff
func NewRequest(engine *analyzer.Engine, changes []analyzer.Change, diff string) Request {
	return Request{Changes: changes, Draft: engine.Draft(changes), Diff: diff}
}

// Result is a generated message
type Result struct {
	Message string `json:"message"`
	Source  Source `json:"source"`
}

// Generator turns a request into a commit message
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Local renders the engine draft. It never fails.
type Local struct{}

// Generate implements Generator
func (Local) Generate(_ context.Context, req Request) (Result, error) {
	return Result{Message: req.Draft.String(), Source: SourceLocal}, nil
}

// Fallback asks Primary first and falls back to the local draft on any error
type Fallback struct {
	Primary Generator
	log     *logger.Logger
}

// NewFallback wraps primary; a nil primary always yields the local draft
func NewFallback(primary Generator, log *logger.Logger) *Fallback {
	if log == nil {
		log = logger.Nop()
	}
	return &Fallback{Primary: primary, log: log.Component("generator")}
}

// Generate implements Generator
func (f *Fallback) Generate(ctx context.Context, req Request) (Result, error) {
	if f.Primary != nil {
		res, err := f.Primary.Generate(ctx, req)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		f.log.WarnErr("Model generation failed, using local draft", err)
	}
	return Local{}.Generate(ctx, req)
}
