package handlers

import (
	"context"

	"github.com/nahidhasan98/autocommit/internal/app"
	"github.com/nahidhasan98/autocommit/internal/history"
	"github.com/nahidhasan98/autocommit/internal/logger"
	"github.com/nahidhasan98/autocommit/internal/notify"
	"github.com/nahidhasan98/autocommit/internal/validation"
)

// HistoryReader pages through recorded commits
type HistoryReader interface {
	Recent(ctx context.Context, limit, offset int) ([]history.Entry, error)
}

// Handler holds the HTTP handlers and their dependencies
type Handler struct {
	svc          *app.Service
	history      HistoryReader
	notifier     notify.Notifier
	validator    *validation.Validator
	log          *logger.Logger
	githubSecret string
	giteaSecret  string
}

// New creates a new handler instance. history may be nil, in which case
// the history endpoint reports an empty list.
func New(svc *app.Service, hist HistoryReader, notifier notify.Notifier, log *logger.Logger, githubSecret, giteaSecret string) *Handler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Handler{
		svc:          svc,
		history:      hist,
		notifier:     notifier,
		validator:    validation.New(),
		log:          log.Component("http"),
		githubSecret: githubSecret,
		giteaSecret:  giteaSecret,
	}
}
