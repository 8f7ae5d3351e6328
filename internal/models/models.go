package models

import (
	"github.com/nahidhasan98/autocommit/internal/analyzer"
	"github.com/nahidhasan98/autocommit/internal/app"
	"github.com/nahidhasan98/autocommit/internal/history"
)

// ChangeInput is one (path, kind) pair as sent by clients.
// Kind accepts aliases such as "added" or "removed".
type ChangeInput struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// DraftRequest represents the request payload for drafting a message
type DraftRequest struct {
	Changes []ChangeInput `json:"changes"`
}

// DraftResponse is the analysis of a batch and its rendered message.
// Warnings lists inputs that were accepted in degraded form.
type DraftResponse struct {
	Message  string                 `json:"message"`
	Draft    analyzer.CommitDraft   `json:"draft"`
	Impact   analyzer.ImpactProfile `json:"impact"`
	Files    []analyzer.FileChange  `json:"files"`
	Warnings []string               `json:"warnings,omitempty"`
}

// PendingResponse lists changes waiting for the next commit
type PendingResponse struct {
	Changes  []analyzer.Change `json:"changes"`
	Count    int               `json:"count"`
	InFlight bool              `json:"in_flight"`
}

// FlushResponse represents the outcome of a manual flush
type FlushResponse struct {
	Status string          `json:"status"`
	Result app.FlushResult `json:"result"`
}

// HistoryResponse is a page of commit history
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Pending   int    `json:"pending"`
	InFlight  bool   `json:"in_flight"`
	Notifier  bool   `json:"notifier_connected"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// StatusResponse represents a generic status response
type StatusResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
