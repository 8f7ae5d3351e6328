package handlers

import (
	"net/http"

	"github.com/nahidhasan98/autocommit/internal/errors"
	"github.com/nahidhasan98/autocommit/internal/history"
	"github.com/nahidhasan98/autocommit/internal/models"
)

const defaultHistoryLimit = 20

// Draft classifies a posted batch and returns the composed message
// without touching the repository
func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.DraftRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	changes, warnings, appErr := h.validator.ValidateDraftRequest(&req)
	if appErr != nil {
		h.writeAppError(w, appErr)
		return
	}
	for _, warning := range warnings {
		h.log.Warnf("Draft request: %s", warning)
	}

	engine := h.svc.Engine()
	files := engine.ClassifyBatch(changes)
	profile := engine.Analyze(files)
	draft := engine.DraftClassified(files, profile)

	h.writeJSON(w, &models.DraftResponse{
		Message:  draft.String(),
		Draft:    draft,
		Impact:   profile,
		Files:    files,
		Warnings: warnings,
	}, http.StatusOK)
}

// Pending lists the changes waiting for the next commit
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}

	tracker := h.svc.Tracker()
	changes := tracker.Pending()
	h.writeJSON(w, &models.PendingResponse{
		Changes:  changes,
		Count:    len(changes),
		InFlight: tracker.InFlight(),
	}, http.StatusOK)
}

// Flush commits pending changes now instead of waiting for the quiet period
func (h *Handler) Flush(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodPost) {
		return
	}

	res, err := h.svc.Flush(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := "committed"
	switch {
	case res.Empty():
		status = "nothing to commit"
	case res.Status == history.StatusSimulated:
		status = "simulated"
	}
	h.writeJSON(w, &models.FlushResponse{Status: status, Result: res}, http.StatusOK)
}

// History returns recorded commits, newest first
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}

	limit, offset, appErr := h.validator.ParsePaging(r.URL.Query(), defaultHistoryLimit)
	if appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	entries := []history.Entry{}
	if h.history != nil {
		found, err := h.history.Recent(r.Context(), limit, offset)
		if err != nil {
			h.writeAppError(w, errors.HistoryError(err))
			return
		}
		if found != nil {
			entries = found
		}
	}

	h.writeJSON(w, &models.HistoryResponse{Entries: entries, Limit: limit, Offset: offset}, http.StatusOK)
}
