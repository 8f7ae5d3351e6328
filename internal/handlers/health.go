package handlers

import (
	"net/http"
	"time"

	"github.com/nahidhasan98/autocommit/internal/models"
)

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	tracker := h.svc.Tracker()

	response := &models.HealthResponse{
		Status:    "ok",
		Pending:   tracker.Len(),
		InFlight:  tracker.InFlight(),
		Notifier:  h.notifier.Available(),
		Timestamp: time.Now().Unix(),
	}

	h.writeJSON(w, response, http.StatusOK)
}
