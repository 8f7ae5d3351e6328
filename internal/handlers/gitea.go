package handlers

import (
	"net/http"

	"github.com/nahidhasan98/autocommit/internal/models"
)

// GiteaWebhook handles Gitea push webhook requests
func (h *Handler) GiteaWebhook(w http.ResponseWriter, r *http.Request) {
	config := WebhookConfig{
		Provider:        ProviderGitea,
		SignatureHeader: "X-Gitea-Signature",
		Secret:          h.giteaSecret,
		SignaturePrefix: "", // Gitea doesn't use a prefix
	}

	h.handleWebhook(w, r, config, decodeEvent[models.GiteaWebhookPayload])
}
