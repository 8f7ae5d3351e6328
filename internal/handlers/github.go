package handlers

import (
	"net/http"

	"github.com/nahidhasan98/autocommit/internal/models"
)

// GitHubWebhook handles GitHub push webhook requests
func (h *Handler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	config := WebhookConfig{
		Provider:        ProviderGitHub,
		SignatureHeader: "X-Hub-Signature-256",
		Secret:          h.githubSecret,
		SignaturePrefix: "sha256=",
	}

	h.handleWebhook(w, r, config, decodeEvent[models.GitHubWebhookPayload])
}
