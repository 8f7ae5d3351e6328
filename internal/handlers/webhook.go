package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
	"github.com/nahidhasan98/autocommit/internal/errors"
	"github.com/nahidhasan98/autocommit/internal/models"
)

// WebhookProvider represents different webhook providers
type WebhookProvider string

const (
	ProviderGitea  WebhookProvider = "Gitea"
	ProviderGitHub WebhookProvider = "GitHub"
)

const (
	maxListedCommits = 5
	maxListedFiles   = 20
)

// WebhookConfig holds configuration for webhook processing
type WebhookConfig struct {
	Provider        WebhookProvider
	SignatureHeader string
	Secret          string
	SignaturePrefix string // e.g., "sha256=" for GitHub
}

// handleWebhook verifies, analyzes and announces a push event. parse
// decodes the provider specific payload.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request, config WebhookConfig, parse func([]byte) (models.PushEvent, error)) {
	if !h.requireMethod(w, r, http.MethodPost) {
		return
	}

	// Get signature from header
	headerSignature := r.Header.Get(config.SignatureHeader)
	if headerSignature == "" && config.Secret != "" {
		h.log.Warnf("%s webhook received without signature header", config.Provider)
		h.writeAppError(w, errors.New(errors.ErrCodeUnauthorized, fmt.Sprintf("Missing %s header", config.SignatureHeader)))
		return
	}

	body, appErr := readBody(w, r)
	if appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	if !h.verifyWebhookSignature(body, headerSignature, config) {
		h.log.Warnf("Invalid %s webhook signature", config.Provider)
		h.writeAppError(w, errors.New(errors.ErrCodeUnauthorized, "Invalid webhook signature"))
		return
	}

	h.log.Infof("%s webhook received", config.Provider)

	event, err := parse(body)
	if err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid webhook payload: "+err.Error()))
		return
	}
	if len(event.GetCommits()) == 0 {
		h.log.Warnf("%s webhook payload has zero commits. Skipping notification", config.Provider)
		h.writeAppError(w, errors.InvalidRequest("Webhook payload has no commits to notify"))
		return
	}

	if !h.notifier.Available() {
		h.writeAppError(w, errors.NotifierUnavailable())
		return
	}

	message := h.formatPushMessage(event)
	if err := h.notifier.Notify(r.Context(), message); err != nil {
		h.writeAppError(w, errors.NotifyFailed(err))
		return
	}

	h.log.Infof("%s webhook notification sent for %s", config.Provider, event.GetRepositoryName())
	h.writeJSON(w, &models.StatusResponse{Status: "notification sent"}, http.StatusOK)
}

// verifyWebhookSignature verifies the HMAC SHA256 signature of the webhook payload
func (h *Handler) verifyWebhookSignature(payload []byte, headerSignature string, config WebhookConfig) bool {
	if config.Secret == "" {
		// If no secret is configured, skip signature verification
		h.log.Warnf("%s webhook secret not configured, skipping signature verification", config.Provider)
		return true
	}

	providedSignature := headerSignature
	if config.SignaturePrefix != "" {
		if !strings.HasPrefix(headerSignature, config.SignaturePrefix) {
			return false
		}
		providedSignature = strings.TrimPrefix(headerSignature, config.SignaturePrefix)
	}

	mac := hmac.New(sha256.New, []byte(config.Secret))
	mac.Write(payload)
	expectedSignature := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(providedSignature), []byte(expectedSignature))
}

// formatPushMessage renders a push as a chat message. Every listed commit
// gets the header the engine would have written for its files, and the
// impact of the whole push is summarised at the end.
func (h *Handler) formatPushMessage(event models.PushEvent) string {
	var sb strings.Builder
	engine := h.svc.Engine()
	commits := event.GetCommits()

	sb.WriteString(fmt.Sprintf("🔔 New Push to *%s*\n", event.GetRepositoryName()))
	sb.WriteString("\n```")
	sb.WriteString(fmt.Sprintf("👤 Pusher : %s\n", event.GetPusherName()))
	sb.WriteString(fmt.Sprintf("🌿 Branch : %s\n", event.GetBranch()))
	sb.WriteString(fmt.Sprintf("📊 Commits: %d\n", len(commits)))
	sb.WriteString("```\n")

	sb.WriteString("*Commits:*\n")
	var all []analyzer.Change
	for i, commit := range commits {
		all = append(all, commit.Changes...)
		if i >= maxListedCommits {
			continue
		}

		sb.WriteString(fmt.Sprintf("• `%s` - %s\n", shortID(commit.ID), headline(commit.Message)))
		if len(commit.Changes) > 0 {
			sb.WriteString(fmt.Sprintf("   ↳ _%s_\n", engine.Draft(commit.Changes).Header()))
		}
	}
	if len(commits) > maxListedCommits {
		sb.WriteString(fmt.Sprintf("\n_...and %d more commit(s)_\n", len(commits)-maxListedCommits))
	}

	if compareURL := event.GetCompareURL(); compareURL != "" {
		sb.WriteString(fmt.Sprintf("\n🔗 View changes: %s\n", compareURL))
	}

	if len(all) == 0 {
		return sb.String()
	}

	files := engine.ClassifyBatch(all)
	writeFileList(&sb, "✅ Added", files, analyzer.KindCreated)
	writeFileList(&sb, "📝 Modified", files, analyzer.KindModified)
	writeFileList(&sb, "❌ Removed", files, analyzer.KindDeleted)

	profile := engine.Analyze(files)
	draft := engine.DraftClassified(files, profile)
	if len(draft.ImpactLines) > 0 || draft.Breaking {
		sb.WriteString("\n*Impact:*\n")
		for _, line := range draft.ImpactLines {
			sb.WriteString(fmt.Sprintf("⚠️ %s\n", line))
		}
		if draft.Breaking {
			sb.WriteString("💥 Breaking change\n")
		}
	}

	return sb.String()
}

func writeFileList(sb *strings.Builder, title string, files []analyzer.FileChange, kind analyzer.Kind) {
	var listed []string
	for _, f := range files {
		if f.Kind == kind {
			listed = append(listed, f.Path)
		}
	}
	if len(listed) == 0 {
		return
	}

	sb.WriteString(fmt.Sprintf("\n%s: %d\n", title, len(listed)))
	for i, p := range listed {
		if i >= maxListedFiles {
			sb.WriteString(fmt.Sprintf("   _...and %d more_\n", len(listed)-maxListedFiles))
			break
		}
		sb.WriteString(fmt.Sprintf("   • %s\n", p))
	}
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// headline is the first line of a commit message, cut to 60 characters
func headline(message string) string {
	if idx := strings.Index(message, "\n"); idx != -1 {
		message = message[:idx]
	}
	if len(message) > 60 {
		message = message[:57] + "..."
	}
	return message
}

func decodeEvent[T models.PushEvent](body []byte) (models.PushEvent, error) {
	var payload T
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
