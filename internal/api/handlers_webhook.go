package api

import (
	"io"
	"net/http"

	"github.com/ignite/sales-automator/internal/pkg/httputil"
)

// WebhookInfo answers GET probes from SNS topic setup and monitoring.
func (h *Handlers) WebhookInfo(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"endpoint": "ses-notifications",
		"accepts":  []string{"SubscriptionConfirmation", "Notification"},
	})
}

// Webhook ingests one SNS POST. Processing failures inside a well-formed
// envelope still return 200: SNS retries aggressively and redelivering a
// poison message would not help.
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	// SNS notifications are small; cap the body anyway
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httputil.BadRequest(w, "unreadable body")
		return
	}

	res, err := h.reconciler.HandleEnvelope(r.Context(), body)
	if err != nil {
		// only a structurally unparseable envelope lands here
		httputil.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.OK(w, res)
}
