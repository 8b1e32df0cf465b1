package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/lead"
	"github.com/ignite/sales-automator/internal/mail"
	"github.com/ignite/sales-automator/internal/pkg/httputil"
	"github.com/ignite/sales-automator/internal/template"
)

// sendError maps dispatch failures onto HTTP status codes. Transport
// failures surface as 500 with the classified message so the operator can
// tell a credential problem from a provider rejection.
func (h *Handlers) sendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mail.ErrInvalidRequest):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, template.ErrTemplateNotFound):
		httputil.NotFound(w, err.Error())
	default:
		if mail.KindOf(err) != mail.KindUnknown {
			httputil.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		leadError(w, err)
	}
}

// ListTemplates returns the built-in outreach catalog.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"templates": h.engine.Templates()})
}

// generateEmailRequest uses camelCase keys: this endpoint predates the
// lead CRUD surface and dashboard clients already send it this way.
type generateEmailRequest struct {
	TemplateID  string `json:"templateId"`
	Category    string `json:"category"`
	CompanyName string `json:"companyName" validate:"required"`
	ContactName string `json:"contactName" validate:"required"`
	SenderName  string `json:"senderName"`
	SenderEmail string `json:"senderEmail"`
	SenderPhone string `json:"senderPhone"`
}

// GenerateEmail renders a template for preview without sending anything.
func (h *Handlers) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	var in generateEmailRequest
	if !h.decodeValid(w, r, &in) {
		return
	}

	tpl, err := h.engine.Select(in.TemplateID, domain.TemplateCategory(in.Category))
	if err != nil {
		h.sendError(w, err)
		return
	}
	vars := map[string]string{
		"companyName": in.CompanyName,
		"contactName": in.ContactName,
	}
	if in.SenderName != "" {
		vars["senderName"] = in.SenderName
	}
	if in.SenderEmail != "" {
		vars["senderEmail"] = in.SenderEmail
	}
	if in.SenderPhone != "" {
		vars["senderPhone"] = in.SenderPhone
	}
	rendered := h.engine.Render(tpl, vars)

	httputil.OK(w, map[string]any{
		"email":   rendered.Subject + "\n\n" + rendered.Body,
		"subject": rendered.Subject,
		"body":    rendered.Body,
		"template": map[string]any{
			"id":       tpl.ID,
			"name":     tpl.Name,
			"category": tpl.Category,
		},
		"isDemo": h.transport == "simulated",
	})
}

type sendEmailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	HTML    string `json:"html" validate:"required"`
}

// SendEmail dispatches an already-rendered email. A lead with a matching
// address moves to the sent stage as a side effect.
func (h *Handlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	var in sendEmailRequest
	if !h.decodeValid(w, r, &in) {
		return
	}

	res, statusUpdate, err := h.leads.SendDirect(r.Context(), in.To, in.Subject, in.HTML)
	if err != nil {
		h.sendError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"success":      true,
		"message":      "email sent via " + res.Transport,
		"message_id":   res.MessageID,
		"demo":         res.Simulated,
		"mode":         res.Transport,
		"statusUpdate": statusUpdate,
	})
}

// SendToLead renders the chosen template for a lead and dispatches it.
func (h *Handlers) SendToLead(w http.ResponseWriter, r *http.Request) {
	var in lead.SendOptions
	// empty body means random template with the default sender
	if r.ContentLength > 0 && !httputil.Decode(w, r, &in) {
		return
	}

	out, err := h.leads.SendToLead(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.sendError(w, err)
		return
	}
	httputil.OK(w, out)
}

type sendPendingRequest struct {
	lead.SendOptions
	Owner string `json:"owner"`
}

// SendPending bulk-sends to every pending lead, optionally for one owner.
func (h *Handlers) SendPending(w http.ResponseWriter, r *http.Request) {
	var in sendPendingRequest
	if r.ContentLength > 0 && !httputil.Decode(w, r, &in) {
		return
	}

	res, err := h.leads.SendPending(r.Context(), in.Owner, in.SendOptions)
	if err != nil {
		// a canceled run still reports what it managed to do
		if res != nil {
			httputil.OK(w, res)
			return
		}
		h.sendError(w, err)
		return
	}
	httputil.OK(w, res)
}
