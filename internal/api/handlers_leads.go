package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/lead"
	"github.com/ignite/sales-automator/internal/pkg/httputil"
)

// leadError maps service errors onto HTTP status codes.
func leadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lead.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, lead.ErrDuplicateEmail):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, lead.ErrInvalidEmail),
		errors.Is(err, lead.ErrInvalidStatus),
		errors.Is(err, lead.ErrMissingFields):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// ListLeads returns leads, optionally filtered by ?status= and ?owner=.
func (h *Handlers) ListLeads(w http.ResponseWriter, r *http.Request) {
	f := lead.Filter{
		Status: domain.LeadStatus(r.URL.Query().Get("status")),
		Owner:  r.URL.Query().Get("owner"),
	}
	leads, err := h.leads.List(r.Context(), f)
	if err != nil {
		leadError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"leads": leads, "count": len(leads)})
}

// CreateLead adds one lead.
func (h *Handlers) CreateLead(w http.ResponseWriter, r *http.Request) {
	var in lead.NewLead
	if !h.decodeValid(w, r, &in) {
		return
	}
	l, err := h.leads.Add(r.Context(), in)
	if err != nil {
		leadError(w, err)
		return
	}
	httputil.Created(w, l)
}

// GetLead returns one lead by id.
func (h *Handlers) GetLead(w http.ResponseWriter, r *http.Request) {
	l, err := h.leads.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		leadError(w, err)
		return
	}
	httputil.OK(w, l)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateLeadStatus moves a lead to a new pipeline stage.
func (h *Handlers) UpdateLeadStatus(w http.ResponseWriter, r *http.Request) {
	var in updateStatusRequest
	if !h.decodeValid(w, r, &in) {
		return
	}
	l, err := h.leads.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in.Status)
	if err != nil {
		leadError(w, err)
		return
	}
	httputil.OK(w, l)
}

// DeleteLead removes a lead.
func (h *Handlers) DeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.leads.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		leadError(w, err)
		return
	}
	httputil.NoContent(w)
}

// LeadStats returns the pipeline breakdown, optionally for one ?owner=.
func (h *Handlers) LeadStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.leads.Stats(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		leadError(w, err)
		return
	}
	httputil.OK(w, st)
}

// UploadCSV imports leads from a multipart CSV upload. Validation is
// all-or-nothing; the response lists every bad line with its spreadsheet
// line number.
func (h *Handlers) UploadCSV(w http.ResponseWriter, r *http.Request) {
	// 10 MB is plenty for a lead list
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		httputil.BadRequest(w, "file must be a .csv")
		return
	}

	batch, lineErrs, err := lead.ParseCSV(file)
	if err != nil {
		httputil.BadRequest(w, "invalid CSV: "+err.Error())
		return
	}
	if len(lineErrs) > 0 {
		// one line per bad row so the message is pasteable next to the sheet
		msgs := make([]string, len(lineErrs))
		for i, le := range lineErrs {
			msgs[i] = le.Error()
		}
		httputil.ErrorWithDetails(w, http.StatusBadRequest, strings.Join(msgs, "\n"), lineErrs)
		return
	}

	owner := r.FormValue("owner")
	if owner == "" {
		owner = lead.DefaultOwner
	}
	summary, err := h.leads.Import(r.Context(), batch, owner)
	if err != nil {
		leadError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"success": true,
		"message": fmt.Sprintf("imported %d leads, skipped %d duplicates", summary.Imported, summary.Skipped),
		"count":   summary.Imported,
		"skipped": summary.Skipped,
		"data":    summary.Leads,
		"demo":    h.transport == "simulated",
	})
}
