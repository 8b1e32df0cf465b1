// Package api exposes the HTTP surface: lead CRUD, template rendering,
// email dispatch, CSV import and the SES webhook.
package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ignite/sales-automator/internal/lead"
	"github.com/ignite/sales-automator/internal/pkg/httputil"
	"github.com/ignite/sales-automator/internal/pkg/logger"
	"github.com/ignite/sales-automator/internal/template"
	"github.com/ignite/sales-automator/internal/webhook"
)

// Handlers carries the services behind every route.
type Handlers struct {
	leads      *lead.Service
	engine     *template.Engine
	reconciler *webhook.Reconciler
	validate   *validator.Validate
	log        *logger.Logger

	transport string
	store     string
	started   time.Time
}

// NewHandlers wires the handler set. transport and store name the active
// backends for the health endpoint.
func NewHandlers(leads *lead.Service, engine *template.Engine, reconciler *webhook.Reconciler, transport, store string, log *logger.Logger) *Handlers {
	return &Handlers{
		leads:      leads,
		engine:     engine,
		reconciler: reconciler,
		validate:   validator.New(),
		log:        log,
		transport:  transport,
		store:      store,
		started:    time.Now().UTC(),
	}
}

// decodeValid decodes JSON and runs struct validation in one step.
func (h *Handlers) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !httputil.Decode(w, r, dst) {
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		httputil.BadRequest(w, "validation failed: "+err.Error())
		return false
	}
	return true
}

// HealthCheck reports liveness plus the active transport and store.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":    "ok",
		"transport": h.transport,
		"store":     h.store,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"time":      time.Now().UTC().Format(time.RFC3339),
	})
}
