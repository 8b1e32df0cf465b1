package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/templates", h.ListTemplates)
		r.Post("/generate-email", h.GenerateEmail)
		r.Post("/send-email", h.SendEmail)
		r.Post("/upload-csv", h.UploadCSV)

		// SNS must be able to reach these without auth
		r.Get("/webhook", h.WebhookInfo)
		r.Post("/webhook", h.Webhook)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", h.ListLeads)
			r.Post("/", h.CreateLead)
			r.Get("/stats", h.LeadStats)
			r.Post("/send-pending", h.SendPending)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetLead)
				r.Delete("/", h.DeleteLead)
				r.Patch("/status", h.UpdateLeadStatus)
				r.Post("/send", h.SendToLead)
			})
		})
	})

	return r
}
