package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/omegatable/outreach/internal/observability"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Get("/{id}", h.GetCampaign)
			r.Post("/{id}/start", h.StartCampaign)
			r.Post("/{id}/stop", h.StopCampaign)
			r.Get("/{id}/progress", h.GetCampaignProgress)
			r.Post("/{id}/senders", h.AllocateSenders)
		})

		r.Route("/senders", func(r chi.Router) {
			r.Get("/", h.ListSenders)
			r.Post("/", h.CreateSender)
			r.Delete("/{id}", h.DeleteSender)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", h.ListLeads)
			r.Post("/upload", h.UploadLeads)
		})

		r.Route("/engine", func(r chi.Router) {
			r.Post("/pause", h.PauseEngine)
			r.Post("/resume", h.ResumeEngine)
		})
	})

	return r
}
