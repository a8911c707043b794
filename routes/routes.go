package routes

import (
	"net/http"
	"time"

	"github.com/foodloop/donation-engine/app"
	"github.com/foodloop/donation-engine/middleware"
	"github.com/foodloop/donation-engine/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// requestTimeout bounds every request, including insight generation
const requestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	auth := deps.AuthMiddleware
	adminRole := deps.Config.Auth.AdminRole

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/matches", deps.MatchHandler.HandleFindMatches)

		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", deps.OrganizationHandler.HandleList)
			r.Get("/{id}", deps.OrganizationHandler.HandleGet)

			// Directory administration
			r.With(auth.RequireAuth, auth.RequireRole(adminRole)).
				Patch("/{id}/status", deps.OrganizationHandler.HandleUpdateStatus)
		})

		// Donor routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Use(auth.ExtractDonor)

			r.Route("/donations", func(r chi.Router) {
				r.Post("/", deps.DonationHandler.HandleCreate)
				r.Get("/", deps.DonationHandler.HandleList)
				r.Get("/{id}", deps.DonationHandler.HandleGet)
				r.Get("/{id}/history", deps.DonationHandler.HandleHistory)
				r.Post("/{id}/confirm", deps.DonationHandler.HandleConfirm)
				r.Post("/{id}/complete", deps.DonationHandler.HandleComplete)
				r.Post("/{id}/cancel", deps.DonationHandler.HandleCancel)
			})

			r.Get("/impact", deps.ImpactHandler.HandleSnapshot)

			r.Post("/feedback", deps.RecordsHandler.HandleCreateFeedback)
			r.Get("/feedback", deps.RecordsHandler.HandleListFeedback)
			r.Post("/waste", deps.RecordsHandler.HandleCreateWaste)
			r.Get("/waste", deps.RecordsHandler.HandleListWaste)

			r.With(middleware.RateLimit(deps.InsightLimiter, "insights", deps.Logger)).
				Post("/insights", deps.InsightHandler.HandleGenerate)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "Endpoint not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	return r
}
