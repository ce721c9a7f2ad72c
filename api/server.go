/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack and route table. This is
  the wiring layer between URLs and handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       The dashboard frontend runs on another origin

SECURITY NOTE:
  Authentication is owned by the upstream token flow and a fronting
  gateway; this service exposes no credential handling of its own.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Get("/{id}/units", h.ListUnits)
		})

		r.Route("/projections", func(r chi.Router) {
			r.Post("/", h.GenerateProjection)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProjection)
				r.Put("/indices/{code}", h.SetIndex)
				r.Put("/overrides", h.SetOverride)
				r.Delete("/overrides", h.ClearOverride)
				r.Get("/apportionment", h.GetApportionment)
				r.Post("/save", h.SaveSession)
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/{id}/load", h.LoadSession)
			r.Delete("/{id}", h.DeleteSession)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
