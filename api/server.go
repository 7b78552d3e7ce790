/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/drinks/*       Catalog management
  /api/managers/*     Manager registry
  /api/deliveries/*   Pending deliveries
  /api/stock          Current counts
  /api/reconcile/*    Preview and save
  /api/history/*      Saved entries and corrections
  /api/admin/*        Administrative operations

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/drinks", func(r chi.Router) {
			r.Get("/", h.ListDrinks)
			r.Post("/", h.SaveDrink)
			r.Delete("/{name}", h.DeleteDrink)
		})

		// Manager routes
		r.Route("/managers", func(r chi.Router) {
			r.Get("/", h.ListManagers)
			r.Post("/", h.SaveManager)
			r.Delete("/{id}", h.DeleteManager)
		})

		// Working-state routes
		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/", h.ListDeliveries)
			r.Post("/", h.AddDelivery)
			r.Delete("/{id}", h.DeleteDelivery)
		})
		r.Get("/stock", h.GetStock)
		r.Put("/stock", h.SetStock)

		// Reconciliation routes
		r.Route("/reconcile", func(r chi.Router) {
			r.Post("/preview", h.PreviewReconciliation)
			r.Post("/save", h.SaveReconciliation)
		})

		// History routes
		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Get("/{id}", h.GetEntry)
			r.Post("/{id}/corrections", h.CorrectEntry)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Delete("/history/{id}", h.DeleteEntry)
		})
	})

	return r
}
