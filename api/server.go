/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the operator frontend

ROUTE GROUPS:
  /api/institution      Institution info
  /api/beneficiaries/*  Beneficiary registry
  /api/rip, /api/calculator  Stateless calculators
  /api/compensations/*  Compensation ledger
  /api/exports/*        Payment file and reports
  /api/batches          Payment batch audit trail
  /api/backup, /api/restore  Whole-state backup
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus metrics
  /healthz              Liveness and database check

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Batch-ID", "X-Skipped-Records"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/institution", h.GetInstitution)
		r.Put("/institution", h.UpdateInstitution)

		// Beneficiary routes
		r.Route("/beneficiaries", func(r chi.Router) {
			r.Get("/", h.ListBeneficiaries)
			r.Post("/", h.CreateBeneficiary)
			r.Put("/{id}", h.UpdateBeneficiary)
			r.Delete("/{id}", h.DeleteBeneficiary)
		})

		// Calculator routes
		r.Get("/rip/{account}", h.GetRIP)
		r.Post("/calculator/quarter", h.ComputeQuarter)

		// Compensation routes
		r.Route("/compensations", func(r chi.Router) {
			r.Get("/", h.ListCompensations)
			r.Put("/{beneficiaryID}", h.PutCompensation)
			r.Delete("/{beneficiaryID}", h.DeleteCompensation)
		})

		// Export routes
		r.Route("/exports", func(r chi.Router) {
			r.Get("/payment.txt", h.ExportPayment)
			r.Get("/report.xlsx", h.ExportXLSX)
			r.Get("/report.html", h.ExportHTML)
		})
		r.Get("/batches", h.ListBatches)

		// Backup routes
		r.Get("/backup", h.Backup)
		r.Post("/restore", h.Restore)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
