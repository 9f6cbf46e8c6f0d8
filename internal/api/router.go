package api

import (
	"hos-trip-planner/internal/api/handlers"
	"hos-trip-planner/internal/platform/obs"
	"hos-trip-planner/internal/services"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Planner *services.TripPlanner
	// Optional; checked by /health when set.
	DB         handlers.Pinger
	BatchLimit int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	health := &handlers.HealthHandler{DB: deps.DB}
	trips := &handlers.TripHandler{Planner: deps.Planner, BatchLimit: deps.BatchLimit}
	logs := &handlers.LogHandler{Location: deps.Planner.Location}
	drivers := &handlers.DriverHandler{Planner: deps.Planner}

	router.Get("/health", health.Health)
	router.Method(http.MethodGet, "/metrics", obs.MetricsHandler())

	router.Route("/trips", func(r chi.Router) {
		r.Post("/plan", trips.Plan)
		r.Post("/plan/batch", trips.PlanBatch)
		r.Get("/{id}", trips.Get)
	})
	router.Post("/logs/evaluate", logs.Evaluate)
	router.Route("/drivers/{id}", func(r chi.Router) {
		r.Get("/compliance", drivers.Compliance)
		r.Get("/logs", drivers.Logs)
	})

	return router
}
