package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bartech/facilityhub/api/middleware"
	"github.com/bartech/facilityhub/api/resources"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.KeycloakMiddleware
	limiter   *middleware.RateLimiter
	resources *resources.Resources
}

// NewRouter wires the HTTP surface. The caller provides fully assembled
// resources (health and metrics handlers included). limiter may be nil when
// rate limiting is disabled; the monitoring routes are never limited so
// device submissions and dashboard polling cannot starve each other out.
func NewRouter(res *resources.Resources, keycloakConfig middleware.KeycloakConfig, limiter *middleware.RateLimiter) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewKeycloakMiddleware(keycloakConfig),
		limiter:   limiter,
		resources: res,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)

	// Monitoring: open ingestion and dashboard reads, never rate limited
	monitoring := api.PathPrefix("/monitoring").Subrouter()
	monitoring.HandleFunc("/submit", r.resources.Monitoring.Submit).Methods(http.MethodPost)
	monitoring.HandleFunc("/latest", r.resources.Monitoring.Latest).Methods(http.MethodGet)
	monitoring.HandleFunc("/latest/{facilityId}", r.resources.Monitoring.LatestFor).Methods(http.MethodGet)
	monitoring.HandleFunc("/history", r.resources.Monitoring.History).Methods(http.MethodGet)
	monitoring.HandleFunc("/status", r.resources.Monitoring.Status).Methods(http.MethodGet)
	monitoring.HandleFunc("/statistics", r.resources.Monitoring.Statistics).Methods(http.MethodGet)
	monitoring.HandleFunc("/simulate", r.resources.Monitoring.Simulate).Methods(http.MethodPost)
	monitoring.HandleFunc("/stream", r.resources.Stream.Stream).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	if r.limiter != nil {
		protected.Use(r.limiter.Limit)
	}
	protected.Use(r.auth.Authenticate)

	// Facilities
	facilities := protected.PathPrefix("/facilities").Subrouter()
	facilities.HandleFunc("", r.resources.Facilities.ListFacilities).Methods(http.MethodGet)
	facilities.HandleFunc("", r.resources.Facilities.CreateFacility).Methods(http.MethodPost)
	facilities.HandleFunc("/{id}", r.resources.Facilities.GetFacility).Methods(http.MethodGet)
	facilities.HandleFunc("/{id}", r.resources.Facilities.UpdateFacility).Methods(http.MethodPut)
	facilities.HandleFunc("/{id}", r.resources.Facilities.DeleteFacility).Methods(http.MethodDelete)
	facilities.HandleFunc("/{id}/status", r.resources.Facilities.GetFacilityStatus).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
