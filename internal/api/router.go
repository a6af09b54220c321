package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the REST API, health endpoints, metrics and the WebSocket
// endpoint onto one mux router. ws may be nil.
func NewRouter(dashboard *DashboardHandler, health *HealthHandler, ws http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	router.Use(mux.MiddlewareFunc(MetricsMiddleware()))

	// API v1 routes
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	v1.HandleFunc("/snapshot", dashboard.GetSnapshot).Methods(http.MethodGet)
	v1.HandleFunc("/instruments", dashboard.ListInstruments).Methods(http.MethodGet)
	v1.HandleFunc("/instruments/{symbol}", dashboard.GetInstrument).Methods(http.MethodGet)
	v1.HandleFunc("/sessions", dashboard.GetSessions).Methods(http.MethodGet)

	// Health check endpoints
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/live", health.Live).Methods(http.MethodGet)
	router.HandleFunc("/ready", health.Ready).Methods(http.MethodGet)
	router.HandleFunc("/stats", health.Stats).Methods(http.MethodGet)

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	if ws != nil {
		router.Handle("/ws", ws)
	}

	return router
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
