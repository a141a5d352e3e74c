package syncapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/conceptsync/pkg/observability/metrics"
)

// NewRouter mounts the import API under /api/v1 next to the health and
// metrics endpoints.
func NewRouter(handler *HTTPHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(Recovery, Logging)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)
	return router
}
