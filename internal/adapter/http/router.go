package http

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hivedesk/hivecache/internal/adapter/http/handlers"
)

func (s *Server) setupRoutes() {
	h := handlers.New(s.registry, s.invalidator, s.logger)
	api := s.router.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/stats", h.HandleStats).Methods("GET")
	api.HandleFunc("/invalidate", h.HandleInvalidate).Methods("POST")
	api.HandleFunc("/dump", h.HandleDump).Methods("GET")

	s.router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Prometheus scrape endpoint.
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
