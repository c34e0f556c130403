package http

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/hivedesk/hivecache/internal/cache"
	"github.com/hivedesk/hivecache/internal/invalidation"
)

// Server is the operational HTTP surface: health, stats, invalidation,
// diagnostics and prometheus metrics. Business traffic never goes
// through here; collaborators use the cache in-process.
type Server struct {
	registry    *cache.Registry
	invalidator *invalidation.Invalidator
	router      *mux.Router
	logger      *log.Logger
}

func NewServer(registry *cache.Registry, invalidator *invalidation.Invalidator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		registry:    registry,
		invalidator: invalidator,
		router:      mux.NewRouter(),
		logger:      logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) Router() http.Handler {
	return CorsMiddleware(RequestLogMiddleware(s.logger, s.router))
}
