package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"aistudio/internal/config"
	"aistudio/internal/provider"
	"aistudio/internal/store"
	"aistudio/internal/stream"
)

// Server holds all dependencies for the HTTP server.
type Server struct {
	config    *config.Config
	store     *store.Store
	providers *provider.Registry
	mux       *stream.Multiplexer
}

// NewServer creates a new server with all dependencies.
func NewServer(cfg *config.Config, st *store.Store, providers *provider.Registry) *Server {
	return &Server{
		config:    cfg,
		store:     st,
		providers: providers,
		mux: &stream.Multiplexer{
			Timeout:  cfg.StreamTimeout,
			Recorder: st,
		},
	}
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(srv *Server) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(RecovererMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(AuthMiddleware(srv.config.APIToken))

	// Streaming routes
	r.Post("/api/compare", srv.handleCompare)
	r.Post("/api/chain", srv.handleChain)

	// Catalog routes
	r.Get("/api/models", srv.handleListModels)
	r.Get("/api/comparisons", srv.handleListComparisons)

	r.Get("/api/health", srv.handleHealth)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": s.providers.Names(),
		"time":      time.Now().UTC().Format(time.RFC3339),
	})
}
