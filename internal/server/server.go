// Package server exposes the browser application's HTTP surface: media
// upload, asynchronous caption generation jobs, and bilingual SRT export.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/config"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/logging"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/provider"
)

// Server wires the job store, the remote provider, and the HTTP router.
type Server struct {
	cfg      *config.Config
	provider provider.Provider
	log      *logging.Logger
	jobs     *jobStore
	router   chi.Router
}

// New builds a Server around a provider implementation.
func New(cfg *config.Config, p provider.Provider, log *logging.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		provider: p,
		log:      log,
		jobs:     newJobStore(),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/jobs", s.handleCreateJob)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Get("/jobs/{id}/export", s.handleExport)
		r.Get("/jobs/{id}/active", s.handleActiveCaption)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
