// Package server exposes render passes over HTTP as JSON for the map widgets.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pable/go-dota-wards/internal/analysis"
	"github.com/pable/go-dota-wards/internal/model"
)

// MatchLister is the slice of the store the API needs.
type MatchLister interface {
	ListMatches() ([]model.MatchSummary, error)
}

// Server holds the dependencies of the HTTP handlers. The engine is read-only,
// so concurrent requests each run their own pass.
type Server struct {
	engine  *analysis.Engine
	base    model.Filter
	matches MatchLister
	origins []string
	started time.Time
}

// New builds a server. matches may be nil when serving a JSON dataset file.
func New(engine *analysis.Engine, base model.Filter, matches MatchLister, corsOrigins []string) *Server {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	return &Server{
		engine:  engine,
		base:    base,
		matches: matches,
		origins: corsOrigins,
		started: time.Now().UTC(),
	}
}

// Router returns the chi router with middleware and routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/spots", s.GetSpots)
		r.Get("/spots/effectiveness", s.GetEffectiveness)
		r.Get("/clusters", s.GetClusters)
		r.Get("/sentries", s.GetSentries)
		r.Get("/matches", s.GetMatches)
	})
	return r
}
