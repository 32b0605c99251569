// Package server exposes the engine operations over HTTP for external
// triggers that prefer an API over exec. It adds no semantics of its own.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clawdbot/metalens/internal/engine"
	"github.com/clawdbot/metalens/internal/store"
)

// Server is the metalens HTTP API server.
type Server struct {
	eng     *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server over the given engine.
func New(eng *engine.Engine, version string) *Server {
	s := &Server{
		eng:     eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/lens", s.handleLens)
		r.Post("/entries", s.handleAddEntry)
		r.Post("/feedback", s.handleFeedback)
		r.Post("/curiosities", s.handleAddCuriosity)
		r.Post("/curiosities/{id}/evolve", s.handleEvolve)
		r.Post("/curiosities/{id}/resolve", s.handleResolve)
		r.Post("/decay", s.handleDecay)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeOK := true
	if _, err := s.eng.File.Load(); err != nil {
		storeOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"uptime":     time.Since(s.started).Seconds(),
		"store":      storeOK,
		"store_path": s.eng.File.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the typed error taxonomy to HTTP statuses, keeping the
// specific id/type/state detail in the body so the caller can self-correct.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *store.ValidationError
		notFound   *store.NotFoundError
		state      *store.InvalidStateError
		marker     *store.MarkerNotFoundError
		corrupt    *store.CorruptError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &state):
		status = http.StatusConflict
	case errors.As(err, &marker):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &corrupt):
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
