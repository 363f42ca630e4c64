package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/conorfennell/flashdeck/internal/deck"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/session"
	"github.com/conorfennell/flashdeck/internal/stats"
)

// Options holds the defaults applied to random runs when a request leaves
// them out.
type Options struct {
	RandomCount         int
	PrioritizeDifficult bool
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	decks   *deck.DirSource
	stats   *stats.Store
	session *session.Controller
	opts    Options
	router  *http.ServeMux

	// mu serializes handlers that write; the stats store has a single writer.
	mu sync.Mutex
}

// NewServer creates and configures a new server.
func NewServer(decks *deck.DirSource, store *stats.Store, ctrl *session.Controller, opts Options) *Server {
	s := &Server{
		decks:   decks,
		stats:   store,
		session: ctrl,
		opts:    opts,
		router:  http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	// Deck management
	s.router.HandleFunc("GET /api/decks", s.handleListDecks())
	s.router.HandleFunc("GET /api/decks/{name}", s.handleGetDeck())
	s.router.HandleFunc("POST /api/decks/{name}/delete", s.serialized(s.handleDeleteCard()))
	s.router.HandleFunc("POST /api/decks/{name}/replace", s.serialized(s.handleReplaceDeck()))

	// Card statistics
	s.router.HandleFunc("GET /api/stats", s.handleGetStats())
	s.router.HandleFunc("GET /api/cards/{id}", s.serialized(s.handleGetCard()))
	s.router.HandleFunc("POST /api/cards/{id}/difficult", s.serialized(s.handleToggleDifficult()))

	// Study session
	s.router.HandleFunc("GET /api/study", s.serialized(s.handleGetStudy()))
	s.router.HandleFunc("POST /api/study/deck", s.serialized(s.handleSelectDeck()))
	s.router.HandleFunc("POST /api/study/random", s.serialized(s.handleStartRandom()))
	s.router.HandleFunc("POST /api/study/known", s.serialized(s.handleStudyAction(s.session.MarkKnown)))
	s.router.HandleFunc("POST /api/study/unknown", s.serialized(s.handleStudyAction(s.session.MarkUnknown)))
	s.router.HandleFunc("POST /api/study/restart", s.serialized(s.handleStudyAction(s.session.Restart)))
	s.router.HandleFunc("POST /api/study/reshuffle", s.serialized(s.handleStudyAction(func() error {
		s.session.Reshuffle()
		return nil
	})))
	s.router.HandleFunc("POST /api/study/difficult", s.serialized(s.handleStudyAction(func() error {
		_, err := s.session.ToggleDifficult()
		return err
	})))
}

func (s *Server) serialized(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("web: failed to encode response", "error", err)
	}
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var verr *domain.DeckValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, deck.ErrDeckNotFound):
		status = http.StatusNotFound
	case errors.Is(err, deck.ErrInvalidDeckName), errors.Is(err, deck.ErrIndexOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNoCurrentCard):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		slog.Error("web: request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
