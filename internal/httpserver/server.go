// internal/httpserver/server.go
//
// HTTP server wiring for the Scriptle backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/" (payload-injected index page), "/health",
//     GET /api (random verse), GET /api/daily (verse of the day).
//   - Game endpoints (optional auth): POST /api/game,
//     POST /api/game/{id}/guess, GET /api/leaderboard.
//   - Auth + profile endpoints (require auth): /auth/*, /stats/me, /games/mine.
//   - JWT + cookie handling, anonymous player cookie.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token
//     is present; guests can always play.
//   - Request validation happens here, before the session service.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dcgray/scriptle/internal/bible"
	"github.com/dcgray/scriptle/internal/config"
	"github.com/dcgray/scriptle/internal/rank"
	"github.com/dcgray/scriptle/internal/repo"
	"github.com/dcgray/scriptle/internal/session"
)

// Server bundles the router, configuration, and collaborators.
type Server struct {
	r        *chi.Mux
	cfg      *config.Config
	db       *sql.DB // game/user database (stats, auth)
	verses   *bible.Store
	games    *repo.GameRepository
	sessions *session.Service
	ranks    *rank.Store
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, db *sql.DB, verses *bible.Store, games *repo.GameRepository, sessions *session.Service) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		db:       db,
		verses:   verses,
		games:    games,
		sessions: sessions,
		ranks:    rank.NewStore(db),
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(s.corsFromConfig)

	// The index page carries its own content type; everything else is JSON.
	s.r.Get("/", s.handleIndex)
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)
		r.Get("/", s.handleRandomVerse)
		r.Get("/daily", s.handleDailyVerse)
		r.Get("/leaderboard", s.handleLeaderboard)

		// Game endpoints — guests can play via the anonymous cookie.
		r.With(s.withOptionalAuth()).Post("/game", s.handleStartGame)
		r.With(s.withOptionalAuth()).Post("/game/{id}/guess", s.handleGuess)
	})

	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromConfig enables credentialed CORS for the configured client origin.
func (s *Server) corsFromConfig(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ envelope -----------------------------------

// Message is the [text, level] pair the client's message box consumes.
type Message struct {
	Text  string
	Level string
}

// MarshalJSON emits the two-element array form, e.g. ["Correct!","info"].
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{m.Text, m.Level})
}

// envelope is the uniform API response shape.
type envelope struct {
	Success bool     `json:"success"`
	Message *Message `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, data any, msg *Message) {
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Message: msg, Data: data})
}

// reject writes a failure envelope with the given HTTP status.
func reject(w http.ResponseWriter, status int, text, level string, data any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Message: &Message{Text: text, Level: level},
		Data:    data,
	})
}
