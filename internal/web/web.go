// Package web exposes the swipe workflow over HTTP: the current candidate
// pool, per-event votes, and the accumulated accepted set. It is the
// interface boundary an out-of-band review UI talks to; there is no HTML
// templating or session handling here.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"linkcal/internal/config"
	appLog "linkcal/internal/log"
	"linkcal/internal/model"
	"linkcal/internal/selection"
)

// Server serves the swipe API for one pool generation at a time.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	// engine is swapped when a new pipeline run produces a fresh pool.
	engineMu sync.RWMutex
	engine   *selection.Engine
}

// NewServer constructs a Server. engine may be nil until the first run
// completes; requests then report 503.
func NewServer(cfg *config.Config, engine *selection.Engine) *Server {
	s := &Server{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		engine: engine,
	}
	s.registerRoutes()
	return s
}

// SetEngine replaces the engine after a new pipeline run. Votes against the
// previous generation's ids fail with UnknownEvent from then on.
func (s *Server) SetEngine(engine *selection.Engine) {
	s.engineMu.Lock()
	s.engine = engine
	s.engineMu.Unlock()
}

func (s *Server) currentEngine() *selection.Engine {
	s.engineMu.RLock()
	defer s.engineMu.RUnlock()
	return s.engine
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password is treated as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health is always exposed unauthenticated.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="linkcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer starts an HTTP server bound to cfg.Listen.
func StartServer(_ context.Context, cfg *config.Config, engine *selection.Engine) error {
	s := NewServer(cfg, engine)
	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	return http.ListenAndServe(cfg.Listen, s.Handler())
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/events/", s.handleVote) // /api/events/{id}/vote
	s.mux.HandleFunc("/api/accepted", s.handleAccepted)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Generation string            `json:"generation"`
	Events     []eventDTO        `json:"events"`
	Outcomes   map[string]string `json:"outcomes"`
}

type eventDTO struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	engine := s.currentEngine()
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "no candidate pool yet; run the pipeline first")
		return
	}

	pool := engine.Pool()
	dtos := make([]eventDTO, 0, len(pool.Events))
	outcomes := make(map[string]string, len(pool.Events))
	for _, ev := range pool.Events {
		dtos = append(dtos, eventDTO{
			ID:          ev.ID,
			Title:       ev.Title,
			Date:        ev.Date,
			StartTime:   ev.StartTime,
			EndTime:     ev.EndTime,
			Location:    ev.Location,
			Description: ev.Description,
		})
		outcomes[strconv.Itoa(ev.ID)] = string(engine.Outcome(ev.ID))
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Generation: pool.Generation,
		Events:     dtos,
		Outcomes:   outcomes,
	})
}

// voteRequest is the JSON body for POST /api/events/{id}/vote.
type voteRequest struct {
	Vote string `json:"vote"`
}

type voteResponse struct {
	ID      int    `json:"id"`
	Outcome string `json:"outcome"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	// Expected path: /api/events/{id}/vote
	rest := strings.TrimPrefix(r.URL.Path, "/api/events/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "vote" {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "event id must be an integer")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	engine := s.currentEngine()
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "no candidate pool yet; run the pipeline first")
		return
	}

	err = engine.Record(r.Context(), id, model.Vote(req.Vote))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, voteResponse{ID: id, Outcome: string(engine.Outcome(id))})
	case errors.Is(err, selection.ErrInvalidVote):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, selection.ErrUnknownEvent):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, selection.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, err.Error())
	default:
		appLog.Error("vote persistence failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to persist vote")
	}
}

// acceptedResponse is the JSON response shape for /api/accepted.
type acceptedResponse struct {
	Generation string   `json:"generation"`
	Titles     []string `json:"titles"`
}

func (s *Server) handleAccepted(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	engine := s.currentEngine()
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "no candidate pool yet; run the pipeline first")
		return
	}

	accepted := engine.Accepted()
	titles := make([]string, 0, len(accepted))
	for _, ev := range accepted {
		titles = append(titles, ev.Title)
	}

	writeJSON(w, http.StatusOK, acceptedResponse{
		Generation: engine.Pool().Generation,
		Titles:     titles,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
