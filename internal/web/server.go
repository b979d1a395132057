// Package web serves the search over HTTP: each session owns its own grid and
// engine, steps are driven by POST requests, and every step is pushed to
// websocket subscribers.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	astar "github.com/pdrpinto/astar-grid"
	"github.com/pdrpinto/astar-grid/config"
	"github.com/pdrpinto/astar-grid/grid"
)

//go:embed static
var staticFiles embed.FS

// Event names published on the websocket.
const (
	EventSnapshot = "snapshot"
	EventStep     = "step"
	EventReset    = "reset"
)

// session is one grid with its engine. mu serialises engine access.
type session struct {
	mu       sync.Mutex
	id       string
	grid     *grid.Grid
	start    astar.Coord
	goal     astar.Coord
	diagonal bool
	steps    int
	engine   *astar.Engine
}

// Server is the HTTP API.
type Server struct {
	cfg    config.Config
	logger *slog.Logger
	hub    *Hub
	router *mux.Router

	mu       sync.Mutex
	sessions map[string]*session
	rng      *rand.Rand
}

// NewServer creates a server whose new sessions default to cfg.
func NewServer(cfg config.Config, hub *Hub, logger *slog.Logger) *Server {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		hub:      hub,
		router:   mux.NewRouter(),
		sessions: make(map[string]*session),
		rng:      rand.New(rand.NewSource(seed)),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/step", s.handleStep).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods(http.MethodPost)

	s.router.HandleFunc("/ws/{id}", s.handleWebSocket)

	static, _ := fs.Sub(staticFiles, "static")
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(static)))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SessionInfo describes a newly created session.
type SessionInfo struct {
	ID       string        `json:"id"`
	Columns  int           `json:"columns"`
	Rows     int           `json:"rows"`
	Walls    []astar.Coord `json:"walls"`
	Start    astar.Coord   `json:"start"`
	Goal     astar.Coord   `json:"goal"`
	Diagonal bool          `json:"diagonal"`
	Warnings []string      `json:"warnings,omitempty"`
}

// StepResponse is the state after a batch of steps.
type StepResponse struct {
	SessionID string         `json:"session_id"`
	Snapshot  astar.Snapshot `json:"snapshot"`
	Cost      int            `json:"cost,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	values := make(map[string]any)
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	cfg := config.FromValues(s.cfg, values)

	var g *grid.Grid
	var start, goal astar.Coord
	var okStart, okGoal bool
	place := func(rng *rand.Rand) {
		g = grid.Random(cfg.Columns, cfg.Rows, cfg.Density, rng)
		start, okStart = g.RandomWalkable(rng)
		goal, okGoal = g.RandomWalkable(rng, start)
	}
	if hasKey(values, config.KeySeed) && cfg.Seed != 0 {
		// A seed in the body reproduces the same field on any server.
		place(rand.New(rand.NewSource(cfg.Seed)))
	} else {
		s.mu.Lock()
		place(s.rng)
		s.mu.Unlock()
	}
	if !okStart || !okGoal {
		s.writeError(w, http.StatusUnprocessableEntity, "field has fewer than two walkable cells")
		return
	}

	sess := &session{
		id:       uuid.NewString(),
		grid:     g,
		start:    start,
		goal:     goal,
		diagonal: cfg.Diagonal,
		steps:    cfg.StepsPerTick,
		engine:   astar.New(astar.WithLogger(s.logger)),
	}
	if err := sess.engine.Begin(g, start, goal, sess.diagonal); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("session created",
		slog.String("session", sess.id),
		slog.Int("columns", cfg.Columns),
		slog.Int("rows", cfg.Rows),
		slog.Any("start", start),
		slog.Any("goal", goal))

	s.writeJSON(w, http.StatusCreated, SessionInfo{
		ID:       sess.id,
		Columns:  g.Columns(),
		Rows:     g.Rows(),
		Walls:    g.Blocked(),
		Start:    start,
		Goal:     goal,
		Diagonal: sess.diagonal,
		Warnings: cfg.Warnings,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	resp := StepResponse{SessionID: sess.id, Snapshot: sess.engine.Snapshot()}
	sess.mu.Unlock()
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.hub.CloseSession(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleStep runs ?n= steps, the session's steps per tick when n is missing or
// invalid, and stops early at a terminal result.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	n := sess.steps
	if q := r.URL.Query().Get("n"); q != "" {
		parsed := config.FromValues(config.Config{StepsPerTick: n}, map[string]any{config.KeyStepsPerTick: q})
		if len(parsed.Warnings) == 0 {
			n = parsed.StepsPerTick
		}
	}

	sess.mu.Lock()
	resp := StepResponse{SessionID: sess.id}
	var stepErr error
	for i := 0; i < n; i++ {
		res, err := sess.engine.Step()
		if err != nil {
			stepErr = err
			break
		}
		if res.Status == astar.Success {
			resp.Cost = res.Cost
		}
		if res.Done() {
			break
		}
	}
	resp.Snapshot = sess.engine.Snapshot()
	sess.mu.Unlock()

	if stepErr != nil {
		status := http.StatusInternalServerError
		if errors.Is(stepErr, astar.ErrInvalidPrecondition) {
			status = http.StatusConflict
		}
		s.writeError(w, status, stepErr.Error())
		return
	}

	s.hub.Publish(sess.id, EventStep, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// handleReset restarts the search on the same field.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	sess.engine.Reset()
	err := sess.engine.Begin(sess.grid, sess.start, sess.goal, sess.diagonal)
	resp := StepResponse{SessionID: sess.id, Snapshot: sess.engine.Snapshot()}
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Publish(sess.id, EventReset, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	greeting := &Message{
		SessionID: sess.id,
		Event:     EventSnapshot,
		Data:      StepResponse{SessionID: sess.id, Snapshot: sess.engine.Snapshot()},
	}
	sess.mu.Unlock()
	s.hub.ServeWS(w, r, sess.id, greeting)
}

func hasKey(values map[string]any, key string) bool {
	for k := range values {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
