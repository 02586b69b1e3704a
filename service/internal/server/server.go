// Package server exposes game sessions over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/cambio/engine"
	"github.com/jason-s-yu/cambio/service/internal/game"
	"github.com/jason-s-yu/cambio/service/internal/leaderboard"
	"github.com/sirupsen/logrus"
)

const maxBody = 1 << 16

// Server routes requests to the session registry and the leaderboard.
type Server struct {
	reg   *game.Registry
	board leaderboard.Board
	hub   *Hub
	log   logrus.FieldLogger
	mux   *http.ServeMux

	pingInterval time.Duration
}

func New(reg *game.Registry, board leaderboard.Board, log logrus.FieldLogger) *Server {
	s := &Server{
		reg:          reg,
		board:        board,
		hub:          NewHub(log),
		log:          log,
		mux:          http.NewServeMux(),
		pingInterval: 15 * time.Second,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/games", s.handleCreate)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleSnapshot)
	s.mux.HandleFunc("POST /api/games/{id}/join", s.handleJoin)
	s.mux.HandleFunc("GET /api/games/{id}/ws", s.handleWS)
	s.mux.HandleFunc("GET /api/leaderboard/{mode}", s.handleLeaderboard)
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.mux.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// session resolves the {id} path value.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return nil, false
	}
	sess, err := s.reg.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

type createRequest struct {
	Variant string `json:"variant"`
	Mode    string `json:"mode,omitempty"`
	Hotseat bool   `json:"hotseat,omitempty"`
	Seed    uint64 `json:"seed,omitempty"`
}

type createResponse struct {
	ID      uuid.UUID `json:"id"`
	Variant string    `json:"variant"`
	Mode    string    `json:"mode,omitempty"`
	Hotseat bool      `json:"hotseat,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Variant == "" {
		req.Variant = engine.VariantTwoPlayer.String()
	}
	variant, err := game.ParseVariant(req.Variant)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := engine.ParseSoloMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.reg.Create(game.Options{Variant: variant, Mode: mode, Hotseat: req.Hotseat, Seed: req.Seed})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.hub.attach(sess)

	resp := createResponse{ID: sess.ID, Variant: sess.Variant.String(), Hotseat: sess.Hotseat}
	if sess.Variant != engine.VariantTwoPlayer {
		resp.Mode = sess.Mode.String()
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleSnapshot returns the table as ?player= sees it; without a player
// the spectator view.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	player := uuid.Nil
	if p := r.URL.Query().Get("player"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid player id")
			return
		}
		player = id
	}
	writeJSON(w, http.StatusOK, sess.Snapshot(player))
}

type joinRequest struct {
	PlayerID uuid.UUID `json:"playerId"`
	Name     string    `json:"name"`
}

type joinResponse struct {
	PlayerID uuid.UUID `json:"playerId"`
	Seat     string    `json:"seat"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == uuid.Nil {
		req.PlayerID = uuid.New()
	}
	seat, err := sess.Join(req.PlayerID, req.Name)
	if errors.Is(err, game.ErrSessionFull) {
		writeError(w, http.StatusConflict, err.Error())
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{PlayerID: req.PlayerID, Seat: seat.String()})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	mode, err := engine.ParseSoloMode(r.PathValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := leaderboard.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	entries, err := s.board.Top(r.Context(), mode.String(), limit)
	if err != nil {
		s.log.WithError(err).WithField("mode", mode).Error("leaderboard query failed")
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
