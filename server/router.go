package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wfunc/kolortris/match"
)

type matchStatus struct {
	ID        string         `json:"id"`
	Phase     string         `json:"phase"`
	Players   int            `json:"players"`
	Sessions  int            `json:"sessions"`
	Accepting bool           `json:"accepting"`
	Running   bool           `json:"running"`
	Roster    []playerStatus `json:"roster"`
}

type playerStatus struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
	// Connected is false for players without a live session.
	Connected   bool    `json:"connected"`
	IdleSeconds float64 `json:"idle_seconds,omitempty"`
}

// Router builds the HTTP API. It starts nothing, so tests can mount it on
// httptest.NewServer.
func (s *GameServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if origins == nil {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/ws", s.handleWebSocket)
	r.Handle("/metrics", s.monitor.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/match", s.handleGetMatch)
		r.Get("/scoreboard", s.handleGetScoreboard)
		r.Post("/match/start", s.handlePhase(s.match.Start))
		r.Post("/match/end", s.handlePhase(s.match.End))
		r.Post("/match/reset", s.handlePhase(s.match.Reset))
	})
	return r
}

func (s *GameServer) status() matchStatus {
	players := s.match.Players()
	st := matchStatus{
		ID:        s.match.ID,
		Phase:     string(s.match.Phase()),
		Players:   len(players),
		Sessions:  s.sessionManager.Count(),
		Accepting: s.match.Accepting(),
		Running:   s.match.Running(),
		Roster:    make([]playerStatus, 0, len(players)),
	}
	for _, p := range players {
		ps := playerStatus{ID: p.ID, Name: p.Field.Name(), JoinedAt: p.JoinedAt}
		if sess, ok := s.sessionManager.GetByPlayerID(p.ID); ok {
			ps.Connected = true
			ps.IdleSeconds = sess.Idle().Seconds()
		}
		st.Roster = append(st.Roster, ps)
	}
	return st
}

func (s *GameServer) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status())
}

func (s *GameServer) handleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.match.Scoreboard())
}

func (s *GameServer) handlePhase(change func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := change(); err != nil {
			code := http.StatusConflict
			if !errors.Is(err, match.ErrWrongPhase) && !errors.Is(err, match.ErrNoPlayers) {
				code = http.StatusInternalServerError
			}
			writeError(w, err.Error(), code)
			return
		}
		writeJSON(w, s.status())
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
