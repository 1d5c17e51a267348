// internal/httpserver/server.go
//
// HTTP wiring for the trivia engine. This is a reference adapter: the
// engine itself is transport-agnostic, and chat bridges are expected to
// build Commands the same way these handlers do.
//
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request
//     IDs, per-IP rate limiting).
//   - Room lifecycle: POST /rooms, POST /rooms/{roomID}/command.
//   - Out-of-band events: GET /rooms/{roomID}/events (websocket).
//   - All-time leaderboard, health, bank diagnostics.

package httpserver

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/rdren0/literate-waddle/internal/command"
	"github.com/rdren0/literate-waddle/internal/history"
	"github.com/rdren0/literate-waddle/internal/store"
	"github.com/rdren0/literate-waddle/internal/trivia"
)

// Server bundles router, room registry, dispatcher, event hub, and the
// best-effort history store.
type Server struct {
	r          *chi.Mux
	bank       *trivia.Bank
	rooms      *store.Rooms
	dispatcher *command.Dispatcher
	hub        *Hub
	hist       *history.Store
}

// New constructs a Server, installs middleware, and registers routes.
// hist may be nil (history disabled); rps bounds per-IP request rate.
func New(bank *trivia.Bank, rooms *store.Rooms, d *command.Dispatcher, hub *Hub, hist *history.Store, rps float64) *Server {
	s := &Server{r: chi.NewRouter(), bank: bank, rooms: rooms, dispatcher: d, hub: hub, hist: hist}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS
	if rps > 0 {
		s.r.Use(newRateLimiter(rps, int(rps)*2).middleware)
	}

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"trivia-engine","endpoints":["/health","POST /rooms","POST /rooms/{roomID}/command","GET /rooms/{roomID}/events","GET /leaderboard/alltime"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// --- rooms ---
	s.r.Post("/rooms", s.handleCreateRoom)
	s.r.Post("/rooms/{roomID}/command", s.handleCommand)
	s.r.Get("/rooms/{roomID}/events", s.handleEvents)

	// --- leaderboard ---
	s.r.Get("/leaderboard/alltime", s.handleAllTime)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Debug: question bank size
	s.r.Get("/debug/bank", func(w http.ResponseWriter, r *http.Request) {
		counts := map[string]int{"total": bank.Size()}
		for _, c := range trivia.Categories() {
			n := 0
			for _, pts := range trivia.PointValues {
				n += bank.BucketSize(c, pts)
			}
			counts[c.String()] = n
		}
		_ = json.NewEncoder(w).Encode(counts)
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

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
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

// ------------------------------ handlers -----------------------------------

type createRoomRes struct {
	RoomID string `json:"roomId"`
}

// handleCreateRoom opens a new room with a fresh session.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	room := s.rooms.Create(s.bank)
	log.Info().Str("room", room.ID).Msg("room created")
	_ = json.NewEncoder(w).Encode(createRoomRes{RoomID: room.ID})
}

// commandReq accepts either a pre-tokenized command or a raw chat line.
type commandReq struct {
	Verb       string   `json:"verb,omitempty"`
	Args       []string `json:"args,omitempty"`
	Line       string   `json:"line,omitempty"`
	CallerID   string   `json:"callerId"`
	CallerName string   `json:"callerName,omitempty"`
}

// handleCommand dispatches one command against a room. A suppressed
// outcome (out-of-turn answer) returns 204.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.CallerID == "" {
		http.Error(w, `{"error":"caller_id_required"}`, http.StatusBadRequest)
		return
	}
	verb, args := req.Verb, req.Args
	if verb == "" && req.Line != "" {
		verb, args = command.ParseLine(req.Line)
	}

	out := s.dispatcher.Dispatch(command.Command{
		Verb:       verb,
		Args:       args,
		CallerID:   req.CallerID,
		CallerName: req.CallerName,
		RoomID:     chi.URLParam(r, "roomID"),
	})
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleEvents subscribes the caller to a room's out-of-band events over a
// websocket. An optional userId query also delivers direct events (solo
// queue promotions).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.hub.Subscribe(w, r, chi.URLParam(r, "roomID"), r.URL.Query().Get("userId"))
}

// handleAllTime serves the aggregated multiplayer leaderboard.
func (s *Server) handleAllTime(w http.ResponseWriter, r *http.Request) {
	rows, err := s.hist.AllTimeLeaderboard(r.Context(), 20)
	if err != nil {
		log.Warn().Err(err).Msg("all-time leaderboard query")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []history.AllTimeRow{}
	}
	_ = json.NewEncoder(w).Encode(rows)
}
