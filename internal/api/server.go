// Package api provides the HTTP API for creating games, submitting orders,
// and resolving turns. GET endpoints are public (read-only observation).
// POST endpoints that mutate game state require a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashkar-house/realms/internal/persistence"
	"github.com/ashkar-house/realms/internal/resolver"
	"github.com/ashkar-house/realms/internal/state"
	"github.com/ashkar-house/realms/internal/theme"
)

// idGenerator mints unit and event-instance ids from uuids, satisfying
// resolver.IDGenerator without the resolver package depending on uuid
// itself.
type idGenerator struct{}

func (idGenerator) NextUnitID() string     { return uuid.NewString() }
func (idGenerator) NextInstanceID() string { return uuid.NewString() }

// Server serves the game engine over HTTP.
type Server struct {
	DB       *persistence.DB
	Theme    *theme.ThemePackage
	Port     int
	AdminKey string // Bearer token for mutating endpoints. Empty = mutations disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	submitLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/games", s.handleGames)
	mux.HandleFunc("/api/v1/games/", s.handleGameRoutes(submitLimiter))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for the local dev frontends on
// localhost:5173 and localhost:3000. The allowlist is fixed in code; no
// environment variable changes it.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken reports whether the request carries the admin token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer auth on POST requests. GET
// requests pass through unauthenticated.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "mutating endpoints disabled (no admin key configured)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// handleGames handles GET (list) and POST (create) on /api/v1/games.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			games, err := s.DB.ListGames()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, games)

		case http.MethodPost:
			var req struct {
				GameID         string            `json:"gameId"`
				Seed           uint32            `json:"seed"`
				PlayerMappings map[string]string `json:"playerMappings"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			if req.GameID == "" {
				req.GameID = uuid.NewString()
			}

			gs, err := resolver.InitializeGameState(req.GameID, s.Theme, req.PlayerMappings, req.Seed, nowRFC3339(), idGenerator{})
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if err := s.DB.CreateGame(gs); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, gs)

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})(w, r)
}

// handleGameRoutes dispatches /api/v1/games/:id and its sub-resources.
func (s *Server) handleGameRoutes(submitLimiter *RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/games/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}
		gameID := parts[0]

		switch {
		case len(parts) == 1:
			s.handleGameDetail(w, r, gameID)
		case len(parts) == 2 && parts[1] == "orders":
			RateLimitMiddleware(submitLimiter, GameScopedKey, s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
				s.handleSubmitOrders(w, r, gameID)
			}))(w, r)
		case len(parts) == 2 && parts[1] == "resolve":
			s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
				s.handleResolveTurn(w, r, gameID)
			})(w, r)
		case len(parts) == 2 && parts[1] == "history":
			s.handleTurnHistory(w, r, gameID)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
}

func (s *Server) handleGameDetail(w http.ResponseWriter, r *http.Request, gameID string) {
	gs, err := s.DB.LoadGame(gameID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, gs)
}

// handleSubmitOrders accepts one civ's order batch for the game's current
// turn. Orders are staged; they take effect on the next POST .../resolve.
func (s *Server) handleSubmitOrders(w http.ResponseWriter, r *http.Request, gameID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	gs, err := s.DB.LoadGame(gameID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var po state.PlayerOrders
	if err := json.NewDecoder(r.Body).Decode(&po); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	po.TurnNumber = gs.Turn
	po.SubmittedAt = nowRFC3339()

	if err := s.DB.SubmitOrders(gameID, gs.Turn, po); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"accepted": true, "turn": gs.Turn})
}

// handleResolveTurn loads every staged order batch for the game's current
// turn, runs the resolver, and writes the result back under the
// optimistic-concurrency guard spec.md §5 describes. A stale write
// (someone else resolved first) is reported as a conflict so the caller
// re-reads and retries.
func (s *Server) handleResolveTurn(w http.ResponseWriter, r *http.Request, gameID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	gs, err := s.DB.LoadGame(gameID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	orders, err := s.DB.LoadSubmittedOrders(gameID, gs.Turn)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	p := resolver.CreatePRNG(gs.RNGState)

	result := resolver.ResolveTurn(gs, orders, s.Theme, p, nowRFC3339(), idGenerator{})

	if err := s.DB.SaveTurnResult(gs.Turn, result.State, result.Logs); err != nil {
		if err == persistence.ErrStaleTurn {
			http.Error(w, "stale turn, reload and retry", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"state": result.State, "logs": result.Logs})
}

func (s *Server) handleTurnHistory(w http.ResponseWriter, r *http.Request, gameID string) {
	rows, err := s.DB.LoadTurnHistory(gameID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
