// Package server exposes the game over HTTP: a WebSocket endpoint with
// handshake authentication and per-recipient view filtering, plus the
// small REST surface for sessions and game creation.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/op/go-logging"

	"github.com/cango91/gambit-chess-sub005/internal/game"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
	"github.com/cango91/gambit-chess-sub005/internal/session"
	"github.com/cango91/gambit-chess-sub005/internal/store"
)

var log = logging.MustGetLogger("server")

// Server wires the game manager, stores, and sessions to the network.
type Server struct {
	games    *game.Manager
	store    *store.Store
	sessions *session.Manager
	hub      *Hub
	upgrader websocket.Upgrader

	// overlay is the operator-supplied ruleset profile, selectable at
	// game creation as "custom" (or as the default when no ruleset is
	// named). Nil when the server started without one.
	overlay *ruleset.Config

	// dispatchMu serializes the commit-then-fan-out window per game so
	// every client sees events in commit order.
	dispatchMu sync.Mutex
	dispatch   map[string]*sync.Mutex
}

// New creates a server over the given backends. overlay, when non-nil,
// is served as the "custom" ruleset profile.
func New(games *game.Manager, st *store.Store, sessions *session.Manager, overlay *ruleset.Config) *Server {
	return &Server{
		games:    games,
		store:    st,
		sessions: sessions,
		hub:      NewHub(),
		overlay:  overlay,
		dispatch: make(map[string]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The server is its own origin authority; deployments put a
			// proxy in front for anything stricter.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Routes returns the HTTP handler for the whole server.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/session", s.handleCreateSession)
	mux.HandleFunc("/api/session/refresh", s.handleRefreshSession)
	mux.HandleFunc("/api/games", s.handleGames)
	return mux
}

// authenticate resolves the request's identity from either a registered
// access token or an anonymous session token.
func (s *Server) authenticate(r *http.Request) (string, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		userID, err := s.sessions.ValidateAccess(token)
		if err != nil {
			return "", err
		}
		return userID, nil
	}
	if token := r.URL.Query().Get("anonymousSessionToken"); token != "" {
		rec, err := s.sessions.ValidateAnonymous(r.Context(), token,
			r.UserAgent(), r.Header.Get("Accept-Language"), r.RemoteAddr)
		if err != nil {
			return "", err
		}
		return rec.ID, nil
	}
	return "", session.ErrInvalidToken
}

// handleWebSocket authenticates the handshake and hands the connection
// to its pumps. Missing or invalid credentials close the socket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := s.authenticate(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("upgrade: %v", err)
		return
	}

	c := newClient(s, conn, identity)
	go c.writePump()
	go c.readPump()
	log.Debugf("client %s connected", identity)
}

// gameLock returns the dispatch mutex for a game, creating it on first
// use. Holding it across apply-plus-fan-out keeps concurrent mutations
// from interleaving their event streams.
func (s *Server) gameLock(gameID string) *sync.Mutex {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	mu, ok := s.dispatch[gameID]
	if !ok {
		mu = &sync.Mutex{}
		s.dispatch[gameID] = mu
	}
	return mu
}

func (s *Server) dropGameLock(gameID string) {
	s.dispatchMu.Lock()
	delete(s.dispatch, gameID)
	s.dispatchMu.Unlock()
}

// disconnect removes a dropped client and tells its room.
func (s *Server) disconnect(c *client) {
	gameID := c.gameID
	s.hub.leave(c)
	c.shutdown()

	if gameID != "" {
		for _, other := range s.hub.clientsIn(gameID) {
			other.enqueue(MsgGamePlayerDisconnected, PresencePayload{
				GameID:   gameID,
				PlayerID: c.identity,
			})
		}
	}
	log.Debugf("client %s disconnected", c.identity)
}

// --- REST ---

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleCreateSession issues an anonymous session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, game.CodeInvalidAction, "POST required")
		return
	}

	token, rec, err := s.sessions.CreateAnonymous(r.Context(),
		r.UserAgent(), r.Header.Get("Accept-Language"), r.RemoteAddr)
	if err != nil {
		log.Errorf("creating session: %v", err)
		writeError(w, http.StatusInternalServerError, game.CodeServerError, "could not create session")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: rec.ID,
		Token:     token,
		ExpiresAt: rec.CreatedAt.Add(session.AnonymousTTL),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// handleRefreshSession rotates a registered refresh token.
func (s *Server) handleRefreshSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, game.CodeInvalidAction, "POST required")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, game.CodeInvalidAction, "refreshToken required")
		return
	}

	access, refresh, err := s.sessions.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, game.CodeUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access, RefreshToken: refresh})
}

type createGameRequest struct {
	Ruleset string `json:"ruleset"`
}

type gameSummary struct {
	GameID      string      `json:"gameId"`
	Status      game.Status `json:"status"`
	RulesetType string      `json:"rulesetType"`
	Players     int         `json:"players"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// handleGames creates a game (POST) or lists live games (GET).
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if _, err := s.authenticate(r); err != nil {
			writeError(w, http.StatusUnauthorized, game.CodeUnauthorized, "authentication required")
			return
		}

		var req createGameRequest
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}
		cfg, err := s.resolveRuleset(req.Ruleset)
		if err != nil {
			writeError(w, http.StatusBadRequest, game.CodeInvalidAction, err.Error())
			return
		}

		g, err := s.games.Create(r.Context(), cfg)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, gameSummary{
			GameID:      g.ID,
			Status:      g.Status,
			RulesetType: g.Config.RulesetType,
			CreatedAt:   g.CreatedAt,
		})

	case http.MethodGet:
		games, err := s.store.ListGames(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, game.CodeServerError, "could not list games")
			return
		}
		out := make([]gameSummary, 0, len(games))
		for _, g := range games {
			n := 0
			for _, p := range g.Players {
				if p != nil {
					n++
				}
			}
			out = append(out, gameSummary{
				GameID:      g.ID,
				Status:      g.Status,
				RulesetType: g.Config.RulesetType,
				Players:     n,
				CreatedAt:   g.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)

	default:
		writeError(w, http.StatusMethodNotAllowed, game.CodeInvalidAction, "GET or POST required")
	}
}

// resolveRuleset maps a requested profile name to a configuration. The
// operator overlay answers for "custom" and, when present, for requests
// that name no profile at all.
func (s *Server) resolveRuleset(name string) (ruleset.Config, error) {
	if s.overlay != nil && (name == "" || name == "custom") {
		return *s.overlay, nil
	}
	return ruleset.Profile(name)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorPayload{Code: code, Message: message})
}

// writeGameError maps a typed game error to an HTTP response.
func writeGameError(w http.ResponseWriter, err error) {
	var gerr *game.Error
	if !errors.As(err, &gerr) {
		writeError(w, http.StatusInternalServerError, game.CodeServerError, err.Error())
		return
	}

	status := http.StatusBadRequest
	switch gerr.Category {
	case game.CategoryAuthorization:
		status = http.StatusForbidden
	case game.CategoryTransient, game.CategoryInternal, game.CategoryStateConsistency:
		status = http.StatusInternalServerError
	}
	if gerr.Code == game.CodeGameNotFound {
		status = http.StatusNotFound
	}
	writeError(w, status, gerr.Code, gerr.Message)
}
