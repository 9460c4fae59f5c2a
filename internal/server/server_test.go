package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cango91/gambit-chess-sub005/internal/game"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
	"github.com/cango91/gambit-chess-sub005/internal/session"
	"github.com/cango91/gambit-chess-sub005/internal/store"
)

const (
	alice = "player-alice"
	bob   = "player-bob"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	games := game.NewManager(st)
	sessions := session.NewManager(st, []byte("0123456789abcdef0123456789abcdef"))
	return New(games, st, sessions, nil)
}

func createGame(t *testing.T, s *Server) string {
	t.Helper()
	g, err := s.games.Create(context.Background(), ruleset.Standard())
	require.NoError(t, err)
	return g.ID
}

func frameOf(t *testing.T, typ string, payload any) Frame {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return Frame{Type: typ, Payload: raw}
}

// joinedClient connects a fresh client and routes it through the join
// flow. No pumps run in tests; frames pile up in the send queue.
func joinedClient(t *testing.T, s *Server, gameID, identity string) *client {
	t.Helper()
	c := newClient(s, nil, identity)
	s.handleFrame(c, frameOf(t, MsgGameJoin, JoinPayload{GameID: gameID}))
	return c
}

func drain(c *client) []Frame {
	var out []Frame
	for {
		select {
		case f, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, f)
		default:
			return out
		}
	}
}

func framesOfType(frames []Frame, typ string) []Frame {
	var out []Frame
	for _, f := range frames {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func TestHubRooms(t *testing.T) {
	s := testServer(t)
	h := s.hub

	a := newClient(s, nil, alice)
	b := newClient(s, nil, bob)

	h.join("g1", a)
	h.join("g1", b)
	assert.Len(t, h.clientsIn("g1"), 2)

	// Joining another room leaves the first.
	h.join("g2", b)
	assert.Len(t, h.clientsIn("g1"), 1)
	assert.Len(t, h.clientsIn("g2"), 1)
	assert.Equal(t, "g2", b.gameID)

	h.leave(a)
	assert.Empty(t, h.clientsIn("g1"))
	assert.Empty(t, a.gameID)
}

func TestEnqueueAssignsSequence(t *testing.T) {
	s := testServer(t)
	c := newClient(s, nil, alice)

	c.enqueue(MsgConnectionPong, struct{}{})
	c.enqueue(MsgConnectionPong, struct{}{})
	c.enqueue(MsgConnectionPong, struct{}{})

	frames := drain(c)
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, int64(i+1), f.Sequence)
	}
}

func TestEnqueueConcurrentSequencesUnique(t *testing.T) {
	s := testServer(t)
	c := newClient(s, nil, alice)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.enqueue(MsgConnectionPong, struct{}{})
		}()
	}
	wg.Wait()

	frames := drain(c)
	require.Len(t, frames, n)
	seen := make(map[int64]bool, n)
	for _, f := range frames {
		assert.False(t, seen[f.Sequence], "duplicate sequence %d", f.Sequence)
		seen[f.Sequence] = true
	}
}

func TestEnqueueOverflowClosesQueue(t *testing.T) {
	s := testServer(t)
	c := newClient(s, nil, alice)

	for i := 0; i < sendQueueSize+2; i++ {
		c.enqueue(MsgConnectionPong, struct{}{})
	}

	frames := drain(c)
	assert.Len(t, frames, sendQueueSize)

	// The queue is closed and further frames are dropped silently.
	_, open := <-c.send
	assert.False(t, open)
	c.enqueue(MsgConnectionPong, struct{}{})
}

func TestEnqueueAfterDisconnectIsSafe(t *testing.T) {
	s := testServer(t)
	gameID := createGame(t, s)

	a := joinedClient(t, s, gameID, alice)
	b := joinedClient(t, s, gameID, bob)
	drain(a)
	drain(b)

	// A dispatching goroutine can hold a room snapshot across another
	// client's disconnect; frames for the departed client must be
	// dropped, not sent on a closed channel.
	snapshot := s.hub.clientsIn(gameID)
	require.Len(t, snapshot, 2)

	s.disconnect(b)

	for _, cl := range snapshot {
		cl.enqueue(MsgGameStateUpdated, struct{}{})
	}

	assert.NotEmpty(t, drain(a))
	assert.Empty(t, drain(b))
	assert.Len(t, s.hub.clientsIn(gameID), 1)
}

func TestJoinSendsStateAndPresence(t *testing.T) {
	s := testServer(t)
	gameID := createGame(t, s)

	a := joinedClient(t, s, gameID, alice)
	frames := drain(a)
	require.NotEmpty(t, frames)
	state := framesOfType(frames, MsgGameState)
	require.Len(t, state, 1)

	var v game.View
	require.NoError(t, json.Unmarshal(state[0].Payload, &v))
	assert.Equal(t, gameID, v.GameID)
	assert.Equal(t, "white", v.YourColor)

	b := joinedClient(t, s, gameID, bob)
	drain(b)

	// The first client hears about the second seat.
	frames = drain(a)
	presence := framesOfType(frames, MsgGamePlayerConnected)
	require.Len(t, presence, 1)
	var p PresencePayload
	require.NoError(t, json.Unmarshal(presence[0].Payload, &p))
	assert.Equal(t, bob, p.PlayerID)
}

func TestSpectatorJoinsFullGame(t *testing.T) {
	s := testServer(t)
	gameID := createGame(t, s)

	joinedClient(t, s, gameID, alice)
	joinedClient(t, s, gameID, bob)

	w := joinedClient(t, s, gameID, "watcher")
	frames := drain(w)
	state := framesOfType(frames, MsgGameState)
	require.Len(t, state, 1)

	var v game.View
	require.NoError(t, json.Unmarshal(state[0].Payload, &v))
	assert.Empty(t, v.YourColor)
	assert.Equal(t, game.HiddenValue, v.White.BattlePoints)
	assert.Len(t, s.hub.clientsIn(gameID), 3)
}

func TestMoveFanOut(t *testing.T) {
	s := testServer(t)
	gameID := createGame(t, s)

	a := joinedClient(t, s, gameID, alice)
	b := joinedClient(t, s, gameID, bob)
	drain(a)
	drain(b)

	s.handleFrame(a, frameOf(t, MsgGameMove, MovePayload{GameID: gameID, Move: "e2e4"}))

	for _, c := range []*client{a, b} {
		frames := drain(c)
		assert.NotEmpty(t, framesOfType(frames, MsgGameEvent), "move event for %s", c.identity)
		updated := framesOfType(frames, MsgGameStateUpdated)
		require.NotEmpty(t, updated, "snapshot for %s", c.identity)

		var v game.View
		require.NoError(t, json.Unmarshal(updated[len(updated)-1].Payload, &v))
		assert.Equal(t, "black", v.CurrentTurn.String())
	}

	// An illegal move only answers the sender.
	s.handleFrame(b, frameOf(t, MsgGameMove, MovePayload{GameID: gameID, Move: "e2e4"}))
	frames := drain(b)
	invalid := framesOfType(frames, MsgGameMoveInvalid)
	require.Len(t, invalid, 1)
	var e ErrorPayload
	require.NoError(t, json.Unmarshal(invalid[0].Payload, &e))
	assert.Equal(t, game.CodeIllegalMove, e.Code)
	assert.Empty(t, drain(a))
}

// eventEnvelope mirrors the wire shape of a fanned-out event just far
// enough to inspect duel amounts.
type eventEnvelope struct {
	Payload struct {
		AttackerAllocation int `json:"attackerAllocation"`
		DefenderAllocation int `json:"defenderAllocation"`
	} `json:"payload"`
}

func TestDuelResolvedHiddenFromSpectators(t *testing.T) {
	s := testServer(t)
	gameID := createGame(t, s)

	a := joinedClient(t, s, gameID, alice)
	b := joinedClient(t, s, gameID, bob)
	w := joinedClient(t, s, gameID, "watcher")

	s.handleFrame(a, frameOf(t, MsgGameMove, MovePayload{GameID: gameID, Move: "e2e4"}))
	s.handleFrame(b, frameOf(t, MsgGameMove, MovePayload{GameID: gameID, Move: "d7d5"}))
	s.handleFrame(a, frameOf(t, MsgGameMove, MovePayload{GameID: gameID, Move: "e4d5"}))
	drain(a)
	drain(b)
	drain(w)

	s.handleFrame(a, frameOf(t, MsgGameDuelAllocation, AllocationPayload{GameID: gameID, Amount: 1}))
	s.handleFrame(b, frameOf(t, MsgGameDuelAllocation, AllocationPayload{GameID: gameID, Amount: 0}))

	resolvedFor := func(c *client) eventEnvelope {
		frames := framesOfType(drain(c), MsgGameDuelResolved)
		require.Len(t, frames, 1, "duel_resolved for %s", c.identity)
		var env eventEnvelope
		require.NoError(t, json.Unmarshal(frames[0].Payload, &env))
		return env
	}

	// Players see the revealed amounts, the spectator does not.
	env := resolvedFor(a)
	assert.Equal(t, 1, env.Payload.AttackerAllocation)
	assert.Equal(t, 0, env.Payload.DefenderAllocation)

	env = resolvedFor(w)
	assert.Equal(t, game.HiddenValue, env.Payload.AttackerAllocation)
	assert.Equal(t, game.HiddenValue, env.Payload.DefenderAllocation)

	// Replaying the ring to a late spectator stays redacted too.
	w2 := joinedClient(t, s, gameID, "watcher-2")
	frames := framesOfType(drain(w2), MsgGameDuelResolved)
	require.Len(t, frames, 1)
	require.NoError(t, json.Unmarshal(frames[0].Payload, &env))
	assert.Equal(t, game.HiddenValue, env.Payload.AttackerAllocation)
	assert.Equal(t, game.HiddenValue, env.Payload.DefenderAllocation)
}

func TestReplayAfterSequence(t *testing.T) {
	s := testServer(t)
	gameID := createGame(t, s)

	a := joinedClient(t, s, gameID, alice)
	b := joinedClient(t, s, gameID, bob)

	s.handleFrame(a, frameOf(t, MsgGameMove, MovePayload{GameID: gameID, Move: "e2e4"}))
	s.handleFrame(b, frameOf(t, MsgGameMove, MovePayload{GameID: gameID, Move: "e7e5"}))

	g, err := s.games.Get(context.Background(), gameID)
	require.NoError(t, err)

	// Rejoining past the last seen sequence replays nothing but the
	// snapshot; rejoining from zero replays the whole ring.
	rejoin := newClient(s, nil, alice)
	s.handleFrame(rejoin, frameOf(t, MsgGameJoin, JoinPayload{GameID: gameID, AfterSequence: g.Seq}))
	frames := drain(rejoin)
	assert.Empty(t, framesOfType(frames, MsgGameEvent))
	assert.Len(t, framesOfType(frames, MsgGameState), 1)

	fresh := newClient(s, nil, bob)
	s.handleFrame(fresh, frameOf(t, MsgGameJoin, JoinPayload{GameID: gameID}))
	frames = drain(fresh)
	assert.NotEmpty(t, framesOfType(frames, MsgGameEvent))
}

func TestChatFanOut(t *testing.T) {
	s := testServer(t)
	gameID := createGame(t, s)

	a := joinedClient(t, s, gameID, alice)
	b := joinedClient(t, s, gameID, bob)
	drain(a)
	drain(b)

	s.handleFrame(a, frameOf(t, MsgGameChat, ChatPayload{GameID: gameID, Text: "good luck"}))

	for _, c := range []*client{a, b} {
		frames := framesOfType(drain(c), MsgGameChat)
		require.Len(t, frames, 1, "chat for %s", c.identity)

		var p ChatPayload
		require.NoError(t, json.Unmarshal(frames[0].Payload, &p))
		assert.Equal(t, alice, p.From)
		assert.Equal(t, "good luck", p.Text)
		assert.Contains(t, string(frames[0].Payload), `"text":"good luck"`)
	}
}

func TestGameLockLifecycle(t *testing.T) {
	s := testServer(t)
	gameID := createGame(t, s)

	assert.Same(t, s.gameLock(gameID), s.gameLock(gameID))
	assert.NotSame(t, s.gameLock(gameID), s.gameLock("other"))

	a := joinedClient(t, s, gameID, alice)
	joinedClient(t, s, gameID, bob)
	s.handleFrame(a, frameOf(t, MsgGameResign, GameRefPayload{GameID: gameID}))

	// Finished games release their dispatch lock entry.
	s.dispatchMu.Lock()
	_, held := s.dispatch[gameID]
	s.dispatchMu.Unlock()
	assert.False(t, held)
}

func TestHandshakeAuth(t *testing.T) {
	s := testServer(t)

	const ua, lang = "test-agent", "en"
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Language", lang)

	token, rec, err := s.sessions.CreateAnonymous(context.Background(), ua, lang, req.RemoteAddr)
	require.NoError(t, err)

	req.URL.RawQuery = url.Values{"anonymousSessionToken": {token}}.Encode()
	id, err := s.authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, id)

	t.Run("AccessToken", func(t *testing.T) {
		access, err := s.sessions.IssueAccess("user-7")
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodGet, "/ws?token="+url.QueryEscape(access), nil)
		id, err := s.authenticate(r)
		require.NoError(t, err)
		assert.Equal(t, "user-7", id)
	})

	t.Run("Rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		_, err := s.authenticate(r)
		assert.Error(t, err)

		r = httptest.NewRequest(http.MethodGet, "/ws?token=garbage", nil)
		_, err = s.authenticate(r)
		assert.Error(t, err)
	})
}

func TestCreateSessionEndpoint(t *testing.T) {
	s := testServer(t)
	h := s.Routes()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.Token)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCreateGameRulesetSelection(t *testing.T) {
	overlay := ruleset.Standard()
	overlay.RulesetType = "custom"
	overlay.InitialBattlePoints = 25

	newServerWith := func(t *testing.T, ov *ruleset.Config) *Server {
		st, err := store.OpenInMemory()
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		return New(game.NewManager(st), st, session.NewManager(st, []byte("0123456789abcdef0123456789abcdef")), ov)
	}

	post := func(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
		access, err := s.sessions.IssueAccess("user-1")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/games?token="+url.QueryEscape(access),
			bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		s.Routes().ServeHTTP(rr, req)
		return rr
	}

	t.Run("OverlayServesCustom", func(t *testing.T) {
		s := newServerWith(t, &overlay)
		rr := post(t, s, `{"ruleset":"custom"}`)
		require.Equal(t, http.StatusCreated, rr.Code)

		var summary gameSummary
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
		assert.Equal(t, "custom", summary.RulesetType)

		g, err := s.games.Get(context.Background(), summary.GameID)
		require.NoError(t, err)
		assert.Equal(t, 25, g.Config.InitialBattlePoints)
	})

	t.Run("OverlayIsTheDefault", func(t *testing.T) {
		s := newServerWith(t, &overlay)
		rr := post(t, s, `{}`)
		require.Equal(t, http.StatusCreated, rr.Code)

		var summary gameSummary
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
		assert.Equal(t, "custom", summary.RulesetType)
	})

	t.Run("NamedProfilesStillWin", func(t *testing.T) {
		s := newServerWith(t, &overlay)
		rr := post(t, s, `{"ruleset":"beginner"}`)
		require.Equal(t, http.StatusCreated, rr.Code)

		var summary gameSummary
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
		assert.Equal(t, ruleset.ProfileBeginner, summary.RulesetType)
	})

	t.Run("CustomWithoutOverlayRejected", func(t *testing.T) {
		s := newServerWith(t, nil)
		rr := post(t, s, `{"ruleset":"custom"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
