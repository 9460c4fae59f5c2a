package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cango91/gambit-chess-sub005/internal/game"
)

// handleFrame routes one inbound frame.
func (s *Server) handleFrame(c *client, frame Frame) {
	switch frame.Type {
	case MsgConnectionPing:
		c.enqueue(MsgConnectionPong, struct{}{})

	case MsgGameJoin:
		var p JoinPayload
		if !decodePayload(c, frame, &p) {
			return
		}
		s.handleJoin(c, p)

	case MsgGameGetState:
		var p GameRefPayload
		if !decodePayload(c, frame, &p) {
			return
		}
		g, err := s.games.Get(context.Background(), p.GameID)
		if err != nil {
			s.sendError(c, MsgGameError, err)
			return
		}
		c.enqueue(MsgGameState, g.ViewFor(c.identity))

	case MsgGameMove:
		var p MovePayload
		if !decodePayload(c, frame, &p) {
			return
		}
		s.apply(c, p.GameID, MsgGameMoveInvalid, func(g *game.GameState) ([]game.Event, error) {
			return g.HandleMove(c.identity, p.Move)
		})

	case MsgGameDuelAllocation:
		var p AllocationPayload
		if !decodePayload(c, frame, &p) {
			return
		}
		s.apply(c, p.GameID, MsgGameError, func(g *game.GameState) ([]game.Event, error) {
			return g.HandleAllocate(c.identity, p.Amount)
		})

	case MsgGameTacticalRetreat:
		var p RetreatPayload
		if !decodePayload(c, frame, &p) {
			return
		}
		s.apply(c, p.GameID, MsgGameError, func(g *game.GameState) ([]game.Event, error) {
			return g.HandleRetreat(c.identity, p.Square)
		})

	case MsgGameResign:
		var p GameRefPayload
		if !decodePayload(c, frame, &p) {
			return
		}
		s.apply(c, p.GameID, MsgGameError, func(g *game.GameState) ([]game.Event, error) {
			return g.HandleResign(c.identity)
		})

	case MsgGameOfferDraw:
		var p GameRefPayload
		if !decodePayload(c, frame, &p) {
			return
		}
		s.apply(c, p.GameID, MsgGameError, func(g *game.GameState) ([]game.Event, error) {
			return g.HandleOfferDraw(c.identity)
		})

	case MsgGameRespondDraw:
		var p RespondDrawPayload
		if !decodePayload(c, frame, &p) {
			return
		}
		s.apply(c, p.GameID, MsgGameError, func(g *game.GameState) ([]game.Event, error) {
			return g.HandleRespondDraw(c.identity, p.Accept)
		})

	case MsgGameChat:
		var p ChatPayload
		if !decodePayload(c, frame, &p) {
			return
		}
		p.From = c.identity
		for _, other := range s.hub.clientsIn(p.GameID) {
			other.enqueue(MsgGameChat, p)
		}

	default:
		c.enqueue(MsgGameError, ErrorPayload{
			Code:    game.CodeInvalidAction,
			Message: "unknown message type " + frame.Type,
		})
	}
}

// handleJoin seats (or re-seats) the client, moves it into the room,
// sends the filtered snapshot, and replays missed events.
func (s *Server) handleJoin(c *client, p JoinPayload) {
	ctx := context.Background()

	mu := s.gameLock(p.GameID)
	mu.Lock()
	defer mu.Unlock()

	g, _, err := s.games.Apply(ctx, p.GameID, func(g *game.GameState) ([]game.Event, error) {
		return g.HandleJoin(c.identity)
	})
	if err != nil {
		// Spectators cannot join a full game but may still watch.
		var gerr *game.Error
		if errors.As(err, &gerr) && gerr.Code == game.CodeInvalidAction {
			if g, gerr2 := s.games.Get(ctx, p.GameID); gerr2 == nil {
				s.enterRoom(c, g, p.AfterSequence)
				return
			}
		}
		s.sendError(c, MsgGameError, err)
		return
	}

	s.enterRoom(c, g, p.AfterSequence)

	for _, other := range s.hub.clientsIn(p.GameID) {
		if other != c {
			other.enqueue(MsgGamePlayerConnected, PresencePayload{
				GameID:   p.GameID,
				PlayerID: c.identity,
			})
		}
	}
}

// enterRoom places the client in the room, replays the retained event
// ring past the client's last seen sequence, and sends a fresh snapshot.
func (s *Server) enterRoom(c *client, g *game.GameState, afterSeq int64) {
	s.hub.join(g.ID, c)

	events, err := s.store.LoadEvents(context.Background(), g.ID, afterSeq)
	if err != nil {
		log.Warningf("game %s: loading replay ring: %v", g.ID, err)
	}
	for _, ev := range events {
		if fev, ok := g.FilterEvent(ev, c.identity, true); ok {
			c.enqueue(messageTypeFor(fev.Type), fev)
		}
	}

	c.enqueue(MsgGameState, g.ViewFor(c.identity))
}

// apply runs a mutation and, on success, fans its events out to the
// room. The game's dispatch lock is held across both steps so two
// concurrent mutations cannot interleave their event streams. errType
// names the message used for validation failures.
func (s *Server) apply(c *client, gameID, errType string, fn func(*game.GameState) ([]game.Event, error)) {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	g, events, err := s.games.Apply(context.Background(), gameID, fn)
	if err != nil {
		s.sendError(c, errType, err)
		return
	}
	s.dispatchEvents(gameID, g, events)
	if g.Status.Terminal() {
		s.dropGameLock(gameID)
	}
}

// dispatchEvents delivers committed events and the refreshed
// per-recipient snapshots to everyone in the room, in production order.
// Callers hold the game's dispatch lock.
func (s *Server) dispatchEvents(gameID string, g *game.GameState, events []game.Event) {
	clients := s.hub.clientsIn(gameID)

	for _, ev := range events {
		msgType := messageTypeFor(ev.Type)
		for _, cl := range clients {
			if fev, ok := g.FilterEvent(ev, cl.identity, false); ok {
				cl.enqueue(msgType, fev)
			}
		}
	}

	for _, cl := range clients {
		cl.enqueue(MsgGameStateUpdated, g.ViewFor(cl.identity))
	}
}

// messageTypeFor maps event log entries to wire message types.
func messageTypeFor(t game.EventType) string {
	switch t {
	case game.EventDuelStarted:
		return MsgGameDuelInitiated
	case game.EventAllocationSubmitted:
		return MsgGameAllocConfirmed
	case game.EventDuelResolved:
		return MsgGameDuelResolved
	case game.EventRetreatOptions:
		return MsgGameTacticalRetreatOut
	case game.EventBPUpdated:
		return MsgGameBPUpdated
	case game.EventGameOver:
		return MsgGameEnded
	default:
		return MsgGameEvent
	}
}

// sendError turns an error into an outbound error frame.
func (s *Server) sendError(c *client, msgType string, err error) {
	var gerr *game.Error
	if !errors.As(err, &gerr) {
		c.enqueue(MsgGameError, ErrorPayload{Code: game.CodeServerError, Message: err.Error()})
		return
	}
	if gerr.Code != game.CodeIllegalMove && gerr.Code != game.CodeWrongTurn {
		msgType = MsgGameError
	}
	c.enqueue(msgType, ErrorPayload{Code: gerr.Code, Message: gerr.Message})
}

func decodePayload(c *client, frame Frame, v any) bool {
	if err := json.Unmarshal(frame.Payload, v); err != nil {
		c.enqueue(MsgGameError, ErrorPayload{
			Code:    game.CodeInvalidAction,
			Message: "malformed payload for " + frame.Type,
		})
		return false
	}
	return true
}
