package server

import (
	"encoding/json"
	"time"
)

// Client to server message types.
const (
	MsgGameJoin            = "game:join"
	MsgGameMove            = "game:move"
	MsgGameDuelAllocation  = "game:duel_allocation"
	MsgGameTacticalRetreat = "game:tactical_retreat"
	MsgGameGetState        = "game:get_state"
	MsgGameResign          = "game:resign"
	MsgGameOfferDraw       = "game:offer_draw"
	MsgGameRespondDraw     = "game:respond_draw"
	MsgGameChat            = "game:chat"
	MsgConnectionPing      = "connection:ping"
)

// Server to client message types.
const (
	MsgGameState              = "game:state"
	MsgGameStateUpdated       = "game:state_updated"
	MsgGameEvent              = "game:event"
	MsgGameMoveInvalid        = "game:move_invalid"
	MsgGameDuelInitiated      = "game:duel_initiated"
	MsgGameAllocConfirmed     = "game:duel_allocation_confirmed"
	MsgGameDuelResolved       = "game:duel_resolved"
	MsgGameTacticalRetreatOut = "game:tactical_retreat"
	MsgGameBPUpdated          = "game:battle_points_updated"
	MsgGamePlayerConnected    = "game:player_connected"
	MsgGamePlayerDisconnected = "game:player_disconnected"
	MsgGameEnded              = "game:ended"
	MsgGameError              = "game:error"
	MsgConnectionPong         = "connection:pong"
)

// Frame is the wire envelope for every WebSocket message, both ways.
type Frame struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  int64           `json:"sequence"`
}

// newFrame marshals a payload into an outbound frame.
func newFrame(typ string, seq int64, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: typ, Payload: raw, Timestamp: time.Now().UTC(), Sequence: seq}, nil
}

// JoinPayload accompanies game:join.
type JoinPayload struct {
	GameID string `json:"gameId"`
	// AfterSequence resumes event replay from this sequence number on
	// reconnect; zero replays the whole retained ring.
	AfterSequence int64 `json:"afterSequence,omitempty"`
}

// MovePayload accompanies game:move.
type MovePayload struct {
	GameID string `json:"gameId"`
	Move   string `json:"move"` // UCI
}

// AllocationPayload accompanies game:duel_allocation.
type AllocationPayload struct {
	GameID string `json:"gameId"`
	Amount int    `json:"amount"`
}

// RetreatPayload accompanies game:tactical_retreat.
type RetreatPayload struct {
	GameID string `json:"gameId"`
	Square string `json:"square"`
}

// GameRefPayload is the common single-field payload naming a game.
type GameRefPayload struct {
	GameID string `json:"gameId"`
}

// RespondDrawPayload accompanies game:respond_draw.
type RespondDrawPayload struct {
	GameID string `json:"gameId"`
	Accept bool   `json:"accept"`
}

// ChatPayload accompanies game:chat both ways.
type ChatPayload struct {
	GameID string `json:"gameId"`
	From   string `json:"from,omitempty"`
	Text   string `json:"text"`
}

// ErrorPayload accompanies game:error and game:move_invalid.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PresencePayload accompanies player connect/disconnect notices.
type PresencePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}
