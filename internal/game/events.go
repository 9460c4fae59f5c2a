package game

import (
	"time"

	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/retreat"
	"github.com/cango91/gambit-chess-sub005/internal/tactics"
)

// EventType identifies a game event.
type EventType string

const (
	EventMoveMade            EventType = "MOVE_MADE"
	EventDuelStarted         EventType = "DUEL_STARTED"
	EventAllocationSubmitted EventType = "ALLOCATION_SUBMITTED"
	EventDuelResolved        EventType = "DUEL_RESOLVED"
	EventRetreatOptions      EventType = "TACTICAL_RETREAT_OPTIONS"
	EventRetreatMade         EventType = "TACTICAL_RETREAT_MADE"
	EventBPUpdated           EventType = "BP_UPDATED"
	EventGameOver            EventType = "GAME_OVER"
)

// Event is one entry of a game's event log. Recipient restricts directed
// events to a single player id; empty means broadcast to the room.
type Event struct {
	Sequence  int64     `json:"sequence"`
	Type      EventType `json:"type"`
	GameID    string    `json:"gameId"`
	Recipient string    `json:"recipient,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// MoveMadePayload accompanies MOVE_MADE.
type MoveMadePayload struct {
	Record MoveRecord  `json:"record"`
	FEN    string      `json:"fen"`
	Turn   board.Color `json:"turn"`
}

// DuelStartedPayload accompanies DUEL_STARTED.
type DuelStartedPayload struct {
	Move          string          `json:"move"`
	AttackerColor board.Color     `json:"attackerColor"`
	AttackerKind  board.PieceType `json:"attackerKind"`
	DefenderKind  board.PieceType `json:"defenderKind"`
	TargetSquare  board.Square    `json:"targetSquare"`
}

// AllocationSubmittedPayload accompanies ALLOCATION_SUBMITTED, delivered
// to the submitter only.
type AllocationSubmittedPayload struct {
	Color  board.Color `json:"color"`
	Amount int         `json:"amount"`
}

// DuelResolvedPayload accompanies DUEL_RESOLVED. Both allocations are
// revealed at resolution.
type DuelResolvedPayload struct {
	Move               string      `json:"move"`
	AttackerColor      board.Color `json:"attackerColor"`
	AttackerAllocation int         `json:"attackerAllocation"`
	DefenderAllocation int         `json:"defenderAllocation"`
	AttackerWon        bool        `json:"attackerWon"`
}

// RetreatOptionsPayload accompanies TACTICAL_RETREAT_OPTIONS, delivered
// to the failed attacker only.
type RetreatOptionsPayload struct {
	Origin  board.Square     `json:"origin"`
	Options []retreat.Option `json:"options"`
}

// RetreatMadePayload accompanies TACTICAL_RETREAT_MADE.
type RetreatMadePayload struct {
	Color board.Color  `json:"color"`
	From  board.Square `json:"from"`
	To    board.Square `json:"to"`
	Cost  int          `json:"cost"`
	FEN   string       `json:"fen"`
	Turn  board.Color  `json:"turn"`
}

// BPUpdatedPayload accompanies BP_UPDATED, delivered per recipient; the
// regeneration report goes to the owning player only.
type BPUpdatedPayload struct {
	Color        board.Color     `json:"color"`
	BattlePoints int             `json:"battlePoints"`
	Report       *tactics.Report `json:"report,omitempty"`
}

// GameOverPayload accompanies GAME_OVER.
type GameOverPayload struct {
	Status Status `json:"status"`
	Result string `json:"result"`
	Reason string `json:"reason"`
	FEN    string `json:"fen"`
}
