// Package game implements the per-game Gambit Chess state machine: seat
// management, move and duel handling, tactical retreats, draw offers,
// terminal detection, the event log, and per-recipient view filtering.
package game

import (
	"time"

	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/duel"
	"github.com/cango91/gambit-chess-sub005/internal/retreat"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
	"github.com/cango91/gambit-chess-sub005/internal/tactics"
)

// Status is the lifecycle phase of a game.
type Status string

const (
	StatusWaitingForPlayers Status = "WAITING_FOR_PLAYERS"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusDuelInProgress    Status = "DUEL_IN_PROGRESS"
	StatusRetreatDecision   Status = "TACTICAL_RETREAT_DECISION"
	StatusCheckmate         Status = "CHECKMATE"
	StatusStalemate         Status = "STALEMATE"
	StatusDraw              Status = "DRAW"
	StatusResigned          Status = "RESIGNED"
	StatusAbandoned         Status = "ABANDONED"
)

// Terminal reports whether the game has ended.
func (s Status) Terminal() bool {
	switch s {
	case StatusCheckmate, StatusStalemate, StatusDraw, StatusResigned, StatusAbandoned:
		return true
	}
	return false
}

// Game results and end reasons, as archived.
const (
	ResultWhite = "white"
	ResultBlack = "black"
	ResultDraw  = "draw"

	ReasonCheckmate    = "checkmate"
	ReasonStalemate    = "stalemate"
	ReasonResignation  = "resignation"
	ReasonAgreement    = "draw_agreement"
	ReasonFiftyMove    = "fifty_move_rule"
	ReasonThreefold    = "threefold_repetition"
	ReasonInsufficient = "insufficient_material"
	ReasonAbandonment  = "abandonment"
)

func resultFor(winner board.Color) string {
	if winner == board.White {
		return ResultWhite
	}
	return ResultBlack
}

// Player is one seated participant.
type Player struct {
	ID           string      `json:"id"`
	Color        board.Color `json:"color"`
	BattlePoints int         `json:"battlePoints"`
}

// DuelRecord is a resolved duel as it appears in the move history. Both
// allocations are public once the duel resolves, subject to the
// information-hiding config.
type DuelRecord struct {
	AttackerAllocation int  `json:"attackerAllocation"`
	DefenderAllocation int  `json:"defenderAllocation"`
	AttackerWon        bool `json:"attackerWon"`
}

// RetreatRecord is a completed tactical retreat in the move history.
type RetreatRecord struct {
	To   board.Square `json:"to"`
	Cost int          `json:"cost"`
}

// MoveRecord is one entry of the append-only move history.
type MoveRecord struct {
	Number         int            `json:"number"`
	Color          board.Color    `json:"color"`
	Move           string         `json:"move"`
	CaptureAttempt bool           `json:"captureAttempt"`
	Duel           *DuelRecord    `json:"duel,omitempty"`
	Retreat        *RetreatRecord `json:"retreat,omitempty"`
	Regeneration   int            `json:"regeneration"`
}

// GameState is the complete authoritative state of one game. It is
// mutated only through the Handle* operations, always on a draft copy
// committed by the manager.
type GameState struct {
	ID     string         `json:"id"`
	Status Status         `json:"status"`
	Config ruleset.Config `json:"config"`

	Position    *board.Position `json:"position"`
	CurrentTurn board.Color     `json:"currentTurn"`

	// Players indexed by color; nil until seated.
	Players [2]*Player `json:"players"`

	MoveHistory     []MoveRecord     `json:"moveHistory"`
	PositionHistory []string         `json:"positionHistory"`
	PendingDuel     *duel.Pending    `json:"pendingDuel,omitempty"`
	PendingOutcome  *DuelRecord      `json:"pendingOutcome,omitempty"`
	RetreatOptions  []retreat.Option `json:"retreatOptions,omitempty"`

	// LastReport is the most recent regeneration report, visible to
	// LastReportFor only.
	LastReport    *tactics.Report `json:"lastReport,omitempty"`
	LastReportFor board.Color     `json:"lastReportFor"`

	DrawOfferBy *board.Color `json:"drawOfferBy,omitempty"`

	Result string `json:"result,omitempty"`
	Reason string `json:"reason,omitempty"`

	// Poisoned marks a game whose invariants were violated; every input
	// is rejected until an operator intervenes.
	Poisoned bool `json:"poisoned,omitempty"`

	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates an empty game awaiting players.
func New(id string, cfg ruleset.Config) *GameState {
	now := time.Now().UTC()
	pos := board.NewPosition()
	return &GameState{
		ID:          id,
		Status:      StatusWaitingForPlayers,
		Config:      cfg,
		Position:    pos,
		CurrentTurn: board.White,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone deep-copies the state for copy-on-write mutation.
func (g *GameState) Clone() *GameState {
	c := *g
	c.Position = g.Position.Copy()

	for i, p := range g.Players {
		if p != nil {
			cp := *p
			c.Players[i] = &cp
		}
	}

	c.MoveHistory = append([]MoveRecord(nil), g.MoveHistory...)
	c.PositionHistory = append([]string(nil), g.PositionHistory...)
	c.RetreatOptions = append([]retreat.Option(nil), g.RetreatOptions...)

	if g.PendingDuel != nil {
		d := *g.PendingDuel
		for i, a := range g.PendingDuel.Allocations {
			if a != nil {
				v := *a
				d.Allocations[i] = &v
			}
		}
		c.PendingDuel = &d
	}
	if g.PendingOutcome != nil {
		o := *g.PendingOutcome
		c.PendingOutcome = &o
	}
	if g.LastReport != nil {
		r := *g.LastReport
		r.Contributions = append([]tactics.Contribution(nil), g.LastReport.Contributions...)
		c.LastReport = &r
	}
	if g.DrawOfferBy != nil {
		d := *g.DrawOfferBy
		c.DrawOfferBy = &d
	}
	return &c
}

// PlayerByID returns the seated player with the given id.
func (g *GameState) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByColor returns the seated player of the given color.
func (g *GameState) PlayerByColor(c board.Color) *Player {
	if c >= board.NoColor {
		return nil
	}
	return g.Players[c]
}

// Seated reports whether both seats are taken.
func (g *GameState) Seated() bool {
	return g.Players[board.White] != nil && g.Players[board.Black] != nil
}

// emit appends an event with the next sequence number.
func (g *GameState) emit(events *[]Event, typ EventType, recipient string, payload any) {
	g.Seq++
	*events = append(*events, Event{
		Sequence:  g.Seq,
		Type:      typ,
		GameID:    g.ID,
		Recipient: recipient,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

// repetitionCount counts occurrences of the current position fingerprint.
func (g *GameState) repetitionCount() int {
	key := g.Position.RepetitionKey()
	n := 0
	for _, k := range g.PositionHistory {
		if k == key {
			n++
		}
	}
	return n
}

// creditBP adds regenerated BP to a player, honoring the optional pool cap.
func (g *GameState) creditBP(p *Player, amount int) {
	p.BattlePoints += amount
	if max := g.Config.MaxPlayerBP; max > 0 && p.BattlePoints > max {
		p.BattlePoints = max
	}
}
