// Package duel implements the sealed-bid Battle Point auction that
// resolves capture attempts. A capture admitted by the kernel is not
// applied to the board; instead a Pending duel collects one secret
// allocation from each player and resolves them together.
package duel

import (
	"errors"
	"fmt"

	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

var (
	// ErrAlreadyAllocated is returned when a player submits twice.
	ErrAlreadyAllocated = errors.New("allocation already submitted")
	// ErrInsufficientBP is returned when the effective cost exceeds the
	// player's pool.
	ErrInsufficientBP = errors.New("insufficient battle points")
	// ErrNegativeAllocation is returned for amounts below zero.
	ErrNegativeAllocation = errors.New("allocation must be non-negative")
	// ErrIncomplete is returned when resolving before both allocations
	// are in.
	ErrIncomplete = errors.New("duel is missing an allocation")
)

// Pending is a capture attempt frozen mid-resolution. The board still
// shows the position from before the attempted capture.
type Pending struct {
	Move     string     `json:"move"` // UCI
	MoveCode board.Move `json:"moveCode"`

	From          board.Square `json:"from"`
	To            board.Square `json:"to"`
	CaptureSquare board.Square `json:"captureSquare"` // differs from To on en passant

	AttackerColor board.Color     `json:"attackerColor"`
	AttackerKind  board.PieceType `json:"attackerKind"`
	DefenderKind  board.PieceType `json:"defenderKind"`

	// Allocations indexed by color; nil until submitted. Write-once.
	Allocations [2]*int `json:"allocations"`
}

// NewPending freezes a capture move against the current position.
func NewPending(pos *board.Position, m board.Move) (*Pending, error) {
	attacker := pos.PieceAt(m.From())
	if attacker == board.NoPiece {
		return nil, fmt.Errorf("no piece on %s", m.From())
	}

	capSq := m.To()
	if m.IsEnPassant() {
		// The captured pawn sits beside the destination.
		if attacker.Color() == board.White {
			capSq = m.To() - 8
		} else {
			capSq = m.To() + 8
		}
	}
	defender := pos.PieceAt(capSq)
	if defender == board.NoPiece {
		return nil, fmt.Errorf("no capture target on %s", capSq)
	}

	return &Pending{
		Move:          m.String(),
		MoveCode:      m,
		From:          m.From(),
		To:            m.To(),
		CaptureSquare: capSq,
		AttackerColor: attacker.Color(),
		AttackerKind:  attacker.Type(),
		DefenderKind:  defender.Type(),
	}, nil
}

// DefenderColor returns the color defending the capture.
func (d *Pending) DefenderColor() board.Color {
	return d.AttackerColor.Other()
}

// Allocated reports whether the given color has already committed.
func (d *Pending) Allocated(c board.Color) bool {
	return d.Allocations[c] != nil
}

// Complete reports whether both allocations are in.
func (d *Pending) Complete() bool {
	return d.Allocations[board.White] != nil && d.Allocations[board.Black] != nil
}

// kindFor returns the piece kind the given color is bidding with.
func (d *Pending) kindFor(c board.Color) board.PieceType {
	if c == d.AttackerColor {
		return d.AttackerKind
	}
	return d.DefenderKind
}

// Submit commits an allocation for one color. The amount is clamped to
// MaxPieceBattlePoints; validation compares the effective cost against
// the player's available BP. Returns the clamped nominal amount stored.
func (d *Pending) Submit(cfg *ruleset.Config, c board.Color, amount, available int) (int, error) {
	if d.Allocated(c) {
		return 0, ErrAlreadyAllocated
	}
	if amount < 0 {
		return 0, ErrNegativeAllocation
	}
	if amount > cfg.MaxPieceBattlePoints {
		amount = cfg.MaxPieceBattlePoints
	}
	if cfg.EffectiveAllocation(d.kindFor(c), amount) > available {
		return 0, ErrInsufficientBP
	}
	a := amount
	d.Allocations[c] = &a
	return amount, nil
}

// Outcome is a resolved duel: both revealed bids, their effective values,
// the pool debits, and the winner.
type Outcome struct {
	AttackerAllocation int  `json:"attackerAllocation"`
	DefenderAllocation int  `json:"defenderAllocation"`
	AttackerEffective  int  `json:"-"`
	DefenderEffective  int  `json:"-"`
	AttackerCost       int  `json:"-"`
	DefenderCost       int  `json:"-"`
	AttackerWon        bool `json:"attackerWon"`
}

// Resolve reveals both allocations and decides the capture. The result
// depends only on the committed amounts, never on arrival order.
func (d *Pending) Resolve(cfg *ruleset.Config) (Outcome, error) {
	if !d.Complete() {
		return Outcome{}, ErrIncomplete
	}

	atk := *d.Allocations[d.AttackerColor]
	def := *d.Allocations[d.DefenderColor()]

	out := Outcome{
		AttackerAllocation: atk,
		DefenderAllocation: def,
		AttackerEffective:  cfg.EffectiveAllocation(d.AttackerKind, atk),
		DefenderEffective:  cfg.EffectiveAllocation(d.DefenderKind, def),
		AttackerCost:       cfg.AllocationCost(d.AttackerKind, atk),
		DefenderCost:       cfg.AllocationCost(d.DefenderKind, def),
	}

	if out.AttackerEffective > out.DefenderEffective {
		out.AttackerWon = true
	} else if out.AttackerEffective == out.DefenderEffective {
		out.AttackerWon = !cfg.DuelResolution.DefenderWinsTies
	}
	return out, nil
}
