// Package tactics detects the tactical patterns that drive BP
// regeneration: checks, discovered attacks, pins, skewers, forks, and
// direct defenses. Detection is a pure before/after comparison; only
// patterns created by the move award points.
package tactics

import (
	"fmt"

	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

// Pattern is one detected tactical motif by the mover against the opponent.
type Pattern struct {
	Type     string       // ruleset.Tactic* identifier
	Attacker board.Square // piece producing the motif
	Target   board.Square // primary target square

	// Formula inputs, populated per pattern type.
	PinnedPieceValue int
	IsPinnedToKing   bool
	IsDoubleCheck    bool
	SkeweredValue    int
	BehindValue      int
	AttackedValue    int
	DefendedValue    int
	ForkedValues     []int
}

// key identifies a pattern across positions so that pre-existing motifs
// can be subtracted out.
func (p Pattern) key() string {
	return fmt.Sprintf("%s/%s/%s", p.Type, p.Attacker, p.Target)
}

// DetectNew returns the patterns the mover created with the given move:
// every motif present after the move that was not already present before
// it. Check patterns are classified against the move (direct, discovered,
// or double).
func DetectNew(cfg *ruleset.Config, before, after *board.Position, mover board.Color, move board.Move) []Pattern {
	prior := make(map[string]bool)
	for _, p := range staticPatterns(cfg, before, mover) {
		prior[p.key()] = true
	}
	priorAttacks := sliderAttackPairs(before, mover)

	var out []Pattern

	out = append(out, checkPatterns(after, mover, move)...)

	// Discovered attacks: a slider that did not move now attacks an enemy
	// piece it could not reach before the move.
	them := mover.Other()
	for pair := range sliderAttackPairs(after, mover) {
		if priorAttacks[pair] {
			continue
		}
		if pair.attacker == move.To() {
			continue // the moved piece attacks directly, not by discovery
		}
		target := after.PieceAt(pair.target)
		if target == board.NoPiece || target.Color() != them || target.Type() == board.King {
			continue
		}
		out = append(out, Pattern{
			Type:          ruleset.TacticDiscoveredAttack,
			Attacker:      pair.attacker,
			Target:        pair.target,
			AttackedValue: cfg.PieceValues.Value(target.Type()),
		})
	}

	for _, p := range staticPatterns(cfg, after, mover) {
		if !prior[p.key()] {
			out = append(out, p)
		}
	}

	return out
}

type attackPair struct {
	attacker, target board.Square
}

// sliderAttackPairs collects every (slider, enemy piece) attack pair for
// the given color. Used to recognize rays opened by a move.
func sliderAttackPairs(pos *board.Position, c board.Color) map[attackPair]bool {
	pairs := make(map[attackPair]bool)
	them := c.Other()
	for _, pt := range []board.PieceType{board.Bishop, board.Rook, board.Queen} {
		sliders := pos.Pieces[c][pt]
		for sliders != 0 {
			from := sliders.PopLSB()
			attacks := board.PieceAttacks(pt, c, from, pos.AllOccupied) & pos.Occupied[them]
			for attacks != 0 {
				pairs[attackPair{attacker: from, target: attacks.PopLSB()}] = true
			}
		}
	}
	return pairs
}

// checkPatterns classifies checks delivered to the opponent king.
func checkPatterns(pos *board.Position, mover board.Color, move board.Move) []Pattern {
	them := mover.Other()
	kingSq := pos.KingSquare[them]
	checkers := pos.Checkers(them)

	switch checkers.PopCount() {
	case 0:
		return nil
	case 1:
		checker := checkers.LSB()
		typ := ruleset.TacticCheck
		if checker != move.To() {
			typ = ruleset.TacticDiscoveredCheck
		}
		return []Pattern{{Type: typ, Attacker: checker, Target: kingSq}}
	default:
		return []Pattern{{
			Type:          ruleset.TacticDoubleCheck,
			Attacker:      checkers.LSB(),
			Target:        kingSq,
			IsDoubleCheck: true,
		}}
	}
}

// staticPatterns enumerates pins, skewers, forks, and direct defenses held
// by the given color in a position, without move context.
func staticPatterns(cfg *ruleset.Config, pos *board.Position, c board.Color) []Pattern {
	var out []Pattern
	out = append(out, linePatterns(cfg, pos, c)...)
	out = append(out, forkPatterns(cfg, pos, c)...)
	if rule, ok := cfg.Regeneration.Tactics[ruleset.TacticDirectDefense]; ok && rule.Enabled {
		out = append(out, defensePatterns(cfg, pos, c)...)
	}
	return out
}

// linePatterns finds pins and skewers: two enemy pieces on one of our
// sliders' rays. Front piece less valuable than the back piece is a pin;
// front more valuable is a skewer.
func linePatterns(cfg *ruleset.Config, pos *board.Position, c board.Color) []Pattern {
	var out []Pattern
	them := c.Other()

	for _, pt := range []board.PieceType{board.Bishop, board.Rook, board.Queen} {
		sliders := pos.Pieces[c][pt]
		for sliders != 0 {
			from := sliders.PopLSB()
			for _, d := range sliderDirections(pt) {
				front, back := firstTwoOnRay(pos, from, d)
				if front == board.NoSquare || back == board.NoSquare {
					continue
				}
				frontPiece := pos.PieceAt(front)
				backPiece := pos.PieceAt(back)
				if frontPiece.Color() != them || backPiece.Color() != them {
					continue
				}

				frontVal := cfg.PieceValues.Value(frontPiece.Type())
				backVal := cfg.PieceValues.Value(backPiece.Type())

				switch {
				case backPiece.Type() == board.King:
					out = append(out, Pattern{
						Type:             ruleset.TacticPin,
						Attacker:         from,
						Target:           front,
						PinnedPieceValue: frontVal,
						IsPinnedToKing:   true,
					})
				case frontPiece.Type() == board.King:
					// King in front is a check line, handled elsewhere.
				case backVal > frontVal:
					out = append(out, Pattern{
						Type:             ruleset.TacticPin,
						Attacker:         from,
						Target:           front,
						PinnedPieceValue: frontVal,
					})
				case frontVal > backVal:
					out = append(out, Pattern{
						Type:          ruleset.TacticSkewer,
						Attacker:      from,
						Target:        front,
						SkeweredValue: frontVal,
						BehindValue:   backVal,
					})
				}
			}
		}
	}
	return out
}

func sliderDirections(pt board.PieceType) [][2]int {
	diag := [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	straight := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	switch pt {
	case board.Bishop:
		return diag
	case board.Rook:
		return straight
	default:
		return append(append([][2]int{}, diag...), straight...)
	}
}

// firstTwoOnRay returns the first two occupied squares along a ray.
func firstTwoOnRay(pos *board.Position, from board.Square, d [2]int) (board.Square, board.Square) {
	first, second := board.NoSquare, board.NoSquare
	f, r := from.File()+d[0], from.Rank()+d[1]
	for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
		sq := board.NewSquare(f, r)
		if !pos.IsEmpty(sq) {
			if first == board.NoSquare {
				first = sq
			} else {
				second = sq
				break
			}
		}
		f, r = f+d[0], r+d[1]
	}
	return first, second
}

// forkPatterns finds single pieces attacking two or more worthwhile
// targets: enemy pieces more valuable than the forker, the king, or
// undefended pieces.
func forkPatterns(cfg *ruleset.Config, pos *board.Position, c board.Color) []Pattern {
	var out []Pattern
	them := c.Other()

	for pt := board.Pawn; pt <= board.King; pt++ {
		pieces := pos.Pieces[c][pt]
		forkerVal := cfg.PieceValues.Value(pt)
		for pieces != 0 {
			from := pieces.PopLSB()
			targets := board.PieceAttacks(pt, c, from, pos.AllOccupied) & pos.Occupied[them]

			count := 0
			var values []int
			for targets != 0 {
				sq := targets.PopLSB()
				victim := pos.PieceAt(sq)
				victimVal := cfg.PieceValues.Value(victim.Type())

				worthwhile := victim.Type() == board.King ||
					victimVal > forkerVal ||
					pos.AttackersByColor(sq, them, pos.AllOccupied&^board.SquareBB(sq)) == 0
				if !worthwhile {
					continue
				}
				count++
				// The king contributes to the fork but carries no
				// exchangeable value.
				if victim.Type() != board.King {
					values = append(values, victimVal)
				}
			}

			if count >= 2 && len(values) > 0 {
				out = append(out, Pattern{
					Type:         ruleset.TacticFork,
					Attacker:     from,
					Target:       from,
					ForkedValues: values,
				})
			}
		}
	}
	return out
}

// defensePatterns finds friendly pieces defending other friendly pieces
// (profile-gated).
func defensePatterns(cfg *ruleset.Config, pos *board.Position, c board.Color) []Pattern {
	var out []Pattern
	for pt := board.Pawn; pt <= board.King; pt++ {
		pieces := pos.Pieces[c][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			defended := board.PieceAttacks(pt, c, from, pos.AllOccupied) & pos.Occupied[c]
			for defended != 0 {
				sq := defended.PopLSB()
				out = append(out, Pattern{
					Type:          ruleset.TacticDirectDefense,
					Attacker:      from,
					Target:        sq,
					DefendedValue: cfg.PieceValues.Value(pos.PieceAt(sq).Type()),
				})
			}
		}
	}
	return out
}
