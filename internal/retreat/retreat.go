package retreat

import (
	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

// Options enumerates the retreat choices for an attacker of the given kind
// on origin whose capture attempt on target was defeated. The position is
// the board as it stood when the duel started: the attacker still occupies
// origin and the defender still occupies target.
//
// The origin square is always present. Sliding pieces retreat along the
// attack line through empty squares; knights retreat inside the bounding
// rectangle at knight-hop cost; pawns and kings only return to origin.
func Options(pos *board.Position, cfg *ruleset.Config, kind board.PieceType, origin, target board.Square) []Option {
	originOpt := Option{Square: origin, Cost: originCost(cfg)}

	if !cfg.TacticalRetreat.Enabled {
		return []Option{originOpt}
	}

	switch {
	case kind.IsSlider() && cfg.TacticalRetreat.LongRangeEnabled:
		return slidingOptions(pos, cfg, origin, target, originOpt)
	case kind == board.Knight && cfg.TacticalRetreat.KnightsEnabled:
		return knightBoardOptions(pos, cfg, origin, target, originOpt)
	default:
		return []Option{originOpt}
	}
}

// FindOption returns the option for a given square, if present.
func FindOption(opts []Option, sq board.Square) (Option, bool) {
	for _, o := range opts {
		if o.Square == sq {
			return o, true
		}
	}
	return Option{}, false
}

// originCost is zero except in profiles that charge for returning home.
func originCost(cfg *ruleset.Config) int {
	if cfg.PieceLossRules.RetreatPayment.Enabled {
		return cfg.PieceLossRules.RetreatPayment.OriginalSquareCost
	}
	return 0
}

// slidingOptions walks the attack line: squares strictly between origin and
// target, and squares collinear on the far side of origin up to the first
// blocker, all priced by Chebyshev distance from origin.
func slidingOptions(pos *board.Position, cfg *ruleset.Config, origin, target board.Square, originOpt Option) []Option {
	opts := []Option{originOpt}

	df := sign(target.File() - origin.File())
	dr := sign(target.Rank() - origin.Rank())
	if df == 0 && dr == 0 {
		return opts
	}

	// Toward the target, excluding the target itself.
	f, r := origin.File()+df, origin.Rank()+dr
	for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
		sq := board.NewSquare(f, r)
		if sq == target || !pos.IsEmpty(sq) {
			break
		}
		opts = append(opts, Option{Square: sq, Cost: slideCost(cfg, origin, sq)})
		f, r = f+df, r+dr
	}

	// Away from the target, up to the first blocker exclusive.
	f, r = origin.File()-df, origin.Rank()-dr
	for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
		sq := board.NewSquare(f, r)
		if !pos.IsEmpty(sq) {
			break
		}
		opts = append(opts, Option{Square: sq, Cost: slideCost(cfg, origin, sq)})
		f, r = f-df, r-dr
	}

	return opts
}

// slideCost prices a non-origin sliding retreat, rounding half-up.
func slideCost(cfg *ruleset.Config, origin, sq board.Square) int {
	c := cfg.TacticalRetreat.Cost
	return ruleset.RoundHalfUp(c.BaseReturn + c.DistanceMultiplier*float64(board.Chebyshev(origin, sq)))
}

// knightBoardOptions filters the empty-board oracle options down to squares
// that are actually vacant in the current position.
func knightBoardOptions(pos *board.Position, cfg *ruleset.Config, origin, target board.Square, originOpt Option) []Option {
	raw := KnightOptions(origin, target, cfg.TacticalRetreat.Cost.UseKnightLookup)

	opts := make([]Option, 0, len(raw))
	for _, o := range raw {
		if o.Square == origin {
			opts = append(opts, originOpt)
			continue
		}
		if !pos.IsEmpty(o.Square) {
			continue
		}
		if !cfg.TacticalRetreat.Cost.KnightCustomEnabled {
			// Flat pricing falls back to the sliding formula over
			// Chebyshev distance instead of knight-hop distance.
			opts = append(opts, Option{Square: o.Square, Cost: slideCost(cfg, origin, o.Square)})
			continue
		}
		opts = append(opts, o)
	}
	return opts
}

func sign(x int) int {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}
