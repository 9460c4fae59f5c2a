package tactics

import (
	"fmt"

	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

// Contribution is one pattern's share of a regeneration award.
type Contribution struct {
	Type     string       `json:"type"`
	Attacker board.Square `json:"attacker"`
	Target   board.Square `json:"target"`
	Amount   int          `json:"amount"`
	Formula  string       `json:"formula"`
}

// Report records how a regeneration award was computed. It is delivered to
// the mover only; other viewers receive a redacted summary.
type Report struct {
	BaseAmount    int            `json:"baseAmount"`
	Contributions []Contribution `json:"contributions"`
	Total         int            `json:"total"`
}

// CalculateRegeneration prices the tactical patterns a move created and
// returns the mover's BP award: base turn regeneration plus, per target
// square, the highest-value enabled pattern.
func CalculateRegeneration(cfg *ruleset.Config, before, after *board.Position, mover board.Color, move board.Move) (*Report, error) {
	report := &Report{BaseAmount: cfg.Regeneration.BaseTurn}

	best := make(map[board.Square]Contribution)
	for _, p := range DetectNew(cfg, before, after, mover, move) {
		rule, ok := cfg.Regeneration.Tactics[p.Type]
		if !ok || !rule.Enabled {
			continue
		}

		f, err := ruleset.Compile(rule.Formula)
		if err != nil {
			return nil, fmt.Errorf("tactic %s: %w", p.Type, err)
		}
		amount, err := f.EvalInt(patternEnv(p))
		if err != nil {
			return nil, fmt.Errorf("tactic %s: %w", p.Type, err)
		}
		if amount <= 0 {
			continue
		}

		// Hierarchical counting: one award per target square, the most
		// valuable pattern wins.
		if prev, ok := best[p.Target]; !ok || amount > prev.Amount {
			best[p.Target] = Contribution{
				Type:     p.Type,
				Attacker: p.Attacker,
				Target:   p.Target,
				Amount:   amount,
				Formula:  rule.Formula,
			}
		}
	}

	total := report.BaseAmount
	for sq := board.A1; sq <= board.H8; sq++ {
		if c, ok := best[sq]; ok {
			report.Contributions = append(report.Contributions, c)
			total += c.Amount
		}
	}
	report.Total = total
	return report, nil
}

// patternEnv binds a pattern's fields to the formula variable set.
func patternEnv(p Pattern) ruleset.Env {
	scalars := map[string]float64{
		"pinnedPieceValue":   float64(p.PinnedPieceValue),
		"isPinnedToKing":     boolVar(p.IsPinnedToKing),
		"isDoubleCheck":      boolVar(p.IsDoubleCheck),
		"skeweredPieceValue": float64(p.SkeweredValue),
		"behindPieceValue":   float64(p.BehindValue),
		"attackedPieceValue": float64(p.AttackedValue),
		"defendedPieceValue": float64(p.DefendedValue),
	}
	lists := map[string][]float64{}
	if len(p.ForkedValues) > 0 {
		vals := make([]float64, len(p.ForkedValues))
		for i, v := range p.ForkedValues {
			vals[i] = float64(v)
		}
		lists["forkedPiecesValues"] = vals
	} else {
		lists["forkedPiecesValues"] = nil
	}
	return ruleset.Env{Scalars: scalars, Lists: lists}
}

func boolVar(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
