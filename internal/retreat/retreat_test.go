package retreat

import (
	"testing"

	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN %s: %v", fen, err)
	}
	return pos
}

func optionMap(opts []Option) map[board.Square]int {
	m := make(map[board.Square]int, len(opts))
	for _, o := range opts {
		m[o.Square] = o.Cost
	}
	return m
}

func TestSlidingRetreat(t *testing.T) {
	cfg := ruleset.Standard()

	t.Run("BishopDiagonal", func(t *testing.T) {
		// Bishop on c1 attempted Bc1xh6; board is otherwise clear along
		// the diagonal. The far side of c1 runs off the board at b0.
		pos := mustFEN(t, "4k3/8/7p/8/8/8/8/2B1K3 w - - 0 1")
		opts := Options(pos, &cfg, board.Bishop, board.C1, board.H6)

		want := map[board.Square]int{
			board.C1: 0,
			board.D2: 1,
			board.E3: 2,
			board.F4: 3,
			board.G5: 4,
		}
		got := optionMap(opts)
		if len(got) != len(want) {
			t.Fatalf("Expected %d options, got %v", len(want), got)
		}
		for sq, cost := range want {
			if got[sq] != cost {
				t.Errorf("%s: cost %d, want %d", sq, got[sq], cost)
			}
		}
	})

	t.Run("TargetExcluded", func(t *testing.T) {
		pos := mustFEN(t, "4k3/8/7p/8/8/8/8/2B1K3 w - - 0 1")
		opts := Options(pos, &cfg, board.Bishop, board.C1, board.H6)
		if _, ok := FindOption(opts, board.H6); ok {
			t.Errorf("Target square must never be a retreat option")
		}
	})

	t.Run("BlockerStopsLine", func(t *testing.T) {
		// White pawn on f4 blocks the c1-h6 diagonal.
		pos := mustFEN(t, "4k3/8/7p/8/5P2/8/8/2B1K3 w - - 0 1")
		opts := Options(pos, &cfg, board.Bishop, board.C1, board.H6)

		got := optionMap(opts)
		if _, ok := got[board.F4]; ok {
			t.Errorf("Occupied square cannot be an option")
		}
		if _, ok := got[board.G5]; ok {
			t.Errorf("Squares beyond a blocker cannot be options")
		}
		if got[board.E3] != 2 {
			t.Errorf("e3 should remain available at cost 2")
		}
	})

	t.Run("RookBothDirections", func(t *testing.T) {
		// Rook on d4 attempted Rd4xd7: toward-side d5, d6; far side d3,
		// d2, d1.
		pos := mustFEN(t, "4k3/3p4/8/8/3R4/8/8/4K3 w - - 0 1")
		opts := Options(pos, &cfg, board.Rook, board.D4, board.D7)

		want := map[board.Square]int{
			board.D4: 0, board.D5: 1, board.D6: 2,
			board.D3: 1, board.D2: 2, board.D1: 3,
		}
		got := optionMap(opts)
		if len(got) != len(want) {
			t.Fatalf("Expected %d options, got %v", len(want), got)
		}
		for sq, cost := range want {
			if got[sq] != cost {
				t.Errorf("%s: cost %d, want %d", sq, got[sq], cost)
			}
		}
	})

	t.Run("FractionalMultiplierRoundsHalfUp", func(t *testing.T) {
		adv := ruleset.Advanced() // multiplier 1.5
		pos := mustFEN(t, "4k3/8/7p/8/8/8/8/2B1K3 w - - 0 1")
		opts := Options(pos, &adv, board.Bishop, board.C1, board.H6)

		got := optionMap(opts)
		if got[board.D2] != 2 { // 1.5 -> 2
			t.Errorf("d2: cost %d, want 2", got[board.D2])
		}
		if got[board.E3] != 3 { // 3.0
			t.Errorf("e3: cost %d, want 3", got[board.E3])
		}
	})
}

func TestKnightRetreat(t *testing.T) {
	cfg := ruleset.Standard()

	t.Run("RectangleCosts", func(t *testing.T) {
		// Knight on d4 attempted Nd4xf5.
		pos := mustFEN(t, "4k3/8/8/5p2/3N4/8/8/4K3 w - - 0 1")
		opts := Options(pos, &cfg, board.Knight, board.D4, board.F5)

		want := map[board.Square]int{
			board.D4: 0,
			board.E4: 3,
			board.F4: 2,
			board.D5: 3,
			board.E5: 2,
		}
		got := optionMap(opts)
		if len(got) != len(want) {
			t.Fatalf("Expected %d options, got %v", len(want), got)
		}
		for sq, cost := range want {
			if got[sq] != cost {
				t.Errorf("%s: cost %d, want %d", sq, got[sq], cost)
			}
		}
	})

	t.Run("OccupiedSquaresFiltered", func(t *testing.T) {
		// Own pawn on e5 removes it from the rectangle.
		pos := mustFEN(t, "4k3/8/8/4Pp2/3N4/8/8/4K3 w - - 0 1")
		opts := Options(pos, &cfg, board.Knight, board.D4, board.F5)

		if _, ok := FindOption(opts, board.E5); ok {
			t.Errorf("Occupied e5 cannot be a retreat option")
		}
		if _, ok := FindOption(opts, board.F4); !ok {
			t.Errorf("f4 should remain available")
		}
	})

	t.Run("OriginAlwaysPresent", func(t *testing.T) {
		pos := mustFEN(t, "4k3/8/8/5p2/3N4/8/8/4K3 w - - 0 1")
		opts := Options(pos, &cfg, board.Knight, board.D4, board.F5)
		opt, ok := FindOption(opts, board.D4)
		if !ok || opt.Cost != 0 {
			t.Errorf("Origin must be present at cost 0, got %v / %v", opt, ok)
		}
	})
}

func TestPawnAndKingRetreat(t *testing.T) {
	cfg := ruleset.Standard()
	pos := mustFEN(t, "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1")

	for _, kind := range []board.PieceType{board.Pawn, board.King} {
		opts := Options(pos, &cfg, kind, board.E4, board.D5)
		if len(opts) != 1 || opts[0].Square != board.E4 || opts[0].Cost != 0 {
			t.Errorf("%s: expected origin-only retreat, got %v", kind, opts)
		}
	}
}

func TestRetreatDisabled(t *testing.T) {
	cfg := ruleset.Standard()
	cfg.TacticalRetreat.Enabled = false

	pos := mustFEN(t, "4k3/8/7p/8/8/8/8/2B1K3 w - - 0 1")
	opts := Options(pos, &cfg, board.Bishop, board.C1, board.H6)
	if len(opts) != 1 || opts[0].Square != board.C1 {
		t.Errorf("Expected origin-only options with retreats disabled, got %v", opts)
	}
}

func TestRiskyOriginCost(t *testing.T) {
	cfg := ruleset.Risky()
	pos := mustFEN(t, "4k3/8/8/5p2/3N4/8/8/4K3 w - - 0 1")

	opts := Options(pos, &cfg, board.Knight, board.D4, board.F5)
	opt, ok := FindOption(opts, board.D4)
	if !ok {
		t.Fatalf("Origin missing")
	}
	if opt.Cost != cfg.PieceLossRules.RetreatPayment.OriginalSquareCost {
		t.Errorf("Origin cost %d, want %d", opt.Cost, cfg.PieceLossRules.RetreatPayment.OriginalSquareCost)
	}
}
