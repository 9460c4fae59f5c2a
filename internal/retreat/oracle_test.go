package retreat

import (
	"testing"

	"github.com/cango91/gambit-chess-sub005/internal/board"
)

func TestOracleLoaded(t *testing.T) {
	if !OracleLoaded() {
		t.Fatalf("Embedded oracle failed to decode")
	}
}

// Every knight-legal (origin, attack) pair must produce identical options
// from the embedded table and from the BFS fallback.
func TestOracleMatchesBFS(t *testing.T) {
	pairs := 0
	for origin := board.A1; origin <= board.H8; origin++ {
		attacks := board.KnightAttacks(origin)
		for attacks != 0 {
			attack := attacks.PopLSB()
			pairs++

			lookup := KnightOptions(origin, attack, true)
			bfs := KnightOptions(origin, attack, false)

			if len(lookup) != len(bfs) {
				t.Fatalf("%s->%s: %d lookup options vs %d BFS", origin, attack, len(lookup), len(bfs))
			}
			bfsMap := optionMap(bfs)
			for _, o := range lookup {
				if bfsMap[o.Square] != o.Cost {
					t.Errorf("%s->%s: %s lookup cost %d, BFS %d", origin, attack, o.Square, o.Cost, bfsMap[o.Square])
				}
			}
		}
	}
	if pairs != 336 {
		t.Errorf("Expected 336 knight (origin, attack) pairs, got %d", pairs)
	}
}

func TestOracleBoundingRectangle(t *testing.T) {
	for origin := board.A1; origin <= board.H8; origin++ {
		attacks := board.KnightAttacks(origin)
		for attacks != 0 {
			attack := attacks.PopLSB()

			loF, hiF := minInt(origin.File(), attack.File()), maxInt(origin.File(), attack.File())
			loR, hiR := minInt(origin.Rank(), attack.Rank()), maxInt(origin.Rank(), attack.Rank())

			for _, o := range KnightOptions(origin, attack, true) {
				if o.Square == attack {
					t.Errorf("%s->%s: attack square offered as retreat", origin, attack)
				}
				f, r := o.Square.File(), o.Square.Rank()
				if f < loF || f > hiF || r < loR || r > hiR {
					t.Errorf("%s->%s: %s outside bounding rectangle", origin, attack, o.Square)
				}
			}
		}
	}
}

func TestKnightDistanceSpotChecks(t *testing.T) {
	dist := KnightDistances(board.D4)
	cases := map[board.Square]int{
		board.D4: 0,
		board.F5: 1,
		board.E5: 2,
		board.F4: 2,
		board.E4: 3,
		board.D5: 3,
	}
	for sq, want := range cases {
		if dist[sq] != want {
			t.Errorf("distance d4->%s = %d, want %d", sq, dist[sq], want)
		}
	}

	// Corner-adjacent anomaly: a1 to b2 takes four hops.
	dist = KnightDistances(board.A1)
	if dist[board.B2] != 4 {
		t.Errorf("distance a1->b2 = %d, want 4", dist[board.B2])
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
