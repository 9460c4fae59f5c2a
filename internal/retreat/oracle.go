// Package retreat generates tactical retreat options for attackers that
// lost a duel: sliding pieces retreat along the attack line, knights
// retreat inside the (origin, target) bounding rectangle priced by minimum
// knight-hop distance, served by a pre-computed oracle.
package retreat

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/cango91/gambit-chess-sub005/internal/board"
)

// Option is one retreat choice: a destination square and its BP cost.
type Option struct {
	Square board.Square `json:"square"`
	Cost   int          `json:"cost"`
}

// knightOracle maps a packed (origin, attack) key to packed retreat options.
// Decoded once at startup and immutable afterwards.
var knightOracle map[int][]int

func init() {
	table, err := decodeOracle(knightOracleData)
	if err != nil {
		// Corrupt embedded data; the BFS fallback serves all lookups.
		knightOracle = nil
		return
	}
	knightOracle = table
}

// OracleKey packs an (origin, attack) square pair into the 12-bit table key.
func OracleKey(origin, attack board.Square) int {
	return origin.File()<<9 | origin.Rank()<<6 | attack.File()<<3 | attack.Rank()
}

// packOption packs a retreat option into 9 bits.
func packOption(sq board.Square, cost int) int {
	return sq.File()<<6 | sq.Rank()<<3 | cost
}

// unpackOption reverses packOption.
func unpackOption(v int) Option {
	return Option{
		Square: board.NewSquare(v>>6&7, v>>3&7),
		Cost:   v & 7,
	}
}

func decodeOracle(data string) (map[int][]int, error) {
	if data == "" {
		return nil, fmt.Errorf("empty oracle data")
	}
	compressed, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode oracle: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress oracle: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress oracle: %w", err)
	}
	if err := zr.Close(); err != nil {
		return nil, err
	}

	var stringKeyed map[string][]int
	if err := json.Unmarshal(raw, &stringKeyed); err != nil {
		return nil, fmt.Errorf("unmarshal oracle: %w", err)
	}

	table := make(map[int][]int, len(stringKeyed))
	for k, v := range stringKeyed {
		key, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("oracle key %q: %w", k, err)
		}
		table[key] = v
	}
	return table, nil
}

// OracleLoaded reports whether the embedded table decoded successfully.
func OracleLoaded() bool {
	return knightOracle != nil
}

// KnightOptions returns the retreat options for a knight on origin whose
// capture attempt on attack failed, on an empty board: every square of the
// bounding rectangle except the attack target, priced by minimum knight-hop
// distance from origin. useLookup selects the pre-computed oracle; the BFS
// fallback computes identical values.
func KnightOptions(origin, attack board.Square, useLookup bool) []Option {
	if useLookup && knightOracle != nil {
		if packed, ok := knightOracle[OracleKey(origin, attack)]; ok {
			opts := make([]Option, len(packed))
			for i, v := range packed {
				opts[i] = unpackOption(v)
			}
			return opts
		}
	}
	return knightOptionsBFS(origin, attack)
}

// knightOptionsBFS recomputes the oracle entry for one (origin, attack) pair.
func knightOptionsBFS(origin, attack board.Square) []Option {
	dist := KnightDistances(origin)

	loFile, hiFile := minMax(origin.File(), attack.File())
	loRank, hiRank := minMax(origin.Rank(), attack.Rank())

	var opts []Option
	for f := loFile; f <= hiFile; f++ {
		for r := loRank; r <= hiRank; r++ {
			sq := board.NewSquare(f, r)
			if sq == attack {
				continue
			}
			if d := dist[sq]; d <= 7 {
				opts = append(opts, Option{Square: sq, Cost: d})
			}
		}
	}

	sort.Slice(opts, func(i, j int) bool {
		return packOption(opts[i].Square, opts[i].Cost) < packOption(opts[j].Square, opts[j].Cost)
	})
	return opts
}

// KnightDistances returns, for every square, the minimum number of
// knight-legal hops from origin on an empty board.
func KnightDistances(origin board.Square) [64]int {
	var dist [64]int
	for i := range dist {
		dist[i] = -1
	}
	dist[origin] = 0

	queue := []board.Square{origin}
	for len(queue) > 0 {
		sq := queue[0]
		queue = queue[1:]
		targets := board.KnightAttacks(sq)
		for targets != 0 {
			next := targets.PopLSB()
			if dist[next] < 0 {
				dist[next] = dist[sq] + 1
				queue = append(queue, next)
			}
		}
	}
	return dist
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}
