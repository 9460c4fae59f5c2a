//go:build ignore

// Generates oracle_data.go: enumerates every knight-legal (origin, attack)
// pair, prices every bounding-rectangle square by BFS knight distance, and
// embeds the packed table as a gzipped base64 constant.
//
// Usage: go run oracle_gen.go > oracle_data.go
package main

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

var knightMoves = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

func bfs(of, or int) [8][8]int {
	var dist [8][8]int
	for f := range dist {
		for r := range dist[f] {
			dist[f][r] = -1
		}
	}
	dist[of][or] = 0
	queue := [][2]int{{of, or}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, m := range knightMoves {
			f, r := cur[0]+m[0], cur[1]+m[1]
			if f >= 0 && f < 8 && r >= 0 && r < 8 && dist[f][r] < 0 {
				dist[f][r] = dist[cur[0]][cur[1]] + 1
				queue = append(queue, [2]int{f, r})
			}
		}
	}
	return dist
}

func main() {
	table := map[string][]int{}
	for of := 0; of < 8; of++ {
		for or := 0; or < 8; or++ {
			dist := bfs(of, or)
			for _, m := range knightMoves {
				af, ar := of+m[0], or+m[1]
				if af < 0 || af > 7 || ar < 0 || ar > 7 {
					continue
				}
				key := of<<9 | or<<6 | af<<3 | ar
				var opts []int
				loF, hiF := min(of, af), max(of, af)
				loR, hiR := min(or, ar), max(or, ar)
				for f := loF; f <= hiF; f++ {
					for r := loR; r <= hiR; r++ {
						if f == af && r == ar {
							continue
						}
						if c := dist[f][r]; c <= 7 {
							opts = append(opts, f<<6|r<<3|c)
						}
					}
				}
				sort.Ints(opts)
				table[fmt.Sprint(key)] = opts
			}
		}
	}

	raw, err := json.Marshal(table)
	if err != nil {
		panic(err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	b64 := base64.StdEncoding.EncodeToString(buf.Bytes())

	out := os.Stdout
	fmt.Fprintln(out, "package retreat")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "// knightOracleData is the pre-computed knight retreat table: a JSON object")
	fmt.Fprintln(out, "// mapping each packed (origin, attack) key to its packed retreat options,")
	fmt.Fprintln(out, "// gzip-compressed and base64-encoded. Keys pack as")
	fmt.Fprintln(out, "// (originFile<<9)|(originRank<<6)|(attackFile<<3)|attackRank; options pack as")
	fmt.Fprintln(out, "// (file<<6)|(rank<<3)|cost with cost in 0..7. Regenerated by the generator in")
	fmt.Fprintln(out, "// oracle_gen.go.")
	fmt.Fprint(out, `const knightOracleData = "" +`)
	fmt.Fprintln(out)
	for i := 0; i < len(b64); i += 76 {
		end := min(i+76, len(b64))
		sep := " +"
		if end == len(b64) {
			sep = ""
		}
		fmt.Fprintf(out, "\t%q%s\n", b64[i:end], sep)
	}
}
