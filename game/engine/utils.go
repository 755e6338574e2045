package engine

import (
	"strings"

	"github.com/wricardo/mcp-training/knightstour/game/board"
)

// Square glyphs used by RenderBoard
const (
	GlyphKnight  = 'N'
	GlyphVisited = 'x'
	GlyphLegal   = '*'
	GlyphEmpty   = '.'
)

// RenderBoard draws the state as one string per row: N for the knight, x for
// visited squares, * for legal destinations and . for everything else.
func RenderBoard(state *GameState) []string {
	if state == nil {
		return nil
	}

	legal := make(map[board.Coordinate]bool, len(state.LegalMoves))
	for _, c := range state.LegalMoves {
		legal[c] = true
	}

	rows := make([]string, 0, len(state.Visited))
	for r, row := range state.Visited {
		var sb strings.Builder
		for c, visited := range row {
			sq := board.Coordinate{Row: r, Col: c}
			switch {
			case state.Knight != nil && *state.Knight == sq:
				sb.WriteRune(GlyphKnight)
			case visited:
				sb.WriteRune(GlyphVisited)
			case legal[sq]:
				sb.WriteRune(GlyphLegal)
			default:
				sb.WriteRune(GlyphEmpty)
			}
		}
		rows = append(rows, sb.String())
	}
	return rows
}

// DegreeTable counts, for an empty board of the given size, how many squares
// have each number of legal knight moves.
func DegreeTable(size int) (map[int]int, error) {
	b, err := board.New(size)
	if err != nil {
		return nil, err
	}

	table := make(map[int]int)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			table[board.Degree(board.Coordinate{Row: r, Col: c}, b)]++
		}
	}
	return table, nil
}

// CountRecordsBySize groups ledger records by board size
func CountRecordsBySize(records []RunRecord) map[int]int {
	counts := make(map[int]int)
	for _, r := range records {
		counts[r.Size]++
	}
	return counts
}
