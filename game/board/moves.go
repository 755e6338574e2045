package board

// KnightOffsets lists the eight (row, col) displacements of a knight move.
var KnightOffsets = [8]Coordinate{
	{Row: 2, Col: 1},
	{Row: 1, Col: 2},
	{Row: -1, Col: 2},
	{Row: -2, Col: 1},
	{Row: -2, Col: -1},
	{Row: -1, Col: -2},
	{Row: 1, Col: -2},
	{Row: 2, Col: -1},
}

// LegalMoves returns the unvisited on-board squares one knight move away from
// `from`. A nil `from` means the knight has not been placed yet and yields no
// moves; any square is a valid first pick in that case.
func LegalMoves(from *Coordinate, b *Board) []Coordinate {
	if from == nil || b == nil {
		return []Coordinate{}
	}

	moves := make([]Coordinate, 0, len(KnightOffsets))
	for _, off := range KnightOffsets {
		next := Coordinate{Row: from.Row + off.Row, Col: from.Col + off.Col}
		if !b.InBounds(next) || b.IsVisited(next) {
			continue
		}
		moves = append(moves, next)
	}
	return moves
}

// IsLegalMove reports whether `to` is one of LegalMoves(from, b).
func IsLegalMove(from *Coordinate, to Coordinate, b *Board) bool {
	for _, c := range LegalMoves(from, b) {
		if c == to {
			return true
		}
	}
	return false
}

// Degree counts the legal moves out of c. It is a one-ply look-ahead only.
func Degree(c Coordinate, b *Board) int {
	return len(LegalMoves(&c, b))
}
