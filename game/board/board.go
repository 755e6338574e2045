// Package board holds the knight's tour board model: which squares have been
// visited and which squares a knight may jump to next.
//
// A Board is never mutated in place. MarkVisited returns a new Board, so a
// value handed to a renderer stays valid after the game moves on.
package board

import (
	"errors"
	"fmt"
)

const (
	// MinSize and MaxSize bound the board sizes a game may be played on.
	MinSize = 5
	MaxSize = 13
)

var (
	ErrOutOfRange     = errors.New("coordinate out of range")
	ErrAlreadyVisited = errors.New("square already visited")
	ErrInvalidSize    = errors.New("invalid board size")
)

// Coordinate is a square on the board, zero based.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Board is an n×n grid of visited flags.
type Board struct {
	size    int
	visited []bool
	count   int
}

// New returns an empty board of the given size.
func New(size int) (*Board, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Board{
		size:    size,
		visited: make([]bool, size*size),
	}, nil
}

// FromGrid rebuilds a board from the rows returned by Grid. Clients that only
// hold a state snapshot use it to ask look-ahead questions.
func FromGrid(grid [][]bool) (*Board, error) {
	b, err := New(len(grid))
	if err != nil {
		return nil, err
	}
	for r, row := range grid {
		if len(row) != b.size {
			return nil, fmt.Errorf("%w: row %d has %d squares, want %d", ErrInvalidSize, r, len(row), b.size)
		}
		for c, visited := range row {
			if visited {
				b.visited[b.index(Coordinate{Row: r, Col: c})] = true
				b.count++
			}
		}
	}
	return b, nil
}

// Size returns n for an n×n board.
func (b *Board) Size() int {
	return b.size
}

// Squares returns n².
func (b *Board) Squares() int {
	return b.size * b.size
}

// InBounds reports whether c lies on the board.
func (b *Board) InBounds(c Coordinate) bool {
	return c.Row >= 0 && c.Row < b.size && c.Col >= 0 && c.Col < b.size
}

// IsVisited reports whether c has been visited. Off-board squares are never visited.
func (b *Board) IsVisited(c Coordinate) bool {
	if !b.InBounds(c) {
		return false
	}
	return b.visited[b.index(c)]
}

// VisitedCount returns how many squares have been visited.
func (b *Board) VisitedCount() int {
	return b.count
}

// Full reports whether every square has been visited.
func (b *Board) Full() bool {
	return b.count == b.Squares()
}

// MarkVisited returns a copy of the board with c visited. The receiver is left
// untouched; callers are expected to check legality first.
func (b *Board) MarkVisited(c Coordinate) (*Board, error) {
	if !b.InBounds(c) {
		return nil, fmt.Errorf("%w: %s on %dx%d board", ErrOutOfRange, c, b.size, b.size)
	}
	if b.visited[b.index(c)] {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyVisited, c)
	}

	next := &Board{
		size:    b.size,
		visited: make([]bool, len(b.visited)),
		count:   b.count + 1,
	}
	copy(next.visited, b.visited)
	next.visited[b.index(c)] = true
	return next, nil
}

// Grid returns the visited flags as rows. The result is a fresh copy.
func (b *Board) Grid() [][]bool {
	grid := make([][]bool, b.size)
	for r := range grid {
		grid[r] = make([]bool, b.size)
		copy(grid[r], b.visited[r*b.size:(r+1)*b.size])
	}
	return grid
}

func (b *Board) index(c Coordinate) int {
	return c.Row*b.size + c.Col
}
