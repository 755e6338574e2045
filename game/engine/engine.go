package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/knightstour/game/board"
)

var ErrInvalidBoardSize = errors.New("invalid board size")

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset(size int) (*GameState, error)
	Phase() Phase
	IsTerminal() bool
	Size() int
	Board() *board.Board
	Knight() *board.Coordinate
	Elapsed() int

	// Intents
	SelectSquare(row, col int) *SelectResult
	Tick() int

	// Derived views
	LegalMoves() []board.Coordinate

	// Configuration
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	Ledger() *Ledger
}

// Option customises a GameEngine at construction time
type Option func(*GameEngine)

// WithClock replaces time.Now as the engine's wall clock
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLedger makes the engine append completed runs to an existing ledger
func WithLedger(ledger *Ledger) Option {
	return func(e *GameEngine) {
		if ledger != nil {
			e.ledger = ledger
		}
	}
}

// WithSessionID tags the engine's run records with the session that owns it,
// so a ledger shared between sessions can tell their runs apart
func WithSessionID(id string) Option {
	return func(e *GameEngine) {
		e.sessionID = id
	}
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialise intents and ticks.
type GameEngine struct {
	config   *GameConfig
	messages Messages

	board       *board.Board
	knight      *board.Coordinate
	phase       Phase
	lastOutcome Outcome
	reason      Outcome
	message     string
	legal       []board.Coordinate
	runID       string
	sessionID   string
	history     []MoveHistoryEntry

	// clock
	elapsed   int
	startedAt time.Time
	running   bool
	now       func() time.Time

	ledger *Ledger
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config: config,
		now:    time.Now,
		ledger: NewLedger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.messages = config.Messages.withDefaults()

	if err := e.newRun(config.BoardSize); err != nil {
		return nil, err
	}
	return e, nil
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	var knight *board.Coordinate
	if e.knight != nil {
		k := *e.knight
		knight = &k
	}

	legal := make([]board.Coordinate, len(e.legal))
	copy(legal, e.legal)

	return &GameState{
		Size:           e.board.Size(),
		Visited:        e.board.Grid(),
		Knight:         knight,
		Phase:          e.phase,
		LastOutcome:    e.lastOutcome,
		FailureReason:  e.reason,
		Message:        e.message,
		ElapsedSeconds: e.elapsed,
		Elapsed:        FormatElapsed(e.elapsed),
		VisitedCount:   e.board.VisitedCount(),
		TotalSquares:   e.board.Squares(),
		LegalMoves:     legal,
		Records:        e.ledger.Records(),
		RunID:          e.runID,
		ConfigName:     e.config.Name,
		CurrentMoves:   len(e.history),
	}
}

// Reset discards the current run and starts a new one. A size of 0 keeps the
// current board size. The ledger is left untouched.
func (e *GameEngine) Reset(size int) (*GameState, error) {
	if size == 0 {
		size = e.board.Size()
	}
	if err := e.newRun(size); err != nil {
		return nil, err
	}
	return e.GetState(), nil
}

// Phase returns the phase of the current run
func (e *GameEngine) Phase() Phase {
	return e.phase
}

// IsTerminal returns whether the current run has finished
func (e *GameEngine) IsTerminal() bool {
	return e.phase.Terminal()
}

// Size returns the board size of the current run
func (e *GameEngine) Size() int {
	return e.board.Size()
}

// Board returns the current board. Boards are immutable.
func (e *GameEngine) Board() *board.Board {
	return e.board
}

// Knight returns a copy of the knight position, or nil before the first move
func (e *GameEngine) Knight() *board.Coordinate {
	if e.knight == nil {
		return nil
	}
	k := *e.knight
	return &k
}

// Elapsed returns the elapsed seconds as of the last tick or transition
func (e *GameEngine) Elapsed() int {
	return e.elapsed
}

// LegalMoves returns the cached legal destinations from the knight
func (e *GameEngine) LegalMoves() []board.Coordinate {
	out := make([]board.Coordinate, len(e.legal))
	copy(out, e.legal)
	return out
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns the selections made during the current run
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	out := make([]MoveHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// Ledger returns the ledger of completed runs
func (e *GameEngine) Ledger() *Ledger {
	return e.ledger
}

// newRun replaces all per-run state with a fresh board of the given size
func (e *GameEngine) newRun(size int) error {
	if size < MinBoardSize || size > MaxBoardSize {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidBoardSize, size, MinBoardSize, MaxBoardSize)
	}

	b, err := board.New(size)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBoardSize, err)
	}

	e.stopClock()
	e.board = b
	e.knight = nil
	e.phase = PhaseAwaitingFirstMove
	e.lastOutcome = ""
	e.reason = ""
	e.message = e.messages.Welcome
	e.legal = []board.Coordinate{}
	e.runID = ""
	e.history = []MoveHistoryEntry{}
	e.elapsed = 0
	e.startedAt = time.Time{}
	return nil
}
