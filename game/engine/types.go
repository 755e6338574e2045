package engine

import (
	"time"

	"github.com/wricardo/mcp-training/knightstour/game/board"
)

// Phase is the state of the current run
type Phase string

const (
	PhaseAwaitingFirstMove Phase = "awaiting_first_move"
	PhaseInProgress        Phase = "in_progress"
	PhaseFailed            Phase = "failed"
	PhaseSucceeded         Phase = "succeeded"
)

// Terminal reports whether the run is over
func (p Phase) Terminal() bool {
	return p == PhaseFailed || p == PhaseSucceeded
}

// Outcome classifies how a selected square was handled
type Outcome string

const (
	OutcomeStarted        Outcome = "started"
	OutcomeMoved          Outcome = "moved"
	OutcomeInvalidIntent  Outcome = "invalid_intent"
	OutcomeIllegalMove    Outcome = "illegal_move"
	OutcomeAlreadyVisited Outcome = "already_visited"
	OutcomeDeadEnd        Outcome = "dead_end"
	OutcomeCompleted      Outcome = "completed"
	OutcomeIgnored        Outcome = "ignored"
)

// Accepted reports whether the knight moved as a result of the outcome
func (o Outcome) Accepted() bool {
	switch o {
	case OutcomeStarted, OutcomeMoved, OutcomeCompleted:
		return true
	case OutcomeDeadEnd:
		// dead ends are detected after the knight has landed
		return true
	}
	return false
}

const (
	// Validation constants
	MinBoardSize       = board.MinSize
	MaxBoardSize       = board.MaxSize
	DefaultBoardSize   = 5
	MaxBulkSelects     = MaxBoardSize * MaxBoardSize
	MaxAutoResetMs     = 60000
	DefaultAutoResetMs = 1000
)

// Messages holds the status line shown for each transition
type Messages struct {
	Welcome        string `json:"welcome"`
	Moving         string `json:"moving"`
	IllegalMove    string `json:"illegal_move"`
	AlreadyVisited string `json:"already_visited"`
	DeadEnd        string `json:"dead_end"`
	Victory        string `json:"victory"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	BoardSize   int      `json:"board_size"`
	AutoResetMs int      `json:"auto_reset_ms"`
	Messages    Messages `json:"messages"`
}

// AutoResetDelay is how long a failed run stays on screen before the
// orchestration layer resets it. Zero disables the auto-reset.
func (c *GameConfig) AutoResetDelay() time.Duration {
	return time.Duration(c.AutoResetMs) * time.Millisecond
}

// GameState is a read-only snapshot of an engine
type GameState struct {
	Size           int                `json:"size"`
	Visited        [][]bool           `json:"visited"`
	Knight         *board.Coordinate  `json:"knight"`
	Phase          Phase              `json:"phase"`
	LastOutcome    Outcome            `json:"last_outcome,omitempty"`
	FailureReason  Outcome            `json:"failure_reason,omitempty"`
	Message        string             `json:"message"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	Elapsed        string             `json:"elapsed"`
	VisitedCount   int                `json:"visited_count"`
	TotalSquares   int                `json:"total_squares"`
	LegalMoves     []board.Coordinate `json:"legal_moves"`
	Records        []RunRecord        `json:"records"`
	RunID          string             `json:"run_id,omitempty"`
	ConfigName     string             `json:"config_name"`
	CurrentMoves   int                `json:"current_moves"`
}

// SelectResult describes what a single SelectSquare call did
type SelectResult struct {
	Outcome  Outcome           `json:"outcome"`
	Accepted bool              `json:"accepted"`
	Square   board.Coordinate  `json:"square"`
	From     *board.Coordinate `json:"from,omitempty"`
	Phase    Phase             `json:"phase"`
	Message  string            `json:"message"`
	Record   *RunRecord        `json:"record,omitempty"`
}

// MoveHistoryEntry represents a single selection in the current run
type MoveHistoryEntry struct {
	Square         board.Coordinate  `json:"square"`
	From           *board.Coordinate `json:"from,omitempty"`
	Outcome        Outcome           `json:"outcome"`
	Accepted       bool              `json:"accepted"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	Timestamp      int64             `json:"timestamp"`
	MoveNumber     int               `json:"move_number"`
}
