package service

import (
	"time"

	"github.com/wricardo/mcp-training/knightstour/game/board"
	"github.com/wricardo/mcp-training/knightstour/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID               string             `json:"id"`
	ConfigName       string             `json:"config_name"`
	CreatedAt        time.Time          `json:"created_at"`
	LastAccessedAt   time.Time          `json:"last_accessed_at"`
	GameState        *engine.GameState  `json:"game_state"`
	GameConfig       *engine.GameConfig `json:"game_config"`
	AutoResetPending bool               `json:"auto_reset_pending"`
}

// MoveResult contains the result of a single square selection
type MoveResult struct {
	Success     bool                 `json:"success"`
	Selection   *engine.SelectResult `json:"selection"`
	GameState   *engine.GameState    `json:"game_state"`
	Message     string               `json:"message"`
	Events      []GameEvent          `json:"events,omitempty"`
	AutoResetIn int64                `json:"auto_reset_in_ms,omitempty"`
}

// BulkMoveResult contains the result of a sequence of selections
type BulkMoveResult struct {
	// Summary
	RequestedMoves int               `json:"requested_moves"`
	MovesExecuted  int               `json:"moves_executed"` // selections the engine processed
	MovesAccepted  int               `json:"moves_accepted"` // selections where the knight landed
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // outcome that ended the batch: already_visited|dead_end|completed|invalid_intent|illegal_move|ignored
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the selection that caused the stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartSquare *board.Coordinate `json:"start_square,omitempty"`
	EndSquare   *board.Coordinate `json:"end_square,omitempty"`

	// Per-step compact trace (only for this call)
	Steps []engine.SelectResult `json:"steps,omitempty"`

	GameOver    bool   `json:"game_over"`
	Message     string `json:"message,omitempty"`
	AutoResetIn int64  `json:"auto_reset_in_ms,omitempty"`
}

// Event types carried by GameEvent
const (
	EventStart          = "start"
	EventMove           = "move"
	EventIllegalMove    = "illegal_move"
	EventInvalidIntent  = "invalid_intent"
	EventAlreadyVisited = "already_visited"
	EventDeadEnd        = "dead_end"
	EventVictory        = "victory"
	EventIgnored        = "ignored"
	EventReset          = "reset"
	EventAutoReset      = "auto_reset"
	EventTick           = "tick"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Square    *board.Coordinate `json:"square,omitempty"`
}

// TickUpdate reports a session whose elapsed time advanced
type TickUpdate struct {
	SessionID      string `json:"session_id"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	Elapsed        string `json:"elapsed"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// RecordsResponse lists a session's completed runs
type RecordsResponse struct {
	Records []engine.RunRecord       `json:"records"`
	Total   int                      `json:"total"`
	Best    map[int]engine.RunRecord `json:"best_by_size"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	BoardSize   int    `json:"board_size"`
	AutoResetMs int    `json:"auto_reset_ms"`
}
