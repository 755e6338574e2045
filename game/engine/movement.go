package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/knightstour/game/board"
)

// SelectSquare applies a player's click on (row, col) to the current run.
// Every rejection is reported through the result's Outcome; nothing here
// returns an error.
func (e *GameEngine) SelectSquare(row, col int) *SelectResult {
	square := board.Coordinate{Row: row, Col: col}
	result := &SelectResult{
		Square: square,
		From:   e.Knight(),
	}

	// Off-board squares are rejected before anything is touched
	if !e.board.InBounds(square) {
		result.Outcome = OutcomeInvalidIntent
		result.Phase = e.phase
		result.Message = fmt.Sprintf("Square %s is off the %dx%d board", square, e.board.Size(), e.board.Size())
		return result
	}

	switch e.phase {
	case PhaseAwaitingFirstMove:
		e.start(square, result)
	case PhaseInProgress:
		e.advance(square, result)
	default:
		// Finished runs ignore clicks until reset
		result.Outcome = OutcomeIgnored
		result.Phase = e.phase
		result.Message = e.message
		return result
	}

	result.Accepted = result.Outcome.Accepted()
	result.Phase = e.phase
	result.Message = e.message
	e.lastOutcome = result.Outcome
	e.addToHistory(result)

	return result
}

// start places the knight on the first square and starts the clock
func (e *GameEngine) start(square board.Coordinate, result *SelectResult) {
	e.land(square)
	e.runID = uuid.NewString()
	e.startClock()
	e.phase = PhaseInProgress
	e.message = e.messages.Moving
	result.Outcome = OutcomeStarted

	// A starting square with no way out loses immediately
	if len(e.legal) == 0 {
		e.fail(OutcomeDeadEnd)
		result.Outcome = OutcomeDeadEnd
	}
}

// advance handles a selection while the run is in progress
func (e *GameEngine) advance(square board.Coordinate, result *SelectResult) {
	e.Tick()

	if e.board.IsVisited(square) {
		e.fail(OutcomeAlreadyVisited)
		result.Outcome = OutcomeAlreadyVisited
		return
	}

	if !e.isLegal(square) {
		e.message = e.messages.IllegalMove
		result.Outcome = OutcomeIllegalMove
		return
	}

	e.land(square)
	e.message = e.messages.Moving

	if e.board.Full() {
		result.Record = e.succeed()
		result.Outcome = OutcomeCompleted
		return
	}

	if len(e.legal) == 0 {
		e.fail(OutcomeDeadEnd)
		result.Outcome = OutcomeDeadEnd
		return
	}

	result.Outcome = OutcomeMoved
}

// land marks square visited, moves the knight there and refreshes the
// cached legal destinations. Callers have already checked the square.
func (e *GameEngine) land(square board.Coordinate) {
	next, err := e.board.MarkVisited(square)
	if err != nil {
		panic(fmt.Sprintf("engine: landing on %s: %v", square, err))
	}
	e.board = next
	knight := square
	e.knight = &knight
	e.legal = board.LegalMoves(e.knight, e.board)
}

func (e *GameEngine) isLegal(square board.Coordinate) bool {
	for _, c := range e.legal {
		if c == square {
			return true
		}
	}
	return false
}

// fail ends the run with the given reason
func (e *GameEngine) fail(reason Outcome) {
	e.stopClock()
	e.phase = PhaseFailed
	e.reason = reason

	switch reason {
	case OutcomeAlreadyVisited:
		e.message = e.messages.AlreadyVisited
	default:
		e.message = e.messages.DeadEnd
	}
}

// succeed ends the run as a win and writes it to the ledger
func (e *GameEngine) succeed() *RunRecord {
	e.stopClock()
	e.phase = PhaseSucceeded
	e.message = e.messages.Victory

	record := RunRecord{
		RunID:          e.runID,
		SessionID:      e.sessionID,
		Size:           e.board.Size(),
		ElapsedSeconds: e.elapsed,
		CompletedAt:    e.now(),
	}
	e.ledger.Append(record)
	return &record
}

// addToHistory records a selection for the current run
func (e *GameEngine) addToHistory(result *SelectResult) {
	entry := MoveHistoryEntry{
		Square:         result.Square,
		From:           result.From,
		Outcome:        result.Outcome,
		Accepted:       result.Accepted,
		ElapsedSeconds: e.elapsed,
		Timestamp:      e.now().Unix(),
		MoveNumber:     len(e.history) + 1,
	}
	e.history = append(e.history, entry)
}
