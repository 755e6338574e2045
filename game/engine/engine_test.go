package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/knightstour/game/board"
)

// fakeClock is a manually advanced wall clock
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func createTestConfig() *GameConfig {
	return &GameConfig{
		Name:        "Engine Test Config",
		Description: "Configuration for engine integration tests",
		BoardSize:   5,
		AutoResetMs: 1000,
		Messages: Messages{
			Welcome:        "Pick a square",
			Moving:         "Moving",
			IllegalMove:    "Not a knight move",
			AlreadyVisited: "Been there",
			DeadEnd:        "Stuck",
			Victory:        "Tour complete",
		},
	}
}

func newTestEngine(t *testing.T) (*GameEngine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	e, err := NewEngine(createTestConfig(), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e, clock
}

// fullTour5 is an open knight's tour of the 5x5 board starting in a corner
var fullTour5 = []board.Coordinate{
	{Row: 0, Col: 0}, {Row: 1, Col: 2}, {Row: 0, Col: 4}, {Row: 2, Col: 3}, {Row: 4, Col: 4},
	{Row: 3, Col: 2}, {Row: 4, Col: 0}, {Row: 2, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 4},
	{Row: 3, Col: 3}, {Row: 4, Col: 1}, {Row: 2, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 3},
	{Row: 3, Col: 4}, {Row: 4, Col: 2}, {Row: 3, Col: 0}, {Row: 1, Col: 1}, {Row: 0, Col: 3},
	{Row: 2, Col: 4}, {Row: 4, Col: 3}, {Row: 3, Col: 1}, {Row: 1, Col: 0}, {Row: 2, Col: 2},
}

func TestNewEngine(t *testing.T) {
	e, _ := newTestEngine(t)

	state := e.GetState()
	if state.Phase != PhaseAwaitingFirstMove {
		t.Errorf("Expected phase %s, got %s", PhaseAwaitingFirstMove, state.Phase)
	}
	if state.Knight != nil {
		t.Errorf("Expected no knight before first move, got %v", state.Knight)
	}
	if state.ElapsedSeconds != 0 {
		t.Errorf("Expected elapsed 0, got %d", state.ElapsedSeconds)
	}
	if state.Size != 5 || state.TotalSquares != 25 {
		t.Errorf("Expected 5x5 board, got size %d with %d squares", state.Size, state.TotalSquares)
	}
	if state.Message != "Pick a square" {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if len(state.LegalMoves) != 0 {
		t.Errorf("Expected no legal moves before the first move, got %v", state.LegalMoves)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.BoardSize = 4

	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for a 4x4 board")
	}
}

func TestNewEngine_DefaultConfig(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if e.Size() != DefaultBoardSize {
		t.Errorf("Expected default size %d, got %d", DefaultBoardSize, e.Size())
	}
	if e.GetState().Message == "" {
		t.Error("Expected a default welcome message")
	}
}

func TestSelectSquare_FirstMove(t *testing.T) {
	e, _ := newTestEngine(t)

	result := e.SelectSquare(0, 0)
	if result.Outcome != OutcomeStarted {
		t.Fatalf("Expected outcome %s, got %s", OutcomeStarted, result.Outcome)
	}
	if !result.Accepted {
		t.Error("Expected first move to be accepted")
	}
	if result.From != nil {
		t.Errorf("Expected no origin for the first move, got %v", result.From)
	}
	if e.Phase() != PhaseInProgress {
		t.Errorf("Expected phase %s, got %s", PhaseInProgress, e.Phase())
	}
	if k := e.Knight(); k == nil || *k != (board.Coordinate{Row: 0, Col: 0}) {
		t.Errorf("Expected knight at (0,0), got %v", k)
	}
	if e.GetState().RunID == "" {
		t.Error("Expected a run id once the run has started")
	}

	legal := e.LegalMoves()
	if len(legal) != 2 {
		t.Errorf("Expected 2 legal moves from the corner, got %v", legal)
	}
}

func TestSelectSquare_AnyFirstSquareAccepted(t *testing.T) {
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			e, _ := newTestEngine(t)
			result := e.SelectSquare(r, c)
			if !result.Accepted {
				t.Errorf("Expected (%d,%d) to be accepted as a start, got %s", r, c, result.Outcome)
			}
		}
	}
}

func TestSelectSquare_SpecSequence(t *testing.T) {
	e, _ := newTestEngine(t)

	path := []board.Coordinate{
		{Row: 0, Col: 0}, {Row: 2, Col: 1}, {Row: 4, Col: 0},
		{Row: 3, Col: 2}, {Row: 1, Col: 1}, {Row: 0, Col: 3},
	}

	for i, sq := range path {
		before := e.LegalMoves()
		result := e.SelectSquare(sq.Row, sq.Col)

		if i > 0 {
			found := false
			for _, c := range before {
				if c == sq {
					found = true
				}
			}
			if !found {
				t.Fatalf("Step %d: %s was not legal from the prior position", i, sq)
			}
		}

		if !result.Accepted {
			t.Fatalf("Step %d: expected %s to be accepted, got %s", i, sq, result.Outcome)
		}
		if got := e.Board().VisitedCount(); got != i+1 {
			t.Errorf("Step %d: expected %d visited squares, got %d", i, i+1, got)
		}
	}

	if e.Phase() != PhaseInProgress {
		t.Errorf("Expected run still in progress, got %s", e.Phase())
	}
}

func TestSelectSquare_SameSquareTwice(t *testing.T) {
	e, _ := newTestEngine(t)

	e.SelectSquare(0, 0)
	result := e.SelectSquare(0, 0)

	if result.Outcome != OutcomeAlreadyVisited {
		t.Errorf("Expected outcome %s, got %s", OutcomeAlreadyVisited, result.Outcome)
	}
	if result.Accepted {
		t.Error("Expected repeat selection to be rejected")
	}
	if e.Phase() != PhaseFailed {
		t.Errorf("Expected phase %s, got %s", PhaseFailed, e.Phase())
	}

	state := e.GetState()
	if state.FailureReason != OutcomeAlreadyVisited {
		t.Errorf("Expected failure reason %s, got %s", OutcomeAlreadyVisited, state.FailureReason)
	}
	if state.Message != "Been there" {
		t.Errorf("Expected already-visited message, got %q", state.Message)
	}
}

func TestSelectSquare_IllegalMoveIsRecoverable(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SelectSquare(0, 0)

	result := e.SelectSquare(1, 1)
	if result.Outcome != OutcomeIllegalMove {
		t.Fatalf("Expected outcome %s, got %s", OutcomeIllegalMove, result.Outcome)
	}
	if e.Phase() != PhaseInProgress {
		t.Errorf("Expected phase to stay %s, got %s", PhaseInProgress, e.Phase())
	}
	if e.Board().VisitedCount() != 1 {
		t.Errorf("Expected illegal move to leave 1 visited square, got %d", e.Board().VisitedCount())
	}
	if k := e.Knight(); *k != (board.Coordinate{Row: 0, Col: 0}) {
		t.Errorf("Expected knight to stay at (0,0), got %v", k)
	}
	if e.GetState().Message != "Not a knight move" {
		t.Errorf("Expected illegal-move message, got %q", e.GetState().Message)
	}

	// The run continues normally afterwards
	if r := e.SelectSquare(2, 1); r.Outcome != OutcomeMoved {
		t.Errorf("Expected a legal move after an illegal one, got %s", r.Outcome)
	}
}

func TestSelectSquare_OutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		row, col int
	}{
		{"negative row", -1, 0},
		{"negative col", 0, -1},
		{"row past edge", 5, 0},
		{"col past edge", 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			before := e.GetState()

			result := e.SelectSquare(tt.row, tt.col)
			if result.Outcome != OutcomeInvalidIntent {
				t.Errorf("Expected outcome %s, got %s", OutcomeInvalidIntent, result.Outcome)
			}

			after := e.GetState()
			if after.Phase != before.Phase || after.Message != before.Message || after.VisitedCount != 0 {
				t.Error("Expected an out-of-range selection to leave state untouched")
			}
			if len(e.GetMoveHistory()) != 0 {
				t.Error("Expected no history entry for an out-of-range selection")
			}
		})
	}
}

func TestSelectSquare_DeadEnd(t *testing.T) {
	e, _ := newTestEngine(t)

	path := []board.Coordinate{
		{Row: 0, Col: 0}, {Row: 2, Col: 1}, {Row: 1, Col: 3}, {Row: 3, Col: 2},
	}
	for _, sq := range path {
		if r := e.SelectSquare(sq.Row, sq.Col); !r.Accepted || e.Phase() != PhaseInProgress {
			t.Fatalf("Setup move %s failed: %s", sq, r.Outcome)
		}
	}

	// (4,0) only connects to (2,1) and (3,2), both visited
	result := e.SelectSquare(4, 0)
	if result.Outcome != OutcomeDeadEnd {
		t.Fatalf("Expected outcome %s, got %s", OutcomeDeadEnd, result.Outcome)
	}
	if e.Phase() != PhaseFailed {
		t.Errorf("Expected phase %s, got %s", PhaseFailed, e.Phase())
	}
	if e.GetState().FailureReason != OutcomeDeadEnd {
		t.Errorf("Expected failure reason %s, got %s", OutcomeDeadEnd, e.GetState().FailureReason)
	}
	if k := e.Knight(); *k != (board.Coordinate{Row: 4, Col: 0}) {
		t.Errorf("Expected the knight to have landed on (4,0), got %v", k)
	}
	if len(e.LegalMoves()) != 0 {
		t.Errorf("Expected no legal moves at a dead end, got %v", e.LegalMoves())
	}
}

func TestSelectSquare_ConstructedDeadEnd(t *testing.T) {
	e, _ := newTestEngine(t)

	// Build a board where (0,0) is the knight and its only exit (2,1) leads
	// to a square whose every knight offset is visited or off the board.
	b, _ := board.New(5)
	for _, sq := range []board.Coordinate{
		{Row: 0, Col: 0}, {Row: 1, Col: 2}, {Row: 0, Col: 2}, {Row: 1, Col: 3},
		{Row: 3, Col: 3}, {Row: 4, Col: 2}, {Row: 4, Col: 0},
	} {
		b, _ = b.MarkVisited(sq)
	}
	knight := board.Coordinate{Row: 0, Col: 0}
	e.board = b
	e.knight = &knight
	e.legal = board.LegalMoves(e.knight, e.board)
	e.phase = PhaseInProgress
	e.startClock()

	if len(e.legal) != 1 || e.legal[0] != (board.Coordinate{Row: 2, Col: 1}) {
		t.Fatalf("Setup: expected (2,1) as the only exit, got %v", e.legal)
	}

	result := e.SelectSquare(2, 1)
	if result.Outcome != OutcomeDeadEnd {
		t.Errorf("Expected outcome %s, got %s", OutcomeDeadEnd, result.Outcome)
	}
	if e.Phase() != PhaseFailed {
		t.Errorf("Expected phase %s, got %s", PhaseFailed, e.Phase())
	}
}

func TestSelectSquare_FirstMoveDeadEnd(t *testing.T) {
	e, _ := newTestEngine(t)

	// Pre-visit both exits of the corner so the start has nowhere to go
	b, _ := board.New(5)
	b, _ = b.MarkVisited(board.Coordinate{Row: 1, Col: 2})
	b, _ = b.MarkVisited(board.Coordinate{Row: 2, Col: 1})
	e.board = b

	result := e.SelectSquare(0, 0)
	if result.Outcome != OutcomeDeadEnd {
		t.Errorf("Expected outcome %s, got %s", OutcomeDeadEnd, result.Outcome)
	}
	if !result.Accepted {
		t.Error("Expected the starting square to be taken even though it is a dead end")
	}
	if e.Phase() != PhaseFailed {
		t.Errorf("Expected phase %s, got %s", PhaseFailed, e.Phase())
	}
}

func TestSelectSquare_Completion(t *testing.T) {
	e, clock := newTestEngine(t)

	for i, sq := range fullTour5 {
		result := e.SelectSquare(sq.Row, sq.Col)
		clock.Advance(1500 * time.Millisecond)
		e.Tick()

		if i < len(fullTour5)-1 {
			if !result.Accepted || e.Phase() != PhaseInProgress {
				t.Fatalf("Step %d (%s): expected run in progress, got %s / %s", i, sq, result.Outcome, e.Phase())
			}
			continue
		}

		if result.Outcome != OutcomeCompleted {
			t.Fatalf("Expected final outcome %s, got %s", OutcomeCompleted, result.Outcome)
		}
		if result.Record == nil {
			t.Fatal("Expected a run record on completion")
		}
	}

	if e.Phase() != PhaseSucceeded {
		t.Errorf("Expected phase %s, got %s", PhaseSucceeded, e.Phase())
	}

	records := e.Ledger().Records()
	if len(records) != 1 {
		t.Fatalf("Expected exactly 1 record, got %d", len(records))
	}
	if records[0].Size != 5 {
		t.Errorf("Expected record size 5, got %d", records[0].Size)
	}
	// 24 moves after the start, 1.5s apart, floored
	if records[0].ElapsedSeconds != 36 {
		t.Errorf("Expected 36 elapsed seconds, got %d", records[0].ElapsedSeconds)
	}
	if records[0].RunID == "" {
		t.Error("Expected the record to carry the run id")
	}
	if e.GetState().Message != "Tour complete" {
		t.Errorf("Expected victory message, got %q", e.GetState().Message)
	}
}

func TestSelectSquare_IgnoredAfterTerminal(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SelectSquare(0, 0)
	e.SelectSquare(0, 0) // fail

	historyLen := len(e.GetMoveHistory())
	result := e.SelectSquare(2, 1)
	if result.Outcome != OutcomeIgnored {
		t.Errorf("Expected outcome %s, got %s", OutcomeIgnored, result.Outcome)
	}
	if e.Phase() != PhaseFailed {
		t.Errorf("Expected phase to stay %s, got %s", PhaseFailed, e.Phase())
	}
	if len(e.GetMoveHistory()) != historyLen {
		t.Error("Expected ignored selections to stay out of the history")
	}
}

func TestVisitedCountMatchesAcceptedMoves(t *testing.T) {
	e, _ := newTestEngine(t)

	clicks := []board.Coordinate{
		{Row: 0, Col: 0}, {Row: 4, Col: 4}, {Row: 1, Col: 2}, {Row: 1, Col: 1},
		{Row: 0, Col: 4}, {Row: 2, Col: 3}, {Row: 3, Col: 3}, {Row: 4, Col: 4},
	}

	accepted := 0
	for _, sq := range clicks {
		if e.SelectSquare(sq.Row, sq.Col).Accepted {
			accepted++
		}
		if e.Phase() != PhaseInProgress {
			break
		}
		if e.Board().VisitedCount() != accepted {
			t.Fatalf("After %s: visited %d != accepted %d", sq, e.Board().VisitedCount(), accepted)
		}
	}
}

func TestReset(t *testing.T) {
	e, clock := newTestEngine(t)

	for _, sq := range fullTour5 {
		e.SelectSquare(sq.Row, sq.Col)
	}
	clock.Advance(3 * time.Second)
	if n := len(e.Ledger().Records()); n != 1 {
		t.Fatalf("Setup: expected 1 record, got %d", n)
	}

	for _, size := range []int{5, 8, 13} {
		state, err := e.Reset(size)
		if err != nil {
			t.Fatalf("Reset(%d) failed: %v", size, err)
		}
		if state.Phase != PhaseAwaitingFirstMove {
			t.Errorf("Reset(%d): expected phase %s, got %s", size, PhaseAwaitingFirstMove, state.Phase)
		}
		if state.ElapsedSeconds != 0 {
			t.Errorf("Reset(%d): expected elapsed 0, got %d", size, state.ElapsedSeconds)
		}
		if state.Size != size || len(state.Visited) != size {
			t.Errorf("Reset(%d): expected %dx%d board, got %d", size, size, size, state.Size)
		}
		for _, row := range state.Visited {
			for _, v := range row {
				if v {
					t.Fatalf("Reset(%d): expected an all-false board", size)
				}
			}
		}
		if state.Knight != nil {
			t.Errorf("Reset(%d): expected knight unset", size)
		}
		if len(state.Records) != 1 {
			t.Errorf("Reset(%d): expected ledger to keep 1 record, got %d", size, len(state.Records))
		}
	}
}

func TestReset_KeepsSizeWhenZero(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Reset(9); err != nil {
		t.Fatalf("Reset(9) failed: %v", err)
	}
	state, err := e.Reset(0)
	if err != nil {
		t.Fatalf("Reset(0) failed: %v", err)
	}
	if state.Size != 9 {
		t.Errorf("Expected size to stay 9, got %d", state.Size)
	}
}

func TestReset_InvalidSize(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SelectSquare(0, 0)

	for _, size := range []int{-1, 4, 14} {
		if _, err := e.Reset(size); !errors.Is(err, ErrInvalidBoardSize) {
			t.Errorf("Reset(%d): expected ErrInvalidBoardSize, got %v", size, err)
		}
	}
	if e.Phase() != PhaseInProgress {
		t.Errorf("Expected a rejected reset to leave the run alone, got %s", e.Phase())
	}
}

func TestSharedLedger(t *testing.T) {
	ledger := NewLedger()
	e1, err := NewEngine(createTestConfig(), WithLedger(ledger), WithSessionID("aa11"))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	e2, err := NewEngine(createTestConfig(), WithLedger(ledger), WithSessionID("bb22"))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	for _, sq := range fullTour5 {
		e1.SelectSquare(sq.Row, sq.Col)
	}

	records := e2.Ledger().Records()
	if len(records) != 1 {
		t.Fatalf("Expected the second engine to see the first engine's record, got %d", len(records))
	}
	if records[0].SessionID != "aa11" {
		t.Errorf("Expected record tagged with session aa11, got %q", records[0].SessionID)
	}
	if got := e2.GetState().Records; len(got) != 1 {
		t.Errorf("Expected shared records in the second engine's state, got %d", len(got))
	}
}

func TestMoveHistory(t *testing.T) {
	e, _ := newTestEngine(t)

	if len(e.GetMoveHistory()) != 0 {
		t.Error("Expected no history on a fresh engine")
	}

	e.SelectSquare(0, 0)
	e.SelectSquare(1, 1) // illegal
	e.SelectSquare(2, 1)

	history := e.GetMoveHistory()
	if len(history) != 3 {
		t.Fatalf("Expected 3 history entries, got %d", len(history))
	}
	wantOutcomes := []Outcome{OutcomeStarted, OutcomeIllegalMove, OutcomeMoved}
	for i, want := range wantOutcomes {
		if history[i].Outcome != want {
			t.Errorf("Entry %d: expected %s, got %s", i, want, history[i].Outcome)
		}
		if history[i].MoveNumber != i+1 {
			t.Errorf("Entry %d: expected move number %d, got %d", i, i+1, history[i].MoveNumber)
		}
	}

	last := history[len(history)-1]
	if last.Square != (board.Coordinate{Row: 2, Col: 1}) {
		t.Fatalf("Expected last move at (2,1), got %v", last)
	}
	if last.From == nil || *last.From != (board.Coordinate{Row: 0, Col: 0}) {
		t.Errorf("Expected last move from (0,0), got %v", last.From)
	}

	if _, err := e.Reset(0); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if len(e.GetMoveHistory()) != 0 {
		t.Error("Expected history to clear on reset")
	}
}

func TestGetState_IsSnapshot(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SelectSquare(0, 0)

	state := e.GetState()
	state.Visited[4][4] = true
	state.Knight.Row = 3
	state.LegalMoves[0] = board.Coordinate{Row: 4, Col: 4}

	fresh := e.GetState()
	if fresh.Visited[4][4] {
		t.Error("Mutating a snapshot must not change the board")
	}
	if fresh.Knight.Row != 0 {
		t.Error("Mutating a snapshot must not move the knight")
	}
	if fresh.LegalMoves[0] == (board.Coordinate{Row: 4, Col: 4}) {
		t.Error("Mutating a snapshot must not change the cached legal moves")
	}
}
