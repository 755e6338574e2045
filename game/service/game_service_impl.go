package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/knightstour/game/board"
	"github.com/wricardo/mcp-training/knightstour/game/engine"
)

// Option customises the game service
type Option func(*gameServiceImpl)

// WithNotifier sends auto-reset and tick updates to n
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) {
		s.notifier = n
	}
}

// WithAutoReset turns the delayed reset after a failed run on or off
func WithAutoReset(enabled bool) Option {
	return func(s *gameServiceImpl) {
		s.autoReset = enabled
	}
}

// WithAfterFunc replaces time.AfterFunc for scheduling auto-resets
func WithAfterFunc(fn func(d time.Duration, f func()) Timer) Option {
	return func(s *gameServiceImpl) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	notifier  Notifier
	autoReset bool
	afterFunc func(d time.Duration, f func()) Timer
	mu        sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		configs:   configs,
		autoReset: true,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session. A size of 0 uses the preset's
// board size.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, size int) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, &unknownConfigError{msg: fmt.Sprintf("config '%s' not found. Available configs: %v", configName, configIDs)}
				}
				return nil, &unknownConfigError{msg: fmt.Sprintf("config '%s' not found. Use /api/configs to list available configurations", configName)}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if size != 0 && size != session.Engine.Size() {
		if _, err := session.Engine.Reset(size); err != nil {
			s.sessions.Delete(session.ID)
			return nil, err
		}
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	log.Info().
		Str("session", session.ID).
		Str("config", configID).
		Int("size", session.Engine.Size()).
		Msg("session created")

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
		GameConfig:     session.Config,
	}, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:               sess.ID,
		ConfigName:       s.getConfigID(sess.Config.Name),
		CreatedAt:        sess.CreatedAt,
		LastAccessedAt:   sess.LastAccessedAt,
		GameState:        sess.Engine.GetState(),
		GameConfig:       sess.Config,
		AutoResetPending: sess.resetTimer != nil,
	}
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, err := s.sessions.Get(sessionID); err == nil {
		s.cancelAutoReset(sess)
	}

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// SelectSquare applies one square selection to a session
func (s *gameServiceImpl) SelectSquare(ctx context.Context, sessionID string, row, col int, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}

	if reset {
		s.cancelAutoReset(sess)
		sess.Engine.Reset(0)
		events = append(events, GameEvent{
			Type:      EventReset,
			Message:   "Game reset to a fresh board",
			Timestamp: time.Now(),
		})
	}

	selection := sess.Engine.SelectSquare(row, col)
	events = append(events, eventFor(selection))

	result := &MoveResult{
		Success:   selection.Accepted && selection.Phase != engine.PhaseFailed,
		Selection: selection,
		Message:   selection.Message,
		Events:    events,
	}

	if endsRunInFailure(selection.Outcome) {
		result.AutoResetIn = s.scheduleAutoReset(sess)
	}

	result.GameState = sess.Engine.GetState()
	return result, nil
}

// BulkSelect applies selections in order, stopping at the first one that is
// rejected or that ends the run
func (s *gameServiceImpl) BulkSelect(ctx context.Context, sessionID string, squares []board.Coordinate, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(squares),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		s.cancelAutoReset(sess)
		sess.Engine.Reset(0)
		result.Events = append(result.Events, GameEvent{
			Type:      EventReset,
			Message:   "Game reset to a fresh board",
			Timestamp: time.Now(),
		})
	}

	result.StartSquare = sess.Engine.Knight()

	// Limit selections to prevent abuse
	if len(squares) > engine.MaxBulkSelects {
		result.Truncated = true
		result.Limit = engine.MaxBulkSelects
		squares = squares[:engine.MaxBulkSelects]
	}

	for i, sq := range squares {
		selection := sess.Engine.SelectSquare(sq.Row, sq.Col)
		result.MovesExecuted++
		result.Steps = append(result.Steps, *selection)
		result.Events = append(result.Events, eventFor(selection))
		if selection.Accepted {
			result.MovesAccepted++
		}

		if !selection.Accepted || sess.Engine.IsTerminal() {
			if selection.Outcome != engine.OutcomeCompleted {
				result.Success = false
			}
			result.StopReasonCode = string(selection.Outcome)
			result.StoppedReason = fmt.Sprintf("selection %d %s: %s", i+1, sq, selection.Outcome)
			result.StoppedOnMove = i + 1
			break
		}
	}

	if endsRunInFailure(engine.Outcome(result.StopReasonCode)) {
		result.AutoResetIn = s.scheduleAutoReset(sess)
	}

	result.GameState = sess.Engine.GetState()
	result.EndSquare = result.GameState.Knight
	result.GameOver = sess.Engine.IsTerminal()
	result.Message = result.GameState.Message

	return result, nil
}

// Reset starts a new run in a session. A size of 0 keeps the current size.
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string, size int) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	state, err := sess.Engine.Reset(size)
	if err != nil {
		return nil, err
	}
	s.cancelAutoReset(sess)

	return state, nil
}

// Tick brings a session's clock up to date
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	sess.Engine.Tick()
	return sess.Engine.GetState(), nil
}

// TickAll advances every running clock and reports the sessions whose
// elapsed seconds changed
func (s *gameServiceImpl) TickAll(ctx context.Context) []TickUpdate {
	s.mu.Lock()
	var updates []TickUpdate
	for _, sess := range s.sessions.List() {
		if sess.Engine.Phase() != engine.PhaseInProgress {
			continue
		}
		before := sess.Engine.Elapsed()
		if after := sess.Engine.Tick(); after != before {
			updates = append(updates, TickUpdate{
				SessionID:      sess.ID,
				ElapsedSeconds: after,
				Elapsed:        engine.FormatElapsed(after),
			})
		}
	}
	s.mu.Unlock()

	if s.notifier != nil {
		for _, u := range updates {
			s.notifier.BroadcastEvent(u.SessionID, EventTick, u)
		}
	}
	return updates
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// GetRecords returns every completed run since the process started. The
// session only has to exist; its engine shares the ledger with all others.
func (s *gameServiceImpl) GetRecords(ctx context.Context, sessionID string) (*RecordsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	ledger := sess.Engine.Ledger()
	records := ledger.Records()
	best := make(map[int]engine.RunRecord)
	for size := range engine.CountRecordsBySize(records) {
		if r, ok := ledger.Best(size); ok {
			best[size] = r
		}
	}

	return &RecordsResponse{
		Records: records,
		Total:   len(records),
		Best:    best,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ReloadConfigs re-reads presets from disk: one preset when configName is
// set, otherwise the whole cache. Running sessions keep the config they were
// created with.
func (s *gameServiceImpl) ReloadConfigs(ctx context.Context, configName string) error {
	if configName == "" {
		return s.configs.RefreshCache()
	}
	return s.configs.ReloadConfig(configName)
}

// scheduleAutoReset arms the delayed reset for a failed run and returns the
// delay in milliseconds, or 0 when none was scheduled. Callers hold s.mu.
func (s *gameServiceImpl) scheduleAutoReset(sess *Session) int64 {
	delay := sess.Config.AutoResetDelay()
	if !s.autoReset || delay <= 0 {
		return 0
	}

	s.cancelAutoReset(sess)
	gen := sess.resetGen
	sess.resetTimer = s.afterFunc(delay, func() {
		s.fireAutoReset(sess, gen)
	})
	return delay.Milliseconds()
}

// cancelAutoReset drops any pending auto-reset. Callers hold s.mu.
func (s *gameServiceImpl) cancelAutoReset(sess *Session) {
	sess.resetGen++
	if sess.resetTimer != nil {
		sess.resetTimer.Stop()
		sess.resetTimer = nil
	}
}

// fireAutoReset runs on the timer goroutine. A stale generation means the
// run was reset or the session deleted after the timer was armed.
func (s *gameServiceImpl) fireAutoReset(sess *Session, gen uint64) {
	s.mu.Lock()
	if sess.resetGen != gen {
		s.mu.Unlock()
		return
	}
	sess.resetTimer = nil

	current, err := s.sessions.Get(sess.ID)
	if err != nil || current != sess || sess.Engine.Phase() != engine.PhaseFailed {
		s.mu.Unlock()
		return
	}

	state, err := sess.Engine.Reset(0)
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("auto-reset failed")
		return
	}

	log.Info().Str("session", sess.ID).Int("size", state.Size).Msg("auto-reset")

	if s.notifier != nil {
		s.notifier.BroadcastToSession(sess.ID, state)
		s.notifier.BroadcastEvent(sess.ID, EventAutoReset, GameEvent{
			Type:      EventAutoReset,
			Message:   state.Message,
			Timestamp: time.Now(),
		})
	}
}

func endsRunInFailure(o engine.Outcome) bool {
	return o == engine.OutcomeAlreadyVisited || o == engine.OutcomeDeadEnd
}

// eventFor turns an engine selection into a game event
func eventFor(sel *engine.SelectResult) GameEvent {
	square := sel.Square
	ev := GameEvent{
		Message:   sel.Message,
		Timestamp: time.Now(),
		Square:    &square,
	}

	switch sel.Outcome {
	case engine.OutcomeStarted:
		ev.Type = EventStart
	case engine.OutcomeMoved:
		ev.Type = EventMove
	case engine.OutcomeIllegalMove:
		ev.Type = EventIllegalMove
	case engine.OutcomeInvalidIntent:
		ev.Type = EventInvalidIntent
	case engine.OutcomeAlreadyVisited:
		ev.Type = EventAlreadyVisited
	case engine.OutcomeDeadEnd:
		ev.Type = EventDeadEnd
	case engine.OutcomeCompleted:
		ev.Type = EventVictory
		if sel.Record != nil {
			ev.Message = fmt.Sprintf("%s Tour of %dx%d in %s", sel.Message, sel.Record.Size, sel.Record.Size, engine.FormatElapsed(sel.Record.ElapsedSeconds))
		}
	default:
		ev.Type = EventIgnored
	}
	return ev
}

// unknownConfigError lists the presets that do exist while still matching
// ErrConfigNotFound
type unknownConfigError struct {
	msg string
}

func (e *unknownConfigError) Error() string { return e.msg }

func (e *unknownConfigError) Unwrap() error { return ErrConfigNotFound }

// IsNotFound reports whether err came from a missing session or preset
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrConfigNotFound)
}

// IsBadRequest reports whether err was caused by invalid caller input
func IsBadRequest(err error) bool {
	return errors.Is(err, engine.ErrInvalidBoardSize)
}
