package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/knightstour/game/board"
	"github.com/wricardo/mcp-training/knightstour/game/engine"
)

// Lookup failures shared by the session and config stores, so callers can
// classify errors with errors.Is instead of matching text.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string, size int) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	SelectSquare(ctx context.Context, sessionID string, row, col int, reset bool) (*MoveResult, error)
	BulkSelect(ctx context.Context, sessionID string, squares []board.Coordinate, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string, size int) (*engine.GameState, error)
	Tick(ctx context.Context, sessionID string) (*engine.GameState, error)
	TickAll(ctx context.Context) []TickUpdate

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetRecords(ctx context.Context, sessionID string) (*RecordsResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
	ReloadConfigs(ctx context.Context, configName string) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
	ReloadConfig(name string) error
	RefreshCache() error
}

// Notifier receives changes that happen outside of a request, such as an
// auto-reset firing or the clock advancing.
type Notifier interface {
	BroadcastToSession(sessionID string, state *engine.GameState)
	BroadcastEvent(sessionID string, event string, data interface{})
}

// Timer is the handle returned by a scheduled callback
type Timer interface {
	Stop() bool
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// pending auto-reset, guarded by the service lock
	resetTimer Timer
	resetGen   uint64
}
