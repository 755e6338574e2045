package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate board size
	if config.BoardSize < MinBoardSize || config.BoardSize > MaxBoardSize {
		return fmt.Errorf("config validation: board_size must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.BoardSize)
	}

	if config.AutoResetMs < 0 || config.AutoResetMs > MaxAutoResetMs {
		return fmt.Errorf("config validation: auto_reset_ms must be between 0 and %d, got %d", MaxAutoResetMs, config.AutoResetMs)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("config validation: messages.victory is required")
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the built-in 5x5 configuration
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:        "default",
		Description: "Built-in 5x5 board",
		BoardSize:   DefaultBoardSize,
		AutoResetMs: DefaultAutoResetMs,
		Messages:    DefaultMessages(),
	}
}

// DefaultMessages returns the stock status lines
func DefaultMessages() Messages {
	return Messages{
		Welcome:        "Select a starting square",
		Moving:         "Knight on the move...",
		IllegalMove:    "Impossible move",
		AlreadyVisited: "Square already visited",
		DeadEnd:        "No squares left to move to!",
		Victory:        "Success!",
	}
}

// withDefaults fills any empty message with the stock text
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.Welcome == "" {
		m.Welcome = d.Welcome
	}
	if m.Moving == "" {
		m.Moving = d.Moving
	}
	if m.IllegalMove == "" {
		m.IllegalMove = d.IllegalMove
	}
	if m.AlreadyVisited == "" {
		m.AlreadyVisited = d.AlreadyVisited
	}
	if m.DeadEnd == "" {
		m.DeadEnd = d.DeadEnd
	}
	if m.Victory == "" {
		m.Victory = d.Victory
	}
	return m
}
