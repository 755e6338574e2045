// Package config provides preset management for the Knight's Tour game.
//
// Presets are JSON files in the configs directory. Each one names a board
// size between 5 and 13, how long a failed run stays on screen before it is
// cleared (auto_reset_ms, 0 disables), and the status line shown for each
// transition:
//
//	{
//	  "name": "Classic",
//	  "description": "The original 5x5 board",
//	  "board_size": 5,
//	  "auto_reset_ms": 1000,
//	  "messages": {"welcome": "Select a starting square", "victory": "Success!"}
//	}
//
// Messages that are left out fall back to the engine defaults.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal().Err(err).Msg("config")
//	}
//
//	gameConfig, err := manager.LoadConfig("chessboard")
//	defaultConfig := manager.GetDefault()
//	presets, err := manager.ListConfigs()
//
// The default preset is "classic" when present, otherwise the first valid
// file in the directory, otherwise the built-in 5x5 configuration.
package config
