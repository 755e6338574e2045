// Package engine provides the core game logic for the Knight's Tour puzzle.
//
// The engine package implements the game mechanics including:
//   - Turn-by-turn state transitions for a single run
//   - Legal destination caching after every accepted move
//   - Elapsed-time tracking driven by external ticks
//   - A ledger of completed runs that survives resets
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is a read-only snapshot handed to
// renderers, while GameConfig defines the board size and messages loaded
// from JSON files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Place the knight, then jump
//	gameEngine.SelectSquare(0, 0)
//	result := gameEngine.SelectSquare(2, 1)
//	state := gameEngine.GetState()
//
// Game Rules:
//
// The first selected square is always accepted as the starting square and
// starts the clock. Every later selection must be a knight move to an
// unvisited square. Selecting an already visited square ends the run, as
// does landing on a square with no legal continuation. Visiting every square
// wins and appends a RunRecord to the ledger. A finished run stays finished
// until Reset is called.
package engine
