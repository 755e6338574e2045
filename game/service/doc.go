// Package service provides the business logic layer for the Knight's Tour game.
//
// GameService is the single entry point used by every transport (REST,
// WebSocket, MCP). It owns the lock that serialises intents and clock ticks
// for each engine, and it runs the orchestration the engine leaves out:
//
//   - a delayed reset after a failed run, taken from the preset's
//     auto_reset_ms and cancelled by any explicit reset
//   - a clock sweep (TickAll) that advances every running tour and reports
//     which sessions changed
//   - bulk selection, stopping at the first rejected or run-ending square
//   - paginated history of the current run and the process-wide run records
//
// SessionManager and ConfigManager are implemented by the session and config
// packages. A Notifier, usually the WebSocket hub, receives updates that do
// not originate from a request.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithNotifier(hub))
//
//	info, err := gameService.CreateSession(ctx, "classic", 0)
//	result, err := gameService.SelectSquare(ctx, info.ID, 0, 0, false)
package service
