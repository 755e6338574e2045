// Package websocket pushes Knight's Tour state to browsers.
//
// A single Hub tracks connected clients per session and fans out messages
// from one goroutine. Clients only listen; moves arrive over REST or MCP.
//
// Message Protocol:
//
// Every message is a JSON object with session_id and event. State pushes
// carry the full game_state under event "state_update". Other events
// (auto_reset, tick, victory) carry a small data payload.
//
// Session Integration:
//
// Clients name their session with ?session=abc1 on the /ws endpoint.
// Session IDs are matched case-insensitively.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	gameService := service.NewGameService(sessions, configs,
//		service.WithNotifier(hub))
//
// Concurrency:
//
// BroadcastToSession and BroadcastEvent are safe to call from any
// goroutine. They queue onto a buffered channel drained by Run. A client
// whose send buffer is full is dropped.
package websocket
