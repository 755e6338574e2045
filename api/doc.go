// Package api provides the HTTP REST API for the Knight's Tour game.
//
// Every handler is a thin adapter over service.GameService. Requests that
// change a session also push the new state to the session's WebSocket
// clients through the hub.
//
// Endpoints:
//
// Session Management:
//   - POST   /api/sessions               create ({config_id, size})
//   - GET    /api/sessions               list (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified       multi-session view (?sessionIds=a,b | ?configName= | ?size=)
//   - GET    /api/sessions/{id}          session info
//   - DELETE /api/sessions/{id}          delete
//
// Game Operations:
//   - GET  /api/sessions/{id}/state        current GameState
//   - POST /api/sessions/{id}/select       {row, col, reset}
//   - POST /api/sessions/{id}/bulk-select  {squares: [{row, col}], reset}
//   - POST /api/sessions/{id}/reset        {size}, size 0 keeps the current board
//   - POST /api/sessions/{id}/tick         advance the clock now
//   - GET  /api/sessions/{id}/history      ?page=&limit=&order=
//   - GET  /api/sessions/{id}/records      completed runs of every session and best time per size
//
// Configuration:
//   - GET  /api/configs         list presets
//   - GET  /api/configs/{name}  one preset
//   - POST /api/configs         save a preset
//   - POST /api/configs/reload  re-read every preset from disk
//   - POST /api/configs/{name}/reload  re-read one preset
//
// Other:
//   - GET /api/health
//   - GET /ws?session={id}      WebSocket upgrade
//
// A rejected move is not an HTTP error. /select answers 200 with
// success=false and the outcome (illegal_move, already_visited, ...) in
// selection.outcome.
//
// Error Handling:
//
// Errors are JSON bodies of the form {"error": "message"}. Unknown sessions
// and presets give 404, malformed bodies and board sizes outside 5..13 give
// 400, everything else 500.
//
// Middleware:
//
// The router runs chi's RequestID, RealIP and Recoverer middleware plus a
// zerolog request logger at debug level.
package api
