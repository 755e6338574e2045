// Package mcp exposes the Knight's Tour to AI agents over the Model Context
// Protocol.
//
// Client is a thin proxy: every tool call becomes a REST request against the
// api package, so agents see exactly what the HTTP and WebSocket clients see.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state: board with knight, visited and legal squares plus the clock
//   - select_square: first placement or a single knight jump
//   - bulk_select: several squares in order, stopping at the first rejection
//   - reset_game: new run, optionally on another board size
//   - move_history, records, list_configs
//   - describe_square: one-ply look-ahead for a single square
//   - game_instructions: rules, outcomes and Warnsdorff hints
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the main binary forwards POST /mcp to HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
