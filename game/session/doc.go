// Package session provides session management for the Knight's Tour game.
//
// Each session owns one engine, so several players (or agents) can run
// independent tours side by side. Sessions and their ledgers live in
// memory only and are gone when the process exits.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs generated from crypto/rand. Lookups are
// case-insensitive, so "AB12" and "ab12" name the same session.
//
// Concurrency:
//
// The manager guards its map with a RWMutex. It does not serialise access
// to an individual engine; the game service does that.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", config)
//	sess, err = manager.Get(sessionID)
//	sessions := manager.List()
//
// Cleanup:
//
// CleanupExpiredSessions drops sessions that have not been touched within
// the given duration. The server runs it on a ticker.
package session
