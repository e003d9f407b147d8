// Package session provides board session management for Solaropoly.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the session manager that handles all session operations. Each
// session (service.Session) owns one board built from a layout, along with
// metadata like creation time and last access time.
//
// Session Identifiers:
//
// Generated IDs are the first eight hex characters of a random UUID. Lookups
// are case-insensitive, so "A1B2C3D4" and "a1b2c3d4" name the same board.
//
// Concurrency:
//
// The manager guards its index with a read/write lock. Boards are not safe
// for concurrent use on their own; callers go through Session.WithBoard,
// which serializes access per board.
//
// Usage:
//
//	manager := session.NewManager(logger)
//
//	sess, err := manager.Create("", "solar", layout)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// Sessions can be deleted explicitly or expire after a period without
// access through CleanupExpiredSessions.
package session
