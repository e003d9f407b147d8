// Package websocket provides WebSocket transport for Solaropoly boards.
//
// The websocket package implements:
//   - Board-aware WebSocket connections
//   - Snapshot broadcasting after board changes
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is served by a read and a
// write goroutine; the hub loop owns registration and fan-out.
//
// Message Protocol:
//
// Clients only listen. Outgoing messages are JSON objects:
//
//	{"board_id": "a1b2c3d4", "event": "board_update", "board": {...BoardInfo...}}
//	{"board_id": "a1b2c3d4", "event": "groups_appended", "data": {...BoardEvent...}}
//
// Board Integration:
//
// Clients pick a board with the query parameter (?board=a1b2c3d4) when
// connecting. Updates are sent only to clients watching the same board.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("board"))
//	})
//
// Broadcasting never blocks the caller: when the hub queue is full the
// message is dropped and a warning is logged.
package websocket
