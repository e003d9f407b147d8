// Package api provides HTTP REST API handlers for Solaropoly boards.
//
// The api package implements:
//   - RESTful endpoints for board operations
//   - Layout listing
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Layouts:
//   - GET /api/layouts - List available layouts
//   - GET /api/layouts/{name} - Get a layout definition
//
// Boards:
//   - POST /api/boards - Create a board ({"layout_id": "solar"}, empty for the default)
//   - GET /api/boards - List boards (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/boards/{id} - Get a board snapshot
//   - DELETE /api/boards/{id} - Delete a board
//
// Mutation:
//   - POST /api/boards/{id}/squares - Append squares ({"squares": [...]})
//   - POST /api/boards/{id}/groups - Append groups ({"groups": [...]})
//
// Queries:
//   - POST /api/boards/{id}/resolve - Resolve a move ({"start": 0, "steps": 10})
//   - GET /api/boards/{id}/squares/{square}/position - Index of a square
//   - GET /api/boards/{id}/squares/{square}/group - Group holding a square
//
// Other:
//   - GET /ws?board={id} - Subscribe to board updates
//   - GET /health - Health check
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status picked from the error:
//
//	{"error": "invalid board size: 21 squares ..."}
//
//	404  unknown board or layout
//	400  malformed request body
//	409  query on an empty board or a board without groups
//	422  board rule violation (size, group reference, square definition)
package api
