// Package mcp exposes Solaropoly boards as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API (see package api) and the JSON response is rendered as plain text for
// the calling agent. The client keeps no board state of its own.
//
// Tools:
//   - list_layouts: available layouts
//   - create_board, get_board, list_boards: board lifecycle
//   - append_squares, append_groups: board mutation
//   - resolve_position, position_of, group_of: board queries
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// stdio transport
//	server.ServeStdio(client.GetMCPServer())
//
//	// or behind an HTTP endpoint
//	resp := client.GetMCPServer().HandleMessage(ctx, body)
//
// Tool failures (unknown board, board rule violations) are returned as tool
// error results carrying the API error message, not as Go errors.
package mcp
