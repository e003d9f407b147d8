// Package service provides the business logic layer for Solaropoly boards.
//
// The service package implements:
//   - Multi-board management
//   - Layout loading and listing
//   - Square and group appends with the board size rules
//   - Position, lookup and group queries
//
// Core Interfaces:
//
// BoardService is the main service interface providing high-level board operations.
// SessionManager handles board session creation, retrieval, and lifecycle.
// LayoutManager loads board layouts from JSON and HCL files.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the board model. Each session owns one board and a lock; every operation
// on that board runs under the session lock, so transports can call the
// service from any goroutine.
//
// Usage:
//
//	sessionMgr := session.NewManager(logger)
//	layoutMgr, _ := layout.NewManager("layouts", logger)
//	boardService := service.NewBoardService(sessionMgr, layoutMgr)
//
//	// Create a new board
//	info, err := boardService.CreateBoard(ctx, "solar")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Walk ten squares from GO
//	pos, err := boardService.ResolvePosition(ctx, info.ID, 0, 10)
//
// Errors:
//
// Board rule violations are returned as the board package sentinels
// (board.ErrInvalidBoardSize, board.ErrInvalidGroupReference, ...), wrapped
// with context. Unknown boards return ErrBoardNotFound.
package service
