// Package board provides the board model for the Solaropoly game.
//
// The board package implements:
//   - A closed loop of squares, index 0 being the start ("GO") square
//   - Groups of area squares that can be owned and improved together
//   - Validated, growth-only mutation of squares and groups
//   - Position resolution with lap counting
//   - Square and group lookups
//
// Core Types:
//
// Square is the capability every board location has. Area is the
// specialization that may belong to a Group; PlainSquare and AreaSquare are
// the concrete implementations. Board owns the ordered squares and the set of
// groups, and BoardPosition is the result of a move.
//
// Usage:
//
//	b := board.NewBoard()
//	if err := b.AppendSquares(squares...); err != nil {
//		log.Fatal(err)
//	}
//	if err := b.AppendGroups(groups...); err != nil {
//		log.Fatal(err)
//	}
//
//	pos, err := b.ResolvePosition(-2, -3)
//	group, err := b.GroupOf(area)
//
// Board Rules:
//
// A board holds between 6 and 20 squares and between 2 and 4 groups. Squares
// beyond the maximum are truncated with a warning, while every other bound
// violation is rejected without changing the board. Groups may only
// reference areas already on the board.
//
// A Board is not safe for concurrent use. Callers serialize access, usually
// with one lock per board.
package board
