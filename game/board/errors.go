package board

import "errors"

var (
	ErrInvalidBoardSize      = errors.New("invalid board size")
	ErrInvalidGroupReference = errors.New("invalid group reference")
	ErrEmptyBoard            = errors.New("board has no squares")
	ErrEmptyGroupSet         = errors.New("board has no groups")
	ErrInvalidSquare         = errors.New("invalid square")
)
