package service

import (
	"time"

	"github.com/wricardo/mcp-training/solaropoly/game/layout"
)

// BoardInfo provides information about a board session
type BoardInfo struct {
	ID             string       `json:"id"`
	LayoutID       string       `json:"layout_id"`
	LayoutName     string       `json:"layout_name"`
	Clamp          string       `json:"clamp"`
	Summary        string       `json:"summary"`
	Size           int          `json:"size"`
	Squares        []SquareView `json:"squares"`
	Groups         []GroupView  `json:"groups"`
	CreatedAt      time.Time    `json:"created_at"`
	LastAccessedAt time.Time    `json:"last_accessed_at"`
}

// SquareView is the wire form of a square
type SquareView struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Price int    `json:"price,omitempty"`
	Rent  int    `json:"rent,omitempty"`
	Group string `json:"group,omitempty"` // Name of the first group holding the area
}

// GroupView is the wire form of a group
type GroupView struct {
	Name  string   `json:"name"`
	Areas []string `json:"areas"`
}

// PositionResult is the outcome of resolving a move
type PositionResult struct {
	BoardID       string     `json:"board_id"`
	Start         int        `json:"start"`
	Steps         int        `json:"steps"`
	Square        SquareView `json:"square"`
	LapsCompleted int        `json:"laps_completed"`
}

// PositionOfResult reports where a square sits on a board
type PositionOfResult struct {
	BoardID  string `json:"board_id"`
	SquareID string `json:"square_id"`
	Index    int    `json:"index"` // -1 when the square is not on the board
	Found    bool   `json:"found"`
}

// GroupOfResult reports the group holding a square, if any
type GroupOfResult struct {
	BoardID  string     `json:"board_id"`
	SquareID string     `json:"square_id"`
	Found    bool       `json:"found"`
	Group    *GroupView `json:"group,omitempty"`
}

// BoardEvent is pushed to websocket clients after a board changes
type BoardEvent struct {
	Type      string     `json:"type"` // "created", "squares_appended", "groups_appended", "deleted"
	BoardID   string     `json:"board_id"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	Board     *BoardInfo `json:"board,omitempty"`
}

// LayoutInfo provides information about a layout file
type LayoutInfo = layout.LayoutInfo
