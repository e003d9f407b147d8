package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
	"github.com/wricardo/mcp-training/solaropoly/game/layout"
)

var (
	ErrBoardNotFound      = errors.New("board not found")
	ErrBoardAlreadyExists = errors.New("board already exists")
)

// BoardService defines all board-related operations
type BoardService interface {
	// Board Management
	CreateBoard(ctx context.Context, layoutID string) (*BoardInfo, error)
	GetBoard(ctx context.Context, boardID string) (*BoardInfo, error)
	ListBoards(ctx context.Context) ([]*BoardInfo, error)
	DeleteBoard(ctx context.Context, boardID string) error

	// Board Mutation
	AppendSquares(ctx context.Context, boardID string, squares []layout.SquareSpec) (*BoardInfo, error)
	AppendGroups(ctx context.Context, boardID string, groups []layout.GroupSpec) (*BoardInfo, error)

	// Board Queries
	ResolvePosition(ctx context.Context, boardID string, start, steps int) (*PositionResult, error)
	PositionOf(ctx context.Context, boardID, squareID string) (*PositionOfResult, error)
	GroupOf(ctx context.Context, boardID, squareID string) (*GroupOfResult, error)

	// Layouts
	ListLayouts(ctx context.Context) ([]*LayoutInfo, error)
	LoadLayout(ctx context.Context, layoutID string) (*layout.Layout, error)
}

// SessionManager defines board session storage operations
type SessionManager interface {
	Create(id, layoutID string, l *layout.Layout) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// LayoutManager handles layout loading
type LayoutManager interface {
	LoadLayout(id string) (*layout.Layout, error)
	ListLayouts() ([]*layout.LayoutInfo, error)
	GetDefault() *layout.Layout
	LayoutID(name string) string
}

// Session is a live board built from a layout
type Session struct {
	ID             string
	LayoutID       string
	Board          *board.Board
	Layout         *layout.Layout
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// WithBoard runs fn while holding the session lock. Board is not safe for
// concurrent use, so every read and write goes through here.
func (s *Session) WithBoard(fn func(b *board.Board) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.Board)
}

// Touch records an access to the session
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastAccessedAt = time.Now()
	s.mu.Unlock()
}

// LastAccessed returns the time of the last access
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastAccessedAt
}
