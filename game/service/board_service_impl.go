package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
	"github.com/wricardo/mcp-training/solaropoly/game/layout"
	"github.com/wricardo/mcp-training/solaropoly/internal/logging"
)

// boardServiceImpl implements the BoardService interface
type boardServiceImpl struct {
	sessions SessionManager
	layouts  LayoutManager
}

// NewBoardService creates a new board service instance
func NewBoardService(sessions SessionManager, layouts LayoutManager) BoardService {
	return &boardServiceImpl{
		sessions: sessions,
		layouts:  layouts,
	}
}

// CreateBoard builds a new board from a layout; an empty layoutID uses the default layout
func (s *boardServiceImpl) CreateBoard(ctx context.Context, layoutID string) (*BoardInfo, error) {
	var l *layout.Layout
	if layoutID != "" {
		var err error
		l, err = s.layouts.LoadLayout(layoutID)
		if err != nil {
			if errors.Is(err, layout.ErrLayoutNotFound) {
				if available := s.availableLayouts(); len(available) > 0 {
					return nil, fmt.Errorf("%w: '%s', available layouts: %v", layout.ErrLayoutNotFound, layoutID, available)
				}
			}
			return nil, fmt.Errorf("failed to load layout %s: %w", layoutID, err)
		}
	} else {
		l = s.layouts.GetDefault()
		layoutID = s.layouts.LayoutID(l.Name)
	}

	sess, err := s.sessions.Create("", layoutID, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	logging.FromContext(ctx).Info("board created", "board", sess.ID, "layout", layoutID)
	return s.info(sess)
}

// GetBoard returns the current state of a board
func (s *boardServiceImpl) GetBoard(ctx context.Context, boardID string) (*BoardInfo, error) {
	sess, err := s.session(boardID)
	if err != nil {
		return nil, err
	}
	return s.info(sess)
}

// ListBoards returns all live boards ordered by creation time
func (s *boardServiceImpl) ListBoards(ctx context.Context) ([]*BoardInfo, error) {
	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	infos := make([]*BoardInfo, 0, len(sessions))
	for _, sess := range sessions {
		info, err := s.info(sess)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// DeleteBoard removes a board
func (s *boardServiceImpl) DeleteBoard(ctx context.Context, boardID string) error {
	if err := s.sessions.Delete(boardID); err != nil {
		return fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}
	logging.FromContext(ctx).Info("board deleted", "board", boardID)
	return nil
}

// AppendSquares adds squares to the end of a board
func (s *boardServiceImpl) AppendSquares(ctx context.Context, boardID string, specs []layout.SquareSpec) (*BoardInfo, error) {
	sess, err := s.session(boardID)
	if err != nil {
		return nil, err
	}

	squares := make([]board.Square, 0, len(specs))
	for _, spec := range specs {
		sq, err := spec.ToSquare()
		if err != nil {
			return nil, err
		}
		squares = append(squares, sq)
	}

	var info *BoardInfo
	err = sess.WithBoard(func(b *board.Board) error {
		// square IDs address squares through the API, so they stay unique per board
		seen := make(map[string]bool, len(squares))
		for _, sq := range squares {
			if _, onBoard := b.SquareByID(sq.ID()); onBoard || seen[sq.ID()] {
				return fmt.Errorf("%w: square id %q is already used on board %s", board.ErrInvalidSquare, sq.ID(), sess.ID)
			}
			seen[sq.ID()] = true
		}
		if err := b.AppendSquares(squares...); err != nil {
			return err
		}
		info = boardInfo(sess, b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("squares appended", "board", boardID, "requested", len(specs), "size", info.Size)
	return info, nil
}

// AppendGroups adds groups to a board. Group members are resolved against
// the squares already on the board.
func (s *boardServiceImpl) AppendGroups(ctx context.Context, boardID string, specs []layout.GroupSpec) (*BoardInfo, error) {
	sess, err := s.session(boardID)
	if err != nil {
		return nil, err
	}

	var info *BoardInfo
	err = sess.WithBoard(func(b *board.Board) error {
		groups := make([]*board.Group, 0, len(specs))
		for _, spec := range specs {
			g, err := spec.ToGroup(b)
			if err != nil {
				return err
			}
			groups = append(groups, g)
		}
		if err := b.AppendGroups(groups...); err != nil {
			return err
		}
		info = boardInfo(sess, b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("groups appended", "board", boardID, "requested", len(specs), "groups", len(info.Groups))
	return info, nil
}

// ResolvePosition walks steps squares from start
func (s *boardServiceImpl) ResolvePosition(ctx context.Context, boardID string, start, steps int) (*PositionResult, error) {
	sess, err := s.session(boardID)
	if err != nil {
		return nil, err
	}

	result := &PositionResult{BoardID: sess.ID, Start: start, Steps: steps}
	err = sess.WithBoard(func(b *board.Board) error {
		pos, err := b.ResolvePosition(start, steps)
		if err != nil {
			return err
		}
		result.Square = squareView(b, pos.Index, pos.Square)
		result.LapsCompleted = pos.LapsCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PositionOf finds the index of a square by ID
func (s *boardServiceImpl) PositionOf(ctx context.Context, boardID, squareID string) (*PositionOfResult, error) {
	sess, err := s.session(boardID)
	if err != nil {
		return nil, err
	}

	result := &PositionOfResult{BoardID: sess.ID, SquareID: squareID, Index: board.NotFound}
	err = sess.WithBoard(func(b *board.Board) error {
		// an unknown ID still goes through the board so an empty board reports itself
		sq, _ := b.SquareByID(squareID)
		idx, err := b.PositionOf(sq)
		if err != nil {
			return err
		}
		result.Index = idx
		result.Found = idx != board.NotFound
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GroupOf returns the group holding a square. Squares that are missing or
// are not areas have no group.
func (s *boardServiceImpl) GroupOf(ctx context.Context, boardID, squareID string) (*GroupOfResult, error) {
	sess, err := s.session(boardID)
	if err != nil {
		return nil, err
	}

	result := &GroupOfResult{BoardID: sess.ID, SquareID: squareID}
	err = sess.WithBoard(func(b *board.Board) error {
		var area board.Area
		if sq, ok := b.SquareByID(squareID); ok {
			area, _ = board.AsArea(sq)
		}
		g, err := b.GroupOf(area)
		if err != nil {
			return err
		}
		if g != nil {
			view := groupView(g)
			result.Group = &view
			result.Found = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListLayouts returns all available layouts
func (s *boardServiceImpl) ListLayouts(ctx context.Context) ([]*LayoutInfo, error) {
	return s.layouts.ListLayouts()
}

// LoadLayout returns a layout by ID
func (s *boardServiceImpl) LoadLayout(ctx context.Context, layoutID string) (*layout.Layout, error) {
	return s.layouts.LoadLayout(layoutID)
}

// session fetches a board session and marks it as accessed
func (s *boardServiceImpl) session(boardID string) (*Session, error) {
	sess, err := s.sessions.Get(boardID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}
	if err := s.sessions.UpdateLastAccessed(boardID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}
	return sess, nil
}

func (s *boardServiceImpl) info(sess *Session) (*BoardInfo, error) {
	var info *BoardInfo
	err := sess.WithBoard(func(b *board.Board) error {
		info = boardInfo(sess, b)
		return nil
	})
	return info, err
}

func (s *boardServiceImpl) availableLayouts() []string {
	infos, err := s.layouts.ListLayouts()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.LayoutID)
	}
	return ids
}

// boardInfo snapshots a board. Callers hold the session lock.
func boardInfo(sess *Session, b *board.Board) *BoardInfo {
	info := &BoardInfo{
		ID:             sess.ID,
		LayoutID:       sess.LayoutID,
		Clamp:          b.ClampMode().String(),
		Summary:        b.String(),
		Size:           b.Size(),
		Squares:        make([]SquareView, 0, b.Size()),
		Groups:         make([]GroupView, 0, b.GroupCount()),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
	}
	if sess.Layout != nil {
		info.LayoutName = sess.Layout.Name
	}
	for i, sq := range b.Squares() {
		info.Squares = append(info.Squares, squareView(b, i, sq))
	}
	for _, g := range b.Groups() {
		info.Groups = append(info.Groups, groupView(g))
	}
	return info
}

func squareView(b *board.Board, index int, sq board.Square) SquareView {
	v := SquareView{
		Index: index,
		ID:    sq.ID(),
		Name:  sq.Name(),
		Kind:  string(sq.Kind()),
	}
	if a, ok := board.AsArea(sq); ok {
		v.Price = a.Area().Price
		v.Rent = a.Area().Rent
		if g, err := b.GroupOf(a); err == nil && g != nil {
			v.Group = g.Name()
		}
	}
	return v
}

func groupView(g *board.Group) GroupView {
	view := GroupView{Name: g.Name(), Areas: make([]string, 0, g.Len())}
	for _, a := range g.Areas() {
		view.Areas = append(view.Areas, a.ID())
	}
	return view
}
