package layout

import (
	"fmt"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
)

// SquareSpec describes one square of a layout
type SquareSpec struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	Price int    `json:"price,omitempty"`
	Rent  int    `json:"rent,omitempty"`
}

// GroupSpec describes a group by the IDs of its areas
type GroupSpec struct {
	Name  string   `json:"name"`
	Areas []string `json:"areas"`
}

// Layout is a board definition loaded from a JSON or HCL file
type Layout struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Clamp       string       `json:"clamp,omitempty"`
	Squares     []SquareSpec `json:"squares"`
	Groups      []GroupSpec  `json:"groups"`
}

// LayoutInfo summarizes a layout file
type LayoutInfo struct {
	Filename    string `json:"filename"`
	LayoutID    string `json:"layout_id"` // The identifier to use for board creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Format      string `json:"format"`
	Squares     int    `json:"squares"`
	Groups      int    `json:"groups"`
}

// ToSquare converts the spec into a board square
func (s SquareSpec) ToSquare() (board.Square, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("%w: square id is required", board.ErrInvalidSquare)
	}
	kind, err := board.ParseKind(s.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: square %s: %v", board.ErrInvalidSquare, s.ID, err)
	}

	name := s.Name
	if name == "" {
		name = s.ID
	}

	switch kind {
	case board.KindStart:
		return board.NewStart(s.ID, name), nil
	case board.KindArea:
		if s.Price < 0 || s.Rent < 0 {
			return nil, fmt.Errorf("%w: area %s has a negative price or rent", board.ErrInvalidSquare, s.ID)
		}
		return board.NewArea(s.ID, name, s.Price, s.Rent), nil
	default:
		return board.NewSpecial(s.ID, name), nil
	}
}

// ToGroup resolves the spec against the squares already on b. Unknown IDs
// become detached areas so the board itself reports them as invalid
// references; squares that are not areas are rejected here.
func (g GroupSpec) ToGroup(b *board.Board) (*board.Group, error) {
	if g.Name == "" {
		return nil, fmt.Errorf("%w: group name is required", board.ErrInvalidGroupReference)
	}

	areas := make([]board.Area, 0, len(g.Areas))
	for _, id := range g.Areas {
		sq, ok := b.SquareByID(id)
		if !ok {
			areas = append(areas, board.NewArea(id, id, 0, 0))
			continue
		}
		a, ok := board.AsArea(sq)
		if !ok {
			return nil, fmt.Errorf("%w: square %s of group %q is a %s square, not an area",
				board.ErrInvalidGroupReference, id, g.Name, sq.Kind())
		}
		areas = append(areas, a)
	}

	return board.NewGroup(g.Name, areas...), nil
}

// Build creates a board from the layout
func (l *Layout) Build(opts ...board.Option) (*board.Board, error) {
	clamp, err := board.ParseClampMode(l.Clamp)
	if err != nil {
		return nil, err
	}

	squares := make([]board.Square, 0, len(l.Squares))
	for _, spec := range l.Squares {
		sq, err := spec.ToSquare()
		if err != nil {
			return nil, err
		}
		squares = append(squares, sq)
	}

	b := board.NewBoard(append([]board.Option{board.WithClampMode(clamp)}, opts...)...)
	if err := b.AppendSquares(squares...); err != nil {
		return nil, err
	}

	groups := make([]*board.Group, 0, len(l.Groups))
	for _, spec := range l.Groups {
		g, err := spec.ToGroup(b)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := b.AppendGroups(groups...); err != nil {
		return nil, err
	}

	return b, nil
}
