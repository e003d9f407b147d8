package layout

import (
	"fmt"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
)

// ValidateLayout validates a layout for correctness and playability
func ValidateLayout(l *Layout) error {
	if l == nil {
		return fmt.Errorf("layout validation: layout is nil")
	}

	// Validate required fields
	if l.Name == "" {
		return fmt.Errorf("layout validation: name is required")
	}
	if l.Description == "" {
		return fmt.Errorf("layout validation: description is required")
	}
	if _, err := board.ParseClampMode(l.Clamp); err != nil {
		return fmt.Errorf("layout validation: %v", err)
	}

	// Layouts must fit the board as written, truncation would drop squares
	if len(l.Squares) < board.MinSquares || len(l.Squares) > board.MaxSquares {
		return fmt.Errorf("layout validation: squares must be between %d and %d, got %d",
			board.MinSquares, board.MaxSquares, len(l.Squares))
	}
	if len(l.Groups) < board.MinGroups || len(l.Groups) > board.MaxGroups {
		return fmt.Errorf("layout validation: groups must be between %d and %d, got %d",
			board.MinGroups, board.MaxGroups, len(l.Groups))
	}

	ids := make(map[string]int, len(l.Squares))
	for i, sq := range l.Squares {
		if sq.ID == "" {
			return fmt.Errorf("layout validation: square %d has no id", i+1)
		}
		if prev, dup := ids[sq.ID]; dup {
			return fmt.Errorf("layout validation: square id %q used at positions %d and %d", sq.ID, prev, i)
		}
		ids[sq.ID] = i
	}

	if kind, _ := board.ParseKind(l.Squares[0].Kind); kind != board.KindStart {
		return fmt.Errorf("layout validation: square 0 must be the start square, got %q", l.Squares[0].Kind)
	}

	names := make(map[string]bool, len(l.Groups))
	for _, g := range l.Groups {
		if names[g.Name] {
			return fmt.Errorf("layout validation: group %q defined twice", g.Name)
		}
		names[g.Name] = true
		if len(g.Areas) == 0 {
			return fmt.Errorf("layout validation: group %q has no areas", g.Name)
		}
	}

	// Building the board applies the board rules
	if _, err := l.Build(); err != nil {
		return fmt.Errorf("layout validation: %w", err)
	}

	return nil
}
