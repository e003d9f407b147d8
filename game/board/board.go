package board

import (
	"fmt"
	"log/slog"
)

// ClampMode selects how ResolvePosition treats its inputs before adding them
type ClampMode int

const (
	// ClampNegative zeroes negative inputs and keeps non-negative ones. It
	// replaces the inverted source rule (kept as ClampLegacy), which is the
	// open question of whether that rule was intended.
	ClampNegative ClampMode = iota
	// ClampLegacy keeps negative inputs and zeroes non-negative ones. This is
	// the inverted rule of the first Solaropoly board; it is kept so boards
	// built for that rule resolve the same way. Every move with this rule
	// lands on or before the start square.
	ClampLegacy
)

func (m ClampMode) String() string {
	if m == ClampLegacy {
		return "legacy"
	}
	return "negative"
}

// ParseClampMode converts a layout string into a ClampMode
func ParseClampMode(s string) (ClampMode, error) {
	switch s {
	case "", "negative":
		return ClampNegative, nil
	case "legacy":
		return ClampLegacy, nil
	default:
		return ClampNegative, fmt.Errorf("unknown clamp mode %q", s)
	}
}

// Option configures a Board
type Option func(*Board)

// WithLogger sets the logger used for non-fatal diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClampMode sets the input rule used by ResolvePosition
func WithClampMode(mode ClampMode) Option {
	return func(b *Board) {
		b.clamp = mode
	}
}

// Board is the closed loop of squares plus the groups built on top of it.
// Squares and groups only ever grow.
type Board struct {
	squares   []Square
	groups    []*Group
	groupKeys map[string]bool
	clamp     ClampMode
	logger    *slog.Logger
}

// NewBoard creates an empty board
func NewBoard(opts ...Option) *Board {
	b := &Board{
		groupKeys: make(map[string]bool),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// New creates a board from an initial batch of squares and groups. Squares
// are applied first so the groups can reference them.
func New(squares []Square, groups []*Group, opts ...Option) (*Board, error) {
	b := NewBoard(opts...)
	if err := b.AppendSquares(squares...); err != nil {
		return nil, err
	}
	if err := b.AppendGroups(groups...); err != nil {
		return nil, err
	}
	return b, nil
}

// Squares returns a copy of the squares in board order
func (b *Board) Squares() []Square {
	out := make([]Square, len(b.squares))
	copy(out, b.squares)
	return out
}

// Groups returns a copy of the groups in insertion order
func (b *Board) Groups() []*Group {
	out := make([]*Group, len(b.groups))
	copy(out, b.groups)
	return out
}

// ClampMode returns the input rule used by ResolvePosition
func (b *Board) ClampMode() ClampMode {
	return b.clamp
}

// Size returns the number of squares on the board
func (b *Board) Size() int {
	return len(b.squares)
}

// GroupCount returns the number of groups on the board
func (b *Board) GroupCount() int {
	return len(b.groups)
}

// AppendSquares adds squares to the end of the loop. The resulting total must
// be at least MinSquares; anything past MaxSquares is dropped with a warning.
func (b *Board) AppendSquares(squares ...Square) error {
	for i, sq := range squares {
		if sq == nil {
			return fmt.Errorf("%w: square %d of the batch is nil", ErrInvalidSquare, i)
		}
	}

	total := len(b.squares) + len(squares)
	if total < MinSquares {
		return fmt.Errorf("%w: %d squares on the board after the append, minimum is %d",
			ErrInvalidBoardSize, total, MinSquares)
	}

	combined := make([]Square, 0, total)
	combined = append(combined, b.squares...)
	combined = append(combined, squares...)

	if total > MaxSquares {
		combined = combined[:MaxSquares]
		b.logger.Warn("square list too long, truncated to the board maximum",
			"max_squares", MaxSquares,
			"provided", total,
			"dropped", total-MaxSquares)
	}

	b.squares = combined
	return nil
}

// AppendGroups adds groups to the board. Every area of every group must
// already be on the board, and the resulting number of distinct groups must
// be within [MinGroups, MaxGroups]. Nothing is truncated: a batch that does
// not fit is rejected as a whole.
func (b *Board) AppendGroups(groups ...*Group) error {
	for i, g := range groups {
		if g == nil {
			return fmt.Errorf("%w: group %d of the batch is nil", ErrInvalidGroupReference, i)
		}
		for _, area := range g.areas {
			idx := b.indexOf(area)
			if idx == NotFound {
				return fmt.Errorf("%w: area %s of group %q is not on the board",
					ErrInvalidGroupReference, area.ID(), g.name)
			}
			if _, ok := AsArea(b.squares[idx]); !ok {
				return fmt.Errorf("%w: square %s of group %q is a %s square on the board, not an area",
					ErrInvalidGroupReference, area.ID(), g.name, b.squares[idx].Kind())
			}
		}
	}

	var added []*Group
	keys := make(map[string]bool, len(groups))
	for _, g := range groups {
		key := g.Key()
		if b.groupKeys[key] || keys[key] {
			continue
		}
		keys[key] = true
		added = append(added, g)
	}

	total := len(b.groups) + len(added)
	if total > MaxGroups {
		return fmt.Errorf("%w: %d groups after the append, maximum is %d",
			ErrInvalidBoardSize, total, MaxGroups)
	}
	if total < MinGroups {
		return fmt.Errorf("%w: %d groups after the append, minimum is %d",
			ErrInvalidBoardSize, total, MinGroups)
	}

	for _, g := range added {
		b.groupKeys[g.Key()] = true
		b.groups = append(b.groups, g)
	}
	return nil
}

// ResolvePosition moves steps squares from start and returns the square
// landed on with the number of laps completed. Inputs are clamped according
// to the board's ClampMode. Laps use floor division, so a move that goes
// backwards past the start square reports a negative lap count and the
// square index always wraps into [0, Size()).
func (b *Board) ResolvePosition(start, steps int) (BoardPosition, error) {
	if len(b.squares) == 0 {
		return BoardPosition{}, ErrEmptyBoard
	}

	start, steps = b.clampInput(start), b.clampInput(steps)
	overrun := start + steps
	size := len(b.squares)

	laps := overrun / size
	index := overrun % size
	if index < 0 {
		index += size
		laps--
	}

	return BoardPosition{Square: b.squares[index], Index: index, LapsCompleted: laps}, nil
}

// Move resolves steps from the start square
func (b *Board) Move(steps int) (BoardPosition, error) {
	return b.ResolvePosition(0, steps)
}

// PositionOf returns the index of the first square equal to sq, or NotFound
func (b *Board) PositionOf(sq Square) (int, error) {
	if len(b.squares) == 0 {
		return NotFound, ErrEmptyBoard
	}
	return b.indexOf(sq), nil
}

// SquareAt returns the square at index i
func (b *Board) SquareAt(i int) (Square, error) {
	if len(b.squares) == 0 {
		return nil, ErrEmptyBoard
	}
	if i < 0 || i >= len(b.squares) {
		return nil, fmt.Errorf("%w: index %d outside [0, %d)", ErrInvalidSquare, i, len(b.squares))
	}
	return b.squares[i], nil
}

// SquareByID returns the first square with the given ID
func (b *Board) SquareByID(id string) (Square, bool) {
	for _, sq := range b.squares {
		if sq.ID() == id {
			return sq, true
		}
	}
	return nil, false
}

// GroupOf returns the first group containing area, or nil when no group does
func (b *Board) GroupOf(area Area) (*Group, error) {
	if len(b.groups) == 0 {
		return nil, ErrEmptyGroupSet
	}
	for _, g := range b.groups {
		if g.Contains(area) {
			return g, nil
		}
	}
	return nil, nil
}

func (b *Board) String() string {
	return fmt.Sprintf("Board [squares=%d, groups=%d]", len(b.squares), len(b.groups))
}

func (b *Board) clampInput(v int) int {
	switch b.clamp {
	case ClampLegacy:
		if v < 0 {
			return v
		}
		return 0
	default:
		if v < 0 {
			return 0
		}
		return v
	}
}

func (b *Board) indexOf(sq Square) int {
	for i, s := range b.squares {
		if sameSquare(s, sq) {
			return i
		}
	}
	return NotFound
}
