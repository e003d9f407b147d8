package board

import "fmt"

// Kind represents the variant of a square
type Kind string

const (
	KindStart   Kind = "start"
	KindArea    Kind = "area"
	KindSpecial Kind = "special"

	// Board bounds
	MinSquares = 6
	MaxSquares = 20
	MinGroups  = 2
	MaxGroups  = 4

	// NotFound is returned by PositionOf for squares that are not on the board
	NotFound = -1
)

// ParseKind converts a layout string into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStart, KindArea, KindSpecial:
		return Kind(s), nil
	case "":
		return KindSpecial, nil
	default:
		return "", fmt.Errorf("unknown square kind %q", s)
	}
}

// Square is one location on the board loop. Squares are compared by ID.
type Square interface {
	ID() string
	Name() string
	Kind() Kind
}

// Area is a square that can be a member of a Group.
type Area interface {
	Square
	Area() *AreaSquare
}

// PlainSquare is a square that cannot be owned (start, chance, rest...)
type PlainSquare struct {
	id   string
	name string
	kind Kind
}

// NewStart creates the start square
func NewStart(id, name string) *PlainSquare {
	return &PlainSquare{id: id, name: name, kind: KindStart}
}

// NewSpecial creates a square that is neither the start nor an area
func NewSpecial(id, name string) *PlainSquare {
	return &PlainSquare{id: id, name: name, kind: KindSpecial}
}

func (s *PlainSquare) ID() string   { return s.id }
func (s *PlainSquare) Name() string { return s.name }
func (s *PlainSquare) Kind() Kind   { return s.kind }

func (s *PlainSquare) String() string {
	return fmt.Sprintf("%s(%s)", s.name, s.id)
}

// AreaSquare is an ownable square. Price and Rent are carried for the game
// layer; the board never interprets them.
type AreaSquare struct {
	id    string
	name  string
	Price int
	Rent  int
}

// NewArea creates an area square
func NewArea(id, name string, price, rent int) *AreaSquare {
	return &AreaSquare{id: id, name: name, Price: price, Rent: rent}
}

func (a *AreaSquare) ID() string        { return a.id }
func (a *AreaSquare) Name() string      { return a.name }
func (a *AreaSquare) Kind() Kind        { return KindArea }
func (a *AreaSquare) Area() *AreaSquare { return a }

func (a *AreaSquare) String() string {
	return fmt.Sprintf("%s(%s)", a.name, a.id)
}

// AsArea reports whether sq can be used inside a group
func AsArea(sq Square) (Area, bool) {
	if sq == nil {
		return nil, false
	}
	a, ok := sq.(Area)
	return a, ok
}

// sameSquare compares squares by identity
func sameSquare(a, b Square) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// BoardPosition is the square landed on, its index and the number of completed laps
type BoardPosition struct {
	Square        Square
	Index         int
	LapsCompleted int
}
