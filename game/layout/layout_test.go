package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
)

func createValidLayout() *Layout {
	return &Layout{
		Name:        "Test Layout",
		Description: "Layout for tests",
		Squares: []SquareSpec{
			{ID: "go", Name: "GO", Kind: "start"},
			{ID: "a1", Name: "Area 1", Kind: "area", Price: 60, Rent: 2},
			{ID: "a2", Name: "Area 2", Kind: "area", Price: 60, Rent: 4},
			{ID: "chance", Name: "Chance", Kind: "special"},
			{ID: "a3", Name: "Area 3", Kind: "area", Price: 100, Rent: 6},
			{ID: "a4", Name: "Area 4", Kind: "area", Price: 120, Rent: 8},
			{ID: "rest", Name: "Rest"},
			{ID: "a5", Name: "Area 5", Kind: "area", Price: 140, Rent: 10},
		},
		Groups: []GroupSpec{
			{Name: "first", Areas: []string{"a1", "a2"}},
			{Name: "second", Areas: []string{"a3", "a4", "a5"}},
		},
	}
}

func TestLayout_Build(t *testing.T) {
	b, err := createValidLayout().Build()
	require.NoError(t, err)
	assert.Equal(t, 8, b.Size())
	assert.Equal(t, 2, b.GroupCount())
	assert.Equal(t, board.ClampNegative, b.ClampMode())

	sq, ok := b.SquareByID("rest")
	require.True(t, ok)
	assert.Equal(t, board.KindSpecial, sq.Kind())

	a, ok := board.AsArea(mustSquare(t, b, "a3"))
	require.True(t, ok)
	g, err := b.GroupOf(a)
	require.NoError(t, err)
	assert.Equal(t, "second", g.Name())
	assert.Equal(t, 100, a.Area().Price)
}

func mustSquare(t *testing.T, b *board.Board, id string) board.Square {
	t.Helper()
	sq, ok := b.SquareByID(id)
	require.True(t, ok, "square %s missing", id)
	return sq
}

func TestLayout_BuildLegacyClamp(t *testing.T) {
	l := createValidLayout()
	l.Clamp = "legacy"

	b, err := l.Build()
	require.NoError(t, err)
	assert.Equal(t, board.ClampLegacy, b.ClampMode())

	pos, err := b.ResolvePosition(0, 5)
	require.NoError(t, err)
	assert.Equal(t, "go", pos.Square.ID())
}

func TestLayout_BuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Layout)
		wantErr error
	}{
		{"too few squares", func(l *Layout) { l.Squares = l.Squares[:5] }, board.ErrInvalidBoardSize},
		{"group references unknown square", func(l *Layout) {
			l.Groups[0].Areas = append(l.Groups[0].Areas, "nowhere")
		}, board.ErrInvalidGroupReference},
		{"group references non-area", func(l *Layout) {
			l.Groups[1].Areas = append(l.Groups[1].Areas, "chance")
		}, board.ErrInvalidGroupReference},
		{"too few groups", func(l *Layout) { l.Groups = l.Groups[:1] }, board.ErrInvalidBoardSize},
		{"unknown kind", func(l *Layout) { l.Squares[3].Kind = "utility" }, board.ErrInvalidSquare},
		{"missing id", func(l *Layout) { l.Squares[3].ID = "" }, board.ErrInvalidSquare},
		{"negative price", func(l *Layout) { l.Squares[1].Price = -1 }, board.ErrInvalidSquare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := createValidLayout()
			tt.mutate(l)
			_, err := l.Build()
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSquareSpec_DefaultsNameToID(t *testing.T) {
	sq, err := SquareSpec{ID: "x", Kind: "special"}.ToSquare()
	require.NoError(t, err)
	assert.Equal(t, "x", sq.Name())
}

func TestValidateLayout(t *testing.T) {
	require.NoError(t, ValidateLayout(createValidLayout()))
	require.NoError(t, ValidateLayout(MinimalLayout()))
	require.Error(t, ValidateLayout(nil))

	tests := []struct {
		name   string
		mutate func(*Layout)
		errMsg string
	}{
		{"missing name", func(l *Layout) { l.Name = "" }, "name is required"},
		{"missing description", func(l *Layout) { l.Description = "" }, "description is required"},
		{"bad clamp", func(l *Layout) { l.Clamp = "inverted" }, "unknown clamp mode"},
		{"too many squares", func(l *Layout) {
			for i := 0; i < 13; i++ {
				l.Squares = append(l.Squares, SquareSpec{ID: "extra" + string(rune('a'+i)), Kind: "special"})
			}
		}, "squares must be between"},
		{"too many groups", func(l *Layout) {
			for _, name := range []string{"x", "y", "z"} {
				l.Groups = append(l.Groups, GroupSpec{Name: name, Areas: []string{"a1"}})
			}
		}, "groups must be between"},
		{"duplicate square id", func(l *Layout) { l.Squares[4].ID = "a1" }, "used at positions"},
		{"start not first", func(l *Layout) { l.Squares[0].Kind = "special" }, "must be the start square"},
		{"duplicate group", func(l *Layout) { l.Groups[1].Name = "first" }, "defined twice"},
		{"empty group", func(l *Layout) { l.Groups[1].Areas = nil }, "has no areas"},
		{"unknown reference", func(l *Layout) { l.Groups[1].Areas = []string{"ghost"} }, "not on the board"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := createValidLayout()
			tt.mutate(l)
			err := ValidateLayout(l)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateLayout_WrapsBoardErrors(t *testing.T) {
	l := createValidLayout()
	l.Groups[0].Areas = []string{"ghost"}

	err := ValidateLayout(l)
	require.ErrorIs(t, err, board.ErrInvalidGroupReference)
}
