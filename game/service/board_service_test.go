package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
	"github.com/wricardo/mcp-training/solaropoly/game/layout"
	"github.com/wricardo/mcp-training/solaropoly/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	created  int
	mu       sync.Mutex
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, layoutID string, l *layout.Layout) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		m.created++
		id = fmt.Sprintf("test_%d", m.created)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, service.ErrBoardAlreadyExists
	}

	b, err := l.Build()
	if err != nil {
		return nil, err
	}

	sess := &service.Session{
		ID:             id,
		LayoutID:       layoutID,
		Board:          b,
		Layout:         l,
		CreatedAt:      time.Now().Add(time.Duration(m.created) * time.Millisecond),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = sess
	return sess, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrBoardNotFound
	}
	return sess, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return service.ErrBoardNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, exists := m.sessions[id]
	if !exists {
		return service.ErrBoardNotFound
	}
	sess.Touch()
	return nil
}

// MockLayoutManager implements service.LayoutManager for testing
type MockLayoutManager struct {
	layouts map[string]*layout.Layout
}

func NewMockLayoutManager() *MockLayoutManager {
	return &MockLayoutManager{
		layouts: map[string]*layout.Layout{
			"default": layout.MinimalLayout(),
			"solar":   solarLayout(),
		},
	}
}

func (m *MockLayoutManager) LoadLayout(id string) (*layout.Layout, error) {
	l, ok := m.layouts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", layout.ErrLayoutNotFound, id)
	}
	return l, nil
}

func (m *MockLayoutManager) ListLayouts() ([]*layout.LayoutInfo, error) {
	return []*layout.LayoutInfo{
		{LayoutID: "default", Name: "default", Squares: 6, Groups: 2},
		{LayoutID: "solar", Name: "Solar", Squares: 8, Groups: 2},
	}, nil
}

func (m *MockLayoutManager) GetDefault() *layout.Layout {
	return m.layouts["default"]
}

func (m *MockLayoutManager) LayoutID(name string) string {
	for id, l := range m.layouts {
		if l.Name == name {
			return id
		}
	}
	return name
}

func solarLayout() *layout.Layout {
	return &layout.Layout{
		Name:        "Solar",
		Description: "Eight squares around the sun",
		Squares: []layout.SquareSpec{
			{ID: "go", Name: "GO", Kind: "start"},
			{ID: "mercury", Name: "Mercury", Kind: "area", Price: 60, Rent: 2},
			{ID: "venus", Name: "Venus", Kind: "area", Price: 60, Rent: 4},
			{ID: "flare", Name: "Solar Flare", Kind: "special"},
			{ID: "earth", Name: "Earth", Kind: "area", Price: 100, Rent: 6},
			{ID: "mars", Name: "Mars", Kind: "area", Price: 120, Rent: 8},
			{ID: "belt", Name: "Asteroid Belt", Kind: "special"},
			{ID: "jupiter", Name: "Jupiter", Kind: "area", Price: 200, Rent: 16},
		},
		Groups: []layout.GroupSpec{
			{Name: "inner", Areas: []string{"mercury", "venus"}},
			{Name: "outer", Areas: []string{"earth", "mars", "jupiter"}},
		},
	}
}

func newTestService() service.BoardService {
	return service.NewBoardService(NewMockSessionManager(), NewMockLayoutManager())
}

func TestBoardService_CreateBoard(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("default layout", func(t *testing.T) {
		info, err := svc.CreateBoard(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "default", info.LayoutID)
		assert.Equal(t, 6, info.Size)
		assert.Len(t, info.Groups, 2)
		assert.Equal(t, "Board [squares=6, groups=2]", info.Summary)
		assert.Equal(t, "negative", info.Clamp)
	})

	t.Run("named layout", func(t *testing.T) {
		info, err := svc.CreateBoard(ctx, "solar")
		require.NoError(t, err)
		assert.Equal(t, "solar", info.LayoutID)
		assert.Equal(t, "Solar", info.LayoutName)
		require.Len(t, info.Squares, 8)

		mercury := info.Squares[1]
		assert.Equal(t, "mercury", mercury.ID)
		assert.Equal(t, "area", mercury.Kind)
		assert.Equal(t, 60, mercury.Price)
		assert.Equal(t, "inner", mercury.Group)
		assert.Empty(t, info.Squares[3].Group)
	})

	t.Run("unknown layout", func(t *testing.T) {
		_, err := svc.CreateBoard(ctx, "pluto")
		require.ErrorIs(t, err, layout.ErrLayoutNotFound)
		assert.Contains(t, err.Error(), "available layouts")
	})
}

func TestBoardService_GetAndDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateBoard(ctx, "solar")
	require.NoError(t, err)

	got, err := svc.GetBoard(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	require.NoError(t, svc.DeleteBoard(ctx, created.ID))

	_, err = svc.GetBoard(ctx, created.ID)
	require.ErrorIs(t, err, service.ErrBoardNotFound)
	require.ErrorIs(t, svc.DeleteBoard(ctx, created.ID), service.ErrBoardNotFound)
}

func TestBoardService_ListBoards(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.CreateBoard(ctx, "")
	require.NoError(t, err)
	second, err := svc.CreateBoard(ctx, "solar")
	require.NoError(t, err)

	boards, err := svc.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, first.ID, boards[0].ID)
	assert.Equal(t, second.ID, boards[1].ID)
}

func TestBoardService_ResolvePosition(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	info, err := svc.CreateBoard(ctx, "solar")
	require.NoError(t, err)

	tests := []struct {
		start, steps int
		wantID       string
		wantLaps     int
	}{
		{0, 0, "go", 0},
		{0, 3, "flare", 0},
		{0, 10, "venus", 1},
		{5, 3, "go", 1},
		{0, 17, "mercury", 2},
		{-4, -2, "go", 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d+%d", tt.start, tt.steps), func(t *testing.T) {
			pos, err := svc.ResolvePosition(ctx, info.ID, tt.start, tt.steps)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, pos.Square.ID)
			assert.Equal(t, tt.wantLaps, pos.LapsCompleted)
			assert.Equal(t, info.ID, pos.BoardID)
		})
	}

	pos, err := svc.ResolvePosition(ctx, info.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, pos.Square.Index)
	assert.Equal(t, "inner", pos.Square.Group)

	_, err = svc.ResolvePosition(ctx, "missing", 0, 1)
	require.ErrorIs(t, err, service.ErrBoardNotFound)
}

func TestBoardService_AppendSquares(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	info, err := svc.CreateBoard(ctx, "")
	require.NoError(t, err)

	updated, err := svc.AppendSquares(ctx, info.ID, []layout.SquareSpec{
		{ID: "x1", Kind: "special"},
		{ID: "x2", Kind: "area", Price: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Size)
	assert.Equal(t, "x2", updated.Squares[7].ID)
	assert.Equal(t, "x2", updated.Squares[7].Name)

	t.Run("overflow is truncated", func(t *testing.T) {
		var extra []layout.SquareSpec
		for i := 0; i < 15; i++ {
			extra = append(extra, layout.SquareSpec{ID: fmt.Sprintf("y%d", i), Kind: "special"})
		}
		updated, err := svc.AppendSquares(ctx, info.ID, extra)
		require.NoError(t, err)
		assert.Equal(t, board.MaxSquares, updated.Size)
		assert.Equal(t, "y11", updated.Squares[board.MaxSquares-1].ID)
	})

	t.Run("invalid square", func(t *testing.T) {
		_, err := svc.AppendSquares(ctx, info.ID, []layout.SquareSpec{{ID: "bad", Kind: "utility"}})
		require.ErrorIs(t, err, board.ErrInvalidSquare)
	})
}

func TestBoardService_AppendSquares_DuplicateIDs(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	info, err := svc.CreateBoard(ctx, "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		batch []layout.SquareSpec
	}{
		{"id already on the board", []layout.SquareSpec{{ID: info.Squares[1].ID, Name: "Dup", Kind: "special"}}},
		{"id repeated in the batch", []layout.SquareSpec{{ID: "z1", Kind: "special"}, {ID: "z1", Kind: "area"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AppendSquares(ctx, info.ID, tt.batch)
			require.ErrorIs(t, err, board.ErrInvalidSquare)

			got, err := svc.GetBoard(ctx, info.ID)
			require.NoError(t, err)
			assert.Equal(t, info.Size, got.Size, "board must be unchanged")
		})
	}

	// every landed square reports its own index
	for steps := 0; steps < 2*info.Size; steps++ {
		pos, err := svc.ResolvePosition(ctx, info.ID, 0, steps)
		require.NoError(t, err)
		assert.Equal(t, steps%info.Size, pos.Square.Index)
		assert.Equal(t, info.Squares[steps%info.Size].ID, pos.Square.ID)
	}
}

func TestBoardService_AppendGroups(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	info, err := svc.CreateBoard(ctx, "")
	require.NoError(t, err)

	updated, err := svc.AppendGroups(ctx, info.ID, []layout.GroupSpec{{Name: "third", Areas: []string{"a1"}}})
	require.NoError(t, err)
	require.Len(t, updated.Groups, 3)
	assert.Equal(t, GroupViewOf("third", "a1"), updated.Groups[2])

	t.Run("unknown area", func(t *testing.T) {
		_, err := svc.AppendGroups(ctx, info.ID, []layout.GroupSpec{{Name: "ghosts", Areas: []string{"ghost"}}})
		require.ErrorIs(t, err, board.ErrInvalidGroupReference)
	})

	t.Run("non-area member", func(t *testing.T) {
		_, err := svc.AppendGroups(ctx, info.ID, []layout.GroupSpec{{Name: "resting", Areas: []string{"rest"}}})
		require.ErrorIs(t, err, board.ErrInvalidGroupReference)
	})

	t.Run("too many groups", func(t *testing.T) {
		_, err := svc.AppendGroups(ctx, info.ID, []layout.GroupSpec{
			{Name: "fourth", Areas: []string{"a2"}},
			{Name: "fifth", Areas: []string{"a3"}},
		})
		require.ErrorIs(t, err, board.ErrInvalidBoardSize)

		got, err := svc.GetBoard(ctx, info.ID)
		require.NoError(t, err)
		assert.Len(t, got.Groups, 3, "failed append must leave the board unchanged")
	})
}

func GroupViewOf(name string, areas ...string) service.GroupView {
	return service.GroupView{Name: name, Areas: areas}
}

func TestBoardService_PositionOf(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	info, err := svc.CreateBoard(ctx, "solar")
	require.NoError(t, err)

	res, err := svc.PositionOf(ctx, info.ID, "venus")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 2, res.Index)

	res, err = svc.PositionOf(ctx, info.ID, "pluto")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, board.NotFound, res.Index)
}

func TestBoardService_GroupOf(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	info, err := svc.CreateBoard(ctx, "solar")
	require.NoError(t, err)

	tests := []struct {
		square    string
		wantFound bool
		wantGroup string
	}{
		{"venus", true, "inner"},
		{"jupiter", true, "outer"},
		{"flare", false, ""},
		{"go", false, ""},
		{"pluto", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.square, func(t *testing.T) {
			res, err := svc.GroupOf(ctx, info.ID, tt.square)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, res.Found)
			if tt.wantFound {
				require.NotNil(t, res.Group)
				assert.Equal(t, tt.wantGroup, res.Group.Name)
			} else {
				assert.Nil(t, res.Group)
			}
		})
	}
}

func TestBoardService_Layouts(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	infos, err := svc.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	l, err := svc.LoadLayout(ctx, "solar")
	require.NoError(t, err)
	assert.Equal(t, "Solar", l.Name)

	_, err = svc.LoadLayout(ctx, "nope")
	require.ErrorIs(t, err, layout.ErrLayoutNotFound)
}

func TestBoardService_ConcurrentAccess(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	info, err := svc.CreateBoard(ctx, "solar")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.ResolvePosition(ctx, info.ID, 0, i); err != nil {
				errs <- err
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			spec := layout.SquareSpec{ID: fmt.Sprintf("c%d", i), Kind: "special"}
			if _, err := svc.AppendSquares(ctx, info.ID, []layout.SquareSpec{spec}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent call failed: %v", err)
	}

	got, err := svc.GetBoard(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, board.MaxSquares, got.Size)
	for _, sq := range got.Squares[8:] {
		assert.True(t, strings.HasPrefix(sq.ID, "c"))
	}
}
