package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrLayoutNotFound = errors.New("layout not found")
	ErrInvalidLayout  = errors.New("invalid layout")
)

// DefaultLayoutID is the layout preferred as default when present
const DefaultLayoutID = "solar"

// supported file extensions, in lookup order
var extensions = []string{".json", ".hcl"}

// Manager handles board layout loading and caching
type Manager struct {
	layoutDir     string
	defaultLayout *Layout
	layouts       map[string]*Layout
	logger        *slog.Logger
	mu            sync.RWMutex
}

// NewManager creates a new layout manager
func NewManager(layoutDir string, logger *slog.Logger) (*Manager, error) {
	// Ensure layout directory exists
	if _, err := os.Stat(layoutDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("layout directory does not exist: %s", layoutDir)
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		layoutDir: layoutDir,
		layouts:   make(map[string]*Layout),
		logger:    logger,
	}

	if err := m.loadDefaultLayout(); err != nil {
		return nil, fmt.Errorf("failed to load default layout: %w", err)
	}

	return m, nil
}

// LoadLayout loads a layout by ID (file name without extension)
func (m *Manager) LoadLayout(id string) (*Layout, error) {
	id = trimExtension(id)

	m.mu.RLock()
	// Check cache first
	if l, exists := m.layouts[id]; exists {
		m.mu.RUnlock()
		return l, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if l, exists := m.layouts[id]; exists {
		return l, nil
	}

	l, err := m.readLayout(id)
	if err != nil {
		return nil, err
	}

	m.layouts[id] = l
	return l, nil
}

// ListLayouts returns information about all valid layouts in the directory
func (m *Manager) ListLayouts() ([]*LayoutInfo, error) {
	entries, err := os.ReadDir(m.layoutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout directory: %w", err)
	}

	var infos []*LayoutInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || !supported(ext) {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ext)
		if seen[id] {
			continue
		}
		seen[id] = true

		l, err := m.LoadLayout(id)
		if err != nil {
			m.logger.Warn("skipping invalid layout", "file", entry.Name(), "error", err)
			continue
		}

		infos = append(infos, &LayoutInfo{
			Filename:    entry.Name(),
			LayoutID:    id,
			Name:        l.Name,
			Description: l.Description,
			Format:      strings.TrimPrefix(ext, "."),
			Squares:     len(l.Squares),
			Groups:      len(l.Groups),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].LayoutID < infos[j].LayoutID })
	return infos, nil
}

// GetDefault returns the default layout
func (m *Manager) GetDefault() *Layout {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLayout
}

// SetDefault sets the default layout by ID
func (m *Manager) SetDefault(id string) error {
	l, err := m.LoadLayout(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLayout = l
	return nil
}

// RefreshCache drops all cached layouts and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.layouts = make(map[string]*Layout)
	m.mu.Unlock()

	return m.loadDefaultLayout()
}

// LayoutID returns the ID of a loaded layout, matching by display name
func (m *Manager) LayoutID(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, l := range m.layouts {
		if l.Name == name {
			return id
		}
	}
	if name == "" {
		return "default"
	}
	return name
}

// readLayout reads, decodes and validates a layout file. Callers hold m.mu.
func (m *Manager) readLayout(id string) (*Layout, error) {
	for _, ext := range extensions {
		path := filepath.Join(m.layoutDir, id+ext)

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read layout file: %w", err)
		}

		l, err := Parse(data, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
		}

		if err := ValidateLayout(l); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
		}

		m.logger.Debug("layout loaded", "layout", id, "file", path, "squares", len(l.Squares), "groups", len(l.Groups))
		return l, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
}

// loadDefaultLayout picks the default layout
func (m *Manager) loadDefaultLayout() error {
	l, err := m.LoadLayout(DefaultLayoutID)
	if err != nil {
		// Try the first available layout
		infos, listErr := m.ListLayouts()
		if listErr != nil || len(infos) == 0 {
			m.setDefault(MinimalLayout())
			return nil
		}

		l, err = m.LoadLayout(infos[0].LayoutID)
		if err != nil {
			m.setDefault(MinimalLayout())
			return nil
		}
	}

	m.setDefault(l)
	return nil
}

func (m *Manager) setDefault(l *Layout) {
	m.mu.Lock()
	m.defaultLayout = l
	m.mu.Unlock()
}

// Parse decodes a layout document; the format is picked from the file extension
func Parse(data []byte, filename string) (*Layout, error) {
	switch filepath.Ext(filename) {
	case ".hcl":
		return parseHCL(data, filename)
	case ".json", "":
		var l Layout
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("failed to parse layout %s: %w", filename, err)
		}
		return &l, nil
	default:
		return nil, fmt.Errorf("unsupported layout format %q", filepath.Ext(filename))
	}
}

// MinimalLayout returns the smallest valid layout
func MinimalLayout() *Layout {
	return &Layout{
		Name:        "default",
		Description: "Default minimal layout",
		Squares: []SquareSpec{
			{ID: "go", Name: "GO", Kind: "start"},
			{ID: "a1", Name: "Area 1", Kind: "area", Price: 60, Rent: 2},
			{ID: "a2", Name: "Area 2", Kind: "area", Price: 60, Rent: 4},
			{ID: "rest", Name: "Rest", Kind: "special"},
			{ID: "a3", Name: "Area 3", Kind: "area", Price: 100, Rent: 6},
			{ID: "a4", Name: "Area 4", Kind: "area", Price: 120, Rent: 8},
		},
		Groups: []GroupSpec{
			{Name: "first", Areas: []string{"a1", "a2"}},
			{Name: "second", Areas: []string{"a3", "a4"}},
		},
	}
}

func supported(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func trimExtension(id string) string {
	for _, ext := range extensions {
		if strings.HasSuffix(id, ext) {
			return strings.TrimSuffix(id, ext)
		}
	}
	return id
}
