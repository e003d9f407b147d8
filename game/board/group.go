package board

import (
	"fmt"
	"sort"
	"strings"
)

// Group is a named collection of areas. Areas are unique by ID within a group.
type Group struct {
	name  string
	areas []Area
}

// NewGroup creates a group, ignoring duplicate and nil areas
func NewGroup(name string, areas ...Area) *Group {
	g := &Group{name: name}
	seen := make(map[string]bool, len(areas))
	for _, a := range areas {
		if a == nil || seen[a.ID()] {
			continue
		}
		seen[a.ID()] = true
		g.areas = append(g.areas, a)
	}
	return g
}

// Name returns the group name
func (g *Group) Name() string {
	return g.name
}

// Areas returns the member areas in insertion order
func (g *Group) Areas() []Area {
	out := make([]Area, len(g.areas))
	copy(out, g.areas)
	return out
}

// Len returns the number of member areas
func (g *Group) Len() int {
	return len(g.areas)
}

// Contains reports whether area is a member of the group
func (g *Group) Contains(area Area) bool {
	if area == nil {
		return false
	}
	for _, a := range g.areas {
		if a.ID() == area.ID() {
			return true
		}
	}
	return false
}

// Key identifies the group by value: its name and the set of member IDs.
// Two groups with the same key are the same group.
func (g *Group) Key() string {
	ids := make([]string, 0, len(g.areas))
	for _, a := range g.areas {
		ids = append(ids, a.ID())
	}
	sort.Strings(ids)
	return g.name + "|" + strings.Join(ids, ",")
}

func (g *Group) String() string {
	return fmt.Sprintf("Group [name=%s, areas=%d]", g.name, len(g.areas))
}
