package location

import (
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// Grid is the slot ↔ control id index for bank controls.
type Grid struct {
	pages   int
	rows    int
	columns int

	mu    sync.RWMutex
	byLoc map[model.Location]string
	byID  map[string]model.Location
}

// NewGrid creates an empty grid of the given dimensions.
func NewGrid(pages, rows, columns int) *Grid {
	return &Grid{
		pages:   pages,
		rows:    rows,
		columns: columns,
		byLoc:   make(map[model.Location]string),
		byID:    make(map[string]model.Location),
	}
}

// Dimensions returns the page count, rows and columns.
func (g *Grid) Dimensions() (pages, rows, columns int) {
	return g.pages, g.rows, g.columns
}

// IsPageValid reports whether page exists on the grid.
func (g *Grid) IsPageValid(page int) bool {
	return page >= 1 && page <= g.pages
}

// IsValid reports whether loc addresses a slot on the grid.
func (g *Grid) IsValid(loc model.Location) bool {
	return g.IsPageValid(loc.Page) &&
		loc.Row >= 0 && loc.Row < g.rows &&
		loc.Column >= 0 && loc.Column < g.columns
}

// GetControlIDAt returns the control bound at loc, or "".
func (g *Grid) GetControlIDAt(loc model.Location) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.byLoc[loc]
}

// SetControlIDAt binds id at loc, or clears loc when id is empty. Any
// previous slot of id and any previous occupant of loc are unbound.
// Invalid slots are ignored.
func (g *Grid) SetControlIDAt(loc model.Location, id string) {
	if !g.IsValid(loc) {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.byLoc[loc]; ok {
		delete(g.byID, prev)
		delete(g.byLoc, loc)
	}
	if id == "" {
		return
	}
	if old, ok := g.byID[id]; ok {
		delete(g.byLoc, old)
	}
	g.byLoc[loc] = id
	g.byID[id] = loc
}

// GetLocationOfControlID returns where id is bound.
func (g *Grid) GetLocationOfControlID(id string) (model.Location, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.byID[id]
	return loc, ok
}

// Bindings returns every occupied slot ordered by page, row, column.
func (g *Grid) Bindings() []Binding {
	g.mu.RLock()
	out := make([]Binding, 0, len(g.byLoc))
	for loc, id := range g.byLoc {
		out = append(out, Binding{Page: loc.Page, Row: loc.Row, Column: loc.Column, ControlID: id})
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Column < b.Column
	})
	return out
}

// PageBindings returns the occupied slots of one page.
func (g *Grid) PageBindings(page int) []Binding {
	var out []Binding
	for _, b := range g.Bindings() {
		if b.Page == page {
			out = append(out, b)
		}
	}
	return out
}
