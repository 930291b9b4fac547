// Package grid implements a sparse two-dimensional cell store.
//
// Storage cost is proportional to occupied cells; coordinates are logically
// unbounded up to a sanity-check maximum. Reads never fail: an unwritten
// coordinate reads as the default empty cell, and Has distinguishes "absent"
// from "written empty string" for the aggregate functions that care.
package grid

import (
	"encoding/json"
	"fmt"
)

const (
	// MaxRows is the coordinate sanity bound for rows. It caps parsed
	// references, not storage; the grid stays sparse regardless.
	MaxRows = 1_000_000
	// MaxCols is the coordinate sanity bound for columns (XFD-equivalent).
	MaxCols = 16_384
)

// Ref is a 0-based cell coordinate.
type Ref struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell is one grid cell. Value holds the last-computed display text;
// Formula, when present, starts with "=" and is the original source the
// value was computed from. Values are snapshots: they do not recompute
// when referenced cells later change.
type Cell struct {
	Value   string            `json:"value"`
	Formula string            `json:"formula,omitempty"`
	Bold    bool              `json:"bold,omitempty"`
	Format  map[string]string `json:"format,omitempty"`
}

func (c Cell) clone() Cell {
	out := c
	if c.Format != nil {
		out.Format = make(map[string]string, len(c.Format))
		for k, v := range c.Format {
			out.Format[k] = v
		}
	}
	return out
}

// CellOption is a partial cell update applied by SetCell. Unspecified
// fields keep their current value.
type CellOption func(*Cell)

// WithValue sets the display text.
func WithValue(v string) CellOption { return func(c *Cell) { c.Value = v } }

// WithFormula sets the source formula.
func WithFormula(f string) CellOption { return func(c *Cell) { c.Formula = f } }

// WithBold sets the bold flag.
func WithBold(b bool) CellOption { return func(c *Cell) { c.Bold = b } }

// WithFormat merges the given attributes into the cell's format map,
// keeping attributes it does not mention.
func WithFormat(attrs map[string]string) CellOption {
	return func(c *Cell) {
		if len(attrs) == 0 {
			return
		}
		if c.Format == nil {
			c.Format = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			c.Format[k] = v
		}
	}
}

// Grid is a sparse cell store keyed by coordinate.
type Grid struct {
	cells map[Ref]Cell
}

// New returns an empty grid.
func New() *Grid {
	return &Grid{cells: make(map[Ref]Cell)}
}

// Cell returns the cell at (row, col). It never fails: unwritten or
// out-of-bounds coordinates read as the default empty cell.
func (g *Grid) Cell(row, col int) Cell {
	if g == nil || g.cells == nil {
		return Cell{}
	}
	if c, ok := g.cells[Ref{Row: row, Col: col}]; ok {
		return c.clone()
	}
	return Cell{}
}

// Has reports whether (row, col) has been written.
func (g *Grid) Has(row, col int) bool {
	if g == nil || g.cells == nil {
		return false
	}
	_, ok := g.cells[Ref{Row: row, Col: col}]
	return ok
}

// SetCell applies a partial update to the cell at (row, col), creating it
// if absent and preserving fields the options do not mention. Coordinates
// outside the sanity bounds are ignored.
func (g *Grid) SetCell(row, col int, opts ...CellOption) {
	if row < 0 || col < 0 || row >= MaxRows || col >= MaxCols {
		return
	}
	if g.cells == nil {
		g.cells = make(map[Ref]Cell)
	}
	key := Ref{Row: row, Col: col}
	c := g.cells[key].clone()
	for _, opt := range opts {
		opt(&c)
	}
	g.cells[key] = c
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.cells)
}

// Each calls fn for every occupied cell in unspecified order.
func (g *Grid) Each(fn func(Ref, Cell)) {
	if g == nil {
		return
	}
	for ref, c := range g.cells {
		fn(ref, c.clone())
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := New()
	if g == nil {
		return out
	}
	for ref, c := range g.cells {
		out.cells[ref] = c.clone()
	}
	return out
}

// MarshalJSON encodes the grid as an address-keyed object, e.g.
// {"A1":{"value":"2"},"B1":{"value":"3"}}. The round trip through
// UnmarshalJSON is lossless cell-for-cell.
func (g *Grid) MarshalJSON() ([]byte, error) {
	out := make(map[string]Cell, g.Len())
	if g != nil {
		for ref, c := range g.cells {
			out[FormatCellRef(ref.Row, ref.Col)] = c
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the address-keyed object form produced by
// MarshalJSON.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw map[string]Cell
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.cells = make(map[Ref]Cell, len(raw))
	for addr, c := range raw {
		ref, ok := ParseCellRef(addr)
		if !ok {
			return fmt.Errorf("invalid cell address %q", addr)
		}
		g.cells[ref] = c
	}
	return nil
}

// Snapshot serializes the grid for transfer to another execution context.
// The worker side reconstructs it with FromSnapshot; grids are never shared
// by reference across contexts.
func (g *Grid) Snapshot() ([]byte, error) {
	return json.Marshal(g)
}

// FromSnapshot reconstructs a grid serialized by Snapshot.
func FromSnapshot(data []byte) (*Grid, error) {
	g := New()
	if len(data) == 0 {
		return g, nil
	}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("decoding grid snapshot: %w", err)
	}
	return g, nil
}
