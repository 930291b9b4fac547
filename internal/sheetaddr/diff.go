package sheetaddr

import (
	"fmt"
	"sort"

	"github.com/witanlabs/gridkit/grid"
)

// Change is one cell that differs between two grids.
type Change struct {
	Ref    grid.Ref  `json:"-"`
	Addr   string    `json:"addr"`
	Before grid.Cell `json:"before"`
	After  grid.Cell `json:"after"`
}

// DiffGrids compares two grids cell-by-cell and returns the changed
// cells in row-major order. A cell present in only one grid diffs
// against the default empty cell.
func DiffGrids(before, after *grid.Grid) []Change {
	seen := make(map[grid.Ref]bool)
	var changes []Change

	check := func(ref grid.Ref) {
		if seen[ref] {
			return
		}
		seen[ref] = true
		b := before.Cell(ref.Row, ref.Col)
		a := after.Cell(ref.Row, ref.Col)
		if cellsEqual(b, a) {
			return
		}
		changes = append(changes, Change{
			Ref:    ref,
			Addr:   grid.FormatCellRef(ref.Row, ref.Col),
			Before: b,
			After:  a,
		})
	}

	before.Each(func(ref grid.Ref, _ grid.Cell) { check(ref) })
	after.Each(func(ref grid.Ref, _ grid.Cell) { check(ref) })

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Ref.Row != changes[j].Ref.Row {
			return changes[i].Ref.Row < changes[j].Ref.Row
		}
		return changes[i].Ref.Col < changes[j].Ref.Col
	})
	return changes
}

func cellsEqual(a, b grid.Cell) bool {
	if a.Value != b.Value || a.Formula != b.Formula || a.Bold != b.Bold {
		return false
	}
	if len(a.Format) != len(b.Format) {
		return false
	}
	for k, v := range a.Format {
		if b.Format[k] != v {
			return false
		}
	}
	return true
}

// FormatDiffSummary returns a human-readable summary line.
func FormatDiffSummary(changed, total int) string {
	if changed == 0 {
		return "diff: no changes"
	}
	if total == 0 {
		return fmt.Sprintf("diff: %d cells changed", changed)
	}
	return fmt.Sprintf("diff: %d of %d cells changed", changed, total)
}
