package sheetaddr

import (
	"testing"

	"github.com/witanlabs/gridkit/grid"
)

func TestDiffGrids(t *testing.T) {
	before := grid.New()
	before.SetCell(0, 0, grid.WithValue("1"))
	before.SetCell(1, 0, grid.WithValue("same"))
	before.SetCell(2, 0, grid.WithValue("gone"))

	after := before.Clone()
	after.SetCell(0, 0, grid.WithValue("2")) // changed
	after.SetCell(0, 1, grid.WithValue("6"), grid.WithFormula("=A1"))
	after.SetCell(2, 0, grid.WithValue("")) // still present but blanked

	changes := DiffGrids(before, after)
	if len(changes) != 3 {
		t.Fatalf("got %d changes, want 3: %+v", len(changes), changes)
	}

	// Row-major order.
	if changes[0].Addr != "A1" || changes[1].Addr != "B1" || changes[2].Addr != "A3" {
		t.Errorf("change order = %s, %s, %s", changes[0].Addr, changes[1].Addr, changes[2].Addr)
	}
	if changes[0].Before.Value != "1" || changes[0].After.Value != "2" {
		t.Errorf("A1 diff = %+v", changes[0])
	}
	if changes[1].Before.Value != "" || changes[1].After.Formula != "=A1" {
		t.Errorf("B1 diff = %+v", changes[1])
	}
}

func TestDiffGridsFormatChanges(t *testing.T) {
	before := grid.New()
	before.SetCell(0, 0, grid.WithValue("x"))

	after := before.Clone()
	after.SetCell(0, 0, grid.WithFormat(map[string]string{"fontWeight": "bold"}))

	changes := DiffGrids(before, after)
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	if changes[0].After.Format["fontWeight"] != "bold" {
		t.Errorf("format diff = %+v", changes[0])
	}
}

func TestDiffGridsIdentical(t *testing.T) {
	g := grid.New()
	g.SetCell(0, 0, grid.WithValue("1"), grid.WithBold(true))

	if changes := DiffGrids(g, g.Clone()); len(changes) != 0 {
		t.Errorf("identical grids diffed: %+v", changes)
	}
}

func TestFormatDiffSummary(t *testing.T) {
	tests := []struct {
		changed, total int
		want           string
	}{
		{0, 10, "diff: no changes"},
		{3, 0, "diff: 3 cells changed"},
		{3, 10, "diff: 3 of 10 cells changed"},
	}
	for _, tt := range tests {
		if got := FormatDiffSummary(tt.changed, tt.total); got != tt.want {
			t.Errorf("FormatDiffSummary(%d, %d) = %q, want %q", tt.changed, tt.total, got, tt.want)
		}
	}
}
