package grid

import (
	"reflect"
	"testing"
)

func TestCellDefaultsAndMerge(t *testing.T) {
	g := New()

	// Unwritten cell reads as the default empty cell.
	if got := g.Cell(5, 5); got.Value != "" || got.Formula != "" || got.Bold {
		t.Fatalf("unwritten cell = %+v, want zero cell", got)
	}
	if g.Has(5, 5) {
		t.Fatal("Has should be false for unwritten cell")
	}

	// Partial updates preserve unspecified fields.
	g.SetCell(1, 1, WithValue("6"), WithFormula("=A1*B1"))
	g.SetCell(1, 1, WithBold(true))
	c := g.Cell(1, 1)
	if c.Value != "6" || c.Formula != "=A1*B1" || !c.Bold {
		t.Errorf("merged cell = %+v", c)
	}

	// Format attributes merge rather than replace.
	g.SetCell(1, 1, WithFormat(map[string]string{"backgroundColor": "#e8f5e9"}))
	g.SetCell(1, 1, WithFormat(map[string]string{"color": "#1b5e20"}))
	c = g.Cell(1, 1)
	if c.Format["backgroundColor"] != "#e8f5e9" || c.Format["color"] != "#1b5e20" {
		t.Errorf("format merge = %v", c.Format)
	}

	// Written empty string is distinguishable from absent.
	g.SetCell(2, 0, WithValue(""))
	if !g.Has(2, 0) {
		t.Error("Has should be true for cell written with empty value")
	}
}

func TestSetCellBounds(t *testing.T) {
	g := New()
	g.SetCell(-1, 0, WithValue("x"))
	g.SetCell(0, -1, WithValue("x"))
	g.SetCell(MaxRows, 0, WithValue("x"))
	g.SetCell(0, MaxCols, WithValue("x"))
	if g.Len() != 0 {
		t.Errorf("out-of-bounds writes stored, Len = %d", g.Len())
	}
}

func TestCellReadIsolation(t *testing.T) {
	g := New()
	g.SetCell(0, 0, WithFormat(map[string]string{"color": "red"}))
	c := g.Cell(0, 0)
	c.Format["color"] = "blue"
	if g.Cell(0, 0).Format["color"] != "red" {
		t.Error("mutating a returned cell leaked into the grid")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := New()
	g.SetCell(0, 0, WithValue("2"))
	g.SetCell(0, 1, WithValue("3"), WithBold(true))
	g.SetCell(12, 2, WithValue("6"), WithFormula("=A1*B1"))
	g.SetCell(3, 27, WithValue("x"), WithFormat(map[string]string{"backgroundColor": "#fde"}))
	g.SetCell(4, 0, WithValue("")) // written empty cell survives the trip

	data, err := g.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	got, err := FromSnapshot(data)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}

	if got.Len() != g.Len() {
		t.Fatalf("round trip Len = %d, want %d", got.Len(), g.Len())
	}
	g.Each(func(ref Ref, want Cell) {
		if !got.Has(ref.Row, ref.Col) {
			t.Errorf("round trip lost %s", FormatCellRef(ref.Row, ref.Col))
			return
		}
		if gc := got.Cell(ref.Row, ref.Col); !reflect.DeepEqual(gc, want) {
			t.Errorf("round trip %s = %+v, want %+v", FormatCellRef(ref.Row, ref.Col), gc, want)
		}
	})

	// Defaults elsewhere.
	if got.Has(50, 50) {
		t.Error("round trip invented a cell")
	}
}

func TestFromSnapshotEmpty(t *testing.T) {
	g, err := FromSnapshot(nil)
	if err != nil {
		t.Fatalf("FromSnapshot(nil): %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("empty snapshot Len = %d", g.Len())
	}
}

func TestClone(t *testing.T) {
	g := New()
	g.SetCell(0, 0, WithValue("a"))
	c := g.Clone()
	c.SetCell(0, 0, WithValue("b"))
	if g.Cell(0, 0).Value != "a" {
		t.Error("Clone shares storage with original")
	}
}
