package grid

import "testing"

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		input    string
		row, col int
		ok       bool
	}{
		{"A1", 0, 0, true},
		{"B3", 2, 1, true},
		{"Z1", 0, 25, true},
		{"AA1", 0, 26, true},
		{"C13", 12, 2, true},
		{"a1", 0, 0, true}, // case-insensitive
		{" B2 ", 1, 1, true},
		{"", 0, 0, false},
		{"1A", 0, 0, false},
		{"A0", 0, 0, false},
		{"A", 0, 0, false},
		{"12", 0, 0, false},
		{"A1B2", 0, 0, false},
		{"hello", 0, 0, false},
		{"ZZZZZ1", 0, 0, false}, // beyond column bound
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref, ok := ParseCellRef(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseCellRef(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && (ref.Row != tt.row || ref.Col != tt.col) {
				t.Errorf("ParseCellRef(%q) = (%d,%d), want (%d,%d)",
					tt.input, ref.Row, ref.Col, tt.row, tt.col)
			}
		})
	}
}

func TestParseCellRefInverse(t *testing.T) {
	coords := []Ref{
		{0, 0}, {0, 25}, {0, 26}, {0, 51}, {0, 701},
		{9, 3}, {99, 0}, {12, 2}, {999, 27},
	}
	for _, want := range coords {
		addr := FormatCellRef(want.Row, want.Col)
		got, ok := ParseCellRef(addr)
		if !ok {
			t.Fatalf("ParseCellRef(%q) failed", addr)
		}
		if got != want {
			t.Errorf("ParseCellRef(FormatCellRef(%d,%d)) = %+v, want %+v",
				want.Row, want.Col, got, want)
		}
	}
}

func TestFormatCellRef(t *testing.T) {
	tests := []struct {
		row, col int
		want     string
	}{
		{0, 0, "A1"},
		{0, 25, "Z1"},
		{0, 26, "AA1"},
		{0, 51, "AZ1"},
		{0, 701, "ZZ1"},
		{12, 2, "C13"},
	}
	for _, tt := range tests {
		if got := FormatCellRef(tt.row, tt.col); got != tt.want {
			t.Errorf("FormatCellRef(%d,%d) = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		input string
		want  []Ref
	}{
		{"A1:A3", []Ref{{0, 0}, {1, 0}, {2, 0}}},
		{"A1:B2", []Ref{{0, 0}, {0, 1}, {1, 0}, {1, 1}}}, // row-major
		{"B2:A1", []Ref{{0, 0}, {0, 1}, {1, 0}, {1, 1}}}, // normalized
		{"C5", []Ref{{4, 2}}},                            // single ref
		{"A1:", nil},
		{"banana", nil},
		{"A1:zzz", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseRange(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseRange(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseRange(%q)[%d] = %+v, want %+v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
