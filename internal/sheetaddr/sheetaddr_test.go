package sheetaddr

import (
	"testing"

	"github.com/witanlabs/gridkit/grid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		sheet   string
		first   grid.Ref
		last    grid.Ref
		count   int
		wantErr bool
	}{
		{"Data!A1:B2", "Data", grid.Ref{Row: 0, Col: 0}, grid.Ref{Row: 1, Col: 1}, 4, false},
		{"Data!A1", "Data", grid.Ref{Row: 0, Col: 0}, grid.Ref{Row: 0, Col: 0}, 1, false},
		{"'My Sheet'!C3:D4", "My Sheet", grid.Ref{Row: 2, Col: 2}, grid.Ref{Row: 3, Col: 3}, 4, false},
		{"Data!$A$1:$B$2", "Data", grid.Ref{Row: 0, Col: 0}, grid.Ref{Row: 1, Col: 1}, 4, false},
		// reversed range should normalize
		{"Data!B2:A1", "Data", grid.Ref{Row: 0, Col: 0}, grid.Ref{Row: 1, Col: 1}, 4, false},
		// missing sheet
		{"A1:B2", "", grid.Ref{}, grid.Ref{}, 0, true},
		{"!A1:B2", "", grid.Ref{}, grid.Ref{}, 0, true},
		{"Data!1A", "", grid.Ref{}, grid.Ref{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sheet, refs, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if sheet != tt.sheet {
				t.Errorf("Parse(%q) sheet = %q, want %q", tt.input, sheet, tt.sheet)
			}
			if len(refs) != tt.count {
				t.Fatalf("Parse(%q) returned %d refs, want %d", tt.input, len(refs), tt.count)
			}
			if refs[0] != tt.first || refs[len(refs)-1] != tt.last {
				t.Errorf("Parse(%q) spans %v..%v, want %v..%v",
					tt.input, refs[0], refs[len(refs)-1], tt.first, tt.last)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	got := Format("Data", 0, 0, 49, 25)
	want := "Data!A1:Z50"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}

	// Single cell
	got = Format("Data", 4, 2, 4, 2)
	want = "Data!C5"
	if got != want {
		t.Errorf("Format single cell = %q, want %q", got, want)
	}
}
