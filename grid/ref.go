package grid

import (
	"regexp"
	"strconv"
	"strings"
)

// cellRefRe matches a cell reference like A1, b2, AA100.
var cellRefRe = regexp.MustCompile(`^([A-Z]+)(\d+)$`)

// ParseCellRef parses a column-letter + 1-based-row address ("A1", "C13")
// into a 0-based Ref. Malformed or out-of-bounds input returns ok=false,
// never an error or panic, so callers can fall back to literal-text
// handling.
func ParseCellRef(addr string) (Ref, bool) {
	m := cellRefRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(addr)))
	if m == nil {
		return Ref{}, false
	}
	col := letterToCol(m[1])
	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return Ref{}, false
	}
	row-- // 1-based in text, 0-based in Ref
	if row >= MaxRows || col >= MaxCols {
		return Ref{}, false
	}
	return Ref{Row: row, Col: col}, true
}

// ParseRange parses "A1:B3" into its cells in row-major order. A single
// reference is a length-1 range. Reversed bounds are normalized. Malformed
// input returns nil.
func ParseRange(text string) []Ref {
	from, to, hasColon := strings.Cut(strings.TrimSpace(text), ":")
	if !hasColon {
		to = from // single cell
	}
	start, ok := ParseCellRef(from)
	if !ok {
		return nil
	}
	end, ok := ParseCellRef(to)
	if !ok {
		return nil
	}
	if start.Row > end.Row {
		start.Row, end.Row = end.Row, start.Row
	}
	if start.Col > end.Col {
		start.Col, end.Col = end.Col, start.Col
	}
	refs := make([]Ref, 0, (end.Row-start.Row+1)*(end.Col-start.Col+1))
	for r := start.Row; r <= end.Row; r++ {
		for c := start.Col; c <= end.Col; c++ {
			refs = append(refs, Ref{Row: r, Col: c})
		}
	}
	return refs
}

// FormatCellRef renders a 0-based coordinate as a column-letter +
// 1-based-row address. It is the inverse of ParseCellRef for all in-bounds
// coordinates.
func FormatCellRef(row, col int) string {
	return colToLetter(col) + strconv.Itoa(row+1)
}

// colToLetter converts a 0-based column to letters: 0→A, 25→Z, 26→AA.
func colToLetter(col int) string {
	col++ // work 1-based, same loop as Excel column math
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// letterToCol converts letters to a 0-based column: A→0, Z→25, AA→26.
func letterToCol(letters string) int {
	col := 0
	for _, c := range letters {
		col = col*26 + int(c-'A'+1)
	}
	return col - 1
}
