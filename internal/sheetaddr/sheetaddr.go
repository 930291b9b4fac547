// Package sheetaddr parses and formats sheet-qualified addresses like
// "Data!A1:B12". The bare range syntax lives in the grid package; this
// adds the sheet prefix used by CLI flags and cross-sheet parameters.
package sheetaddr

import (
	"fmt"
	"strings"

	"github.com/witanlabs/gridkit/grid"
)

// Parse splits "Sheet!A1:B2" into the sheet name and the range's cells in
// row-major order. The sheet name may be single-quoted; absolute markers
// ("$A$1") are accepted and ignored. A single cell is a length-1 range.
func Parse(address string) (sheet string, refs []grid.Ref, err error) {
	sheetPart, rangePart, hasSheet := strings.Cut(address, "!")
	if !hasSheet {
		return "", nil, fmt.Errorf("address must include a sheet name (e.g. Data!A1:B2), got %q", address)
	}
	sheet = strings.Trim(sheetPart, "'")
	if sheet == "" {
		return "", nil, fmt.Errorf("empty sheet name in %q", address)
	}
	refs = grid.ParseRange(strings.ReplaceAll(rangePart, "$", ""))
	if refs == nil {
		return "", nil, fmt.Errorf("invalid range %q in %q", rangePart, address)
	}
	return sheet, refs, nil
}

// Format builds "Sheet!A1:B2" from 0-based corner coordinates. A
// single-cell span renders without the colon.
func Format(sheet string, startRow, startCol, endRow, endCol int) string {
	from := grid.FormatCellRef(startRow, startCol)
	to := grid.FormatCellRef(endRow, endCol)
	if from == to {
		return sheet + "!" + from
	}
	return sheet + "!" + from + ":" + to
}
