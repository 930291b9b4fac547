// Package workbook models the editing-session document: sheets of cells
// plus chart and conditional-format metadata. One Workbook exists per
// session and is mutated in place; sheets are appended, never reordered or
// removed.
package workbook

import (
	"github.com/google/uuid"
	"github.com/witanlabs/gridkit/grid"
)

// ChartType enumerates supported chart kinds.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
	ChartArea ChartType = "area"
)

// DataRange names the label and value ranges a chart draws from. Ranges
// are plain range text ("A2:A7") against the owning sheet; they are
// metadata only and never consulted by the formula interpreter.
type DataRange struct {
	Labels string `json:"labels"`
	Values string `json:"values"`
}

// Position is a chart anchor in cell coordinates.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Size is a chart extent in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Chart is chart metadata attached to a sheet. The referenced range is
// not validated.
type Chart struct {
	ID        string    `json:"id"`
	Type      ChartType `json:"type"`
	Title     string    `json:"title"`
	DataRange DataRange `json:"dataRange"`
	Position  Position  `json:"position"`
	Size      Size      `json:"size"`
}

// ConditionalRule is one threshold rule: cells whose numeric value
// satisfies Operator against Value receive Format.
type ConditionalRule struct {
	Operator string            `json:"operator"` // ">", "<", ">=", "<=", "="
	Value    float64           `json:"value"`
	Format   map[string]string `json:"format"`
}

// ConditionalFormat is a recorded rule set over a range. Rules apply
// first-match-wins in array order, not best-match.
type ConditionalFormat struct {
	Range string            `json:"range"`
	Rules []ConditionalRule `json:"rules"`
}

// Sheet is one grid plus its chart and conditional-format metadata.
type Sheet struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Grid               *grid.Grid          `json:"grid"`
	Charts             []Chart             `json:"charts"`
	ConditionalFormats []ConditionalFormat `json:"conditionalFormats"`
}

// Workbook is the per-session document.
type Workbook struct {
	Sheets        []*Sheet `json:"sheets"`
	ActiveSheetID string   `json:"activeSheetId"`
}

// New returns a workbook seeded with one active sheet.
func New() *Workbook {
	wb := &Workbook{}
	s := wb.AddSheet("Sheet1")
	wb.ActiveSheetID = s.ID
	return wb
}

// NewSheet returns a detached sheet with an empty grid.
func NewSheet(name string) *Sheet {
	return &Sheet{
		ID:   uuid.NewString(),
		Name: name,
		Grid: grid.New(),
	}
}

// Sheet returns the sheet with the given name, or nil.
func (wb *Workbook) Sheet(name string) *Sheet {
	for _, s := range wb.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddSheet appends a new empty sheet and returns it. Append-only: callers
// must check for an existing name themselves if duplicates matter.
func (wb *Workbook) AddSheet(name string) *Sheet {
	s := NewSheet(name)
	wb.Sheets = append(wb.Sheets, s)
	return s
}

// ActiveSheet returns the sheet ActiveSheetID points at, or nil.
func (wb *Workbook) ActiveSheet() *Sheet {
	for _, s := range wb.Sheets {
		if s.ID == wb.ActiveSheetID {
			return s
		}
	}
	return nil
}
