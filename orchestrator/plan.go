package orchestrator

import (
	"fmt"
	"strconv"

	"github.com/witanlabs/gridkit/workbook"
)

// defaultYears is the span used when a simple chart request names none.
var defaultYears = YearRange{From: 2020, To: 2024}

var months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// monthlyUnits is the deterministic unit series behind the sales
// template. Values are fixed so plans are reproducible.
var monthlyUnits = []int{120, 95, 140, 110, 160, 150, 175, 165, 145, 180, 200, 210}

const unitPrice = 25

// BuildPlan expands an analysis into an ordered task list. Plans are
// deterministic: the same analysis always yields the same tasks, and a
// sheet-creating task always precedes the tasks that reference it.
//
// Analyses that match no template degrade to one empty CREATE_SHEET per
// requested name; content generation for arbitrary themes is
// deliberately unimplemented.
func BuildPlan(a Analysis) []Task {
	switch {
	case a.SimpleChart:
		return simpleChartPlan(a)
	case a.Theme == ThemeSales:
		return salesWorkbookPlan(a)
	case len(a.SheetNames) > 0:
		return sheetOnlyPlan(a.SheetNames)
	case a.Theme == ThemeEmployees:
		return sheetOnlyPlan([]string{"Employees"})
	case a.Theme == ThemeInventory:
		return sheetOnlyPlan([]string{"Inventory"})
	default:
		return nil
	}
}

// simpleChartPlan is the minimal single-sheet template: a synthetic
// year/value series plus one chart.
func simpleChartPlan(a Analysis) []Task {
	years := defaultYears
	if a.Years != nil {
		years = *a.Years
	}

	data := [][]string{{"Year", "Value"}}
	for i := 0; i < years.Count(); i++ {
		data = append(data, []string{
			strconv.Itoa(years.From + i),
			strconv.Itoa(100 + 15*i),
		})
	}

	kind := workbook.ChartBar
	if len(a.ChartKinds) > 0 {
		kind = a.ChartKinds[0]
	}

	lastRow := len(data) // 1-based row of the final series entry
	return []Task{
		{ActionCreateSheet, CreateSheetParams{Name: "Chart"}},
		{ActionInsertData, InsertDataParams{
			SheetName: "Chart",
			Data:      data,
			Headers:   true,
		}},
		{ActionCreateChart, CreateChartParams{
			SheetName:   "Chart",
			Type:        kind,
			Title:       fmt.Sprintf("Values %d to %d", years.From, years.To),
			LabelsRange: "A2:A" + strconv.Itoa(lastRow),
			ValuesRange: "B2:B" + strconv.Itoa(lastRow),
			Position:    workbook.Position{Row: 0, Col: 3},
			Size:        workbook.Size{Width: 480, Height: 300},
		}},
	}
}

// salesWorkbookPlan is the four-sheet template: raw data with per-row
// multiplication formulas, a summary with cross-sheet aggregates, a
// charts sheet with two independent data blocks and two charts, and an
// analysis sheet with month-over-month growth and conditional formatting
// on the growth column.
func salesWorkbookPlan(a Analysis) []Task {
	revenue := make([]int, len(monthlyUnits))
	for i, u := range monthlyUnits {
		revenue[i] = u * unitPrice
	}

	var tasks []Task

	// Raw data sheet: Revenue column left empty for the bulk formulas.
	dataRows := [][]string{{"Month", "Units", "Unit Price", "Revenue"}}
	for i, m := range months {
		dataRows = append(dataRows, []string{
			m, strconv.Itoa(monthlyUnits[i]), strconv.Itoa(unitPrice), "",
		})
	}
	var revenueFormulas []BulkFormula
	for i := range months {
		row := i + 1 // 0-based grid row under the header
		revenueFormulas = append(revenueFormulas, BulkFormula{
			Row: row, Col: 3,
			Formula: fmt.Sprintf("=B%d*C%d", row+1, row+1),
		})
	}
	tasks = append(tasks,
		Task{ActionCreateSheet, CreateSheetParams{Name: "Data"}},
		Task{ActionInsertData, InsertDataParams{SheetName: "Data", Data: dataRows, Headers: true}},
		Task{ActionInsertBulkFormulas, InsertBulkFormulasParams{SheetName: "Data", Formulas: revenueFormulas}},
	)

	// Summary sheet: aggregates read the Data sheet's grid.
	tasks = append(tasks,
		Task{ActionCreateSheet, CreateSheetParams{Name: "Summary", Index: 1}},
		Task{ActionInsertData, InsertDataParams{
			SheetName: "Summary",
			Data: [][]string{
				{"Metric", "Value"},
				{"Total Revenue", ""},
				{"Average Revenue", ""},
				{"Best Month Revenue", ""},
				{"Worst Month Revenue", ""},
			},
			Headers: true,
		}},
		Task{ActionInsertBulkFormulas, InsertBulkFormulasParams{
			SheetName:   "Summary",
			SourceSheet: "Data",
			Formulas: []BulkFormula{
				{Row: 1, Col: 1, Formula: "=SUM(D2:D13)"},
				{Row: 2, Col: 1, Formula: "=AVERAGE(D2:D13)"},
				{Row: 3, Col: 1, Formula: "=MAX(D2:D13)"},
				{Row: 4, Col: 1, Formula: "=MIN(D2:D13)"},
			},
		}},
		Task{ActionApplyStyle, ApplyStyleParams{
			SheetName: "Summary",
			Range:     "B2:B5",
			Style:     map[string]string{"fontWeight": "bold"},
		}},
	)

	// Charts sheet: two independent data blocks, two charts.
	firstKind, secondKind := workbook.ChartBar, workbook.ChartPie
	if len(a.ChartKinds) > 0 {
		firstKind = a.ChartKinds[0]
	}
	if len(a.ChartKinds) > 1 {
		secondKind = a.ChartKinds[1]
	}

	quarterly := [][]string{{"Quarter", "Revenue"}}
	for q := 0; q < 4; q++ {
		total := revenue[q*3] + revenue[q*3+1] + revenue[q*3+2]
		quarterly = append(quarterly, []string{"Q" + strconv.Itoa(q+1), strconv.Itoa(total)})
	}
	regions := [][]string{
		{"Region", "Share"},
		{"North", "35"},
		{"South", "25"},
		{"East", "22"},
		{"West", "18"},
	}
	tasks = append(tasks,
		Task{ActionCreateSheet, CreateSheetParams{Name: "Charts", Index: 2}},
		Task{ActionInsertData, InsertDataParams{SheetName: "Charts", Data: quarterly, Headers: true}},
		Task{ActionCreateChart, CreateChartParams{
			SheetName:   "Charts",
			Type:        firstKind,
			Title:       "Quarterly Revenue",
			LabelsRange: "A2:A5",
			ValuesRange: "B2:B5",
			Position:    workbook.Position{Row: 0, Col: 3},
			Size:        workbook.Size{Width: 480, Height: 300},
		}},
		Task{ActionInsertData, InsertDataParams{SheetName: "Charts", StartRow: 7, Data: regions, Headers: true}},
		Task{ActionCreateChart, CreateChartParams{
			SheetName:   "Charts",
			Type:        secondKind,
			Title:       "Revenue by Region",
			LabelsRange: "A9:A12",
			ValuesRange: "B9:B12",
			Position:    workbook.Position{Row: 7, Col: 3},
			Size:        workbook.Size{Width: 480, Height: 300},
		}},
	)

	// Analysis sheet: month-over-month growth on its own revenue column.
	analysisRows := [][]string{{"Month", "Revenue", "Growth %"}}
	for i, m := range months {
		analysisRows = append(analysisRows, []string{m, strconv.Itoa(revenue[i]), ""})
	}
	var growthFormulas []BulkFormula
	for i := 1; i < len(months); i++ {
		row := i + 1 // 0-based grid row; first data row has no prior month
		growthFormulas = append(growthFormulas, BulkFormula{
			Row: row, Col: 2,
			Formula: fmt.Sprintf("=ROUND((B%d-B%d)/B%d*100,1)", row+1, row, row),
		})
	}
	tasks = append(tasks,
		Task{ActionCreateSheet, CreateSheetParams{Name: "Analysis", Index: 3}},
		Task{ActionInsertData, InsertDataParams{SheetName: "Analysis", Data: analysisRows, Headers: true}},
		Task{ActionInsertBulkFormulas, InsertBulkFormulasParams{SheetName: "Analysis", Formulas: growthFormulas}},
		Task{ActionApplyConditionalFormat, ApplyConditionalFormatParams{
			SheetName: "Analysis",
			Range:     "C2:C13",
			Rules: []workbook.ConditionalRule{
				{Operator: ">", Value: 0, Format: map[string]string{
					"backgroundColor": "#e8f5e9", "color": "#1b5e20",
				}},
				{Operator: "<", Value: 0, Format: map[string]string{
					"backgroundColor": "#ffebee", "color": "#b71c1c",
				}},
			},
		}},
	)

	return tasks
}

// sheetOnlyPlan is the degradation path: an empty sheet per requested
// name.
func sheetOnlyPlan(names []string) []Task {
	tasks := make([]Task, 0, len(names))
	for i, name := range names {
		tasks = append(tasks, Task{ActionCreateSheet, CreateSheetParams{Name: name, Index: i}})
	}
	return tasks
}
