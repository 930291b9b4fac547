// Package orchestrator turns natural-language requests into deterministic
// spreadsheet-building plans and executes them against a workbook.
//
// Analysis is local pattern matching only; any LLM rewriting of user
// input happens upstream. Plans are linear: ordering in the plan is the
// dependency order, and execution is strictly sequential.
package orchestrator

import (
	"time"

	"github.com/witanlabs/gridkit/grid"
	"github.com/witanlabs/gridkit/workbook"
)

// Action identifies a task's sub-agent family.
type Action string

const (
	ActionCreateSheet            Action = "CREATE_SHEET"
	ActionInsertData             Action = "INSERT_DATA"
	ActionInsertFormula          Action = "INSERT_FORMULA"
	ActionInsertBulkFormulas     Action = "INSERT_BULK_FORMULAS"
	ActionCreateChart            Action = "CREATE_CHART"
	ActionApplyStyle             Action = "APPLY_STYLE"
	ActionApplyConditionalFormat Action = "APPLY_CONDITIONAL_FORMAT"
)

// Task is one planned mutation. Params holds the action family's params
// struct; the executor's dispatch is exhaustive over Action.
type Task struct {
	Action Action `json:"action"`
	Params any    `json:"params"`
}

// CreateSheetParams appends an empty sheet. A duplicate name is a no-op
// with a log line. Index is advisory placement metadata; sheets are
// append-only here.
type CreateSheetParams struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// InsertDataParams writes a 2-D literal block. Empty-string entries are
// skipped: they reserve slots for formulas computed later. Row 0 is
// bolded when Headers is set.
type InsertDataParams struct {
	SheetName string     `json:"sheetName"`
	StartRow  int        `json:"startRow"`
	StartCol  int        `json:"startCol"`
	Data      [][]string `json:"data"`
	Headers   bool       `json:"headers"`
}

// InsertFormulaParams evaluates one formula and snapshots the result.
// SourceSheet, when set, resolves references against that sheet's grid
// instead of the target's (cross-sheet aggregates).
type InsertFormulaParams struct {
	SheetName   string `json:"sheetName"`
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	Formula     string `json:"formula"`
	SourceSheet string `json:"sourceSheet,omitempty"`
}

// BulkFormula is one entry of a bulk insertion.
type BulkFormula struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Formula string `json:"formula"`
}

// InsertBulkFormulasParams evaluates formulas sequentially in list order
// against a progressively mutated grid: formula N sees formula N−1's
// written result (fill-down semantics). This is deliberately different
// from the dispatcher's snapshot-isolated batches.
type InsertBulkFormulasParams struct {
	SheetName   string        `json:"sheetName"`
	SourceSheet string        `json:"sourceSheet,omitempty"`
	Formulas    []BulkFormula `json:"formulas"`
}

// CreateChartParams appends chart metadata. The referenced ranges are not
// validated.
type CreateChartParams struct {
	SheetName   string             `json:"sheetName"`
	Type        workbook.ChartType `json:"type"`
	Title       string             `json:"title"`
	LabelsRange string             `json:"labelsRange"`
	ValuesRange string             `json:"valuesRange"`
	Position    workbook.Position  `json:"position"`
	Size        workbook.Size      `json:"size"`
}

// ApplyStyleParams merges style attributes into every cell of a range.
type ApplyStyleParams struct {
	SheetName string            `json:"sheetName"`
	Range     string            `json:"range"`
	Style     map[string]string `json:"style"`
}

// ApplyConditionalFormatParams records a rule set, then walks the range
// once applying the first matching rule per cell (array order, not
// best-match).
type ApplyConditionalFormatParams struct {
	SheetName string                     `json:"sheetName"`
	Range     string                     `json:"range"`
	Rules     []workbook.ConditionalRule `json:"rules"`
}

// Status is a log entry outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// LogEntry records one executed task. Task errors are absorbed: the run
// continues and the entry carries the error text.
type LogEntry struct {
	Task      Task      `json:"task"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Progress is reported before each task.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Action  Action `json:"action"`
	Params  any    `json:"params"`
}

// State is the orchestrator lifecycle. There is no whole-run failed
// terminal: task errors are logged and execution continues, so a run ends
// Done or PartiallyFailed.
type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StatePlanning
	StateExecuting
	StateDone
	StatePartiallyFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StatePlanning:
		return "planning"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	case StatePartiallyFailed:
		return "partially_failed"
	default:
		return "unknown"
	}
}

// StreamHook lets a consumer animate cell insertion. The data agent
// queues every non-empty cell it writes, pacing with the configured
// per-cell delay, and drains the queue before its task completes.
type StreamHook interface {
	QueueCell(sheetName string, row, col int, cell grid.Cell)
	ProcessStreamQueue()
}
