package orchestrator

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/witanlabs/gridkit/formula"
	"github.com/witanlabs/gridkit/grid"
	"github.com/witanlabs/gridkit/workbook"
)

// createSheet appends an empty sheet. A duplicate name is a logged no-op
// so re-running a plan cannot fork sheet state.
func (o *Orchestrator) createSheet(p CreateSheetParams) error {
	if p.Name == "" {
		return fmt.Errorf("sheet name is empty")
	}
	if o.wb.Sheet(p.Name) != nil {
		o.logger.Info("sheet already exists, skipping", slog.String("name", p.Name))
		return nil
	}
	o.wb.AddSheet(p.Name)
	return nil
}

// insertData writes a 2-D literal block. Empty strings are skipped so
// later formula tasks can fill the reserved slots; row 0 is bolded when
// the block carries headers.
func (o *Orchestrator) insertData(p InsertDataParams) error {
	sheet := o.wb.Sheet(p.SheetName)
	if sheet == nil {
		return fmt.Errorf("unknown sheet %q", p.SheetName)
	}
	for r, row := range p.Data {
		for c, v := range row {
			if v == "" {
				continue
			}
			opts := []grid.CellOption{grid.WithValue(v)}
			if p.Headers && r == 0 {
				opts = append(opts, grid.WithBold(true))
			}
			gr, gc := p.StartRow+r, p.StartCol+c
			sheet.Grid.SetCell(gr, gc, opts...)
			if o.opts.Stream != nil {
				o.opts.Stream.QueueCell(sheet.Name, gr, gc, sheet.Grid.Cell(gr, gc))
				if o.opts.StreamCellDelay > 0 {
					o.opts.sleep(o.opts.StreamCellDelay)
				}
			}
		}
	}
	// The queue drains before the task completes so the next task never
	// races the animation.
	if o.opts.Stream != nil {
		o.opts.Stream.ProcessStreamQueue()
	}
	return nil
}

// insertFormula evaluates one formula and snapshots both the result and
// its source into the target cell. A failing formula is not a task error:
// the sentinel value is written and the task succeeds.
func (o *Orchestrator) insertFormula(p InsertFormulaParams) error {
	sheet := o.wb.Sheet(p.SheetName)
	if sheet == nil {
		return fmt.Errorf("unknown sheet %q", p.SheetName)
	}
	evalGrid, err := o.evalGrid(sheet, p.SourceSheet)
	if err != nil {
		return err
	}
	writeFormula(sheet.Grid, evalGrid, p.Row, p.Col, p.Formula)
	return nil
}

// insertBulkFormulas evaluates formulas sequentially in list order.
// Without a source sheet each formula sees the previous one's written
// result (fill-down); with one, every formula reads the source grid.
func (o *Orchestrator) insertBulkFormulas(p InsertBulkFormulasParams) error {
	sheet := o.wb.Sheet(p.SheetName)
	if sheet == nil {
		return fmt.Errorf("unknown sheet %q", p.SheetName)
	}
	evalGrid, err := o.evalGrid(sheet, p.SourceSheet)
	if err != nil {
		return err
	}
	for _, f := range p.Formulas {
		writeFormula(sheet.Grid, evalGrid, f.Row, f.Col, f.Formula)
	}
	return nil
}

// evalGrid picks the grid formulas resolve references against: the
// named source sheet's, or the target's own.
func (o *Orchestrator) evalGrid(target *workbook.Sheet, sourceSheet string) (*grid.Grid, error) {
	if sourceSheet == "" {
		return target.Grid, nil
	}
	src := o.wb.Sheet(sourceSheet)
	if src == nil {
		return nil, fmt.Errorf("unknown source sheet %q", sourceSheet)
	}
	return src.Grid, nil
}

func writeFormula(target, evalGrid *grid.Grid, row, col int, f string) {
	value := formula.Evaluate(evalGrid, f)
	target.SetCell(row, col, grid.WithValue(value), grid.WithFormula(f))
}

// createChart appends chart metadata. Ranges are recorded, not validated.
func (o *Orchestrator) createChart(p CreateChartParams) error {
	sheet := o.wb.Sheet(p.SheetName)
	if sheet == nil {
		return fmt.Errorf("unknown sheet %q", p.SheetName)
	}
	sheet.Charts = append(sheet.Charts, workbook.Chart{
		ID:    uuid.NewString(),
		Type:  p.Type,
		Title: p.Title,
		DataRange: workbook.DataRange{
			Labels: p.LabelsRange,
			Values: p.ValuesRange,
		},
		Position: p.Position,
		Size:     p.Size,
	})
	return nil
}

// applyStyle merges style attributes into every cell of the range,
// keeping attributes the update does not mention.
func (o *Orchestrator) applyStyle(p ApplyStyleParams) error {
	sheet := o.wb.Sheet(p.SheetName)
	if sheet == nil {
		return fmt.Errorf("unknown sheet %q", p.SheetName)
	}
	refs := grid.ParseRange(p.Range)
	if refs == nil {
		return fmt.Errorf("invalid range %q", p.Range)
	}
	for _, ref := range refs {
		sheet.Grid.SetCell(ref.Row, ref.Col, grid.WithFormat(p.Style))
	}
	return nil
}

// applyConditionalFormat records the rule set on the sheet, then walks
// the range once applying the first matching rule per cell. Rules match
// in array order; a cell satisfying several gets the first one only.
func (o *Orchestrator) applyConditionalFormat(p ApplyConditionalFormatParams) error {
	sheet := o.wb.Sheet(p.SheetName)
	if sheet == nil {
		return fmt.Errorf("unknown sheet %q", p.SheetName)
	}
	refs := grid.ParseRange(p.Range)
	if refs == nil {
		return fmt.Errorf("invalid range %q", p.Range)
	}
	sheet.ConditionalFormats = append(sheet.ConditionalFormats, workbook.ConditionalFormat{
		Range: p.Range,
		Rules: p.Rules,
	})
	for _, ref := range refs {
		if !sheet.Grid.Has(ref.Row, ref.Col) {
			continue
		}
		n := formula.Coerce(sheet.Grid.Cell(ref.Row, ref.Col).Value)
		for _, rule := range p.Rules {
			if ruleMatches(rule.Operator, n, rule.Value) {
				sheet.Grid.SetCell(ref.Row, ref.Col, grid.WithFormat(rule.Format))
				break
			}
		}
	}
	return nil
}

func ruleMatches(op string, cell, threshold float64) bool {
	switch op {
	case ">":
		return cell > threshold
	case "<":
		return cell < threshold
	case ">=":
		return cell >= threshold
	case "<=":
		return cell <= threshold
	case "=":
		return cell == threshold
	default:
		return false
	}
}
