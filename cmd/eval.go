package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridkit/formula"
	"github.com/witanlabs/gridkit/grid"
	"github.com/witanlabs/gridkit/internal/sheetaddr"
)

var (
	evalShowChanged bool
	evalOut         string
)

var evalCmd = &cobra.Command{
	Use:   "eval <grid.json> <formula>...",
	Short: "Evaluate formulas against a grid file",
	Long: `Evaluate formulas against a grid stored as address-keyed JSON
({"A1":{"value":"2"},...}).

Each formula argument is either:
  =EXPR       evaluated and printed, grid unchanged
  ADDR==EXPR  result written into ADDR (e.g. "C1==A1*B1")

Formulas see the grid as already written: a targeted formula's result is
visible to the ones after it. Failed formulas print the #ERROR sentinel
and set exit code 2.

Examples:
  gridkit eval sheet.json "=SUM(A1:A10)"
  gridkit eval sheet.json "C1==A1*B1" "D1==SUM(A1:C1)" --show-changed
  gridkit eval sheet.json "C1==A1*B1" --out updated.json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().BoolVar(&evalShowChanged, "show-changed", false, "Print cells the evaluation changed")
	evalCmd.Flags().StringVar(&evalOut, "out", "", "Write the updated grid to this file")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading grid: %w", err)
	}
	g := grid.New()
	if err := json.Unmarshal(data, g); err != nil {
		return fmt.Errorf("parsing grid: %w", err)
	}
	before := g.Clone()

	type evalResult struct {
		Target  string `json:"target,omitempty"`
		Formula string `json:"formula"`
		Value   string `json:"value"`
	}
	var results []evalResult
	errors := 0

	for _, arg := range args[1:] {
		target, f, err := splitEvalArg(arg)
		if err != nil {
			return err
		}
		value := formula.Evaluate(g, f)
		if value == formula.ErrorValue {
			errors++
		}
		addr := ""
		if target != nil {
			addr = grid.FormatCellRef(target.Row, target.Col)
			g.SetCell(target.Row, target.Col, grid.WithValue(value), grid.WithFormula(f))
		}
		results = append(results, evalResult{Target: addr, Formula: f, Value: value})
	}

	changes := sheetaddr.DiffGrids(before, g)

	if jsonOutput {
		out := struct {
			Results []evalResult       `json:"results"`
			Changed []sheetaddr.Change `json:"changed,omitempty"`
		}{Results: results}
		if evalShowChanged {
			out.Changed = changes
		}
		if err := jsonPrint(out); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Target != "" {
				fmt.Printf("%-8s %-30s %s\n", r.Target, r.Formula, r.Value)
			} else {
				fmt.Printf("%-8s %-30s %s\n", "", r.Formula, r.Value)
			}
		}
		if evalShowChanged {
			fmt.Println()
			fmt.Println(sheetaddr.FormatDiffSummary(len(changes), g.Len()))
			for _, c := range changes {
				fmt.Printf("  %-8s %q -> %q\n", c.Addr, c.Before.Value, c.After.Value)
			}
		}
	}

	if evalOut != "" {
		updated, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(evalOut, append(updated, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing updated grid: %w", err)
		}
	}

	if errors > 0 {
		return &ExitError{Code: 2}
	}
	return nil
}

// splitEvalArg parses "ADDR==EXPR" into its target and formula, or
// returns a nil target for a bare "=EXPR".
func splitEvalArg(arg string) (*grid.Ref, string, error) {
	if strings.HasPrefix(arg, "=") {
		return nil, arg, nil
	}
	addr, f, ok := strings.Cut(arg, "=")
	if !ok || !strings.HasPrefix(f, "=") {
		return nil, "", fmt.Errorf("formula %q must be \"=EXPR\" or \"ADDR==EXPR\"", arg)
	}
	ref, ok := grid.ParseCellRef(addr)
	if !ok {
		return nil, "", fmt.Errorf("invalid target cell %q in %q", addr, arg)
	}
	return &ref, f, nil
}
