package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridkit/config"
	"github.com/witanlabs/gridkit/orchestrator"
)

var planCmd = &cobra.Command{
	Use:   "plan <prompt>",
	Short: "Show the task plan a prompt would execute, without running it",
	Long: `Analyze a natural-language prompt and print the deterministic task
plan it expands to. Nothing is executed.

Prompts are matched against a bilingual (English/Spanish) vocabulary;
extra keywords can be layered in via gridkit.yaml.

Examples:
  gridkit plan "Create a monthly sales report with charts"
  gridkit plan "Haz un gráfico de barras de 2020 a 2025"
  gridkit plan "hoja de resumen" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	analysis := newAnalyzer().Analyze(args[0])
	plan := orchestrator.BuildPlan(analysis)

	if jsonOutput {
		return jsonPrint(struct {
			Analysis orchestrator.Analysis `json:"analysis"`
			Plan     []orchestrator.Task   `json:"plan"`
		}{analysis, plan})
	}

	if len(plan) == 0 {
		fmt.Println("(no plan: prompt matched nothing actionable)")
		return nil
	}
	for i, task := range plan {
		fmt.Printf("%2d. %-25s %s\n", i+1, task.Action, describeTask(task))
	}
	return nil
}

// newAnalyzer builds the prompt analyzer with configured extra keywords.
func newAnalyzer() *orchestrator.Analyzer {
	cfg := config.Load()
	var opts []orchestrator.AnalyzerOption
	for name, kw := range cfg.Analysis.SheetKeywords {
		opts = append(opts, orchestrator.WithSheetKeywords(name, kw...))
	}
	for name, kw := range cfg.Analysis.ThemeKeywords {
		opts = append(opts, orchestrator.WithThemeKeywords(orchestrator.Theme(name), kw...))
	}
	return orchestrator.NewAnalyzer(opts...)
}

func describeTask(task orchestrator.Task) string {
	switch p := task.Params.(type) {
	case orchestrator.CreateSheetParams:
		return p.Name
	case orchestrator.InsertDataParams:
		return fmt.Sprintf("%s (%d rows)", p.SheetName, len(p.Data))
	case orchestrator.InsertFormulaParams:
		return fmt.Sprintf("%s %s", p.SheetName, p.Formula)
	case orchestrator.InsertBulkFormulasParams:
		return fmt.Sprintf("%s (%d formulas)", p.SheetName, len(p.Formulas))
	case orchestrator.CreateChartParams:
		return fmt.Sprintf("%s %q (%s)", p.SheetName, p.Title, p.Type)
	case orchestrator.ApplyStyleParams:
		return fmt.Sprintf("%s %s", p.SheetName, p.Range)
	case orchestrator.ApplyConditionalFormatParams:
		return fmt.Sprintf("%s %s (%d rules)", p.SheetName, p.Range, len(p.Rules))
	default:
		return ""
	}
}
