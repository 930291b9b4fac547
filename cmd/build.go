package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridkit/config"
	"github.com/witanlabs/gridkit/orchestrator"
)

var buildCmd = &cobra.Command{
	Use:   "build <prompt>",
	Short: "Build a workbook from a natural-language prompt",
	Long: `Analyze a prompt, expand it to a task plan, and execute the plan.

A failing task does not abort the run: the error is logged and later
tasks still execute. Returns exit code 2 when any task failed.

Use --json for the full workbook plus the execution log.

Examples:
  gridkit build "Create a monthly sales report with charts"
  gridkit build "Haz un gráfico de barras de 2020 a 2025" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg := config.Load()
	o := orchestrator.New(orchestrator.Options{
		Analyzer:        newAnalyzer(),
		TaskDelay:       cfg.Orchestrator.TaskDelay(),
		StreamCellDelay: cfg.Orchestrator.StreamCellDelay(),
	})
	log := o.Run(args[0])

	failed := 0
	for _, e := range log {
		if e.Status == orchestrator.StatusError {
			failed++
		}
	}

	if jsonOutput {
		if err := jsonPrint(struct {
			State    string                  `json:"state"`
			Log      []orchestrator.LogEntry `json:"log"`
			Workbook any                     `json:"workbook"`
		}{o.State().String(), log, o.Workbook()}); err != nil {
			return err
		}
	} else {
		for i, e := range log {
			marker := "ok"
			if e.Status == orchestrator.StatusError {
				marker = "FAILED: " + e.Error
			}
			fmt.Printf("%2d. %-25s %s\n", i+1, e.Task.Action, marker)
		}
		fmt.Printf("\n%d tasks, %d failed, state %s\n", len(log), failed, o.State())
	}

	if failed > 0 {
		return &ExitError{Code: 2}
	}
	return nil
}
