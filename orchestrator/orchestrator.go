package orchestrator

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/witanlabs/gridkit/workbook"
)

// Options configures an Orchestrator. Zero fields take defaults.
type Options struct {
	// Workbook is the document to mutate. Defaults to a fresh workbook.
	Workbook *workbook.Workbook
	// Analyzer reads prompts. Defaults to the built-in vocabulary.
	Analyzer *Analyzer
	// Stream, when set, receives every cell the data agent writes so a
	// consumer can animate insertion.
	Stream StreamHook
	// Progress, when set, is called before each task executes.
	Progress func(Progress)
	// TaskDelay paces execution between tasks.
	TaskDelay time.Duration
	// StreamCellDelay paces the data agent between streamed cells. It only
	// applies when Stream is set.
	StreamCellDelay time.Duration
	// Logger defaults to slog.Default.
	Logger *slog.Logger

	sleep func(time.Duration) // test hook
}

func (o *Options) fill() {
	if o.Workbook == nil {
		o.Workbook = workbook.New()
	}
	if o.Analyzer == nil {
		o.Analyzer = NewAnalyzer()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.sleep == nil {
		o.sleep = time.Sleep
	}
}

// Orchestrator executes build plans against one workbook, strictly
// sequentially. It is not safe for concurrent Run calls.
type Orchestrator struct {
	opts   Options
	wb     *workbook.Workbook
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// New builds an Orchestrator.
func New(opts Options) *Orchestrator {
	opts.fill()
	return &Orchestrator{
		opts:   opts,
		wb:     opts.Workbook,
		logger: opts.Logger,
	}
}

// Workbook returns the document being built.
func (o *Orchestrator) Workbook() *workbook.Workbook { return o.wb }

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Run analyzes a prompt, builds the plan, and executes it. The returned
// log has one entry per planned task; task errors are absorbed into their
// entries rather than aborting the run.
func (o *Orchestrator) Run(prompt string) []LogEntry {
	o.setState(StateAnalyzing)
	analysis := o.opts.Analyzer.Analyze(prompt)
	o.logger.Info("prompt analyzed",
		slog.String("theme", string(analysis.Theme)),
		slog.Bool("wantsChart", analysis.WantsChart),
		slog.Int("sheets", len(analysis.SheetNames)))

	o.setState(StatePlanning)
	plan := BuildPlan(analysis)
	o.logger.Info("plan built", slog.Int("tasks", len(plan)))

	return o.ExecutePlan(plan)
}

// ExecutePlan runs tasks in order. Ordering in the plan is the dependency
// order; there is no parallelism and no reordering. A failing task is
// logged and execution continues with the next one.
func (o *Orchestrator) ExecutePlan(tasks []Task) []LogEntry {
	o.setState(StateExecuting)
	log := make([]LogEntry, 0, len(tasks))
	failed := false

	for i, task := range tasks {
		if o.opts.Progress != nil {
			o.opts.Progress(Progress{
				Current: i + 1,
				Total:   len(tasks),
				Action:  task.Action,
				Params:  task.Params,
			})
		}

		err := o.runTaskSafe(task)
		entry := LogEntry{Task: task, Status: StatusSuccess, Timestamp: time.Now()}
		if err != nil {
			failed = true
			entry.Status = StatusError
			entry.Error = err.Error()
			o.logger.Warn("task failed",
				slog.String("action", string(task.Action)),
				slog.String("error", err.Error()))
		} else {
			o.logger.Info("task done", slog.String("action", string(task.Action)))
		}
		log = append(log, entry)

		if o.opts.TaskDelay > 0 {
			o.opts.sleep(o.opts.TaskDelay)
		}
	}

	if failed {
		o.setState(StatePartiallyFailed)
	} else {
		o.setState(StateDone)
	}
	return log
}

// runTaskSafe converts a panicking agent into a task error so one bad
// task cannot take down the run.
func (o *Orchestrator) runTaskSafe(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return o.runTask(task)
}

// runTask routes a task to its sub-agent. The switch is exhaustive over
// Action; an unknown action is a task error, not a panic.
func (o *Orchestrator) runTask(task Task) error {
	switch task.Action {
	case ActionCreateSheet:
		p, ok := task.Params.(CreateSheetParams)
		if !ok {
			return badParams(task)
		}
		return o.createSheet(p)
	case ActionInsertData:
		p, ok := task.Params.(InsertDataParams)
		if !ok {
			return badParams(task)
		}
		return o.insertData(p)
	case ActionInsertFormula:
		p, ok := task.Params.(InsertFormulaParams)
		if !ok {
			return badParams(task)
		}
		return o.insertFormula(p)
	case ActionInsertBulkFormulas:
		p, ok := task.Params.(InsertBulkFormulasParams)
		if !ok {
			return badParams(task)
		}
		return o.insertBulkFormulas(p)
	case ActionCreateChart:
		p, ok := task.Params.(CreateChartParams)
		if !ok {
			return badParams(task)
		}
		return o.createChart(p)
	case ActionApplyStyle:
		p, ok := task.Params.(ApplyStyleParams)
		if !ok {
			return badParams(task)
		}
		return o.applyStyle(p)
	case ActionApplyConditionalFormat:
		p, ok := task.Params.(ApplyConditionalFormatParams)
		if !ok {
			return badParams(task)
		}
		return o.applyConditionalFormat(p)
	default:
		return fmt.Errorf("unknown action %q", task.Action)
	}
}

func badParams(task Task) error {
	return fmt.Errorf("%s: params are %T", task.Action, task.Params)
}
