// Package dispatch schedules formula evaluation on a background engine
// with graceful degradation to inline execution.
//
// The background engine is a dedicated goroutine holding its own copy of
// the grid, synced explicitly by serialization (never by reference) so
// the two execution contexts interact only through message passing. A
// batch evaluates every formula against one consistent snapshot: no
// formula in a batch observes another formula's result from the same
// batch (unlike the orchestrator's bulk-formula insertion, which is
// deliberately sequential).
package dispatch

import (
	"errors"
	"sync"

	"github.com/witanlabs/gridkit/formula"
	"github.com/witanlabs/gridkit/grid"
)

// Request is one formula to evaluate, tagged with its target coordinate.
type Request struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Formula string `json:"formula"`
}

// Result carries one evaluated formula back to the caller. Evaluation
// failures surface as the interpreter's sentinel in Value; Err is reserved
// for dispatcher-level failures such as timeouts.
type Result struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
	Err   error  `json:"-"`
}

// Engine evaluates formula batches against an explicitly synced grid.
// Two implementations exist: the background worker and the inline
// same-goroutine fallback. Callers depend only on this interface; the
// dispatcher selects one and swaps permanently to inline on first failure.
type Engine interface {
	// SyncGrid replaces the engine's grid with the given snapshot.
	SyncGrid(snapshot []byte) error
	// EvaluateBatch evaluates all requests against the synced snapshot.
	EvaluateBatch(reqs []Request) ([]Result, error)
	// Close releases the engine's resources.
	Close()
}

// errWorkerStopped reports a message to a worker that is no longer
// running; the dispatcher treats it as a runtime failure and falls back.
var errWorkerStopped = errors.New("background worker stopped")

// inlineEngine runs the identical interpreter on the caller's goroutine.
type inlineEngine struct {
	grid *grid.Grid
}

func newInlineEngine() *inlineEngine {
	return &inlineEngine{grid: grid.New()}
}

func (e *inlineEngine) SyncGrid(snapshot []byte) error {
	g, err := grid.FromSnapshot(snapshot)
	if err != nil {
		return err
	}
	e.grid = g
	return nil
}

func (e *inlineEngine) EvaluateBatch(reqs []Request) ([]Result, error) {
	return evaluateAll(e.grid, reqs), nil
}

func (e *inlineEngine) Close() {}

// evaluateAll runs the interpreter over a batch. The interpreter never
// writes to the grid, so every request sees the same snapshot.
func evaluateAll(g *grid.Grid, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	for i, req := range reqs {
		results[i] = Result{
			Row:   req.Row,
			Col:   req.Col,
			Value: formula.Evaluate(g, req.Formula),
		}
	}
	return results
}

// workerEngine owns a goroutine with a private grid copy. All interaction
// is channel message passing; there is no shared mutable memory between
// the worker and its callers.
type workerEngine struct {
	cmds      chan workerCmd
	done      chan struct{}
	closeOnce sync.Once
}

type workerCmd struct {
	snapshot []byte // non-nil: replace the worker's grid
	reqs     []Request
	reply    chan workerReply
}

type workerReply struct {
	results []Result
	err     error
}

func newWorkerEngine() (Engine, error) {
	e := &workerEngine{
		cmds: make(chan workerCmd),
		done: make(chan struct{}),
	}
	go e.loop()
	return e, nil
}

func (e *workerEngine) loop() {
	g := grid.New()
	for {
		select {
		case <-e.done:
			return
		case cmd := <-e.cmds:
			var rep workerReply
			if cmd.snapshot != nil {
				ng, err := grid.FromSnapshot(cmd.snapshot)
				if err != nil {
					rep.err = err
				} else {
					g = ng
				}
			} else {
				rep.results = evaluateAll(g, cmd.reqs)
			}
			select {
			case cmd.reply <- rep:
			case <-e.done:
				return
			}
		}
	}
}

func (e *workerEngine) send(cmd workerCmd) (workerReply, error) {
	cmd.reply = make(chan workerReply, 1)
	select {
	case e.cmds <- cmd:
	case <-e.done:
		return workerReply{}, errWorkerStopped
	}
	select {
	case rep := <-cmd.reply:
		return rep, nil
	case <-e.done:
		return workerReply{}, errWorkerStopped
	}
}

func (e *workerEngine) SyncGrid(snapshot []byte) error {
	if snapshot == nil {
		snapshot = []byte("{}")
	}
	rep, err := e.send(workerCmd{snapshot: snapshot})
	if err != nil {
		return err
	}
	return rep.err
}

func (e *workerEngine) EvaluateBatch(reqs []Request) ([]Result, error) {
	rep, err := e.send(workerCmd{reqs: reqs})
	if err != nil {
		return nil, err
	}
	return rep.results, rep.err
}

func (e *workerEngine) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}
