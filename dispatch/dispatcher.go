package dispatch

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/witanlabs/gridkit/grid"
)

// ErrTimeout resolves a queued request that sat pending longer than the
// configured ceiling.
var ErrTimeout = errors.New("formula evaluation timed out")

// ErrClosed is returned by operations on a closed dispatcher.
var ErrClosed = errors.New("dispatcher closed")

const (
	defaultDebounce       = 30 * time.Millisecond
	defaultMaxBatch       = 25
	defaultRequestTimeout = 10 * time.Second
	defaultSweepInterval  = time.Second
)

// Options configures a Dispatcher. Zero fields take defaults.
type Options struct {
	// Debounce is how long the queue waits for more requests before
	// flushing a batch.
	Debounce time.Duration
	// MaxBatch flushes the queue immediately once it reaches this size,
	// bounding worst-case latency while amortizing message-passing cost.
	MaxBatch int
	// RequestTimeout is the ceiling after which a pending request is
	// resolved with ErrTimeout.
	RequestTimeout time.Duration
	// SweepInterval is how often the pending table is swept for stale
	// requests.
	SweepInterval time.Duration
	// EngineFactory builds the background engine. Defaults to the worker
	// goroutine engine; a factory error selects inline execution from the
	// start.
	EngineFactory func() (Engine, error)
	// Logger defaults to slog.Default.
	Logger *slog.Logger

	now func() time.Time // test hook
}

func (o *Options) fill() {
	if o.Debounce <= 0 {
		o.Debounce = defaultDebounce
	}
	if o.MaxBatch <= 0 {
		o.MaxBatch = defaultMaxBatch
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = defaultSweepInterval
	}
	if o.EngineFactory == nil {
		o.EngineFactory = newWorkerEngine
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
}

// Callback receives one queued request's result.
type Callback func(Result)

// BatchCallback receives a direct batch's results.
type BatchCallback func([]Result)

type pendingReq struct {
	id       uint64
	req      Request
	cb       Callback
	enqueued time.Time
}

// Dispatcher coalesces formula requests into batches for an Engine. On
// the first engine start or runtime failure it reroutes all current and
// future work to inline evaluation, permanently; the callback contract is
// unchanged either way.
type Dispatcher struct {
	opts   Options
	logger *slog.Logger

	mu           sync.Mutex
	engine       Engine
	inline       bool
	lastSnapshot []byte
	pending      map[uint64]*pendingReq
	order        []uint64
	timer        *time.Timer
	nextID       uint64
	closed       bool

	deliveries sync.WaitGroup
	stopSweep  chan struct{}
}

// New builds a Dispatcher and starts its background engine and stale-
// request sweeper.
func New(opts Options) *Dispatcher {
	opts.fill()
	d := &Dispatcher{
		opts:      opts,
		logger:    opts.Logger,
		pending:   make(map[uint64]*pendingReq),
		stopSweep: make(chan struct{}),
	}
	engine, err := opts.EngineFactory()
	if err != nil {
		d.logger.Warn("background engine unavailable, using inline evaluation",
			slog.String("error", err.Error()))
		engine = newInlineEngine()
		d.inline = true
	}
	d.engine = engine
	go d.sweepLoop()
	return d
}

// SyncGrid serializes g into the engine. Both Evaluate and EvaluateBatch
// require a sync beforehand; callers that mutated the grid locally must
// re-sync before dispatching a dependent formula.
func (d *Dispatcher) SyncGrid(g *grid.Grid) error {
	snapshot, err := g.Snapshot()
	if err != nil {
		return err
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.lastSnapshot = snapshot
	engine := d.engine
	d.mu.Unlock()

	if err := engine.SyncGrid(snapshot); err != nil {
		d.fallback(err)
	}
	return nil
}

// Evaluate evaluates one formula against the synced grid and delivers the
// result asynchronously.
func (d *Dispatcher) Evaluate(f string, cb Callback) {
	d.EvaluateBatch([]Request{{Row: -1, Col: -1, Formula: f}}, func(results []Result) {
		if len(results) == 1 {
			cb(results[0])
		}
	})
}

// EvaluateBatch evaluates all requests against one consistent snapshot
// and delivers the results asynchronously in request order.
func (d *Dispatcher) EvaluateBatch(reqs []Request, cb BatchCallback) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.deliveries.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.deliveries.Done()
		results := d.runBatch(reqs)
		if d.isClosed() {
			return
		}
		cb(results)
	}()
}

// QueueFormulaEvaluation coalesces a request into the current batch. The
// batch flushes after the debounce window or at the maximum batch size,
// whichever comes first.
func (d *Dispatcher) QueueFormulaEvaluation(row, col int, f string, cb Callback) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.nextID++
	p := &pendingReq{
		id:       d.nextID,
		req:      Request{Row: row, Col: col, Formula: f},
		cb:       cb,
		enqueued: d.opts.now(),
	}
	d.pending[p.id] = p
	d.order = append(d.order, p.id)

	if len(d.order) >= d.opts.MaxBatch {
		d.mu.Unlock()
		d.flush()
		return
	}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.opts.Debounce, d.flush)
	}
	d.mu.Unlock()
}

// Flush forces the queued batch out immediately.
func (d *Dispatcher) Flush() { d.flush() }

func (d *Dispatcher) flush() {
	d.mu.Lock()
	if d.closed || len(d.order) == 0 {
		d.stopTimerLocked()
		d.mu.Unlock()
		return
	}
	d.stopTimerLocked()
	queued := d.order
	d.order = nil
	// Entries the sweeper already resolved are skipped; ids and reqs stay
	// index-aligned for resolve.
	ids := make([]uint64, 0, len(queued))
	reqs := make([]Request, 0, len(queued))
	for _, id := range queued {
		if p, ok := d.pending[id]; ok {
			ids = append(ids, id)
			reqs = append(reqs, p.req)
		}
	}
	d.deliveries.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.deliveries.Done()
		results := d.runBatch(reqs)
		d.resolve(ids, results)
	}()
}

// runBatch executes on the current engine; a runtime failure triggers the
// permanent inline fallback and the batch is retried there.
func (d *Dispatcher) runBatch(reqs []Request) []Result {
	d.mu.Lock()
	engine := d.engine
	d.mu.Unlock()

	results, err := engine.EvaluateBatch(reqs)
	if err == nil {
		return results
	}
	inline := d.fallback(err)
	results, _ = inline.EvaluateBatch(reqs)
	return results
}

// fallback swaps to inline evaluation permanently and returns the inline
// engine, synced to the last known snapshot.
func (d *Dispatcher) fallback(cause error) Engine {
	d.mu.Lock()
	if d.inline {
		engine := d.engine
		d.mu.Unlock()
		return engine
	}
	d.logger.Warn("background engine failed, switching to inline evaluation",
		slog.String("error", cause.Error()))
	old := d.engine
	inline := newInlineEngine()
	if d.lastSnapshot != nil {
		if err := inline.SyncGrid(d.lastSnapshot); err != nil {
			d.logger.Warn("inline grid sync failed", slog.String("error", err.Error()))
		}
	}
	d.engine = inline
	d.inline = true
	d.mu.Unlock()

	old.Close()
	return inline
}

// resolve delivers results for queued requests that are still pending;
// entries already resolved by the sweeper are skipped.
func (d *Dispatcher) resolve(ids []uint64, results []Result) {
	type delivery struct {
		cb  Callback
		res Result
	}
	var out []delivery

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	for i, id := range ids {
		p, ok := d.pending[id]
		if !ok || i >= len(results) {
			continue
		}
		delete(d.pending, id)
		out = append(out, delivery{cb: p.cb, res: results[i]})
	}
	d.mu.Unlock()

	for _, dv := range out {
		dv.cb(dv.res)
	}
}

// sweepLoop periodically resolves requests older than the timeout
// ceiling, bounding growth of the pending table.
func (d *Dispatcher) sweepLoop() {
	ticker := time.NewTicker(d.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopSweep:
			return
		case <-ticker.C:
			d.sweep()
		}
	}
}

func (d *Dispatcher) sweep() {
	type delivery struct {
		cb  Callback
		res Result
	}
	var out []delivery

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	now := d.opts.now()
	for id, p := range d.pending {
		if now.Sub(p.enqueued) <= d.opts.RequestTimeout {
			continue
		}
		delete(d.pending, id)
		out = append(out, delivery{
			cb:  p.cb,
			res: Result{Row: p.req.Row, Col: p.req.Col, Err: ErrTimeout},
		})
	}
	if len(out) > 0 {
		d.deliveries.Add(1)
	}
	d.mu.Unlock()

	if len(out) == 0 {
		return
	}
	for _, dv := range out {
		dv.cb(dv.res)
	}
	d.deliveries.Done()
}

// Inline reports whether the dispatcher has degraded to inline execution.
func (d *Dispatcher) Inline() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inline
}

func (d *Dispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Dispatcher) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Close releases the background engine and clears pending state. Requests
// still pending are dropped without their callbacks; once Close returns,
// no callback fires.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.stopTimerLocked()
	close(d.stopSweep)
	d.pending = nil
	d.order = nil
	engine := d.engine
	d.mu.Unlock()

	engine.Close()
	d.deliveries.Wait()
}
