// Package worker is component G, the Work Coordinator: a single
// background slot that runs one long task at a time (grid materialisation,
// an import run, a schema rebuild), lets a caller cooperatively cancel it
// without tearing down the coordinator, and reports progress and a final
// result back through a callback.
//
// It is a direct Go rendering of original_source/sqlitemate/workers.py's
// WorkerThread: one goroutine reads from a depth-1 work queue instead of a
// Python Queue.Queue, a context.CancelFunc replaces the polled
// self._stop_work flag, and an atomic drop-results flag replaces
// self._drop_results. Submitting new work always stops whatever is
// currently running, exactly as WorkerThread.work() does.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Progress is one incremental update a running Task reports. Message is a
// short human-readable note; Count is whatever unit of work the task is
// counting (rows imported, statements applied) and is 0 when not
// applicable.
type Progress struct {
	Message string
	Count   int
}

// Task is one unit of background work. It must poll ctx and return
// promptly once ctx is done; report may be called any number of times
// before returning.
type Task func(ctx context.Context, report func(Progress)) (any, error)

// Result is what the Coordinator's callback receives: either one
// intermediate Progress update (Done false, Progress non-nil) or the
// final outcome of a task (Done true).
type Result struct {
	Progress *Progress
	Value    any
	Err      error
	Stopped  bool // true if the task ended because of cancellation, not completion
	Done     bool
}

type submission struct {
	task        Task
	ctx         context.Context
	cancel      context.CancelFunc
	dropResults *atomic.Bool
}

// Coordinator runs at most one Task at a time in a single background
// goroutine. A zero Coordinator is not usable; construct with New.
type Coordinator struct {
	callback func(Result)

	mu      sync.Mutex
	started bool
	queue   chan *submission
	stopCh  chan struct{}

	current *submission // the submission currently executing, if any
}

// New returns a Coordinator that reports completed and stopped results to
// callback. callback is invoked from the Coordinator's own goroutine; it
// must not block for long.
func New(callback func(Result)) *Coordinator {
	return &Coordinator{
		callback: callback,
		queue:    make(chan *submission, 1),
		stopCh:   make(chan struct{}),
	}
}

// Submit registers task as the next (and only) pending work item. Any
// task currently running is cancelled first — its result is still posted
// unless the caller follows up with StopWork(true) before it finishes —
// and any task still waiting in the queue (never started) is replaced
// outright, its result never posted at all.
func (c *Coordinator) Submit(task Task) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &submission{task: task, ctx: ctx, cancel: cancel, dropResults: new(atomic.Bool)}

	c.mu.Lock()
	// cancel whatever's currently running: the new submission preempts it
	if c.current != nil {
		c.current.cancel()
	}
	// drop a still-queued, never-started submission in favor of this one
	select {
	case old := <-c.queue:
		old.cancel()
	default:
	}
	c.queue <- sub
	if !c.started {
		c.started = true
		go c.loop()
	}
	c.mu.Unlock()
}

// StopWork cancels whatever Task is currently running, without affecting
// the Coordinator itself — a subsequent Submit still works. If
// dropResults is true, the cancelled task's result is not posted to the
// callback at all.
func (c *Coordinator) StopWork(dropResults bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	if dropResults {
		c.current.dropResults.Store(true)
	}
	c.current.cancel()
}

// Stop cancels any running or queued work and terminates the background
// goroutine. The Coordinator cannot be reused after Stop; construct a new
// one.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.current != nil {
		c.current.dropResults.Store(true)
		c.current.cancel()
	}
	select {
	case old := <-c.queue:
		old.cancel()
	default:
	}
	c.mu.Unlock()
	close(c.stopCh)
}

// QueueDepth reports whether a task is waiting to run (0 or 1) — the
// coordinator only ever holds one pending submission at a time.
func (c *Coordinator) QueueDepth() int {
	return len(c.queue)
}

// Running reports whether a task is currently executing.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *Coordinator) loop() {
	for {
		select {
		case <-c.stopCh:
			return
		case sub := <-c.queue:
			c.runOne(sub)
		}
	}
}

func (c *Coordinator) runOne(sub *submission) {
	c.mu.Lock()
	c.current = sub
	c.mu.Unlock()

	value, err := sub.task(sub.ctx, func(p Progress) {
		if sub.dropResults.Load() {
			return
		}
		c.callback(Result{Progress: &p})
	})

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	if sub.dropResults.Load() {
		return
	}
	c.callback(Result{Value: value, Err: err, Stopped: sub.ctx.Err() != nil, Done: true})
}
