package motion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MoveFunc performs one relative pointer move and reports whether the
// actuation succeeded. Implementations must not block indefinitely.
type MoveFunc func(dx, dy float64) bool

// InterruptFunc is polled between and within steps. Returning true stops the
// remaining steps of the running task and completes it early; it is how an
// imminent activation pre-empts a long motion without treating it as an
// error.
type InterruptFunc func() bool

// ExecutorConfig tunes the single-worker runner.
type ExecutorConfig struct {
	// PollInterval bounds the cancellation latency while a task is delaying
	// between steps.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// TinyStepFloor skips steps shorter than this many actuation units.
	TinyStepFloor float64 `mapstructure:"tiny_step_floor" yaml:"tiny_step_floor"`
}

// DefaultExecutorConfig keeps cancellation latency well under 5ms.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		PollInterval:  500 * time.Microsecond,
		TinyStepFloor: 0.1,
	}
}

// Validate fails fast on values that would break the latency contract.
func (c ExecutorConfig) Validate() error {
	if c.PollInterval <= 0 || c.PollInterval > 5*time.Millisecond {
		return fmt.Errorf("motion: poll_interval must be in (0, 5ms], got %s", c.PollInterval)
	}
	if c.TinyStepFloor < 0 {
		return fmt.Errorf("motion: tiny_step_floor must be non-negative, got %.2f", c.TinyStepFloor)
	}
	return nil
}

// Stats counts task outcomes since the executor was created.
type Stats struct {
	Submitted   uint64
	Completed   uint64
	Superseded  uint64
	Interrupted uint64
	// Failures counts actuation callbacks that reported failure.
	Failures uint64
}

// Executor runs one plan at a time on a single background worker. Callers
// never block: Submit swaps shared state under a short-lived lock and
// returns. The newest submission always wins while the current task is
// unlocked; while it is locked, at most one pending submission survives and
// starts strictly after the current task ends.
type Executor struct {
	cfg    ExecutorConfig
	logger *zap.Logger
	move   MoveFunc

	mu        sync.Mutex
	interrupt InterruptFunc
	current   *Task
	last      *Task
	next      *submission
	pending   *submission
	stats     Stats

	wake    chan struct{}
	started bool
	done    chan struct{}
}

type submission struct {
	plan   Plan
	locked bool
}

// NewExecutor builds an executor around the actuation callback. Start must be
// called before submissions are drained.
func NewExecutor(cfg ExecutorConfig, move MoveFunc, logger *zap.Logger) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		cfg:    cfg,
		logger: logger.Named("executor"),
		move:   move,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}, nil
}

// SetInterrupt installs the externally supplied interrupt predicate. A nil
// predicate disables pre-emption.
func (e *Executor) SetInterrupt(fn InterruptFunc) {
	e.mu.Lock()
	e.interrupt = fn
	e.mu.Unlock()
}

// Start launches the worker. It returns immediately; the worker exits when
// ctx is cancelled. Starting twice is a no-op.
func (e *Executor) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	go e.run(ctx)
}

// Wait blocks until the worker has exited after its context was cancelled.
func (e *Executor) Wait() { <-e.done }

// Submit hands a plan to the worker. When nothing is running the plan starts
// immediately; when an unlocked task is running it is superseded; when a
// locked task is running the plan lands in the single pending slot,
// discarding any older pending submission. The return value reports whether
// the plan will run without waiting behind a lock.
func (e *Executor) Submit(plan Plan, locked bool) bool {
	sub := &submission{plan: plan, locked: locked}

	e.mu.Lock()
	e.stats.Submitted++
	if e.current != nil && e.current.Status == StatusRunning && e.current.Locked {
		e.pending = sub
		e.mu.Unlock()
		e.logger.Debug("submission staged behind locked task")
		return false
	}
	if e.current != nil && e.current.Status == StatusRunning {
		e.current.interruptRequested = true
	}
	e.next = sub
	e.mu.Unlock()

	e.signal()
	return true
}

// ForceUnlock clears the lock on the running task, if any, so the next
// submission can supersede it. The pending submission, if one was staged,
// becomes the next task.
func (e *Executor) ForceUnlock() {
	e.mu.Lock()
	if e.current != nil {
		e.current.Locked = false
	}
	if e.pending != nil && e.next == nil {
		e.next = e.pending
		e.pending = nil
	}
	e.mu.Unlock()
	e.signal()
}

// Busy reports whether a task is currently running.
func (e *Executor) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil && e.current.Status == StatusRunning
}

// Current returns a snapshot of the running task, or the most recently
// finished one when idle. ok is false before the first submission runs.
func (e *Executor) Current() (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		return e.current.snapshot(), true
	}
	if e.last != nil {
		return e.last.snapshot(), true
	}
	return Snapshot{}, false
}

// Stats returns a copy of the outcome counters.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Executor) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop: wait for a wake-up, then drain the submission slot
// until it is empty again.
func (e *Executor) run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
		}

		for {
			e.mu.Lock()
			sub := e.next
			e.next = nil
			if sub == nil {
				e.mu.Unlock()
				break
			}
			task := newTask(sub.plan, sub.locked)
			task.Status = StatusRunning
			task.StartedAt = time.Now()
			e.current = task
			e.mu.Unlock()

			e.execute(ctx, task)

			e.mu.Lock()
			task.EndedAt = time.Now()
			switch task.Status {
			case StatusCompleted:
				e.stats.Completed++
			case StatusSuperseded:
				e.stats.Superseded++
			case StatusInterrupted:
				e.stats.Interrupted++
			}
			// Task end always releases the lock and promotes the pending
			// submission, regardless of how the task ended. A submission
			// that raced in directly is newer than the pending one, so the
			// pending one is discarded rather than run out of order.
			task.Locked = false
			if e.next == nil {
				e.next = e.pending
			}
			e.pending = nil
			e.last = task
			e.current = nil
			e.mu.Unlock()
		}
	}
}

// execute runs a task's steps. A panic anywhere inside a step is contained
// here: the task is marked interrupted, the lock state stays consistent, and
// the worker keeps draining submissions.
func (e *Executor) execute(ctx context.Context, task *Task) {
	defer func() {
		if r := recover(); r != nil {
			e.mu.Lock()
			task.Status = StatusInterrupted
			// Unlock now rather than waiting for task-end handling, so a
			// corrupted locked task can never wedge the pipeline.
			task.Locked = false
			e.mu.Unlock()
			e.logger.Error("panic during motion task", zap.Any("panic", r), zap.String("task", task.ID.String()))
		}
	}()

	steps := task.Plan.Steps
	for i, step := range steps {
		if status, stop := e.checkSignals(ctx, task); stop {
			e.finish(task, status)
			return
		}

		if step.Distance() < e.cfg.TinyStepFloor {
			continue
		}

		if !e.move(step.Delta.X, step.Delta.Y) {
			e.mu.Lock()
			e.stats.Failures++
			e.mu.Unlock()
			e.finish(task, StatusInterrupted)
			e.logger.Warn("actuation failure aborted task", zap.String("task", task.ID.String()), zap.Int("step", i))
			return
		}

		if i < len(steps)-1 && step.Delay > 0 {
			if status, stop := e.delay(ctx, task, step.Delay); stop {
				e.finish(task, status)
				return
			}
		}
	}
	e.finish(task, StatusCompleted)
}

// checkSignals resolves the two cancellation signals in their documented
// precedence: the external interrupt predicate completes the task early; a
// supersession request stops an unlocked task but is cleared and ignored on a
// locked one, because the lock always wins.
func (e *Executor) checkSignals(ctx context.Context, task *Task) (TaskStatus, bool) {
	if ctx.Err() != nil {
		return StatusInterrupted, true
	}

	e.mu.Lock()
	interrupt := e.interrupt
	requested := task.interruptRequested
	locked := task.Locked
	if requested && locked {
		task.interruptRequested = false
	}
	e.mu.Unlock()

	if interrupt != nil && interrupt() {
		e.mu.Lock()
		task.Preempted = true
		e.mu.Unlock()
		return StatusCompleted, true
	}
	if requested && !locked {
		return StatusSuperseded, true
	}
	return "", false
}

// delay sleeps for d while polling the cancellation signals at the configured
// interval, so a pending activation or a new target never waits behind a long
// inter-step pause.
func (e *Executor) delay(ctx context.Context, task *Task, d time.Duration) (TaskStatus, bool) {
	deadline := time.Now().Add(d)
	timer := time.NewTimer(0)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", false
		}
		poll := e.cfg.PollInterval
		if poll > remaining {
			poll = remaining
		}
		timer.Reset(poll)
		select {
		case <-ctx.Done():
			return StatusInterrupted, true
		case <-timer.C:
		}
		if status, stop := e.checkSignals(ctx, task); stop {
			return status, stop
		}
	}
}

func (e *Executor) finish(task *Task, status TaskStatus) {
	e.mu.Lock()
	task.Status = status
	e.mu.Unlock()
}
