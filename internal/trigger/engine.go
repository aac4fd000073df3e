// Package trigger decides when the pointer is settled on a target well
// enough to activate. Alignment is judged against a tolerance in one fixed
// space, repeated aligned observations are counted over a short rolling
// window, and a cooldown throttles how often activation may recur.
package trigger

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/internal/frame"
)

// ActivateFunc delivers one discrete press pulse and reports success.
type ActivateFunc func(button string) bool

// State is the externally visible phase of the engine.
type State string

const (
	// StateDisabled means the engine never fires.
	StateDisabled State = "disabled"
	// StateSearching means the last observation was not aligned.
	StateSearching State = "searching"
	// StateAligning means aligned observations are accumulating but the
	// window does not hold enough of them yet.
	StateAligning State = "aligning"
	// StateArmed means the window holds enough samples and the engine is off
	// cooldown; the next check fires.
	StateArmed State = "armed"
	// StateCooldown means the target is aligned but a recent activation
	// still blocks firing. Cooldown is never extended by observations.
	StateCooldown State = "cooldown"
)

// Status is a point-in-time snapshot for callers.
type Status struct {
	State             State
	WindowSamples     int
	CooldownRemaining time.Duration
	Fires             uint64
	Suppressed        uint64
	Failures          uint64
}

// Engine is the alignment state machine. It is safe for concurrent use; the
// mutex is never held across the activation callback or a burst pause.
type Engine struct {
	cfg      Config
	logger   *zap.Logger
	activate ActivateFunc

	mu       sync.Mutex
	now      func() time.Time
	events   []time.Time
	lastFire time.Time
	hasFired bool

	// onPause and onResume bracket a burst so an input-suppression
	// collaborator can stand down while activation is in flight.
	onPause  func()
	onResume func()

	fires      uint64
	suppressed uint64
	failures   uint64
}

// NewEngine validates cfg and builds the engine around the activation
// callback.
func NewEngine(cfg Config, activate ActivateFunc, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		logger:   logger.Named("trigger"),
		activate: activate,
		now:      time.Now,
	}, nil
}

// SetMovementCallbacks registers the pause/resume hooks invoked around each
// activation burst. Either may be nil.
func (e *Engine) SetMovementCallbacks(pause, resume func()) {
	e.mu.Lock()
	e.onPause = pause
	e.onResume = resume
	e.mu.Unlock()
}

// IsAligned judges one offset record in the engine's configured space.
func (e *Engine) IsAligned(off frame.Offset) bool {
	switch e.cfg.Mode {
	case ModePixel:
		return math.Abs(off.Norm.X) <= e.cfg.NormThresholdX &&
			math.Abs(off.Norm.Y) <= e.cfg.NormThresholdY
	default:
		return off.AngleDist <= e.cfg.AngleThreshold
	}
}

// RecordEvent appends one positive alignment observation and prunes entries
// that have aged out of the window.
func (e *Engine) RecordEvent(ts time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pruneLocked(ts)
	e.events = append(e.events, ts)
}

// pruneLocked drops events older than the window. Caller holds e.mu.
func (e *Engine) pruneLocked(now time.Time) {
	cutoff := now.Add(-e.cfg.Window)
	i := 0
	for i < len(e.events) && e.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		e.events = append(e.events[:0], e.events[i:]...)
	}
}

// Armed reports whether the next CheckAndFire would fire: enough in-window
// samples and no active cooldown. It is cheap enough to serve as the
// executor's interrupt predicate.
func (e *Engine) Armed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cfg.Enabled {
		return false
	}
	now := e.now()
	e.pruneLocked(now)
	return len(e.events) >= e.cfg.RequiredSamples && !e.inCooldownLocked(now)
}

func (e *Engine) inCooldownLocked(now time.Time) bool {
	return e.hasFired && now.Sub(e.lastFire) < e.cfg.Cooldown
}

// CheckAndFire fires the activation burst if enough aligned observations sit
// in the window and the cooldown has elapsed. It reports whether it fired.
// An aligned target during cooldown is suppressed, counted, and does not
// reset the cooldown.
func (e *Engine) CheckAndFire(ctx context.Context) bool {
	e.mu.Lock()
	if !e.cfg.Enabled {
		e.mu.Unlock()
		return false
	}
	now := e.now()
	e.pruneLocked(now)
	if len(e.events) < e.cfg.RequiredSamples {
		e.mu.Unlock()
		return false
	}
	if e.inCooldownLocked(now) {
		e.suppressed++
		e.mu.Unlock()
		return false
	}

	// Commit to firing: the cooldown starts at the decision, the event list
	// resets, and the burst runs outside the lock.
	e.lastFire = now
	e.hasFired = true
	e.fires++
	e.events = e.events[:0]
	pause, resume := e.onPause, e.onResume
	e.mu.Unlock()

	if pause != nil {
		pause()
	}
	e.burst(ctx)
	if resume != nil {
		resume()
	}
	return true
}

// burst delivers ShotsPerTrigger pulses spaced ShotInterval apart. A failed
// pulse or a cancelled context ends the burst early.
func (e *Engine) burst(ctx context.Context) {
	for i := 0; i < e.cfg.ShotsPerTrigger; i++ {
		if i > 0 && e.cfg.ShotInterval > 0 {
			timer := time.NewTimer(e.cfg.ShotInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if !e.activate(e.cfg.Button) {
			e.mu.Lock()
			e.failures++
			e.mu.Unlock()
			e.logger.Warn("activation pulse failed", zap.Int("pulse", i))
			return
		}
	}
	e.logger.Debug("activation burst delivered", zap.Int("pulses", e.cfg.ShotsPerTrigger))
}

// Observe is the per-frame entry point: it records the observation if
// aligned, attempts to fire, and returns the resulting state.
func (e *Engine) Observe(ctx context.Context, off frame.Offset) State {
	if !e.cfg.Enabled {
		return StateDisabled
	}
	if !e.IsAligned(off) {
		return StateSearching
	}
	e.RecordEvent(e.now())
	if e.CheckAndFire(ctx) {
		return StateCooldown
	}
	return e.stateAfterObservation()
}

func (e *Engine) stateAfterObservation() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	e.pruneLocked(now)
	if e.inCooldownLocked(now) {
		return StateCooldown
	}
	if len(e.events) >= e.cfg.RequiredSamples {
		return StateArmed
	}
	return StateAligning
}

// Status snapshots the engine for status queries.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.pruneLocked(now)

	st := Status{
		WindowSamples: len(e.events),
		Fires:         e.fires,
		Suppressed:    e.suppressed,
		Failures:      e.failures,
	}
	switch {
	case !e.cfg.Enabled:
		st.State = StateDisabled
	case e.inCooldownLocked(now):
		st.State = StateCooldown
		st.CooldownRemaining = e.cfg.Cooldown - now.Sub(e.lastFire)
	case len(e.events) >= e.cfg.RequiredSamples:
		st.State = StateArmed
	case len(e.events) > 0:
		st.State = StateAligning
	default:
		st.State = StateSearching
	}
	return st
}
