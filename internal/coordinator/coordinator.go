// Package coordinator is the thin façade over the coordination core. It owns
// the coordinate frame, the planner, the executor, and the alignment engine,
// wires them to one actuator, and exposes the small surface the decision
// loop drives: track a candidate, query status, force-unlock.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/internal/actuate"
	"github.com/xkilldash9x/reticle/internal/detect"
	"github.com/xkilldash9x/reticle/internal/frame"
	"github.com/xkilldash9x/reticle/internal/motion"
	"github.com/xkilldash9x/reticle/internal/trigger"
)

// Config aggregates the per-component tuning plus the coordinator's own.
type Config struct {
	Frame    frame.Config          `mapstructure:"frame" yaml:"frame"`
	Motion   motion.Config         `mapstructure:"motion" yaml:"motion"`
	Executor motion.ExecutorConfig `mapstructure:"executor" yaml:"executor"`
	Trigger  trigger.Config        `mapstructure:"trigger" yaml:"trigger"`

	// Deadzone suppresses new motion plans while the offset is already
	// below this pixel distance, so the pointer settles instead of
	// oscillating around the aim point.
	Deadzone float64 `mapstructure:"deadzone" yaml:"deadzone"`

	// MaxStall drops a submission after this many consecutive tracks
	// without the pixel distance shrinking, breaking overshoot
	// oscillation around a target the planner cannot converge on.
	// Zero disables the guard.
	MaxStall int `mapstructure:"max_stall" yaml:"max_stall"`
}

// DefaultConfig composes the component defaults with a small deadzone.
func DefaultConfig() Config {
	return Config{
		Frame:    frame.DefaultConfig(),
		Motion:   motion.DefaultConfig(),
		Executor: motion.DefaultExecutorConfig(),
		Trigger:  trigger.DefaultConfig(),
		Deadzone: 2.0,
		MaxStall: 4,
	}
}

// Validate checks the coordinator's own fields and every sub-config.
func (c Config) Validate() error {
	if c.Deadzone < 0 {
		return fmt.Errorf("coordinator: deadzone must be non-negative, got %.1f", c.Deadzone)
	}
	if c.MaxStall < 0 {
		return fmt.Errorf("coordinator: max_stall must be non-negative, got %d", c.MaxStall)
	}
	if err := c.Frame.Validate(); err != nil {
		return err
	}
	if err := c.Motion.Validate(); err != nil {
		return err
	}
	if err := c.Executor.Validate(); err != nil {
		return err
	}
	return c.Trigger.Validate()
}

// Status aggregates the per-component snapshots.
type Status struct {
	Busy     bool
	Task     motion.Snapshot
	HasTask  bool
	Executor motion.Stats
	Trigger  trigger.Status
	Actuator string
}

// Coordinator owns the core components. Construct with New, start the worker
// with Start, and drive it with Track from the decision loop.
type Coordinator struct {
	cfg      Config
	logger   *zap.Logger
	frame    *frame.Frame
	planner  *motion.Planner
	executor *motion.Executor
	engine   *trigger.Engine
	actuator actuate.Actuator

	mu       sync.Mutex
	lastDist float64
	stall    int
}

// New builds and wires the core: the actuator's move feeds the executor, its
// activate feeds the alignment engine, and the engine's armed predicate
// becomes the executor's interrupt signal so an imminent activation pre-empts
// motion in flight.
func New(cfg Config, actuator actuate.Actuator, logger *zap.Logger) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if actuator == nil {
		return nil, fmt.Errorf("coordinator: actuator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("coordinator")

	fr, err := frame.New(cfg.Frame)
	if err != nil {
		return nil, err
	}
	planner, err := motion.NewPlanner(cfg.Motion, logger)
	if err != nil {
		return nil, err
	}
	executor, err := motion.NewExecutor(cfg.Executor, actuator.Move, logger)
	if err != nil {
		return nil, err
	}
	engine, err := trigger.NewEngine(cfg.Trigger, actuator.Activate, logger)
	if err != nil {
		return nil, err
	}
	executor.SetInterrupt(engine.Armed)

	return &Coordinator{
		cfg:      cfg,
		logger:   logger,
		frame:    fr,
		planner:  planner,
		executor: executor,
		engine:   engine,
		actuator: actuator,
		lastDist: -1,
	}, nil
}

// Frame exposes the coordinate frame for collaborators that need raw
// conversions.
func (c *Coordinator) Frame() *frame.Frame { return c.frame }

// Start launches the executor worker; it exits when ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) { c.executor.Start(ctx) }

// Wait blocks until the worker has shut down.
func (c *Coordinator) Wait() { c.executor.Wait() }

// SetMovementCallbacks registers the pause/resume hooks fired around each
// activation burst, for an external input-suppression collaborator.
func (c *Coordinator) SetMovementCallbacks(pause, resume func()) {
	c.engine.SetMovementCallbacks(pause, resume)
}

// Track processes one detected candidate: derive the aim point, evaluate the
// trigger, and unless the pointer is already inside the deadzone, plan and
// submit the correcting motion. It returns the trigger state for the caller's
// own pacing decisions and never blocks on motion execution.
func (c *Coordinator) Track(ctx context.Context, cand detect.Candidate, locked bool) trigger.State {
	aim := c.frame.AimPoint(cand.Center, cand.Height)
	off := c.frame.CenterOffset(aim)

	if ce := c.logger.Check(zap.DebugLevel, "offset"); ce != nil {
		ce.Write(
			zap.Float64("px_x", off.Pixel.X), zap.Float64("px_y", off.Pixel.Y),
			zap.Float64("px_dist", off.PixelDist),
			zap.Float64("norm_dist", off.NormDist),
			zap.Float64("angle_dist", off.AngleDist),
		)
	}

	state := c.engine.Observe(ctx, off)

	if off.PixelDist <= c.cfg.Deadzone {
		c.resetStall()
		return state
	}
	if c.stalled(off.PixelDist) {
		c.logger.Debug("dropping non-converging submission",
			zap.Float64("px_dist", off.PixelDist),
			zap.Int("attempts", c.cfg.MaxStall))
		return state
	}

	plan := c.planner.Plan(off.Pixel)
	c.executor.Submit(plan, locked)
	return state
}

func (c *Coordinator) resetStall() {
	c.mu.Lock()
	c.lastDist = -1
	c.stall = 0
	c.mu.Unlock()
}

// stalled reports whether the offset has failed to shrink for MaxStall
// consecutive tracks. A drop resets the streak so the next track may
// submit again.
func (c *Coordinator) stalled(dist float64) bool {
	if c.cfg.MaxStall <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastDist >= 0 && dist >= c.lastDist {
		c.stall++
	} else {
		c.stall = 0
	}
	c.lastDist = dist
	if c.stall >= c.cfg.MaxStall {
		c.stall = 0
		return true
	}
	return false
}

// ForceUnlock releases a stuck locked task.
func (c *Coordinator) ForceUnlock() { c.executor.ForceUnlock() }

// Status snapshots the whole core.
func (c *Coordinator) Status() Status {
	snap, ok := c.executor.Current()
	return Status{
		Busy:     c.executor.Busy(),
		Task:     snap,
		HasTask:  ok,
		Executor: c.executor.Stats(),
		Trigger:  c.engine.Status(),
		Actuator: c.actuator.Name(),
	}
}
