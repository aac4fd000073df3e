// Package motion turns a raw 2D displacement into a humanized sequence of
// incremental pointer moves and executes such sequences asynchronously with
// cooperative cancellation. The planner guarantees that the vector sum of a
// plan's steps equals the requested displacement exactly, whatever jitter or
// arc perturbation was applied along the way; the executor guarantees that at
// most one plan runs at a time and that the most recent submission wins.
package motion

import (
	"time"

	"github.com/xkilldash9x/reticle/internal/geom"
)

// Magnitude classifies a displacement by the distance band it falls in. The
// band decides the decomposition strategy.
type Magnitude string

const (
	// MagnitudeMicro is a displacement small enough to apply in one step.
	MagnitudeMicro Magnitude = "micro"
	// MagnitudeMedium gets a two-step coarse/fine split.
	MagnitudeMedium Magnitude = "medium"
	// MagnitudeLarge gets a coarse step plus interpolated fine steps.
	MagnitudeLarge Magnitude = "large"
	// MagnitudeHumanized gets the decay-profile decomposition with optional
	// arc and tremor.
	MagnitudeHumanized Magnitude = "humanized"
	// MagnitudeExtraLarge is beyond the humanized ceiling and uses the eased
	// cumulative-progress curve.
	MagnitudeExtraLarge Magnitude = "extra_large"
)

// Step is one incremental pointer move plus the pause to take before the next
// step begins. A zero Delay means the next step follows immediately.
type Step struct {
	Delta geom.Vector2
	Delay time.Duration
}

// Distance returns the length of the step's displacement.
func (s Step) Distance() float64 { return s.Delta.Mag() }

// Plan is an ordered decomposition of a single displacement.
type Plan struct {
	// Target is the displacement the plan sums to.
	Target geom.Vector2
	// Distance is |Target|.
	Distance float64
	// Magnitude records which band produced the decomposition.
	Magnitude Magnitude
	// Steps always sum to Target exactly; the last step is computed as the
	// remainder after all preceding steps.
	Steps []Step
}

// Sum returns the vector total of all steps. It equals Target up to
// floating-point epsilon for every plan the planner produces.
func (p Plan) Sum() geom.Vector2 {
	var total geom.Vector2
	for _, s := range p.Steps {
		total = total.Add(s.Delta)
	}
	return total
}
