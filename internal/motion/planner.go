package motion

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/internal/geom"
)

// perlinFrequency controls how fast the drift noise wanders across a plan.
const perlinFrequency = 0.8

// Planner decomposes displacements into plans. It is safe for concurrent use;
// the mutex guards the shared random sources.
type Planner struct {
	mu     sync.Mutex
	cfg    Config
	logger *zap.Logger
	rng    *rand.Rand
	noiseX *perlin.Perlin
	noiseY *perlin.Perlin
}

// NewPlanner validates cfg and builds a planner seeded from the wall clock.
func NewPlanner(cfg Config, logger *zap.Logger) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := time.Now().UnixNano()
	return newPlanner(cfg, logger, seed), nil
}

// NewTestPlanner builds a planner with a fixed seed so plans are
// reproducible. Intended for tests.
func NewTestPlanner(cfg Config, seed int64) *Planner {
	return newPlanner(cfg, zap.NewNop(), seed)
}

func newPlanner(cfg Config, logger *zap.Logger, seed int64) *Planner {
	// Standard Perlin noise parameters.
	alpha, beta, n := 2.0, 2.0, int32(3)
	return &Planner{
		cfg:    cfg,
		logger: logger.Named("planner"),
		rng:    rand.New(rand.NewSource(seed)),
		noiseX: perlin.NewPerlin(alpha, beta, n, seed),
		noiseY: perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// Config returns the planner's configuration.
func (p *Planner) Config() Config { return p.cfg }

// Classify returns the distance band a displacement of the given magnitude
// falls in.
func (p *Planner) Classify(distance float64) Magnitude {
	switch {
	case distance <= p.cfg.MicroThreshold:
		return MagnitudeMicro
	case distance <= p.cfg.MediumThreshold:
		return MagnitudeMedium
	case distance <= p.cfg.LargeThreshold:
		return MagnitudeLarge
	case distance <= p.cfg.HumanizedCeiling:
		return MagnitudeHumanized
	default:
		return MagnitudeExtraLarge
	}
}

// Plan decomposes target into an ordered step sequence. The steps always sum
// to target exactly: every band computes its last step as the remainder after
// the accumulated preceding steps, never as a fixed ratio.
func (p *Planner) Plan(target geom.Vector2) Plan {
	p.mu.Lock()
	defer p.mu.Unlock()

	dist := target.Mag()
	mag := p.Classify(dist)

	var steps []Step
	switch mag {
	case MagnitudeMicro:
		steps = []Step{{Delta: target}}
	case MagnitudeMedium:
		steps = p.twoPhaseSteps(target, p.cfg.MediumFirstRatio)
	case MagnitudeLarge:
		steps = p.coarseFineSteps(target, dist)
	case MagnitudeHumanized:
		steps = p.humanizedSteps(target, dist)
	default:
		steps = p.easedSteps(target, dist)
	}

	p.applyDelays(steps)

	p.logger.Debug("planned motion",
		zap.Float64("distance", dist),
		zap.String("magnitude", string(mag)),
		zap.Int("steps", len(steps)))

	return Plan{Target: target, Distance: dist, Magnitude: mag, Steps: steps}
}

// twoPhaseSteps is the medium band: one coarse step at firstRatio of the
// displacement, then the exact remainder.
func (p *Planner) twoPhaseSteps(target geom.Vector2, firstRatio float64) []Step {
	first := target.Mul(firstRatio)
	return []Step{
		{Delta: first},
		{Delta: target.Sub(first)},
	}
}

// coarseFineSteps is the large band: a coarse step at LargeFirstRatio, then
// the remainder split into equal fine steps by linear interpolation. The fine
// step count is clamp(remaining/FineStepDivisor, FineStepMin, FineStepMax).
func (p *Planner) coarseFineSteps(target geom.Vector2, dist float64) []Step {
	first := target.Mul(p.cfg.LargeFirstRatio)
	remaining := target.Sub(first)
	remDist := remaining.Mag()

	n := int(remDist / p.cfg.FineStepDivisor)
	if n < p.cfg.FineStepMin {
		n = p.cfg.FineStepMin
	}
	if n > p.cfg.FineStepMax {
		n = p.cfg.FineStepMax
	}

	steps := make([]Step, 0, n+1)
	steps = append(steps, Step{Delta: first})

	acc := first
	for i := 0; i < n; i++ {
		if i == n-1 {
			steps = append(steps, Step{Delta: target.Sub(acc)})
			break
		}
		progress := float64(i+1) / float64(n)
		pos := first.Add(remaining.Mul(progress))
		steps = append(steps, Step{Delta: pos.Sub(acc)})
		acc = pos
	}
	return steps
}

// humanizedStepCount maps a distance inside the humanized band to a step
// count between 3 and 6.
func humanizedStepCount(dist float64) int {
	switch {
	case dist <= 50:
		return 3
	case dist <= 100:
		return 4
	case dist <= 200:
		return 5
	default:
		return 6
	}
}

// humanizedSteps is the humanized band. The front of the plan is shaped by
// the decay profile, the second-to-last step is pinned above the configured
// floor, and the final step is reserved a small exact landing below the cap.
// Intermediate steps may bow sideways (arc) and wobble (tremor); both
// perturbations cancel by construction because the terminal steps are
// computed from unperturbed line positions and the final step is the exact
// remainder.
func (p *Planner) humanizedSteps(target geom.Vector2, dist float64) []Step {
	n := humanizedStepCount(dist)

	finalRatio := 0.067
	if dist <= 100 {
		finalRatio = 0.08
	}
	finalDist := clampF(dist*finalRatio, p.cfg.MinFinalStep, math.Min(p.cfg.MaxFinalStep, p.cfg.FinalStepCap))

	penultDist := 0.0
	if n > 2 {
		penultDist = math.Max(p.cfg.MinPenultimateStep, dist*0.12)
	}

	frontDist := dist - finalDist - penultDist
	frontSteps := n - 2
	if n <= 2 {
		frontSteps = n - 1
	}
	ratios := p.cfg.Profile.Ratios(frontSteps)

	dir := target.Normalize()
	perp := dir.Perp()

	steps := make([]Step, 0, n)
	var acc geom.Vector2
	traveled := 0.0

	for i, r := range ratios {
		traveled += frontDist * r
		progress := traveled / dist
		pos := dir.Mul(traveled)

		// Arc bows the path perpendicular to travel. The parabola
		// 4h*t*(1-t) is zero at t=0 and t=1, and the offset is suppressed
		// near both endpoints, so the bow never displaces start or landing.
		if p.cfg.Arc && n > 3 && progress > 0.1 && progress < 0.9 {
			height := math.Min(p.cfg.ArcHeightFactor, dist*0.01)
			offset := dist * height * 4 * progress * (1 - progress)
			pos = pos.Add(perp.Mul(offset))
		}

		// Tremor only on non-terminal front steps, tapering toward zero as
		// the plan approaches the target.
		if p.cfg.Tremor && i < len(ratios)-1 {
			taper := (1 - progress) * 0.5
			amp := p.cfg.TremorIntensity * taper
			pos = pos.Add(geom.Vector2{
				X: (p.rng.Float64()*2 - 1) * amp,
				Y: (p.rng.Float64()*2 - 1) * amp,
			})
			if p.cfg.PerlinAmplitude > 0 {
				drift := p.cfg.PerlinAmplitude * taper
				pos = pos.Add(geom.Vector2{
					X: p.noiseX.Noise1D(progress*perlinFrequency) * drift,
					Y: p.noiseY.Noise1D(progress*perlinFrequency) * drift,
				})
			}
		}

		steps = append(steps, Step{Delta: pos.Sub(acc)})
		acc = pos
	}

	// The penultimate step lands back on the unperturbed line, one final-step
	// length short of the target.
	if n > 2 {
		pos := dir.Mul(dist - finalDist)
		steps = append(steps, Step{Delta: pos.Sub(acc)})
		acc = pos
	}

	// Exact landing.
	steps = append(steps, Step{Delta: target.Sub(acc)})
	return steps
}

// easedSteps is the extra-large band: 6 to MaxSteps steps following an eased
// cumulative-progress curve that front-loads half of the distance into the
// first step and tapers smoothly to 100%.
func (p *Planner) easedSteps(target geom.Vector2, dist float64) []Step {
	n := int(dist/50) + 3
	if n < 6 {
		n = 6
	}
	if n > p.cfg.MaxSteps {
		n = p.cfg.MaxSteps
	}

	steps := make([]Step, 0, n)
	var acc geom.Vector2
	for i := 0; i < n; i++ {
		if i == n-1 {
			steps = append(steps, Step{Delta: target.Sub(acc)})
			break
		}

		var eased float64
		switch i {
		case 0:
			eased = 0.50
		case 1:
			eased = 0.70
		case 2:
			eased = 0.85
		default:
			// Quadratic tail over the remaining indices; strictly increasing
			// from 85% for any step count.
			rp := float64(i-2) / float64(n-3)
			eased = 0.85 + 0.15*(1-(1-rp)*(1-rp))
		}

		pos := target.Mul(eased)
		steps = append(steps, Step{Delta: pos.Sub(acc)})
		acc = pos
	}
	return steps
}

// applyDelays assigns the inter-step pause to every step but the last. The
// coarse first step pauses longer than the fine tail; a zero base delay
// collapses the whole schedule to zero.
func (p *Planner) applyDelays(steps []Step) {
	if p.cfg.BaseStepDelay == 0 || len(steps) < 2 {
		return
	}
	for i := range steps[:len(steps)-1] {
		factor := 0.8
		if i == 0 {
			factor = 1.5
		}
		delay := time.Duration(float64(p.cfg.BaseStepDelay) * factor)
		if p.cfg.DelayVariance > 0 {
			v := time.Duration((p.rng.Float64()*2 - 1) * float64(p.cfg.DelayVariance))
			delay += v
		}
		if delay < 0 {
			delay = 0
		}
		steps[i].Delay = delay
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
