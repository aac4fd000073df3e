package motion

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/reticle/internal/geom"
)

const testSeed = 12345

func newDeterministicPlanner(t *testing.T, cfg Config) *Planner {
	t.Helper()
	require.NoError(t, cfg.Validate())
	return NewTestPlanner(cfg, testSeed)
}

func floatAlmostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// requireExactSum asserts the defining property of every plan: the step
// deltas sum back to the requested displacement with no drift beyond float
// rounding.
func requireExactSum(t *testing.T, plan Plan, target geom.Vector2) {
	t.Helper()
	sum := plan.Sum()
	require.InDelta(t, target.X, sum.X, 1e-9, "X components must sum to the target")
	require.InDelta(t, target.Y, sum.Y, 1e-9, "Y components must sum to the target")
}

func TestClassify(t *testing.T) {
	p := newDeterministicPlanner(t, DefaultConfig())

	tests := []struct {
		distance float64
		want     Magnitude
	}{
		{0, MagnitudeMicro},
		{14.9, MagnitudeMicro},
		{15, MagnitudeMicro},
		{15.1, MagnitudeMedium},
		{60, MagnitudeMedium},
		{60.1, MagnitudeLarge},
		{120, MagnitudeLarge},
		{120.1, MagnitudeHumanized},
		{300, MagnitudeHumanized},
		{300.1, MagnitudeExtraLarge},
		{1500, MagnitudeExtraLarge},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, p.Classify(tc.distance), "distance %.1f", tc.distance)
	}
}

func TestPlanMicroIsSingleStep(t *testing.T) {
	p := newDeterministicPlanner(t, DefaultConfig())

	target := geom.Vector2{X: 10, Y: 0}
	plan := p.Plan(target)

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, MagnitudeMicro, plan.Magnitude)
	assert.Equal(t, target, plan.Steps[0].Delta)
	requireExactSum(t, plan, target)
}

func TestPlanMediumTwoPhase(t *testing.T) {
	p := newDeterministicPlanner(t, DefaultConfig())

	target := geom.Vector2{X: 40, Y: 0}
	plan := p.Plan(target)

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, MagnitudeMedium, plan.Magnitude)
	assert.InDelta(t, 24, plan.Steps[0].Delta.X, 1e-9)
	assert.InDelta(t, 16, plan.Steps[1].Delta.X, 1e-9)
	requireExactSum(t, plan, target)
}

func TestPlanLargeCoarseFine(t *testing.T) {
	p := newDeterministicPlanner(t, DefaultConfig())

	target := geom.Vector2{X: 100, Y: 0}
	plan := p.Plan(target)

	require.Len(t, plan.Steps, 3)
	assert.Equal(t, MagnitudeLarge, plan.Magnitude)
	assert.InDelta(t, 80, plan.Steps[0].Delta.X, 1e-9)
	// The 20px remainder is below the fine-step minimum of two steps, so it
	// splits into two equal halves.
	assert.InDelta(t, 10, plan.Steps[1].Delta.X, 1e-9)
	assert.InDelta(t, 10, plan.Steps[2].Delta.X, 1e-9)
	requireExactSum(t, plan, target)
}

func TestPlanLargeFineStepCount(t *testing.T) {
	p := newDeterministicPlanner(t, DefaultConfig())

	// 120px leaves 24px after the 80% coarse step, still one nominal fine
	// step, so the 2-step minimum applies again.
	plan := p.Plan(geom.Vector2{X: 120, Y: 0})
	require.Len(t, plan.Steps, 3)
	requireExactSum(t, plan, geom.Vector2{X: 120, Y: 0})
}

func TestPlanHumanizedStepCounts(t *testing.T) {
	p := newDeterministicPlanner(t, DefaultConfig())

	tests := []struct {
		distance float64
		want     int
	}{
		{121, 5},
		{150, 5},
		{200, 5},
		{201, 6},
		{300, 6},
	}
	for _, tc := range tests {
		plan := p.Plan(geom.Vector2{X: tc.distance, Y: 0})
		assert.Equal(t, MagnitudeHumanized, plan.Magnitude, "distance %.0f", tc.distance)
		assert.Len(t, plan.Steps, tc.want, "distance %.0f", tc.distance)
	}
}

func TestPlanHumanizedFinalStepBounds(t *testing.T) {
	cfg := DefaultConfig()
	p := newDeterministicPlanner(t, cfg)

	for _, dist := range []float64{121, 160, 200, 250, 300} {
		target := geom.Vector2{X: dist * 0.8, Y: dist * 0.6}
		plan := p.Plan(target)
		requireExactSum(t, plan, target)

		final := plan.Steps[len(plan.Steps)-1].Distance()
		assert.GreaterOrEqual(t, final, cfg.MinFinalStep-1e-9,
			"final step below floor at distance %.0f", dist)
		assert.LessOrEqual(t, final, cfg.MaxFinalStep+1e-9,
			"final step above ceiling at distance %.0f", dist)

		penultimate := plan.Steps[len(plan.Steps)-2].Distance()
		assert.GreaterOrEqual(t, penultimate, cfg.MinPenultimateStep-1e-9,
			"penultimate step below floor at distance %.0f", dist)
	}
}

func TestPlanHumanizedFinalStepCapWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FinalStepCap = 10 // below MaxFinalStep, so it decides the ceiling
	p := newDeterministicPlanner(t, cfg)

	target := geom.Vector2{X: 200, Y: 150} // 250px, unclamped landing would be 16.75
	plan := p.Plan(target)
	requireExactSum(t, plan, target)

	final := plan.Steps[len(plan.Steps)-1].Distance()
	assert.InDelta(t, cfg.FinalStepCap, final, 1e-9)
}

func TestPlanHumanizedProfiles(t *testing.T) {
	target := geom.Vector2{X: 180, Y: 90}

	for _, profile := range []DecayProfile{DecayAggressive, DecayBalanced, DecayGentle, DecayLinear} {
		cfg := DefaultConfig()
		cfg.Profile = profile
		p := newDeterministicPlanner(t, cfg)

		plan := p.Plan(target)
		requireExactSum(t, plan, target)
		assert.NotEmpty(t, plan.Steps, "profile %s", profile)
	}
}

func TestPlanHumanizedDecayOrdering(t *testing.T) {
	// With perturbations disabled, an aggressive profile front-loads the
	// travel: each front step covers no more ground than the one before it.
	cfg := DefaultConfig()
	cfg.Profile = DecayAggressive
	cfg.Tremor = false
	cfg.Arc = false
	p := newDeterministicPlanner(t, cfg)

	plan := p.Plan(geom.Vector2{X: 250, Y: 0})
	requireExactSum(t, plan, geom.Vector2{X: 250, Y: 0})

	// Compare only the decay-shaped front steps, excluding the fixed
	// penultimate and final corrections.
	front := plan.Steps[:len(plan.Steps)-2]
	for i := 1; i < len(front); i++ {
		assert.LessOrEqual(t, front[i].Distance(), front[i-1].Distance()+1e-9,
			"front step %d grew under aggressive decay", i)
	}
}

func TestPlanExtraLargeEased(t *testing.T) {
	cfg := DefaultConfig()
	p := newDeterministicPlanner(t, cfg)

	for _, dist := range []float64{301, 500, 900, 2000} {
		target := geom.Vector2{X: dist, Y: 0}
		plan := p.Plan(target)

		assert.Equal(t, MagnitudeExtraLarge, plan.Magnitude)
		assert.GreaterOrEqual(t, len(plan.Steps), 6, "distance %.0f", dist)
		assert.LessOrEqual(t, len(plan.Steps), cfg.MaxSteps, "distance %.0f", dist)
		requireExactSum(t, plan, target)
	}
}

func TestPlanExtraLargeMonotoneProgress(t *testing.T) {
	for _, maxSteps := range []int{6, 8} {
		cfg := DefaultConfig()
		cfg.MaxSteps = maxSteps
		p := newDeterministicPlanner(t, cfg)

		for _, dist := range []float64{301, 500, 800, 2000} {
			plan := p.Plan(geom.Vector2{X: dist, Y: 0})
			for i, step := range plan.Steps {
				assert.Greater(t, step.Delta.X, 0.0,
					"max %d distance %.0f: step %d moved backwards", maxSteps, dist, i)
			}
		}
	}
}

func TestPlanExactSumProperty(t *testing.T) {
	// Sweep every band with awkward fractional targets in all quadrants.
	p := newDeterministicPlanner(t, DefaultConfig())

	targets := []geom.Vector2{
		{X: 3.7, Y: -2.1},
		{X: -29.3, Y: 17.8},
		{X: 55.5, Y: -55.5},
		{X: -91.2, Y: 40.4},
		{X: 160.9, Y: -133.3},
		{X: -270.1, Y: 88.8},
		{X: 433.3, Y: -612.7},
	}
	for _, target := range targets {
		plan := p.Plan(target)
		requireExactSum(t, plan, target)
	}
}

func TestPlanZeroTarget(t *testing.T) {
	p := newDeterministicPlanner(t, DefaultConfig())

	plan := p.Plan(geom.Vector2{})
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, geom.Vector2{}, plan.Steps[0].Delta)
}

func TestApplyDelays(t *testing.T) {
	cfg := DefaultConfig()
	p := newDeterministicPlanner(t, cfg)

	plan := p.Plan(geom.Vector2{X: 250, Y: 0})
	require.Greater(t, len(plan.Steps), 2)

	base := float64(cfg.BaseStepDelay)
	variance := float64(cfg.DelayVariance)

	first := float64(plan.Steps[0].Delay)
	assert.True(t, first >= base*1.5-variance && first <= base*1.5+variance,
		"first delay %.1fms outside deliberate range", first/float64(time.Millisecond))

	for i := 1; i < len(plan.Steps)-1; i++ {
		d := float64(plan.Steps[i].Delay)
		assert.True(t, d >= 0, "delay %d is negative", i)
		assert.True(t, d <= base*0.8+variance, "delay %d too long", i)
	}

	assert.Zero(t, plan.Steps[len(plan.Steps)-1].Delay, "terminal step must not delay")
}

func TestApplyDelaysZeroBaseCollapses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseStepDelay = 0
	p := newDeterministicPlanner(t, cfg)

	plan := p.Plan(geom.Vector2{X: 250, Y: 0})
	for i, step := range plan.Steps {
		assert.Zero(t, step.Delay, "step %d carried a delay with pacing disabled", i)
	}
}

func TestPlannerDeterministicWithSeed(t *testing.T) {
	a := newDeterministicPlanner(t, DefaultConfig())
	b := newDeterministicPlanner(t, DefaultConfig())

	target := geom.Vector2{X: 222.2, Y: -111.1}
	planA := a.Plan(target)
	planB := b.Plan(target)

	require.Equal(t, len(planA.Steps), len(planB.Steps))
	for i := range planA.Steps {
		assert.Equal(t, planA.Steps[i].Delta, planB.Steps[i].Delta, "step %d diverged", i)
	}
}

func TestDecayRatios(t *testing.T) {
	for _, profile := range []DecayProfile{DecayAggressive, DecayBalanced, DecayGentle, DecayLinear} {
		ratios := profile.Ratios(5)
		require.Len(t, ratios, 5)

		sum := 0.0
		for _, r := range ratios {
			assert.Greater(t, r, 0.0)
			sum += r
		}
		assert.True(t, floatAlmostEqual(sum, 1.0, 1e-9), "profile %s ratios sum to %.6f", profile, sum)
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative micro threshold", func(c *Config) { c.MicroThreshold = -1 }},
		{"inverted medium threshold", func(c *Config) { c.MediumThreshold = c.MicroThreshold }},
		{"inverted large threshold", func(c *Config) { c.LargeThreshold = c.MediumThreshold }},
		{"inverted ceiling", func(c *Config) { c.HumanizedCeiling = c.LargeThreshold }},
		{"bad medium ratio", func(c *Config) { c.MediumFirstRatio = 1.0 }},
		{"bad large ratio", func(c *Config) { c.LargeFirstRatio = 0 }},
		{"unknown profile", func(c *Config) { c.Profile = "frantic" }},
		{"inverted final bounds", func(c *Config) { c.MinFinalStep = c.MaxFinalStep + 1 }},
		{"cap below final floor", func(c *Config) { c.FinalStepCap = c.MinFinalStep - 1 }},
		{"negative delay", func(c *Config) { c.BaseStepDelay = -time.Millisecond }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
