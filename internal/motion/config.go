package motion

import (
	"fmt"
	"math"
	"time"
)

// DecayProfile names a policy for how per-step distances shrink across a
// humanized plan. The factor is the exponent of the front-loaded ratio
// sequence exp(-factor*i); zero selects a linear ramp instead.
type DecayProfile string

const (
	// DecayAggressive front-loads roughly 78% of the distance into the first
	// of five steps.
	DecayAggressive DecayProfile = "aggressive"
	// DecayBalanced front-loads roughly 70%.
	DecayBalanced DecayProfile = "balanced"
	// DecayGentle front-loads roughly 60%.
	DecayGentle DecayProfile = "gentle"
	// DecayLinear spreads steps on a linear ramp, roughly 33% first.
	DecayLinear DecayProfile = "linear"
)

var decayFactors = map[DecayProfile]float64{
	DecayAggressive: 1.5,
	DecayBalanced:   1.2,
	DecayGentle:     0.9,
	DecayLinear:     0.0,
}

// Factor returns the exponential decay factor for the profile and whether the
// profile is known.
func (p DecayProfile) Factor() (float64, bool) {
	f, ok := decayFactors[p]
	return f, ok
}

// Ratios returns the normalized front-loaded step ratio sequence the profile
// produces for n steps. The ratios sum to 1.
func (p DecayProfile) Ratios(n int) []float64 {
	factor, ok := decayFactors[p]
	if !ok || n <= 0 {
		return nil
	}
	raw := make([]float64, n)
	total := 0.0
	for i := range raw {
		if factor == 0 {
			raw[i] = float64(n - i)
		} else {
			raw[i] = math.Exp(-factor * float64(i))
		}
		total += raw[i]
	}
	for i := range raw {
		raw[i] /= total
	}
	return raw
}

// Config holds the planner's tunable parameters. The band breakpoints are
// deliberately configuration rather than constants: the discontinuities they
// introduce are tuning decisions, not load-bearing behavior.
type Config struct {
	// Band thresholds in actuation units (capture pixels).
	MicroThreshold   float64 `mapstructure:"micro_threshold" yaml:"micro_threshold"`
	MediumThreshold  float64 `mapstructure:"medium_threshold" yaml:"medium_threshold"`
	LargeThreshold   float64 `mapstructure:"large_threshold" yaml:"large_threshold"`
	HumanizedCeiling float64 `mapstructure:"humanized_ceiling" yaml:"humanized_ceiling"`

	// Coarse-step fractions for the two-phase bands.
	MediumFirstRatio float64 `mapstructure:"medium_first_ratio" yaml:"medium_first_ratio"`
	LargeFirstRatio  float64 `mapstructure:"large_first_ratio" yaml:"large_first_ratio"`

	// Fine-step shaping for the large band: the remaining distance after the
	// coarse step is split into clamp(remaining/FineStepDivisor,
	// FineStepMin, FineStepMax) equal interpolated steps.
	FineStepDivisor float64 `mapstructure:"fine_step_divisor" yaml:"fine_step_divisor"`
	FineStepMin     int     `mapstructure:"fine_step_min" yaml:"fine_step_min"`
	FineStepMax     int     `mapstructure:"fine_step_max" yaml:"fine_step_max"`

	// Humanized-band shaping.
	Profile      DecayProfile `mapstructure:"profile" yaml:"profile"`
	MinFinalStep float64      `mapstructure:"min_final_step" yaml:"min_final_step"`
	MaxFinalStep float64      `mapstructure:"max_final_step" yaml:"max_final_step"`
	// FinalStepCap is a hard ceiling on the landing step; when it is below
	// MaxFinalStep the cap wins.
	FinalStepCap       float64 `mapstructure:"final_step_cap" yaml:"final_step_cap"`
	MinPenultimateStep float64 `mapstructure:"min_penultimate_step" yaml:"min_penultimate_step"`

	// Tremor adds small isotropic jitter to non-terminal steps; the Perlin
	// drift layers a smoother wander on top of the uniform component.
	Tremor          bool    `mapstructure:"tremor" yaml:"tremor"`
	TremorIntensity float64 `mapstructure:"tremor_intensity" yaml:"tremor_intensity"`
	PerlinAmplitude float64 `mapstructure:"perlin_amplitude" yaml:"perlin_amplitude"`

	// Arc bows intermediate steps perpendicular to the travel direction; the
	// bow is zero at both endpoints so start and end are never displaced.
	Arc             bool    `mapstructure:"arc" yaml:"arc"`
	ArcHeightFactor float64 `mapstructure:"arc_height_factor" yaml:"arc_height_factor"`

	// Extra-large band step count ceiling; the band uses 6 steps minimum.
	MaxSteps int `mapstructure:"max_steps" yaml:"max_steps"`

	// Inter-step pacing. A zero BaseStepDelay collapses all delays to zero
	// for latency-critical configurations.
	BaseStepDelay time.Duration `mapstructure:"base_step_delay" yaml:"base_step_delay"`
	DelayVariance time.Duration `mapstructure:"delay_variance" yaml:"delay_variance"`
}

// DefaultConfig mirrors the tuned production values.
func DefaultConfig() Config {
	return Config{
		MicroThreshold:     15.0,
		MediumThreshold:    60.0,
		LargeThreshold:     120.0,
		HumanizedCeiling:   300.0,
		MediumFirstRatio:   0.60,
		LargeFirstRatio:    0.80,
		FineStepDivisor:    20.0,
		FineStepMin:        2,
		FineStepMax:        3,
		Profile:            DecayBalanced,
		MinFinalStep:       8.0,
		MaxFinalStep:       18.0,
		FinalStepCap:       20.0,
		MinPenultimateStep: 20.0,
		Tremor:             true,
		TremorIntensity:    1.5,
		PerlinAmplitude:    0.8,
		Arc:                true,
		ArcHeightFactor:    0.08,
		MaxSteps:           8,
		BaseStepDelay:      8 * time.Millisecond,
		DelayVariance:      3 * time.Millisecond,
	}
}

// Validate fails fast on values that would break the planner's invariants.
func (c Config) Validate() error {
	if c.MicroThreshold <= 0 {
		return fmt.Errorf("motion: micro_threshold must be positive, got %.1f", c.MicroThreshold)
	}
	if c.MediumThreshold <= c.MicroThreshold {
		return fmt.Errorf("motion: medium_threshold (%.1f) must exceed micro_threshold (%.1f)", c.MediumThreshold, c.MicroThreshold)
	}
	if c.LargeThreshold <= c.MediumThreshold {
		return fmt.Errorf("motion: large_threshold (%.1f) must exceed medium_threshold (%.1f)", c.LargeThreshold, c.MediumThreshold)
	}
	if c.HumanizedCeiling <= c.LargeThreshold {
		return fmt.Errorf("motion: humanized_ceiling (%.1f) must exceed large_threshold (%.1f)", c.HumanizedCeiling, c.LargeThreshold)
	}
	if c.MediumFirstRatio <= 0 || c.MediumFirstRatio >= 1 {
		return fmt.Errorf("motion: medium_first_ratio must be in (0, 1), got %.2f", c.MediumFirstRatio)
	}
	if c.LargeFirstRatio <= 0 || c.LargeFirstRatio >= 1 {
		return fmt.Errorf("motion: large_first_ratio must be in (0, 1), got %.2f", c.LargeFirstRatio)
	}
	if c.FineStepDivisor <= 0 {
		return fmt.Errorf("motion: fine_step_divisor must be positive, got %.1f", c.FineStepDivisor)
	}
	if c.FineStepMin < 1 || c.FineStepMax < c.FineStepMin {
		return fmt.Errorf("motion: fine step bounds invalid, got [%d, %d]", c.FineStepMin, c.FineStepMax)
	}
	if _, ok := c.Profile.Factor(); !ok {
		return fmt.Errorf("motion: unknown decay profile %q", c.Profile)
	}
	if c.MinFinalStep <= 0 || c.MaxFinalStep < c.MinFinalStep {
		return fmt.Errorf("motion: final step bounds invalid, got [%.1f, %.1f]", c.MinFinalStep, c.MaxFinalStep)
	}
	if c.FinalStepCap < c.MinFinalStep {
		return fmt.Errorf("motion: final_step_cap (%.1f) must be at least min_final_step (%.1f)", c.FinalStepCap, c.MinFinalStep)
	}
	if c.MinPenultimateStep <= 0 {
		return fmt.Errorf("motion: min_penultimate_step must be positive, got %.1f", c.MinPenultimateStep)
	}
	if c.MaxSteps < 6 {
		return fmt.Errorf("motion: max_steps must be at least 6, got %d", c.MaxSteps)
	}
	if c.BaseStepDelay < 0 || c.DelayVariance < 0 {
		return fmt.Errorf("motion: delays must be non-negative")
	}
	return nil
}
