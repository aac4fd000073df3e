package trigger

import (
	"fmt"
	"time"
)

// Mode selects which space of the offset record alignment is judged in. The
// choice is fixed at construction; the engine never switches modes per call.
type Mode string

const (
	// ModeAngle compares the scalar angular distance against one fine
	// tolerance. Preferred: it is invariant to capture resolution.
	ModeAngle Mode = "angle"
	// ModePixel is the fallback for setups without a trustworthy FOV model.
	// Each normalized axis is checked independently against its own stricter
	// tolerance and both must pass.
	ModePixel Mode = "pixel"
)

// Preset names a bundled tolerance tier. Applying a preset overwrites the
// threshold fields only; window, cooldown and burst settings are untouched.
type Preset string

const (
	PresetUltraPrecision Preset = "ultra_precision"
	PresetHighPrecision  Preset = "high_precision"
	PresetBalanced       Preset = "balanced"
	PresetRelaxed        Preset = "relaxed"
	PresetUltraRelaxed   Preset = "ultra_relaxed"
)

type thresholds struct {
	angle  float64
	normX float64
	normY float64
}

var presetThresholds = map[Preset]thresholds{
	PresetUltraPrecision: {angle: 0.35, normX: 0.012, normY: 0.018},
	PresetHighPrecision:  {angle: 0.60, normX: 0.020, normY: 0.030},
	PresetBalanced:       {angle: 1.00, normX: 0.035, normY: 0.050},
	PresetRelaxed:        {angle: 1.60, normX: 0.055, normY: 0.080},
	PresetUltraRelaxed:   {angle: 2.50, normX: 0.090, normY: 0.130},
}

// Presets lists the available preset names.
func Presets() []Preset {
	return []Preset{
		PresetUltraPrecision,
		PresetHighPrecision,
		PresetBalanced,
		PresetRelaxed,
		PresetUltraRelaxed,
	}
}

// Config is the immutable tuning of one alignment engine.
type Config struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Mode    Mode `mapstructure:"mode" yaml:"mode"`

	// AngleThreshold is the fine tolerance in degrees for ModeAngle.
	AngleThreshold float64 `mapstructure:"angle_threshold" yaml:"angle_threshold"`
	// NormThresholdX and NormThresholdY bound each normalized axis in
	// ModePixel.
	NormThresholdX float64 `mapstructure:"norm_threshold_x" yaml:"norm_threshold_x"`
	NormThresholdY float64 `mapstructure:"norm_threshold_y" yaml:"norm_threshold_y"`

	// RequiredSamples aligned observations must land inside Window before
	// the engine arms.
	RequiredSamples int           `mapstructure:"required_samples" yaml:"required_samples"`
	Window          time.Duration `mapstructure:"window" yaml:"window"`

	// Cooldown is the minimum interval between two activations, measured
	// from the last actual activation.
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown"`

	// ShotsPerTrigger and ShotInterval shape the activation burst.
	ShotsPerTrigger int           `mapstructure:"shots_per_trigger" yaml:"shots_per_trigger"`
	ShotInterval    time.Duration `mapstructure:"shot_interval" yaml:"shot_interval"`

	// Button is passed through to the activation callback.
	Button string `mapstructure:"button" yaml:"button"`
}

// DefaultConfig is the balanced tier in angle mode.
func DefaultConfig() Config {
	cfg := Config{
		Enabled:         true,
		Mode:            ModeAngle,
		RequiredSamples: 2,
		Window:          500 * time.Millisecond,
		Cooldown:        250 * time.Millisecond,
		ShotsPerTrigger: 1,
		ShotInterval:    60 * time.Millisecond,
		Button:          "left",
	}
	cfg.ApplyPreset(PresetBalanced)
	return cfg
}

// ApplyPreset overwrites the threshold fields from the named tier.
func (c *Config) ApplyPreset(p Preset) error {
	th, ok := presetThresholds[p]
	if !ok {
		return fmt.Errorf("trigger: unknown preset %q", p)
	}
	c.AngleThreshold = th.angle
	c.NormThresholdX = th.normX
	c.NormThresholdY = th.normY
	return nil
}

// Validate fails fast on out-of-range tuning instead of clamping silently.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeAngle, ModePixel:
	default:
		return fmt.Errorf("trigger: unknown mode %q", c.Mode)
	}
	if c.AngleThreshold <= 0 {
		return fmt.Errorf("trigger: angle_threshold must be positive, got %.3f", c.AngleThreshold)
	}
	if c.NormThresholdX <= 0 || c.NormThresholdY <= 0 {
		return fmt.Errorf("trigger: norm thresholds must be positive, got (%.3f, %.3f)", c.NormThresholdX, c.NormThresholdY)
	}
	if c.RequiredSamples < 1 {
		return fmt.Errorf("trigger: required_samples must be at least 1, got %d", c.RequiredSamples)
	}
	if c.Window <= 0 {
		return fmt.Errorf("trigger: window must be positive, got %s", c.Window)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("trigger: cooldown must be non-negative, got %s", c.Cooldown)
	}
	if c.ShotsPerTrigger < 1 {
		return fmt.Errorf("trigger: shots_per_trigger must be at least 1, got %d", c.ShotsPerTrigger)
	}
	if c.ShotInterval < 0 {
		return fmt.Errorf("trigger: shot_interval must be non-negative, got %s", c.ShotInterval)
	}
	return nil
}
