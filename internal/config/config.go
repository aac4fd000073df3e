// Package config loads and validates the application configuration from
// file, environment, and defaults via viper. The coordination core itself
// never touches viper; it receives plain immutable config structs assembled
// here.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/reticle/internal/coordinator"
	"github.com/xkilldash9x/reticle/internal/frame"
	"github.com/xkilldash9x/reticle/internal/motion"
	"github.com/xkilldash9x/reticle/internal/trigger"
)

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// RunConfig drives the decision loop of the run command. These knobs come
// from CLI flags as often as from the config file.
type RunConfig struct {
	// TickRate is the decision loop frequency in Hz.
	TickRate float64 `mapstructure:"tick_rate" yaml:"tick_rate"`
	// Duration bounds the run; zero runs until interrupted.
	Duration time.Duration `mapstructure:"duration" yaml:"duration"`
	// Preset, when non-empty, overrides the trigger thresholds with a named
	// tolerance tier.
	Preset string `mapstructure:"preset" yaml:"preset"`

	// Synthetic target parameters for dry runs.
	OrbitRadius float64       `mapstructure:"orbit_radius" yaml:"orbit_radius"`
	OrbitPeriod time.Duration `mapstructure:"orbit_period" yaml:"orbit_period"`
	Seed        int64         `mapstructure:"seed" yaml:"seed"`
}

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig          `mapstructure:"logger" yaml:"logger"`
	Run      RunConfig             `mapstructure:"run" yaml:"run"`
	Frame    frame.Config          `mapstructure:"frame" yaml:"frame"`
	Motion   motion.Config         `mapstructure:"motion" yaml:"motion"`
	Executor motion.ExecutorConfig `mapstructure:"executor" yaml:"executor"`
	Trigger  trigger.Config        `mapstructure:"trigger" yaml:"trigger"`
	Deadzone float64               `mapstructure:"deadzone" yaml:"deadzone"`
	MaxStall int                   `mapstructure:"max_stall" yaml:"max_stall"`
}

// Coordinator assembles the immutable config object the coordination core is
// constructed with.
func (c *Config) Coordinator() coordinator.Config {
	return coordinator.Config{
		Frame:    c.Frame,
		Motion:   c.Motion,
		Executor: c.Executor,
		Trigger:  c.Trigger,
		Deadzone: c.Deadzone,
		MaxStall: c.MaxStall,
	}
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults are maintained alongside the validators; failing here is
		// a programming error.
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for every configuration parameter.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "reticle")
	v.SetDefault("logger.log_file", "reticle.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Run loop --
	v.SetDefault("run.tick_rate", 60.0)
	v.SetDefault("run.duration", "0s")
	v.SetDefault("run.preset", "")
	v.SetDefault("run.orbit_radius", 60.0)
	v.SetDefault("run.orbit_period", "4s")
	v.SetDefault("run.seed", 0)

	// -- Coordinate frame --
	v.SetDefault("frame.capture_size", 320)
	v.SetDefault("frame.display_width", 2560)
	v.SetDefault("frame.display_height", 1600)
	v.SetDefault("frame.horizontal_fov", 103.0)
	v.SetDefault("frame.aim_offset_ratio", 0.38)

	// -- Motion planner --
	v.SetDefault("motion.micro_threshold", 15.0)
	v.SetDefault("motion.medium_threshold", 60.0)
	v.SetDefault("motion.large_threshold", 120.0)
	v.SetDefault("motion.humanized_ceiling", 300.0)
	v.SetDefault("motion.medium_first_ratio", 0.60)
	v.SetDefault("motion.large_first_ratio", 0.80)
	v.SetDefault("motion.fine_step_divisor", 20.0)
	v.SetDefault("motion.fine_step_min", 2)
	v.SetDefault("motion.fine_step_max", 3)
	v.SetDefault("motion.profile", "balanced")
	v.SetDefault("motion.min_final_step", 8.0)
	v.SetDefault("motion.max_final_step", 18.0)
	v.SetDefault("motion.final_step_cap", 20.0)
	v.SetDefault("motion.min_penultimate_step", 20.0)
	v.SetDefault("motion.tremor", true)
	v.SetDefault("motion.tremor_intensity", 1.5)
	v.SetDefault("motion.perlin_amplitude", 0.8)
	v.SetDefault("motion.arc", true)
	v.SetDefault("motion.arc_height_factor", 0.08)
	v.SetDefault("motion.max_steps", 8)
	v.SetDefault("motion.base_step_delay", "8ms")
	v.SetDefault("motion.delay_variance", "3ms")

	// -- Motion executor --
	v.SetDefault("executor.poll_interval", "500us")
	v.SetDefault("executor.tiny_step_floor", 0.1)

	// -- Trigger --
	v.SetDefault("trigger.enabled", true)
	v.SetDefault("trigger.mode", "angle")
	v.SetDefault("trigger.angle_threshold", 1.0)
	v.SetDefault("trigger.norm_threshold_x", 0.035)
	v.SetDefault("trigger.norm_threshold_y", 0.05)
	v.SetDefault("trigger.required_samples", 2)
	v.SetDefault("trigger.window", "500ms")
	v.SetDefault("trigger.cooldown", "250ms")
	v.SetDefault("trigger.shots_per_trigger", 1)
	v.SetDefault("trigger.shot_interval", "60ms")
	v.SetDefault("trigger.button", "left")

	// -- Coordinator --
	v.SetDefault("deadzone", 2.0)
	v.SetDefault("max_stall", 4)
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("RETICLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Run.Preset != "" {
		if err := cfg.Trigger.ApplyPreset(trigger.Preset(cfg.Run.Preset)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values, failing fast with a
// descriptive error instead of clamping silently.
func (c *Config) Validate() error {
	if c.Run.TickRate <= 0 || c.Run.TickRate > 1000 {
		return fmt.Errorf("run.tick_rate must be in (0, 1000], got %.1f", c.Run.TickRate)
	}
	if c.Run.Duration < 0 {
		return fmt.Errorf("run.duration must be non-negative, got %s", c.Run.Duration)
	}
	if c.Run.OrbitRadius < 0 {
		return fmt.Errorf("run.orbit_radius must be non-negative, got %.1f", c.Run.OrbitRadius)
	}
	if c.Run.OrbitPeriod <= 0 {
		return fmt.Errorf("run.orbit_period must be positive, got %s", c.Run.OrbitPeriod)
	}
	return c.Coordinator().Validate()
}
