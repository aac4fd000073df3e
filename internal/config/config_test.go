package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "reticle", cfg.Logger.ServiceName)
	assert.Equal(t, 60.0, cfg.Run.TickRate)
	assert.Equal(t, 320, cfg.Frame.CaptureSize)
	assert.Equal(t, 15.0, cfg.Motion.MicroThreshold)
	assert.Equal(t, 500*time.Microsecond, cfg.Executor.PollInterval)
	assert.Equal(t, 2, cfg.Trigger.RequiredSamples)
	assert.Equal(t, 2.0, cfg.Deadzone)
	assert.Equal(t, 4, cfg.MaxStall)

	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("run.tick_rate", 120.0)
	v.Set("motion.profile", "aggressive")
	v.Set("trigger.cooldown", "1s")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 120.0, cfg.Run.TickRate)
	assert.Equal(t, "aggressive", string(cfg.Motion.Profile))
	assert.Equal(t, time.Second, cfg.Trigger.Cooldown)
}

func TestNewConfigFromViperRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"zero tick rate", "run.tick_rate", 0.0},
		{"negative duration", "run.duration", "-5s"},
		{"bad profile", "motion.profile", "chaotic"},
		{"inverted thresholds", "motion.medium_threshold", 1.0},
		{"zero capture", "frame.capture_size", 0},
		{"bad trigger mode", "trigger.mode", "psychic"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tc.key, tc.value)
			_, err := NewConfigFromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestRunPresetOverridesTriggerThresholds(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("run.preset", "ultra_precision")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 0.35, cfg.Trigger.AngleThreshold)

	v = viper.New()
	SetDefaults(v)
	v.Set("run.preset", "imaginary")
	_, err = NewConfigFromViper(v)
	assert.Error(t, err)
}

func TestCoordinatorAssembly(t *testing.T) {
	cfg := NewDefaultConfig()
	cc := cfg.Coordinator()

	assert.Equal(t, cfg.Frame, cc.Frame)
	assert.Equal(t, cfg.Motion, cc.Motion)
	assert.Equal(t, cfg.Deadzone, cc.Deadzone)
	assert.Equal(t, cfg.MaxStall, cc.MaxStall)
	assert.NoError(t, cc.Validate())
}
