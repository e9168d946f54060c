package gesture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"dance_map", "floor_map", "original", "wheel"}, PresetNames())

	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := Preset(name)
			require.NoError(t, err)
			assert.Equal(t, name, cfg.Preset)
			assert.NoError(t, cfg.Validate())
		})
	}

	_, err := Preset("ballet")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []Kind{KindJump, KindBend, KindStep}, cfg.Detectors)
	assert.False(t, cfg.AllowMultiple)
	assert.True(t, cfg.Has(KindStep))
	assert.False(t, cfg.Has(KindPress))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "no detectors", mutate: func(c *Config) { c.Detectors = nil }, want: "at least one detector"},
		{name: "unknown detector", mutate: func(c *Config) { c.Detectors = []Kind{"spin"} }, want: `unknown kind "spin"`},
		{name: "duplicate detector", mutate: func(c *Config) { c.Detectors = []Kind{KindStep, KindStep} }, want: "listed twice"},
		{name: "visibility", mutate: func(c *Config) { c.VisibilityThreshold = 1.5 }, want: "visibility_threshold"},
		{name: "history depth", mutate: func(c *Config) { c.History.BaseFrames = 0 }, want: "history.base_frames"},
		{name: "fps bounds", mutate: func(c *Config) { c.FPS.Max = 0.5 }, want: "fps bounds"},
		{name: "fps initial", mutate: func(c *Config) { c.FPS.Initial = 500 }, want: "fps.initial"},
		{name: "fps smoothing", mutate: func(c *Config) { c.FPS.Smoothing = 0 }, want: "fps.smoothing"},
		{name: "calibration frames", mutate: func(c *Config) { c.Calibration.Frames = 0 }, want: "calibration.frames"},
		{name: "step threshold", mutate: func(c *Config) { c.Step.Threshold = -1 }, want: "step.threshold"},
		{name: "tie break", mutate: func(c *Config) { c.Step.TieBreak = "random" }, want: "step.tie_break"},
		{name: "jump frames", mutate: func(c *Config) { c.Jump.LiftoffFrames = 0 }, want: "jump.liftoff_frames"},
		{name: "bend threshold", mutate: func(c *Config) { c.Bend.Threshold = 0 }, want: "bend.threshold"},
		{
			name: "two phase hysteresis",
			mutate: func(c *Config) {
				c.Detectors = []Kind{KindTwoPhase}
				c.TwoPhase.EndThreshold = 0.2
			},
			want: "exceeds start_threshold",
		},
		{
			name: "press zone",
			mutate: func(c *Config) {
				c.Detectors = []Kind{KindPress}
				c.Press.HalfDepth = 0
			},
			want: "press.half_depth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_ValidateIgnoresUninstalledDetectors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Press.HalfWidth = 0
	cfg.Linear.Threshold = 0
	assert.NoError(t, cfg.Validate())
}

func TestMove_Valid(t *testing.T) {
	for _, m := range AllMoves() {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, MoveNone.Valid())
	assert.False(t, Move("spin").Valid())
}
