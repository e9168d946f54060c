package gesture

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("invalid gesture config")

// Kind names an installable detector.
type Kind string

const (
	KindJump     Kind = "jump"
	KindBend     Kind = "bend"
	KindKneeBend Kind = "knee_bend"
	KindStep     Kind = "step"
	KindLinear   Kind = "linear"
	KindPress    Kind = "press"
	KindTwoPhase Kind = "two_phase"
)

// priority is the fixed order in which installed detectors are queried.
// Jump is the most transient motion so it goes first.
var priority = []Kind{KindJump, KindBend, KindKneeBend, KindStep, KindLinear, KindPress, KindTwoPhase}

// TieBreak selects which foot drives the step detector when neither foot
// clearly moved farther in its outward direction.
type TieBreak string

const (
	// TieBreakLessStable follows the foot whose stability counter is lower.
	TieBreakLessStable TieBreak = "less_stable"
	// TieBreakMoreStable follows the foot whose stability counter is higher,
	// which suppresses more borderline steps.
	TieBreakMoreStable TieBreak = "more_stable"
)

// Config holds every tunable of the engine. Frame counts are expressed at a
// 30 fps baseline and rescaled to the measured frame rate every frame.
type Config struct {
	Preset              string  `json:"preset"`
	Detectors           []Kind  `json:"detectors"`
	AllowMultiple       bool    `json:"allow_multiple"`       // let detectors fire while another is locked
	VisibilityThreshold float64 `json:"visibility_threshold"` // minimum landmark visibility for a frame to count

	History     HistoryConfig     `json:"history"`
	FPS         FPSConfig         `json:"fps"`
	Calibration CalibrationConfig `json:"calibration"`
	Step        StepConfig        `json:"step"`
	Jump        JumpConfig        `json:"jump"`
	Bend        BendConfig        `json:"bend"`
	KneeBend    KneeBendConfig    `json:"knee_bend"`
	Linear      LinearConfig      `json:"linear"`
	Press       PressConfig       `json:"press"`
	TwoPhase    TwoPhaseConfig    `json:"two_phase"`
}

// HistoryConfig sizes the rolling sample window.
type HistoryConfig struct {
	BaseFrames int `json:"base_frames"` // window depth at 30 fps
	MinFrames  int `json:"min_frames"`  // floor for every fps-scaled frame count
}

// FPSConfig controls the smoothed frame-rate estimate.
type FPSConfig struct {
	Initial   float64 `json:"initial"`   // estimate before two timestamps are seen
	Min       float64 `json:"min"`       // floor
	Max       float64 `json:"max"`       // ceiling
	Smoothing float64 `json:"smoothing"` // EMA weight of the newest interval, (0,1]
}

// CalibrationConfig controls standing-height calibration.
type CalibrationConfig struct {
	Frames          int     `json:"frames"`           // processed frames before calibration is attempted
	XSpread         float64 `json:"x_spread"`         // max horizontal spread of body midpoints
	Stillness       float64 `json:"stillness"`        // max nose movement across the window
	MinHeight       float64 `json:"min_height"`       // plausibility floor for feet-to-nose height
	ScaleThresholds bool    `json:"scale_thresholds"` // scale displacement thresholds by height
	NominalHeight   float64 `json:"nominal_height"`   // height at which thresholds are used as-is
}

// StepConfig tunes lateral step detection on the foot X axis.
type StepConfig struct {
	Threshold          float64  `json:"threshold"`
	StabilityThreshold float64  `json:"stability_threshold"`
	StableFrames       int      `json:"stable_frames"`
	TieBreak           TieBreak `json:"tie_break"`
}

// JumpConfig tunes vertical jump detection.
type JumpConfig struct {
	Threshold          float64 `json:"threshold"`
	StabilityThreshold float64 `json:"stability_threshold"` // feet Y
	StableFrames       int     `json:"stable_frames"`
	HipTolerance       float64 `json:"hip_tolerance"`     // max hip X drift before the motion is vetoed
	LiftoffThreshold   float64 `json:"liftoff_threshold"` // nose upward displacement per frame window
	LiftoffFrames      int     `json:"liftoff_frames"`
	UseHeels           bool    `json:"use_heels"` // track heels instead of ankles
}

// BendConfig tunes torso bend detection on the shoulders.
type BendConfig struct {
	Threshold                  float64 `json:"threshold"`
	ShoulderStabilityThreshold float64 `json:"shoulder_stability_threshold"`
	ShoulderStableFrames       int     `json:"shoulder_stable_frames"`
	FeetStabilityThreshold     float64 `json:"feet_stability_threshold"`
	FeetStableFrames           int     `json:"feet_stable_frames"`
}

// KneeBendConfig tunes the knee-angle bend variant.
type KneeBendConfig struct {
	AngleDelta float64       `json:"angle_delta"` // radians of extra flexion over the calibrated angle
	Hold       time.Duration `json:"hold"`        // two bent readings must be at least this far apart
}

// LinearConfig tunes forward/backward detection on the foot Z axis.
type LinearConfig struct {
	Threshold          float64 `json:"threshold"`
	FeetApart          float64 `json:"feet_apart"` // minimum Z separation between the feet
	StabilityThreshold float64 `json:"stability_threshold"`
	StableFrames       int     `json:"stable_frames"`
}

// PressConfig tunes zone presses.
type PressConfig struct {
	HalfWidth          float64 `json:"half_width"` // center zone half extent on X
	HalfDepth          float64 `json:"half_depth"` // center zone half extent on Z
	StabilityThreshold float64 `json:"stability_threshold"`
	StableFrames       int     `json:"stable_frames"`
}

// TwoPhaseConfig tunes the wrist offset start/end gesture.
type TwoPhaseConfig struct {
	StartThreshold float64 `json:"start_threshold"`
	EndThreshold   float64 `json:"end_threshold"`
}

// DefaultConfig returns the "original" preset: jump, bend and step with a
// single gesture in flight.
func DefaultConfig() Config {
	return Config{
		Preset:              "original",
		Detectors:           []Kind{KindJump, KindBend, KindStep},
		AllowMultiple:       false,
		VisibilityThreshold: 0.5,

		History: HistoryConfig{
			BaseFrames: 5,
			MinFrames:  2,
		},
		FPS: FPSConfig{
			Initial:   30,
			Min:       1,
			Max:       120,
			Smoothing: 0.2,
		},
		Calibration: CalibrationConfig{
			Frames:        5,
			XSpread:       0.15,
			Stillness:     0.03,
			MinHeight:     0.4,
			NominalHeight: 0.7,
		},
		Step: StepConfig{
			Threshold:          0.04,
			StabilityThreshold: 0.028,
			StableFrames:       3,
			TieBreak:           TieBreakLessStable,
		},
		Jump: JumpConfig{
			Threshold:          0.012,
			StabilityThreshold: 0.005,
			StableFrames:       2,
			HipTolerance:       0.01,
			LiftoffThreshold:   0.01,
			LiftoffFrames:      2,
		},
		Bend: BendConfig{
			Threshold:                  0.06,
			ShoulderStabilityThreshold: 0.01,
			ShoulderStableFrames:       4,
			FeetStabilityThreshold:     0.01,
			FeetStableFrames:           4,
		},
		KneeBend: KneeBendConfig{
			AngleDelta: 0.1,
			Hold:       time.Second,
		},
		Linear: LinearConfig{
			Threshold:          0.06,
			FeetApart:          0.1,
			StabilityThreshold: 0.02,
			StableFrames:       4,
		},
		Press: PressConfig{
			HalfWidth:          0.06,
			HalfDepth:          0.08,
			StabilityThreshold: 0.02,
			StableFrames:       3,
		},
		TwoPhase: TwoPhaseConfig{
			StartThreshold: 0.05,
			EndThreshold:   0.05,
		},
	}
}

var presets = map[string]func() Config{
	"original": DefaultConfig,
	"dance_map": func() Config {
		cfg := DefaultConfig()
		cfg.Preset = "dance_map"
		cfg.Detectors = []Kind{KindLinear, KindStep}
		cfg.AllowMultiple = true
		cfg.History.BaseFrames = 3
		return cfg
	},
	"floor_map": func() Config {
		cfg := DefaultConfig()
		cfg.Preset = "floor_map"
		cfg.Detectors = []Kind{KindPress}
		cfg.AllowMultiple = true
		return cfg
	},
	"wheel": func() Config {
		cfg := DefaultConfig()
		cfg.Preset = "wheel"
		cfg.Detectors = []Kind{KindTwoPhase}
		cfg.AllowMultiple = true
		return cfg
	},
}

// Preset returns the named preset configuration.
func Preset(name string) (Config, error) {
	build, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
	}
	return build(), nil
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every value the engine depends on. It is called by
// NewArbiter so that per-frame code never has to.
func (c Config) Validate() error {
	if len(c.Detectors) == 0 {
		return invalid("detectors: at least one detector is required")
	}
	seen := make(map[Kind]bool, len(c.Detectors))
	for _, k := range c.Detectors {
		if !knownKind(k) {
			return invalid("detectors: unknown kind %q", k)
		}
		if seen[k] {
			return invalid("detectors: %q listed twice", k)
		}
		seen[k] = true
	}

	if c.VisibilityThreshold < 0 || c.VisibilityThreshold > 1 {
		return invalid("visibility_threshold must be in [0,1], got %v", c.VisibilityThreshold)
	}

	if c.History.BaseFrames < 1 {
		return invalid("history.base_frames must be >= 1, got %d", c.History.BaseFrames)
	}
	if c.History.MinFrames < 1 {
		return invalid("history.min_frames must be >= 1, got %d", c.History.MinFrames)
	}

	if c.FPS.Min <= 0 || c.FPS.Max < c.FPS.Min {
		return invalid("fps bounds must satisfy 0 < min <= max, got [%v, %v]", c.FPS.Min, c.FPS.Max)
	}
	if c.FPS.Initial < c.FPS.Min || c.FPS.Initial > c.FPS.Max {
		return invalid("fps.initial %v outside [%v, %v]", c.FPS.Initial, c.FPS.Min, c.FPS.Max)
	}
	if c.FPS.Smoothing <= 0 || c.FPS.Smoothing > 1 {
		return invalid("fps.smoothing must be in (0,1], got %v", c.FPS.Smoothing)
	}

	if c.Calibration.Frames < 1 {
		return invalid("calibration.frames must be >= 1, got %d", c.Calibration.Frames)
	}
	if err := positive(map[string]float64{
		"calibration.x_spread":       c.Calibration.XSpread,
		"calibration.stillness":      c.Calibration.Stillness,
		"calibration.min_height":     c.Calibration.MinHeight,
		"calibration.nominal_height": c.Calibration.NominalHeight,
	}); err != nil {
		return err
	}

	for _, k := range c.Detectors {
		if err := c.validateDetector(k); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) validateDetector(k Kind) error {
	switch k {
	case KindStep:
		if c.Step.TieBreak != TieBreakLessStable && c.Step.TieBreak != TieBreakMoreStable {
			return invalid("step.tie_break: unknown policy %q", c.Step.TieBreak)
		}
		return firstError(
			positive(map[string]float64{
				"step.threshold":           c.Step.Threshold,
				"step.stability_threshold": c.Step.StabilityThreshold,
			}),
			atLeastOne("step.stable_frames", c.Step.StableFrames),
		)
	case KindJump:
		return firstError(
			positive(map[string]float64{
				"jump.threshold":           c.Jump.Threshold,
				"jump.stability_threshold": c.Jump.StabilityThreshold,
				"jump.hip_tolerance":       c.Jump.HipTolerance,
				"jump.liftoff_threshold":   c.Jump.LiftoffThreshold,
			}),
			atLeastOne("jump.stable_frames", c.Jump.StableFrames),
			atLeastOne("jump.liftoff_frames", c.Jump.LiftoffFrames),
		)
	case KindBend:
		return firstError(
			positive(map[string]float64{
				"bend.threshold":                    c.Bend.Threshold,
				"bend.shoulder_stability_threshold": c.Bend.ShoulderStabilityThreshold,
				"bend.feet_stability_threshold":     c.Bend.FeetStabilityThreshold,
			}),
			atLeastOne("bend.shoulder_stable_frames", c.Bend.ShoulderStableFrames),
			atLeastOne("bend.feet_stable_frames", c.Bend.FeetStableFrames),
		)
	case KindKneeBend:
		if c.KneeBend.Hold < 0 {
			return invalid("knee_bend.hold must not be negative, got %v", c.KneeBend.Hold)
		}
		return positive(map[string]float64{"knee_bend.angle_delta": c.KneeBend.AngleDelta})
	case KindLinear:
		return firstError(
			positive(map[string]float64{
				"linear.threshold":           c.Linear.Threshold,
				"linear.feet_apart":          c.Linear.FeetApart,
				"linear.stability_threshold": c.Linear.StabilityThreshold,
			}),
			atLeastOne("linear.stable_frames", c.Linear.StableFrames),
		)
	case KindPress:
		return firstError(
			positive(map[string]float64{
				"press.half_width":          c.Press.HalfWidth,
				"press.half_depth":          c.Press.HalfDepth,
				"press.stability_threshold": c.Press.StabilityThreshold,
			}),
			atLeastOne("press.stable_frames", c.Press.StableFrames),
		)
	case KindTwoPhase:
		if err := positive(map[string]float64{
			"two_phase.start_threshold": c.TwoPhase.StartThreshold,
			"two_phase.end_threshold":   c.TwoPhase.EndThreshold,
		}); err != nil {
			return err
		}
		if c.TwoPhase.EndThreshold > c.TwoPhase.StartThreshold {
			return invalid("two_phase.end_threshold %v exceeds start_threshold %v",
				c.TwoPhase.EndThreshold, c.TwoPhase.StartThreshold)
		}
	}
	return nil
}

// Has reports whether the detector kind is installed.
func (c Config) Has(k Kind) bool {
	for _, installed := range c.Detectors {
		if installed == k {
			return true
		}
	}
	return false
}

func knownKind(k Kind) bool {
	for _, p := range priority {
		if p == k {
			return true
		}
	}
	return false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}

func positive(values map[string]float64) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if values[k] <= 0 {
			return invalid("%s must be > 0, got %v", k, values[k])
		}
	}
	return nil
}

func atLeastOne(name string, v int) error {
	if v < 1 {
		return invalid("%s must be >= 1, got %d", name, v)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
