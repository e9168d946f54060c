package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/padam/internal/gesture"
)

// ErrInvalidTuning is wrapped by every tuning load or validation error.
var ErrInvalidTuning = errors.New("invalid tuning")

const maxTuningSize = 1 * 1024 * 1024 // 1MB

// Tuning is a partial override of a gesture preset. Every field is a pointer
// so that keys left out of the JSON keep the preset's value. Frame counts are
// expressed at 30 fps.
type Tuning struct {
	Preset              *string         `json:"preset,omitempty"`
	Detectors           *[]gesture.Kind `json:"detectors,omitempty"`
	AllowMultiple       *bool           `json:"allow_multiple,omitempty"`
	VisibilityThreshold *float64        `json:"visibility_threshold,omitempty"`

	HistoryFrames *int     `json:"history_frames,omitempty"`
	FPSSmoothing  *float64 `json:"fps_smoothing,omitempty"`

	ScaleThresholds *bool `json:"scale_thresholds,omitempty"`

	StepThreshold *float64 `json:"step_threshold,omitempty"`
	StepTieBreak  *string  `json:"step_tie_break,omitempty"`

	JumpThreshold *float64 `json:"jump_threshold,omitempty"`
	JumpUseHeels  *bool    `json:"jump_use_heels,omitempty"`

	BendThreshold *float64 `json:"bend_threshold,omitempty"`

	KneeAngleDelta *float64 `json:"knee_angle_delta,omitempty"`
	KneeHold       *string  `json:"knee_hold,omitempty"` // duration string like "1s"

	LinearThreshold *float64 `json:"linear_threshold,omitempty"`
	LinearFeetApart *float64 `json:"linear_feet_apart,omitempty"`

	PressHalfWidth *float64 `json:"press_half_width,omitempty"`
	PressHalfDepth *float64 `json:"press_half_depth,omitempty"`

	TwoPhaseStart *float64 `json:"two_phase_start,omitempty"`
	TwoPhaseEnd   *float64 `json:"two_phase_end,omitempty"`
}

// LoadTuning loads a Tuning from a JSON file. The file must have a .json
// extension and be at most 1MB.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("%w: file must have .json extension, got %q", ErrInvalidTuning, ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat tuning file: %w", err)
	}
	if fileInfo.Size() > maxTuningSize {
		return nil, fmt.Errorf("%w: file too large: %d bytes (max %d)", ErrInvalidTuning, fileInfo.Size(), maxTuningSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}
	return ParseTuning(data)
}

// ParseTuning decodes and validates tuning JSON.
func ParseTuning(data []byte) (*Tuning, error) {
	t := &Tuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("%w: parse JSON: %v", ErrInvalidTuning, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the fields that can be checked without a base preset.
func (t *Tuning) Validate() error {
	if t.Preset != nil {
		if _, err := gesture.Preset(*t.Preset); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTuning, err)
		}
	}
	if t.KneeHold != nil && *t.KneeHold != "" {
		if _, err := time.ParseDuration(*t.KneeHold); err != nil {
			return fmt.Errorf("%w: invalid knee_hold '%s': %v", ErrInvalidTuning, *t.KneeHold, err)
		}
	}
	if t.VisibilityThreshold != nil {
		if *t.VisibilityThreshold < 0 || *t.VisibilityThreshold > 1 {
			return fmt.Errorf("%w: visibility_threshold must be between 0 and 1, got %f", ErrInvalidTuning, *t.VisibilityThreshold)
		}
	}
	return nil
}

// Config resolves the tuning into a full engine configuration: the named
// preset (or fallback when none is set) with every override applied.
func (t *Tuning) Config(fallback string) (gesture.Config, error) {
	name := fallback
	if t.Preset != nil {
		name = *t.Preset
	}
	cfg, err := gesture.Preset(name)
	if err != nil {
		return gesture.Config{}, fmt.Errorf("%w: %v", ErrInvalidTuning, err)
	}
	t.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return gesture.Config{}, fmt.Errorf("%w: %w", ErrInvalidTuning, err)
	}
	return cfg, nil
}

// Apply copies every set field onto cfg. It does not validate the result.
func (t *Tuning) Apply(cfg *gesture.Config) {
	if t.Detectors != nil {
		cfg.Detectors = append([]gesture.Kind(nil), (*t.Detectors)...)
	}
	setBool(&cfg.AllowMultiple, t.AllowMultiple)
	setFloat(&cfg.VisibilityThreshold, t.VisibilityThreshold)
	setInt(&cfg.History.BaseFrames, t.HistoryFrames)
	setFloat(&cfg.FPS.Smoothing, t.FPSSmoothing)
	setBool(&cfg.Calibration.ScaleThresholds, t.ScaleThresholds)

	setFloat(&cfg.Step.Threshold, t.StepThreshold)
	if t.StepTieBreak != nil {
		cfg.Step.TieBreak = gesture.TieBreak(*t.StepTieBreak)
	}
	setFloat(&cfg.Jump.Threshold, t.JumpThreshold)
	setBool(&cfg.Jump.UseHeels, t.JumpUseHeels)
	setFloat(&cfg.Bend.Threshold, t.BendThreshold)

	setFloat(&cfg.KneeBend.AngleDelta, t.KneeAngleDelta)
	if t.KneeHold != nil && *t.KneeHold != "" {
		if d, err := time.ParseDuration(*t.KneeHold); err == nil {
			cfg.KneeBend.Hold = d
		}
	}

	setFloat(&cfg.Linear.Threshold, t.LinearThreshold)
	setFloat(&cfg.Linear.FeetApart, t.LinearFeetApart)
	setFloat(&cfg.Press.HalfWidth, t.PressHalfWidth)
	setFloat(&cfg.Press.HalfDepth, t.PressHalfDepth)
	setFloat(&cfg.TwoPhase.StartThreshold, t.TwoPhaseStart)
	setFloat(&cfg.TwoPhase.EndThreshold, t.TwoPhaseEnd)
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
