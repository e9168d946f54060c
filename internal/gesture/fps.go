package gesture

import (
	"math"
	"time"
)

// baselineFPS is the rate at which configured frame counts are expressed.
const baselineFPS = 30.0

// scaleFrames converts a frame count defined at 30 fps to the given rate,
// never returning less than floor.
func scaleFrames(frames int, fps float64, floor int) int {
	n := int(math.Round(float64(frames) * fps / baselineFPS))
	return max(floor, n)
}

// FPSEstimator keeps an exponentially smoothed frame rate from sample
// timestamps. The first measured interval seeds the average so a steady
// stream is reported exactly from its second frame.
type FPSEstimator struct {
	cfg    FPSConfig
	value  float64
	last   time.Duration
	primed bool
	seeded bool
}

// NewFPSEstimator creates an estimator reporting cfg.Initial until two
// timestamps have been observed.
func NewFPSEstimator(cfg FPSConfig) *FPSEstimator {
	return &FPSEstimator{cfg: cfg, value: cfg.Initial}
}

// Observe records a frame timestamp and returns the updated estimate.
// Timestamps that do not advance leave the estimate unchanged.
func (e *FPSEstimator) Observe(ts time.Duration) float64 {
	if !e.primed {
		e.primed = true
		e.last = ts
		return e.value
	}

	dt := ts - e.last
	if dt <= 0 {
		return e.value
	}
	e.last = ts

	instant := float64(time.Second) / float64(dt)
	if !e.seeded {
		e.value = instant
		e.seeded = true
	} else {
		e.value = e.cfg.Smoothing*instant + (1-e.cfg.Smoothing)*e.value
	}
	e.value = math.Min(math.Max(e.value, e.cfg.Min), e.cfg.Max)

	return e.value
}

// Value returns the current estimate.
func (e *FPSEstimator) Value() float64 {
	return e.value
}
