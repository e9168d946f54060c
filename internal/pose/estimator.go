package pose

import "gocv.io/x/gocv"

// Estimator turns a video frame into a full-body pose sample.
type Estimator interface {
	// Estimate analyzes a frame and returns the pose of the most prominent
	// person, or nil when nobody is in view.
	Estimate(frame *gocv.Mat) (*Sample, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Config holds configuration options for pose estimation.
type Config struct {
	// ModelComplexity selects the landmark model (0 lite, 1 full, 2 heavy).
	ModelComplexity int

	// MinDetectionConf is the minimum person detection confidence (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum landmark tracking confidence (0.0-1.0).
	MinTrackingConf float64

	// Script overrides the location of pose_service.py.
	Script string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity:  1,
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
	}
}
