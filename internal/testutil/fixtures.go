// Package testutil builds synthetic camera frames and pose sequences for
// pipeline and end-to-end tests.
package testutil

import (
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/padam/internal/pose"
)

// Frame size of the synthetic frames.
const (
	FrameWidth  = 160
	FrameHeight = 120
)

// SolidFrame returns a frame filled with c.
func SolidFrame(c color.RGBA) *gocv.Mat {
	mat := gocv.NewMatWithSize(FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0))
	return &mat
}

// FlickerFrames returns a black and a white frame. Played in a loop they
// keep the activity gate open.
func FlickerFrames() []*gocv.Mat {
	return []*gocv.Mat{
		SolidFrame(color.RGBA{A: 255}),
		SolidFrame(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
	}
}

// CloseFrames releases every frame.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}

// StepRightSamples stands still for settle frames, slides the right foot
// outwards by 0.08 over four frames and holds the new stance for hold
// frames.
func StepRightSamples(settle, hold int) []pose.Sample {
	base := pose.StandingSample()
	base.Landmarks[pose.RightFootIndex].X = 0.50

	samples := make([]pose.Sample, 0, settle+4+hold)
	for range settle {
		samples = append(samples, base)
	}
	for i := 1; i <= 4; i++ {
		samples = append(samples, pose.Shift(base, 0.02*float64(i), 0, 0, pose.RightFootIndex))
	}
	last := samples[len(samples)-1]
	for range hold {
		samples = append(samples, last)
	}
	return samples
}
