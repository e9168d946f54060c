package gesture

import "github.com/ayusman/padam/internal/pose"

// Frame is the read-only view of one processed frame handed to detectors.
type Frame struct {
	Index       int
	FPS         float64
	Sample      *pose.Sample
	History     *History
	Calibration Calibration
	Zones       *ZoneMap

	table         *DisplacementTable
	minFrames     int
	scale         bool
	nominalHeight float64
}

// Disp returns the window displacement of joint j on axis a.
func (f *Frame) Disp(j pose.Joint, a pose.Axis) Displacement {
	return f.table.Get(j, a)
}

// Frames rescales a 30 fps frame count to the current frame rate.
func (f *Frame) Frames(per30 int) int {
	return scaleFrames(per30, f.FPS, f.minFrames)
}

// Threshold returns base scaled by the subject's calibrated height when
// threshold scaling is enabled, and base unchanged otherwise.
func (f *Frame) Threshold(base float64) float64 {
	if !f.scale || !f.Calibration.Established {
		return base
	}
	return base * f.Calibration.Height / f.nominalHeight
}
