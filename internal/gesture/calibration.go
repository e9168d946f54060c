package gesture

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/padam/internal/pose"
)

// Calibration is the standing reference captured once per session.
type Calibration struct {
	Established bool    `json:"established"`
	Height      float64 `json:"height"`     // foot midpoint Y minus nose Y
	CenterX     float64 `json:"center_x"`   // hip midpoint X
	KneeAngle   float64 `json:"knee_angle"` // mean knee flexion at rest, radians
	LeftAnchor  Anchor  `json:"left_anchor"`
	RightAnchor Anchor  `json:"right_anchor"`
	FrameIndex  int     `json:"frame_index"`
}

var calibrationJoints = []pose.Joint{
	pose.Nose,
	pose.LeftShoulder, pose.RightShoulder,
	pose.LeftHip, pose.RightHip,
	pose.LeftKnee, pose.RightKnee,
	pose.LeftAnkle, pose.RightAnkle,
	pose.LeftFootIndex, pose.RightFootIndex,
}

type calibrator struct {
	cfg CalibrationConfig
	cal Calibration
}

// maybeEstablish tries to capture the reference from the current window.
// It returns true only on the frame the reference is set. Once established
// the reference is never replaced.
//
// Algorithm:
//  1. Wait until cfg.Frames frames have been processed.
//  2. Require every calibration joint to be visible in the newest sample.
//  3. Require the body to be upright: nose, shoulder, hip, knee and foot
//     midpoints in top-to-bottom order with little horizontal spread.
//  4. Require the nose to have stayed still across the whole window.
//  5. Require a plausible height.
func (c *calibrator) maybeEstablish(h *History, processed, frameIndex int, visibility float64) bool {
	if c.cal.Established || processed < c.cfg.Frames {
		return false
	}

	s := h.Newest()
	if !s.Visible(calibrationJoints, visibility) {
		return false
	}

	nose := s.At(pose.Nose)
	shoulders := s.Midpoint(pose.LeftShoulder, pose.RightShoulder)
	hips := s.Midpoint(pose.LeftHip, pose.RightHip)
	knees := s.Midpoint(pose.LeftKnee, pose.RightKnee)
	feet := s.Midpoint(pose.LeftFootIndex, pose.RightFootIndex)

	ys := []float64{nose.Y, shoulders.Y, hips.Y, knees.Y, feet.Y}
	for i := 1; i < len(ys); i++ {
		if ys[i] <= ys[i-1] {
			return false
		}
	}

	xs := []float64{nose.X, shoulders.X, hips.X, knees.X, feet.X}
	if floats.Max(xs)-floats.Min(xs) >= c.cfg.XSpread {
		return false
	}

	old := h.Oldest().At(pose.Nose)
	if floats.Distance([]float64{nose.X, nose.Y}, []float64{old.X, old.Y}, 2) >= c.cfg.Stillness {
		return false
	}

	height := feet.Y - nose.Y
	if height <= c.cfg.MinHeight {
		return false
	}

	lf, rf := s.At(pose.LeftFootIndex), s.At(pose.RightFootIndex)
	c.cal = Calibration{
		Established: true,
		Height:      height,
		CenterX:     hips.X,
		KneeAngle:   kneeFlexion(s),
		LeftAnchor:  Anchor{X: lf.X, Z: lf.Z},
		RightAnchor: Anchor{X: rf.X, Z: rf.Z},
		FrameIndex:  frameIndex,
	}
	return true
}
