package gesture

import (
	"math"

	"github.com/ayusman/padam/internal/pose"
)

// linearDetector recognizes forward and backward steps on the depth axis.
type linearDetector struct {
	motionLock
	cfg LinearConfig

	leftID, rightID CriterionID
}

func newLinearDetector(cfg LinearConfig) *linearDetector {
	return &linearDetector{
		cfg:     cfg,
		leftID:  criterion(KindLinear, pose.LeftFootIndex, pose.AxisZ),
		rightID: criterion(KindLinear, pose.RightFootIndex, pose.AxisZ),
	}
}

func (d *linearDetector) Name() string { return string(KindLinear) }

func (d *linearDetector) Moves() []Move { return []Move{Forward, Backward} }

func (d *linearDetector) RequiredJoints() []pose.Joint {
	return []pose.Joint{pose.LeftFootIndex, pose.RightFootIndex}
}

func (d *linearDetector) UpdateStability(f *Frame, st *StabilityState) {
	required := f.Frames(d.cfg.StableFrames)
	lc := st.Update(d.leftID, f.Disp(pose.LeftFootIndex, pose.AxisZ).Magnitude, d.cfg.StabilityThreshold, required)
	rc := st.Update(d.rightID, f.Disp(pose.RightFootIndex, pose.AxisZ).Magnitude, d.cfg.StabilityThreshold, required)
	if lc.Stable && rc.Stable {
		d.release()
	}
}

// Detect looks for the foot that moved most on Z while the feet stand
// apart in depth. A mover travelling toward the camera is a forward step and
// one travelling away is a backward step, whether it is the front or the
// rear foot.
func (d *linearDetector) Detect(f *Frame, st StabilityReader) Move {
	if d.locked {
		return MoveNone
	}
	if st.Get(d.leftID).Stable && st.Get(d.rightID).Stable {
		return MoveNone
	}

	lz := f.Sample.At(pose.LeftFootIndex).Z
	rz := f.Sample.At(pose.RightFootIndex).Z
	if roundTo(math.Abs(rz-lz), displacementPrecision) < d.cfg.FeetApart {
		return MoveNone
	}

	disp := f.Disp(pose.LeftFootIndex, pose.AxisZ)
	if r := f.Disp(pose.RightFootIndex, pose.AxisZ); r.Magnitude > disp.Magnitude {
		disp = r
	}
	if disp.Magnitude <= f.Threshold(d.cfg.Threshold) {
		return MoveNone
	}

	if disp.Negative {
		return Forward
	}
	return Backward
}
