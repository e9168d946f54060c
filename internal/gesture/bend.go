package gesture

import "github.com/ayusman/padam/internal/pose"

// bendDetector recognizes a torso bend: both shoulders drop while the feet
// stay planted.
type bendDetector struct {
	motionLock
	cfg BendConfig

	leftShoulder, rightShoulder CriterionID
	feet                        []CriterionID
}

var bendFeet = []pose.Joint{pose.LeftFootIndex, pose.RightFootIndex}

func newBendDetector(cfg BendConfig) *bendDetector {
	d := &bendDetector{
		cfg:           cfg,
		leftShoulder:  criterion(KindBend, pose.LeftShoulder, pose.AxisY),
		rightShoulder: criterion(KindBend, pose.RightShoulder, pose.AxisY),
	}
	for _, j := range bendFeet {
		d.feet = append(d.feet, criterion(KindBend, j, pose.AxisX), criterion(KindBend, j, pose.AxisY))
	}
	return d
}

func (d *bendDetector) Name() string { return string(KindBend) }

func (d *bendDetector) Moves() []Move { return []Move{Bend} }

func (d *bendDetector) RequiredJoints() []pose.Joint {
	return []pose.Joint{pose.LeftShoulder, pose.RightShoulder, pose.LeftFootIndex, pose.RightFootIndex}
}

func (d *bendDetector) UpdateStability(f *Frame, st *StabilityState) {
	shoulderFrames := f.Frames(d.cfg.ShoulderStableFrames)
	ls := st.Update(d.leftShoulder, f.Disp(pose.LeftShoulder, pose.AxisY).Magnitude,
		d.cfg.ShoulderStabilityThreshold, shoulderFrames)
	rs := st.Update(d.rightShoulder, f.Disp(pose.RightShoulder, pose.AxisY).Magnitude,
		d.cfg.ShoulderStabilityThreshold, shoulderFrames)

	feetFrames := f.Frames(d.cfg.FeetStableFrames)
	for i, j := range bendFeet {
		st.Update(d.feet[2*i], f.Disp(j, pose.AxisX).Magnitude, d.cfg.FeetStabilityThreshold, feetFrames)
		st.Update(d.feet[2*i+1], f.Disp(j, pose.AxisY).Magnitude, d.cfg.FeetStabilityThreshold, feetFrames)
	}

	if ls.Stable && rs.Stable {
		d.release()
	}
}

func (d *bendDetector) Detect(f *Frame, st StabilityReader) Move {
	if d.locked {
		return MoveNone
	}
	if st.Get(d.leftShoulder).Stable && st.Get(d.rightShoulder).Stable {
		return MoveNone
	}
	for _, id := range d.feet {
		if !st.Get(id).Stable {
			return MoveNone
		}
	}

	l, r := f.Disp(pose.LeftShoulder, pose.AxisY), f.Disp(pose.RightShoulder, pose.AxisY)
	threshold := f.Threshold(d.cfg.Threshold)
	if !l.Negative && !r.Negative && l.Magnitude > threshold && r.Magnitude > threshold {
		return Bend
	}
	return MoveNone
}
