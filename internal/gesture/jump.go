package gesture

import "github.com/ayusman/padam/internal/pose"

// jumpDetector recognizes vertical jumps: both feet rise together while the
// head lifts off and the hips stay centered.
type jumpDetector struct {
	motionLock
	cfg JumpConfig

	left, right     pose.Joint
	leftID, rightID CriterionID

	// liftoff counts consecutive frames with the nose moving up.
	liftoff int
	// vetoed is set when the hips drift sideways and holds until the feet
	// settle, so a sway is never reported as a jump.
	vetoed bool
}

func newJumpDetector(cfg JumpConfig) *jumpDetector {
	left, right := pose.LeftAnkle, pose.RightAnkle
	if cfg.UseHeels {
		left, right = pose.LeftHeel, pose.RightHeel
	}
	return &jumpDetector{
		cfg:     cfg,
		left:    left,
		right:   right,
		leftID:  criterion(KindJump, left, pose.AxisY),
		rightID: criterion(KindJump, right, pose.AxisY),
	}
}

func (d *jumpDetector) Name() string { return string(KindJump) }

func (d *jumpDetector) Moves() []Move { return []Move{Jump} }

func (d *jumpDetector) RequiredJoints() []pose.Joint {
	return []pose.Joint{pose.Nose, pose.LeftHip, pose.RightHip, d.left, d.right}
}

func (d *jumpDetector) UpdateStability(f *Frame, st *StabilityState) {
	required := f.Frames(d.cfg.StableFrames)
	lc := st.Update(d.leftID, f.Disp(d.left, pose.AxisY).Magnitude, d.cfg.StabilityThreshold, required)
	rc := st.Update(d.rightID, f.Disp(d.right, pose.AxisY).Magnitude, d.cfg.StabilityThreshold, required)

	if lc.Stable && rc.Stable {
		d.release()
		d.vetoed = false
	}

	nose := f.Disp(pose.Nose, pose.AxisY)
	if nose.Negative && nose.Magnitude > d.cfg.LiftoffThreshold {
		d.liftoff++
	} else {
		d.liftoff = 0
	}

	if f.Disp(pose.LeftHip, pose.AxisX).Magnitude > d.cfg.HipTolerance ||
		f.Disp(pose.RightHip, pose.AxisX).Magnitude > d.cfg.HipTolerance {
		d.vetoed = true
	}
}

func (d *jumpDetector) Detect(f *Frame, st StabilityReader) Move {
	if d.locked || d.vetoed {
		return MoveNone
	}
	if st.Get(d.leftID).Stable && st.Get(d.rightID).Stable {
		return MoveNone
	}
	if d.liftoff < f.Frames(d.cfg.LiftoffFrames) {
		return MoveNone
	}

	l, r := f.Disp(d.left, pose.AxisY), f.Disp(d.right, pose.AxisY)
	threshold := f.Threshold(d.cfg.Threshold)
	if l.Negative && r.Negative && l.Magnitude > threshold && r.Magnitude > threshold {
		return Jump
	}
	return MoveNone
}
