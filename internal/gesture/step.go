package gesture

import "github.com/ayusman/padam/internal/pose"

// stepDetector recognizes lateral steps from the foot index X displacement.
type stepDetector struct {
	motionLock
	cfg StepConfig

	leftID, rightID CriterionID
	criterion       Foot
}

func newStepDetector(cfg StepConfig) *stepDetector {
	return &stepDetector{
		cfg:     cfg,
		leftID:  criterion(KindStep, pose.LeftFootIndex, pose.AxisX),
		rightID: criterion(KindStep, pose.RightFootIndex, pose.AxisX),
	}
}

func (d *stepDetector) Name() string { return string(KindStep) }

func (d *stepDetector) Moves() []Move { return []Move{StepLeft, StepRight} }

func (d *stepDetector) RequiredJoints() []pose.Joint {
	return []pose.Joint{pose.LeftFootIndex, pose.RightFootIndex}
}

func (d *stepDetector) UpdateStability(f *Frame, st *StabilityState) {
	l := f.Disp(pose.LeftFootIndex, pose.AxisX)
	r := f.Disp(pose.RightFootIndex, pose.AxisX)
	required := f.Frames(d.cfg.StableFrames)

	lc := st.Update(d.leftID, l.Magnitude, d.cfg.StabilityThreshold, required)
	rc := st.Update(d.rightID, r.Magnitude, d.cfg.StabilityThreshold, required)

	d.criterion = d.pick(l, r, lc, rc)
	if d.criterionCounter(lc, rc).Stable {
		d.release()
	}
}

// pick chooses the foot that drives detection. A foot that moved farther in
// its own outward direction wins; otherwise the tie-break policy decides.
func (d *stepDetector) pick(l, r Displacement, lc, rc Counter) Foot {
	switch {
	case !r.Negative && r.Magnitude > l.Magnitude:
		return RightFoot
	case l.Negative && l.Magnitude > r.Magnitude:
		return LeftFoot
	}

	if d.cfg.TieBreak == TieBreakMoreStable {
		if rc.Count > lc.Count {
			return RightFoot
		}
		return LeftFoot
	}
	if rc.Count < lc.Count {
		return RightFoot
	}
	return LeftFoot
}

func (d *stepDetector) criterionCounter(lc, rc Counter) Counter {
	if d.criterion == RightFoot {
		return rc
	}
	return lc
}

func (d *stepDetector) Detect(f *Frame, st StabilityReader) Move {
	if d.locked {
		return MoveNone
	}

	lc, rc := st.Get(d.leftID), st.Get(d.rightID)
	if d.criterionCounter(lc, rc).Stable {
		return MoveNone
	}

	l := f.Disp(pose.LeftFootIndex, pose.AxisX)
	r := f.Disp(pose.RightFootIndex, pose.AxisX)
	threshold := f.Threshold(d.cfg.Threshold)

	if !r.Negative && r.Magnitude > threshold && (d.criterion == RightFoot || lc.Count == 0) {
		return StepRight
	}
	if l.Negative && l.Magnitude > threshold && (d.criterion == LeftFoot || rc.Count == 0) {
		return StepLeft
	}
	return MoveNone
}
