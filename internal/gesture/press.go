package gesture

import "github.com/ayusman/padam/internal/pose"

// pressDetector recognizes a foot settling into one of the four outer zones
// around its rest position. It needs the zone map built at calibration.
type pressDetector struct {
	motionLock
	cfg PressConfig

	// ids[foot][0] tracks X, ids[foot][1] tracks Z.
	ids [2][2]CriterionID

	candidate     Move
	candidateFoot Foot
	pressed       Foot
}

func newPressDetector(cfg PressConfig) *pressDetector {
	d := &pressDetector{cfg: cfg}
	for _, f := range []Foot{LeftFoot, RightFoot} {
		d.ids[f][0] = criterion(KindPress, f.joint(), pose.AxisX)
		d.ids[f][1] = criterion(KindPress, f.joint(), pose.AxisZ)
	}
	return d
}

func (d *pressDetector) Name() string { return string(KindPress) }

func (d *pressDetector) Moves() []Move {
	return []Move{PressLeft, PressRight, PressForward, PressBackward}
}

func (d *pressDetector) RequiredJoints() []pose.Joint {
	return []pose.Joint{pose.LeftFootIndex, pose.RightFootIndex}
}

func (d *pressDetector) UpdateStability(f *Frame, st *StabilityState) {
	required := f.Frames(d.cfg.StableFrames)

	var counters [2][2]Counter
	for _, foot := range []Foot{LeftFoot, RightFoot} {
		j := foot.joint()
		counters[foot][0] = st.Update(d.ids[foot][0], f.Disp(j, pose.AxisX).Magnitude, d.cfg.StabilityThreshold, required)
		counters[foot][1] = st.Update(d.ids[foot][1], f.Disp(j, pose.AxisZ).Magnitude, d.cfg.StabilityThreshold, required)
	}

	if d.locked && counters[d.pressed][0].Stable && counters[d.pressed][1].Stable {
		d.release()
	}

	d.candidate = MoveNone
	if f.Zones == nil {
		return
	}
	for _, foot := range []Foot{LeftFoot, RightFoot} {
		lm := f.Sample.At(foot.joint())
		zone := f.Zones.Locate(foot, lm.X, lm.Z)
		if zone == ZoneCenter {
			continue
		}
		if counters[foot][axisSlot(zone.Axis())].Count == 1 {
			d.candidate, d.candidateFoot = zone.Move(), foot
			return
		}
	}
}

func axisSlot(a pose.Axis) int {
	if a == pose.AxisZ {
		return 1
	}
	return 0
}

// Detect fires on the first frame a foot comes to rest in an outer zone.
func (d *pressDetector) Detect(f *Frame, _ StabilityReader) Move {
	if d.locked || f.Zones == nil {
		return MoveNone
	}
	return d.candidate
}

func (d *pressDetector) Engage(m Move) {
	d.locked = true
	d.pressed = d.candidateFoot
}
