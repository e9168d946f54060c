package gesture

import (
	"time"

	"github.com/ayusman/padam/internal/pose"
)

// kneeBendDetector recognizes a bend from the knee flexion angle instead of
// shoulder travel. The angle is computed off the processing goroutine and
// read back on a later frame, so the move is confirmed with a short delay.
type kneeBendDetector struct {
	motionLock
	cfg KneeBendConfig
	box mailbox

	bent      bool
	since     time.Duration
	confirmed bool
}

func newKneeBendDetector(cfg KneeBendConfig) *kneeBendDetector {
	return &kneeBendDetector{cfg: cfg}
}

func (d *kneeBendDetector) Name() string { return string(KindKneeBend) }

func (d *kneeBendDetector) Moves() []Move { return []Move{Bend} }

func (d *kneeBendDetector) RequiredJoints() []pose.Joint {
	return []pose.Joint{
		pose.LeftHip, pose.RightHip,
		pose.LeftKnee, pose.RightKnee,
		pose.LeftAnkle, pose.RightAnkle,
	}
}

func (d *kneeBendDetector) UpdateStability(f *Frame, _ *StabilityState) {
	d.confirmed = false
	if !f.Calibration.Established {
		return
	}
	if r := d.box.take(); r != nil {
		d.observe(r, f.Calibration)
	}
	d.box.submit(*f.Sample, kneeFlexion)
}

// observe folds one reading into the bend state. A bend is confirmed by two
// bent readings more than Hold apart; a straight reading clears everything.
func (d *kneeBendDetector) observe(r *angleReading, cal Calibration) {
	if r.angle-cal.KneeAngle <= d.cfg.AngleDelta {
		d.bent = false
		d.release()
		return
	}
	if !d.bent {
		d.bent = true
		d.since = r.at
		return
	}
	if r.at-d.since > d.cfg.Hold {
		d.confirmed = true
		d.bent = false
	}
}

func (d *kneeBendDetector) Detect(*Frame, StabilityReader) Move {
	if d.locked || !d.confirmed {
		return MoveNone
	}
	return Bend
}

func (d *kneeBendDetector) wait() {
	d.box.wait()
}
