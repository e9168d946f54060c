package gesture

import "github.com/ayusman/padam/internal/pose"

type phase int

const (
	phaseIdle phase = iota
	phaseActiveLeft
	phaseActiveRight
)

func (p phase) String() string {
	switch p {
	case phaseActiveLeft:
		return "active_left"
	case phaseActiveRight:
		return "active_right"
	}
	return "idle"
}

// twoPhaseDetector turns the vertical offset between the wrists into
// start/end pairs, like pressing and releasing a key. It never locks; the
// state machine itself prevents repeats.
type twoPhaseDetector struct {
	cfg   TwoPhaseConfig
	state phase
}

func newTwoPhaseDetector(cfg TwoPhaseConfig) *twoPhaseDetector {
	return &twoPhaseDetector{cfg: cfg}
}

func (d *twoPhaseDetector) Name() string { return string(KindTwoPhase) }

func (d *twoPhaseDetector) Moves() []Move {
	return []Move{StartLeft, StartRight, EndLeft, EndRight}
}

func (d *twoPhaseDetector) RequiredJoints() []pose.Joint {
	return []pose.Joint{pose.LeftWrist, pose.RightWrist}
}

func (d *twoPhaseDetector) UpdateStability(*Frame, *StabilityState) {}

// Detect compares offset = right wrist Y - left wrist Y against the start
// and end thresholds for the current phase.
func (d *twoPhaseDetector) Detect(f *Frame, _ StabilityReader) Move {
	offset := f.Sample.At(pose.RightWrist).Y - f.Sample.At(pose.LeftWrist).Y

	switch d.state {
	case phaseIdle:
		if offset > d.cfg.StartThreshold {
			return StartRight
		}
		if -offset > d.cfg.StartThreshold {
			return StartLeft
		}
	case phaseActiveRight:
		if offset < d.cfg.EndThreshold {
			return EndRight
		}
	case phaseActiveLeft:
		if -offset < d.cfg.EndThreshold {
			return EndLeft
		}
	}
	return MoveNone
}

func (d *twoPhaseDetector) InMotion() bool { return false }

func (d *twoPhaseDetector) Engage(m Move) {
	switch m {
	case StartRight:
		d.state = phaseActiveRight
	case StartLeft:
		d.state = phaseActiveLeft
	case EndLeft, EndRight:
		d.state = phaseIdle
	}
}
