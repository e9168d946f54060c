package gesture

import (
	"fmt"

	"github.com/ayusman/padam/internal/pose"
)

// Detector recognizes one family of moves from the displacement table and
// its own stability counters.
//
// The Arbiter calls UpdateStability on every installed detector each frame,
// then Detect on each in priority order until one returns a move, and then
// Engage on that detector only.
type Detector interface {
	// Name returns the detector kind.
	Name() string
	// Moves lists the tags the detector can return.
	Moves() []Move
	// RequiredJoints lists the joints that must be visible for a frame to be
	// processed while the detector is installed.
	RequiredJoints() []pose.Joint
	// UpdateStability advances the detector's counters and private state and
	// releases its motion lock once its release criterion holds.
	UpdateStability(f *Frame, st *StabilityState)
	// Detect returns the move seen in this frame or MoveNone. It must not
	// change any state.
	Detect(f *Frame, st StabilityReader) Move
	// InMotion reports whether the detector is locked on a previous move.
	InMotion() bool
	// Engage is called after Detect returned m and the move was emitted.
	Engage(m Move)
}

// motionLock is the in-motion flag shared by the lock-based detectors.
type motionLock struct {
	locked bool
}

func (l *motionLock) InMotion() bool { return l.locked }

func (l *motionLock) Engage(Move) { l.locked = true }

func (l *motionLock) release() { l.locked = false }

// waiter is implemented by detectors that run background work.
type waiter interface {
	wait()
}

// newDetector builds the detector for kind k from cfg.
func newDetector(k Kind, cfg Config) (Detector, error) {
	switch k {
	case KindStep:
		return newStepDetector(cfg.Step), nil
	case KindJump:
		return newJumpDetector(cfg.Jump), nil
	case KindBend:
		return newBendDetector(cfg.Bend), nil
	case KindKneeBend:
		return newKneeBendDetector(cfg.KneeBend), nil
	case KindLinear:
		return newLinearDetector(cfg.Linear), nil
	case KindPress:
		return newPressDetector(cfg.Press), nil
	case KindTwoPhase:
		return newTwoPhaseDetector(cfg.TwoPhase), nil
	}
	return nil, fmt.Errorf("%w: unknown detector %q", ErrInvalidConfig, k)
}

// installDetectors returns the configured detectors in priority order.
func installDetectors(cfg Config) ([]Detector, error) {
	var detectors []Detector
	for _, k := range priority {
		if !cfg.Has(k) {
			continue
		}
		d, err := newDetector(k, cfg)
		if err != nil {
			return nil, err
		}
		detectors = append(detectors, d)
	}
	return detectors, nil
}
