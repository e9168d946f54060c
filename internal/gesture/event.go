// Package gesture turns a stream of pose samples into debounced movement events.
//
// An Arbiter owns the rolling history of samples, the displacement table and
// the keyed stability counters. Every processed frame it lets each installed
// Detector refresh its stability state, then asks the detectors in a fixed
// priority order for a move and emits at most one Event.
package gesture

// Move is a symbolic gesture tag.
type Move string

// Moves emitted by the detectors.
const (
	MoveNone      Move = ""
	StepLeft      Move = "step_left"
	StepRight     Move = "step_right"
	Jump          Move = "jump"
	Bend          Move = "bend"
	Forward       Move = "forward"
	Backward      Move = "backward"
	StartLeft     Move = "start_left"
	StartRight    Move = "start_right"
	EndLeft       Move = "end_left"
	EndRight      Move = "end_right"
	PressLeft     Move = "press_left"
	PressRight    Move = "press_right"
	PressForward  Move = "press_forward"
	PressBackward Move = "press_backward"
)

// AllMoves lists every move the engine can emit.
func AllMoves() []Move {
	return []Move{
		StepLeft, StepRight, Jump, Bend, Forward, Backward,
		StartLeft, StartRight, EndLeft, EndRight,
		PressLeft, PressRight, PressForward, PressBackward,
	}
}

// Valid reports whether m is one of the known moves.
func (m Move) Valid() bool {
	for _, known := range AllMoves() {
		if m == known {
			return true
		}
	}
	return false
}

// Event is a single detected move.
type Event struct {
	Move       Move    `json:"move"`
	FrameIndex int     `json:"frame_index"`
	FPS        float64 `json:"fps"`
	Detector   string  `json:"detector"`
}

// Listener receives events synchronously on the processing goroutine.
// Listeners must not call back into the Arbiter.
type Listener func(Event)
