package gesture

import (
	"math"

	"github.com/ayusman/padam/internal/pose"
)

// displacementPrecision is the number of decimals magnitudes are rounded to
// so that float noise does not flap values around a threshold.
const displacementPrecision = 3

// Displacement is a joint's change on one axis across the history window.
type Displacement struct {
	Magnitude float64 `json:"magnitude"`
	// Negative is true when the newest coordinate is smaller than the oldest.
	// On Y that means the joint moved up; on Z, toward the camera.
	Negative bool `json:"negative"`
}

// DisplacementTable holds the newest-versus-oldest displacement of every
// joint and axis. It is rebuilt from scratch each frame.
type DisplacementTable struct {
	entries [pose.NumLandmarks][pose.NumAxes]Displacement
}

// Recompute refreshes every entry from the history window.
func (t *DisplacementTable) Recompute(h *History) {
	newest, oldest := h.Newest(), h.Oldest()

	for j := 0; j < pose.NumLandmarks; j++ {
		for a := pose.Axis(0); a < pose.NumAxes; a++ {
			n := newest.Landmarks[j].Coord(a)
			o := oldest.Landmarks[j].Coord(a)
			t.entries[j][a] = Displacement{
				Magnitude: roundTo(math.Abs(n-o), displacementPrecision),
				Negative:  n < o,
			}
		}
	}
}

// Get returns the displacement of joint j on axis a.
func (t *DisplacementTable) Get(j pose.Joint, a pose.Axis) Displacement {
	return t.entries[j][a]
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
