package gesture

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/padam/internal/pose"
)

// kneeFlexion returns the mean hip-knee-ankle flexion of both legs in
// radians. A straight leg is 0; the value grows as the knee bends.
func kneeFlexion(s *pose.Sample) float64 {
	left := flexion(s.At(pose.LeftHip), s.At(pose.LeftKnee), s.At(pose.LeftAnkle))
	right := flexion(s.At(pose.RightHip), s.At(pose.RightKnee), s.At(pose.RightAnkle))
	return (left + right) / 2
}

// flexion measures the angle at the knee in the image plane. Depth is left
// out because it is far noisier than X and Y.
func flexion(hip, knee, ankle pose.Landmark) float64 {
	k := planar(knee)
	thigh := r3.Sub(planar(hip), k)
	shin := r3.Sub(planar(ankle), k)

	n := r3.Norm(thigh) * r3.Norm(shin)
	if n == 0 {
		return 0
	}
	cos := math.Max(-1, math.Min(1, r3.Dot(thigh, shin)/n))
	return math.Pi - math.Acos(cos)
}

func planar(l pose.Landmark) r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y}
}
