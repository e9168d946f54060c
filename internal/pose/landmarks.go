// Package pose provides full-body keypoint types and pose estimator backends.
package pose

import "time"

// Joint is a body landmark index following the MediaPipe pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
type Joint int

const (
	Nose           Joint = 0
	LeftEyeInner   Joint = 1
	LeftEye        Joint = 2
	LeftEyeOuter   Joint = 3
	RightEyeInner  Joint = 4
	RightEye       Joint = 5
	RightEyeOuter  Joint = 6
	LeftEar        Joint = 7
	RightEar       Joint = 8
	MouthLeft      Joint = 9
	MouthRight     Joint = 10
	LeftShoulder   Joint = 11
	RightShoulder  Joint = 12
	LeftElbow      Joint = 13
	RightElbow     Joint = 14
	LeftWrist      Joint = 15
	RightWrist     Joint = 16
	LeftPinky      Joint = 17
	RightPinky     Joint = 18
	LeftIndex      Joint = 19
	RightIndex     Joint = 20
	LeftThumb      Joint = 21
	RightThumb     Joint = 22
	LeftHip        Joint = 23
	RightHip       Joint = 24
	LeftKnee       Joint = 25
	RightKnee      Joint = 26
	LeftAnkle      Joint = 27
	RightAnkle     Joint = 28
	LeftHeel       Joint = 29
	RightHeel      Joint = 30
	LeftFootIndex  Joint = 31
	RightFootIndex Joint = 32
	NumLandmarks         = 33
)

var jointNames = [NumLandmarks]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer", "left_ear", "right_ear",
	"mouth_left", "mouth_right", "left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow", "left_wrist", "right_wrist",
	"left_pinky", "right_pinky", "left_index", "right_index",
	"left_thumb", "right_thumb", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
	"left_heel", "right_heel", "left_foot_index", "right_foot_index",
}

func (j Joint) String() string {
	if j < 0 || int(j) >= NumLandmarks {
		return "unknown"
	}
	return jointNames[j]
}

// Axis selects one coordinate of a landmark.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	NumAxes = 3
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "unknown"
}

// Landmark is one keypoint in normalized image coordinates.
// X and Y are in [0,1] relative to frame width and height (Y grows downward);
// Z is depth relative to the hips, smaller values are closer to the camera.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Coord returns the landmark coordinate on the given axis.
func (l Landmark) Coord(a Axis) float64 {
	switch a {
	case AxisX:
		return l.X
	case AxisY:
		return l.Y
	default:
		return l.Z
	}
}

// Sample is the pose estimate for a single video frame.
type Sample struct {
	Index     int                    `json:"index"`
	Timestamp time.Duration          `json:"timestamp"`
	Landmarks [NumLandmarks]Landmark `json:"landmarks"`
}

// At returns the landmark for a joint.
func (s *Sample) At(j Joint) Landmark {
	return s.Landmarks[j]
}

// Midpoint returns the average position of two joints. Visibility is the
// lower of the two.
func (s *Sample) Midpoint(a, b Joint) Landmark {
	la, lb := s.Landmarks[a], s.Landmarks[b]
	return Landmark{
		X:          (la.X + lb.X) / 2,
		Y:          (la.Y + lb.Y) / 2,
		Z:          (la.Z + lb.Z) / 2,
		Visibility: min(la.Visibility, lb.Visibility),
	}
}

// Visible reports whether every listed joint has visibility of at least threshold.
func (s *Sample) Visible(joints []Joint, threshold float64) bool {
	for _, j := range joints {
		if s.Landmarks[j].Visibility < threshold {
			return false
		}
	}
	return true
}

// Invisible returns the joints whose visibility is below threshold.
func (s *Sample) Invisible(joints []Joint, threshold float64) []Joint {
	var missing []Joint
	for _, j := range joints {
		if s.Landmarks[j].Visibility < threshold {
			missing = append(missing, j)
		}
	}
	return missing
}
