package pose

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// It plays back a queue of samples, one per Estimate call.
type MockEstimator struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	loop    bool
	err     error
}

// NewMockEstimator creates a new MockEstimator instance.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetSamples replaces the playback queue.
func (m *MockEstimator) SetSamples(samples []Sample, loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = samples
	m.next = 0
	m.loop = loop
}

// SetError sets the error that will be returned by Estimate.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Estimate returns the next queued sample, or nil once the queue is drained.
func (m *MockEstimator) Estimate(frame *gocv.Mat) (*Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.next >= len(m.samples) {
		if !m.loop || len(m.samples) == 0 {
			return nil, nil
		}
		m.next = 0
	}

	s := m.samples[m.next]
	m.next++
	return &s, nil
}

// Close is a no-op for the mock estimator.
func (m *MockEstimator) Close() error {
	return nil
}

// StandingSample returns a front-facing, upright, fully visible pose with the
// feet about a hip-width apart. Left joints sit at smaller X.
func StandingSample() Sample {
	var s Sample

	set := func(j Joint, x, y float64) {
		s.Landmarks[j] = Landmark{X: x, Y: y, Z: 0, Visibility: 0.99}
	}

	set(Nose, 0.50, 0.20)
	set(LeftEyeInner, 0.49, 0.19)
	set(LeftEye, 0.48, 0.19)
	set(LeftEyeOuter, 0.47, 0.19)
	set(RightEyeInner, 0.51, 0.19)
	set(RightEye, 0.52, 0.19)
	set(RightEyeOuter, 0.53, 0.19)
	set(LeftEar, 0.46, 0.20)
	set(RightEar, 0.54, 0.20)
	set(MouthLeft, 0.49, 0.22)
	set(MouthRight, 0.51, 0.22)

	set(LeftShoulder, 0.42, 0.32)
	set(RightShoulder, 0.58, 0.32)
	set(LeftElbow, 0.38, 0.44)
	set(RightElbow, 0.62, 0.44)
	set(LeftWrist, 0.36, 0.55)
	set(RightWrist, 0.64, 0.55)
	set(LeftPinky, 0.35, 0.57)
	set(RightPinky, 0.65, 0.57)
	set(LeftIndex, 0.36, 0.58)
	set(RightIndex, 0.64, 0.58)
	set(LeftThumb, 0.37, 0.57)
	set(RightThumb, 0.63, 0.57)

	set(LeftHip, 0.45, 0.55)
	set(RightHip, 0.55, 0.55)
	set(LeftKnee, 0.45, 0.72)
	set(RightKnee, 0.55, 0.72)
	set(LeftAnkle, 0.45, 0.88)
	set(RightAnkle, 0.55, 0.88)
	set(LeftHeel, 0.45, 0.90)
	set(RightHeel, 0.55, 0.90)
	set(LeftFootIndex, 0.45, 0.92)
	set(RightFootIndex, 0.55, 0.92)

	return s
}

// Shift returns a copy of s with the listed joints moved by (dx, dy, dz).
func Shift(s Sample, dx, dy, dz float64, joints ...Joint) Sample {
	for _, j := range joints {
		s.Landmarks[j].X += dx
		s.Landmarks[j].Y += dy
		s.Landmarks[j].Z += dz
	}
	return s
}

// AllJoints returns every joint index in order.
func AllJoints() []Joint {
	joints := make([]Joint, NumLandmarks)
	for i := range joints {
		joints[i] = Joint(i)
	}
	return joints
}
