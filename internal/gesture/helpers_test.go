package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/padam/internal/pose"
)

// steps returns how many increments of a ramp that starts at frame from and
// lasts count frames have been applied by frame i.
func steps(i, from, count int) int {
	return max(0, min(i-from+1, count))
}

// timed stamps samples with indexes and timestamps at the given rate.
func timed(samples []pose.Sample, fps int) []pose.Sample {
	out := make([]pose.Sample, len(samples))
	for i, s := range samples {
		s.Index = i
		s.Timestamp = time.Duration(i) * time.Second / time.Duration(fps)
		out[i] = s
	}
	return out
}

// doubled repeats every sample so a 30 fps sequence plays at 60 fps.
func doubled(samples []pose.Sample) []pose.Sample {
	out := make([]pose.Sample, 0, 2*len(samples))
	for _, s := range samples {
		out = append(out, s, s)
	}
	return out
}

func newTestArbiter(t *testing.T, cfg Config, opts ...Option) *Arbiter {
	t.Helper()
	a, err := NewArbiter(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func feed(a *Arbiter, samples []pose.Sample) []Event {
	var events []Event
	for _, s := range samples {
		if ev, ok := a.Process(s); ok {
			events = append(events, ev)
		}
	}
	return events
}

func moves(events []Event) []Move {
	out := make([]Move, len(events))
	for i, ev := range events {
		out[i] = ev.Move
	}
	return out
}

func frameIndexes(events []Event) []int {
	out := make([]int, len(events))
	for i, ev := range events {
		out[i] = ev.FrameIndex
	}
	return out
}

func configWith(kinds ...Kind) Config {
	cfg := DefaultConfig()
	cfg.Detectors = kinds
	return cfg
}

// stepScenario moves the right foot from x=0.50 to x=0.58 over frames 5-8.
func stepScenario(n int) []pose.Sample {
	base := pose.StandingSample()
	base.Landmarks[pose.RightFootIndex].X = 0.50

	samples := make([]pose.Sample, n)
	for i := range samples {
		samples[i] = pose.Shift(base, 0.02*float64(steps(i, 5, 4)), 0, 0, pose.RightFootIndex)
	}
	return timed(samples, 30)
}

// bendScenario lowers the head and shoulders by 0.12 over frames 5-8.
func bendScenario(n int) []pose.Sample {
	upper := []pose.Joint{
		pose.Nose, pose.LeftEyeInner, pose.LeftEye, pose.LeftEyeOuter,
		pose.RightEyeInner, pose.RightEye, pose.RightEyeOuter,
		pose.LeftEar, pose.RightEar, pose.MouthLeft, pose.MouthRight,
		pose.LeftShoulder, pose.RightShoulder,
	}
	base := pose.StandingSample()
	samples := make([]pose.Sample, n)
	for i := range samples {
		samples[i] = pose.Shift(base, 0, 0.03*float64(steps(i, 5, 4)), 0, upper...)
	}
	return timed(samples, 30)
}

// linearScenario places the left foot at Z=leftZ and moves foot by dz per
// frame over frames 5-7.
func linearScenario(n int, leftZ float64, foot pose.Joint, dz float64) []pose.Sample {
	base := pose.StandingSample()
	base.Landmarks[pose.LeftFootIndex].Z = leftZ

	samples := make([]pose.Sample, n)
	for i := range samples {
		samples[i] = pose.Shift(base, 0, 0, dz*float64(steps(i, 5, 3)), foot)
	}
	return timed(samples, 30)
}

// jumpScenario lifts the whole body so the ankles go from y=0.80 to y=0.75
// over frames 5-7. hipDrift is added to the hips' X on each of those frames.
func jumpScenario(n int, hipDrift float64) []pose.Sample {
	base := pose.StandingSample()
	base.Landmarks[pose.LeftAnkle].Y = 0.80
	base.Landmarks[pose.RightAnkle].Y = 0.80

	samples := make([]pose.Sample, n)
	for i := range samples {
		k := float64(steps(i, 5, 3))
		s := pose.Shift(base, 0, -0.05/3*k, 0, pose.AllJoints()...)
		samples[i] = pose.Shift(s, hipDrift*k, 0, 0, pose.LeftHip, pose.RightHip)
	}
	return timed(samples, 30)
}

// wristScenario sets right wrist Y minus left wrist Y to each offset in turn.
func wristScenario(offsets ...float64) []pose.Sample {
	base := pose.StandingSample()
	samples := make([]pose.Sample, len(offsets))
	for i, off := range offsets {
		s := base
		s.Landmarks[pose.RightWrist].Y = s.Landmarks[pose.LeftWrist].Y + off
		samples[i] = s
	}
	return timed(samples, 30)
}
