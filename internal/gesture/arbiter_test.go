package gesture

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ayusman/padam/internal/pose"
)

// approxFPS absorbs the rounding of integer-nanosecond timestamps in the
// FPS estimate.
var approxFPS = cmpopts.EquateApprox(0, 1e-6)

func TestArbiter_StepRight(t *testing.T) {
	a := newTestArbiter(t, DefaultConfig())

	events := feed(a, stepScenario(20))

	want := []Event{{Move: StepRight, FrameIndex: 7, FPS: 30, Detector: "step"}}
	if diff := cmp.Diff(want, events, approxFPS); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestArbiter_StepLeft(t *testing.T) {
	base := pose.StandingSample()
	samples := make([]pose.Sample, 20)
	for i := range samples {
		samples[i] = pose.Shift(base, -0.02*float64(steps(i, 5, 4)), 0, 0, pose.LeftFootIndex)
	}

	a := newTestArbiter(t, DefaultConfig())
	events := feed(a, timed(samples, 30))

	assert.Equal(t, []Move{StepLeft}, moves(events))
	assert.Equal(t, []int{7}, frameIndexes(events))
}

func TestArbiter_Jump(t *testing.T) {
	tests := []struct {
		name     string
		hipDrift float64
		want     []Move
	}{
		{name: "hips steady", hipDrift: 0, want: []Move{Jump}},
		{name: "hips drifting", hipDrift: 0.01, want: []Move{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArbiter(t, DefaultConfig())
			events := feed(a, jumpScenario(20, tt.hipDrift))

			assert.Equal(t, tt.want, moves(events))
			if len(events) > 0 {
				assert.Equal(t, 6, events[0].FrameIndex)
				assert.Equal(t, "jump", events[0].Detector)
			}
		})
	}
}

func TestArbiter_Bend(t *testing.T) {
	a := newTestArbiter(t, DefaultConfig())
	events := feed(a, bendScenario(20))

	assert.Equal(t, []Move{Bend}, moves(events))
	assert.Equal(t, []int{7}, frameIndexes(events))
}

func TestArbiter_TwoPhase(t *testing.T) {
	cfg, err := Preset("wheel")
	require.NoError(t, err)
	a := newTestArbiter(t, cfg)

	events := feed(a, wristScenario(0, 0, 0.07, 0.07, 0.07, 0.02))

	want := []Event{
		{Move: StartRight, FrameIndex: 2, FPS: 30, Detector: "two_phase"},
		{Move: EndRight, FrameIndex: 5, FPS: 30, Detector: "two_phase"},
	}
	if diff := cmp.Diff(want, events, approxFPS); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestArbiter_TwoPhaseLeft(t *testing.T) {
	a := newTestArbiter(t, configWith(KindTwoPhase))

	events := feed(a, wristScenario(0, -0.08, -0.08, -0.01, 0, -0.06))

	assert.Equal(t, []Move{StartLeft, EndLeft, StartLeft}, moves(events))
	assert.Equal(t, []int{1, 3, 5}, frameIndexes(events))
}

func TestArbiter_Linear(t *testing.T) {
	// The left foot stands 0.25 in front of the right foot unless noted.
	tests := []struct {
		name  string
		front float64
		foot  pose.Joint
		dz    float64
		want  Move
	}{
		{name: "front foot toward camera", front: -0.25, foot: pose.LeftFootIndex, dz: -0.03, want: Forward},
		{name: "rear foot toward camera", front: -0.25, foot: pose.RightFootIndex, dz: -0.03, want: Forward},
		{name: "front foot pulled back", front: -0.25, foot: pose.LeftFootIndex, dz: 0.03, want: Backward},
		{name: "rear foot away from camera", front: -0.25, foot: pose.RightFootIndex, dz: 0.03, want: Backward},
		{name: "feet level, left steps forward", front: 0, foot: pose.LeftFootIndex, dz: -0.04, want: Forward},
		{name: "feet level, right steps back", front: 0, foot: pose.RightFootIndex, dz: 0.04, want: Backward},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArbiter(t, configWith(KindLinear))
			events := feed(a, linearScenario(20, tt.front, tt.foot, tt.dz))

			assert.Equal(t, []Move{tt.want}, moves(events))
			assert.Equal(t, []int{7}, frameIndexes(events))
		})
	}
}

func TestArbiter_LinearNeedsFeetApart(t *testing.T) {
	// 0.03 per frame for three frames leaves the feet only 0.09 apart.
	a := newTestArbiter(t, configWith(KindLinear))
	assert.Empty(t, feed(a, linearScenario(20, 0, pose.LeftFootIndex, -0.03)))
}

func TestArbiter_Press(t *testing.T) {
	cfg, err := Preset("floor_map")
	require.NoError(t, err)
	a := newTestArbiter(t, cfg)

	base := pose.StandingSample()
	samples := make([]pose.Sample, 20)
	for i := range samples {
		samples[i] = pose.Shift(base, 0.05*float64(steps(i, 6, 2)), 0, 0, pose.RightFootIndex)
	}
	events := feed(a, timed(samples, 30))

	assert.Equal(t, []Move{PressRight}, moves(events))
	assert.Equal(t, []int{11}, frameIndexes(events))

	st := a.Status()
	require.NotNil(t, st.Zones)
	assert.InDelta(t, 0.55, st.Zones.Anchors[RightFoot].X, 1e-9)
}

func TestArbiter_PressNeedsCalibration(t *testing.T) {
	cfg, err := Preset("floor_map")
	require.NoError(t, err)
	a := newTestArbiter(t, cfg)

	// The subject never holds still long enough to calibrate.
	base := pose.StandingSample()
	samples := make([]pose.Sample, 20)
	for i := range samples {
		s := pose.Shift(base, 0.05*float64(i%3), 0, 0, pose.Nose)
		samples[i] = pose.Shift(s, 0.05*float64(steps(i, 6, 2)), 0, 0, pose.RightFootIndex)
	}

	assert.Empty(t, feed(a, timed(samples, 30)))
	assert.False(t, a.Status().Calibration.Established)
}

func TestArbiter_KneeBend(t *testing.T) {
	cfg := configWith(KindKneeBend)
	cfg.KneeBend.Hold = 100 * time.Millisecond
	a := newTestArbiter(t, cfg)

	base := pose.StandingSample()
	samples := timed(func() []pose.Sample {
		out := make([]pose.Sample, 24)
		for i := range out {
			out[i] = base
			if i >= 6 && i < 16 {
				out[i] = pose.Shift(base, 0.05, 0, 0, pose.LeftKnee, pose.RightKnee)
			}
		}
		return out
	}(), 30)

	var events []Event
	for _, s := range samples {
		if ev, ok := a.Process(s); ok {
			events = append(events, ev)
		}
		// Let the angle worker finish so readings arrive on the next frame.
		require.NoError(t, a.Close())
	}

	// The reading for frame 6 starts the hold, the reading for frame 10 is
	// the first one more than 100ms later and is picked up on frame 11.
	want := []Event{{Move: Bend, FrameIndex: 11, FPS: 30, Detector: "knee_bend"}}
	if diff := cmp.Diff(want, events, approxFPS); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, a.Status().Detectors[0].InMotion, "straightening should release the lock")
}

func TestArbiter_NoRetriggerWhileLocked(t *testing.T) {
	base := pose.StandingSample()
	samples := make([]pose.Sample, 40)
	for i := range samples {
		// The foot keeps sliding right for the whole sequence.
		samples[i] = pose.Shift(base, 0.02*float64(steps(i, 5, 40)), 0, 0, pose.RightFootIndex)
	}

	a := newTestArbiter(t, DefaultConfig())
	events := feed(a, timed(samples, 30))

	assert.Equal(t, []Move{StepRight}, moves(events))
	assert.True(t, a.Status().Detectors[2].InMotion)
}

func TestArbiter_SingleFlight(t *testing.T) {
	base := pose.StandingSample()
	samples := make([]pose.Sample, 14)
	for i := range samples {
		s := pose.Shift(base, 0.02*float64(steps(i, 5, 40)), 0, 0, pose.RightFootIndex)
		if i >= 9 {
			s.Landmarks[pose.RightWrist].Y += 0.1
		}
		samples[i] = s
	}
	samples = timed(samples, 30)

	tests := []struct {
		name          string
		allowMultiple bool
		want          []Move
	}{
		{name: "single flight", allowMultiple: false, want: []Move{StepRight}},
		{name: "allow multiple", allowMultiple: true, want: []Move{StepRight, StartRight}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := configWith(KindStep, KindTwoPhase)
			cfg.AllowMultiple = tt.allowMultiple
			a := newTestArbiter(t, cfg)

			assert.Equal(t, tt.want, moves(feed(a, samples)))
		})
	}
}

func TestArbiter_FPSInvariance(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		samples []pose.Sample
	}{
		{name: "step", cfg: DefaultConfig(), samples: stepScenario(20)},
		{name: "jump", cfg: DefaultConfig(), samples: jumpScenario(20, 0)},
		{name: "bend", cfg: DefaultConfig(), samples: bendScenario(20)},
		{name: "linear forward", cfg: configWith(KindLinear), samples: linearScenario(20, 0, pose.LeftFootIndex, -0.04)},
		{name: "linear backward", cfg: configWith(KindLinear), samples: linearScenario(20, -0.25, pose.RightFootIndex, 0.03)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at30 := feed(newTestArbiter(t, tt.cfg), tt.samples)
			at60 := feed(newTestArbiter(t, tt.cfg), timed(doubled(tt.samples), 60))

			require.NotEmpty(t, at30)
			assert.Equal(t, moves(at30), moves(at60))
			for i := range at30 {
				i30, i60 := at30[i].FrameIndex, at60[i].FrameIndex
				assert.Contains(t, []int{2 * i30, 2*i30 + 1}, i60,
					"event %d at frame %d (30 fps) vs %d (60 fps)", i, i30, i60)
				assert.InDelta(t, 60, at60[i].FPS, 0.01)
			}
		})
	}
}

func TestArbiter_FrozenSampleIsIdempotent(t *testing.T) {
	s := pose.StandingSample()
	samples := make([]pose.Sample, 50)
	for i := range samples {
		samples[i] = s
	}

	a := newTestArbiter(t, DefaultConfig())
	assert.Empty(t, feed(a, timed(samples, 30)))

	st := a.Status()
	assert.Equal(t, 50, st.Processed)
	for id, c := range st.Counters {
		assert.Equal(t, 50, c.Count, id)
		assert.True(t, c.Stable, id)
	}
	for _, d := range st.Detectors {
		assert.False(t, d.InMotion, d.Name)
	}
}

func TestArbiter_InvisibleFrameLeavesStateUntouched(t *testing.T) {
	a := newTestArbiter(t, DefaultConfig())
	samples := stepScenario(6)
	feed(a, samples)
	before := a.Status()

	hidden := samples[5]
	hidden.Timestamp += 10 * time.Millisecond
	hidden.Landmarks[pose.LeftAnkle].Visibility = 0.2
	_, ok := a.Process(hidden)
	require.False(t, ok)

	after := a.Status()
	assert.Equal(t, before.Frames+1, after.Frames)
	assert.Equal(t, before.Skipped+1, after.Skipped)

	after.Frames, after.Skipped = before.Frames, before.Skipped
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("state changed on a skipped frame (-before +after):\n%s", diff)
	}
}

func TestArbiter_OnlyInstalledJointsGateFrames(t *testing.T) {
	a := newTestArbiter(t, configWith(KindTwoPhase))

	s := pose.StandingSample()
	s.Landmarks[pose.LeftAnkle].Visibility = 0
	a.Process(s)

	assert.Equal(t, 1, a.Status().Processed)
}

func TestArbiter_Listeners(t *testing.T) {
	var viaOption, viaOnEvent []Move
	a := newTestArbiter(t, DefaultConfig(),
		WithLogger(zaptest.NewLogger(t)),
		WithListener(func(ev Event) { viaOption = append(viaOption, ev.Move) }))
	a.OnEvent(func(ev Event) { viaOnEvent = append(viaOnEvent, ev.Move) })

	feed(a, stepScenario(12))

	assert.Equal(t, []Move{StepRight}, viaOption)
	assert.Equal(t, []Move{StepRight}, viaOnEvent)
	require.NotNil(t, a.Status().LastEvent)
	assert.Equal(t, StepRight, a.Status().LastEvent.Move)
}

func TestArbiter_Calibration(t *testing.T) {
	a := newTestArbiter(t, DefaultConfig())

	s := pose.StandingSample()
	samples := make([]pose.Sample, 8)
	for i := range samples {
		samples[i] = s
	}
	feed(a, timed(samples[:4], 30))
	assert.False(t, a.Status().Calibration.Established)

	feed(a, timed(samples, 30)[4:])
	cal := a.Status().Calibration
	assert.True(t, cal.Established)
	assert.Equal(t, 4, cal.FrameIndex)
	assert.InDelta(t, 0.72, cal.Height, 1e-9)
	assert.InDelta(t, 0.50, cal.CenterX, 1e-9)
	assert.InDelta(t, 0, cal.KneeAngle, 1e-6)
	assert.Equal(t, Anchor{X: 0.45, Z: 0}, cal.LeftAnchor)
}

func TestArbiter_CalibrationRejectsLyingDown(t *testing.T) {
	a := newTestArbiter(t, DefaultConfig())

	s := pose.StandingSample()
	s.Landmarks[pose.Nose].Y = 0.95
	samples := make([]pose.Sample, 10)
	for i := range samples {
		samples[i] = s
	}
	feed(a, timed(samples, 30))

	assert.False(t, a.Status().Calibration.Established)
}

func TestArbiter_ScaledThresholds(t *testing.T) {
	// A short subject (height 0.36 against a nominal 0.7) roughly halves the
	// step threshold, so a 0.03 move that is normally ignored becomes a step.
	base := pose.StandingSample()
	for j := range base.Landmarks {
		base.Landmarks[j].Y = 0.5 + (base.Landmarks[j].Y-0.5)/2
	}
	samples := make([]pose.Sample, 20)
	for i := range samples {
		samples[i] = pose.Shift(base, 0.03*float64(steps(i, 8, 1)), 0, 0, pose.RightFootIndex)
	}
	samples = timed(samples, 30)

	cfg := DefaultConfig()
	cfg.Calibration.MinHeight = 0.3
	assert.Empty(t, feed(newTestArbiter(t, cfg), samples))

	cfg.Calibration.ScaleThresholds = true
	assert.Equal(t, []Move{StepRight}, moves(feed(newTestArbiter(t, cfg), samples)))
}

func TestArbiter_Reset(t *testing.T) {
	a := newTestArbiter(t, DefaultConfig())
	feed(a, stepScenario(10))
	require.True(t, a.Status().Calibration.Established)

	a.Reset()

	st := a.Status()
	assert.Zero(t, st.Frames)
	assert.False(t, st.Calibration.Established)
	assert.Empty(t, st.Counters)
	assert.Nil(t, st.LastEvent)

	events := feed(a, stepScenario(20))
	assert.Equal(t, []int{7}, frameIndexes(events))
}

func TestNewArbiter_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detectors = nil

	_, err := NewArbiter(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
