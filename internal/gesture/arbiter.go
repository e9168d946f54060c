package gesture

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/padam/internal/pose"
)

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithLogger sets the logger used for calibration and detection messages.
func WithLogger(l *zap.Logger) Option {
	return func(a *Arbiter) {
		a.log = l
	}
}

// WithListener registers a listener before the first frame.
func WithListener(l Listener) Option {
	return func(a *Arbiter) {
		a.listeners = append(a.listeners, l)
	}
}

// Arbiter runs the per-frame pipeline and decides which detector, if any,
// emits an event. It is safe for concurrent use; frames are processed one at
// a time.
type Arbiter struct {
	mu        sync.Mutex
	cfg       Config
	log       *zap.Logger
	listeners []Listener

	detectors []Detector
	required  []pose.Joint

	fps       *FPSEstimator
	history   History
	table     DisplacementTable
	stability *StabilityState
	calib     calibrator
	zones     *ZoneMap

	frames    int
	processed int
	skipped   int
	depth     int
	last      *Event
}

// NewArbiter validates cfg and builds the configured detectors.
func NewArbiter(cfg Config, opts ...Option) (*Arbiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Arbiter{
		cfg: cfg,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Arbiter) init() error {
	detectors, err := installDetectors(a.cfg)
	if err != nil {
		return fmt.Errorf("install detectors: %w", err)
	}

	var required []pose.Joint
	for _, d := range detectors {
		for _, j := range d.RequiredJoints() {
			if !slices.Contains(required, j) {
				required = append(required, j)
			}
		}
	}
	slices.Sort(required)

	a.detectors = detectors
	a.required = required
	a.fps = NewFPSEstimator(a.cfg.FPS)
	a.history = History{}
	a.table = DisplacementTable{}
	a.stability = NewStabilityState()
	a.calib = calibrator{cfg: a.cfg.Calibration}
	a.zones = nil
	a.frames, a.processed, a.skipped, a.depth = 0, 0, 0, 0
	a.last = nil
	return nil
}

// Config returns the configuration the arbiter was built with.
func (a *Arbiter) Config() Config {
	return a.cfg
}

// OnEvent registers a listener. Listeners are called synchronously, in
// registration order, after the arbiter's lock is released.
func (a *Arbiter) OnEvent(l Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// Process runs one sample through the engine and returns the emitted event,
// if any.
func (a *Arbiter) Process(s pose.Sample) (Event, bool) {
	a.mu.Lock()
	ev, ok := a.process(s)
	listeners := slices.Clone(a.listeners)
	a.mu.Unlock()

	if ok {
		for _, l := range listeners {
			l(ev)
		}
	}
	return ev, ok
}

// process implements one frame.
//
// Algorithm:
//  1. Skip the frame if any required joint is not visible. Only the
//     received-frame counter moves.
//  2. Update the FPS estimate and derive the history depth from it.
//  3. Push the sample, rebuild the displacement table, try calibration.
//  4. Let every detector update its stability counters.
//  5. In single-flight mode stop if any detector is still in motion.
//  6. Ask detectors in priority order; the first move wins and locks its
//     detector.
func (a *Arbiter) process(s pose.Sample) (Event, bool) {
	index := a.frames
	a.frames++

	if !s.Visible(a.required, a.cfg.VisibilityThreshold) {
		a.skipped++
		if ce := a.log.Check(zap.DebugLevel, "frame skipped"); ce != nil {
			ce.Write(zap.Int("frame", index), zap.Stringers("invisible", s.Invisible(a.required, a.cfg.VisibilityThreshold)))
		}
		return Event{}, false
	}
	a.processed++

	fps := a.fps.Observe(s.Timestamp)
	a.depth = scaleFrames(a.cfg.History.BaseFrames, fps, a.cfg.History.MinFrames)
	a.history.Push(s, a.depth)
	a.table.Recompute(&a.history)

	if a.calib.maybeEstablish(&a.history, a.processed, index, a.cfg.VisibilityThreshold) {
		cal := a.calib.cal
		a.log.Info("calibration established",
			zap.Int("frame", index),
			zap.Float64("height", cal.Height),
			zap.Float64("center_x", cal.CenterX),
			zap.Float64("knee_angle", cal.KneeAngle))
		if a.cfg.Has(KindPress) {
			a.zones = NewZoneMap(cal, a.cfg.Press)
		}
	}

	f := &Frame{
		Index:         index,
		FPS:           fps,
		Sample:        a.history.Newest(),
		History:       &a.history,
		Calibration:   a.calib.cal,
		Zones:         a.zones,
		table:         &a.table,
		minFrames:     a.cfg.History.MinFrames,
		scale:         a.cfg.Calibration.ScaleThresholds,
		nominalHeight: a.cfg.Calibration.NominalHeight,
	}

	for _, d := range a.detectors {
		d.UpdateStability(f, a.stability)
	}

	if !a.cfg.AllowMultiple {
		for _, d := range a.detectors {
			if d.InMotion() {
				return Event{}, false
			}
		}
	}

	for _, d := range a.detectors {
		m := d.Detect(f, a.stability)
		if m == MoveNone {
			continue
		}
		d.Engage(m)

		ev := Event{Move: m, FrameIndex: index, FPS: fps, Detector: d.Name()}
		a.last = &ev
		a.log.Debug("move detected",
			zap.String("move", string(m)),
			zap.String("detector", d.Name()),
			zap.Int("frame", index),
			zap.Float64("fps", fps))
		return ev, true
	}
	return Event{}, false
}

// DetectorStatus is the diagnostic view of one installed detector.
type DetectorStatus struct {
	Name     string `json:"name"`
	InMotion bool   `json:"in_motion"`
	Moves    []Move `json:"moves"`
}

// Status is a diagnostic snapshot of the engine.
type Status struct {
	Preset      string                  `json:"preset"`
	Frames      int                     `json:"frames"`
	Processed   int                     `json:"processed"`
	Skipped     int                     `json:"skipped"`
	FPS         float64                 `json:"fps"`
	Depth       int                     `json:"depth"`
	Calibration Calibration             `json:"calibration"`
	Zones       *ZoneMap                `json:"zones,omitempty"`
	Detectors   []DetectorStatus        `json:"detectors"`
	Counters    map[CriterionID]Counter `json:"counters"`
	LastEvent   *Event                  `json:"last_event,omitempty"`
}

// Status returns a snapshot of the engine state.
func (a *Arbiter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := Status{
		Preset:      a.cfg.Preset,
		Frames:      a.frames,
		Processed:   a.processed,
		Skipped:     a.skipped,
		FPS:         a.fps.Value(),
		Depth:       a.depth,
		Calibration: a.calib.cal,
		Counters:    a.stability.Snapshot(),
	}
	if a.zones != nil {
		z := *a.zones
		st.Zones = &z
	}
	if a.last != nil {
		ev := *a.last
		st.LastEvent = &ev
	}
	for _, d := range a.detectors {
		st.Detectors = append(st.Detectors, DetectorStatus{
			Name:     d.Name(),
			InMotion: d.InMotion(),
			Moves:    d.Moves(),
		})
	}
	return st
}

// Reset drops all history, counters, locks and the calibration, as at the
// start of a new session. Listeners are kept.
func (a *Arbiter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.waitDetectors()
	// init cannot fail here: the detector set was installed once already.
	_ = a.init()
	a.log.Debug("engine reset")
}

// Close waits for background work started by the detectors.
func (a *Arbiter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.waitDetectors()
	return nil
}

func (a *Arbiter) waitDetectors() {
	for _, d := range a.detectors {
		if w, ok := d.(waiter); ok {
			w.wait()
		}
	}
}
