package app

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/padam/internal/capture"
	"github.com/ayusman/padam/internal/gesture"
	"github.com/ayusman/padam/internal/pose"
	"github.com/ayusman/padam/internal/store"
)

// run is the detection loop.
//
// Pipeline logic:
//  1. Start at the idle rate with pose estimation switched off.
//  2. Feed every frame to the activity gate; once it opens, raise the
//     capture rate and start estimating.
//  3. Stamp each pose with the camera's frame sequence and timestamp and
//     hand it to the arbiter. Events flow out through handleEvent.
//  4. When the gate closes again, drop back to the idle rate.
func (a *App) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(capture.IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			active, changed := a.step()
			if !changed {
				continue
			}
			fps := capture.IdleFPS
			if active {
				fps = capture.ActiveFPS
			}
			a.camera.SetFPS(fps)
			ticker.Reset(time.Second / time.Duration(fps))
			a.log.Info("capture rate changed", zap.Bool("active", active), zap.Int("fps", fps))
		}
	}
}

// step processes one frame and reports the gate state and whether it
// changed.
func (a *App) step() (active, changed bool) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		if errors.Is(err, capture.ErrNoFrame) {
			a.log.Debug("no frame available")
		} else {
			a.log.Warn("error reading frame", zap.Error(err))
		}
		return a.isActive(), false
	}
	defer frame.Close()

	active = a.gate.Observe(frame.Mat)
	changed = a.setActive(active)

	var sample *pose.Sample
	if active {
		sample, err = a.estimator.Estimate(frame.Mat)
		if err != nil {
			a.log.Warn("pose estimation failed", zap.Int("frame", frame.Seq), zap.Error(err))
			sample = nil
		}
	}
	if sample != nil {
		sample.Index = frame.Seq
		sample.Timestamp = frame.Timestamp
	}
	a.storeLatest(frame, sample)

	if sample == nil {
		return active, changed
	}

	a.arbiter.Process(*sample)
	a.checkCalibration()
	return active, changed
}

func (a *App) isActive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

func (a *App) setActive(active bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == active {
		return false
	}
	a.active = active
	return true
}

func (a *App) storeLatest(frame *capture.Frame, sample *pose.Sample) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	frame.Mat.CopyTo(&a.latest)
	a.sample = sample
}

// checkCalibration records the calibration on the session the first time
// the engine establishes it.
func (a *App) checkCalibration() {
	a.mu.RLock()
	done := a.calibrated
	a.mu.RUnlock()
	if done {
		return
	}

	cal := a.arbiter.Status().Calibration
	if !cal.Established {
		return
	}

	a.mu.Lock()
	a.calibrated = true
	sess := a.session
	callbacks := slices.Clone(a.onCalib)
	a.mu.Unlock()

	if sess != nil && a.config.Store != nil {
		if err := a.config.Store.Sessions().MarkCalibrated(sess.ID, cal.Height); err != nil {
			a.log.Warn("failed to record calibration", zap.String("session", sess.ID), zap.Error(err))
		}
	}
	a.hub.Publish("calibrated", cal)

	for _, fn := range callbacks {
		fn(cal)
	}
}

// handleEvent fans a detected move out to storage, websocket clients,
// plugins and registered listeners.
func (a *App) handleEvent(ev gesture.Event) {
	a.log.Info("move detected",
		zap.String("move", string(ev.Move)),
		zap.String("detector", ev.Detector),
		zap.Int("frame", ev.FrameIndex),
		zap.Float64("fps", ev.FPS))

	a.frameMu.Lock()
	a.lastMove = ev.Move
	a.frameMu.Unlock()

	a.mu.RLock()
	sess := a.session
	listeners := slices.Clone(a.listeners)
	a.mu.RUnlock()

	if sess != nil && a.config.Store != nil {
		rec := &store.EventRecord{
			SessionID:  sess.ID,
			Move:       string(ev.Move),
			FrameIndex: ev.FrameIndex,
			FPS:        ev.FPS,
			Detector:   ev.Detector,
		}
		if err := a.config.Store.Events().Append(rec); err != nil {
			a.log.Warn("failed to store event", zap.Error(err))
		}
	}

	a.hub.Broadcast(ev)
	a.dispatcher.Dispatch(ev)

	for _, l := range listeners {
		l(ev)
	}
}
