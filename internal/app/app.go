// Package app wires the camera, pose estimator and gesture engine into a
// detection pipeline and fans detected moves out to storage, websocket
// clients, plugins and the tray.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/padam/internal/capture"
	"github.com/ayusman/padam/internal/gesture"
	"github.com/ayusman/padam/internal/plugin"
	"github.com/ayusman/padam/internal/pose"
	"github.com/ayusman/padam/internal/server"
	"github.com/ayusman/padam/internal/server/api"
	"github.com/ayusman/padam/internal/store"
)

// DefaultActivityThreshold is the changed-pixel percentage that marks a
// frame as moving.
const DefaultActivityThreshold = 1.0

// Config holds configuration options for the application.
type Config struct {
	Store     *store.Store
	Engine    gesture.Config
	PluginDir string
	CameraID  int

	// ActivityThreshold and ActivityHold tune the gate that switches
	// between the idle and active capture rates.
	ActivityThreshold float64
	ActivityHold      int

	PluginTimeout time.Duration
	QueueSize     int

	Log *zap.Logger

	// Camera and Estimator replace the capture device and the MediaPipe
	// service when set.
	Camera    capture.Camera
	Estimator pose.Estimator
}

// App is the main application that orchestrates move detection and action
// execution.
type App struct {
	config     Config
	log        *zap.Logger
	camera     capture.Camera
	gate       *capture.ActivityGate
	estimator  pose.Estimator
	arbiter    *gesture.Arbiter
	plugins    *plugin.Manager
	dispatcher *plugin.Dispatcher
	hub        *server.Hub

	mu         sync.RWMutex
	enabled    bool
	cancel     context.CancelFunc
	done       chan struct{}
	session    *store.Session
	active     bool
	calibrated bool
	listeners  []gesture.Listener
	onCalib    []func(gesture.Calibration)

	frameMu  sync.Mutex
	latest   gocv.Mat
	sample   *pose.Sample
	lastMove gesture.Move
}

// New creates a new App. The pipeline does not run until Start or
// SetEnabled(true) is called.
func New(config Config) (*App, error) {
	log := config.Log
	if log == nil {
		log = zap.NewNop()
	}
	if config.ActivityThreshold <= 0 {
		config.ActivityThreshold = DefaultActivityThreshold
	}

	a := &App{
		config:    config,
		log:       log,
		camera:    config.Camera,
		gate:      capture.NewActivityGate(config.ActivityThreshold, config.ActivityHold),
		estimator: config.Estimator,
		plugins:   plugin.NewManager(config.PluginDir, log.Named("plugin")),
		hub:       server.NewHub(log),
		latest:    gocv.NewMat(),
	}

	arbiter, err := gesture.NewArbiter(config.Engine,
		gesture.WithLogger(log.Named("gesture")),
		gesture.WithListener(a.handleEvent),
	)
	if err != nil {
		return nil, err
	}
	a.arbiter = arbiter

	if a.camera == nil {
		a.camera = capture.NewCamera(config.CameraID)
	}
	if a.estimator == nil {
		mp, err := pose.NewMediaPipeEstimator(pose.DefaultConfig(), log.Named("pose"))
		if err != nil {
			log.Warn("MediaPipe not available, using mock estimator", zap.Error(err))
			a.estimator = pose.NewMockEstimator()
		} else {
			a.estimator = mp
		}
	}

	a.dispatcher = plugin.NewDispatcher(
		a.plugins,
		plugin.NewExecutor(config.PluginTimeout),
		plugin.ResolverFunc(a.resolveBinding),
		log,
		config.QueueSize,
	)
	a.dispatcher.Start(context.Background())

	return a, nil
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.plugins.Discover()
}

// OnEvent registers a callback for every detected move. Callbacks run on
// the pipeline goroutine and must not block.
func (a *App) OnEvent(l gesture.Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// OnCalibrated registers a callback run once per session when the engine
// establishes its calibration.
func (a *App) OnCalibrated(fn func(gesture.Calibration)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCalib = append(a.onCalib, fn)
}

// Enabled reports whether detection is running.
func (a *App) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled starts or stops detection and remembers the choice.
func (a *App) SetEnabled(enabled bool) error {
	if enabled {
		if err := a.Start(); err != nil {
			return err
		}
	} else {
		a.Stop()
	}
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			a.log.Warn("failed to persist detection state", zap.Error(err))
		}
	}
	return nil
}

// Start opens the camera, begins a new session and launches the pipeline.
// Calling Start while running has no effect.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(capture.IdleFPS)
	a.gate.Reset()
	a.arbiter.Reset()
	a.calibrated = false
	a.active = false

	if a.config.Store != nil {
		sess := &store.Session{Preset: a.config.Engine.Preset}
		if err := a.config.Store.Sessions().Create(sess); err != nil {
			a.camera.Close()
			return fmt.Errorf("create session: %w", err)
		}
		a.session = sess
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	a.enabled = true
	go a.run(ctx, a.done)

	a.log.Info("detection pipeline started",
		zap.String("preset", a.config.Engine.Preset),
		zap.String("session", a.sessionIDLocked()))
	return nil
}

// Stop halts the pipeline, closes the camera and ends the session.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.enabled = false
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if err := a.camera.Close(); err != nil {
		a.log.Warn("error closing camera", zap.Error(err))
	}

	a.mu.Lock()
	sess := a.session
	a.session = nil
	a.active = false
	a.mu.Unlock()

	if sess != nil && a.config.Store != nil {
		if err := a.config.Store.Sessions().End(sess.ID, time.Now()); err != nil {
			a.log.Warn("failed to end session", zap.String("session", sess.ID), zap.Error(err))
		}
	}

	a.log.Info("detection pipeline stopped")
}

// Close stops the pipeline and releases every resource.
func (a *App) Close() error {
	a.Stop()
	a.dispatcher.Close()
	a.hub.Close()
	a.gate.Close()

	a.frameMu.Lock()
	a.latest.Close()
	a.frameMu.Unlock()

	return errors.Join(a.arbiter.Close(), a.estimator.Close())
}

// Status reports the pipeline and engine state.
func (a *App) Status() api.PipelineStatus {
	a.mu.RLock()
	st := api.PipelineStatus{
		Enabled:   a.enabled,
		Running:   a.cancel != nil,
		Active:    a.active,
		SessionID: a.sessionIDLocked(),
	}
	a.mu.RUnlock()

	st.Engine = a.arbiter.Status()
	return st
}

// Latest returns a copy of the newest frame with its pose and the last
// detected move.
func (a *App) Latest() (server.Snapshot, bool) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if a.latest.Empty() {
		return server.Snapshot{}, false
	}
	return server.Snapshot{
		Frame:  a.latest.Clone(),
		Sample: a.sample,
		Label:  string(a.lastMove),
	}, true
}

// Hub returns the websocket hub events are published to.
func (a *App) Hub() *server.Hub {
	return a.hub
}

// Plugins returns the plugin manager.
func (a *App) Plugins() *plugin.Manager {
	return a.plugins
}

// Arbiter returns the gesture engine.
func (a *App) Arbiter() *gesture.Arbiter {
	return a.arbiter
}

// Dispatcher returns the plugin dispatcher.
func (a *App) Dispatcher() *plugin.Dispatcher {
	return a.dispatcher
}

func (a *App) sessionIDLocked() string {
	if a.session == nil {
		return ""
	}
	return a.session.ID
}

// resolveBinding maps a move to its enabled plugin binding.
func (a *App) resolveBinding(move gesture.Move) (*plugin.Binding, error) {
	if a.config.Store == nil {
		return nil, nil
	}
	b, err := a.config.Store.Bindings().GetByMove(string(move))
	if err != nil || b == nil || !b.Enabled {
		return nil, err
	}
	return &plugin.Binding{Plugin: b.PluginName, Action: b.ActionName, Config: b.Config}, nil
}
