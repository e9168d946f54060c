// Package tray provides the system tray menu for padam: a detection toggle,
// the last detected move, calibration status, settings and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/padam/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	calibrated bool
	lastMove   gesture.Move
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastMove    *systray.MenuItem
	menuCalibration *systray.MenuItem
}

// New creates a new Tray with the given initial detection state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Padam")
	systray.SetTooltip("Padam foot gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle move detection")
	systray.AddSeparator()

	t.menuLastMove = systray.AddMenuItem(lastMoveTitle(t.lastMove), "Last detected move")
	t.menuLastMove.Disable()
	t.menuCalibration = systray.AddMenuItem(calibrationTitle(t.calibrated), "Calibration status")
	t.menuCalibration.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Padam")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips the detection state and reports it.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// outside the lock: the callback may call back into SetEnabled
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled updates the toggle without invoking the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetLastMove updates the last move display in the menu.
func (t *Tray) SetLastMove(m gesture.Move) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastMove = m
	if t.menuLastMove != nil {
		t.menuLastMove.SetTitle(lastMoveTitle(m))
	}
}

// SetCalibrated updates the calibration status display.
func (t *Tray) SetCalibrated(established bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calibrated = established
	if t.menuCalibration != nil {
		t.menuCalibration.SetTitle(calibrationTitle(established))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// LastMove returns the move shown in the menu.
func (t *Tray) LastMove() gesture.Move {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastMove
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastMoveTitle(m gesture.Move) string {
	if m == gesture.MoveNone {
		return "Last: none"
	}
	return "Last: " + string(m)
}

func calibrationTitle(established bool) string {
	if established {
		return "Calibrated"
	}
	return "Stand still to calibrate"
}
