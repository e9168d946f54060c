package tray

import (
	"testing"

	"github.com/ayusman/padam/internal/gesture"
)

func TestTray_StateWithoutMenu(t *testing.T) {
	tr := New(false)
	if tr.IsEnabled() {
		t.Fatal("IsEnabled() = true, want false")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()
	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("toggle callbacks = %v, want [true false]", got)
	}

	tr.SetEnabled(true)
	if !tr.IsEnabled() {
		t.Error("SetEnabled(true) not applied")
	}
	if len(got) != 2 {
		t.Error("SetEnabled must not invoke the toggle callback")
	}

	tr.SetLastMove(gesture.Jump)
	if tr.LastMove() != gesture.Jump {
		t.Errorf("LastMove() = %q, want jump", tr.LastMove())
	}
	tr.SetCalibrated(true)
}

func TestTray_SettingsCallback(t *testing.T) {
	tr := New(true)
	tr.handleSettings()

	called := false
	tr.OnSettings(func() { called = true })
	tr.handleSettings()
	if !called {
		t.Error("settings callback not called")
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{toggleTitle(true), "● Enabled"},
		{toggleTitle(false), "○ Disabled"},
		{lastMoveTitle(gesture.MoveNone), "Last: none"},
		{lastMoveTitle(gesture.StepLeft), "Last: step_left"},
		{calibrationTitle(true), "Calibrated"},
		{calibrationTitle(false), "Stand still to calibrate"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("title = %q, want %q", tt.got, tt.want)
		}
	}
}
