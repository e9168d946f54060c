package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/padam/internal/plugin"
)

func TestHandle_Linux(t *testing.T) {
	tests := []struct {
		name string
		req  plugin.Request
		want []string
	}{
		{
			name: "keystroke with modifiers",
			req:  plugin.Request{Action: "keystroke", Move: "jump", Config: json.RawMessage(`{"key":"a","modifiers":["ctrl","Shift"]}`)},
			want: []string{"xdotool", "key", "ctrl+shift+a"},
		},
		{
			name: "key down arrow",
			req:  plugin.Request{Action: "key_down", Move: "start_right", Config: json.RawMessage(`{"key":"right"}`)},
			want: []string{"xdotool", "keydown", "Right"},
		},
		{
			name: "key up from params",
			req:  plugin.Request{Action: "key_up", Move: "end_left", Config: json.RawMessage(`{}`), Params: json.RawMessage(`{"key":"left"}`)},
			want: []string{"xdotool", "keyup", "Left"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := handle("linux", &tt.req, func(argv []string) error {
				got = argv
				return nil
			})
			if err != nil {
				t.Fatalf("handle() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandle_Darwin(t *testing.T) {
	tests := []struct {
		action string
		params string
		want   string
	}{
		{action: "keystroke", params: `{"key":"k"}`, want: `tell application "System Events" to keystroke "k"`},
		{action: "keystroke", params: `{"key":"space","modifiers":["cmd"]}`, want: `tell application "System Events" to key code 49 using {command down}`},
		{action: "key_down", params: `{"key":"w"}`, want: `tell application "System Events" to key down "w"`},
		{action: "key_up", params: `{"key":"shift"}`, want: `tell application "System Events" to key up shift`},
		{action: "key_down", params: `{"key":"right"}`, want: `tell application "System Events" to key code 124`},
	}

	for _, tt := range tests {
		t.Run(tt.action+" "+tt.params, func(t *testing.T) {
			var got []string
			req := &plugin.Request{Action: tt.action, Config: json.RawMessage(tt.params)}
			if err := handle("darwin", req, func(argv []string) error {
				got = argv
				return nil
			}); err != nil {
				t.Fatalf("handle() error = %v", err)
			}
			if len(got) != 3 || got[0] != "osascript" || got[2] != tt.want {
				t.Errorf("argv = %q, want osascript -e %q", got, tt.want)
			}
		})
	}
}

func TestHandle_Errors(t *testing.T) {
	noop := func([]string) error { return nil }

	tests := []struct {
		name    string
		goos    string
		req     plugin.Request
		exec    func([]string) error
		wantErr string
	}{
		{name: "missing key", goos: "linux", req: plugin.Request{Action: "keystroke"}, exec: noop, wantErr: "key is required"},
		{name: "bad config", goos: "linux", req: plugin.Request{Action: "keystroke", Config: json.RawMessage(`[`)}, exec: noop, wantErr: "parse key params"},
		{name: "unknown action", goos: "linux", req: plugin.Request{Action: "wiggle", Config: json.RawMessage(`{"key":"a"}`)}, exec: noop, wantErr: "unknown action"},
		{name: "unsupported os", goos: "plan9", req: plugin.Request{Action: "keystroke", Config: json.RawMessage(`{"key":"a"}`)}, exec: noop, wantErr: "does not support plan9"},
		{
			name:    "exec failure",
			goos:    "linux",
			req:     plugin.Request{Action: "key_down", Move: "start_left", Config: json.RawMessage(`{"key":"a"}`)},
			exec:    func([]string) error { return errors.New("xdotool missing") },
			wantErr: "move start_left failed: xdotool missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handle(tt.goos, &tt.req, tt.exec)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("handle() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
