package main

import (
	"fmt"
	"strings"
)

type backend struct {
	keystroke func(KeyParams) []string
	keyDown   func(KeyParams) []string
	keyUp     func(KeyParams) []string
}

func backendFor(goos string) (backend, error) {
	switch goos {
	case "darwin":
		return backend{
			keystroke: func(p KeyParams) []string { return osascript(appleKeystroke(p)) },
			keyDown:   func(p KeyParams) []string { return osascript(appleHold("key down", p.Key)) },
			keyUp:     func(p KeyParams) []string { return osascript(appleHold("key up", p.Key)) },
		}, nil
	case "linux":
		return backend{
			keystroke: func(p KeyParams) []string { return []string{"xdotool", "key", xdoChord(p)} },
			keyDown:   func(p KeyParams) []string { return []string{"xdotool", "keydown", xdoKey(p.Key)} },
			keyUp:     func(p KeyParams) []string { return []string{"xdotool", "keyup", xdoKey(p.Key)} },
		}, nil
	default:
		return backend{}, fmt.Errorf("keyboard plugin does not support %s", goos)
	}
}

// appleKeyCodes covers keys AppleScript cannot type as text.
var appleKeyCodes = map[string]int{
	"left":   123,
	"right":  124,
	"down":   125,
	"up":     126,
	"space":  49,
	"return": 36,
	"enter":  36,
	"escape": 53,
	"tab":    48,
}

// appleModifiers maps user-friendly modifier names to AppleScript equivalents.
var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

var xdoKeys = map[string]string{
	"left":   "Left",
	"right":  "Right",
	"up":     "Up",
	"down":   "Down",
	"space":  "space",
	"return": "Return",
	"enter":  "Return",
	"escape": "Escape",
	"tab":    "Tab",
}

func osascript(script string) []string {
	return []string{"osascript", "-e", script}
}

func appleKeystroke(p KeyParams) string {
	press := fmt.Sprintf(`keystroke "%s"`, p.Key)
	if code, ok := appleKeyCodes[strings.ToLower(p.Key)]; ok {
		press = fmt.Sprintf("key code %d", code)
	}

	var mods []string
	for _, m := range p.Modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}
	if len(mods) > 0 {
		press += " using {" + strings.Join(mods, ", ") + "}"
	}
	return `tell application "System Events" to ` + press
}

// appleHold presses or releases a key. System Events can hold modifiers
// and typed characters but not key codes, so arrows fall back to a
// single key code press on key down and nothing on key up.
func appleHold(verb, key string) string {
	lower := strings.ToLower(key)
	if code, ok := appleKeyCodes[lower]; ok {
		if verb == "key up" {
			return `tell application "System Events" to return`
		}
		return fmt.Sprintf(`tell application "System Events" to key code %d`, code)
	}
	if am, ok := appleModifiers[lower]; ok {
		return fmt.Sprintf(`tell application "System Events" to %s %s`, verb, strings.TrimSuffix(am, " down"))
	}
	return fmt.Sprintf(`tell application "System Events" to %s "%s"`, verb, key)
}

func xdoKey(key string) string {
	if k, ok := xdoKeys[strings.ToLower(key)]; ok {
		return k
	}
	return key
}

func xdoChord(p KeyParams) string {
	var parts []string
	for _, m := range p.Modifiers {
		if xm, ok := xdoModifiers[strings.ToLower(m)]; ok {
			parts = append(parts, xm)
		}
	}
	return strings.Join(append(parts, xdoKey(p.Key)), "+")
}
