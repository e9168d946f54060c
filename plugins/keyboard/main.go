// Command keyboard is a padam plugin that turns moves into key presses.
//
// Actions:
//
//	keystroke  press and release a key, optionally with modifiers
//	key_down   hold a key (bind to start_left/start_right)
//	key_up     release a held key (bind to end_left/end_right)
//
// The key comes from the binding config, or from params when the config
// does not name one: {"key": "right", "modifiers": ["shift"]}.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/ayusman/padam/internal/plugin"
)

// KeyParams names the key an action presses.
type KeyParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	writeResponse(handle(runtime.GOOS, &req, run))
}

func handle(goos string, req *plugin.Request, exec func([]string) error) error {
	p, err := keyParams(req)
	if err != nil {
		return err
	}

	b, err := backendFor(goos)
	if err != nil {
		return err
	}

	var argv []string
	switch req.Action {
	case "keystroke", "shortcut":
		argv = b.keystroke(p)
	case "key_down":
		argv = b.keyDown(p)
	case "key_up":
		argv = b.keyUp(p)
	default:
		return fmt.Errorf("unknown action: %s", req.Action)
	}

	if err := exec(argv); err != nil {
		return fmt.Errorf("action %s for move %s failed: %w", req.Action, req.Move, err)
	}
	return nil
}

func keyParams(req *plugin.Request) (KeyParams, error) {
	var p KeyParams
	for _, raw := range []json.RawMessage{req.Config, req.Params} {
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("failed to parse key params: %w", err)
		}
		if p.Key != "" {
			return p, nil
		}
	}
	return p, fmt.Errorf("key is required")
}

func writeResponse(err error) {
	resp := plugin.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
