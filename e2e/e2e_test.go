package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ayusman/padam/internal/app"
	"github.com/ayusman/padam/internal/capture"
	"github.com/ayusman/padam/internal/gesture"
	"github.com/ayusman/padam/internal/plugin"
	"github.com/ayusman/padam/internal/pose"
	"github.com/ayusman/padam/internal/server"
	"github.com/ayusman/padam/internal/store"
	"github.com/ayusman/padam/internal/testutil"
)

const recorderScript = `#!/bin/sh
cat >> "$(dirname "$0")/calls.log"
echo >> "$(dirname "$0")/calls.log"
echo '{"success":true}'
`

// installRecorder writes a plugin that appends every request to calls.log.
func installRecorder(t *testing.T, dir string) string {
	t.Helper()

	pluginDir := filepath.Join(dir, "recorder")
	require.NoError(t, os.MkdirAll(pluginDir, 0755))

	manifest, err := json.Marshal(plugin.Manifest{
		Name:       "recorder",
		Version:    "1.0.0",
		Executable: "recorder.sh",
		Actions:    []string{"keystroke"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.json"), manifest, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "recorder.sh"), []byte(recorderScript), 0755))
	return filepath.Join(pluginDir, "calls.log")
}

type env struct {
	store  *store.Store
	app    *app.App
	server *httptest.Server
	calls  string
}

func setup(t *testing.T, samples []pose.Sample) *env {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin test on Windows")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	pluginDir := filepath.Join(tmpDir, "plugins")
	calls := installRecorder(t, pluginDir)

	frames := testutil.FlickerFrames()
	t.Cleanup(func() { testutil.CloseFrames(frames) })

	est := pose.NewMockEstimator()
	est.SetSamples(samples, false)

	log := zaptest.NewLogger(t)
	a, err := app.New(app.Config{
		Store:     s,
		Engine:    gesture.DefaultConfig(),
		PluginDir: pluginDir,
		Log:       log,
		Camera:    capture.NewMockCamera(frames, true),
		Estimator: est,
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	require.NoError(t, a.DiscoverPlugins())

	srv := server.New(server.Config{
		Store:      s,
		Plugins:    a.Plugins(),
		Controller: a,
		Frames:     a,
		Hub:        a.Hub(),
		Visibility: 0.5,
		Log:        log,
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &env{store: s, app: a, server: ts, calls: calls}
}

func (e *env) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestE2E_StepTriggersBinding(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	e := setup(t, testutil.StepRightSamples(25, 15))

	resp := e.do(t, http.MethodPost, "/api/bindings",
		`{"move":"step_right","plugin_name":"recorder","action_name":"keystroke","config":{"key":"right"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	resp = e.do(t, http.MethodPut, "/api/enabled", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var event struct {
		Move     string `json:"move"`
		Detector string `json:"detector"`
	}
	for event.Move != "step_right" {
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "event" {
			require.NoError(t, json.Unmarshal(msg.Data, &event))
		}
	}
	assert.Equal(t, "step", event.Detector)

	status := decode[struct {
		Enabled   bool   `json:"enabled"`
		Running   bool   `json:"running"`
		SessionID string `json:"session_id"`
	}](t, e.do(t, http.MethodGet, "/api/status", ""))
	assert.True(t, status.Enabled)
	assert.True(t, status.Running)
	require.NotEmpty(t, status.SessionID)

	resp = e.do(t, http.MethodPut, "/api/enabled", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Stop drains the pipeline but plugin runs are asynchronous.
	require.Eventually(t, func() bool {
		executed, _, _ := e.app.Dispatcher().Stats()
		return executed >= 1
	}, 5*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(e.calls)
	require.NoError(t, err)
	var req plugin.Request
	require.NoError(t, json.Unmarshal([]byte(strings.SplitN(string(data), "\n", 2)[0]), &req))
	assert.Equal(t, "keystroke", req.Action)
	assert.Equal(t, "step_right", req.Move)
	assert.JSONEq(t, `{"key":"right"}`, string(req.Config))

	events := decode[struct {
		SessionID string         `json:"session_id"`
		Counts    map[string]int `json:"counts"`
	}](t, e.do(t, http.MethodGet, "/api/sessions/"+status.SessionID+"/events", ""))
	assert.Equal(t, status.SessionID, events.SessionID)
	assert.GreaterOrEqual(t, events.Counts["step_right"], 1)

	sessions := decode[struct {
		Sessions []struct {
			ID         string `json:"id"`
			EndedAt    string `json:"ended_at"`
			Calibrated bool   `json:"calibrated"`
		} `json:"sessions"`
	}](t, e.do(t, http.MethodGet, "/api/sessions", ""))
	require.Len(t, sessions.Sessions, 1)
	assert.Equal(t, status.SessionID, sessions.Sessions[0].ID)
	assert.NotEmpty(t, sessions.Sessions[0].EndedAt)
	assert.True(t, sessions.Sessions[0].Calibrated)
}

func TestE2E_BindingValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	e := setup(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown move", `{"move":"twirl","plugin_name":"recorder","action_name":"keystroke"}`, http.StatusBadRequest},
		{"unknown plugin", `{"move":"jump","plugin_name":"ghost","action_name":"keystroke"}`, http.StatusBadRequest},
		{"unsupported action", `{"move":"jump","plugin_name":"recorder","action_name":"key_down"}`, http.StatusBadRequest},
		{"valid", `{"move":"jump","plugin_name":"recorder","action_name":"keystroke"}`, http.StatusCreated},
		{"duplicate move", `{"move":"jump","plugin_name":"recorder","action_name":"keystroke"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.do(t, http.MethodPost, "/api/bindings", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	list := decode[struct {
		Bindings []struct {
			Move    string `json:"move"`
			Enabled bool   `json:"enabled"`
		} `json:"bindings"`
	}](t, e.do(t, http.MethodGet, "/api/bindings", ""))
	require.Len(t, list.Bindings, 1)
	assert.Equal(t, "jump", list.Bindings[0].Move)
	assert.True(t, list.Bindings[0].Enabled)

	resp := e.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
