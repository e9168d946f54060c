package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// writeManifest creates dir/<name>/plugin.json.
func writeManifest(t *testing.T, dir string, m Manifest) string {
	t.Helper()

	pluginDir := filepath.Join(dir, m.Name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

// scriptPlugin installs a shell script plugin under dir and returns it.
func scriptPlugin(t *testing.T, dir, name, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin test on Windows")
	}

	m := Manifest{Name: name, Version: "1.0.0", Executable: name + ".sh", Actions: actions}
	pluginDir := writeManifest(t, dir, m)
	exe := filepath.Join(pluginDir, m.Executable)
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{Manifest: m, Path: pluginDir, Executable: exe}
}
