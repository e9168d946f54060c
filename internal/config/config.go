// Package config loads runtime settings from the environment and engine
// tuning overrides from JSON files.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Settings holds the process-level configuration.
type Settings struct {
	Addr      string // HTTP listen address
	DataDir   string // sqlite database and recordings
	Camera    int    // camera device id
	Preset    string // gesture preset name
	LogLevel  string
	PluginDir string
	Tuning    string // optional tuning file applied over the preset
}

// Load reads settings from PADAM_* environment variables, falling back to
// defaults for anything unset.
func Load() *Settings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := getEnv("PADAM_DATA_DIR", filepath.Join(home, ".padam"))

	return &Settings{
		Addr:      getEnv("PADAM_ADDR", ":8080"),
		DataDir:   dataDir,
		Camera:    getEnvInt("PADAM_CAMERA", 0),
		Preset:    getEnv("PADAM_PRESET", "original"),
		LogLevel:  getEnv("PADAM_LOG_LEVEL", "info"),
		PluginDir: getEnv("PADAM_PLUGIN_DIR", filepath.Join(dataDir, "plugins")),
		Tuning:    getEnv("PADAM_TUNING", ""),
	}
}

// DBPath returns the sqlite database location inside DataDir.
func (s *Settings) DBPath() string {
	return filepath.Join(s.DataDir, "padam.db")
}

func getEnv(k, d string) string {
	if val, ok := os.LookupEnv(k); ok {
		return val
	}
	return d
}

func getEnvInt(k string, d int) int {
	val, ok := os.LookupEnv(k)
	if !ok {
		return d
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return d
	}
	return n
}
