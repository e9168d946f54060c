package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/padam/internal/app"
	"github.com/ayusman/padam/internal/config"
	"github.com/ayusman/padam/internal/gesture"
	"github.com/ayusman/padam/internal/log"
	"github.com/ayusman/padam/internal/server"
	"github.com/ayusman/padam/internal/store"
	"github.com/ayusman/padam/internal/tray"
)

func newServeCmd() *cobra.Command {
	settings := config.Load()
	var (
		noTray  bool
		jsonLog bool
		webDir  string
		profile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run detection with the web UI and tray menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, presetEnv := os.LookupEnv("PADAM_PRESET")
			return serve(cmd.Context(), settings, serveOptions{
				tray:         !noTray,
				jsonLog:      jsonLog,
				webDir:       webDir,
				profile:      profile,
				presetChosen: presetEnv || cmd.Flags().Changed("preset"),
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&settings.Addr, "addr", settings.Addr, "HTTP listen address")
	f.StringVar(&settings.DataDir, "data-dir", settings.DataDir, "directory for the database")
	f.IntVar(&settings.Camera, "camera", settings.Camera, "camera device id")
	f.StringVar(&settings.Preset, "preset", settings.Preset, "detector preset")
	f.StringVar(&settings.LogLevel, "log-level", settings.LogLevel, "log level")
	f.StringVar(&settings.PluginDir, "plugin-dir", settings.PluginDir, "plugin directory")
	f.StringVar(&settings.Tuning, "tuning", settings.Tuning, "tuning file applied over the preset")
	f.BoolVar(&noTray, "no-tray", false, "run without the system tray menu")
	f.BoolVar(&jsonLog, "json-log", false, "log in JSON")
	f.StringVar(&webDir, "web", "", "static web UI directory")
	f.StringVar(&profile, "profile", "", "select a stored tuning profile (\"none\" clears the selection)")
	return cmd
}

type serveOptions struct {
	tray         bool
	jsonLog      bool
	webDir       string
	profile      string
	presetChosen bool
}

func serve(ctx context.Context, settings *config.Settings, opts serveOptions) error {
	log.Init(settings.LogLevel, opts.jsonLog)
	defer log.Sync()
	logger := log.L()

	if err := os.MkdirAll(settings.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(settings.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := rememberChoices(st, settings, opts); err != nil {
		return err
	}
	engine, err := engineConfig(st, settings)
	if err != nil {
		return err
	}
	logger.Info("engine configured",
		zap.String("preset", engine.Preset),
		zap.Int("detectors", len(engine.Detectors)),
		zap.Bool("allow_multiple", engine.AllowMultiple))

	a, err := app.New(app.Config{
		Store:     st,
		Engine:    engine,
		PluginDir: settings.PluginDir,
		CameraID:  settings.Camera,
		Log:       logger,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer a.Close()

	if err := a.DiscoverPlugins(); err != nil {
		logger.Warn("plugin discovery failed", zap.String("dir", settings.PluginDir), zap.Error(err))
	}

	if opts.webDir == "" {
		opts.webDir = findWebDir()
	}
	if opts.webDir != "" {
		logger.Info("serving static files", zap.String("dir", opts.webDir))
	}

	srv := server.New(server.Config{
		StaticDir:  opts.webDir,
		Store:      st,
		Plugins:    a.Plugins(),
		Controller: a,
		Frames:     a,
		Hub:        a.Hub(),
		Visibility: engine.VisibilityThreshold,
		Log:        logger,
	})

	enabled, err := st.Settings().GetBool(store.SettingEnabled, true)
	if err != nil {
		logger.Warn("failed to read detection state", zap.Error(err))
	}
	if enabled {
		if err := a.Start(); err != nil {
			logger.Warn("detection not started", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !opts.tray {
		return runServer(ctx, srv, settings.Addr)
	}

	t := tray.New(a.Enabled())
	t.OnToggle(func(enabled bool) {
		if err := a.SetEnabled(enabled); err != nil {
			logger.Warn("toggle failed", zap.Error(err))
			t.SetEnabled(a.Enabled())
		}
	})
	t.OnSettings(func() {
		if err := openBrowser(settingsURL(settings.Addr)); err != nil {
			logger.Warn("failed to open browser", zap.Error(err))
		}
	})
	t.OnQuit(cancel)
	a.OnEvent(func(ev gesture.Event) { t.SetLastMove(ev.Move) })
	a.OnCalibrated(func(gesture.Calibration) { t.SetCalibrated(true) })

	errc := make(chan error, 1)
	go func() {
		errc <- runServer(ctx, srv, settings.Addr)
		t.Quit()
	}()

	// systray needs the main goroutine
	t.Run()
	cancel()
	return <-errc
}

func runServer(ctx context.Context, srv *server.Server, addr string) error {
	log.Info("starting server", zap.String("addr", addr))
	err := srv.Run(ctx, addr)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// rememberChoices persists an explicitly chosen preset or profile and
// otherwise restores the preset chosen last time.
func rememberChoices(st *store.Store, settings *config.Settings, opts serveOptions) error {
	kv := st.Settings()

	switch opts.profile {
	case "":
	case "none":
		if err := kv.Set(store.SettingProfile, ""); err != nil {
			return fmt.Errorf("clear profile: %w", err)
		}
	default:
		if _, err := st.Profiles().GetByName(opts.profile); err != nil {
			return fmt.Errorf("profile %q: %w", opts.profile, err)
		}
		if err := kv.Set(store.SettingProfile, opts.profile); err != nil {
			return fmt.Errorf("select profile: %w", err)
		}
	}

	if opts.presetChosen {
		if _, err := gesture.Preset(settings.Preset); err != nil {
			return err
		}
		return kv.Set(store.SettingPreset, settings.Preset)
	}
	stored, err := kv.Get(store.SettingPreset)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("read preset setting: %w", err)
	default:
		settings.Preset = stored
	}
	return nil
}

// engineConfig resolves the engine configuration. A tuning file wins, then
// the profile selected in the settings table, then the plain preset.
func engineConfig(st *store.Store, settings *config.Settings) (gesture.Config, error) {
	if settings.Tuning != "" {
		t, err := config.LoadTuning(settings.Tuning)
		if err != nil {
			return gesture.Config{}, err
		}
		return t.Config(settings.Preset)
	}

	name, err := st.Settings().Get(store.SettingProfile)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return gesture.Config{}, fmt.Errorf("read profile setting: %w", err)
	}
	if name != "" {
		p, err := st.Profiles().GetByName(name)
		if err != nil {
			return gesture.Config{}, fmt.Errorf("load profile %q: %w", name, err)
		}
		t, err := config.ParseTuning(p.Tuning)
		if err != nil {
			return gesture.Config{}, fmt.Errorf("profile %q: %w", name, err)
		}
		return t.Config(settings.Preset)
	}

	return gesture.Preset(settings.Preset)
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.padam/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWeb := filepath.Join(home, ".padam", "web")
	if info, err := os.Stat(homeWeb); err == nil && info.IsDir() {
		return homeWeb
	}
	return ""
}
