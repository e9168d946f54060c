package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/padam/internal/config"
	"github.com/ayusman/padam/internal/gesture"
	"github.com/ayusman/padam/internal/log"
	"github.com/ayusman/padam/internal/replay"
)

func newReplayCmd() *cobra.Command {
	var (
		preset   string
		tuning   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "replay <recording.json>...",
		Short: "Run recorded pose sequences through the engine",
		Long: `replay feeds each recording through a fresh engine and prints the
detected moves against the recording's expectations. It exits non-zero when
any expectation is missed or an unexpected move fires.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Init(logLevel, false)
			defer log.Sync()

			failed := 0
			for _, path := range args {
				rec, err := replay.Load(path)
				if err != nil {
					return err
				}
				cfg, err := replayConfig(rec, preset, tuning)
				if err != nil {
					return err
				}
				report, err := replay.Run(cfg, rec, gesture.WithLogger(log.Named("gesture")))
				if err != nil {
					return fmt.Errorf("replay %s: %w", path, err)
				}
				if err := report.Print(cmd.OutOrStdout()); err != nil {
					return err
				}
				if !report.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d recordings failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "preset used when a recording names none")
	cmd.Flags().StringVar(&tuning, "tuning", "", "tuning file applied over the preset")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	return cmd
}

// replayConfig picks the engine configuration for rec: the --preset flag
// wins over the recording's own preset, the default preset is the last
// resort, and a tuning file is applied on top.
func replayConfig(rec *replay.Recording, preset, tuningPath string) (gesture.Config, error) {
	name := preset
	if name == "" {
		name = rec.Preset
	}
	if name == "" {
		name = gesture.DefaultConfig().Preset
	}
	if tuningPath == "" {
		return gesture.Preset(name)
	}

	t, err := config.LoadTuning(tuningPath)
	if err != nil {
		return gesture.Config{}, err
	}
	if preset != "" {
		t.Preset = &preset
	}
	return t.Config(name)
}
