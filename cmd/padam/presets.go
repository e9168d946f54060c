package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/padam/internal/gesture"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the detector presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPresets(cmd.OutOrStdout())
		},
	}
}

func printPresets(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESET\tDETECTORS\tMULTIPLE")
	for _, name := range gesture.PresetNames() {
		cfg, err := gesture.Preset(name)
		if err != nil {
			return err
		}
		kinds := make([]string, len(cfg.Detectors))
		for i, k := range cfg.Detectors {
			kinds[i] = string(k)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\n", name, strings.Join(kinds, ","), cfg.AllowMultiple)
	}
	return tw.Flush()
}
