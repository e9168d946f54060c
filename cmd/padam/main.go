// Command padam turns foot and body moves seen by a webcam into keyboard
// and plugin actions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "padam",
		Short: "Foot gesture control from a webcam",
		Long: `padam watches a webcam, tracks body pose and turns steps, jumps,
bends and floor presses into plugin actions such as key presses.

Settings default to the PADAM_* environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newReplayCmd(), newPresetsCmd())
	return root
}
