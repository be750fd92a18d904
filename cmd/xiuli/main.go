// Command xiuli computes 3D slide layouts and hosts decks for browsers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeusync/xiuli/internal/core/observability/log"
)

type rootOptions struct {
	verbose bool
}

func (o *rootOptions) logger() *log.Logger {
	if o.verbose {
		return log.NewDevelopment(log.LevelDebug)
	}
	return log.NewNop()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "xiuli",
		Short: "3D slide placement engine and presenter host",
		Long: `xiuli arranges slides in one shared 3D space and moves a container so
that the requested slide faces the viewer. It can print the computed layout
of a deck, preview the built-in presets, or host a deck over websocket.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newLayoutCmd(opts))
	rootCmd.AddCommand(newPresetCmd())
	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
