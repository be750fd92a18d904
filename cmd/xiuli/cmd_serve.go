package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/xiuli/internal/config"
	"github.com/zeusync/xiuli/internal/core/observability/log"
	"github.com/zeusync/xiuli/internal/injector"
)

type serveOptions struct {
	configPath string
	addr       string
	watch      bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve [deck]",
		Short: "Host a deck for browsers over websocket",
		Long: `serve hosts one deck. Viewers connect to /ws and receive the container
transform for every navigation; the layout document is served at /deck.
Settings come from the config file and XIULI_* environment variables; the
deck argument and flags override them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ./xiuli.yaml or ~/.config/xiuli/config.yaml)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Reload the deck when the file changes")
	return cmd
}

// load reads the configuration and applies command line overrides.
func (o *serveOptions) load(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if len(args) == 1 {
		cfg.Deck.Path = args[0]
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = o.addr
	}
	if cmd.Flags().Changed("watch") {
		cfg.Deck.Watch = o.watch
	}
	return cfg, cfg.Validate()
}

func serve(ctx context.Context, cfg config.Config) error {
	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	app.Logger.Info("Starting xiuli",
		log.String("addr", cfg.Server.Addr),
		log.String("deck", cfg.Deck.Path),
		log.Bool("watch", app.Watcher != nil))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Server.Run(ctx)
	})
	if app.Watcher != nil {
		g.Go(func() error {
			return app.Watcher.Run(ctx)
		})
	}
	return g.Wait()
}
