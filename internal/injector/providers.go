package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/xiuli/internal/config"
	"github.com/zeusync/xiuli/internal/core/deck"
	"github.com/zeusync/xiuli/internal/core/events/bus"
	"github.com/zeusync/xiuli/internal/core/observability/log"
	"github.com/zeusync/xiuli/internal/server"
	"github.com/zeusync/xiuli/internal/watch"
)

// App is everything `xiuli serve` runs. Watcher is nil unless deck.watch is
// enabled.
type App struct {
	Config  config.Config
	Logger  *log.Logger
	Server  *server.Server
	Watcher *watch.DeckWatcher
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideBus,
	ProvideDeck,
	ProvideServerConfig,
	ProvideServer,
	ProvideWatcher,
)

func ProvideLogger(cfg config.Config) (*log.Logger, func(), error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideDeck(cfg config.Config) (*deck.Deck, error) {
	return deck.LoadFile(cfg.Deck.Path)
}

func ProvideServerConfig(cfg config.Config) server.Config {
	sc := server.DefaultServerConfig()
	sc.ListenAddr = cfg.Server.Addr
	sc.ReadHeaderTimeout = cfg.Server.ReadHeaderTimeout
	sc.ShutdownTimeout = cfg.Server.ShutdownTimeout
	sc.AllowedOrigins = cfg.Server.AllowedOrigins
	sc.CommandLimit = cfg.Server.CommandLimit
	sc.PresenterToken = cfg.Presenter.Token
	return sc
}

func ProvideServer(d *deck.Deck, sc server.Config, logger log.Log, b bus.EventBus) (*server.Server, func(), error) {
	srv, err := server.NewServer(d, sc, server.WithLogger(logger), server.WithBus(b))
	if err != nil {
		return nil, nil, err
	}
	return srv, func() { _ = srv.Close() }, nil
}

func ProvideWatcher(cfg config.Config, srv *server.Server, logger log.Log) (*watch.DeckWatcher, error) {
	if !cfg.Deck.Watch {
		return nil, nil
	}
	return watch.NewDeckWatcher(cfg.Deck.Path, srv.Reload,
		watch.WithDebounce(cfg.Deck.Debounce),
		watch.WithLogger(logger))
}
