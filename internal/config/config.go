// Package config loads the presenter host configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zeusync/xiuli/internal/core/observability/log"
)

// EnvPrefix prefixes every environment override, e.g. XIULI_SERVER_ADDR.
const EnvPrefix = "XIULI"

// Config holds host configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Deck      DeckConfig      `mapstructure:"deck"`
	Presenter PresenterConfig `mapstructure:"presenter"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`

	// CommandLimit caps commands per viewer per second; 0 disables it.
	CommandLimit int `mapstructure:"command_limit"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DeckConfig points at the deck document to present.
type DeckConfig struct {
	Path     string        `mapstructure:"path"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// PresenterConfig holds the token that unlocks navigation commands. An empty
// token lets every viewer navigate.
type PresenterConfig struct {
	Token string `mapstructure:"token"`
}

// Load reads configuration from file and env. An explicit path must exist;
// otherwise XIULI_CONFIG, ./xiuli.yaml and ~/.config/xiuli/config.yaml are
// tried in that order and a missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.command_limit", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("deck.path", "deck.yaml")
	v.SetDefault("deck.watch", false)
	v.SetDefault("deck.debounce", 200*time.Millisecond)
	v.SetDefault("presenter.token", "")

	v.SetConfigType("yaml")

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("xiuli")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "xiuli"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the host cannot start with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return ErrEmptyAddr
	}
	if c.Deck.Path == "" {
		return ErrEmptyDeckPath
	}
	if c.Server.CommandLimit < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCommandLimit, c.Server.CommandLimit)
	}
	if c.Deck.Debounce < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeDebounce, c.Deck.Debounce)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// Logger builds the logger the settings describe.
func (c Config) Logger() (*log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Log.Development {
		return log.NewDevelopment(level), nil
	}
	return log.New(level), nil
}
