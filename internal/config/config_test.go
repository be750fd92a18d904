package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/xiuli/internal/core/observability/log"
)

// isolate keeps the developer's own config and environment out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvPrefix+"_CONFIG", "")
	for _, key := range []string{"SERVER_ADDR", "LOG_LEVEL", "DECK_PATH", "DECK_WATCH", "PRESENTER_TOKEN"} {
		t.Setenv(EnvPrefix+"_"+key, "")
		require.NoError(t, os.Unsetenv(EnvPrefix+"_"+key))
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 5*time.Second, c.Server.ReadHeaderTimeout)
	assert.Equal(t, 20, c.Server.CommandLimit)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "deck.yaml", c.Deck.Path)
	assert.False(t, c.Deck.Watch)
	assert.Equal(t, 200*time.Millisecond, c.Deck.Debounce)
	assert.Empty(t, c.Presenter.Token)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "xiuli.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 127.0.0.1:9000
  allowed_origins: [https://slides.example]
log:
  level: debug
deck:
  path: talks/intro.yaml
  debounce: 50ms
presenter:
  token: from-file
`), 0o600))
	t.Setenv("XIULI_PRESENTER_TOKEN", "from-env")
	t.Setenv("XIULI_DECK_WATCH", "true")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.Equal(t, []string{"https://slides.example"}, c.Server.AllowedOrigins)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "talks/intro.yaml", c.Deck.Path)
	assert.Equal(t, 50*time.Millisecond, c.Deck.Debounce)
	assert.True(t, c.Deck.Watch)
	assert.Equal(t, "from-env", c.Presenter.Token)
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: :7000\n"), 0o600))
	t.Setenv("XIULI_CONFIG", path)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.Server.Addr)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)

	t.Setenv("XIULI_LOG_LEVEL", "loud")
	_, err := Load("")
	assert.ErrorIs(t, err, log.ErrUnknownLevel)

	valid := Config{
		Server: ServerConfig{Addr: ":1"},
		Log:    LogConfig{Level: "warn"},
		Deck:   DeckConfig{Path: "d.yaml"},
	}
	require.NoError(t, valid.Validate())

	noAddr := valid
	noAddr.Server.Addr = ""
	assert.ErrorIs(t, noAddr.Validate(), ErrEmptyAddr)

	noDeck := valid
	noDeck.Deck.Path = ""
	assert.ErrorIs(t, noDeck.Validate(), ErrEmptyDeckPath)

	negative := valid
	negative.Deck.Debounce = -time.Second
	assert.ErrorIs(t, negative.Validate(), ErrNegativeDebounce)

	flood := valid
	flood.Server.CommandLimit = -1
	assert.ErrorIs(t, flood.Validate(), ErrNegativeCommandLimit)
}

func TestLogger(t *testing.T) {
	c := Config{Log: LogConfig{Level: "warn", Development: true}}
	l, err := c.Logger()
	require.NoError(t, err)
	assert.Equal(t, log.LevelWarn, l.GetLevel())
}
