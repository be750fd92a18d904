package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFieldsReachZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), LevelDebug)

	l.With(String("deck", "demo")).Info("slide registered",
		String("slide", "intro"),
		Int("index", 2),
		Float64("x", 1.5),
		Bool("initial", true),
		Duration("took", time.Millisecond),
		Strings("ids", []string{"a", "b"}),
		Error(errors.New("boom")),
		Any("payload", map[string]int{"n": 1}),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "slide registered", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "demo", ctx["deck"])
	assert.Equal(t, "intro", ctx["slide"])
	assert.Equal(t, int64(2), ctx["index"])
	assert.Equal(t, true, ctx["initial"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), LevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	assert.Equal(t, 1, logs.Len())

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.GetLevel())
	l.Debug("now shown")
	assert.Equal(t, 2, logs.Len())
}

func TestNopDiscards(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	l.Error("nothing", Error(errors.New("x")))
	assert.Equal(t, LevelFatal, l.GetLevel())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"fatal":   LevelFatal,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, ErrUnknownLevel)
	assert.Equal(t, "warn", LevelWarn.String())
}
