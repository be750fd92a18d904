package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLimitWindow(t *testing.T) {
	l := newCommandLimit(2, time.Second)
	now := time.Unix(1000, 0)

	assert.True(t, l.allow(now))
	assert.True(t, l.allow(now.Add(100*time.Millisecond)))
	assert.False(t, l.allow(now.Add(900*time.Millisecond)))
	assert.True(t, l.allow(now.Add(1100*time.Millisecond)), "window resets")
}

func TestCommandLimitDisabled(t *testing.T) {
	var nilLimit *commandLimit
	assert.True(t, nilLimit.allow(time.Now()))

	l := newCommandLimit(0, time.Second)
	for i := 0; i < 100; i++ {
		require.True(t, l.allow(time.Now()))
	}
}

func TestServerRejectsCommandFlood(t *testing.T) {
	srv, err := NewServer(loadDeck(t, testDeck), Config{CommandLimit: 2, CommandWindow: time.Minute})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { require.NoError(t, srv.Close()) })

	conn := dial(t, ts, "")
	readFrame(t, conn)

	for i := 0; i < 3; i++ {
		send(t, conn, `{"type":"settled"}`)
	}
	// mounting navigated to the first slide, so the first settled delivers
	settled := readFrame(t, conn)
	assert.Equal(t, FrameSettled, settled.Type)
	assert.Equal(t, "a", settled.Slide)

	f := readFrame(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, ErrRateLimited.Error(), f.Error)
	assert.Equal(t, int64(1), srv.GetStats().Limited)
}

func TestCommandLimitCountsMalformedMessages(t *testing.T) {
	srv, err := NewServer(loadDeck(t, testDeck), Config{CommandLimit: 2, CommandWindow: time.Minute})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { require.NoError(t, srv.Close()) })

	conn := dial(t, ts, "")
	readFrame(t, conn)

	for i := 0; i < 3; i++ {
		send(t, conn, `not json`)
	}
	for _, want := range []error{ErrInvalidMessage, ErrInvalidMessage, ErrRateLimited} {
		f := readFrame(t, conn)
		assert.Equal(t, FrameError, f.Type)
		assert.Equal(t, want.Error(), f.Error)
	}
	assert.Equal(t, int64(1), srv.GetStats().Limited)
}
