// Package client is a Go SDK for the xiuli presenter host. It speaks the
// host's websocket protocol: commands go up, transform and settled frames
// come down.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/xiuli/internal/core/observability/log"
)

// Frame types sent by the host.
const (
	FrameWelcome   = "welcome"
	FrameTransform = "transform"
	FrameSettled   = "settled"
	FrameDeck      = "deck"
	FrameError     = "error"
)

// Frame is a host message.
type Frame struct {
	Type         string          `json:"type"`
	Session      string          `json:"session,omitempty"`
	Presenter    bool            `json:"presenter,omitempty"`
	Slide        string          `json:"slide,omitempty"`
	Index        int             `json:"index"`
	Transform    string          `json:"transform,omitempty"`
	TransitionMS int64           `json:"transition_ms,omitempty"`
	ETag         string          `json:"etag,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Error        string          `json:"error,omitempty"`
}

type command struct {
	Type    string          `json:"type"`
	Slide   string          `json:"slide,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client represents a connection to a presenter host
type Client struct {
	conn    *websocket.Conn
	welcome Frame
	frames  chan Frame

	writeMu sync.Mutex
	errMu   sync.Mutex
	err     error

	closed atomic.Bool
	done   chan struct{}

	config Config
	logger log.Log

	workerGroup sync.WaitGroup
}

// Config holds configuration for the client
type Config struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	FrameBufferSize  int
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		FrameBufferSize:  64,
	}
}

type Option func(*Client)

func WithLogger(l log.Log) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithConfig(config Config) Option {
	return func(c *Client) {
		c.config = config
	}
}

// Dial connects to the host's websocket endpoint, e.g. ws://host:8080/ws,
// and waits for the welcome frame. An empty token joins as a viewer.
func Dial(ctx context.Context, rawURL, token string, opts ...Option) (*Client, error) {
	c := &Client{
		config: DefaultClientConfig(),
		logger: log.NewNop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	defaults := DefaultClientConfig()
	if c.config.FrameBufferSize <= 0 {
		c.config.FrameBufferSize = defaults.FrameBufferSize
	}
	if c.config.WriteTimeout <= 0 {
		c.config.WriteTimeout = defaults.WriteTimeout
	}
	c.frames = make(chan Frame, c.config.FrameBufferSize)

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.config.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", u.Redacted(), err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	c.conn = conn

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	if err = conn.ReadJSON(&c.welcome); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if c.welcome.Type != FrameWelcome {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: expected welcome, got %q", ErrInvalidMessage, c.welcome.Type)
	}

	c.logger = c.logger.With(log.String("component", "client"), log.String("session", c.welcome.Session))
	c.logger.Info("Connected", log.Bool("presenter", c.welcome.Presenter), log.String("slide", c.welcome.Slide))

	c.workerGroup.Add(1)
	go func() {
		defer c.workerGroup.Done()
		c.readLoop()
	}()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.frames)
	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if !c.closed.Load() {
				c.errMu.Lock()
				c.err = err
				c.errMu.Unlock()
				c.logger.Debug("Connection lost", log.Error(err))
			}
			return
		}
		select {
		case c.frames <- f:
		case <-c.done:
			return
		}
	}
}

// Welcome returns the frame the host greeted this connection with.
func (c *Client) Welcome() Frame {
	return c.welcome
}

// Presenter reports whether the host accepted this client's token.
func (c *Client) Presenter() bool {
	return c.welcome.Presenter
}

// Frames delivers host frames after the welcome. It is closed when the
// connection ends.
func (c *Client) Frames() <-chan Frame {
	return c.frames
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Next asks the host to show the following slide.
func (c *Client) Next(payload any) error {
	return c.send(CommandNext, "", payload)
}

// Previous asks the host to show the preceding slide.
func (c *Client) Previous(payload any) error {
	return c.send(CommandPrevious, "", payload)
}

// Goto asks the host to show slideID.
func (c *Client) Goto(slideID string, payload any) error {
	return c.send(CommandGoto, slideID, payload)
}

// Settled reports that this viewer finished the current transition.
func (c *Client) Settled() error {
	return c.send(CommandSettled, "", nil)
}

// Commands understood by the host.
const (
	CommandNext     = "next"
	CommandPrevious = "previous"
	CommandGoto     = "goto"
	CommandSettled  = "settled"
)

func (c *Client) send(kind, slideID string, payload any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	cmd := command{Type: kind, Slide: slideID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		cmd.Payload = raw
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(cmd)
}

// Close ends the connection and waits for the reader to stop.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	err := c.conn.Close()
	c.workerGroup.Wait()
	c.logger.Info("Disconnected")
	return err
}
