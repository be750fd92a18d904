package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/websocket"

	"github.com/zeusync/xiuli/internal/core/css"
	"github.com/zeusync/xiuli/internal/core/deck"
	"github.com/zeusync/xiuli/internal/core/events/bus"
	"github.com/zeusync/xiuli/internal/core/observability/log"
	"github.com/zeusync/xiuli/internal/core/placement"
	"github.com/zeusync/xiuli/pkg/mat4"
)

// Server hosts one deck for a room of viewers. It owns the placement engine
// and turns every navigation into a transform frame for the connected
// browsers, which animate the container and report back with settled.
type Server struct {
	config   Config
	logger   log.Log
	bus      bus.EventBus
	auth     *TokenAuth
	upgrader websocket.Upgrader
	navSub   bus.Subscription
	observer bus.EventBusObserver

	// mu serialises every engine call; the engine has no locking of its own
	mu         sync.Mutex
	deck       *deck.Deck
	engine     *placement.Engine
	applied    mat4.Matrix4
	transition time.Duration
	layout     []byte
	etag       string
	mounting   bool

	sessionsMu sync.RWMutex
	sessions   map[string]*ClientSession

	workerGroup sync.WaitGroup
	closed      atomic.Bool
	reloads     atomic.Int64
	framesSent  atomic.Int64
	dropped     atomic.Int64
	limited     atomic.Int64
}

// Config holds server configuration
type Config struct {
	ListenAddr        string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	// PresenterToken unlocks navigation commands. Empty makes every viewer a
	// presenter.
	PresenterToken string
	// AllowedOrigins lists browser origins allowed to open the websocket.
	// Empty keeps the same-origin check; "*" allows any origin.
	AllowedOrigins []string

	SendBufferSize int
	MaxMessageSize int64
	WriteTimeout   time.Duration

	// CommandLimit caps the commands one viewer may send per CommandWindow.
	// Zero disables the limit.
	CommandLimit  int
	CommandWindow time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:        ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		SendBufferSize:    64,
		MaxMessageSize:    64 * 1024,
		WriteTimeout:      10 * time.Second,
		CommandLimit:      20,
		CommandWindow:     time.Second,
	}
}

type Option func(*Server)

func WithLogger(l log.Log) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBus shares the bus the engine publishes on.
func WithBus(b bus.EventBus) Option {
	return func(s *Server) {
		if b != nil {
			s.bus = b
		}
	}
}

// Stats contains server statistics
type Stats struct {
	Sessions   int
	Presenters int
	Reloads    int64
	FramesSent int64
	Dropped    int64
	Limited    int64
	Engine     placement.Stats
	Bus        bus.EventBusMetrics
}

// transformSink adapts a function to deck.Sink.
type transformSink func(m mat4.Matrix4)

func (f transformSink) ApplyTransform(m mat4.Matrix4) { f(m) }

// NewServer mounts d and prepares the host. Nothing listens until Run, and
// Handler can be served by any http.Server.
func NewServer(d *deck.Deck, config Config, opts ...Option) (*Server, error) {
	defaults := DefaultServerConfig()
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = defaults.SendBufferSize
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.CommandWindow <= 0 {
		config.CommandWindow = defaults.CommandWindow
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	s := &Server{
		config:   config,
		logger:   log.NewNop(),
		auth:     &TokenAuth{Token: config.PresenterToken},
		sessions: make(map[string]*ClientSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(log.String("component", "server"))
	if s.bus == nil {
		s.bus = bus.New()
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(config.AllowedOrigins),
	}

	sub, err := s.bus.Subscribe(placement.EventSlideNavigated, s.onNavigated)
	if err != nil {
		return nil, err
	}
	s.navSub = sub
	s.observer = &busLogger{logger: s.logger}
	s.bus.AddObserver(s.observer)

	if err = s.Reload(d); err != nil {
		_ = s.detach()
		return nil, err
	}

	s.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Strings("allowed_origins", config.AllowedOrigins),
		log.Bool("presenter_token", config.PresenterToken != ""))
	return s, nil
}

// Reload mounts d on a fresh engine and swaps it in. Viewers stay on the
// slide they were looking at when the new deck still has it, and are told
// to refetch the layout.
func (s *Server) Reload(d *deck.Deck) error {
	if d == nil {
		return ErrNilDeck
	}
	if s.closed.Load() {
		return ErrServerClosed
	}
	transition, err := d.EffectiveTransitionDuration()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var resume string
	if s.engine != nil {
		resume, _, _ = s.engine.Current()
	}
	previous := s.applied

	s.mounting = true
	engine, err := d.Mount(transformSink(s.apply),
		placement.WithLogger(s.logger),
		placement.WithBus(s.bus))
	if err == nil && resume != "" {
		engine.Navigate(resume, nil)
	}
	s.mounting = false
	if err != nil {
		s.applied = previous
		return fmt.Errorf("mount deck: %w", err)
	}

	layout, err := buildLayout(d, engine, transition)
	if err != nil {
		s.applied = previous
		return err
	}
	engine.OnSettled(s.onSettled)

	first := s.engine == nil
	s.deck = d
	s.engine = engine
	s.transition = transition
	s.layout = layout
	s.etag = fmt.Sprintf("%q", fmt.Sprintf("%016x", xxhash.Sum64(layout)))

	if !first {
		s.reloads.Add(1)
		s.broadcast(Frame{Type: FrameDeck, ETag: s.etag})
		slideID, index, _ := engine.Current()
		s.broadcast(s.transformFrame(slideID, index))
	}
	s.logger.Info("Deck mounted",
		log.String("deck", d.Name),
		log.Int("slides", engine.Len()),
		log.String("etag", s.etag))
	return nil
}

// apply is the engine's container sink. Called with mu held.
func (s *Server) apply(m mat4.Matrix4) {
	s.applied = m
}

// onNavigated runs inside engine calls, so mu is already held.
func (s *Server) onNavigated(event bus.Event) error {
	nav, ok := event.Data().(placement.NavigatedEvent)
	if !ok || s.mounting {
		return nil
	}
	s.broadcast(s.transformFrame(nav.SlideID, nav.Index))
	return nil
}

// onSettled runs inside Settle, so mu is already held.
func (s *Server) onSettled(slideID string, payload any) {
	raw, _ := payload.(json.RawMessage)
	_, index, _ := s.engine.Current()
	s.broadcast(Frame{Type: FrameSettled, Slide: slideID, Index: index, Payload: raw})
}

func (s *Server) transformFrame(slideID string, index int) Frame {
	return Frame{
		Type:         FrameTransform,
		Slide:        slideID,
		Index:        index,
		Transform:    css.FormatTransform(s.applied),
		TransitionMS: s.transition.Milliseconds(),
	}
}

// dispatch applies a client command to the engine.
func (s *Server) dispatch(session *ClientSession, cmd Command) error {
	switch cmd.Type {
	case CommandNext, CommandPrevious, CommandGoto:
		if !session.Presenter {
			return ErrForbidden
		}
	case CommandSettled:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Type {
	case CommandNext:
		s.engine.Next(cmd.payload())
	case CommandPrevious:
		s.engine.Previous(cmd.payload())
	case CommandGoto:
		if _, ok := s.engine.WorldTransform(cmd.Slide); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSlide, cmd.Slide)
		}
		s.engine.Navigate(cmd.Slide, cmd.payload())
	case CommandSettled:
		s.engine.Settle()
	}
	return nil
}

func buildLayout(d *deck.Deck, engine *placement.Engine, transition time.Duration) ([]byte, error) {
	slides, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	doc := Layout{
		Name:         d.Name,
		Width:        d.Root.Width,
		Height:       d.Root.Height,
		Container:    css.FormatTransform(engine.Base()),
		TransitionMS: transition.Milliseconds(),
		Slides:       make([]LayoutSlide, 0, len(slides)),
	}
	for i, slide := range slides {
		world, _ := engine.WorldTransform(slide.ID)
		doc.Slides = append(doc.Slides, LayoutSlide{
			ID:        slide.ID,
			Index:     i,
			Width:     slide.Size.Width,
			Height:    slide.Size.Height,
			Transform: css.FormatTransform(slide.Transform),
			Origin:    fmt.Sprintf("%gpx %gpx %gpx", slide.Origin.X(), slide.Origin.Y(), slide.Origin.Z()),
			World:     css.FormatTransform(world),
		})
	}
	return json.Marshal(doc)
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down and disconnects every viewer.
func (s *Server) Run(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if s.config.ListenAddr == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	}

	httpServer := &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", log.String("addr", s.config.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = s.Close()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	_ = s.Close()
	if listenErr := <-errCh; listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
		return listenErr
	}
	return err
}

// Close disconnects every viewer and waits for their handlers to finish.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.sessionsMu.RLock()
	for _, session := range s.sessions {
		_ = session.conn.Close()
	}
	s.sessionsMu.RUnlock()

	s.workerGroup.Wait()
	err := s.detach()
	s.logger.Info("Server closed")
	return err
}

// detach releases the server's hooks on a bus it may share with others.
func (s *Server) detach() error {
	s.bus.RemoveObserver(s.observer)
	return s.bus.Unsubscribe(s.navSub)
}

// GetStats returns server statistics
func (s *Server) GetStats() Stats {
	stats := Stats{
		Reloads:    s.reloads.Load(),
		FramesSent: s.framesSent.Load(),
		Dropped:    s.dropped.Load(),
		Limited:    s.limited.Load(),
	}

	s.sessionsMu.RLock()
	stats.Sessions = len(s.sessions)
	for _, session := range s.sessions {
		if session.Presenter {
			stats.Presenters++
		}
	}
	s.sessionsMu.RUnlock()

	s.mu.Lock()
	stats.Engine = s.engine.Stats()
	s.mu.Unlock()
	stats.Bus = s.bus.GetMetrics()
	return stats
}
