package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/xiuli/internal/core/css"
	"github.com/zeusync/xiuli/internal/core/observability/log"
)

// ClientSession represents a connected viewer
type ClientSession struct {
	ID          string
	Presenter   bool
	RemoteAddr  string
	ConnectedAt time.Time

	conn      *websocket.Conn
	send      chan []byte
	limit     *commandLimit
	closeOnce sync.Once
}

// enqueue hands data to the writer without blocking. It reports false when
// the viewer is too slow to keep up.
func (c *ClientSession) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *ClientSession) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		// gorilla's same-origin check
		return nil
	}
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.ContainsFunc(allowed, func(a string) bool {
			return strings.EqualFold(strings.TrimSuffix(a, "/"), u.Scheme+"://"+u.Host)
		})
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	defer s.workerGroup.Done()

	presenter, err := s.auth.OnConnect(r)
	if err != nil {
		s.logger.Warn("Rejected connection", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered the request
		s.logger.Warn("Websocket upgrade failed", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		return
	}

	session := &ClientSession{
		ID:          uuid.NewString(),
		Presenter:   presenter,
		RemoteAddr:  r.RemoteAddr,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, s.config.SendBufferSize),
		limit:       newCommandLimit(s.config.CommandLimit, s.config.CommandWindow),
	}

	if !s.register(session) {
		_ = conn.Close()
		return
	}

	s.workerGroup.Add(1)
	go func() {
		defer s.workerGroup.Done()
		s.writePump(session)
	}()

	s.readLoop(session)
}

// track counts a handler in workerGroup unless Close has started. Close flips
// closed before taking sessionsMu, so every tracked handler is added before
// Close waits.
func (s *Server) track() bool {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.workerGroup.Add(1)
	return true
}

// register queues the welcome frame and adds session to the broadcast set in
// one step, so the viewer sees every navigation after its starting position.
func (s *Server) register(session *ClientSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	slideID, index, _ := s.engine.Current()
	welcome := Frame{
		Type:         FrameWelcome,
		Session:      session.ID,
		Presenter:    session.Presenter,
		Slide:        slideID,
		Index:        index,
		Transform:    css.FormatTransform(s.applied),
		TransitionMS: s.transition.Milliseconds(),
		ETag:         s.etag,
	}
	data, err := json.Marshal(welcome)
	if err != nil {
		s.logger.Error("Failed to encode frame", log.Error(err))
		return false
	}
	session.enqueue(data)

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	// Close may have run while this handler was upgrading
	if s.closed.Load() {
		return false
	}
	s.sessions[session.ID] = session

	s.logger.Info("Client connected",
		log.String("client_id", session.ID),
		log.String("remote_addr", session.RemoteAddr),
		log.Bool("presenter", session.Presenter),
		log.Int("total_clients", len(s.sessions)))
	return true
}

func (s *Server) unregister(session *ClientSession) {
	s.sessionsMu.Lock()
	delete(s.sessions, session.ID)
	total := len(s.sessions)
	s.sessionsMu.Unlock()

	session.close()

	s.logger.Info("Client disconnected",
		log.String("client_id", session.ID),
		log.Int("total_clients", total))
}

func (s *Server) readLoop(session *ClientSession) {
	defer s.unregister(session)

	clientLogger := s.logger.With(log.String("client_id", session.ID))
	session.conn.SetReadLimit(s.config.MaxMessageSize)

	for {
		_, data, err := session.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				clientLogger.Debug("Connection lost", log.Error(err))
			}
			return
		}

		if !session.limit.allow(time.Now()) {
			s.limited.Add(1)
			clientLogger.Warn("Rate limit exceeded", log.Int("limit", s.config.CommandLimit))
			s.reply(session, ErrRateLimited)
			continue
		}

		var cmd Command
		if err = json.Unmarshal(data, &cmd); err != nil {
			s.reply(session, ErrInvalidMessage)
			continue
		}

		clientLogger.Debug("Handling command", log.String("type", cmd.Type), log.String("slide", cmd.Slide))
		if err = s.dispatch(session, cmd); err != nil {
			s.reply(session, err)
		}
	}
}

func (s *Server) reply(session *ClientSession, cause error) {
	data, err := json.Marshal(Frame{Type: FrameError, Error: cause.Error()})
	if err != nil {
		return
	}
	if !session.enqueue(data) {
		s.dropped.Add(1)
	}
}

// writePump owns all writes to the connection.
func (s *Server) writePump(session *ClientSession) {
	defer session.conn.Close()

	for data := range session.send {
		_ = session.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := session.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("Failed to send frame", log.String("client_id", session.ID), log.Error(err))
			return
		}
		s.framesSent.Add(1)
	}

	_ = session.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	_ = session.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// broadcast sends frame to every viewer. Viewers whose queue is full are
// disconnected; they resync from the welcome frame when they come back.
func (s *Server) broadcast(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		s.logger.Error("Failed to encode frame", log.Error(err))
		return
	}

	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()

	s.logger.Debug("Broadcasting frame",
		log.String("type", frame.Type),
		log.String("slide", frame.Slide),
		log.Int("clients", len(s.sessions)))

	for _, session := range s.sessions {
		if !session.enqueue(data) {
			s.dropped.Add(1)
			s.logger.Warn("Client too slow, disconnecting", log.String("client_id", session.ID))
			_ = session.conn.Close()
		}
	}
}
