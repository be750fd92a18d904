package server

import (
	"encoding/json"
	"net/http"

	"github.com/zeusync/xiuli/internal/core/observability/log"
)

// Handler routes the websocket endpoint, the layout document and the health
// check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /deck", s.handleDeck)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	layout, etag := s.layout, s.etag
	s.mu.Unlock()

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(layout); err != nil {
		s.logger.Debug("Failed to write layout", log.Error(err))
	}
}

type health struct {
	Status   string `json:"status"`
	Slides   int    `json:"slides"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.GetStats()

	s.mu.Lock()
	slides := s.engine.Len()
	s.mu.Unlock()

	status := http.StatusOK
	body := health{Status: "ok", Slides: slides, Sessions: stats.Sessions}
	if s.closed.Load() {
		status = http.StatusServiceUnavailable
		body.Status = "closed"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
