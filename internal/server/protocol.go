package server

import "encoding/json"

// Commands sent by clients.
const (
	CommandNext     = "next"
	CommandPrevious = "previous"
	CommandGoto     = "goto"
	CommandSettled  = "settled"
)

// Frames sent by the host.
const (
	FrameWelcome   = "welcome"
	FrameTransform = "transform"
	FrameSettled   = "settled"
	FrameDeck      = "deck"
	FrameError     = "error"
)

// Command is a client message. Settled is the viewer's transitionend report;
// the others move the deck and need the presenter token.
type Command struct {
	Type    string          `json:"type"`
	Slide   string          `json:"slide,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (c Command) payload() any {
	if len(c.Payload) == 0 {
		return nil
	}
	return c.Payload
}

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

// Layout is the GET /deck document.
type Layout struct {
	Name         string        `json:"name,omitempty"`
	Width        float64       `json:"width"`
	Height       float64       `json:"height"`
	Container    string        `json:"container"`
	TransitionMS int64         `json:"transition_ms"`
	Slides       []LayoutSlide `json:"slides"`
}

// LayoutSlide carries the CSS a viewer needs to place one slide and the
// container transform that brings it into view.
type LayoutSlide struct {
	ID        string  `json:"id"`
	Index     int     `json:"index"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Transform string  `json:"transform"`
	Origin    string  `json:"origin"`
	World     string  `json:"world"`
}
