package placement

import (
	"github.com/zeusync/xiuli/internal/core/events/bus"
	"github.com/zeusync/xiuli/internal/core/observability/log"
)

// Event types published on the optional bus.
const (
	EventSlideRegistered = "slide.registered"
	EventSlideNavigated  = "slide.navigated"
	EventSlideSettled    = "slide.settled"
)

// eventSource identifies the engine as publisher.
const eventSource = "placement"

// NavigatedEvent is the data of an EventSlideNavigated event.
type NavigatedEvent struct {
	SlideID string
	Index   int
	Payload any
}

// SettledEvent is the data of an EventSlideSettled event.
type SettledEvent struct {
	SlideID string
	Payload any
}

// RegisteredEvent is the data of an EventSlideRegistered event.
type RegisteredEvent struct {
	SlideID string
	Index   int
}

type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l log.Log) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBus publishes engine activity on b.
func WithBus(b bus.EventBus) Option {
	return func(e *Engine) {
		e.bus = b
	}
}
