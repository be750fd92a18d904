package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus. The placement engine
// publishes registration, navigation and settle notifications on it so that
// hosts can observe a deck without holding the engine's single settle slot.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Synchronous delivery: Publish calls handlers in the caller goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Observability: delivery counters plus optional observer callbacks.
type EventBus interface {
	// Publish delivers the event synchronously to all active subscribers of
	// event.Type(). If one or more handlers return an error, a joined error
	// is returned.
	Publish(event Event) error
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error

	// AddObserver registers an observer to receive delivery callbacks.
	AddObserver(obs EventBusObserver)
	// RemoveObserver unregisters a previously added observer.
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of the delivery counters.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries. Observers should return quickly.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, durationMicros int64)
}

// EventBusMetrics counts deliveries since the bus was created.
type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
