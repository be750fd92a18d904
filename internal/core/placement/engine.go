// Package placement arranges slides in a shared 3D space and moves a
// container so that the requested slide ends up centred and untransformed in
// front of the viewer.
//
// Every registered slide gets a world transform: the inverse of its own
// placement (origin correction, authored transform, centring offset)
// composed with the container's base transform. Navigating applies that
// world transform to the container. The host animates the change and reports
// completion through Settle, which feeds the single OnSettled handler.
//
// An Engine is not safe for concurrent use; hosts that drive one engine from
// several goroutines serialise access themselves.
package placement

import (
	"fmt"
	"slices"

	"github.com/zeusync/xiuli/internal/core/events/bus"
	"github.com/zeusync/xiuli/internal/core/observability/log"
	"github.com/zeusync/xiuli/pkg/mat4"
)

// noSlide is the cursor value before the first navigation.
const noSlide = -1

type Engine struct {
	container Container
	root      Root
	base      mat4.Matrix4

	ids   []string
	index map[string]int
	world map[string]mat4.Matrix4

	current int
	payload any
	pending bool
	handler SettledHandler

	stats  Stats
	logger log.Log
	bus    bus.EventBus
}

// New creates an engine driving container inside root. The container's
// authored transform is captured here once as the base transform.
func New(container Container, root Root, opts ...Option) (*Engine, error) {
	if container == nil {
		return nil, ErrNilContainer
	}
	if root == nil {
		return nil, ErrNilRoot
	}
	e := &Engine{
		container: container,
		root:      root,
		base:      container.InitialTransform(),
		index:     make(map[string]int),
		world:     make(map[string]mat4.Matrix4),
		current:   noSlide,
		logger:    log.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Register computes and stores the world transform of slide. A slide whose
// placement cannot be inverted is rejected with an error wrapping
// mat4.ErrSingular and leaves the registry untouched. Registering an id
// again replaces its transform and keeps its position in the sequence.
// When initial is set the engine navigates to the slide right away.
func (e *Engine) Register(slide Slide, initial bool) error {
	if slide.ID == "" {
		return ErrEmptySlideID
	}

	world, err := e.worldTransform(slide)
	if err != nil {
		e.logger.Warn("slide registration failed", log.String("slide", slide.ID), log.Error(err))
		return fmt.Errorf("register slide %q: %w", slide.ID, err)
	}

	idx, known := e.index[slide.ID]
	if !known {
		idx = len(e.ids)
		e.ids = append(e.ids, slide.ID)
		e.index[slide.ID] = idx
	}
	e.world[slide.ID] = world
	e.stats.Registered++

	e.logger.Debug("slide registered",
		log.String("slide", slide.ID),
		log.Int("index", idx),
		log.Float64("width", slide.Size.Width),
		log.Float64("height", slide.Size.Height),
		log.Bool("replaced", known),
	)
	e.publish(EventSlideRegistered, RegisteredEvent{SlideID: slide.ID, Index: idx})

	if initial {
		e.Navigate(slide.ID, nil)
	}
	return nil
}

// worldTransform returns base * inverse(T(origin) * local * T(offset)) where
// offset moves the slide's origin back and centres the slide in the root.
func (e *Engine) worldTransform(slide Slide) (mat4.Matrix4, error) {
	secTr := mat4.Multiply(mat4.FromTranslation(slide.Origin), slide.Transform)

	rootSize := e.root.Size()
	offset := mat4.Negate(slide.Origin)
	offset[0] -= (rootSize.Width - slide.Size.Width) / 2
	offset[1] -= (rootSize.Height - slide.Size.Height) / 2
	secTr = mat4.Multiply(secTr, mat4.FromTranslation(offset))

	inv, err := mat4.Invert(secTr)
	if err != nil {
		return mat4.Matrix4{}, err
	}
	return mat4.Multiply(e.base, inv), nil
}

// Navigate moves the container to slideID and records payload for the next
// settle delivery. Unknown ids are ignored: nothing is applied, the cursor
// stays and no delivery is scheduled.
func (e *Engine) Navigate(slideID string, payload any) {
	idx, ok := e.index[slideID]
	if !ok {
		e.stats.Ignored++
		e.logger.Debug("navigation to unknown slide ignored", log.String("slide", slideID))
		return
	}

	e.container.ApplyTransform(e.world[slideID])
	e.payload = payload
	e.pending = true
	e.current = idx
	e.stats.Navigations++

	e.logger.Debug("navigated", log.String("slide", slideID), log.Int("index", idx), log.Any("payload", payload))
	e.publish(EventSlideNavigated, NavigatedEvent{SlideID: slideID, Index: idx, Payload: payload})
}

// Previous navigates to the slide before the current one, wrapping to the
// last slide. Before any navigation it goes to the last slide.
func (e *Engine) Previous(payload any) {
	n := len(e.ids)
	if n == 0 {
		return
	}
	next := e.current - 1
	if next < 0 {
		next = n - 1
	}
	e.Navigate(e.ids[next], payload)
}

// Next navigates to the slide after the current one, wrapping to the first.
func (e *Engine) Next(payload any) {
	n := len(e.ids)
	if n == 0 {
		return
	}
	e.Navigate(e.ids[(e.current+1)%n], payload)
}

// OnSettled installs the completion handler, replacing any previous one.
// A nil handler removes it.
func (e *Engine) OnSettled(handler SettledHandler) {
	e.handler = handler
}

// Settle is the host's completion signal for the transition started by the
// last navigation. It delivers the target and payload to the handler once;
// further signals before the next navigation are ignored. It reports whether
// a delivery happened. A pending completion with no handler installed is
// consumed without delivery.
func (e *Engine) Settle() bool {
	if !e.pending {
		return false
	}
	slideID := e.ids[e.current]
	payload := e.payload
	e.pending = false
	e.payload = nil

	handler := e.handler
	if handler == nil {
		return false
	}
	e.stats.Settled++
	e.logger.Debug("transition settled", log.String("slide", slideID))
	e.publish(EventSlideSettled, SettledEvent{SlideID: slideID, Payload: payload})
	handler(slideID, payload)
	return true
}

// Pending reports whether a navigation is waiting for its completion signal.
func (e *Engine) Pending() bool {
	return e.pending
}

// Current returns the slide under the cursor. ok is false before the first
// navigation.
func (e *Engine) Current() (slideID string, index int, ok bool) {
	if e.current == noSlide {
		return "", noSlide, false
	}
	return e.ids[e.current], e.current, true
}

// Len returns the number of registered slides.
func (e *Engine) Len() int {
	return len(e.ids)
}

// IDs returns the slide ids in navigation order.
func (e *Engine) IDs() []string {
	return slices.Clone(e.ids)
}

// WorldTransform returns the stored world transform of slideID.
func (e *Engine) WorldTransform(slideID string) (mat4.Matrix4, bool) {
	m, ok := e.world[slideID]
	return m, ok
}

// Base returns the container transform captured at construction.
func (e *Engine) Base() mat4.Matrix4 {
	return e.base
}

func (e *Engine) Stats() Stats {
	return e.stats
}

func (e *Engine) publish(eventType string, data any) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(bus.NewEvent(eventType, eventSource, data)); err != nil {
		e.logger.Warn("event handler failed", log.String("event", eventType), log.Error(err))
	}
}
