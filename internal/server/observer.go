package server

import (
	"github.com/zeusync/xiuli/internal/core/events/bus"
	"github.com/zeusync/xiuli/internal/core/observability/log"
)

// busLogger reports engine events and failing bus handlers.
type busLogger struct {
	logger log.Log
}

func (o busLogger) OnPublish(eventType string, event bus.Event) {
	o.logger.Debug("Engine event", log.String("type", eventType), log.String("source", event.Source()))
}

func (o busLogger) OnDelivered(eventType string, handlers int, err error, durationMicros int64) {
	if err == nil {
		return
	}
	o.logger.Warn("Event handler failed",
		log.String("type", eventType),
		log.Int("handlers", handlers),
		log.Int("duration_us", int(durationMicros)),
		log.Error(err))
}
