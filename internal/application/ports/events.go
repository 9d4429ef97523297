package ports

import "github.com/jbctechsolutions/tilekit/internal/domain/event"

// EventSink receives core events. Publish must not block: sinks that fan out
// to slow consumers buffer or drop internally.
type EventSink interface {
	Publish(e event.Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(e event.Event)

// Publish calls f(e).
func (f EventSinkFunc) Publish(e event.Event) { f(e) }

// NopEventSink discards all events.
type NopEventSink struct{}

// Publish discards the event.
func (NopEventSink) Publish(event.Event) {}
