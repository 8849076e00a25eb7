package ports

import "github.com/bft-labs/tracescope/internal/domain"

// EventSink receives engine notifications. Emit must not block the engine
// for long; events from one operation are emitted in order.
type EventSink interface {
	Emit(ev domain.Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ev domain.Event)

// Emit calls f(ev).
func (f EventSinkFunc) Emit(ev domain.Event) { f(ev) }

// DiscardEvents is an EventSink that drops every event.
var DiscardEvents EventSink = EventSinkFunc(func(domain.Event) {})
