// Package events defines the typed event model and the dispatcher that
// routes events from sources to workflow handlers.
package events

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Event is a typed, timestamped unit of input from any source. It is
// immutable once created; handlers must not mutate the payload.
type Event struct {
	ID        string
	Type      string
	Source    string
	Payload   map[string]any
	Timestamp time.Time
}

// New creates an event with a fresh id, stamped with the current UTC time.
func New(eventType, source string, payload map[string]any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Handler owns one or more event types and produces at most one textual
// result per event.
type Handler interface {
	// EventTypes returns the event types this handler owns.
	EventTypes() []string
	// Handle processes one event. An empty result means "nothing to send".
	Handle(ctx context.Context, event *Event) (string, error)
}

// Source produces events and feeds them into a dispatcher. Start blocks
// until the context is cancelled or Stop is called.
type Source interface {
	Start(ctx context.Context, dispatcher *Dispatcher) error
	Stop()
}

// Dispatcher routes events to the first registered handler that owns the
// event type. Routing is single-owner: registration order decides ties.
type Dispatcher struct {
	handlers []Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register appends a handler to the routing table.
func (d *Dispatcher) Register(handler Handler) {
	d.handlers = append(d.handlers, handler)
	slog.Info("Registered handler", "types", handler.EventTypes())
}

// Dispatch delivers the event to the first handler whose type set contains
// event.Type and returns that handler's result. Events with no owner are
// dropped with a warning.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) (string, error) {
	for _, handler := range d.handlers {
		if slices.Contains(handler.EventTypes(), event.Type) {
			slog.Debug("Dispatching event", "id", event.ID, "type", event.Type, "source", event.Source)
			return handler.Handle(ctx, event)
		}
	}
	slog.Warn("No handler for event type", "type", event.Type)
	return "", nil
}
