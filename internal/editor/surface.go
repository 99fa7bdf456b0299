package editor

import (
	"log/slog"
	"sync"
)

// EventType identifies a surface event.
type EventType string

const (
	// Drop fires when content is dropped onto the surface.
	Drop EventType = "drop"

	// Paste fires when clipboard content is pasted into the surface.
	Paste EventType = "paste"
)

// Event is dispatched to surface listeners.
type Event interface {
	Type() EventType
}

// Cancelable is implemented by events whose default handling can be suppressed.
type Cancelable interface {
	DefaultPrevented() bool
}

// Listener handles a surface event. Listeners run synchronously on the
// dispatching goroutine.
type Listener func(Event)

// Surface is an event target, the root element of an editor.
type Surface interface {
	AddEventListener(eventType EventType, listener Listener)

	// Dispatch delivers the event to every listener registered for its type
	// and reports whether default handling should proceed.
	Dispatch(event Event) bool
}

// EventTarget is the default Surface implementation.
type EventTarget struct {
	mu        sync.RWMutex
	listeners map[EventType][]Listener
	logger    *slog.Logger
}

// NewEventTarget creates an empty event target.
func NewEventTarget(logger *slog.Logger) *EventTarget {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventTarget{
		listeners: make(map[EventType][]Listener),
		logger:    logger,
	}
}

// AddEventListener registers a listener for eventType.
func (t *EventTarget) AddEventListener(eventType EventType, listener Listener) {
	if listener == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners[eventType] = append(t.listeners[eventType], listener)
}

// Dispatch delivers event to its listeners in registration order.
func (t *EventTarget) Dispatch(event Event) bool {
	t.mu.RLock()
	listeners := append([]Listener(nil), t.listeners[event.Type()]...)
	t.mu.RUnlock()

	for _, l := range listeners {
		t.safeCall(l, event)
	}

	if c, ok := event.(Cancelable); ok {
		return !c.DefaultPrevented()
	}
	return true
}

// ListenerCount returns the number of listeners for eventType.
func (t *EventTarget) ListenerCount(eventType EventType) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.listeners[eventType])
}

func (t *EventTarget) safeCall(l Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("surface listener panicked",
				"event_type", event.Type(),
				"panic", r,
			)
		}
	}()

	l(event)
}
