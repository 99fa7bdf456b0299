package events

import (
	"fmt"
	"reflect"
)

var payloadTypes = map[EventType]reflect.Type{
	ItemInserted:       reflect.TypeOf(&ItemEvent{}),
	ItemHandled:        reflect.TypeOf(&ItemEvent{}),
	ItemFailed:         reflect.TypeOf(&ItemEvent{}),
	PasteDeferred:      reflect.TypeOf(&DeferredEvent{}),
	SourceFileDetected: reflect.TypeOf(&FileEvent{}),
}

// PayloadType returns the expected payload type for an event type.
func PayloadType(eventType EventType) (reflect.Type, bool) {
	t, ok := payloadTypes[eventType]
	return t, ok
}

// ValidatePayload verifies that an event payload matches the expected type.
func ValidatePayload(event Event) error {
	if event.Payload == nil {
		return nil
	}

	expected, ok := payloadTypes[event.Type]
	if !ok {
		return fmt.Errorf("no payload mapping for event type %q", event.Type)
	}

	if reflect.TypeOf(event.Payload) != expected {
		return fmt.Errorf("event %q payload type mismatch: got %T, expected %s", event.Type, event.Payload, expected)
	}

	return nil
}
