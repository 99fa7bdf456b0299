// Package events provides an in-process pub/sub bus for ingestion outcomes,
// so sources and the CLI can observe what the controller did with each item.
package events

import (
	"time"
)

// EventType identifies the type of event being published.
type EventType string

const (
	// ItemInserted is published when the default insertion placed an item.
	ItemInserted EventType = "item.inserted"

	// ItemHandled is published when a custom handler received an item.
	ItemHandled EventType = "item.handled"

	// ItemFailed is published when an item could not be read or transformed.
	ItemFailed EventType = "item.failed"

	// PasteDeferred is published when a paste is left to native handling.
	PasteDeferred EventType = "paste.deferred"

	// SourceFileDetected is published when the drop folder sees a new file.
	SourceFileDetected EventType = "source.file_detected"
)

// Event represents a published event in the system.
type Event struct {
	// Type identifies the event type.
	Type EventType

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Payload contains event-specific data.
	Payload any
}

// NewEvent creates a new event with the given type and payload.
func NewEvent(eventType EventType, payload any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// EventHandler is a function that processes events.
type EventHandler func(event Event)

// ItemEvent describes what happened to a single dropped or pasted item.
type ItemEvent struct {
	// EventID is the ID of the drop or paste event the item belonged to.
	EventID string `json:"event_id"`

	// Origin is "drop" or "paste".
	Origin string `json:"origin"`

	// Kind is "image" or "text".
	Kind string `json:"kind"`

	// MIMEType is the item's MIME type.
	MIMEType string `json:"mime_type"`

	// Index is where the item was inserted; -1 when nothing was inserted.
	Index int `json:"index"`

	// Size is the inserted content length in bytes.
	Size int `json:"size"`

	// Stage names the failing step for ItemFailed ("read", "minify", "insert").
	Stage string `json:"stage,omitempty"`

	// Err is the failure message for ItemFailed.
	Err string `json:"error,omitempty"`
}

// DeferredEvent describes a paste left to the editor's native handling.
type DeferredEvent struct {
	EventID string `json:"event_id"`
	Reason  string `json:"reason"`
}

// FileEvent describes a file picked up by a drop folder.
type FileEvent struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// MIMEType is the detected MIME type.
	MIMEType string `json:"mime_type"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`
}
