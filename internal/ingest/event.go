package ingest

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/leefowlercu/imagedrop/internal/editor"
)

// DropEvent is content dropped onto the editor at a point.
type DropEvent struct {
	ID    string
	X, Y  float64
	Files []Item

	prevented atomic.Bool
}

// NewDropEvent creates a drop event at (x, y).
func NewDropEvent(x, y float64, files ...Item) *DropEvent {
	return &DropEvent{
		ID:    uuid.NewString(),
		X:     x,
		Y:     y,
		Files: files,
	}
}

// Type returns editor.Drop.
func (e *DropEvent) Type() editor.EventType { return editor.Drop }

// PreventDefault suppresses native drop handling.
func (e *DropEvent) PreventDefault() { e.prevented.Store(true) }

// DefaultPrevented reports whether PreventDefault was called.
func (e *DropEvent) DefaultPrevented() bool { return e.prevented.Load() }

// PasteEvent is clipboard content pasted into the editor.
type PasteEvent struct {
	ID    string
	Items []Item

	prevented atomic.Bool
}

// NewPasteEvent creates a paste event.
func NewPasteEvent(items ...Item) *PasteEvent {
	return &PasteEvent{
		ID:    uuid.NewString(),
		Items: items,
	}
}

// Type returns editor.Paste.
func (e *PasteEvent) Type() editor.EventType { return editor.Paste }

// PreventDefault suppresses native paste handling.
func (e *PasteEvent) PreventDefault() { e.prevented.Store(true) }

// DefaultPrevented reports whether PreventDefault was called.
func (e *PasteEvent) DefaultPrevented() bool { return e.prevented.Load() }
