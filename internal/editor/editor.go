// Package editor defines the host editor contract the ingestion controller
// drives, a module registry for auto-instantiation from editor configuration,
// and an in-memory Document implementation.
package editor

import "errors"

// Source identifies who initiated a change.
type Source string

const (
	// SourceUser marks changes made on behalf of the user.
	SourceUser Source = "user"

	// SourceAPI marks programmatic changes.
	SourceAPI Source = "api"

	// SourceSilent marks changes that should not emit change notifications.
	SourceSilent Source = "silent"
)

// EmbedImage is the embed type used for images.
const EmbedImage = "image"

// ErrIndexOutOfRange is returned when an insertion index is outside the document.
var ErrIndexOutOfRange = errors.New("index out of range")

// Range is a selection within the document.
type Range struct {
	Index  int `json:"index" yaml:"index"`
	Length int `json:"length" yaml:"length"`
}

// Editor is the subset of a rich-text editor the ingestion controller needs.
type Editor interface {
	// Root returns the surface drop and paste listeners attach to.
	Root() Surface

	// GetSelection returns the current selection, or nil when there is none.
	// When focus is true the editor is focused first.
	GetSelection(focus bool) *Range

	// GetLength returns the document length.
	GetLength() int

	// InsertEmbed inserts an atomic embed of embedType at index.
	InsertEmbed(index int, embedType string, value string, source Source) error

	// InsertText inserts literal text at index.
	InsertText(index int, text string, source Source) error

	// SetSelection collapses the selection to index.
	SetSelection(index int, source Source)
}

// CaretPlacer is implemented by editors that can resolve a screen point to
// a document index.
type CaretPlacer interface {
	CaretRangeFromPoint(x, y float64) (int, bool)
}
