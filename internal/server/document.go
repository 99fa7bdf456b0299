package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/ingest"
)

// Document is the live document served at /document and fed by /paste.
type Document interface {
	Root() editor.Surface
	Snapshot() editor.Snapshot
}

// Waiter blocks until in-flight items have been inserted.
type Waiter interface {
	Wait()
}

// ReadinessFunc reports whether the process can serve requests, along with
// a status body for /readyz.
type ReadinessFunc func() (ready bool, status any)

// WithDocument mounts /document and /paste for doc. Paste requests wait on
// w before answering.
func WithDocument(doc Document, w Waiter) Option {
	return func(s *Server) {
		s.document = doc
		s.waiter = w
	}
}

// WithReadiness mounts /readyz backed by fn.
func WithReadiness(fn ReadinessFunc) Option {
	return func(s *Server) {
		s.readiness = fn
	}
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ready, status := s.readiness()

	w.Header().Set("Content-Type", "application/json")
	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.document.Snapshot())
}

// handlePaste pastes the request body into the document as a single item and
// answers with the resulting snapshot. Images become file items named by the
// name query parameter; text/plain and text/html become string items.
func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) == 0 {
		writeJSONError(w, http.StatusBadRequest, "request body is empty")
		return
	}

	mimeType := baseMIMEType(requestMIMEType(r, body))

	var item ingest.Item
	switch {
	case ingest.IsImageType(mimeType):
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "upload"
		}
		item = ingest.NewFileItem(name, mimeType, body)
	case ingest.IsPlainText(mimeType), strings.EqualFold(mimeType, "text/html"):
		item = ingest.NewStringItem(mimeType, string(body))
	default:
		writeJSONError(w, http.StatusUnsupportedMediaType, "unsupported content type "+mimeType)
		return
	}

	event := ingest.NewPasteEvent(item)
	s.document.Root().Dispatch(event)
	if s.waiter != nil {
		s.waiter.Wait()
	}

	s.logger.Debug("pasted request body", "event_id", event.ID, "mime_type", mimeType, "bytes", len(body))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.document.Snapshot())
}

func baseMIMEType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}
