package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leefowlercu/imagedrop/internal/events"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
	streamBufferSize   = 64
)

// StreamMessage is one bus event as sent over /events.
type StreamMessage struct {
	Type      events.EventType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   any              `json:"payload,omitempty"`
}

// WithEventStream mounts /events, a websocket that streams bus events.
func WithEventStream(bus events.Bus) Option {
	return func(s *Server) {
		s.bus = bus
	}
}

// WithMCPHandler mounts an MCP transport at path.
func WithMCPHandler(path string, handler http.Handler) Option {
	return func(s *Server) {
		s.mcpPath = path
		s.mcpHandler = handler
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout: streamWriteTimeout,
		CheckOrigin:      func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("event stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	outbox := make(chan StreamMessage, streamBufferSize)
	unsubscribe := s.bus.SubscribeAll(func(event events.Event) {
		msg := StreamMessage{Type: event.Type, Timestamp: event.Timestamp, Payload: event.Payload}
		select {
		case outbox <- msg:
		default:
			s.logger.Warn("event stream client too slow; dropping event", "event_type", event.Type)
		}
	})
	defer unsubscribe()

	// The read loop only watches for the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	s.logger.Debug("event stream opened", "remote", r.RemoteAddr)
	defer s.logger.Debug("event stream closed", "remote", r.RemoteAddr)

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
		case msg := <-outbox:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("event stream write failed", "error", err)
				return
			}
		}
	}
}
