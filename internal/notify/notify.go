// Package notify raises desktop notifications for drop-folder outcomes.
package notify

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/leefowlercu/imagedrop/internal/events"
)

// AppName titles every notification.
const AppName = "imagedrop"

// Func sends one notification.
type Func func(title, message string) error

// Desktop sends through the platform notification service. The icon is left
// to platform defaults.
func Desktop(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notifier turns drop outcomes on a bus into notifications.
type Notifier struct {
	send   Func
	logger *slog.Logger

	mu      sync.Mutex
	pending string // base name of the last detected file
}

// New creates a Notifier that delivers through send.
func New(send Func, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{send: send, logger: logger.With("component", "notify")}
}

// Attach subscribes to bus and returns the unsubscribe function.
func (n *Notifier) Attach(bus events.Bus) func() {
	return bus.SubscribeAll(n.handle)
}

func (n *Notifier) handle(event events.Event) {
	switch e := event.Payload.(type) {
	case *events.FileEvent:
		n.mu.Lock()
		n.pending = filepath.Base(e.Path)
		n.mu.Unlock()

	case *events.ItemEvent:
		if e.Origin != "drop" {
			return
		}
		name := n.takePending()

		switch event.Type {
		case events.ItemInserted:
			n.deliver(AppName, fmt.Sprintf("Inserted %s at %d", describe(name, e.MIMEType), e.Index))
		case events.ItemFailed:
			n.deliver(AppName+": drop failed", fmt.Sprintf("%s: %s failed: %s", describe(name, e.MIMEType), e.Stage, e.Err))
		}
	}
}

func (n *Notifier) takePending() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	name := n.pending
	n.pending = ""
	return name
}

func (n *Notifier) deliver(title, message string) {
	if err := n.send(title, message); err != nil {
		n.logger.Warn("failed to send notification", "error", err)
	}
}

func describe(name, mimeType string) string {
	if name == "" {
		return mimeType
	}
	return name
}
