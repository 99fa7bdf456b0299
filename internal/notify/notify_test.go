package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/leefowlercu/imagedrop/internal/events"
)

type recorder struct {
	mu    sync.Mutex
	calls [][2]string
	err   error
}

func (r *recorder) send(title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]string{title, message})
	return r.err
}

func publish(t *testing.T, n *Notifier, evts ...events.Event) {
	t.Helper()
	bus := events.NewBus()
	n.Attach(bus)
	for _, e := range evts {
		if err := bus.Publish(context.Background(), e); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestNotifier(t *testing.T) {
	tests := []struct {
		name   string
		events []events.Event
		want   [][2]string
	}{
		{
			name: "inserted drop names the file",
			events: []events.Event{
				events.NewEvent(events.SourceFileDetected, &events.FileEvent{Path: "/inbox/shot.png", MIMEType: "image/png"}),
				events.NewEvent(events.ItemInserted, &events.ItemEvent{Origin: "drop", Kind: "image", MIMEType: "image/png", Index: 3}),
			},
			want: [][2]string{{"imagedrop", "Inserted shot.png at 3"}},
		},
		{
			name: "failed drop",
			events: []events.Event{
				events.NewEvent(events.ItemFailed, &events.ItemEvent{Origin: "drop", MIMEType: "image/gif", Stage: "read", Err: "truncated"}),
			},
			want: [][2]string{{"imagedrop: drop failed", "image/gif: read failed: truncated"}},
		},
		{
			name: "pastes are ignored",
			events: []events.Event{
				events.NewEvent(events.ItemInserted, &events.ItemEvent{Origin: "paste", Kind: "text", MIMEType: "text/plain"}),
				events.NewEvent(events.PasteDeferred, &events.DeferredEvent{Reason: "html"}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			publish(t, New(rec.send, nil), tt.events...)

			if len(rec.calls) != len(tt.want) {
				t.Fatalf("calls = %v, want %v", rec.calls, tt.want)
			}
			for i := range tt.want {
				if rec.calls[i] != tt.want[i] {
					t.Errorf("calls[%d] = %v, want %v", i, rec.calls[i], tt.want[i])
				}
			}
		})
	}
}

func TestNotifier_SendErrorIsLogged(t *testing.T) {
	rec := &recorder{err: errors.New("no notification daemon")}

	publish(t, New(rec.send, nil),
		events.NewEvent(events.ItemInserted, &events.ItemEvent{Origin: "drop", MIMEType: "image/png"}),
	)

	if len(rec.calls) != 1 || !strings.HasPrefix(rec.calls[0][1], "Inserted image/png") {
		t.Errorf("calls = %v", rec.calls)
	}
}
