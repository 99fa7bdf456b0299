package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestSwapHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewSwapHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := context.Background()
	if h.Enabled(ctx, slog.LevelDebug) {
		t.Error("Enabled(Debug) = true, want false at Info level")
	}
	if !h.Enabled(ctx, slog.LevelWarn) {
		t.Error("Enabled(Warn) = false, want true at Info level")
	}
}

func TestSwapHandler_Swap(t *testing.T) {
	var before, after bytes.Buffer
	h := NewSwapHandler(slog.NewTextHandler(&before, nil))
	logger := slog.New(h)

	logger.Info("dropped file", "name", "cat.png")
	h.Swap(slog.NewTextHandler(&after, nil))
	logger.Info("pasted url", "url", "https://example.com/a.png")

	if !strings.Contains(before.String(), "name=cat.png") || strings.Contains(before.String(), "pasted url") {
		t.Errorf("first handler output = %q", before.String())
	}
	if !strings.Contains(after.String(), "pasted url") || strings.Contains(after.String(), "dropped file") {
		t.Errorf("second handler output = %q", after.String())
	}
}

func TestSwapHandler_DerivedLoggersFollowSwap(t *testing.T) {
	var before, after bytes.Buffer
	h := NewSwapHandler(slog.NewTextHandler(&before, nil))

	derived := slog.New(h).With("command", "drop").WithGroup("item")
	derived.Info("inserted", "index", 3)

	h.Swap(slog.NewTextHandler(&after, nil))
	derived.Info("inserted", "index", 4)

	if !strings.Contains(before.String(), "item.index=3") {
		t.Errorf("before swap = %q", before.String())
	}
	out := after.String()
	if !strings.Contains(out, "command=drop") || !strings.Contains(out, "item.index=4") {
		t.Errorf("derived logger did not follow swap; got %q", out)
	}
}

func TestSwapHandler_SwapFromDerived(t *testing.T) {
	var before, after bytes.Buffer
	root := NewSwapHandler(slog.NewTextHandler(&before, nil))
	derived := root.WithAttrs([]slog.Attr{slog.String("source", "watch")}).(*SwapHandler)

	derived.Swap(slog.NewTextHandler(&after, nil))
	slog.New(root).Info("root record")

	if !strings.Contains(after.String(), "root record") {
		t.Errorf("root did not see swap made through derived handler; got %q", after.String())
	}
}

func TestSwapHandler_EmptyDerivationsReturnSelf(t *testing.T) {
	h := NewSwapHandler(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if h.WithAttrs(nil) != slog.Handler(h) {
		t.Error("WithAttrs(nil) returned a new handler")
	}
	if h.WithGroup("") != slog.Handler(h) {
		t.Error(`WithGroup("") returned a new handler`)
	}
}

func TestSwapHandler_ConcurrentSwap(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	h := NewSwapHandler(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &buf}, nil))
	logger := slog.New(h).With("command", "serve")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			logger.Info("event")
		}()
		go func() {
			defer wg.Done()
			h.Swap(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &buf}, nil))
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if got := strings.Count(buf.String(), "msg=event"); got != 8 {
		t.Errorf("records written = %d, want 8", got)
	}
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
