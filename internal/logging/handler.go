package logging

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// SwapHandler routes records to a handler that can be replaced at runtime.
// Handlers derived with WithAttrs or WithGroup share the replaceable base, so
// loggers built before an Upgrade (slog.Default().With(...) in a command)
// still reach the log file afterwards.
type SwapHandler struct {
	base  *swapBase
	ops   []func(slog.Handler) slog.Handler
	built atomic.Pointer[builtHandler]
}

type swapBase struct {
	mu      sync.RWMutex
	handler slog.Handler
	gen     uint64
}

// builtHandler caches the base with ops applied for one generation.
type builtHandler struct {
	gen     uint64
	handler slog.Handler
}

// NewSwapHandler creates a SwapHandler starting with initial.
func NewSwapHandler(initial slog.Handler) *SwapHandler {
	return &SwapHandler{base: &swapBase{handler: initial}}
}

// Swap replaces the base handler for h and every handler derived from it.
func (h *SwapHandler) Swap(next slog.Handler) {
	h.base.mu.Lock()
	h.base.handler = next
	h.base.gen++
	h.base.mu.Unlock()
}

func (h *SwapHandler) current() slog.Handler {
	h.base.mu.RLock()
	handler, gen := h.base.handler, h.base.gen
	h.base.mu.RUnlock()

	if b := h.built.Load(); b != nil && b.gen == gen {
		return b.handler
	}
	for _, op := range h.ops {
		handler = op(handler)
	}
	h.built.Store(&builtHandler{gen: gen, handler: handler})
	return handler
}

func (h *SwapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.current().Enabled(ctx, level)
}

func (h *SwapHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

func (h *SwapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *SwapHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *SwapHandler) derive(op func(slog.Handler) slog.Handler) *SwapHandler {
	ops := make([]func(slog.Handler) slog.Handler, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &SwapHandler{base: h.base, ops: append(ops, op)}
}
