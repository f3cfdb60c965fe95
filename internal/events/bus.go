// Package events provides the in-process publish/subscribe bus connecting the
// order lifecycle to its consumers (mail notifier, wishlist reconciler).
package events

import (
	"context"
	"sync"

	"toystore/internal/domain"
)

// Handler consumes one event. Handlers run synchronously on the publishing
// goroutine; a handler that blocks delays the request that published.
type Handler func(ctx context.Context, ev domain.Event)

type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.EventKind][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[domain.EventKind][]Handler)}
}

func (b *Bus) Subscribe(kind domain.EventKind, h Handler) {
	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], h)
	b.mu.Unlock()
}

func (b *Bus) Publish(ctx context.Context, ev domain.Event) {
	b.mu.RLock()
	handlers := b.handlers[ev.Kind]
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
