package events

import (
	"context"
	"sync"

	"github.com/cassiomorais/reconciler/internal/domain/order"
	"github.com/cassiomorais/reconciler/internal/domain/pending"
	"github.com/rs/zerolog"
)

// Payload carries the order and pending-authorization record a reconciliation
// event is about.
type Payload struct {
	Order                *order.Order
	PendingAuthorization *pending.Authorization
}

// Listener handles a dispatched event. Listener errors are logged and never
// propagated to the dispatcher.
type Listener func(ctx context.Context, payload Payload) error

// Bus is a synchronous in-process publish-subscribe bus. The reconciler only
// publishes; listeners are registered by the composition root.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	logger    zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

// Subscribe registers a listener for the named event.
func (b *Bus) Subscribe(name string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[name] = append(b.listeners[name], l)
}

// Dispatch invokes every listener registered for the named event, in
// registration order. Fire-and-forget: failures are logged, not returned.
func (b *Bus) Dispatch(ctx context.Context, name string, payload Payload) {
	b.mu.RLock()
	listeners := b.listeners[name]
	b.mu.RUnlock()

	for _, l := range listeners {
		if err := l(ctx, payload); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", name).
				Msg("Event listener failed")
		}
	}
}
