package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Bus dispatches events synchronously to its subscribers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{logger: logger}
}

// Subscribe registers a handler for every subsequent event.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers evt to every handler. All handlers run even if one fails;
// the returned error joins every handler failure.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	b.logger.Debug("publishing event", "kind", evt.Kind, "entity_id", evt.EntityID, "projects", evt.ProjectIDs)

	var errs []error
	for _, h := range handlers {
		if err := h.HandleEvent(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("handling %s: %w", evt.Kind, err))
		}
	}
	return errors.Join(errs...)
}
