package event

import (
	"context"
	"time"
)

// Kind names a mutation of a project's linked entities
type Kind string

const (
	KindOrderCreated       Kind = "order.created"
	KindOrderStatusChanged Kind = "order.status_changed"
	KindOrderLinked        Kind = "order.linked"
	KindOrderUnlinked      Kind = "order.unlinked"
	KindProofChanged       Kind = "proof.changed"
	KindInvoiceChanged     Kind = "invoice.changed"
	KindShipmentChanged    Kind = "shipment.changed"
	KindQuoteCreated       Kind = "quote.created"
	KindQuoteStatusChanged Kind = "quote.status_changed"
	KindQuoteLinked        Kind = "quote.linked"
	KindQuoteUnlinked      Kind = "quote.unlinked"
)

// Event describes a committed change to an order, quote or one of their children.
// ProjectIDs lists every project whose derivation inputs may have changed; a re-link
// carries both the previous and the new project.
type Event struct {
	Kind       Kind      `json:"kind"`
	TenantID   string    `json:"tenant_id"`
	ProjectIDs []string  `json:"project_ids"`
	EntityID   string    `json:"entity_id"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Handler consumes events.
type Handler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Publisher emits events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Projects collects the distinct non-empty project IDs from refs, keeping first-seen order.
func Projects(refs ...*string) []string {
	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref == nil || *ref == "" {
			continue
		}
		if _, ok := seen[*ref]; ok {
			continue
		}
		seen[*ref] = struct{}{}
		ids = append(ids, *ref)
	}
	return ids
}
