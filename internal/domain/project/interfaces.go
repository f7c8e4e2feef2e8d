package project

import (
	"context"
	"time"

	"github.com/rpggio/phaseboard/internal/domain/activity"
	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/quote"
)

// Repository provides persistence for projects. UpdateDerivedPhase and
// SetOverride each write a single row in one statement and touch disjoint columns.
type Repository interface {
	Create(ctx context.Context, tenantID string, proj *Project) error
	Get(ctx context.Context, tenantID, id string) (*Project, error)
	List(ctx context.Context, tenantID string, opts ListOptions) ([]Project, error)
	Archive(ctx context.Context, tenantID, id string, at time.Time) error
	UpdateDerivedPhase(ctx context.Context, tenantID, id string, derived phase.Phase, at time.Time) error
	SetOverride(ctx context.Context, tenantID, id string, override *phase.Phase, at time.Time) error
}

// OrderSource loads and links orders.
type OrderSource interface {
	Get(ctx context.Context, tenantID, id string) (*order.Order, error)
	ListByProject(ctx context.Context, tenantID, projectID string) ([]order.Order, error)
	Link(ctx context.Context, tenantID, id, projectID, actor string) (*order.Order, error)
}

// QuoteSource loads and links quotes.
type QuoteSource interface {
	Get(ctx context.Context, tenantID, id string) (*quote.Quote, error)
	ListByProject(ctx context.Context, tenantID, projectID string) ([]quote.Quote, error)
	Link(ctx context.Context, tenantID, id, projectID, actor string) (*quote.Quote, error)
}

// ActivityRepository records phase history.
type ActivityRepository interface {
	Log(ctx context.Context, tenantID string, entry *activity.Entry) error
}
