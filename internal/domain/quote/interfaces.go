package quote

import (
	"context"
	"time"
)

// Repository provides persistence for quotes.
type Repository interface {
	Create(ctx context.Context, tenantID string, q *Quote) error
	Get(ctx context.Context, tenantID, id string) (*Quote, error)
	ListByProject(ctx context.Context, tenantID, projectID string) ([]Quote, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status Status, at time.Time) error
	SetProject(ctx context.Context, tenantID, id string, projectID *string, at time.Time) error
}
