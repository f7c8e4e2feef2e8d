package activity

import "context"

// Repository stores activity entries. List returns newest first.
type Repository interface {
	Log(ctx context.Context, tenantID string, entry *Entry) error
	List(ctx context.Context, tenantID string, filter Filter) ([]Entry, error)
}
