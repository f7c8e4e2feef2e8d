package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Service reads and appends to the activity log.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Log appends entry, stamping CreatedAt when unset.
func (s *Service) Log(ctx context.Context, tenantID string, entry *Entry) error {
	if entry == nil || entry.ProjectID == "" || !entry.ActivityType.Valid() {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.repo.Log(ctx, tenantID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists entries matching filter, newest first.
func (s *Service) GetRecentActivity(ctx context.Context, tenantID string, filter Filter) ([]Entry, error) {
	if filter.ActivityType != nil && !filter.ActivityType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, *filter.ActivityType)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	}
	switch {
	case filter.Limit == 0:
		filter.Limit = DefaultLimit
	case filter.Limit > MaxLimit:
		filter.Limit = MaxLimit
	}

	entries, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	s.logger.Debug("activity listed", "tenant_id", tenantID, "project_id", filter.ProjectID, "count", len(entries))
	return entries, nil
}
