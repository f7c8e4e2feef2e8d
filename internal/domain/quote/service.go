package quote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/phaseboard/internal/domain/event"
	"github.com/rpggio/phaseboard/internal/repository"
)

// Service handles quote mutations and publishes an event after each one.
type Service struct {
	repo   Repository
	events event.Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new quote service. events may be nil.
func NewService(repo Repository, events event.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, events: events, logger: logger, now: time.Now}
}

// CreateRequest defines quote creation inputs.
type CreateRequest struct {
	ProjectID  *string
	Number     string
	Status     Status
	TotalCents int64
	CreatedBy  string
}

// Create creates a quote, optionally linked to a project.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Quote, error) {
	if strings.TrimSpace(req.Number) == "" || req.TotalCents < 0 {
		return nil, ErrInvalidInput
	}
	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, ErrInvalidInput
	}

	projectID := req.ProjectID
	if projectID != nil && strings.TrimSpace(*projectID) == "" {
		projectID = nil
	}

	now := s.now()
	q := &Quote{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		ProjectID:  projectID,
		Number:     req.Number,
		Status:     status,
		TotalCents: req.TotalCents,
		CreatedBy:  req.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, tenantID, q); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrUnknownProject
		}
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	s.publish(ctx, event.Event{
		Kind:       event.KindQuoteCreated,
		TenantID:   tenantID,
		ProjectIDs: event.Projects(q.ProjectID),
		EntityID:   q.ID,
		Actor:      req.CreatedBy,
	})
	return q, nil
}

// Get fetches a quote by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Quote, error) {
	q, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("getting quote: %w", err)
	}
	return q, nil
}

// ListByProject returns every quote linked to a project.
func (s *Service) ListByProject(ctx context.Context, tenantID, projectID string) ([]Quote, error) {
	return s.repo.ListByProject(ctx, tenantID, projectID)
}

// UpdateStatus moves a quote to a new status.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id string, status Status, actor string) (*Quote, error) {
	if id == "" || !status.Valid() {
		return nil, ErrInvalidInput
	}
	q, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if q.Status == status {
		return q, nil
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, tenantID, q.ID, status, now); err != nil {
		return nil, fmt.Errorf("updating quote status: %w", err)
	}
	q.Status = status
	q.UpdatedAt = now

	s.publish(ctx, event.Event{
		Kind:       event.KindQuoteStatusChanged,
		TenantID:   tenantID,
		ProjectIDs: event.Projects(q.ProjectID),
		EntityID:   q.ID,
		Actor:      actor,
	})
	return q, nil
}

// Link attaches a quote to a project.
func (s *Service) Link(ctx context.Context, tenantID, id, projectID, actor string) (*Quote, error) {
	if id == "" || strings.TrimSpace(projectID) == "" {
		return nil, ErrInvalidInput
	}
	return s.setProject(ctx, tenantID, id, &projectID, actor, event.KindQuoteLinked)
}

// Unlink detaches a quote from its project.
func (s *Service) Unlink(ctx context.Context, tenantID, id, actor string) (*Quote, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.setProject(ctx, tenantID, id, nil, actor, event.KindQuoteUnlinked)
}

func (s *Service) setProject(ctx context.Context, tenantID, id string, projectID *string, actor string, kind event.Kind) (*Quote, error) {
	q, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	previous := q.ProjectID

	now := s.now()
	if err := s.repo.SetProject(ctx, tenantID, q.ID, projectID, now); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrUnknownProject
		}
		return nil, fmt.Errorf("linking quote: %w", err)
	}
	q.ProjectID = projectID
	q.UpdatedAt = now

	s.publish(ctx, event.Event{
		Kind:       kind,
		TenantID:   tenantID,
		ProjectIDs: event.Projects(previous, projectID),
		EntityID:   q.ID,
		Actor:      actor,
	})
	return q, nil
}

func (s *Service) publish(ctx context.Context, evt event.Event) {
	if s.events == nil {
		return
	}
	evt.OccurredAt = s.now()
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Error("quote event not fully handled", "kind", evt.Kind, "entity_id", evt.EntityID, "error", err)
	}
}
