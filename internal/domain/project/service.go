package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/phaseboard/internal/domain/activity"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/repository"
)

// Service handles project operations, phase overrides and recomputation.
type Service struct {
	repo       Repository
	orders     OrderSource
	quotes     QuoteSource
	activities ActivityRepository
	policy     *phase.Policy
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new project service. A nil policy uses phase.DefaultPolicy.
func NewService(
	repo Repository,
	orders OrderSource,
	quotes QuoteSource,
	activities ActivityRepository,
	policy *phase.Policy,
	logger *slog.Logger,
) *Service {
	if policy == nil {
		policy = phase.DefaultPolicy()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		repo:       repo,
		orders:     orders,
		quotes:     quotes,
		activities: activities,
		policy:     policy,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the service clock. Derivation reads the clock to decide
// whether invoices are past due.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Policy returns the transition policy in force.
func (s *Service) Policy() *phase.Policy {
	return s.policy
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ID          string
	Name        string
	Category    Category
	EventDate   *time.Time
	Description string
	ClientID    string
	CreatedBy   string
	OrderIDs    []string
	QuoteIDs    []string
}

// TransitionRequest asks to pin a project to a phase.
type TransitionRequest struct {
	ProjectID string
	Target    phase.Phase
	Role      phase.Role
	Actor     string
}

// Create creates a new project in the Empty phase, links any listed orders and
// quotes, then recomputes its phase.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.ClientID) == "" {
		return nil, ErrInvalidInput
	}
	category := req.Category
	if category == "" {
		category = CategoryOther
	}
	if !category.Valid() {
		return nil, ErrInvalidInput
	}

	if err := s.checkLinkable(ctx, tenantID, req.OrderIDs, req.QuoteIDs); err != nil {
		return nil, err
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	now := s.now()
	proj := &Project{
		ID:           id,
		TenantID:     tenantID,
		Name:         req.Name,
		Category:     category,
		EventDate:    req.EventDate,
		Description:  req.Description,
		ClientID:     req.ClientID,
		CreatedBy:    req.CreatedBy,
		DerivedPhase: phase.Empty,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, tenantID, proj); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrInvalidInput
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}
	s.logActivity(ctx, tenantID, proj.ID, nil, req.CreatedBy, activity.TypeProjectCreated,
		fmt.Sprintf("created project %s", proj.Name), nil)

	for _, orderID := range req.OrderIDs {
		if _, err := s.orders.Link(ctx, tenantID, orderID, proj.ID, req.CreatedBy); err != nil {
			return nil, fmt.Errorf("linking order %s: %w", orderID, err)
		}
	}
	for _, quoteID := range req.QuoteIDs {
		if _, err := s.quotes.Link(ctx, tenantID, quoteID, proj.ID, req.CreatedBy); err != nil {
			return nil, fmt.Errorf("linking quote %s: %w", quoteID, err)
		}
	}

	if len(req.OrderIDs)+len(req.QuoteIDs) > 0 {
		derived, err := s.Recompute(ctx, tenantID, proj.ID)
		if err != nil {
			return nil, err
		}
		proj.DerivedPhase = derived
	}

	return proj, nil
}

// checkLinkable resolves every pre-link before the project row is written so a
// bad id leaves nothing behind.
func (s *Service) checkLinkable(ctx context.Context, tenantID string, orderIDs, quoteIDs []string) error {
	for _, orderID := range orderIDs {
		if _, err := s.orders.Get(ctx, tenantID, orderID); err != nil {
			return fmt.Errorf("linking order %s: %w", orderID, err)
		}
	}
	for _, quoteID := range quoteIDs {
		if _, err := s.quotes.Get(ctx, tenantID, quoteID); err != nil {
			return fmt.Errorf("linking quote %s: %w", quoteID, err)
		}
	}
	return nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns projects matching opts.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]Project, error) {
	return s.repo.List(ctx, tenantID, opts)
}

// Archive soft-deletes a project. Archiving twice is a no-op.
func (s *Service) Archive(ctx context.Context, tenantID, id, actor string) (*Project, error) {
	proj, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if proj.Archived() {
		return proj, nil
	}

	now := s.now()
	if err := s.repo.Archive(ctx, tenantID, id, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("archiving project: %w", err)
	}
	proj.ArchivedAt = &now
	proj.UpdatedAt = now

	s.logActivity(ctx, tenantID, id, nil, actor, activity.TypeProjectArchived,
		fmt.Sprintf("archived project %s", proj.Name), nil)
	return proj, nil
}

// Links loads the orders and quotes currently linked to a project.
func (s *Service) Links(ctx context.Context, tenantID, projectID string) (Links, error) {
	orders, err := s.orders.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		return Links{}, fmt.Errorf("loading orders: %w", err)
	}
	quotes, err := s.quotes.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		return Links{}, fmt.Errorf("loading quotes: %w", err)
	}
	return Links{Orders: orders, Quotes: quotes}, nil
}

// EffectivePhase loads the project and its links and resolves the phase it
// presents right now.
func (s *Service) EffectivePhase(ctx context.Context, tenantID, id string) (phase.Phase, error) {
	proj, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	links, err := s.Links(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	return DeriveEffectivePhase(proj, links, s.now()), nil
}

// RequestTransition pins the project to req.Target when the policy allows it.
// Only phase_override is written; a rejection changes nothing and returns the
// policy error describing why.
func (s *Service) RequestTransition(ctx context.Context, tenantID string, req TransitionRequest) (*Project, error) {
	if req.ProjectID == "" {
		return nil, ErrInvalidInput
	}
	if !req.Target.Valid() {
		return nil, fmt.Errorf("%w: %q", phase.ErrUnknownPhase, req.Target)
	}
	proj, err := s.Get(ctx, tenantID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if proj.Archived() {
		return nil, ErrProjectArchived
	}

	links, err := s.Links(ctx, tenantID, proj.ID)
	if err != nil {
		return nil, err
	}
	current := DeriveEffectivePhase(proj, links, s.now())

	if err := s.policy.Check(current, req.Target, req.Role, links.Activity()); err != nil {
		s.logger.Info("phase transition rejected",
			"project_id", proj.ID, "from", current, "to", req.Target, "role", req.Role, "error", err)
		s.logActivity(ctx, tenantID, proj.ID, nil, req.Actor, activity.TypeTransitionRejected,
			fmt.Sprintf("rejected move from %s to %s", current, req.Target),
			map[string]any{"from": current, "to": req.Target, "role": req.Role, "error": err.Error()})
		return nil, err
	}

	target := req.Target
	now := s.now()
	if err := s.repo.SetOverride(ctx, tenantID, proj.ID, &target, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("setting phase override: %w", err)
	}
	proj.PhaseOverride = &target
	proj.UpdatedAt = now

	s.logger.Info("phase override set", "project_id", proj.ID, "from", current, "to", target, "role", req.Role)
	s.logActivity(ctx, tenantID, proj.ID, nil, req.Actor, activity.TypeOverrideSet,
		fmt.Sprintf("pinned phase %s", target),
		map[string]any{"from": current, "to": target, "role": req.Role})
	return proj, nil
}

// ClearOverride unpins the project so it presents its stored derived phase
// again. Only staff may clear; clearing an unpinned project is a no-op.
func (s *Service) ClearOverride(ctx context.Context, tenantID, projectID string, role phase.Role, actor string) (*Project, error) {
	if !role.CanClearOverride() {
		return nil, fmt.Errorf("%w: %s may not clear overrides", phase.ErrForbiddenRole, role)
	}
	proj, err := s.Get(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	if proj.PhaseOverride == nil {
		return proj, nil
	}
	if proj.Archived() {
		return nil, ErrProjectArchived
	}

	previous := *proj.PhaseOverride
	now := s.now()
	if err := s.repo.SetOverride(ctx, tenantID, proj.ID, nil, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("clearing phase override: %w", err)
	}
	proj.PhaseOverride = nil
	proj.UpdatedAt = now

	s.logger.Info("phase override cleared", "project_id", proj.ID, "was", previous, "derived", proj.DerivedPhase)
	s.logActivity(ctx, tenantID, proj.ID, nil, actor, activity.TypeOverrideCleared,
		fmt.Sprintf("unpinned phase %s", previous),
		map[string]any{"was": previous, "derived": proj.DerivedPhase})
	return proj, nil
}

func (s *Service) logActivity(ctx context.Context, tenantID, projectID string, entityID *string, actor string, typ activity.ActivityType, summary string, details map[string]any) {
	if s.activities == nil {
		return
	}
	entry := &activity.Entry{
		ProjectID:    projectID,
		EntityID:     entityID,
		ActivityType: typ,
		Summary:      summary,
		CreatedAt:    s.now(),
	}
	if actor != "" {
		entry.Actor = &actor
	}
	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			entry.Details = string(data)
		}
	}
	if err := s.activities.Log(ctx, tenantID, entry); err != nil {
		s.logger.Warn("failed to log activity", "project_id", projectID, "type", typ, "error", err)
	}
}
