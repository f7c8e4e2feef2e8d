package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rpggio/phaseboard/internal/domain/activity"
	"github.com/rpggio/phaseboard/internal/domain/event"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/repository"
	"golang.org/x/sync/errgroup"
)

const defaultRecomputeConcurrency = 4

// Recompute derives the project's phase from its current links and persists
// it. Only derived_phase and updated_at are written; the override is never
// touched. Running it twice without intervening changes writes the same value.
func (s *Service) Recompute(ctx context.Context, tenantID, projectID string) (phase.Phase, error) {
	proj, err := s.Get(ctx, tenantID, projectID)
	if err != nil {
		return "", err
	}
	links, err := s.Links(ctx, tenantID, proj.ID)
	if err != nil {
		return "", err
	}

	now := s.now()
	signals := phase.ExtractSignals(links.Orders, links.Quotes, now)
	derived := phase.Derive(signals)

	if err := s.repo.UpdateDerivedPhase(ctx, tenantID, proj.ID, derived, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrProjectNotFound
		}
		return "", fmt.Errorf("storing derived phase: %w", err)
	}

	s.logger.Debug("project recomputed", "project_id", proj.ID, "derived", derived)
	if derived != proj.DerivedPhase {
		s.logger.Info("derived phase changed", "project_id", proj.ID, "from", proj.DerivedPhase, "to", derived)
		s.logActivity(ctx, tenantID, proj.ID, nil, "", activity.TypePhaseDerived,
			fmt.Sprintf("derived phase %s", derived),
			map[string]any{"from": proj.DerivedPhase, "to": derived, "signals": signals})
	}
	return derived, nil
}

// RecomputeReport summarizes a RecomputeAll run.
type RecomputeReport struct {
	Projects int               `json:"projects"`
	Changed  int               `json:"changed"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// RecomputeAll recomputes every non-archived project of a tenant with at most
// concurrency recomputes in flight. A failing project is reported and does not
// stop the others; only listing failures and cancellation are returned as errors.
func (s *Service) RecomputeAll(ctx context.Context, tenantID string, concurrency int) (*RecomputeReport, error) {
	if concurrency <= 0 {
		concurrency = defaultRecomputeConcurrency
	}
	projects, err := s.repo.List(ctx, tenantID, ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	report := &RecomputeReport{Projects: len(projects)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, proj := range projects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			derived, err := s.Recompute(gctx, tenantID, proj.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if report.Failed == nil {
					report.Failed = make(map[string]string)
				}
				report.Failed[proj.ID] = err.Error()
				s.logger.Warn("recompute failed", "project_id", proj.ID, "error", err)
				return nil
			}
			if derived != proj.DerivedPhase {
				report.Changed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	s.logger.Info("recomputed projects", "tenant_id", tenantID, "projects", report.Projects,
		"changed", report.Changed, "failed", len(report.Failed))
	return report, nil
}

// HandleEvent recomputes every project named by evt. It subscribes the service
// to the event bus so each order or quote mutation refreshes derived phases.
func (s *Service) HandleEvent(ctx context.Context, evt event.Event) error {
	typ := activity.TypeOrderChanged
	if strings.HasPrefix(string(evt.Kind), "quote.") {
		typ = activity.TypeQuoteChanged
	}

	var errs []error
	for _, projectID := range evt.ProjectIDs {
		entityID := evt.EntityID
		s.logActivity(ctx, evt.TenantID, projectID, &entityID, evt.Actor, typ, string(evt.Kind), nil)

		if _, err := s.Recompute(ctx, evt.TenantID, projectID); err != nil {
			errs = append(errs, fmt.Errorf("recomputing project %s after %s: %w", projectID, evt.Kind, err))
		}
	}
	return errors.Join(errs...)
}
