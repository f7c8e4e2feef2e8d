package project

import (
	"context"
	"sort"
	"time"

	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
)

// Summary is the read view of a project. It is computed on every read and
// never stored.
type Summary struct {
	Project            Project     `json:"project"`
	EffectivePhase     phase.Phase `json:"effective_phase"`
	DerivedPhase       phase.Phase `json:"derived_phase"`
	StoredPhase        phase.Phase `json:"stored_phase"`
	Stale              bool        `json:"stale"`
	OverrideActive     bool        `json:"override_active"`
	OrderCount         int         `json:"order_count"`
	QuoteCount         int         `json:"quote_count"`
	Progress           int         `json:"progress"`
	TotalInvoicedCents int64       `json:"total_invoiced_cents"`
	TotalQuotedCents   int64       `json:"total_quoted_cents"`
	NextDelivery       *time.Time  `json:"next_delivery,omitempty"`
	Contributors       []string    `json:"contributors"`
}

// BuildSummary computes the summary of proj from its links at now.
func BuildSummary(proj Project, links Links, now time.Time) Summary {
	derived := links.DerivePhase(now)
	sum := Summary{
		Project:        proj,
		EffectivePhase: phase.Effective(proj.PhaseOverride, derived),
		DerivedPhase:   derived,
		StoredPhase:    proj.DerivedPhase,
		Stale:          derived != proj.DerivedPhase,
		OverrideActive: proj.PhaseOverride != nil,
		OrderCount:     len(links.Orders),
		QuoteCount:     len(links.Quotes),
		Progress:       phase.ProgressOf(links.Orders),
	}

	contributors := map[string]struct{}{}
	addContributor := func(ref string) {
		if ref != "" {
			contributors[ref] = struct{}{}
		}
	}
	addContributor(proj.CreatedBy)

	for _, o := range links.Orders {
		addContributor(o.CreatedBy)
		if o.Status == order.StatusCancelled {
			continue
		}
		for _, inv := range o.Invoices {
			if inv.Status != order.InvoiceVoid {
				sum.TotalInvoicedCents += inv.AmountCents
			}
		}
		for _, sh := range o.Shipments {
			if sh.Status == order.ShipmentDelivered || sh.EstimatedDelivery == nil {
				continue
			}
			if sum.NextDelivery == nil || sh.EstimatedDelivery.Before(*sum.NextDelivery) {
				eta := *sh.EstimatedDelivery
				sum.NextDelivery = &eta
			}
		}
	}

	for _, q := range links.Quotes {
		addContributor(q.CreatedBy)
		if !q.Status.Lost() {
			sum.TotalQuotedCents += q.TotalCents
		}
	}

	sum.Contributors = make([]string, 0, len(contributors))
	for ref := range contributors {
		sum.Contributors = append(sum.Contributors, ref)
	}
	sort.Strings(sum.Contributors)
	return sum
}

// Summary loads a project with its links and builds its summary.
func (s *Service) Summary(ctx context.Context, tenantID, id string) (*Summary, error) {
	proj, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	links, err := s.Links(ctx, tenantID, proj.ID)
	if err != nil {
		return nil, err
	}
	sum := BuildSummary(*proj, links, s.now())
	return &sum, nil
}

// ListSummaries builds summaries for every project matching opts.
func (s *Service) ListSummaries(ctx context.Context, tenantID string, opts ListOptions) ([]Summary, error) {
	projects, err := s.List(ctx, tenantID, opts)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Summary, 0, len(projects))
	for _, proj := range projects {
		links, err := s.Links(ctx, tenantID, proj.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, BuildSummary(proj, links, now))
	}
	return out, nil
}
