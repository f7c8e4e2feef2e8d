package project

import (
	"time"

	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/quote"
)

// Category classifies the kind of goods a project produces
type Category string

const (
	CategoryApparel     Category = "apparel"
	CategoryPromotional Category = "promotional"
	CategorySignage     Category = "signage"
	CategoryPackaging   Category = "packaging"
	CategoryPrint       Category = "print"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryApparel, CategoryPromotional, CategorySignage, CategoryPackaging, CategoryPrint, CategoryOther:
		return true
	}
	return false
}

// Project groups a client initiative's orders and quotes.
// DerivedPhase is written only by recomputation; PhaseOverride only by a
// validated transition or by clearing it.
type Project struct {
	ID            string       `json:"id"`
	TenantID      string       `json:"tenant_id"`
	Name          string       `json:"name"`
	Category      Category     `json:"category"`
	EventDate     *time.Time   `json:"event_date,omitempty"`
	Description   string       `json:"description,omitempty"`
	ClientID      string       `json:"client_id"`
	CreatedBy     string       `json:"created_by"`
	DerivedPhase  phase.Phase  `json:"derived_phase"`
	PhaseOverride *phase.Phase `json:"phase_override,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	ArchivedAt    *time.Time   `json:"archived_at,omitempty"`
}

// EffectivePhase returns the pinned phase if any, else the stored derived phase.
func (p *Project) EffectivePhase() phase.Phase {
	return phase.Effective(p.PhaseOverride, p.DerivedPhase)
}

// Archived reports whether the project has been soft-deleted.
func (p *Project) Archived() bool {
	return p.ArchivedAt != nil
}

// Links holds the orders and quotes currently linked to a project
type Links struct {
	Orders []order.Order
	Quotes []quote.Quote
}

// Activity counts the links for transition prerequisites.
func (l Links) Activity() phase.Activity {
	return phase.Activity{Orders: len(l.Orders), Quotes: len(l.Quotes)}
}

// DerivePhase runs signal extraction and derivation over the links.
func (l Links) DerivePhase(now time.Time) phase.Phase {
	return phase.Derive(phase.ExtractSignals(l.Orders, l.Quotes, now))
}

// DeriveEffectivePhase resolves a project's phase from freshly loaded links:
// the override if pinned, otherwise the phase the links derive to right now.
func DeriveEffectivePhase(proj *Project, links Links, now time.Time) phase.Phase {
	return phase.Effective(proj.PhaseOverride, links.DerivePhase(now))
}

// ListOptions provides filtering options for listing projects.
type ListOptions struct {
	ClientID        string
	Category        Category
	IncludeArchived bool
	Limit           int
	Offset          int
}
