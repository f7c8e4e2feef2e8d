package mcp

import (
	"time"

	"github.com/rpggio/phaseboard/internal/domain/activity"
	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/project"
	"github.com/rpggio/phaseboard/internal/domain/quote"
)

type CreateProjectParams struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Category    project.Category `json:"category,omitempty"`
	EventDate   *time.Time       `json:"event_date,omitempty"`
	Description string           `json:"description,omitempty"`
	ClientID    string           `json:"client_id"`
	OrderIDs    []string         `json:"order_ids,omitempty"`
	QuoteIDs    []string         `json:"quote_ids,omitempty"`
}

type ProjectIDParams struct {
	ProjectID string `json:"project_id"`
}

type ListProjectsParams struct {
	ClientID        string           `json:"client_id,omitempty"`
	Category        project.Category `json:"category,omitempty"`
	IncludeArchived bool             `json:"include_archived,omitempty"`
	Limit           int              `json:"limit,omitempty"`
	Offset          int              `json:"offset,omitempty"`
}

type ComputeProgressParams struct {
	ProjectID string         `json:"project_id,omitempty"`
	Statuses  []order.Status `json:"statuses,omitempty"`
}

type RequestTransitionParams struct {
	ProjectID string `json:"project_id"`
	Target    string `json:"target"`
}

type RecomputeParams struct {
	ProjectID   string `json:"project_id,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
}

type CreateOrderParams struct {
	ProjectID *string      `json:"project_id,omitempty"`
	Number    string       `json:"number"`
	Status    order.Status `json:"status,omitempty"`
}

type OrderIDParams struct {
	OrderID string `json:"order_id"`
}

type UpdateOrderStatusParams struct {
	OrderID string       `json:"order_id"`
	Status  order.Status `json:"status"`
}

type LinkParams struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
}

type UnlinkParams struct {
	ID string `json:"id"`
}

type AddProofParams struct {
	OrderID string            `json:"order_id"`
	Status  order.ProofStatus `json:"status,omitempty"`
}

type SetProofStatusParams struct {
	OrderID string            `json:"order_id"`
	ProofID string            `json:"proof_id"`
	Status  order.ProofStatus `json:"status"`
}

type AddInvoiceParams struct {
	OrderID     string              `json:"order_id"`
	AmountCents int64               `json:"amount_cents"`
	Status      order.InvoiceStatus `json:"status,omitempty"`
	DueDate     *time.Time          `json:"due_date,omitempty"`
}

type UpdateInvoiceParams struct {
	OrderID      string               `json:"order_id"`
	InvoiceID    string               `json:"invoice_id"`
	Status       *order.InvoiceStatus `json:"status,omitempty"`
	DueDate      *time.Time           `json:"due_date,omitempty"`
	ClearDueDate bool                 `json:"clear_due_date,omitempty"`
}

type AddShipmentParams struct {
	OrderID           string     `json:"order_id"`
	Carrier           string     `json:"carrier,omitempty"`
	Tracking          string     `json:"tracking,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

type UpdateShipmentParams struct {
	OrderID           string               `json:"order_id"`
	ShipmentID        string               `json:"shipment_id"`
	Status            order.ShipmentStatus `json:"status"`
	EstimatedDelivery *time.Time           `json:"estimated_delivery,omitempty"`
}

type CreateQuoteParams struct {
	ProjectID  *string      `json:"project_id,omitempty"`
	Number     string       `json:"number"`
	Status     quote.Status `json:"status,omitempty"`
	TotalCents int64        `json:"total_cents"`
}

type QuoteIDParams struct {
	QuoteID string `json:"quote_id"`
}

type UpdateQuoteStatusParams struct {
	QuoteID string       `json:"quote_id"`
	Status  quote.Status `json:"status"`
}

type ListActivityParams struct {
	ProjectID string                 `json:"project_id,omitempty"`
	Type      *activity.ActivityType `json:"type,omitempty"`
	Since     *time.Time             `json:"since,omitempty"`
	Limit     int                    `json:"limit,omitempty"`
	Offset    int                    `json:"offset,omitempty"`
}

// EffectivePhaseResponse reports the live phase of a project.
type EffectivePhaseResponse struct {
	ProjectID      string      `json:"project_id"`
	EffectivePhase phase.Phase `json:"effective_phase"`
}

// ProgressResponse reports the completion estimate.
type ProgressResponse struct {
	ProjectID string `json:"project_id,omitempty"`
	Progress  int    `json:"progress"`
}

// RecomputeResponse reports a single project recompute.
type RecomputeResponse struct {
	ProjectID    string      `json:"project_id"`
	DerivedPhase phase.Phase `json:"derived_phase"`
}

// TransitionResponse reports the project state after a transition or clear.
type TransitionResponse struct {
	Project        *project.Project `json:"project"`
	EffectivePhase phase.Phase      `json:"effective_phase"`
	OverrideActive bool             `json:"override_active"`
}

func transitionResponse(proj *project.Project) TransitionResponse {
	return TransitionResponse{
		Project:        proj,
		EffectivePhase: proj.EffectivePhase(),
		OverrideActive: proj.PhaseOverride != nil,
	}
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	ProjectID string                `json:"project_id"`
	EntityID  string                `json:"entity_id,omitempty"`
	Actor     string                `json:"actor,omitempty"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}
