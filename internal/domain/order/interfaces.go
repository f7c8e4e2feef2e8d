package order

import (
	"context"
	"time"
)

// Repository provides persistence for orders and their proofs, invoices and shipments.
// Get and ListByProject return orders with children populated.
type Repository interface {
	Create(ctx context.Context, tenantID string, ord *Order) error
	Get(ctx context.Context, tenantID, id string) (*Order, error)
	ListByProject(ctx context.Context, tenantID, projectID string) ([]Order, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status Status, at time.Time) error
	SetProject(ctx context.Context, tenantID, id string, projectID *string, at time.Time) error
	AddProof(ctx context.Context, tenantID string, proof *Proof) error
	UpdateProofStatus(ctx context.Context, tenantID, proofID string, status ProofStatus, at time.Time) error
	AddInvoice(ctx context.Context, tenantID string, inv *Invoice) error
	UpdateInvoice(ctx context.Context, tenantID string, inv *Invoice) error
	AddShipment(ctx context.Context, tenantID string, shipment *Shipment) error
	UpdateShipment(ctx context.Context, tenantID string, shipment *Shipment) error
}
