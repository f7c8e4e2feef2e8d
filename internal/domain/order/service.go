package order

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

// Service handles order mutations and announces each one so linked projects
// can recompute their phase.
type Service struct {
	repo   Repository
	events event.Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new order service. events may be nil.
func NewService(repo Repository, events event.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, events: events, logger: logger, now: time.Now}
}

// CreateRequest defines order creation inputs.
type CreateRequest struct {
	ProjectID *string
	Number    string
	Status    Status
	CreatedBy string
}

// UpdateStatusRequest moves an order to a new status.
type UpdateStatusRequest struct {
	ID     string
	Status Status
	Actor  string
}

// AddProofRequest attaches a proof to an order.
type AddProofRequest struct {
	OrderID string
	Status  ProofStatus
	Actor   string
}

// SetProofStatusRequest changes a proof's approval state.
type SetProofStatusRequest struct {
	OrderID string
	ProofID string
	Status  ProofStatus
	Actor   string
}

// AddInvoiceRequest bills an order.
type AddInvoiceRequest struct {
	OrderID     string
	AmountCents int64
	Status      InvoiceStatus
	DueDate     *time.Time
	Actor       string
}

// UpdateInvoiceRequest changes an invoice's payment state or due date.
// Nil fields are left unchanged; ClearDueDate removes the due date.
type UpdateInvoiceRequest struct {
	OrderID      string
	InvoiceID    string
	Status       *InvoiceStatus
	DueDate      *time.Time
	ClearDueDate bool
	Actor        string
}

// AddShipmentRequest records a shipment for an order.
type AddShipmentRequest struct {
	OrderID           string
	Carrier           string
	Tracking          string
	EstimatedDelivery *time.Time
	Actor             string
}

// UpdateShipmentRequest advances a shipment's carrier status.
type UpdateShipmentRequest struct {
	OrderID           string
	ShipmentID        string
	Status            ShipmentStatus
	EstimatedDelivery *time.Time
	Actor             string
}

// Create creates an order, optionally linked to a project.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Order, error) {
	if strings.TrimSpace(req.Number) == "" {
		return nil, ErrInvalidInput
	}
	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, ErrInvalidInput
	}

	now := s.now()
	ord := &Order{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		ProjectID: nonEmpty(req.ProjectID),
		Number:    req.Number,
		Status:    status,
		CreatedBy: req.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, tenantID, ord); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrUnknownProject
		}
		return nil, fmt.Errorf("creating order: %w", err)
	}

	s.publish(ctx, event.Event{
		Kind:       event.KindOrderCreated,
		TenantID:   tenantID,
		ProjectIDs: event.Projects(ord.ProjectID),
		EntityID:   ord.ID,
		Actor:      req.CreatedBy,
	})
	return ord, nil
}

// Get fetches an order with its proofs, invoices and shipments.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Order, error) {
	ord, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return ord, nil
}

// ListByProject returns every order linked to a project.
func (s *Service) ListByProject(ctx context.Context, tenantID, projectID string) ([]Order, error) {
	return s.repo.ListByProject(ctx, tenantID, projectID)
}

// UpdateStatus moves an order to a new status.
func (s *Service) UpdateStatus(ctx context.Context, tenantID string, req UpdateStatusRequest) (*Order, error) {
	if req.ID == "" || !req.Status.Valid() {
		return nil, ErrInvalidInput
	}
	ord, err := s.Get(ctx, tenantID, req.ID)
	if err != nil {
		return nil, err
	}
	if ord.Status == req.Status {
		return ord, nil
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, tenantID, ord.ID, req.Status, now); err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}
	ord.Status = req.Status
	ord.UpdatedAt = now

	s.publish(ctx, event.Event{
		Kind:       event.KindOrderStatusChanged,
		TenantID:   tenantID,
		ProjectIDs: event.Projects(ord.ProjectID),
		EntityID:   ord.ID,
		Actor:      req.Actor,
	})
	return ord, nil
}

// Link attaches an order to a project, moving it away from any previous project.
func (s *Service) Link(ctx context.Context, tenantID, id, projectID, actor string) (*Order, error) {
	if id == "" || strings.TrimSpace(projectID) == "" {
		return nil, ErrInvalidInput
	}
	return s.setProject(ctx, tenantID, id, &projectID, actor, event.KindOrderLinked)
}

// Unlink detaches an order from its project.
func (s *Service) Unlink(ctx context.Context, tenantID, id, actor string) (*Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.setProject(ctx, tenantID, id, nil, actor, event.KindOrderUnlinked)
}

func (s *Service) setProject(ctx context.Context, tenantID, id string, projectID *string, actor string, kind event.Kind) (*Order, error) {
	ord, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	previous := ord.ProjectID

	now := s.now()
	if err := s.repo.SetProject(ctx, tenantID, ord.ID, projectID, now); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrUnknownProject
		}
		return nil, fmt.Errorf("linking order: %w", err)
	}
	ord.ProjectID = projectID
	ord.UpdatedAt = now

	s.publish(ctx, event.Event{
		Kind:       kind,
		TenantID:   tenantID,
		ProjectIDs: event.Projects(previous, projectID),
		EntityID:   ord.ID,
		Actor:      actor,
	})
	return ord, nil
}

// AddProof attaches a new proof to an order.
func (s *Service) AddProof(ctx context.Context, tenantID string, req AddProofRequest) (*Proof, error) {
	status := req.Status
	if status == "" {
		status = ProofPending
	}
	if req.OrderID == "" || !status.Valid() {
		return nil, ErrInvalidInput
	}
	ord, err := s.Get(ctx, tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	proof := &Proof{
		ID:        uuid.NewString(),
		OrderID:   ord.ID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.AddProof(ctx, tenantID, proof); err != nil {
		return nil, fmt.Errorf("adding proof: %w", err)
	}

	s.publishChild(ctx, tenantID, ord, event.KindProofChanged, proof.ID, req.Actor)
	return proof, nil
}

// SetProofStatus records the client's decision on a proof.
func (s *Service) SetProofStatus(ctx context.Context, tenantID string, req SetProofStatusRequest) (*Proof, error) {
	if req.OrderID == "" || req.ProofID == "" || !req.Status.Valid() {
		return nil, ErrInvalidInput
	}
	ord, err := s.Get(ctx, tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}

	var proof *Proof
	for i := range ord.Proofs {
		if ord.Proofs[i].ID == req.ProofID {
			proof = &ord.Proofs[i]
			break
		}
	}
	if proof == nil {
		return nil, ErrProofNotFound
	}

	now := s.now()
	if err := s.repo.UpdateProofStatus(ctx, tenantID, proof.ID, req.Status, now); err != nil {
		return nil, fmt.Errorf("updating proof: %w", err)
	}
	proof.Status = req.Status
	proof.UpdatedAt = now

	s.publishChild(ctx, tenantID, ord, event.KindProofChanged, proof.ID, req.Actor)
	return proof, nil
}

// AddInvoice bills an order.
func (s *Service) AddInvoice(ctx context.Context, tenantID string, req AddInvoiceRequest) (*Invoice, error) {
	status := req.Status
	if status == "" {
		status = InvoiceDraft
	}
	if req.OrderID == "" || req.AmountCents < 0 || !status.Valid() {
		return nil, ErrInvalidInput
	}
	ord, err := s.Get(ctx, tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &Invoice{
		ID:          uuid.NewString(),
		OrderID:     ord.ID,
		AmountCents: req.AmountCents,
		Status:      status,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.AddInvoice(ctx, tenantID, inv); err != nil {
		return nil, fmt.Errorf("adding invoice: %w", err)
	}

	s.publishChild(ctx, tenantID, ord, event.KindInvoiceChanged, inv.ID, req.Actor)
	return inv, nil
}

// UpdateInvoice changes an invoice's payment status or due date.
func (s *Service) UpdateInvoice(ctx context.Context, tenantID string, req UpdateInvoiceRequest) (*Invoice, error) {
	if req.OrderID == "" || req.InvoiceID == "" {
		return nil, ErrInvalidInput
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, ErrInvalidInput
	}
	ord, err := s.Get(ctx, tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}

	var inv *Invoice
	for i := range ord.Invoices {
		if ord.Invoices[i].ID == req.InvoiceID {
			inv = &ord.Invoices[i]
			break
		}
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}

	if req.Status != nil {
		inv.Status = *req.Status
	}
	if req.ClearDueDate {
		inv.DueDate = nil
	} else if req.DueDate != nil {
		inv.DueDate = req.DueDate
	}
	inv.UpdatedAt = s.now()

	if err := s.repo.UpdateInvoice(ctx, tenantID, inv); err != nil {
		return nil, fmt.Errorf("updating invoice: %w", err)
	}

	s.publishChild(ctx, tenantID, ord, event.KindInvoiceChanged, inv.ID, req.Actor)
	return inv, nil
}

// AddShipment records a pending shipment for an order.
func (s *Service) AddShipment(ctx context.Context, tenantID string, req AddShipmentRequest) (*Shipment, error) {
	if req.OrderID == "" {
		return nil, ErrInvalidInput
	}
	ord, err := s.Get(ctx, tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}

	shipment := &Shipment{
		ID:                uuid.NewString(),
		OrderID:           ord.ID,
		Status:            ShipmentPending,
		Carrier:           req.Carrier,
		Tracking:          req.Tracking,
		EstimatedDelivery: req.EstimatedDelivery,
		CreatedAt:         s.now(),
	}
	if err := s.repo.AddShipment(ctx, tenantID, shipment); err != nil {
		return nil, fmt.Errorf("adding shipment: %w", err)
	}

	s.publishChild(ctx, tenantID, ord, event.KindShipmentChanged, shipment.ID, req.Actor)
	return shipment, nil
}

// UpdateShipment advances a shipment, stamping ship and delivery times on first entry.
func (s *Service) UpdateShipment(ctx context.Context, tenantID string, req UpdateShipmentRequest) (*Shipment, error) {
	if req.OrderID == "" || req.ShipmentID == "" || !req.Status.Valid() {
		return nil, ErrInvalidInput
	}
	ord, err := s.Get(ctx, tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}

	var shipment *Shipment
	for i := range ord.Shipments {
		if ord.Shipments[i].ID == req.ShipmentID {
			shipment = &ord.Shipments[i]
			break
		}
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}

	now := s.now()
	shipment.Status = req.Status
	if req.EstimatedDelivery != nil {
		shipment.EstimatedDelivery = req.EstimatedDelivery
	}
	if req.Status != ShipmentPending && shipment.ShippedAt == nil {
		shipment.ShippedAt = &now
	}
	if req.Status == ShipmentDelivered && shipment.DeliveredAt == nil {
		shipment.DeliveredAt = &now
	}

	if err := s.repo.UpdateShipment(ctx, tenantID, shipment); err != nil {
		return nil, fmt.Errorf("updating shipment: %w", err)
	}

	s.publishChild(ctx, tenantID, ord, event.KindShipmentChanged, shipment.ID, req.Actor)
	return shipment, nil
}

func (s *Service) publishChild(ctx context.Context, tenantID string, ord *Order, kind event.Kind, entityID, actor string) {
	s.publish(ctx, event.Event{
		Kind:       kind,
		TenantID:   tenantID,
		ProjectIDs: event.Projects(ord.ProjectID),
		EntityID:   entityID,
		Actor:      actor,
	})
}

// publish runs after the mutation is committed, so a failed recompute is logged
// rather than reported as a failed mutation.
func (s *Service) publish(ctx context.Context, evt event.Event) {
	if s.events == nil {
		return
	}
	evt.OccurredAt = s.now()
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Error("order event not fully handled", "kind", evt.Kind, "entity_id", evt.EntityID, "error", err)
	}
}

func nonEmpty(ref *string) *string {
	if ref == nil || strings.TrimSpace(*ref) == "" {
		return nil
	}
	return ref
}
