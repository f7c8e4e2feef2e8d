package order

import "time"

// Status represents where an order sits in the production sequence
type Status string

const (
	StatusDraft         Status = "draft"
	StatusSubmitted     Status = "submitted"
	StatusInReview      Status = "in_review"
	StatusAwaitingProof Status = "awaiting_proof"
	StatusApproved      Status = "approved"
	StatusInProduction  Status = "in_production"
	StatusReady         Status = "ready"
	StatusShipped       Status = "shipped"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

// Sequence lists the non-cancelled statuses in the order an order advances through them.
var Sequence = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusInReview,
	StatusAwaitingProof,
	StatusApproved,
	StatusInProduction,
	StatusReady,
	StatusShipped,
	StatusCompleted,
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	for _, known := range Sequence {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further production work is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusShipped || s == StatusCancelled
}

// ProofStatus represents the approval state of an artwork proof
type ProofStatus string

const (
	ProofPending           ProofStatus = "pending"
	ProofSent              ProofStatus = "sent"
	ProofRevisionRequested ProofStatus = "revision_requested"
	ProofApproved          ProofStatus = "approved"
)

func (s ProofStatus) Valid() bool {
	switch s {
	case ProofPending, ProofSent, ProofRevisionRequested, ProofApproved:
		return true
	}
	return false
}

// AwaitingCustomer reports whether the proof is waiting on a client decision.
func (s ProofStatus) AwaitingCustomer() bool {
	return s == ProofSent || s == ProofRevisionRequested
}

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
	InvoiceVoid  InvoiceStatus = "void"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceVoid:
		return true
	}
	return false
}

// ShipmentStatus represents carrier progress for a shipment
type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "pending"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentPending, ShipmentInTransit, ShipmentDelivered:
		return true
	}
	return false
}

// Order is a production order, optionally linked to a project
type Order struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	ProjectID *string    `json:"project_id,omitempty"`
	Number    string     `json:"number"`
	Status    Status     `json:"status"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Proofs    []Proof    `json:"proofs,omitempty"`
	Invoices  []Invoice  `json:"invoices,omitempty"`
	Shipments []Shipment `json:"shipments,omitempty"`
}

// Proof is an artwork proof sent to the client for sign-off
type Proof struct {
	ID        string      `json:"id"`
	OrderID   string      `json:"order_id"`
	Status    ProofStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Invoice bills an order; amounts are in cents
type Invoice struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"order_id"`
	AmountCents int64         `json:"amount_cents"`
	Status      InvoiceStatus `json:"status"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Unpaid reports whether money is still owed on the invoice.
func (i Invoice) Unpaid() bool {
	return i.Status != InvoicePaid && i.Status != InvoiceVoid
}

// Overdue reports whether the invoice is unpaid and its due date is before now.
func (i Invoice) Overdue(now time.Time) bool {
	return i.Unpaid() && i.DueDate != nil && i.DueDate.Before(now)
}

// Shipment tracks delivery of an order
type Shipment struct {
	ID                string         `json:"id"`
	OrderID           string         `json:"order_id"`
	Status            ShipmentStatus `json:"status"`
	Carrier           string         `json:"carrier,omitempty"`
	Tracking          string         `json:"tracking,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	ShippedAt         *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}
