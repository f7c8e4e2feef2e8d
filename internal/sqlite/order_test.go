package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestOrder(id, number string, projectID *string) *order.Order {
	now := time.Now().UTC().Truncate(time.Second)
	return &order.Order{
		ID:        id,
		ProjectID: projectID,
		Number:    number,
		Status:    order.StatusSubmitted,
		CreatedBy: "user1",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderRepository_CreateGetWithChildren(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	seedProject(t, db, "tenant1", "p1")

	projectID := "p1"
	require.NoError(t, repo.Create(ctx, "tenant1", newTestOrder("o1", "PO-1", &projectID)))

	now := time.Now().UTC().Truncate(time.Second)
	due := now.Add(-24 * time.Hour)
	eta := now.Add(72 * time.Hour)
	require.NoError(t, repo.AddProof(ctx, "tenant1", &order.Proof{
		ID: "pr1", OrderID: "o1", Status: order.ProofSent, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, repo.AddInvoice(ctx, "tenant1", &order.Invoice{
		ID: "i1", OrderID: "o1", AmountCents: 12500, Status: order.InvoiceSent, DueDate: &due,
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, repo.AddShipment(ctx, "tenant1", &order.Shipment{
		ID: "s1", OrderID: "o1", Status: order.ShipmentPending, Carrier: "UPS",
		EstimatedDelivery: &eta, CreatedAt: now,
	}))

	ord, err := repo.Get(ctx, "tenant1", "o1")
	require.NoError(t, err)
	require.Equal(t, "PO-1", ord.Number)
	require.NotNil(t, ord.ProjectID)
	require.Equal(t, "p1", *ord.ProjectID)
	require.Len(t, ord.Proofs, 1)
	require.Equal(t, order.ProofSent, ord.Proofs[0].Status)
	require.Len(t, ord.Invoices, 1)
	require.Equal(t, int64(12500), ord.Invoices[0].AmountCents)
	require.NotNil(t, ord.Invoices[0].DueDate)
	require.True(t, ord.Invoices[0].Overdue(now))
	require.Len(t, ord.Shipments, 1)
	require.Equal(t, "UPS", ord.Shipments[0].Carrier)
	require.Nil(t, ord.Shipments[0].ShippedAt)
}

func TestOrderRepository_ListByProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	seedProject(t, db, "tenant1", "p1")
	seedProject(t, db, "tenant1", "p2")

	p1, p2 := "p1", "p2"
	require.NoError(t, repo.Create(ctx, "tenant1", newTestOrder("o1", "PO-1", &p1)))
	require.NoError(t, repo.Create(ctx, "tenant1", newTestOrder("o2", "PO-2", &p1)))
	require.NoError(t, repo.Create(ctx, "tenant1", newTestOrder("o3", "PO-3", &p2)))
	require.NoError(t, repo.Create(ctx, "tenant1", newTestOrder("o4", "PO-4", nil)))

	now := time.Now().UTC()
	require.NoError(t, repo.AddProof(ctx, "tenant1", &order.Proof{
		ID: "pr1", OrderID: "o2", Status: order.ProofPending, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, repo.AddProof(ctx, "tenant1", &order.Proof{
		ID: "pr2", OrderID: "o3", Status: order.ProofPending, CreatedAt: now, UpdatedAt: now,
	}))

	orders, err := repo.ListByProject(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	byID := map[string]order.Order{}
	for _, o := range orders {
		byID[o.ID] = o
	}
	require.Empty(t, byID["o1"].Proofs)
	require.Len(t, byID["o2"].Proofs, 1)

	empty, err := repo.ListByProject(ctx, "tenant2", "p1")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestOrderRepository_LinkUnlink(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	seedProject(t, db, "tenant1", "p1")
	require.NoError(t, repo.Create(ctx, "tenant1", newTestOrder("o1", "PO-1", nil)))

	p1 := "p1"
	require.NoError(t, repo.SetProject(ctx, "tenant1", "o1", &p1, time.Now()))
	orders, err := repo.ListByProject(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	require.NoError(t, repo.SetProject(ctx, "tenant1", "o1", nil, time.Now()))
	orders, err = repo.ListByProject(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Empty(t, orders)

	missing := "nope"
	err = repo.SetProject(ctx, "tenant1", "o1", &missing, time.Now())
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)

	err = repo.SetProject(ctx, "tenant1", "o9", &p1, time.Now())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderRepository_DuplicateNumber(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "tenant1", newTestOrder("o1", "PO-1", nil)))
	err := repo.Create(ctx, "tenant1", newTestOrder("o2", "PO-1", nil))
	require.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, repo.Create(ctx, "tenant2", newTestOrder("o3", "PO-1", nil)))
}

func TestOrderRepository_UpdateChildren(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, "tenant1", newTestOrder("o1", "PO-1", nil)))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.AddProof(ctx, "tenant1", &order.Proof{
		ID: "pr1", OrderID: "o1", Status: order.ProofSent, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, repo.UpdateProofStatus(ctx, "tenant1", "pr1", order.ProofApproved, now))
	require.ErrorIs(t, repo.UpdateProofStatus(ctx, "tenant2", "pr1", order.ProofSent, now), repository.ErrNotFound)

	inv := &order.Invoice{ID: "i1", OrderID: "o1", AmountCents: 100, Status: order.InvoiceSent, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.AddInvoice(ctx, "tenant1", inv))
	inv.Status = order.InvoicePaid
	require.NoError(t, repo.UpdateInvoice(ctx, "tenant1", inv))

	shipped := now
	sh := &order.Shipment{ID: "s1", OrderID: "o1", Status: order.ShipmentPending, CreatedAt: now}
	require.NoError(t, repo.AddShipment(ctx, "tenant1", sh))
	sh.Status = order.ShipmentInTransit
	sh.ShippedAt = &shipped
	require.NoError(t, repo.UpdateShipment(ctx, "tenant1", sh))

	ord, err := repo.Get(ctx, "tenant1", "o1")
	require.NoError(t, err)
	require.Equal(t, order.ProofApproved, ord.Proofs[0].Status)
	require.Equal(t, order.InvoicePaid, ord.Invoices[0].Status)
	require.Equal(t, order.ShipmentInTransit, ord.Shipments[0].Status)
	require.NotNil(t, ord.Shipments[0].ShippedAt)

	err = repo.AddProof(ctx, "tenant2", &order.Proof{ID: "pr2", OrderID: "o1", Status: order.ProofSent, CreatedAt: now, UpdatedAt: now})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderRepository_LinkOtherTenantProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	seedProject(t, db, "tenant2", "theirs")
	require.NoError(t, repo.Create(ctx, "tenant1", newTestOrder("o1", "PO-1", nil)))

	theirs := "theirs"
	err := repo.SetProject(ctx, "tenant1", "o1", &theirs, time.Now())
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)

	err = repo.Create(ctx, "tenant1", newTestOrder("o2", "PO-2", &theirs))
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)

	ord, err := repo.Get(ctx, "tenant1", "o1")
	require.NoError(t, err)
	require.Nil(t, ord.ProjectID)
}
