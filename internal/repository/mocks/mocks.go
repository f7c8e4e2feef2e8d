package mocks

import (
	"context"
	"time"

	"github.com/rpggio/phaseboard/internal/domain/activity"
	"github.com/rpggio/phaseboard/internal/domain/event"
	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/project"
	"github.com/rpggio/phaseboard/internal/domain/quote"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, tenantID string, proj *project.Project) error {
	args := m.Called(ctx, tenantID, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	args := m.Called(ctx, tenantID, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, tenantID string, opts project.ListOptions) ([]project.Project, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Archive(ctx context.Context, tenantID, id string, at time.Time) error {
	args := m.Called(ctx, tenantID, id, at)
	return args.Error(0)
}

func (m *ProjectRepository) UpdateDerivedPhase(ctx context.Context, tenantID, id string, derived phase.Phase, at time.Time) error {
	args := m.Called(ctx, tenantID, id, derived, at)
	return args.Error(0)
}

func (m *ProjectRepository) SetOverride(ctx context.Context, tenantID, id string, override *phase.Phase, at time.Time) error {
	args := m.Called(ctx, tenantID, id, override, at)
	return args.Error(0)
}

// OrderRepository is a mock for order.Repository.
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) Create(ctx context.Context, tenantID string, ord *order.Order) error {
	args := m.Called(ctx, tenantID, ord)
	return args.Error(0)
}

func (m *OrderRepository) Get(ctx context.Context, tenantID, id string) (*order.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if ord, ok := args.Get(0).(*order.Order); ok {
		return ord, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) ListByProject(ctx context.Context, tenantID, projectID string) ([]order.Order, error) {
	args := m.Called(ctx, tenantID, projectID)
	if list, ok := args.Get(0).([]order.Order); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) UpdateStatus(ctx context.Context, tenantID, id string, status order.Status, at time.Time) error {
	args := m.Called(ctx, tenantID, id, status, at)
	return args.Error(0)
}

func (m *OrderRepository) SetProject(ctx context.Context, tenantID, id string, projectID *string, at time.Time) error {
	args := m.Called(ctx, tenantID, id, projectID, at)
	return args.Error(0)
}

func (m *OrderRepository) AddProof(ctx context.Context, tenantID string, proof *order.Proof) error {
	args := m.Called(ctx, tenantID, proof)
	return args.Error(0)
}

func (m *OrderRepository) UpdateProofStatus(ctx context.Context, tenantID, proofID string, status order.ProofStatus, at time.Time) error {
	args := m.Called(ctx, tenantID, proofID, status, at)
	return args.Error(0)
}

func (m *OrderRepository) AddInvoice(ctx context.Context, tenantID string, inv *order.Invoice) error {
	args := m.Called(ctx, tenantID, inv)
	return args.Error(0)
}

func (m *OrderRepository) UpdateInvoice(ctx context.Context, tenantID string, inv *order.Invoice) error {
	args := m.Called(ctx, tenantID, inv)
	return args.Error(0)
}

func (m *OrderRepository) AddShipment(ctx context.Context, tenantID string, shipment *order.Shipment) error {
	args := m.Called(ctx, tenantID, shipment)
	return args.Error(0)
}

func (m *OrderRepository) UpdateShipment(ctx context.Context, tenantID string, shipment *order.Shipment) error {
	args := m.Called(ctx, tenantID, shipment)
	return args.Error(0)
}

// QuoteRepository is a mock for quote.Repository.
type QuoteRepository struct {
	mock.Mock
}

func (m *QuoteRepository) Create(ctx context.Context, tenantID string, q *quote.Quote) error {
	args := m.Called(ctx, tenantID, q)
	return args.Error(0)
}

func (m *QuoteRepository) Get(ctx context.Context, tenantID, id string) (*quote.Quote, error) {
	args := m.Called(ctx, tenantID, id)
	if q, ok := args.Get(0).(*quote.Quote); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteRepository) ListByProject(ctx context.Context, tenantID, projectID string) ([]quote.Quote, error) {
	args := m.Called(ctx, tenantID, projectID)
	if list, ok := args.Get(0).([]quote.Quote); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteRepository) UpdateStatus(ctx context.Context, tenantID, id string, status quote.Status, at time.Time) error {
	args := m.Called(ctx, tenantID, id, status, at)
	return args.Error(0)
}

func (m *QuoteRepository) SetProject(ctx context.Context, tenantID, id string, projectID *string, at time.Time) error {
	args := m.Called(ctx, tenantID, id, projectID, at)
	return args.Error(0)
}

// OrderSource is a mock for project.OrderSource.
type OrderSource struct {
	mock.Mock
}

func (m *OrderSource) Get(ctx context.Context, tenantID, id string) (*order.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if ord, ok := args.Get(0).(*order.Order); ok {
		return ord, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderSource) ListByProject(ctx context.Context, tenantID, projectID string) ([]order.Order, error) {
	args := m.Called(ctx, tenantID, projectID)
	if list, ok := args.Get(0).([]order.Order); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderSource) Link(ctx context.Context, tenantID, id, projectID, actor string) (*order.Order, error) {
	args := m.Called(ctx, tenantID, id, projectID, actor)
	if ord, ok := args.Get(0).(*order.Order); ok {
		return ord, args.Error(1)
	}
	return nil, args.Error(1)
}

// QuoteSource is a mock for project.QuoteSource.
type QuoteSource struct {
	mock.Mock
}

func (m *QuoteSource) Get(ctx context.Context, tenantID, id string) (*quote.Quote, error) {
	args := m.Called(ctx, tenantID, id)
	if q, ok := args.Get(0).(*quote.Quote); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteSource) ListByProject(ctx context.Context, tenantID, projectID string) ([]quote.Quote, error) {
	args := m.Called(ctx, tenantID, projectID)
	if list, ok := args.Get(0).([]quote.Quote); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteSource) Link(ctx context.Context, tenantID, id, projectID, actor string) (*quote.Quote, error) {
	args := m.Called(ctx, tenantID, id, projectID, actor)
	if q, ok := args.Get(0).(*quote.Quote); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.Entry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.Filter) ([]activity.Entry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Publisher is a mock for event.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, evt event.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}
