// Package app wires the storage, domain services and event bus together.
package app

import (
	"log/slog"

	"github.com/rpggio/phaseboard/internal/domain/activity"
	"github.com/rpggio/phaseboard/internal/domain/event"
	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/project"
	"github.com/rpggio/phaseboard/internal/domain/quote"
	"github.com/rpggio/phaseboard/internal/mcp"
	"github.com/rpggio/phaseboard/internal/sqlite"
)

// Services holds the wired domain layer over one database.
type Services struct {
	Projects *project.Service
	Orders   *order.Service
	Quotes   *quote.Service
	Activity *activity.Service
	APIKeys  *sqlite.APIKeyRepository
	Bus      *event.Bus
}

// NewServices builds the services over db. Order and quote mutations are
// published on the bus and the project service recomputes the affected projects.
func NewServices(db *sqlite.DB, policy *phase.Policy, logger *slog.Logger) *Services {
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	bus := event.NewBus(logger)

	orderSvc := order.NewService(sqlite.NewOrderRepository(db), bus, logger)
	quoteSvc := quote.NewService(sqlite.NewQuoteRepository(db), bus, logger)
	projectSvc := project.NewService(sqlite.NewProjectRepository(db), orderSvc, quoteSvc, activitySvc, policy, logger)
	bus.Subscribe(projectSvc)

	return &Services{
		Projects: projectSvc,
		Orders:   orderSvc,
		Quotes:   quoteSvc,
		Activity: activitySvc,
		APIKeys:  sqlite.NewAPIKeyRepository(db),
		Bus:      bus,
	}
}

// Handler returns the request dispatcher shared by JSON-RPC and MCP.
func (s *Services) Handler() *mcp.Handler {
	return mcp.NewHandler(mcp.Services{
		Projects: s.Projects,
		Orders:   s.Orders,
		Quotes:   s.Quotes,
		Activity: s.Activity,
	})
}
