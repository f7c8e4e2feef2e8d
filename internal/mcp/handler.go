package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/phaseboard/internal/auth"
	"github.com/rpggio/phaseboard/internal/domain/activity"
	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/project"
	"github.com/rpggio/phaseboard/internal/domain/quote"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, tenantID string, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, tenantID, id string) (*project.Project, error)
	List(ctx context.Context, tenantID string, opts project.ListOptions) ([]project.Project, error)
	Archive(ctx context.Context, tenantID, id, actor string) (*project.Project, error)
	Summary(ctx context.Context, tenantID, id string) (*project.Summary, error)
	ListSummaries(ctx context.Context, tenantID string, opts project.ListOptions) ([]project.Summary, error)
	EffectivePhase(ctx context.Context, tenantID, id string) (phase.Phase, error)
	RequestTransition(ctx context.Context, tenantID string, req project.TransitionRequest) (*project.Project, error)
	ClearOverride(ctx context.Context, tenantID, projectID string, role phase.Role, actor string) (*project.Project, error)
	Recompute(ctx context.Context, tenantID, projectID string) (phase.Phase, error)
	RecomputeAll(ctx context.Context, tenantID string, concurrency int) (*project.RecomputeReport, error)
}

// OrderService defines order operations needed by MCP.
type OrderService interface {
	Create(ctx context.Context, tenantID string, req order.CreateRequest) (*order.Order, error)
	Get(ctx context.Context, tenantID, id string) (*order.Order, error)
	UpdateStatus(ctx context.Context, tenantID string, req order.UpdateStatusRequest) (*order.Order, error)
	Link(ctx context.Context, tenantID, id, projectID, actor string) (*order.Order, error)
	Unlink(ctx context.Context, tenantID, id, actor string) (*order.Order, error)
	AddProof(ctx context.Context, tenantID string, req order.AddProofRequest) (*order.Proof, error)
	SetProofStatus(ctx context.Context, tenantID string, req order.SetProofStatusRequest) (*order.Proof, error)
	AddInvoice(ctx context.Context, tenantID string, req order.AddInvoiceRequest) (*order.Invoice, error)
	UpdateInvoice(ctx context.Context, tenantID string, req order.UpdateInvoiceRequest) (*order.Invoice, error)
	AddShipment(ctx context.Context, tenantID string, req order.AddShipmentRequest) (*order.Shipment, error)
	UpdateShipment(ctx context.Context, tenantID string, req order.UpdateShipmentRequest) (*order.Shipment, error)
}

// QuoteService defines quote operations needed by MCP.
type QuoteService interface {
	Create(ctx context.Context, tenantID string, req quote.CreateRequest) (*quote.Quote, error)
	Get(ctx context.Context, tenantID, id string) (*quote.Quote, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status quote.Status, actor string) (*quote.Quote, error)
	Link(ctx context.Context, tenantID, id, projectID, actor string) (*quote.Quote, error)
	Unlink(ctx context.Context, tenantID, id, actor string) (*quote.Quote, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, tenantID string, opts activity.Filter) ([]activity.Entry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Orders   OrderService
	Quotes   QuoteService
	Activity ActivityService
}

// Handler dispatches MCP and JSON-RPC commands.
type Handler struct {
	projects ProjectService
	orders   OrderService
	quotes   QuoteService
	activity ActivityService
}

// NewHandler creates a new handler over the domain services.
func NewHandler(services Services) *Handler {
	return &Handler{
		projects: services.Projects,
		orders:   services.Orders,
		quotes:   services.Quotes,
		activity: services.Activity,
	}
}

// Handle dispatches a request from principal to the domain services.
func (h *Handler) Handle(ctx context.Context, principal auth.Principal, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, principal, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, principal auth.Principal, method string, params json.RawMessage) (any, error) {
	tenantID := principal.TenantID
	actor := principal.UserID

	switch method {
	// Projects
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.Create(ctx, tenantID, project.CreateRequest{
			ID:          req.ID,
			Name:        req.Name,
			Category:    req.Category,
			EventDate:   req.EventDate,
			Description: req.Description,
			ClientID:    req.ClientID,
			CreatedBy:   actor,
			OrderIDs:    req.OrderIDs,
			QuoteIDs:    req.QuoteIDs,
		})
	case "get_project":
		req, err := projectIDParams(params)
		if err != nil {
			return nil, err
		}
		return h.projects.Get(ctx, tenantID, req.ProjectID)
	case "list_projects":
		var req ListProjectsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		projects, err := h.projects.List(ctx, tenantID, req.options())
		if err != nil {
			return nil, err
		}
		if projects == nil {
			projects = []project.Project{}
		}
		return projects, nil
	case "archive_project":
		req, err := projectIDParams(params)
		if err != nil {
			return nil, err
		}
		return h.projects.Archive(ctx, tenantID, req.ProjectID, actor)
	case "get_project_summary":
		req, err := projectIDParams(params)
		if err != nil {
			return nil, err
		}
		return h.projects.Summary(ctx, tenantID, req.ProjectID)
	case "list_project_summaries":
		var req ListProjectsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.projects.ListSummaries(ctx, tenantID, req.options())

	// Phases
	case "get_effective_phase":
		req, err := projectIDParams(params)
		if err != nil {
			return nil, err
		}
		effective, err := h.projects.EffectivePhase(ctx, tenantID, req.ProjectID)
		if err != nil {
			return nil, err
		}
		return EffectivePhaseResponse{ProjectID: req.ProjectID, EffectivePhase: effective}, nil
	case "compute_progress":
		var req ComputeProgressParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ProjectID == "" {
			return ProgressResponse{Progress: phase.Progress(req.Statuses)}, nil
		}
		sum, err := h.projects.Summary(ctx, tenantID, req.ProjectID)
		if err != nil {
			return nil, err
		}
		return ProgressResponse{ProjectID: req.ProjectID, Progress: sum.Progress}, nil
	case "request_transition":
		var req RequestTransitionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ProjectID == "" || req.Target == "" {
			return nil, invalidInput("project_id and target are required")
		}
		proj, err := h.projects.RequestTransition(ctx, tenantID, project.TransitionRequest{
			ProjectID: req.ProjectID,
			Target:    phase.Phase(req.Target),
			Role:      principal.Role,
			Actor:     actor,
		})
		if err != nil {
			return nil, err
		}
		return transitionResponse(proj), nil
	case "clear_override":
		req, err := projectIDParams(params)
		if err != nil {
			return nil, err
		}
		proj, err := h.projects.ClearOverride(ctx, tenantID, req.ProjectID, principal.Role, actor)
		if err != nil {
			return nil, err
		}
		return transitionResponse(proj), nil
	case "recompute":
		var req RecomputeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ProjectID == "" {
			if principal.Role != phase.RoleStaff {
				return nil, fmt.Errorf("%w: recomputing every project requires staff", phase.ErrForbiddenRole)
			}
			return h.projects.RecomputeAll(ctx, tenantID, req.Concurrency)
		}
		derived, err := h.projects.Recompute(ctx, tenantID, req.ProjectID)
		if err != nil {
			return nil, err
		}
		return RecomputeResponse{ProjectID: req.ProjectID, DerivedPhase: derived}, nil

	// Orders
	case "create_order":
		var req CreateOrderParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.Create(ctx, tenantID, order.CreateRequest{
			ProjectID: req.ProjectID,
			Number:    req.Number,
			Status:    req.Status,
			CreatedBy: actor,
		})
	case "get_order":
		var req OrderIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.Get(ctx, tenantID, req.OrderID)
	case "update_order_status":
		var req UpdateOrderStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.UpdateStatus(ctx, tenantID, order.UpdateStatusRequest{
			ID:     req.OrderID,
			Status: req.Status,
			Actor:  actor,
		})
	case "link_order":
		var req LinkParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ProjectID == "" {
			return nil, invalidInput("project_id is required; use unlink_order to detach")
		}
		return h.orders.Link(ctx, tenantID, req.ID, req.ProjectID, actor)
	case "unlink_order":
		var req UnlinkParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.Unlink(ctx, tenantID, req.ID, actor)
	case "add_proof":
		var req AddProofParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.AddProof(ctx, tenantID, order.AddProofRequest{
			OrderID: req.OrderID,
			Status:  req.Status,
			Actor:   actor,
		})
	case "set_proof_status":
		var req SetProofStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.SetProofStatus(ctx, tenantID, order.SetProofStatusRequest{
			OrderID: req.OrderID,
			ProofID: req.ProofID,
			Status:  req.Status,
			Actor:   actor,
		})
	case "add_invoice":
		var req AddInvoiceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.AddInvoice(ctx, tenantID, order.AddInvoiceRequest{
			OrderID:     req.OrderID,
			AmountCents: req.AmountCents,
			Status:      req.Status,
			DueDate:     req.DueDate,
			Actor:       actor,
		})
	case "update_invoice":
		var req UpdateInvoiceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.UpdateInvoice(ctx, tenantID, order.UpdateInvoiceRequest{
			OrderID:      req.OrderID,
			InvoiceID:    req.InvoiceID,
			Status:       req.Status,
			DueDate:      req.DueDate,
			ClearDueDate: req.ClearDueDate,
			Actor:        actor,
		})
	case "add_shipment":
		var req AddShipmentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.AddShipment(ctx, tenantID, order.AddShipmentRequest{
			OrderID:           req.OrderID,
			Carrier:           req.Carrier,
			Tracking:          req.Tracking,
			EstimatedDelivery: req.EstimatedDelivery,
			Actor:             actor,
		})
	case "update_shipment":
		var req UpdateShipmentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.orders.UpdateShipment(ctx, tenantID, order.UpdateShipmentRequest{
			OrderID:           req.OrderID,
			ShipmentID:        req.ShipmentID,
			Status:            req.Status,
			EstimatedDelivery: req.EstimatedDelivery,
			Actor:             actor,
		})

	// Quotes
	case "create_quote":
		var req CreateQuoteParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.quotes.Create(ctx, tenantID, quote.CreateRequest{
			ProjectID:  req.ProjectID,
			Number:     req.Number,
			Status:     req.Status,
			TotalCents: req.TotalCents,
			CreatedBy:  actor,
		})
	case "get_quote":
		var req QuoteIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.quotes.Get(ctx, tenantID, req.QuoteID)
	case "update_quote_status":
		var req UpdateQuoteStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.quotes.UpdateStatus(ctx, tenantID, req.QuoteID, req.Status, actor)
	case "link_quote":
		var req LinkParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ProjectID == "" {
			return nil, invalidInput("project_id is required; use unlink_quote to detach")
		}
		return h.quotes.Link(ctx, tenantID, req.ID, req.ProjectID, actor)
	case "unlink_quote":
		var req UnlinkParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.quotes.Unlink(ctx, tenantID, req.ID, actor)

	// Activity
	case "list_activity":
		var req ListActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		entries, err := h.activity.GetRecentActivity(ctx, tenantID, activity.Filter{
			ProjectID:    req.ProjectID,
			ActivityType: req.Type,
			Since:        req.Since,
			Limit:        req.Limit,
			Offset:       req.Offset,
		})
		if err != nil {
			return nil, err
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				ProjectID: entry.ProjectID,
				EntityID:  stringValue(entry.EntityID),
				Actor:     stringValue(entry.Actor),
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return resp, nil
	default:
		return nil, &APIError{
			Code:         CodeMethodNotFound,
			Message:      fmt.Sprintf("unknown method: %s", method),
			RecoveryHint: "Read phaseboard://docs/phases for the available methods",
		}
	}
}

func (p ListProjectsParams) options() project.ListOptions {
	return project.ListOptions{
		ClientID:        p.ClientID,
		Category:        p.Category,
		IncludeArchived: p.IncludeArchived,
		Limit:           p.Limit,
		Offset:          p.Offset,
	}
}

func projectIDParams(params json.RawMessage) (ProjectIDParams, error) {
	var req ProjectIDParams
	if err := decodeParams(params, &req); err != nil {
		return req, err
	}
	if req.ProjectID == "" {
		return req, invalidInput("project_id is required")
	}
	return req, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return invalidInput(fmt.Sprintf("malformed params: %v", err))
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func stringValue(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
