package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/phaseboard/internal/auth"
	"github.com/rpggio/phaseboard/internal/domain/activity"
	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/project"
	"github.com/rpggio/phaseboard/internal/domain/quote"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type projectStub struct {
	createFn        func(context.Context, string, project.CreateRequest) (*project.Project, error)
	getFn           func(context.Context, string, string) (*project.Project, error)
	listFn          func(context.Context, string, project.ListOptions) ([]project.Project, error)
	archiveFn       func(context.Context, string, string, string) (*project.Project, error)
	summaryFn       func(context.Context, string, string) (*project.Summary, error)
	listSummariesFn func(context.Context, string, project.ListOptions) ([]project.Summary, error)
	effectiveFn     func(context.Context, string, string) (phase.Phase, error)
	transitionFn    func(context.Context, string, project.TransitionRequest) (*project.Project, error)
	clearFn         func(context.Context, string, string, phase.Role, string) (*project.Project, error)
	recomputeFn     func(context.Context, string, string) (phase.Phase, error)
	recomputeAllFn  func(context.Context, string, int) (*project.RecomputeReport, error)
}

func (p projectStub) Create(ctx context.Context, tenantID string, req project.CreateRequest) (*project.Project, error) {
	return p.createFn(ctx, tenantID, req)
}
func (p projectStub) Get(ctx context.Context, tenantID, id string) (*project.Project, error) {
	return p.getFn(ctx, tenantID, id)
}
func (p projectStub) List(ctx context.Context, tenantID string, opts project.ListOptions) ([]project.Project, error) {
	return p.listFn(ctx, tenantID, opts)
}
func (p projectStub) Archive(ctx context.Context, tenantID, id, actor string) (*project.Project, error) {
	return p.archiveFn(ctx, tenantID, id, actor)
}
func (p projectStub) Summary(ctx context.Context, tenantID, id string) (*project.Summary, error) {
	return p.summaryFn(ctx, tenantID, id)
}
func (p projectStub) ListSummaries(ctx context.Context, tenantID string, opts project.ListOptions) ([]project.Summary, error) {
	return p.listSummariesFn(ctx, tenantID, opts)
}
func (p projectStub) EffectivePhase(ctx context.Context, tenantID, id string) (phase.Phase, error) {
	return p.effectiveFn(ctx, tenantID, id)
}
func (p projectStub) RequestTransition(ctx context.Context, tenantID string, req project.TransitionRequest) (*project.Project, error) {
	return p.transitionFn(ctx, tenantID, req)
}
func (p projectStub) ClearOverride(ctx context.Context, tenantID, projectID string, role phase.Role, actor string) (*project.Project, error) {
	return p.clearFn(ctx, tenantID, projectID, role, actor)
}
func (p projectStub) Recompute(ctx context.Context, tenantID, projectID string) (phase.Phase, error) {
	return p.recomputeFn(ctx, tenantID, projectID)
}
func (p projectStub) RecomputeAll(ctx context.Context, tenantID string, concurrency int) (*project.RecomputeReport, error) {
	return p.recomputeAllFn(ctx, tenantID, concurrency)
}

type orderStub struct {
	createFn       func(context.Context, string, order.CreateRequest) (*order.Order, error)
	getFn          func(context.Context, string, string) (*order.Order, error)
	updateStatusFn func(context.Context, string, order.UpdateStatusRequest) (*order.Order, error)
	linkFn         func(context.Context, string, string, string, string) (*order.Order, error)
	unlinkFn       func(context.Context, string, string, string) (*order.Order, error)
}

func (o orderStub) Create(ctx context.Context, tenantID string, req order.CreateRequest) (*order.Order, error) {
	return o.createFn(ctx, tenantID, req)
}
func (o orderStub) Get(ctx context.Context, tenantID, id string) (*order.Order, error) {
	return o.getFn(ctx, tenantID, id)
}
func (o orderStub) UpdateStatus(ctx context.Context, tenantID string, req order.UpdateStatusRequest) (*order.Order, error) {
	return o.updateStatusFn(ctx, tenantID, req)
}
func (o orderStub) Link(ctx context.Context, tenantID, id, projectID, actor string) (*order.Order, error) {
	return o.linkFn(ctx, tenantID, id, projectID, actor)
}
func (o orderStub) Unlink(ctx context.Context, tenantID, id, actor string) (*order.Order, error) {
	return o.unlinkFn(ctx, tenantID, id, actor)
}
func (o orderStub) AddProof(context.Context, string, order.AddProofRequest) (*order.Proof, error) {
	return nil, errors.New("not implemented")
}
func (o orderStub) SetProofStatus(context.Context, string, order.SetProofStatusRequest) (*order.Proof, error) {
	return nil, errors.New("not implemented")
}
func (o orderStub) AddInvoice(context.Context, string, order.AddInvoiceRequest) (*order.Invoice, error) {
	return nil, errors.New("not implemented")
}
func (o orderStub) UpdateInvoice(context.Context, string, order.UpdateInvoiceRequest) (*order.Invoice, error) {
	return nil, errors.New("not implemented")
}
func (o orderStub) AddShipment(context.Context, string, order.AddShipmentRequest) (*order.Shipment, error) {
	return nil, errors.New("not implemented")
}
func (o orderStub) UpdateShipment(context.Context, string, order.UpdateShipmentRequest) (*order.Shipment, error) {
	return nil, errors.New("not implemented")
}

type quoteStub struct {
	createFn       func(context.Context, string, quote.CreateRequest) (*quote.Quote, error)
	updateStatusFn func(context.Context, string, string, quote.Status, string) (*quote.Quote, error)
}

func (q quoteStub) Create(ctx context.Context, tenantID string, req quote.CreateRequest) (*quote.Quote, error) {
	return q.createFn(ctx, tenantID, req)
}
func (q quoteStub) Get(context.Context, string, string) (*quote.Quote, error) {
	return nil, quote.ErrQuoteNotFound
}
func (q quoteStub) UpdateStatus(ctx context.Context, tenantID, id string, status quote.Status, actor string) (*quote.Quote, error) {
	return q.updateStatusFn(ctx, tenantID, id, status, actor)
}
func (q quoteStub) Link(context.Context, string, string, string, string) (*quote.Quote, error) {
	return nil, errors.New("not implemented")
}
func (q quoteStub) Unlink(context.Context, string, string, string) (*quote.Quote, error) {
	return nil, errors.New("not implemented")
}

type activityStub struct {
	listFn func(context.Context, string, activity.Filter) ([]activity.Entry, error)
}

func (a activityStub) GetRecentActivity(ctx context.Context, tenantID string, opts activity.Filter) ([]activity.Entry, error) {
	return a.listFn(ctx, tenantID, opts)
}

var (
	staff  = auth.Principal{TenantID: "tenant1", UserID: "ana", Role: phase.RoleStaff}
	viewer = auth.Principal{TenantID: "tenant1", UserID: "vic", Role: phase.RoleClientViewer}
)

func requireAPIError(t *testing.T, err error, code string) *APIError {
	t.Helper()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func TestHandler_CreateProjectUsesPrincipal(t *testing.T) {
	var gotTenant string
	var gotReq project.CreateRequest
	handler := NewHandler(Services{Projects: projectStub{
		createFn: func(_ context.Context, tenantID string, req project.CreateRequest) (*project.Project, error) {
			gotTenant, gotReq = tenantID, req
			return &project.Project{ID: "p1", Name: req.Name, DerivedPhase: phase.Empty}, nil
		},
	}})

	params := json.RawMessage(`{"name":"Spring gala","client_id":"acme","category":"apparel","event_date":"2026-05-01T18:00:00Z","order_ids":["o1"]}`)
	result, err := handler.Handle(context.Background(), staff, "create_project", params)
	require.NoError(t, err)
	require.Equal(t, "p1", result.(*project.Project).ID)

	require.Equal(t, "tenant1", gotTenant)
	require.Equal(t, "ana", gotReq.CreatedBy)
	require.Equal(t, project.CategoryApparel, gotReq.Category)
	require.Equal(t, []string{"o1"}, gotReq.OrderIDs)
	require.NotNil(t, gotReq.EventDate)
	require.True(t, gotReq.EventDate.Equal(time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)))
}

func TestHandler_RequestTransitionPassesRole(t *testing.T) {
	override := phase.Completed
	var got project.TransitionRequest
	handler := NewHandler(Services{Projects: projectStub{
		transitionFn: func(_ context.Context, _ string, req project.TransitionRequest) (*project.Project, error) {
			got = req
			return &project.Project{ID: req.ProjectID, DerivedPhase: phase.Active, PhaseOverride: &override}, nil
		},
	}})

	result, err := handler.Handle(context.Background(), staff, "request_transition",
		json.RawMessage(`{"project_id":"p1","target":"completed"}`))
	require.NoError(t, err)
	require.Equal(t, phase.RoleStaff, got.Role)
	require.Equal(t, "ana", got.Actor)
	require.Equal(t, phase.Completed, got.Target)

	resp := result.(TransitionResponse)
	require.Equal(t, phase.Completed, resp.EffectivePhase)
	require.True(t, resp.OverrideActive)
}

func TestHandler_RequestTransitionRejections(t *testing.T) {
	policy := phase.DefaultPolicy()
	handler := NewHandler(Services{Projects: projectStub{
		transitionFn: func(_ context.Context, _ string, req project.TransitionRequest) (*project.Project, error) {
			return nil, policy.Check(phase.Active, req.Target, req.Role, phase.Activity{Orders: 1})
		},
	}})
	ctx := context.Background()

	_, err := handler.Handle(ctx, staff, "request_transition", json.RawMessage(`{"project_id":"p1","target":"needs_attention"}`))
	apiErr := requireAPIError(t, err, CodeForbiddenTransition)
	details, ok := apiErr.Details.(TransitionDetails)
	require.True(t, ok)
	require.Equal(t, phase.ReasonSystemPhase, details.Reason)
	require.Equal(t, phase.Active, details.From)

	_, err = handler.Handle(ctx, staff, "request_transition", json.RawMessage(`{"project_id":"p1","target":"active"}`))
	apiErr = requireAPIError(t, err, CodeForbiddenTransition)
	require.Equal(t, phase.ReasonNoop, apiErr.Details.(TransitionDetails).Reason)

	_, err = handler.Handle(ctx, viewer, "request_transition", json.RawMessage(`{"project_id":"p1","target":"completed"}`))
	requireAPIError(t, err, CodeForbiddenRole)

	_, err = handler.Handle(ctx, staff, "request_transition", json.RawMessage(`{"project_id":"p1","target":"shipped"}`))
	requireAPIError(t, err, CodeInvalidInput)

	_, err = handler.Handle(ctx, staff, "request_transition", json.RawMessage(`{"project_id":"p1"}`))
	requireAPIError(t, err, CodeInvalidInput)
}

func TestHandler_ErrorMapping(t *testing.T) {
	handler := NewHandler(Services{
		Projects: projectStub{
			getFn: func(context.Context, string, string) (*project.Project, error) {
				return nil, project.ErrProjectNotFound
			},
			clearFn: func(context.Context, string, string, phase.Role, string) (*project.Project, error) {
				return nil, project.ErrProjectArchived
			},
		},
		Orders: orderStub{
			linkFn: func(context.Context, string, string, string, string) (*order.Order, error) {
				return nil, order.ErrUnknownProject
			},
			updateStatusFn: func(context.Context, string, order.UpdateStatusRequest) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
		},
		Quotes: quoteStub{},
	})
	ctx := context.Background()

	_, err := handler.Handle(ctx, staff, "get_project", json.RawMessage(`{"project_id":"missing"}`))
	requireAPIError(t, err, CodeProjectNotFound)

	_, err = handler.Handle(ctx, staff, "get_project", nil)
	requireAPIError(t, err, CodeInvalidInput)

	_, err = handler.Handle(ctx, staff, "clear_override", json.RawMessage(`{"project_id":"p1"}`))
	requireAPIError(t, err, CodeProjectArchived)

	_, err = handler.Handle(ctx, staff, "link_order", json.RawMessage(`{"id":"o1","project_id":"nope"}`))
	requireAPIError(t, err, CodeProjectNotFound)

	_, err = handler.Handle(ctx, staff, "update_order_status", json.RawMessage(`{"order_id":"o1","status":"ready"}`))
	requireAPIError(t, err, CodeOrderNotFound)

	_, err = handler.Handle(ctx, staff, "get_quote", json.RawMessage(`{"quote_id":"q1"}`))
	requireAPIError(t, err, CodeQuoteNotFound)

	_, err = handler.Handle(ctx, staff, "get_project", json.RawMessage(`{"project_id":`))
	requireAPIError(t, err, CodeInvalidInput)

	_, err = handler.Handle(ctx, staff, "transition", nil)
	requireAPIError(t, err, CodeMethodNotFound)
}

func TestHandler_UnmappedErrorPassesThrough(t *testing.T) {
	boom := errors.New("disk on fire")
	handler := NewHandler(Services{Projects: projectStub{
		getFn: func(context.Context, string, string) (*project.Project, error) {
			return nil, boom
		},
	}})

	_, err := handler.Handle(context.Background(), staff, "get_project", json.RawMessage(`{"project_id":"p1"}`))
	require.ErrorIs(t, err, boom)
	require.Nil(t, MapError(err))
}

func TestHandler_ComputeProgress(t *testing.T) {
	handler := NewHandler(Services{Projects: projectStub{
		summaryFn: func(_ context.Context, _ string, id string) (*project.Summary, error) {
			return &project.Summary{Project: project.Project{ID: id}, Progress: 55}, nil
		},
	}})
	ctx := context.Background()

	result, err := handler.Handle(ctx, viewer, "compute_progress", json.RawMessage(`{"statuses":["completed","draft","cancelled"]}`))
	require.NoError(t, err)
	require.Equal(t, 50, result.(ProgressResponse).Progress)

	result, err = handler.Handle(ctx, viewer, "compute_progress", json.RawMessage(`{"project_id":"p1"}`))
	require.NoError(t, err)
	require.Equal(t, ProgressResponse{ProjectID: "p1", Progress: 55}, result)
}

func TestHandler_Recompute(t *testing.T) {
	handler := NewHandler(Services{Projects: projectStub{
		recomputeFn: func(context.Context, string, string) (phase.Phase, error) {
			return phase.InProduction, nil
		},
		recomputeAllFn: func(_ context.Context, _ string, concurrency int) (*project.RecomputeReport, error) {
			return &project.RecomputeReport{Projects: concurrency}, nil
		},
	}})
	ctx := context.Background()

	result, err := handler.Handle(ctx, viewer, "recompute", json.RawMessage(`{"project_id":"p1"}`))
	require.NoError(t, err)
	require.Equal(t, RecomputeResponse{ProjectID: "p1", DerivedPhase: phase.InProduction}, result)

	_, err = handler.Handle(ctx, viewer, "recompute", nil)
	requireAPIError(t, err, CodeForbiddenRole)

	result, err = handler.Handle(ctx, staff, "recompute", json.RawMessage(`{"concurrency":3}`))
	require.NoError(t, err)
	require.Equal(t, 3, result.(*project.RecomputeReport).Projects)
}

func TestHandler_LinkOrderRequiresProject(t *testing.T) {
	handler := NewHandler(Services{Orders: orderStub{}})

	_, err := handler.Handle(context.Background(), staff, "link_order", json.RawMessage(`{"id":"o1"}`))
	requireAPIError(t, err, CodeInvalidInput)
}

func TestHandler_QuoteStatusUsesActor(t *testing.T) {
	var gotActor string
	handler := NewHandler(Services{Quotes: quoteStub{
		updateStatusFn: func(_ context.Context, _ string, id string, status quote.Status, actor string) (*quote.Quote, error) {
			gotActor = actor
			return &quote.Quote{ID: id, Status: status}, nil
		},
	}})

	result, err := handler.Handle(context.Background(), staff, "update_quote_status", json.RawMessage(`{"quote_id":"q1","status":"sent"}`))
	require.NoError(t, err)
	require.Equal(t, quote.StatusSent, result.(*quote.Quote).Status)
	require.Equal(t, "ana", gotActor)
}

func TestHandler_ListActivity(t *testing.T) {
	entityID := "o1"
	actor := "ana"
	var gotOpts activity.Filter
	handler := NewHandler(Services{Activity: activityStub{
		listFn: func(_ context.Context, _ string, opts activity.Filter) ([]activity.Entry, error) {
			gotOpts = opts
			return []activity.Entry{{
				ProjectID:    "p1",
				EntityID:     &entityID,
				Actor:        &actor,
				ActivityType: activity.TypeOverrideSet,
				Summary:      "pinned completed",
			}}, nil
		},
	}})

	result, err := handler.Handle(context.Background(), staff, "list_activity",
		json.RawMessage(`{"project_id":"p1","type":"override_set","limit":5}`))
	require.NoError(t, err)
	require.Equal(t, "p1", gotOpts.ProjectID)
	require.Equal(t, 5, gotOpts.Limit)
	require.NotNil(t, gotOpts.ActivityType)
	require.Equal(t, activity.TypeOverrideSet, *gotOpts.ActivityType)

	entries := result.([]ActivityEntryResponse)
	require.Len(t, entries, 1)
	require.Equal(t, "o1", entries[0].EntityID)
	require.Equal(t, "ana", entries[0].Actor)
}

func TestToolCatalog(t *testing.T) {
	expected := []string{
		"create_project", "get_project", "list_projects", "archive_project",
		"get_project_summary", "list_project_summaries", "get_effective_phase",
		"compute_progress", "request_transition", "clear_override", "recompute",
		"create_order", "update_order_status", "link_order", "unlink_order",
		"add_proof", "set_proof_status", "add_invoice", "update_invoice",
		"add_shipment", "update_shipment", "create_quote", "update_quote_status",
		"link_quote", "unlink_quote", "list_activity",
	}

	seen := map[string]bool{}
	for _, def := range buildToolCatalog() {
		require.False(t, seen[def.Name], "duplicate tool %s", def.Name)
		seen[def.Name] = true
		require.Equal(t, "object", def.InputSchema["type"])
		require.NotEmpty(t, def.Description)
	}
	for _, name := range expected {
		require.True(t, seen[name], "missing tool %s", name)
	}
}

func TestToolHandler(t *testing.T) {
	handler := NewHandler(Services{Projects: projectStub{
		getFn: func(_ context.Context, tenantID, id string) (*project.Project, error) {
			if id != "p1" {
				return nil, project.ErrProjectNotFound
			}
			return &project.Project{ID: id, TenantID: tenantID, DerivedPhase: phase.Active}, nil
		},
	}})
	call := toolHandler(handler, "get_project")
	ctx := auth.WithPrincipal(context.Background(), staff)

	result, err := call(ctx, &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{
		Name:      "get_project",
		Arguments: json.RawMessage(`{"project_id":"p1"}`),
	}})
	require.NoError(t, err)
	require.False(t, result.IsError)
	text := result.Content[0].(*sdkmcp.TextContent).Text
	var proj project.Project
	require.NoError(t, json.Unmarshal([]byte(text), &proj))
	require.Equal(t, "tenant1", proj.TenantID)

	result, err = call(ctx, &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{
		Name:      "get_project",
		Arguments: json.RawMessage(`{"project_id":"nope"}`),
	}})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, result.Content[0].(*sdkmcp.TextContent).Text, CodeProjectNotFound)

	result, err = call(context.Background(), &sdkmcp.CallToolRequest{})
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestTransitionsDoc(t *testing.T) {
	policy, err := phase.NewPolicy(map[phase.Role][]phase.Phase{
		phase.RoleClientAdmin: {phase.InReview},
		phase.RoleStaff:       {phase.Empty, phase.Completed},
	})
	require.NoError(t, err)

	doc := transitionsDoc(policy)
	require.Contains(t, doc, "| client_viewer | nothing |")
	require.Contains(t, doc, "| client_admin | in_review |")
	require.Contains(t, doc, "| staff | empty, completed |")
	require.Contains(t, doc, "| active | requires at least one linked order |")
	require.NotContains(t, doc, "| needs_attention |")
}
