package mcp

import (
	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/project"
	"github.com/rpggio/phaseboard/internal/domain/quote"
)

// ToolDefinition describes a callable tool
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	ReadOnly    bool           `json:"-"`
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enumProp[T ~string](description string, values []T) map[string]any {
	enum := make([]string, 0, len(values))
	for _, v := range values {
		enum = append(enum, string(v))
	}
	return map[string]any{"type": "string", "description": description, "enum": enum}
}

func integerProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func dateProp(description string) map[string]any {
	return map[string]any{"type": "string", "format": "date-time", "description": description + " (RFC 3339)"}
}

var (
	orderStatuses    = append(append([]order.Status{}, order.Sequence...), order.StatusCancelled)
	proofStatuses    = []order.ProofStatus{order.ProofPending, order.ProofSent, order.ProofApproved, order.ProofRevisionRequested}
	invoiceStatuses  = []order.InvoiceStatus{order.InvoiceDraft, order.InvoiceSent, order.InvoicePaid, order.InvoiceVoid}
	shipmentStatuses = []order.ShipmentStatus{order.ShipmentPending, order.ShipmentInTransit, order.ShipmentDelivered}
	quoteStatuses    = []quote.Status{quote.StatusDraft, quote.StatusSent, quote.StatusReviewing, quote.StatusApproved, quote.StatusDeclined, quote.StatusExpired, quote.StatusConverted}
	categories       = []project.Category{project.CategoryApparel, project.CategoryPromotional, project.CategorySignage, project.CategoryPackaging, project.CategoryPrint, project.CategoryOther}
)

var listProjectsProps = map[string]any{
	"client_id":        stringProp("Only projects for this client"),
	"category":         enumProp("Only projects in this category", categories),
	"include_archived": map[string]any{"type": "boolean", "description": "Include archived projects"},
	"limit":            integerProp("Maximum number of projects"),
	"offset":           integerProp("Number of projects to skip"),
}

var projectIDSchema = objectSchema(map[string]any{
	"project_id": stringProp("Project ID"),
}, "project_id")

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Projects
		{
			Name:        "create_project",
			Description: "Create a project for a client. It starts empty; listed orders and quotes are linked and the phase recomputed.",
			InputSchema: objectSchema(map[string]any{
				"id":          stringProp("Project ID (optional, generated if omitted)"),
				"name":        stringProp("Project display name"),
				"category":    enumProp("Kind of goods produced (default other)", categories),
				"event_date":  dateProp("Date of the event the goods are for"),
				"description": stringProp("Project description"),
				"client_id":   stringProp("Owning client"),
				"order_ids":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Orders to link"},
				"quote_ids":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Quotes to link"},
			}, "name", "client_id"),
		},
		{
			Name:        "get_project",
			Description: "Get a project record including its stored derived phase and any override",
			InputSchema: projectIDSchema,
			ReadOnly:    true,
		},
		{
			Name:        "list_projects",
			Description: "List projects for the current tenant, newest first",
			InputSchema: objectSchema(listProjectsProps),
			ReadOnly:    true,
		},
		{
			Name:        "archive_project",
			Description: "Archive a project. Archived projects keep their history but reject phase changes.",
			InputSchema: projectIDSchema,
		},
		{
			Name:        "get_project_summary",
			Description: "Get the live summary of a project: effective phase, progress, totals, next delivery and contributors",
			InputSchema: projectIDSchema,
			ReadOnly:    true,
		},
		{
			Name:        "list_project_summaries",
			Description: "List live summaries for the board view",
			InputSchema: objectSchema(listProjectsProps),
			ReadOnly:    true,
		},

		// Phases
		{
			Name:        "get_effective_phase",
			Description: "Resolve the phase a project presents right now: the override if pinned, otherwise the phase derived from its links",
			InputSchema: projectIDSchema,
			ReadOnly:    true,
		},
		{
			Name:        "compute_progress",
			Description: "Estimate completion from 0 to 100 for a project's orders, or for an explicit list of order statuses",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project ID"),
				"statuses": map[string]any{
					"type":        "array",
					"description": "Order statuses to estimate (used when project_id is omitted)",
					"items":       enumProp("Order status", orderStatuses),
				},
			}),
			ReadOnly: true,
		},
		{
			Name:        "request_transition",
			Description: "Pin a project to a phase manually. The caller's role decides which targets are allowed; needs_attention is never a valid target.",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project ID"),
				"target":     enumProp("Phase to pin", phase.All),
			}, "project_id", "target"),
		},
		{
			Name:        "clear_override",
			Description: "Remove a manual phase pin so the derived phase shows again (staff only)",
			InputSchema: projectIDSchema,
		},
		{
			Name:        "recompute",
			Description: "Recompute the derived phase of one project, or of every active project when project_id is omitted (staff only)",
			InputSchema: objectSchema(map[string]any{
				"project_id":  stringProp("Project ID (omit to recompute all)"),
				"concurrency": integerProp("Parallel recomputes when recomputing all"),
			}),
		},

		// Orders
		{
			Name:        "create_order",
			Description: "Create an order, optionally linked to a project",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project to link"),
				"number":     stringProp("Order number, unique per tenant"),
				"status":     enumProp("Initial status (default draft)", orderStatuses),
			}, "number"),
		},
		{
			Name:        "get_order",
			Description: "Get an order with its proofs, invoices and shipments",
			InputSchema: objectSchema(map[string]any{"order_id": stringProp("Order ID")}, "order_id"),
			ReadOnly:    true,
		},
		{
			Name:        "update_order_status",
			Description: "Move an order to a new production status",
			InputSchema: objectSchema(map[string]any{
				"order_id": stringProp("Order ID"),
				"status":   enumProp("New status", orderStatuses),
			}, "order_id", "status"),
		},
		{
			Name:        "link_order",
			Description: "Link an order to a project, moving it off any previous project",
			InputSchema: objectSchema(map[string]any{
				"id":         stringProp("Order ID"),
				"project_id": stringProp("Project ID"),
			}, "id", "project_id"),
		},
		{
			Name:        "unlink_order",
			Description: "Detach an order from its project",
			InputSchema: objectSchema(map[string]any{"id": stringProp("Order ID")}, "id"),
		},
		{
			Name:        "add_proof",
			Description: "Attach a design proof to an order",
			InputSchema: objectSchema(map[string]any{
				"order_id": stringProp("Order ID"),
				"status":   enumProp("Initial status (default pending)", proofStatuses),
			}, "order_id"),
		},
		{
			Name:        "set_proof_status",
			Description: "Record the customer's response to a proof",
			InputSchema: objectSchema(map[string]any{
				"order_id": stringProp("Order ID"),
				"proof_id": stringProp("Proof ID"),
				"status":   enumProp("New status", proofStatuses),
			}, "order_id", "proof_id", "status"),
		},
		{
			Name:        "add_invoice",
			Description: "Bill an order",
			InputSchema: objectSchema(map[string]any{
				"order_id":     stringProp("Order ID"),
				"amount_cents": integerProp("Invoice amount in cents"),
				"status":       enumProp("Initial status (default draft)", invoiceStatuses),
				"due_date":     dateProp("Payment due date"),
			}, "order_id", "amount_cents"),
		},
		{
			Name:        "update_invoice",
			Description: "Change an invoice's payment status or due date",
			InputSchema: objectSchema(map[string]any{
				"order_id":       stringProp("Order ID"),
				"invoice_id":     stringProp("Invoice ID"),
				"status":         enumProp("New status", invoiceStatuses),
				"due_date":       dateProp("New due date"),
				"clear_due_date": map[string]any{"type": "boolean", "description": "Remove the due date"},
			}, "order_id", "invoice_id"),
		},
		{
			Name:        "add_shipment",
			Description: "Record a shipment for an order",
			InputSchema: objectSchema(map[string]any{
				"order_id":           stringProp("Order ID"),
				"carrier":            stringProp("Carrier name"),
				"tracking":           stringProp("Tracking number"),
				"estimated_delivery": dateProp("Estimated delivery"),
			}, "order_id"),
		},
		{
			Name:        "update_shipment",
			Description: "Advance a shipment's carrier status",
			InputSchema: objectSchema(map[string]any{
				"order_id":           stringProp("Order ID"),
				"shipment_id":        stringProp("Shipment ID"),
				"status":             enumProp("New status", shipmentStatuses),
				"estimated_delivery": dateProp("Revised estimated delivery"),
			}, "order_id", "shipment_id", "status"),
		},

		// Quotes
		{
			Name:        "create_quote",
			Description: "Create a quote, optionally linked to a project",
			InputSchema: objectSchema(map[string]any{
				"project_id":  stringProp("Project to link"),
				"number":      stringProp("Quote number"),
				"status":      enumProp("Initial status (default draft)", quoteStatuses),
				"total_cents": integerProp("Quoted total in cents"),
			}, "number"),
		},
		{
			Name:        "get_quote",
			Description: "Get a quote",
			InputSchema: objectSchema(map[string]any{"quote_id": stringProp("Quote ID")}, "quote_id"),
			ReadOnly:    true,
		},
		{
			Name:        "update_quote_status",
			Description: "Move a quote to a new status",
			InputSchema: objectSchema(map[string]any{
				"quote_id": stringProp("Quote ID"),
				"status":   enumProp("New status", quoteStatuses),
			}, "quote_id", "status"),
		},
		{
			Name:        "link_quote",
			Description: "Link a quote to a project, moving it off any previous project",
			InputSchema: objectSchema(map[string]any{
				"id":         stringProp("Quote ID"),
				"project_id": stringProp("Project ID"),
			}, "id", "project_id"),
		},
		{
			Name:        "unlink_quote",
			Description: "Detach a quote from its project",
			InputSchema: objectSchema(map[string]any{"id": stringProp("Quote ID")}, "id"),
		},

		// Activity
		{
			Name:        "list_activity",
			Description: "List a project's phase history and link changes, newest first",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project ID to filter by"),
				"type":       stringProp("Activity type to filter by"),
				"since":      dateProp("Only entries at or after this time"),
				"limit":      integerProp("Maximum number of entries"),
				"offset":     integerProp("Number of entries to skip"),
			}),
			ReadOnly: true,
		},
	}
}
