package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/phaseboard/internal/domain/phase"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `phaseboard tracks custom-goods projects and the lifecycle phase each one presents on the board.

Core concepts:
- Project: a client initiative grouping orders and quotes.
- Derived phase: computed from the linked orders, proofs, invoices, shipments and quotes. It is recomputed whenever one of them changes.
- Override: a phase pinned by a person. While set it wins over the derived phase; clearing it (staff only) shows the derived phase again.
- Effective phase: the override if pinned, otherwise the derived phase.

Workflow:
1) Orient: list_project_summaries for the board, get_project_summary for one project.
2) Change the inputs: create_order / update_order_status / set_proof_status / update_invoice / update_shipment / create_quote / update_quote_status, and link_* or unlink_* to move them between projects. The phase follows on its own.
3) Pin only when the derived phase is wrong for a human reason: request_transition. needs_attention can never be pinned.
4) Audit: list_activity shows derivations, overrides and rejections.

Docs:
- phaseboard://docs/phases (derivation rules and progress)
- phaseboard://docs/transitions (who may pin which phase, generated from the running policy)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

const phasesDoc = `# Project phases

| phase | meaning |
|---|---|
| empty | nothing linked, or nothing that decides a phase |
| in_review | quotes are with the client and no order is confirmed |
| active | an order is under way but not in production |
| in_production | an order is being produced |
| needs_attention | a proof or an overdue invoice is waiting on the client |
| completed | every order is finished and no quote is still open |

## Derivation

The first rule that matches wins:

1. No linked orders and no linked quotes: empty.
2. An order has a proof that is sent or revision_requested, or an unpaid invoice past its due date: needs_attention.
3. An order is in_production: in_production.
4. An order is not yet shipped, completed or cancelled: active.
5. Every order is shipped, completed or cancelled and no quote is draft, sent or reviewing: completed.
6. A quote is sent or reviewing and no order has left draft: in_review.
7. Quotes but no orders: in_review. Otherwise: empty.

## Progress

Progress is the rounded mean weight of the non-cancelled order statuses, from 0 (draft or submitted) to 100 (completed). A project without countable orders is at 0. It is independent of the phase.

## Overrides

An override pins a phase until a staff member clears it. Recomputation keeps writing the derived phase underneath, so clearing shows the current derived phase without recomputing.
`

func transitionsDoc(policy *phase.Policy) string {
	var b strings.Builder
	b.WriteString("# Manual transitions\n\n")
	b.WriteString("A request is checked in this order: unknown phase, needs_attention target (system_phase), target equals the effective phase (noop), role without any rights (FORBIDDEN_ROLE), target not allowed for the role (role_not_permitted), missing linked activity (prerequisite_unmet).\n\n")
	b.WriteString("| role | may pin |\n|---|---|\n")
	table := policy.Table()
	for _, role := range phase.Roles {
		targets := table[role]
		names := make([]string, 0, len(targets))
		for _, ph := range targets {
			names = append(names, string(ph))
		}
		allowed := "nothing"
		if len(names) > 0 {
			allowed = strings.Join(names, ", ")
		}
		fmt.Fprintf(&b, "| %s | %s |\n", role, allowed)
	}
	b.WriteString("\n| target | prerequisite |\n|---|---|\n")
	for _, ph := range phase.All {
		if ph.SystemOnly() {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s |\n", ph, policy.Prerequisite(ph))
	}
	b.WriteString("\nOnly staff may clear an override.\n")
	return b.String()
}

func buildDocResources(policy *phase.Policy) []docResource {
	return []docResource{
		{
			URI:         "phaseboard://docs/phases",
			Name:        "docs_phases",
			Title:       "Project phases",
			Description: "The six phases, the derivation rules and how progress is estimated.",
			Content:     phasesDoc,
		},
		{
			URI:         "phaseboard://docs/transitions",
			Name:        "docs_transitions",
			Title:       "Manual transitions",
			Description: "Which role may pin which phase and what each target requires.",
			Content:     transitionsDoc(policy),
		},
	}
}

func registerDocResources(server *sdkmcp.Server, policy *phase.Policy) {
	for _, doc := range buildDocResources(policy) {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
