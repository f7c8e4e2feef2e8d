package phase_test

import (
	"testing"
	"time"

	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/rpggio/phaseboard/internal/domain/quote"
	"github.com/stretchr/testify/require"
)

func TestExtractSignals_Empty(t *testing.T) {
	sig := phase.ExtractSignals(nil, nil, now)
	require.Equal(t, phase.Signals{AllOrdersSettled: true}, sig)
}

func TestExtractSignals_InvoiceDueDates(t *testing.T) {
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name    string
		invoice order.Invoice
		want    bool
	}{
		{"unpaid past due", order.Invoice{Status: order.InvoiceSent, DueDate: &past}, true},
		{"draft past due", order.Invoice{Status: order.InvoiceDraft, DueDate: &past}, true},
		{"unpaid not yet due", order.Invoice{Status: order.InvoiceSent, DueDate: &future}, false},
		{"unpaid due exactly now", order.Invoice{Status: order.InvoiceSent, DueDate: &now}, false},
		{"paid past due", order.Invoice{Status: order.InvoicePaid, DueDate: &past}, false},
		{"void past due", order.Invoice{Status: order.InvoiceVoid, DueDate: &past}, false},
		{"no due date", order.Invoice{Status: order.InvoiceSent}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := order.Order{Status: order.StatusReady, Invoices: []order.Invoice{tt.invoice}}
			sig := phase.ExtractSignals([]order.Order{o}, nil, now)
			require.Equal(t, tt.want, sig.NeedsAttention)
		})
	}
}

func TestExtractSignals_Proofs(t *testing.T) {
	for status, want := range map[order.ProofStatus]bool{
		order.ProofPending:           false,
		order.ProofSent:              true,
		order.ProofRevisionRequested: true,
		order.ProofApproved:          false,
	} {
		o := order.Order{Status: order.StatusAwaitingProof, Proofs: []order.Proof{{Status: status}}}
		sig := phase.ExtractSignals([]order.Order{o}, nil, now)
		require.Equal(t, want, sig.NeedsAttention, "proof %s", status)
	}
}

func TestExtractSignals_OrderClassification(t *testing.T) {
	sig := phase.ExtractSignals([]order.Order{
		{Status: order.StatusDraft},
		{Status: order.StatusCancelled},
	}, []quote.Quote{
		{Status: quote.StatusReviewing},
		{Status: quote.StatusDeclined},
	}, now)

	require.True(t, sig.HasOrders)
	require.True(t, sig.HasQuotes)
	require.True(t, sig.HasActiveOrder)
	require.False(t, sig.AllOrdersSettled)
	require.False(t, sig.HasInProduction)
	require.False(t, sig.HasConfirmedOrders)
	require.True(t, sig.HasOpenQuotes)
	require.True(t, sig.HasReviewingQuotes)
}

func TestExtractSignals_ConfirmedOrders(t *testing.T) {
	sig := phase.ExtractSignals([]order.Order{{Status: order.StatusShipped}}, nil, now)
	require.True(t, sig.HasConfirmedOrders)
	require.True(t, sig.AllOrdersSettled)
	require.False(t, sig.HasActiveOrder)
}
