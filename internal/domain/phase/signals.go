package phase

import (
	"time"

	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/quote"
)

// Signals are the facts about a project's links that derivation reads
type Signals struct {
	HasOrders          bool `json:"has_orders"`
	HasQuotes          bool `json:"has_quotes"`
	NeedsAttention     bool `json:"needs_attention"`
	HasInProduction    bool `json:"has_in_production"`
	HasActiveOrder     bool `json:"has_active_order"`
	AllOrdersSettled   bool `json:"all_orders_settled"`
	HasOpenQuotes      bool `json:"has_open_quotes"`
	HasReviewingQuotes bool `json:"has_reviewing_quotes"`
	HasConfirmedOrders bool `json:"has_confirmed_orders"`
}

// ExtractSignals reduces linked orders and quotes to derivation signals.
// now decides whether an unpaid invoice is past due.
func ExtractSignals(orders []order.Order, quotes []quote.Quote, now time.Time) Signals {
	sig := Signals{
		HasOrders:        len(orders) > 0,
		HasQuotes:        len(quotes) > 0,
		AllOrdersSettled: true,
	}

	for _, o := range orders {
		if orderNeedsAttention(o, now) {
			sig.NeedsAttention = true
		}
		if o.Status == order.StatusInProduction {
			sig.HasInProduction = true
		}
		if !o.Status.Terminal() {
			sig.HasActiveOrder = true
			sig.AllOrdersSettled = false
		}
		if o.Status != order.StatusDraft && o.Status != order.StatusCancelled {
			sig.HasConfirmedOrders = true
		}
	}

	for _, q := range quotes {
		if q.Status.Open() {
			sig.HasOpenQuotes = true
		}
		if q.Status.WithClient() {
			sig.HasReviewingQuotes = true
		}
	}

	return sig
}

func orderNeedsAttention(o order.Order, now time.Time) bool {
	for _, p := range o.Proofs {
		if p.Status.AwaitingCustomer() {
			return true
		}
	}
	for _, inv := range o.Invoices {
		if inv.Overdue(now) {
			return true
		}
	}
	return false
}
