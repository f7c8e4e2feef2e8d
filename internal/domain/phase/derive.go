package phase

// Derive maps signals to a phase. Rules are evaluated in order and the first
// match wins; the order is part of the contract:
//
//  1. nothing linked                                   -> Empty
//  2. a proof or invoice is waiting on the client      -> NeedsAttention
//  3. an order is in production                        -> InProduction
//  4. an order is not yet terminal                     -> Active
//  5. every order terminal and no quote open           -> Completed
//  6. a quote is with the client and no order confirmed -> InReview
//  7. quotes but no orders                             -> InReview, else Empty
func Derive(sig Signals) Phase {
	switch {
	case !sig.HasOrders && !sig.HasQuotes:
		return Empty
	case sig.NeedsAttention:
		return NeedsAttention
	case sig.HasInProduction:
		return InProduction
	case sig.HasActiveOrder:
		return Active
	case sig.AllOrdersSettled && !sig.HasOpenQuotes:
		return Completed
	case sig.HasReviewingQuotes && !sig.HasConfirmedOrders:
		return InReview
	case sig.HasQuotes && !sig.HasOrders:
		return InReview
	default:
		return Empty
	}
}
