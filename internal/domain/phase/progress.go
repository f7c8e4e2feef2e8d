package phase

import (
	"math"

	"github.com/rpggio/phaseboard/internal/domain/order"
)

var progressWeights = map[order.Status]int{
	order.StatusDraft:         0,
	order.StatusSubmitted:     0,
	order.StatusInReview:      10,
	order.StatusAwaitingProof: 20,
	order.StatusApproved:      40,
	order.StatusInProduction:  60,
	order.StatusReady:         80,
	order.StatusShipped:       90,
	order.StatusCompleted:     100,
}

// Weight returns the completion weight of a single order status. Unknown
// statuses weigh zero.
func Weight(s order.Status) int {
	return progressWeights[s]
}

// Progress estimates completion from 0 to 100 as the rounded mean weight of the
// non-cancelled statuses. It is independent of phase derivation.
func Progress(statuses []order.Status) int {
	total, counted := 0, 0
	for _, s := range statuses {
		if s == order.StatusCancelled {
			continue
		}
		total += Weight(s)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(counted)))
}

// ProgressOf is Progress over the statuses of orders.
func ProgressOf(orders []order.Order) int {
	statuses := make([]order.Status, 0, len(orders))
	for _, o := range orders {
		statuses = append(statuses, o.Status)
	}
	return Progress(statuses)
}
