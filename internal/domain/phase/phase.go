// Package phase derives a project's lifecycle phase from the orders and quotes
// linked to it and decides which manual phase changes are allowed.
//
// Everything here is pure: callers load the inputs, and nothing in this package
// performs I/O or holds mutable state.
package phase

import "fmt"

// Phase is one of the six project lifecycle states
type Phase string

const (
	Empty          Phase = "empty"
	InReview       Phase = "in_review"
	Active         Phase = "active"
	InProduction   Phase = "in_production"
	NeedsAttention Phase = "needs_attention"
	Completed      Phase = "completed"
)

// All lists every phase in board order.
var All = []Phase{Empty, InReview, Active, InProduction, NeedsAttention, Completed}

// Valid reports whether p is one of the six phases.
func (p Phase) Valid() bool {
	for _, known := range All {
		if p == known {
			return true
		}
	}
	return false
}

// SystemOnly reports whether the phase can only ever be derived.
func (p Phase) SystemOnly() bool {
	return p == NeedsAttention
}

func (p Phase) String() string {
	return string(p)
}

// Parse converts a wire or storage value into a Phase.
func Parse(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
	return p, nil
}

// Effective resolves the phase a project presents: the override when one is
// pinned, otherwise the derived phase.
func Effective(override *Phase, derived Phase) Phase {
	if override != nil {
		return *override
	}
	return derived
}
