package activity

import "time"

// ActivityType names what happened to a project.
type ActivityType string

const (
	TypeProjectCreated     ActivityType = "project_created"
	TypeProjectArchived    ActivityType = "project_archived"
	TypePhaseDerived       ActivityType = "phase_derived"
	TypeOverrideSet        ActivityType = "override_set"
	TypeOverrideCleared    ActivityType = "override_cleared"
	TypeTransitionRejected ActivityType = "transition_rejected"
	TypeOrderChanged       ActivityType = "order_changed"
	TypeQuoteChanged       ActivityType = "quote_changed"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case TypeProjectCreated, TypeProjectArchived, TypePhaseDerived, TypeOverrideSet,
		TypeOverrideCleared, TypeTransitionRejected, TypeOrderChanged, TypeQuoteChanged:
		return true
	}
	return false
}

// Entry is one line of a project's phase history.
type Entry struct {
	ID           int64        `json:"id"`
	TenantID     string       `json:"tenant_id"`
	ProjectID    string       `json:"project_id"`
	EntityID     *string      `json:"entity_id,omitempty"`
	Actor        *string      `json:"actor,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON
	CreatedAt    time.Time    `json:"created_at"`
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Filter selects entries for a tenant. A zero Limit means DefaultLimit.
type Filter struct {
	ProjectID    string
	ActivityType *ActivityType
	Since        *time.Time
	Limit        int
	Offset       int
}
