package quote

import "time"

// Status represents the lifecycle state of a quote
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusReviewing Status = "reviewing"
	StatusApproved  Status = "approved"
	StatusDeclined  Status = "declined"
	StatusExpired   Status = "expired"
	StatusConverted Status = "converted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusReviewing, StatusApproved, StatusDeclined, StatusExpired, StatusConverted:
		return true
	}
	return false
}

// Open reports whether the proposal is still awaiting a decision.
func (s Status) Open() bool {
	return s == StatusDraft || s == StatusSent || s == StatusReviewing
}

// WithClient reports whether the client currently holds the proposal.
func (s Status) WithClient() bool {
	return s == StatusSent || s == StatusReviewing
}

// Lost reports whether the quote will never turn into revenue.
func (s Status) Lost() bool {
	return s == StatusDeclined || s == StatusExpired
}

// Quote is a priced proposal, optionally linked to a project; totals are in cents
type Quote struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	ProjectID  *string   `json:"project_id,omitempty"`
	Number     string    `json:"number"`
	Status     Status    `json:"status"`
	TotalCents int64     `json:"total_cents"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
