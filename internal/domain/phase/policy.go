package phase

import "fmt"

// Role is the requestor's permission tier
type Role string

const (
	RoleClientViewer Role = "client_viewer"
	RoleClientAdmin  Role = "client_admin"
	RoleStaff        Role = "staff"
)

// Roles lists every known role from least to most privileged.
var Roles = []Role{RoleClientViewer, RoleClientAdmin, RoleStaff}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// CanClearOverride reports whether the role may unpin a manual phase.
func (r Role) CanClearOverride() bool {
	return r == RoleStaff
}

// ParseRole converts a stored or configured value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Activity counts the links a project currently has.
type Activity struct {
	Orders int `json:"orders"`
	Quotes int `json:"quotes"`
}

// Prerequisite names the linked activity a manual target phase needs to be meaningful.
type Prerequisite struct {
	NeedsOrder    bool
	NeedsAnyLinks bool
}

// Met reports whether a satisfies the prerequisite.
func (p Prerequisite) Met(a Activity) bool {
	if p.NeedsOrder && a.Orders == 0 {
		return false
	}
	if p.NeedsAnyLinks && a.Orders+a.Quotes == 0 {
		return false
	}
	return true
}

func (p Prerequisite) String() string {
	switch {
	case p.NeedsOrder:
		return "requires at least one linked order"
	case p.NeedsAnyLinks:
		return "requires at least one linked order or quote"
	default:
		return "no prerequisite"
	}
}

var defaultPrerequisites = map[Phase]Prerequisite{
	Empty:        {},
	InReview:     {NeedsAnyLinks: true},
	Active:       {NeedsOrder: true},
	InProduction: {NeedsOrder: true},
	Completed:    {NeedsAnyLinks: true},
}

var manualPhases = []Phase{Empty, InReview, Active, InProduction, Completed}

// Policy is the manual transition table: which role may pin which phase, and
// what linked activity each phase requires. NeedsAttention never appears in it.
type Policy struct {
	allowed       map[Role]map[Phase]bool
	prerequisites map[Phase]Prerequisite
}

// DefaultPolicy lets client admins and staff pin every manual phase and gives
// client viewers no rights.
func DefaultPolicy() *Policy {
	p, _ := NewPolicy(map[Role][]Phase{
		RoleClientViewer: nil,
		RoleClientAdmin:  manualPhases,
		RoleStaff:        manualPhases,
	})
	return p
}

// NewPolicy builds a policy from a role to target-phase table. Roles missing
// from the table have no rights.
func NewPolicy(table map[Role][]Phase) (*Policy, error) {
	p := &Policy{
		allowed:       make(map[Role]map[Phase]bool, len(table)),
		prerequisites: defaultPrerequisites,
	}
	for role, phases := range table {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
		}
		targets := make(map[Phase]bool, len(phases))
		for _, ph := range phases {
			if !ph.Valid() {
				return nil, fmt.Errorf("%w: %q", ErrUnknownPhase, ph)
			}
			if ph.SystemOnly() {
				return nil, fmt.Errorf("role %s: %w", role, ErrSystemPhase)
			}
			targets[ph] = true
		}
		p.allowed[role] = targets
	}
	return p, nil
}

// PolicyFromConfig builds a policy from configuration strings. An empty table
// yields the default policy.
func PolicyFromConfig(table map[string][]string) (*Policy, error) {
	if len(table) == 0 {
		return DefaultPolicy(), nil
	}
	typed := make(map[Role][]Phase, len(table))
	for rawRole, rawPhases := range table {
		role, err := ParseRole(rawRole)
		if err != nil {
			return nil, err
		}
		phases := make([]Phase, 0, len(rawPhases))
		for _, raw := range rawPhases {
			ph, err := Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("role %s: %w", role, err)
			}
			phases = append(phases, ph)
		}
		typed[role] = phases
	}
	return NewPolicy(typed)
}

// Targets returns the phases role may pin, in board order.
func (p *Policy) Targets(role Role) []Phase {
	var out []Phase
	for _, ph := range All {
		if p.allowed[role][ph] {
			out = append(out, ph)
		}
	}
	return out
}

// Table returns the matrix as role -> phases, for display and configuration dumps.
func (p *Policy) Table() map[Role][]Phase {
	out := make(map[Role][]Phase, len(Roles))
	for _, role := range Roles {
		out[role] = p.Targets(role)
	}
	return out
}

// Prerequisite returns the linked activity target requires.
func (p *Policy) Prerequisite(target Phase) Prerequisite {
	return p.prerequisites[target]
}

// Check decides whether role may move a project whose effective phase is
// current into target. It returns nil when allowed, ErrForbiddenRole when the
// role has no rights at all, and a *TransitionError for every other rejection.
func (p *Policy) Check(current, target Phase, role Role, activity Activity) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, target)
	}
	if target.SystemOnly() {
		return newTransitionError(current, target, role, ReasonSystemPhase, ErrSystemPhase, "")
	}
	if target == current {
		return newTransitionError(current, target, role, ReasonNoop, ErrNoopTransition, "")
	}
	if len(p.allowed[role]) == 0 {
		return fmt.Errorf("%w: %s", ErrForbiddenRole, role)
	}
	if !p.allowed[role][target] {
		return newTransitionError(current, target, role, ReasonRoleNotPermitted, ErrRoleNotPermitted, "")
	}
	if pre := p.prerequisites[target]; !pre.Met(activity) {
		return newTransitionError(current, target, role, ReasonPrerequisiteUnmet, ErrPrerequisiteUnmet, pre.String())
	}
	return nil
}

// CanTransition is Check as a boolean.
func (p *Policy) CanTransition(current, target Phase, role Role, activity Activity) bool {
	return p.Check(current, target, role, activity) == nil
}
