package phase

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPhase indicates a value outside the six phases.
	ErrUnknownPhase = errors.New("unknown phase")
	// ErrUnknownRole indicates a role outside the transition matrix.
	ErrUnknownRole = errors.New("unknown role")
	// ErrForbiddenRole indicates the requestor has no transition rights at all.
	ErrForbiddenRole = errors.New("role has no phase transition rights")

	// ErrForbiddenTransition matches every rejected manual transition.
	ErrForbiddenTransition = errors.New("forbidden phase transition")
	// ErrSystemPhase indicates the target phase is only ever derived.
	ErrSystemPhase = errors.New("phase is system-derived and cannot be set manually")
	// ErrNoopTransition indicates the project already presents the target phase.
	ErrNoopTransition = errors.New("project is already in the requested phase")
	// ErrRoleNotPermitted indicates the role may not move projects into the target phase.
	ErrRoleNotPermitted = errors.New("role may not set the requested phase")
	// ErrPrerequisiteUnmet indicates the project lacks the linked activity the target needs.
	ErrPrerequisiteUnmet = errors.New("project lacks linked activity for the requested phase")
)

// Reason distinguishes why a transition was rejected
type Reason string

const (
	ReasonSystemPhase       Reason = "system_phase"
	ReasonNoop              Reason = "noop"
	ReasonRoleNotPermitted  Reason = "role_not_permitted"
	ReasonPrerequisiteUnmet Reason = "prerequisite_unmet"
)

// TransitionError reports a rejected manual transition. It matches both
// ErrForbiddenTransition and the specific cause with errors.Is.
type TransitionError struct {
	From   Phase
	To     Phase
	Role   Role
	Reason Reason
	Detail string
	cause  error
}

func newTransitionError(from, to Phase, role Role, reason Reason, cause error, detail string) *TransitionError {
	return &TransitionError{From: from, To: to, Role: role, Reason: reason, Detail: detail, cause: cause}
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("cannot move project from %s to %s as %s: %v", e.From, e.To, e.Role, e.cause)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *TransitionError) Unwrap() []error {
	return []error{ErrForbiddenTransition, e.cause}
}
