package phase_test

import (
	"errors"
	"testing"

	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/stretchr/testify/require"
)

var busy = phase.Activity{Orders: 2, Quotes: 1}

func TestPolicy_NeedsAttentionNeverManual(t *testing.T) {
	policy := phase.DefaultPolicy()
	for _, current := range phase.All {
		for _, role := range append(phase.Roles, "unknown") {
			err := policy.Check(current, phase.NeedsAttention, role, busy)
			require.ErrorIs(t, err, phase.ErrForbiddenTransition, "from %s as %s", current, role)
			require.ErrorIs(t, err, phase.ErrSystemPhase)

			var terr *phase.TransitionError
			require.True(t, errors.As(err, &terr))
			require.Equal(t, phase.ReasonSystemPhase, terr.Reason)
		}
	}
}

func TestPolicy_NoopRejected(t *testing.T) {
	policy := phase.DefaultPolicy()
	for _, current := range phase.All {
		for _, role := range phase.Roles {
			require.False(t, policy.CanTransition(current, current, role, busy), "%s as %s", current, role)
		}
	}

	err := policy.Check(phase.Active, phase.Active, phase.RoleStaff, busy)
	require.ErrorIs(t, err, phase.ErrNoopTransition)
	require.ErrorIs(t, err, phase.ErrForbiddenTransition)
}

func TestPolicy_ViewerHasNoRights(t *testing.T) {
	policy := phase.DefaultPolicy()
	err := policy.Check(phase.Active, phase.Completed, phase.RoleClientViewer, busy)
	require.ErrorIs(t, err, phase.ErrForbiddenRole)
	require.NotErrorIs(t, err, phase.ErrForbiddenTransition)
}

func TestPolicy_DefaultMatrix(t *testing.T) {
	policy := phase.DefaultPolicy()
	manual := []phase.Phase{phase.Empty, phase.InReview, phase.Active, phase.InProduction, phase.Completed}

	for _, role := range []phase.Role{phase.RoleClientAdmin, phase.RoleStaff} {
		require.Equal(t, manual, policy.Targets(role))
		for _, from := range phase.All {
			for _, to := range manual {
				if from == to {
					continue
				}
				require.NoError(t, policy.Check(from, to, role, busy), "%s -> %s as %s", from, to, role)
			}
		}
	}
	require.Empty(t, policy.Targets(phase.RoleClientViewer))
}

func TestPolicy_Prerequisites(t *testing.T) {
	policy := phase.DefaultPolicy()

	tests := []struct {
		name     string
		target   phase.Phase
		activity phase.Activity
		allowed  bool
	}{
		{"production without orders", phase.InProduction, phase.Activity{Quotes: 3}, false},
		{"production with an order", phase.InProduction, phase.Activity{Orders: 1}, true},
		{"active without orders", phase.Active, phase.Activity{}, false},
		{"review with a quote", phase.InReview, phase.Activity{Quotes: 1}, true},
		{"review with nothing", phase.InReview, phase.Activity{}, false},
		{"completed with nothing", phase.Completed, phase.Activity{}, false},
		{"completed with a quote", phase.Completed, phase.Activity{Quotes: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Check(phase.Empty, tt.target, phase.RoleStaff, tt.activity)
			if tt.allowed {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, phase.ErrPrerequisiteUnmet)
			var terr *phase.TransitionError
			require.True(t, errors.As(err, &terr))
			require.Equal(t, phase.ReasonPrerequisiteUnmet, terr.Reason)
			require.NotEmpty(t, terr.Detail)
		})
	}

	require.NoError(t, policy.Check(phase.Completed, phase.Empty, phase.RoleStaff, phase.Activity{}))
}

func TestPolicy_FromConfig(t *testing.T) {
	policy, err := phase.PolicyFromConfig(map[string][]string{
		"client_admin": {"in_review", "completed"},
		"staff":        {"empty", "in_review", "active", "in_production", "completed"},
	})
	require.NoError(t, err)

	err = policy.Check(phase.InReview, phase.InProduction, phase.RoleClientAdmin, busy)
	require.ErrorIs(t, err, phase.ErrRoleNotPermitted)
	require.ErrorIs(t, err, phase.ErrForbiddenTransition)
	require.NoError(t, policy.Check(phase.Active, phase.Completed, phase.RoleClientAdmin, busy))

	require.ErrorIs(t, policy.Check(phase.Active, phase.Completed, phase.RoleClientViewer, busy), phase.ErrForbiddenRole)
	require.Equal(t, []phase.Phase{phase.InReview, phase.Completed}, policy.Table()[phase.RoleClientAdmin])
}

func TestPolicy_FromConfigRejectsBadTables(t *testing.T) {
	_, err := phase.PolicyFromConfig(map[string][]string{"staff": {"needs_attention"}})
	require.ErrorIs(t, err, phase.ErrSystemPhase)

	_, err = phase.PolicyFromConfig(map[string][]string{"owner": {"active"}})
	require.ErrorIs(t, err, phase.ErrUnknownRole)

	_, err = phase.PolicyFromConfig(map[string][]string{"staff": {"shipping"}})
	require.ErrorIs(t, err, phase.ErrUnknownPhase)

	policy, err := phase.PolicyFromConfig(nil)
	require.NoError(t, err)
	require.NotEmpty(t, policy.Targets(phase.RoleStaff))
}

func TestPolicy_UnknownTarget(t *testing.T) {
	err := phase.DefaultPolicy().Check(phase.Active, "archived", phase.RoleStaff, busy)
	require.ErrorIs(t, err, phase.ErrUnknownPhase)
}

func TestTransitionError_Message(t *testing.T) {
	err := phase.DefaultPolicy().Check(phase.Empty, phase.InProduction, phase.RoleStaff, phase.Activity{})
	require.EqualError(t, err,
		"cannot move project from empty to in_production as staff: project lacks linked activity for the requested phase (requires at least one linked order)")
}
