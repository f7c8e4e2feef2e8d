package auth

import (
	"context"
	"testing"

	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/stretchr/testify/require"
)

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	_, ok := FromContext(ctx)
	require.False(t, ok)

	ctx = WithPrincipal(ctx, Principal{TenantID: "tenant1", UserID: "u1", Role: phase.RoleStaff})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, phase.RoleStaff, p.Role)

	_, ok = FromContext(WithPrincipal(context.Background(), Principal{}))
	require.False(t, ok)
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", BearerToken("Bearer abc"))
	require.Equal(t, "", BearerToken(""))
	require.Equal(t, "abc", BearerToken(" Bearer abc "))
}
