package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rpggio/phaseboard/internal/domain/phase"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Principal is the authenticated caller: the tenant it acts in, who it is and
// the permission tier it holds.
type Principal struct {
	TenantID string     `json:"tenant_id"`
	UserID   string     `json:"user_id"`
	Role     phase.Role `json:"role"`
}

// Resolver resolves a principal from a bearer token.
type Resolver interface {
	ResolvePrincipal(ctx context.Context, token string) (Principal, error)
}

type principalKey struct{}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal from context, if present.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.TenantID != ""
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "Bearer "))
}
