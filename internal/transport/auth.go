package transport

import (
	"net/http"

	"github.com/rpggio/phaseboard/internal/auth"
)

// AuthMiddleware enforces bearer token authentication and stores the
// resolved principal in the request context.
func AuthMiddleware(resolver auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil || principal.TenantID == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// StaticPrincipalMiddleware runs every request as principal. It is used when
// authentication is disabled.
func StaticPrincipalMiddleware(principal auth.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
