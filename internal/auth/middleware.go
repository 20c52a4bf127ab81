package auth

import (
	"net/http"

	"github.com/garagehub/garagehub/internal/platform/httpx"
	"github.com/garagehub/garagehub/internal/shared"
)

// RequireAuth rejects requests without an authenticated tenant scope.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.ScopeFromContext(r.Context()); !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests unless the scope carries the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, ok := shared.ScopeFromContext(r.Context())
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		if !scope.IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
