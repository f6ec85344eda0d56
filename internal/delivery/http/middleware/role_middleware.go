package middleware

import (
	"net/http"

	"kainan-backend/internal/domain"
)

// RequireRole ensures the authenticated user holds one of the given roles.
// MUST be used AFTER the auth middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := domain.UserFromContext(r.Context())
			if user == nil {
				http.Error(w, "Unauthorized: No user found in context", http.StatusUnauthorized)
				return
			}
			if !allowed[user.Role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
