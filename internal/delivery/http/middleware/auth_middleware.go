package middleware

import (
	"context"
	"net/http"

	"kainan-backend/internal/domain"
	"kainan-backend/pkg/utils"
)

// NewAuthMiddleware validates the bearer token and places a partial user
// built from its claims on the context. Claims are trusted for the token
// lifetime to avoid a DB hit on every request.
func NewAuthMiddleware(tokens *utils.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.ExtractClaims(r)
			if err != nil {
				http.Error(w, "Unauthorized: Invalid or missing token", http.StatusUnauthorized)
				return
			}

			user := &domain.User{
				ID:    claims.UserID,
				Email: claims.Email,
				Role:  claims.Role,
			}

			ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
