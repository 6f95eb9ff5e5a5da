package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/luxsuv-rentals/pkg/auth"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	"github.com/diagnosis/luxsuv-rentals/pkg/response"
)

// RequireJWT authenticates the bearer access token. A non-empty role also
// requires that role; admins pass every role check.
func RequireJWT(secret, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Unauthorized(w, "missing or invalid authorization header")
				return
			}

			claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), secret)
			if err != nil || claims.TokenType != auth.TokenAccess {
				response.Unauthorized(w, "invalid token")
				return
			}

			if role != "" && claims.Role != role && !claims.IsAdmin() {
				response.Forbidden(w, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = auth.WithClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
