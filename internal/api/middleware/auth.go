package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/karstgames/savepoint/internal/api/apierr"
	"github.com/karstgames/savepoint/internal/model"
	"github.com/karstgames/savepoint/internal/services/token"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// Auth creates authentication middleware. It verifies the bearer token and
// places the claims in the request context; a missing or bad token is a 401.
func Auth(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractToken(r)
			if raw == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole creates authorization middleware gated on a role predicate.
// It must sit inside Auth. Failing the predicate is a 403, distinct from the
// 401 a missing or invalid token gets.
func RequireRole(allowed func(model.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			if !allowed(claims.Role) {
				apierr.WriteError(w, apierr.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin restricts a route to admin accounts
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.Role.CanManageAccounts)
}

// RequireUpgraded restricts a route to upgraded and admin accounts
func RequireUpgraded() func(http.Handler) http.Handler {
	return RequireRole(model.Role.CanUseSaveData)
}

// extractToken pulls the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetClaims returns the verified token claims from the request context
func GetClaims(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*token.Claims)
	return claims
}

// MustGetClaims returns the verified claims or panics
func MustGetClaims(ctx context.Context) *token.Claims {
	claims := GetClaims(ctx)
	if claims == nil {
		panic("no claims in context - auth middleware not applied?")
	}
	return claims
}
