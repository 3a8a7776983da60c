package middleware

import (
	"context"
	"net/http"

	"github.com/saudievents/server/internal/api/problem"
	"github.com/saudievents/server/internal/auth"
)

type contextKey string

const sessionClaimsKey contextKey = "sessionClaims"

// RequireAuth verifies the bearer token on the Authorization header and
// attaches the session claims to the request context. It only establishes
// identity; account-type and ownership checks belong to the operations.
func RequireAuth(tokens *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(tokens, r)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthenticated, "Unauthenticated", err, env)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches claims when a valid bearer token is present and
// passes the request through untouched otherwise. Endpoints that merely
// personalize output (for example the mine=true listing filter) use this
// and decide themselves whether identity is required.
func OptionalAuth(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := claimsFromRequest(tokens, r); err == nil {
				r = r.WithContext(ContextWithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromRequest(tokens *auth.JWTManager, r *http.Request) (*auth.Claims, error) {
	token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return tokens.Validate(token)
}

// ContextWithClaims adds session claims to a context.
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

// SessionClaims retrieves the verified claims from the request context, or
// nil when the request is anonymous.
func SessionClaims(r *http.Request) *auth.Claims {
	if r == nil {
		return nil
	}
	if claims, ok := r.Context().Value(sessionClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
