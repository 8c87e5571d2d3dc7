package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cinelog/cinelog-be/internal/apperr"
)

type contextKey string

// UserClaimsKey is the context key for user claims.
const UserClaimsKey = contextKey("userClaims")

// ClaimsFromContext retrieves the access claims stored by JWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*AccessClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*AccessClaims)
	return claims, ok
}

// JWTMiddleware creates a middleware for protecting routes. It accepts the
// access token from the Authorization header or, failing that, from the
// accessToken cookie.
func JWTMiddleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, "Bearer ")
				if len(parts) == 2 {
					tokenStr = strings.TrimSpace(parts[1])
				}
			}

			if tokenStr == "" {
				if cookie, err := r.Cookie("accessToken"); err == nil {
					tokenStr = cookie.Value
				}
			}

			if tokenStr == "" {
				writeUnauthorized(w, "no token provided")
				return
			}

			claims, err := issuer.VerifyAccess(tokenStr)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(apperr.Unauthorized("unauthorized request: " + msg))
}
