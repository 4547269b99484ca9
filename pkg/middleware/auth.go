package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/httputil"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/logger"
)

type contextKeyType string

const claimsKey contextKeyType = "claims"

// Claims are the verified identity claims placed in the request context.
type Claims struct {
	Subject string
	Role    string
}

// TokenValidator verifies a raw bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// Authenticate rejects requests without a valid bearer token with 401 and
// stores the verified claims in the request context.
func Authenticate(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthenticated(w, r, "missing or malformed bearer token")
				return
			}

			claims, err := validate(token)
			if err != nil || claims == nil {
				writeUnauthenticated(w, r, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = logger.WithSubject(ctx, claims.Subject)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("subject", claims.Subject)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole answers 403 unless the authenticated claims carry one of roles.
// It must be mounted after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeUnauthenticated(w, r, "authentication required")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				httputil.WriteErrorCode(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the claims stored by Authenticate, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthenticated(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httputil.WriteErrorCode(w, r, http.StatusUnauthorized, "UNAUTHORIZED", message)
}
