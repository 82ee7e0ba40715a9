// Package middleware provides the HTTP guard an application server puts in
// front of routes that require a completed authentication: it extracts the
// Authorization bearer token, verifies it as an access token and injects
// the authenticated user id into the request context.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ravil-k/authkit/jwt"
)

type contextKey struct{}

var userIDKey contextKey

// UserID returns the authenticated user id injected by Bearer.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// Bearer returns middleware enforcing a valid access token on every
// request. Failures are answered with 401 and no detail beyond the status.
func Bearer(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			claims, err := manager.VerifyAccess(token)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
