// Package middleware provides HTTP middleware for the bot's JSON API.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"regexp"
	"strings"
)

// ContextKey is the type for context keys in this package.
type ContextKey string

const (
	// ClientNameKey is the context key for the caller-supplied client name.
	ClientNameKey ContextKey = "client_name"

	// ClientNameHeader lets API callers label their traffic on the activity feed.
	ClientNameHeader = "X-Client-Name"
)

var clientNameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ClientNameFromContext returns the client name set by RequireToken, or an
// empty string.
func ClientNameFromContext(ctx context.Context) string {
	if v := ctx.Value(ClientNameKey); v != nil {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

// RequireToken rejects requests that do not carry the shared API token, either
// as a Bearer token or in X-API-Token. An empty token disables the check.
//
// Valid X-Client-Name values are copied into the request context.
func RequireToken(token string) func(http.Handler) http.Handler {
	expected := strings.TrimSpace(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected != "" && !tokenMatches(extractToken(r), expected) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing or invalid api token"}`))
				return
			}

			ctx := r.Context()
			if name := strings.TrimSpace(r.Header.Get(ClientNameHeader)); clientNameRegex.MatchString(name) {
				ctx = context.WithValue(ctx, ClientNameKey, name)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Token"))
}

func tokenMatches(got, expected string) bool {
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
