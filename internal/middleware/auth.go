// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"storefront/internal/models"
	"storefront/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// SessionLoader looks up the session behind a bearer token.
type SessionLoader interface {
	Get(ctx context.Context, token string) (*session.Data, error)
}

// LoadSession resolves the bearer token of the request and stores the
// session in the request context. Downstream handlers can access it via
// SessionFromCtx(). This middleware does NOT enforce authentication; it
// only loads the session if one exists.
func LoadSession(store SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			data, err := store.Get(r.Context(), token)
			if err != nil {
				// Treat as unauthenticated.
				slog.Warn("session lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				r = r.WithContext(WithSession(r.Context(), data))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a valid session with 401.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			writeStatus(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole returns 403 unless the authenticated user has one of roles.
// Must be applied after RequireAuth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromCtx(r.Context())
			if sess == nil {
				writeStatus(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}
			if !slices.Contains(roles, models.Role(sess.Role)) {
				writeStatus(w, http.StatusForbidden, "You are not allowed to perform this action.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a copy of ctx carrying data.
func WithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}
