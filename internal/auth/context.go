// Package auth carries the authenticated user through the request context.
//
// Both the middleware and handler packages import it, so it must not import
// either of them.
package auth

import (
	"context"
	"net/http"

	"github.com/mpettersen/lettersmith/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey contextKey = "user"

// GetUser retrieves the authenticated user from the context, or nil when the
// request is unauthenticated.
func GetUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetUserFromRequest is a convenience wrapper around GetUser that takes the
// request directly.
func GetUserFromRequest(r *http.Request) *domain.User {
	return GetUser(r.Context())
}

// SetUser stores a user in the context. Called by the auth middleware after
// it validates a session token.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
