// Package middleware contains HTTP middleware for the Lettersmith API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mpettersen/lettersmith/internal/auth"
	"github.com/mpettersen/lettersmith/internal/handler"
	"github.com/mpettersen/lettersmith/internal/service"
	"github.com/mpettersen/lettersmith/internal/session"
)

// =============================================================================
// Auth Middleware Configuration
// =============================================================================

// AuthMiddleware provides authentication middleware functionality.
//
// This struct holds dependencies needed by auth middleware functions.
// Create one instance and use its methods as middleware.
type AuthMiddleware struct {
	userService service.UserService
	logger      *slog.Logger
	adminEmails map[string]struct{}
	isSecure    bool // Whether to set Secure flag on cookies (true in production)
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
//
// Parameters:
// - userService: Service for user and session operations
// - logger: Structured logger for auth events
// - adminEmails: Allowlist of accounts permitted on admin routes
// - isSecure: Set to true in production to enable Secure cookie flag
func NewAuthMiddleware(userService service.UserService, logger *slog.Logger, adminEmails []string, isSecure bool) *AuthMiddleware {
	allowlist := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowlist[email] = struct{}{}
		}
	}

	return &AuthMiddleware{
		userService: userService,
		logger:      logger,
		adminEmails: allowlist,
		isSecure:    isSecure,
	}
}

// =============================================================================
// WithUser Middleware
// =============================================================================

// WithUser is middleware that attempts to load the user from the session cookie.
//
// This middleware:
// 1. Checks for a session cookie
// 2. If found, validates the session and loads the user
// 3. Stores the user in the request context
// 4. Continues to the next handler regardless of authentication status
//
// Use this middleware on routes that work both authenticated and
// unauthenticated. The user can be retrieved in handlers using:
//
//	user := auth.GetUser(r.Context())
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get session cookie
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			// No cookie found - continue without user
			next.ServeHTTP(w, r)
			return
		}

		// Validate session and get user
		user, err := m.userService.GetBySessionToken(r.Context(), cookie.Value)
		if err != nil {
			// Invalid or expired session - clear the cookie and continue
			clearSessionCookie(w, m.isSecure)
			next.ServeHTTP(w, r)
			return
		}

		// Set user in context
		r = r.WithContext(auth.SetUser(r.Context(), user))

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// RequireUser Middleware
// =============================================================================

// RequireUser is middleware that requires an authenticated user.
//
// This middleware:
// 1. Checks if a user is present in the context (set by WithUser)
// 2. If not authenticated, returns a 401 JSON error
// 3. If authenticated, continues to the next handler
//
// IMPORTANT: This middleware must be used AFTER WithUser in the middleware chain.
//
// Usage:
//
//	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)
//	mux.Handle("GET /coverletters", requireUser(listHandler))
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// RequireAdmin Middleware
// =============================================================================

// RequireAdmin is middleware that requires an authenticated user on the
// admin allowlist.
//
// The allowlist is compared case-insensitively against the account email.
// Non-admin users get 403, not 404: admin routes are not secret, only
// restricted.
//
// IMPORTANT: Use this AFTER WithUser in the middleware chain.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		if _, ok := m.adminEmails[strings.ToLower(user.Email)]; !ok {
			m.logger.Warn("admin route denied",
				"user_id", user.ID,
				"path", r.URL.Path,
			)
			handler.ForbiddenResponse(w, r, m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Cookie Helpers
// =============================================================================

// clearSessionCookie removes the session cookie from the client.
//
// This is done by setting MaxAge to -1, which tells the browser to delete
// the cookie immediately.
func clearSessionCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     session.CookiePath,
		MaxAge:   -1, // Delete immediately
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw, authMw.WithUser, authMw.RequireUser)
//	mux.Handle("GET /coverletters", stack(listHandler))
//
// This is equivalent to:
//
//	mux.Handle("GET /coverletters",
//	    loggingMw(authMw.WithUser(authMw.RequireUser(listHandler))))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// =============================================================================
// Compile-time checks
// =============================================================================

// Ensure middleware functions have correct signature
var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireAdmin
)
