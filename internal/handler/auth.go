// This file implements authentication handlers for user registration, login,
// logout, and the current-user endpoint.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mpettersen/lettersmith/internal/auth"
	"github.com/mpettersen/lettersmith/internal/domain"
	"github.com/mpettersen/lettersmith/internal/email"
	"github.com/mpettersen/lettersmith/internal/service"
	"github.com/mpettersen/lettersmith/internal/session"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// AuthHandler handles authentication-related HTTP requests.
//
// Dependencies:
// - userService: Business logic for user operations (registration, login, logout)
// - emailService: Service for sending transactional emails
// - logger: Structured logging for request handling
// - isSecure: Whether to set Secure flag on cookies (true in production)
//
// Routes handled:
// - POST /auth/register -> Register
// - POST /auth/login    -> Login
// - POST /auth/logout   -> Logout
// - GET  /auth/me       -> Me
type AuthHandler struct {
	userService  service.UserService
	emailService email.EmailService
	logger       *slog.Logger
	isSecure     bool
}

// NewAuthHandler creates a new AuthHandler with the required dependencies.
//
// Example usage in main.go:
//
//	authHandler := handler.NewAuthHandler(userService, emailService, logger, cfg.Env != "development")
func NewAuthHandler(
	userService service.UserService,
	emailService email.EmailService,
	logger *slog.Logger,
	isSecure bool,
) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		emailService: emailService,
		logger:       logger,
		isSecure:     isSecure,
	}
}

// =============================================================================
// Response Types
// =============================================================================

// userResponse is the public representation of a user account.
// The password hash never leaves the service layer.
type userResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Plan      string     `json:"plan"`
	IsPro     bool       `json:"isPro"`
	ExpiresAt *time.Time `json:"proExpiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toUserResponse(u *domain.User, now time.Time) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Plan:      u.Plan(now),
		IsPro:     u.IsUnmetered(now),
		ExpiresAt: u.ProExpiresAt,
		CreatedAt: u.CreatedAt,
	}
}

// =============================================================================
// POST /auth/register
// =============================================================================

// registerRequest is the JSON body for registration.
type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Register creates a new account and logs the user in.
//
// Flow:
// 1. Decode and validate the request body
// 2. Call userService.Register() to create the user
// 3. Call userService.Login() to create a session
// 4. Set the session cookie and return the user
//
// Security Considerations:
// - Passwords are never logged, even on error
// - The ECONFLICT message does not reveal more than the client already knows
//   (they supplied the email themselves)
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("AuthHandler.Register", "Invalid request body"))
		return
	}

	user, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			ValidationErrorResponse(w, r, h.logger, err)
			return
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Welcome email must not block or fail the registration response.
	go h.sendWelcomeEmail(user.Email, user.DisplayName())

	// Registration succeeded; log the user in automatically.
	loginResult, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// The account exists but session creation failed. The client can
		// retry via /auth/login.
		h.logger.Error("auto-login after registration failed", "error", err, "user_id", user.ID)
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"user": toUserResponse(user, time.Now()),
		})
		return
	}

	setSessionCookie(w, loginResult.Token, h.isSecure)

	h.logger.Info("user registered",
		"user_id", user.ID,
		"email", user.Email,
	)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user": toUserResponse(loginResult.User, time.Now()),
	})
}

// =============================================================================
// POST /auth/login
// =============================================================================

// loginRequest is the JSON body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and starts a session.
//
// Security Considerations:
// - Invalid email and invalid password produce the same EUNAUTHORIZED
//   response, so the endpoint cannot be used to enumerate accounts
// - Rate limiting is applied by middleware, not here
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("AuthHandler.Login", "Invalid request body"))
		return
	}

	loginResult, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	setSessionCookie(w, loginResult.Token, h.isSecure)

	h.logger.Info("user logged in",
		"user_id", loginResult.User.ID,
		"email", loginResult.User.Email,
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": toUserResponse(loginResult.User, time.Now()),
	})
}

// =============================================================================
// POST /auth/logout
// =============================================================================

// Logout invalidates the session and clears the session cookie.
//
// This operation is idempotent: calling it without a session still returns
// 204, and the cookie is cleared regardless of the database result.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		if err := h.userService.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("failed to invalidate session", "error", err)
		}
	}

	clearSessionCookie(w, h.isSecure)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// GET /auth/me
// =============================================================================

// Me returns the authenticated user's account.
// The auth middleware has already resolved the session; a nil user here
// means the route was wired without RequireUser.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": toUserResponse(user, time.Now()),
	})
}

// =============================================================================
// Email Helpers
// =============================================================================

// sendWelcomeEmail sends the welcome email in the background with its own
// timeout, detached from the request context.
func (h *AuthHandler) sendWelcomeEmail(addr, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.emailService.SendWelcomeEmail(ctx, addr, name); err != nil {
		h.logger.Error("failed to send welcome email", "error", err, "email", addr)
	}
}

// =============================================================================
// Session Cookie Helpers
// =============================================================================

// setSessionCookie sets the session cookie on the response.
//
// Cookie Settings:
// - HttpOnly: true - Prevents JavaScript access (XSS protection)
// - Secure: configurable - Set true in production (HTTPS only)
// - SameSite: Lax - Prevents CSRF while allowing normal navigation
// - Path: / - Cookie sent with all requests
// - MaxAge: 7 days - Matches session duration
func setSessionCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     session.CookiePath,
		MaxAge:   session.CookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

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
// Route Registration Helper
// =============================================================================

// RegisterRoutes registers all auth routes on the provided ServeMux.
//
// The requireUser middleware is applied to /auth/me only; the other routes
// must stay reachable without a session. limitLogin and limitRegister
// throttle credential guessing and bulk signups.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, requireUser, limitLogin, limitRegister func(http.Handler) http.Handler) {
	mux.Handle("POST /auth/register", limitRegister(http.HandlerFunc(h.Register)))
	mux.Handle("POST /auth/login", limitLogin(http.HandlerFunc(h.Login)))
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.Handle("GET /auth/me", requireUser(http.HandlerFunc(h.Me)))
}
