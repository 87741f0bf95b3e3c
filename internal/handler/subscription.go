// This file implements subscription handlers: billing status, cancellation,
// and the admin upgrade path.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mpettersen/lettersmith/internal/auth"
	"github.com/mpettersen/lettersmith/internal/domain"
	"github.com/mpettersen/lettersmith/internal/email"
	"github.com/mpettersen/lettersmith/internal/service"
)

// adminGrantDuration is the pro access granted by the admin upgrade
// endpoint. A calendar year is close enough here; billing-driven grants
// use calendar arithmetic in the payment service.
const adminGrantDuration = 365 * 24 * time.Hour

// =============================================================================
// Handler Configuration
// =============================================================================

// SubscriptionHandler handles subscription-related HTTP requests.
//
// Routes handled:
// - GET  /subscription/status -> Status
// - POST /subscription/cancel -> Cancel
// - POST /admin/upgrade       -> AdminUpgrade (admin only, gated by middleware)
type SubscriptionHandler struct {
	payments     service.PaymentService
	emailService email.EmailService
	logger       *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(payments service.PaymentService, emailService email.EmailService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		payments:     payments,
		emailService: emailService,
		logger:       logger,
	}
}

// =============================================================================
// GET /subscription/status
// =============================================================================

// Status reports the billing view of the authenticated account.
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	status, err := h.payments.SubscriptionStatus(r.Context(), user)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// =============================================================================
// POST /subscription/cancel
// =============================================================================

// Cancel detaches the subscription from the account. Pro access continues
// until the current paid period lapses.
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	if err := h.payments.CancelSubscription(r.Context(), user); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("subscription cancelled", "user_id", user.ID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cancelled": true,
	})
}

// =============================================================================
// POST /admin/upgrade
// =============================================================================

// adminUpgradeRequest is the JSON body for an admin-granted upgrade.
type adminUpgradeRequest struct {
	Email string `json:"email"`
}

// AdminUpgrade grants an account a year of pro access outside of billing.
// The admin allowlist check happens in middleware; this handler only runs
// for allowlisted accounts.
func (h *SubscriptionHandler) AdminUpgrade(w http.ResponseWriter, r *http.Request) {
	admin := auth.GetUser(r.Context())
	if admin == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req adminUpgradeRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("SubscriptionHandler.AdminUpgrade", "Invalid request body"))
		return
	}
	if req.Email == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("SubscriptionHandler.AdminUpgrade", "Email is required"))
		return
	}

	user, err := h.payments.GrantPro(r.Context(), req.Email, adminGrantDuration)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("admin pro grant applied",
		"admin_id", admin.ID,
		"user_id", user.ID,
		"expires_at", user.ProExpiresAt,
	)

	go h.sendProWelcomeEmail(user.Email, user.DisplayName())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upgraded":  true,
		"email":     user.Email,
		"expiresAt": user.ProExpiresAt,
	})
}

// sendProWelcomeEmail sends the pro welcome email in the background with
// its own timeout.
func (h *SubscriptionHandler) sendProWelcomeEmail(addr, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.emailService.SendProWelcomeEmail(ctx, addr, name); err != nil {
		h.logger.Error("failed to send pro welcome email", "error", err, "email", addr)
	}
}

// =============================================================================
// Route Registration Helper
// =============================================================================

// RegisterRoutes registers subscription routes on the provided ServeMux.
// requireUser gates the self-service routes; requireAdmin additionally
// checks the admin allowlist.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, requireUser, requireAdmin func(http.Handler) http.Handler) {
	mux.Handle("GET /subscription/status", requireUser(http.HandlerFunc(h.Status)))
	mux.Handle("POST /subscription/cancel", requireUser(http.HandlerFunc(h.Cancel)))
	mux.Handle("POST /admin/upgrade", requireAdmin(http.HandlerFunc(h.AdminUpgrade)))
}
