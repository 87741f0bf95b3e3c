// This file implements the Gumroad webhook handler for processing billing
// events.
//
// Route:
//   - POST /webhooks/gumroad -> HandleGumroadWebhook
//
// This route is PUBLIC (no auth middleware) because Gumroad calls it
// directly. Authentication is via the webhook HMAC signature.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/mpettersen/lettersmith/internal/billing"
	"github.com/mpettersen/lettersmith/internal/domain"
	"github.com/mpettersen/lettersmith/internal/metrics"
	"github.com/mpettersen/lettersmith/internal/service"
)

// WebhookHandler handles incoming billing events from Gumroad.
type WebhookHandler struct {
	verifier *billing.Verifier
	payments service.PaymentService
	logger   *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(verifier *billing.Verifier, payments service.PaymentService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		payments: payments,
		logger:   logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
// These routes are PUBLIC, no auth middleware.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/gumroad", h.HandleGumroadWebhook)
}

// HandleGumroadWebhook processes one Gumroad ping.
//
// Flow:
// 1. Parse the form-encoded body into a WebhookEvent
// 2. Verify the HMAC signature (header, falling back to the form field)
// 3. Hand the event to the payment service
// 4. Respond 200 so Gumroad does not retry applied events
//
// Security Considerations:
// - Signature failures return 401 without revealing which check failed
// - Unknown buyer emails return 404; Gumroad retries later, which covers
//   the purchase-before-signup window
func (h *WebhookHandler) HandleGumroadWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("webhook body is not valid form data", "error", err)
		ErrorResponse(w, r, h.logger, domain.Invalid("WebhookHandler.HandleGumroadWebhook", "Invalid webhook payload"))
		return
	}

	event := billing.ParseWebhookEvent(r.PostForm)

	// Gumroad sends the signature as a header; some resend tools put it in
	// the form instead.
	signature := r.Header.Get(billing.SignatureHeader)
	if signature == "" {
		signature = event.Signature
	}

	if !h.verifier.Verify(event, signature) {
		metrics.WebhookEventsTotal.WithLabelValues("invalid_signature").Inc()
		h.logger.Warn("webhook signature verification failed",
			"sale_id", event.ID,
			"email", event.Email,
		)
		ErrorResponse(w, r, h.logger, domain.Unauthorized("WebhookHandler.HandleGumroadWebhook", "Invalid webhook signature"))
		return
	}

	h.logger.Info("gumroad webhook received",
		"sale_id", event.ID,
		"product_id", event.ProductID,
		"refunded", event.IsRefund(),
		"test", event.IsTest(),
	)

	if err := h.payments.ProcessWebhookEvent(r.Context(), event); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"received": true,
	})
}
